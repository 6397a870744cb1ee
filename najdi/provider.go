package najdi

//go:generate go tool mockgen -source=provider.go -destination=mock_portal.go -package=najdi

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"i4.energy/across/smsdeliver/number"
	"i4.energy/across/smsdeliver/sms"
)

// Portal is the session-based web service a Provider sends through.
type Portal interface {
	// Login opens a new session.
	Login(ctx context.Context) (Session, error)
	// SendSMS sends text within the session identified by token and
	// returns the remaining balance.
	SendSMS(ctx context.Context, token, prefix, subscriber, text string) (int, error)
}

// Provider sends messages through the najdi.si portal, logging in on demand
// and starting over with a fresh session after any failure.
type Provider struct {
	// mu serializes sends and guards the session state
	mu      sync.Mutex
	portal  Portal
	retries int
	delay   time.Duration
	log     *slog.Logger

	// token is empty while logged out
	token   string
	balance int
	known   bool
}

// New creates a Provider. No request is made until the first send.
func New(config Config) (*Provider, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	log := config.logger.With("provider", "najdi")
	portal := config.portal
	if portal == nil {
		c, err := NewClient(config.endpoints, config.username, config.password, config.httpClient, config.timeout)
		if err != nil {
			return nil, err
		}
		c.log = log
		portal = c
	}

	return &Provider{
		portal:  portal,
		retries: config.retries,
		delay:   config.retryDelay,
		log:     log,
	}, nil
}

// ParseNumber accepts Slovenian mobile numbers only.
func (p *Provider) ParseNumber(raw string) (number.Number, error) {
	return number.SplitNational(raw)
}

// Balance returns the number of messages left, logging in when it is not
// known yet or was exhausted.
func (p *Provider) Balance(ctx context.Context) (sms.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.known || p.balance == 0 {
		if err := p.login(ctx); err != nil {
			p.token = ""
			return 0, err
		}
	}
	return sms.Balance(p.balance), nil
}

// Send delivers text and returns the remaining balance.
//
// Up to retries+1 attempts are made. An attempt logs in when there is no
// session and fails with "out of balance" when a fresh login reports no
// messages left. Any provider error drops the session so the next attempt
// starts with a new login; other errors, such as a canceled context, are
// returned immediately.
func (p *Provider) Send(ctx context.Context, to number.Number, text string) (sms.Balance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	log := p.log.With("to", to.String())
	b := &backoff.Backoff{Min: p.delay, Max: 30 * p.delay}

	var lastErr error
	for attempt := 0; attempt <= p.retries; attempt++ {
		if attempt > 0 && p.delay > 0 {
			if err := sleep(ctx, b.Duration()); err != nil {
				return 0, err
			}
		}

		err := p.attempt(ctx, to, text)
		if err == nil {
			log.Info("message sent", "attempt", attempt+1, "balance", p.balance)
			return sms.Balance(p.balance), nil
		}

		var serr *sms.Error
		if !errors.As(err, &serr) {
			return 0, err
		}
		log.Warn("send attempt failed", "attempt", attempt+1, "error", err)
		lastErr = err
		p.token = ""
	}

	if lastErr == nil {
		lastErr = sms.SendError("unknown error")
	}
	return 0, lastErr
}

func (p *Provider) attempt(ctx context.Context, to number.Number, text string) error {
	if p.token == "" {
		p.log.Debug("not logged in")
		if err := p.login(ctx); err != nil {
			return err
		}
		if p.balance == 0 {
			return sms.SendError("out of balance")
		}
	}

	left, err := p.portal.SendSMS(ctx, p.token, to.Prefix, to.Subscriber, text)
	if err != nil {
		return err
	}
	p.balance = left
	p.known = true
	return nil
}

func (p *Provider) login(ctx context.Context) error {
	s, err := p.portal.Login(ctx)
	if err != nil {
		return err
	}
	p.token = s.Token
	p.balance = s.Balance
	p.known = true
	p.log.Info("login complete", "balance", s.Balance)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
