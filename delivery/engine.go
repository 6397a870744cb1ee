// Package delivery validates outgoing messages and dispatches them to a
// provider.
package delivery

//go:generate go tool mockgen -source=engine.go -destination=mock_provider.go -package=delivery

import (
	"context"
	"log/slog"
	"time"

	"i4.energy/across/smsdeliver/message"
	"i4.energy/across/smsdeliver/number"
	"i4.energy/across/smsdeliver/sms"
)

// Provider delivers single messages over one transport.
type Provider interface {
	// ParseNumber validates a destination in the form the provider needs.
	ParseNumber(raw string) (number.Number, error)
	// Send delivers text, which fits one message, and returns the
	// remaining balance.
	Send(ctx context.Context, to number.Number, text string) (sms.Balance, error)
	// Balance returns the number of messages left.
	Balance(ctx context.Context) (sms.Balance, error)
}

// SilentSender is implemented by providers able to send messages that the
// handset does not display.
type SilentSender interface {
	SendSilent(ctx context.Context, to number.Number, text string) (sms.Balance, error)
}

// Recorder observes completed requests.
type Recorder interface {
	ObserveSend(mode string, parts int, d time.Duration, err error)
	ObserveBalance(b sms.Balance)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSend(string, int, time.Duration, error) {}
func (nopRecorder) ObserveBalance(sms.Balance)                    {}

// Send modes reported to the Recorder.
const (
	ModeSingle = "single"
	ModeSilent = "silent"
	ModeLong   = "long"
)

// Engine is the entry point for sending. It owns input validation and
// capability checks so providers only deal with their transport.
type Engine struct {
	provider Provider
	log      *slog.Logger
	rec      Recorder
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRecorder reports every send and balance to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.rec = r
	}
}

// New returns an Engine dispatching to p.
func New(p Provider, opts ...Option) *Engine {
	e := &Engine{provider: p, log: slog.New(slog.DiscardHandler), rec: nopRecorder{}}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("component", "delivery")
	return e
}

// Send validates the destination and text and sends a single message.
func (e *Engine) Send(ctx context.Context, to, text string) (sms.Balance, error) {
	start := time.Now()
	n, text, err := e.prepare(to, text)
	if err != nil {
		e.rec.ObserveSend(ModeSingle, 0, time.Since(start), err)
		return 0, err
	}
	balance, err := e.provider.Send(ctx, n, text)
	return e.done(ModeSingle, start, n, 1, balance, err)
}

// SendSilent is Send for a silent message. Providers that cannot send silent
// messages are rejected with an input error.
func (e *Engine) SendSilent(ctx context.Context, to, text string) (sms.Balance, error) {
	start := time.Now()
	s, ok := e.provider.(SilentSender)
	if !ok {
		err := sms.InputError("provider does not support silent sending")
		e.rec.ObserveSend(ModeSilent, 0, time.Since(start), err)
		return 0, err
	}
	n, text, err := e.prepare(to, text)
	if err != nil {
		e.rec.ObserveSend(ModeSilent, 0, time.Since(start), err)
		return 0, err
	}
	balance, err := s.SendSilent(ctx, n, text)
	return e.done(ModeSilent, start, n, 1, balance, err)
}

// SendLong splits text into numbered parts of at most one message each and
// sends them in order. It stops at the first part that fails and returns the
// balance reported for the last part sent.
func (e *Engine) SendLong(ctx context.Context, to, text string) (sms.Balance, error) {
	start := time.Now()
	n, err := e.provider.ParseNumber(to)
	if err != nil {
		e.rec.ObserveSend(ModeLong, 0, time.Since(start), err)
		return 0, err
	}
	text, err = nonEmpty(text)
	if err != nil {
		e.rec.ObserveSend(ModeLong, 0, time.Since(start), err)
		return 0, err
	}
	parts, err := message.Split(text, message.MaxLength)
	if err != nil {
		e.rec.ObserveSend(ModeLong, 0, time.Since(start), err)
		return 0, err
	}

	var balance sms.Balance
	for i, part := range parts {
		balance, err = e.provider.Send(ctx, n, part)
		if err != nil {
			e.log.Error("part failed", "to", n.String(), "part", i+1, "parts", len(parts), "error", err)
			return e.done(ModeLong, start, n, i, 0, err)
		}
	}
	return e.done(ModeLong, start, n, len(parts), balance, nil)
}

// Balance returns the provider balance.
func (e *Engine) Balance(ctx context.Context) (sms.Balance, error) {
	balance, err := e.provider.Balance(ctx)
	if err != nil {
		return 0, err
	}
	e.rec.ObserveBalance(balance)
	return balance, nil
}

func (e *Engine) prepare(to, text string) (number.Number, string, error) {
	n, err := e.provider.ParseNumber(to)
	if err != nil {
		return number.Number{}, "", err
	}
	if text, err = nonEmpty(text); err != nil {
		return number.Number{}, "", err
	}
	if text, err = message.Validate(text); err != nil {
		return number.Number{}, "", err
	}
	return n, text, nil
}

// nonEmpty returns text in NFC form, rejecting empty text.
func nonEmpty(text string) (string, error) {
	text = message.Normalize(text)
	if text == "" {
		return "", sms.InputError("text is empty")
	}
	return text, nil
}

// done logs and records a request that reached the provider. Parts counts
// the parts the provider accepted.
func (e *Engine) done(mode string, start time.Time, to number.Number, parts int, balance sms.Balance, err error) (sms.Balance, error) {
	if err != nil {
		if mode == ModeSingle || mode == ModeSilent {
			parts = 0
		}
		e.rec.ObserveSend(mode, parts, time.Since(start), err)
		e.log.Error("send failed", "to", to.String(), "kind", sms.KindOf(err), "error", err)
		return 0, err
	}
	e.rec.ObserveSend(mode, parts, time.Since(start), nil)
	e.rec.ObserveBalance(balance)
	e.log.Info("message sent", "to", to.String(), "mode", mode, "parts", parts, "balance", balance)
	return balance, nil
}
