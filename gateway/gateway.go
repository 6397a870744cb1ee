// Package gateway turns incoming mail and MQTT requests into text messages.
// The subject of a message accepted over SMTP is sent to the number named by
// the recipient's local part, e.g. 041928491@sms.example.com.
package gateway

//go:generate go tool mockgen -source=gateway.go -destination=mock_sender.go -package=gateway

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"golang.org/x/text/encoding/htmlindex"

	"i4.energy/across/smsdeliver/sms"
)

// Sender sends text that may span several messages.
type Sender interface {
	SendLong(ctx context.Context, to, text string) (sms.Balance, error)
}

// Options configure a Backend.
type Options struct {
	// AllowedSenders lists the envelope senders accepted. Empty accepts
	// everyone.
	AllowedSenders []string
	// DefaultDestination receives mail addressed to a non-numeric recipient.
	DefaultDestination string
	// SendTimeout bounds the delivery of one mail. Defaults to one minute.
	SendTimeout time.Duration
	Logger      *slog.Logger
}

func (o *Options) setDefaults() {
	if o.SendTimeout == 0 {
		o.SendTimeout = time.Minute
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

var (
	errSenderDenied = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 7, 1},
		Message:      "Sender not allowed",
	}
	errNoDestination = &smtp.SMTPError{
		Code:         550,
		EnhancedCode: smtp.EnhancedCode{5, 1, 1},
		Message:      "No destination number for recipient",
	}
	errNoRecipients = &smtp.SMTPError{
		Code:         554,
		EnhancedCode: smtp.EnhancedCode{5, 5, 1},
		Message:      "No valid recipients",
	}
	errEmptySubject = &smtp.SMTPError{
		Code:         554,
		EnhancedCode: smtp.EnhancedCode{5, 6, 0},
		Message:      "Subject is empty",
	}
)

// Backend implements smtp.Backend.
type Backend struct {
	sender  Sender
	allowed map[string]struct{}
	opts    Options
	log     *slog.Logger
}

// NewBackend returns a Backend forwarding subjects to s.
func NewBackend(s Sender, opts Options) *Backend {
	opts.setDefaults()
	b := &Backend{
		sender:  s,
		allowed: make(map[string]struct{}, len(opts.AllowedSenders)),
		opts:    opts,
		log:     opts.Logger.With("component", "gateway"),
	}
	for _, a := range opts.AllowedSenders {
		if a = normalize(a); a != "" {
			b.allowed[a] = struct{}{}
		}
	}
	return b
}

// NewServer returns an SMTP server for b listening on addr.
func NewServer(b *Backend, addr, domain string) *smtp.Server {
	s := smtp.NewServer(b)
	s.Addr = addr
	s.Domain = domain
	s.ReadTimeout = 30 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.MaxMessageBytes = 1 << 20
	s.MaxRecipients = 10
	return s
}

func (b *Backend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &session{backend: b}, nil
}

type session struct {
	backend *Backend
	from    string
	to      []string
}

func (s *session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *session) Logout() error {
	return nil
}

func (s *session) Mail(from string, opts *smtp.MailOptions) error {
	addr := normalize(from)
	if len(s.backend.allowed) > 0 {
		if _, ok := s.backend.allowed[addr]; !ok {
			s.backend.log.Warn("sender rejected", "from", addr)
			return errSenderDenied
		}
	}
	s.from = addr
	return nil
}

func (s *session) Rcpt(to string, opts *smtp.RcptOptions) error {
	local := normalize(to)
	if at := strings.LastIndexByte(local, '@'); at >= 0 {
		local = local[:at]
	}
	switch {
	case isNumber(local):
		s.to = append(s.to, local)
	case s.backend.opts.DefaultDestination != "":
		s.to = append(s.to, s.backend.opts.DefaultDestination)
	default:
		return errNoDestination
	}
	return nil
}

func (s *session) Data(r io.Reader) error {
	if len(s.to) == 0 {
		return errNoRecipients
	}

	msg, err := mail.ReadMessage(r)
	if err != nil {
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}
	defer io.Copy(io.Discard, msg.Body)

	subject, err := decodeHeader(msg.Header.Get("Subject"))
	if err != nil {
		s.backend.log.Warn("undecodable subject", "from", s.from, "error", err)
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return errEmptySubject
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.backend.opts.SendTimeout)
	defer cancel()

	for _, to := range s.to {
		balance, err := s.backend.sender.SendLong(ctx, to, subject)
		if err != nil {
			s.backend.log.Error("forward failed", "from", s.from, "to", to, "error", err)
			return smtpError(err)
		}
		s.backend.log.Info("mail forwarded", "from", s.from, "to", to, "balance", balance)
	}
	return nil
}

// smtpError maps a delivery failure to a reply: bad input is permanent,
// everything else may succeed later.
func smtpError(err error) *smtp.SMTPError {
	if sms.KindOf(err) == sms.KindInput {
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      fmt.Sprintf("Message rejected: %v", err),
		}
	}
	return &smtp.SMTPError{
		Code:         451,
		EnhancedCode: smtp.EnhancedCode{4, 3, 0},
		Message:      fmt.Sprintf("Message not sent: %v", err),
	}
}

var wordDecoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, err
		}
		return enc.NewDecoder().Reader(input), nil
	},
}

func decodeHeader(v string) (string, error) {
	d, err := wordDecoder.DecodeHeader(v)
	if err != nil {
		return v, err
	}
	return d, nil
}

func normalize(addr string) string {
	addr = strings.TrimSpace(addr)
	if a, err := mail.ParseAddress(addr); err == nil {
		addr = a.Address
	}
	return strings.ToLower(strings.Trim(addr, "<>"))
}

func isNumber(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
