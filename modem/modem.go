package modem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"i4.energy/across/smsdeliver/at"
	"i4.energy/across/smsdeliver/sms"
)

// Modem drives a GSM modem attached over a Transport in PDU mode.
//
// The Transport is opened on first use and kept until Close. All exchanges
// with the modem are serialized; concurrent senders wait for each other.
type Modem struct {
	// mu guards transport and closed, and serializes AT exchanges
	mu sync.Mutex
	// transport is nil until the first send dials it
	transport Transport
	// config contains the modem configuration settings
	config Config
	// closed indicates if the modem has been shut down
	closed bool
	log    *slog.Logger
}

// New creates a Modem from config. It performs no I/O; the connection is
// dialed when the first message is sent.
func New(config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()
	return &Modem{
		config: config,
		log:    config.logger.With("provider", "modem"),
	}, nil
}

// Close releases the Transport if it was opened. After Close the Modem
// cannot be reused.
func (m *Modem) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrAlreadyClosed
	}
	m.closed = true

	if m.transport != nil {
		return m.transport.Close()
	}
	return nil
}

// open dials the Transport once. Callers hold mu.
func (m *Modem) open(ctx context.Context) error {
	if m.closed {
		return ErrAlreadyClosed
	}
	if m.transport != nil {
		return nil
	}

	t, err := m.config.dialer.Dial(ctx)
	if err != nil {
		return sms.CommunicationError("could not open serial port", err)
	}
	if t == nil {
		return sms.CommunicationError("could not open serial port", ErrNotInitialized)
	}
	if rt, ok := t.(ReadTimeoutSetter); ok {
		if err := rt.SetReadTimeout(m.config.serialTimeout); err != nil {
			t.Close()
			return sms.CommunicationError("could not set serial read timeout", err)
		}
	}
	m.transport = t
	m.log.Debug("serial port opened")
	return nil
}

// exchange writes cmd and collects the modem output up to a final result
// code, the SMS prompt, or an idle line.
func (m *Modem) exchange(ctx context.Context, cmd string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := m.transport.Write(at.Line(cmd)); err != nil {
		return "", sms.CommunicationError(fmt.Sprintf("write command %q", cmd), err)
	}
	return m.collect(ctx)
}

// collect reads response tokens until the exchange is done or the line
// goes quiet.
func (m *Modem) collect(ctx context.Context) (string, error) {
	scanner := bufio.NewScanner(idleReader{m.transport})
	scanner.Split(at.Splitter)

	var lines []string
	for scanner.Scan() {
		token := scanner.Text()
		if token == "" {
			continue
		}
		if at.Classify(token) == at.TypeURC {
			m.log.Debug("unsolicited result code", "urc", token)
			continue
		}
		lines = append(lines, token)
		if at.Done(token) {
			break
		}
		if err := ctx.Err(); err != nil {
			return strings.Join(lines, "\n"), err
		}
	}
	if err := scanner.Err(); err != nil {
		return strings.Join(lines, "\n"), sms.CommunicationError("read from modem", err)
	}
	return strings.Join(lines, "\n"), nil
}

// expect runs cmd and requires OK, or the SMS prompt when prompt is set.
func (m *Modem) expect(ctx context.Context, cmd string, prompt bool) error {
	resp, err := m.exchange(ctx, cmd)
	if err != nil {
		return err
	}
	if strings.Contains(resp, at.OK) {
		return nil
	}
	if prompt && strings.Contains(resp, strings.TrimSpace(at.Prompt)) {
		return nil
	}
	return sms.SendError("modem rejected command", fmt.Errorf("%s: unexpected response %q", cmd, resp))
}

// idleReader turns an idle read, no bytes and no error as reported by a
// serial port whose read timeout expired, into io.EOF.
type idleReader struct {
	r io.Reader
}

func (r idleReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}
