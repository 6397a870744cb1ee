package modem

import (
	"context"
	"errors"

	"i4.energy/across/smsdeliver/at"
	"i4.energy/across/smsdeliver/number"
	"i4.energy/across/smsdeliver/pdu"
	"i4.energy/across/smsdeliver/sms"
)

// Options adjust a single send.
type Options struct {
	// Source overrides the configured originating number.
	Source string
	// Silent sends a Type-0 message that the handset does not display.
	Silent bool
}

// ParseNumber validates raw using the configured region.
func (m *Modem) ParseNumber(raw string) (number.Number, error) {
	return number.ParseE164(raw, m.config.region)
}

// Balance reports the quota of a modem, which is unlimited.
func (m *Modem) Balance(context.Context) (sms.Balance, error) {
	return sms.Unlimited, nil
}

// Send transmits text to the recipient.
func (m *Modem) Send(ctx context.Context, to number.Number, text string) (sms.Balance, error) {
	return m.SendFrom(ctx, to, text, Options{})
}

// SendSilent transmits text as a silent message.
func (m *Modem) SendSilent(ctx context.Context, to number.Number, text string) (sms.Balance, error) {
	return m.SendFrom(ctx, to, text, Options{Silent: true})
}

// SendFrom encodes text as one or more SMS-SUBMIT PDUs and writes them to the
// modem in PDU mode.
//
// The modem must answer AT before anything is sent. Each attempt switches to
// PDU mode, announces the PDU length with AT+CMGS and writes the PDU followed
// by Ctrl-Z. A failed attempt is repeated up to the configured number of
// retries, resuming with the first frame not yet written.
func (m *Modem) SendFrom(ctx context.Context, to number.Number, text string, opts Options) (sms.Balance, error) {
	frames, err := m.encode(to, text, opts)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.open(ctx); err != nil {
		return 0, err
	}

	if err := m.expect(ctx, at.CmdAt, false); err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		return 0, sms.AuthError("cannot verify modem", err)
	}

	sent := 0
	var lastErr error
	for attempt := 0; attempt <= m.config.retries; attempt++ {
		err := m.transmit(ctx, frames, &sent)
		if err == nil {
			m.log.Info("message sent", "to", to.E164, "frames", len(frames), "attempt", attempt+1)
			return sms.Unlimited, nil
		}
		var serr *sms.Error
		if !errors.As(err, &serr) {
			return 0, err
		}
		m.log.Warn("send attempt failed", "to", to.E164, "attempt", attempt+1, "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = sms.SendError("unknown error")
	}
	return 0, lastErr
}

func (m *Modem) encode(to number.Number, text string, opts Options) ([]pdu.Frame, error) {
	source := opts.Source
	if source == "" {
		source = m.config.source
	}
	if source != "" {
		n, err := m.ParseNumber(source)
		if err != nil {
			return nil, sms.InputError("source number formatted incorrectly", err)
		}
		source = n.Digits()
	}

	frames, err := pdu.Encode(pdu.Submit{
		Source:         source,
		Destination:    to.Digits(),
		Text:           text,
		Silent:         opts.Silent,
		DeliveryReport: m.config.deliveryReport,
	})
	if err != nil {
		return nil, sms.InputError("could not encode message", err)
	}
	return frames, nil
}

// transmit writes frames starting at *sent, advancing *sent past every frame
// written. The reply to a frame is drained but not checked.
func (m *Modem) transmit(ctx context.Context, frames []pdu.Frame, sent *int) error {
	if err := m.expect(ctx, at.CmdPDUMode, false); err != nil {
		return err
	}
	for *sent < len(frames) {
		f := frames[*sent]
		if err := m.expect(ctx, at.SendPDU(f.Len()), true); err != nil {
			return err
		}
		if _, err := m.transport.Write([]byte(f.Hex() + at.CtrlZ)); err != nil {
			return sms.CommunicationError("write pdu", err)
		}
		*sent++
		resp, err := m.collect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			m.log.Warn("could not read pdu reply", "frame", *sent, "error", err)
			continue
		}
		m.log.Debug("pdu written", "frame", *sent, "response", resp)
	}
	return nil
}
