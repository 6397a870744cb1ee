// Package pdu builds SMS-SUBMIT protocol data units for modems operating in
// PDU mode.
package pdu

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/warthog618/sms"
	"github.com/warthog618/sms/encoding/pdumode"
)

const (
	// PIDDefault is the protocol identifier of a regular message.
	PIDDefault byte = 0
	// PIDSilent marks a Type-0 (silent) short message.
	PIDSilent byte = 64

	// statusReportRequest is the TP-SRR bit of the SMS-SUBMIT first octet.
	statusReportRequest byte = 0x20
)

// Submit describes a message to encode.
type Submit struct {
	// Source is the originating number in international digits without a
	// plus sign. SMS-SUBMIT carries no originator, so it is informational.
	Source string
	// Destination is the recipient in international digits without a plus
	// sign.
	Destination string
	Text        string
	// Silent requests a Type-0 message that the handset does not display.
	Silent bool
	// DeliveryReport requests a status report from the service centre.
	DeliveryReport bool
}

// Frame is one encoded TPDU. Frames are immutable once built.
type Frame struct {
	tpdu []byte
}

// Bytes returns a copy of the TPDU octets.
func (f Frame) Bytes() []byte {
	return append([]byte(nil), f.tpdu...)
}

// Len returns the TPDU length in octets, the argument of AT+CMGS.
func (f Frame) Len() int {
	return len(f.tpdu)
}

// Hex returns the frame as sent in PDU mode: an empty service centre
// address ("00") followed by the upper case TPDU.
func (f Frame) Hex() string {
	return strings.ToUpper(hex.EncodeToString(f.withSMSC()))
}

func (f Frame) withSMSC() []byte {
	p := pdumode.PDU{TPDU: f.tpdu}
	b, err := p.MarshalBinary()
	if err != nil {
		// An empty SMSC always marshals; fall back to the literal length
		// octet.
		return append([]byte{0x00}, f.tpdu...)
	}
	return b
}

// Encode builds the frames for s. Text that does not fit a single TPDU in
// its alphabet is returned as concatenated frames. Encoding is
// deterministic: identical input produces identical frames.
func Encode(s Submit) ([]Frame, error) {
	dest := strings.TrimPrefix(s.Destination, "+")
	if dest == "" {
		return nil, fmt.Errorf("encode submit: destination is required")
	}

	tpdus, err := sms.Encode([]byte(s.Text), sms.AsSubmit, sms.To("+"+dest))
	if err != nil {
		return nil, fmt.Errorf("encode submit: %w", err)
	}

	frames := make([]Frame, 0, len(tpdus))
	for i := range tpdus {
		t := &tpdus[i]
		t.MR = 0
		t.PID = PIDDefault
		if s.Silent {
			t.PID = PIDSilent
		}
		b, err := t.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal submit %d/%d: %w", i+1, len(tpdus), err)
		}
		if s.DeliveryReport {
			b[0] |= statusReportRequest
		}
		frames = append(frames, Frame{tpdu: b})
	}
	return frames, nil
}
