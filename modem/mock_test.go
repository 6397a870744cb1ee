package modem_test

import (
	"strconv"

	gomock "go.uber.org/mock/gomock"

	"i4.energy/across/smsdeliver/modem"
	"i4.energy/across/smsdeliver/pdu"
)

type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// exchange expects wire to be written and answers it with resp. An empty
// resp simulates a modem that stays silent until the read times out.
func (b *MockSequenceBuilder) exchange(wire, resp string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(wire)).Return(len(wire), nil),
		b.transport.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
			return copy(p, resp), nil
		}),
	)
	return b
}

func (b *MockSequenceBuilder) AT() *MockSequenceBuilder {
	return b.exchange("AT\r", "AT\r\nOK\r\n")
}

func (b *MockSequenceBuilder) ATSilent() *MockSequenceBuilder {
	return b.exchange("AT\r", "")
}

func (b *MockSequenceBuilder) PDUMode() *MockSequenceBuilder {
	return b.exchange("AT+CMGF=0\r", "OK\r\n")
}

func (b *MockSequenceBuilder) PDUModeError() *MockSequenceBuilder {
	return b.exchange("AT+CMGF=0\r", "ERROR\r\n")
}

func (b *MockSequenceBuilder) SendPDU(f pdu.Frame) *MockSequenceBuilder {
	return b.exchange("AT+CMGS="+strconv.Itoa(f.Len())+"\r", "> ")
}

func (b *MockSequenceBuilder) SendPDURejected(f pdu.Frame) *MockSequenceBuilder {
	return b.exchange("AT+CMGS="+strconv.Itoa(f.Len())+"\r", "+CMS ERROR: 304\r\n")
}

func (b *MockSequenceBuilder) Frame(f pdu.Frame) *MockSequenceBuilder {
	return b.exchange(f.Hex()+"\x1A", "\r\n+CMGS: 12\r\n\r\nOK\r\n")
}

// FrameUnread writes f and fails the read of its reply.
func (b *MockSequenceBuilder) FrameUnread(f pdu.Frame, err error) *MockSequenceBuilder {
	wire := f.Hex() + "\x1A"
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(wire)).Return(len(wire), nil),
		b.transport.EXPECT().Read(gomock.Any()).Return(0, err),
	)
	return b
}

// Send expects the full exchange of a single frame after AT.
func (b *MockSequenceBuilder) Send(f pdu.Frame) *MockSequenceBuilder {
	return b.PDUMode().SendPDU(f).Frame(f)
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
