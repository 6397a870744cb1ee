package modem

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// Transport represents an established, bidirectional byte stream to a GSM modem.
//
// A Transport is assumed to be already connected and ready for use. It provides
// the low-level I/O primitives required to send AT commands and receive responses.
// A Read that returns no data and no error means the line stayed idle for
// the read timeout. Transports that also implement ReadTimeoutSetter get the
// configured serial timeout applied after dialing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to a GSM modem.
//
// Dialer abstracts how the modem connection is created (for example, via a
// serial port, TCP-based emulator, or test double). The Modem dials on first
// use and keeps the Transport until it is closed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

// ReadTimeoutSetter is implemented by transports whose reads can be bounded,
// such as serial.Port.
type ReadTimeoutSetter interface {
	SetReadTimeout(t time.Duration) error
}

// DefaultBaudRate is used when a SerialDialer specifies neither Mode nor
// BaudRate.
const DefaultBaudRate = 115200

// SerialDialer opens a GSM modem over a serial port.
type SerialDialer struct {
	// PortName is the device, e.g. "/dev/ttyUSB0".
	PortName string
	// BaudRate is used when Mode is nil.
	BaudRate int
	// Mode overrides the line settings. Defaults to 8N1 at BaudRate.
	Mode *serial.Mode
}

func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if d.PortName == "" {
		return nil, errors.New("modem: serial port name is required")
	}
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return port, nil
}
