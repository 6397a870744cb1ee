package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// open the connection to the modem on first use.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when the Dialer hands back no Transport.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when a Modem is used or closed after
	// Close has been called.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrInvalidRetries is returned by the ConfigBuilder for a negative
	// retry budget.
	ErrInvalidRetries = errors.New("retries must not be negative")
)
