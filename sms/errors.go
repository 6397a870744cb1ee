// Package sms holds the types shared by every delivery component: the error
// taxonomy and the balance reported by providers.
package sms

import "errors"

// Kind classifies an Error.
type Kind int

const (
	// KindInput is a malformed number or text detected before any I/O.
	KindInput Kind = iota + 1
	// KindAuth is rejected credentials or an unresponsive modem.
	KindAuth
	// KindCommunication is a transport level failure.
	KindCommunication
	// KindResponse is a response that could not be parsed into the
	// expected shape.
	KindResponse
	// KindSend is a business level send failure, such as an exhausted
	// quota.
	KindSend
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input error"
	case KindAuth:
		return "auth error"
	case KindCommunication:
		return "communication error"
	case KindResponse:
		return "response error"
	case KindSend:
		return "send error"
	default:
		return "sms error"
	}
}

// Sentinels matching any Error of the corresponding kind with errors.Is.
var (
	ErrInput         = &Error{Kind: KindInput}
	ErrAuth          = &Error{Kind: KindAuth}
	ErrCommunication = &Error{Kind: KindCommunication}
	ErrResponse      = &Error{Kind: KindResponse}
	ErrSend          = &Error{Kind: KindSend}
)

// Error is the error family returned by providers and validators.
type Error struct {
	Kind Kind
	// Msg describes the failure.
	Msg string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an Error of the same kind. A target with a
// message only matches an Error with the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

// InputError returns a KindInput error.
func InputError(msg string, cause ...error) *Error { return newError(KindInput, msg, cause) }

// AuthError returns a KindAuth error.
func AuthError(msg string, cause ...error) *Error { return newError(KindAuth, msg, cause) }

// CommunicationError returns a KindCommunication error.
func CommunicationError(msg string, cause ...error) *Error {
	return newError(KindCommunication, msg, cause)
}

// ResponseError returns a KindResponse error.
func ResponseError(msg string, cause ...error) *Error { return newError(KindResponse, msg, cause) }

// SendError returns a KindSend error.
func SendError(msg string, cause ...error) *Error { return newError(KindSend, msg, cause) }

func newError(kind Kind, msg string, cause []error) *Error {
	e := &Error{Kind: kind, Msg: msg}
	if len(cause) == 1 {
		e.Err = cause[0]
	} else {
		e.Err = errors.Join(cause...)
	}
	return e
}

// KindOf returns the kind of the first Error in err's chain, or zero when
// err is not part of the family.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
