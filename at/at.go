// Package at holds the AT command vocabulary used to drive a modem in PDU
// mode, and the helpers that tokenize and classify its responses.
package at

import (
	"strconv"
	"strings"
)

const (
	// Terminal Control
	CR     = "\r"
	CRLF   = "\r\n"
	Prompt = "> "
	CtrlZ  = "\x1A"

	// Commands
	CmdAt      = "AT"
	CmdPDUMode = "AT+CMGF=0"
	cmdSendPDU = "AT+CMGS="

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg        = "+CMTI:"
	UrcMessageReport = "+CDSI:"
	UrcCall          = "RING"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CMGS: ...)
	TypePrompt                     // SMS input prompt
)

// SendPDU returns the AT+CMGS command announcing a TPDU of length octets.
func SendPDU(length int) string {
	return cmdSendPDU + strconv.Itoa(length)
}

// Line terminates cmd for the wire.
func Line(cmd string) []byte {
	return []byte(strings.TrimSpace(cmd) + CR)
}
