package client

import (
	"errors"
	"strings"

	"github.com/tidekv/engine/internal/command"
)

var (
	// ErrNil is returned when the server replies nil (absent key, no deadline)
	ErrNil = errors.New("tidekv: nil reply")

	// ErrClosed is returned by calls on a closed or broken connection
	ErrClosed = errors.New("tidekv: connection closed")

	// ErrInvalidArgument is returned for arguments the line protocol cannot carry
	ErrInvalidArgument = errors.New("tidekv: invalid argument")
)

// Error is an error reply sent by the server
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "tidekv: server error: " + e.Message
}

// parseReply turns an error reply into an *Error
func parseReply(reply string) (string, error) {
	if msg, ok := strings.CutPrefix(reply, command.ErrorPrefix); ok {
		return reply, &Error{Message: msg}
	}
	return reply, nil
}
