package command

import "fmt"

// ParseError describes a malformed request line. Command is empty when the
// verb itself could not be determined.
type ParseError struct {
	Command Name
	Reason  string
}

func (e ParseError) Error() string {
	if e.Command == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s command: %s", e.Command, e.Reason)
}

// ErrEmptyCommand is returned for blank lines
var ErrEmptyCommand = ParseError{Reason: "empty command"}

func unknownCommand(verb string) ParseError {
	return ParseError{Reason: fmt.Sprintf("unknown command '%s'", verb)}
}

func invalid(name Name, format string, args ...any) ParseError {
	return ParseError{Command: name, Reason: fmt.Sprintf(format, args...)}
}
