package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidekv/engine/internal/storage/kv"
)

// Parse decodes one request line. Trailing CR/LF is ignored and arguments are
// separated by runs of ASCII whitespace. Verbs are case-sensitive.
func Parse(line string) (Command, error) {
	fields := strings.FieldsFunc(line, isASCIISpace)
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}

	name := Name(fields[0])
	args := fields[1:]

	switch name {
	case Ping:
		if len(args) != 0 {
			return Command{}, invalid(name, "expected no arguments, got %d", len(args))
		}
		return Command{Name: Ping}, nil
	case Set, ByteSet, IntSet, BoolSet:
		return parseSet(name, args)
	case Get, Del, TTL:
		if len(args) != 1 {
			return Command{}, invalid(name, "expected 1 argument, got %d", len(args))
		}
		return Command{Name: name, Key: args[0]}, nil
	case Expire:
		return parseExpire(args)
	default:
		return Command{}, unknownCommand(fields[0])
	}
}

// parseSet handles <key> <value> [EX <seconds>] for every SET verb
func parseSet(name Name, args []string) (Command, error) {
	if len(args) != 2 && len(args) != 4 {
		return Command{}, invalid(name, "expected <key> <value> [EX <seconds>], got %d arguments", len(args))
	}

	value, err := parseValue(name, args[1])
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Name: name, Key: args[0], Value: value}

	if len(args) == 4 {
		if args[2] != "EX" {
			return Command{}, invalid(name, "unexpected option '%s'", args[2])
		}
		seconds, err := strconv.ParseInt(args[3], 10, 64)
		if err != nil || seconds <= 0 || seconds > MaxSeconds {
			return Command{}, invalid(name, "EX seconds must be an integer between 1 and %d, got '%s'", MaxSeconds, args[3])
		}
		cmd.TTL = time.Duration(seconds) * time.Second
	}
	return cmd, nil
}

func parseValue(name Name, literal string) (kv.Value, error) {
	switch name {
	case ByteSet:
		return kv.BytesValue([]byte(literal)), nil
	case IntSet:
		i, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return kv.Value{}, invalid(name, "value must be a 64-bit integer, got '%s'", literal)
		}
		return kv.IntegerValue(i), nil
	case BoolSet:
		switch literal {
		case "true":
			return kv.BooleanValue(true), nil
		case "false":
			return kv.BooleanValue(false), nil
		}
		return kv.Value{}, invalid(name, "value must be true or false, got '%s'", literal)
	default:
		return kv.TextValue(literal), nil
	}
}

func parseExpire(args []string) (Command, error) {
	if len(args) != 2 {
		return Command{}, invalid(Expire, "expected <key> <seconds>, got %d arguments", len(args))
	}
	seconds, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || seconds > MaxSeconds || seconds < -MaxSeconds {
		return Command{}, invalid(Expire, "seconds must be an integer within +/-%d, got '%s'", MaxSeconds, args[1])
	}
	return Command{Name: Expire, Key: args[0], Seconds: seconds}, nil
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
