package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidekv/engine/internal/storage/kv"
)

// Name is a protocol verb
type Name string

const (
	Ping    Name = "PING"
	Set     Name = "SET"
	ByteSet Name = "BYTESET"
	IntSet  Name = "ISET"
	BoolSet Name = "BSET"
	Get     Name = "GET"
	Del     Name = "DEL"
	Expire  Name = "EXPIRE"
	TTL     Name = "TTL"
)

// Names lists every verb in protocol order
var Names = []Name{Ping, Set, ByteSet, IntSet, BoolSet, Get, Del, Expire, TTL}

// Reply markers
const (
	ReplyPong   = "PONG"
	ReplyOK     = "OK"
	ReplyNil    = "nil"
	ErrorPrefix = "ERROR: "
)

// MaxSeconds bounds every seconds argument so deadlines stay far inside int64
// milliseconds
const MaxSeconds int64 = 1 << 32

// Command is one decoded request line.
//
// Value is set for the SET family, TTL for SET-family requests carrying EX,
// and Seconds for EXPIRE (which may be zero or negative).
type Command struct {
	Name    Name
	Key     string
	Value   kv.Value
	TTL     time.Duration
	Seconds int64
}

// IsSet reports whether the command belongs to the SET family
func (c Command) IsSet() bool {
	switch c.Name {
	case Set, ByteSet, IntSet, BoolSet:
		return true
	}
	return false
}

// String renders the command as a protocol line without terminator
func (c Command) String() string {
	var sb strings.Builder
	sb.WriteString(string(c.Name))
	switch {
	case c.Name == Ping:
	case c.IsSet():
		sb.WriteByte(' ')
		sb.WriteString(c.Key)
		sb.WriteByte(' ')
		sb.WriteString(c.Value.String())
		if c.TTL > 0 {
			sb.WriteString(" EX ")
			sb.WriteString(strconv.FormatInt(int64(c.TTL/time.Second), 10))
		}
	case c.Name == Expire:
		sb.WriteByte(' ')
		sb.WriteString(c.Key)
		sb.WriteByte(' ')
		sb.WriteString(strconv.FormatInt(c.Seconds, 10))
	default:
		sb.WriteByte(' ')
		sb.WriteString(c.Key)
	}
	return sb.String()
}
