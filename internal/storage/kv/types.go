package kv

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Timestamp is an absolute instant in epoch milliseconds (wall clock)
type Timestamp int64

// TimestampOf converts a wall-clock time to a Timestamp
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time returns the Timestamp as a time.Time
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// String renders the timestamp as decimal epoch milliseconds
func (ts Timestamp) String() string {
	return strconv.FormatInt(int64(ts), 10)
}

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindText Kind = iota + 1
	KindBytes
	KindInteger
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBytes:
		return "bytes"
	case KindInteger:
		return "integer"
	case KindBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name as produced by Kind.String
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return KindText, nil
	case "bytes":
		return KindBytes, nil
	case "integer":
		return KindInteger, nil
	case "boolean":
		return KindBoolean, nil
	default:
		return 0, fmt.Errorf("unknown value kind %q", s)
	}
}

// Value is an immutable scalar: text, raw bytes, a 64-bit integer or a boolean.
// The zero Value is an empty text value.
type Value struct {
	kind    Kind
	text    string
	raw     []byte
	integer int64
	boolean bool
}

// TextValue returns a text value
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// BytesValue returns a raw bytes value. The input is copied.
func BytesValue(b []byte) Value {
	return Value{kind: KindBytes, raw: append([]byte(nil), b...)}
}

// IntegerValue returns an integer value
func IntegerValue(i int64) Value {
	return Value{kind: KindInteger, integer: i}
}

// BooleanValue returns a boolean value
func BooleanValue(b bool) Value {
	return Value{kind: KindBoolean, boolean: b}
}

// Kind returns the variant of the value
func (v Value) Kind() Kind {
	if v.kind == 0 {
		return KindText
	}
	return v.kind
}

// Text returns the text payload (empty unless Kind is KindText)
func (v Value) Text() string { return v.text }

// Bytes returns a copy of the raw payload (nil unless Kind is KindBytes)
func (v Value) Bytes() []byte {
	if v.raw == nil {
		return nil
	}
	return append([]byte(nil), v.raw...)
}

// Integer returns the integer payload
func (v Value) Integer() int64 { return v.integer }

// Boolean returns the boolean payload
func (v Value) Boolean() bool { return v.boolean }

// Clone returns a deep copy of the value
func (v Value) Clone() Value {
	c := v
	c.raw = v.Bytes()
	return c
}

// Equal reports whether both values hold the same variant and payload
func (v Value) Equal(o Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.Kind() {
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindInteger:
		return v.integer == o.integer
	case KindBoolean:
		return v.boolean == o.boolean
	default:
		return v.text == o.text
	}
}

// String renders the value as text. Bytes are decoded as UTF-8 and every
// invalid byte is replaced with U+FFFD.
func (v Value) String() string {
	switch v.Kind() {
	case KindBytes:
		return lossyUTF8(v.raw)
	case KindInteger:
		return strconv.FormatInt(v.integer, 10)
	case KindBoolean:
		return strconv.FormatBool(v.boolean)
	default:
		return v.text
	}
}

func lossyUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.Write(b[:size])
		}
		b = b[size:]
	}
	return sb.String()
}

// Entry is the record held for one live key
type Entry struct {
	// Value is the stored value
	Value Value
	// ExpiresAt is the absolute deadline, meaningful only when HasExpiry is set
	ExpiresAt Timestamp
	// HasExpiry is false for keys that never expire
	HasExpiry bool
}

// Expired reports whether the entry's deadline is at or before now
func (e *Entry) Expired(now Timestamp) bool {
	return e.HasExpiry && e.ExpiresAt <= now
}

// SetOptions specifies options for Set operations
type SetOptions struct {
	// TTL is the time-to-live duration (0 = no expiration)
	TTL time.Duration
}

// DefaultSetOptions returns default set options
func DefaultSetOptions() SetOptions {
	return SetOptions{
		TTL: 0, // No expiration by default
	}
}

// Stats is a point-in-time summary of the store
type Stats struct {
	Keys         int `json:"keys"`
	ExpiringKeys int `json:"expiring_keys"`
	IndexBuckets int `json:"index_buckets"`
	Shards       int `json:"shards"`
}
