package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tidekv/engine/internal/command"
	"github.com/tidekv/engine/internal/storage/kv"
)

const (
	// MaxKeyLength is the maximum length of a key (1KB)
	MaxKeyLength = 1024
	// MaxValueSize is the maximum size of a value (1MB)
	MaxValueSize = 1024 * 1024
	// MaxTTLSeconds is the largest accepted expiry in seconds
	MaxTTLSeconds = command.MaxSeconds
)

// ValidateKey validates a key. Keys must also be addressable from the line
// protocol, so whitespace is rejected.
func ValidateKey(key string) error {
	if key == "" {
		return ValidationError{Field: "key", Reason: "cannot be empty"}
	}

	if len(key) > MaxKeyLength {
		return ValidationError{
			Field:  "key",
			Reason: fmt.Sprintf("length (%d) exceeds maximum (%d)", len(key), MaxKeyLength),
		}
	}

	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return ValidationError{Field: "key", Reason: "cannot contain whitespace"}
	}

	return nil
}

// ValidateValue validates a value about to be stored. GET replies carry the
// rendered value on a single line, so CR and LF are rejected.
func ValidateValue(v kv.Value) error {
	var size int
	switch v.Kind() {
	case kv.KindText:
		size = len(v.Text())
	case kv.KindBytes:
		size = len(v.Bytes())
	default:
		return nil
	}

	if size == 0 {
		return ValidationError{Field: "value", Reason: "cannot be empty"}
	}

	if size > MaxValueSize {
		return ValidationError{
			Field:  "value",
			Reason: fmt.Sprintf("size (%d bytes) exceeds maximum (%d bytes)", size, MaxValueSize),
		}
	}

	if strings.ContainsAny(v.String(), "\r\n") {
		return ValidationError{Field: "value", Reason: "cannot contain line breaks"}
	}

	return nil
}

// ValidateTTLSeconds validates a relative expiry given with a write.
// Zero means the key never expires.
func ValidateTTLSeconds(seconds int64) error {
	if seconds < 0 {
		return ValidationError{Field: "ttl_seconds", Reason: "cannot be negative"}
	}

	if seconds > MaxTTLSeconds {
		return ValidationError{
			Field:  "ttl_seconds",
			Reason: fmt.Sprintf("cannot exceed %d", MaxTTLSeconds),
		}
	}

	return nil
}

// ValidateExpireSeconds validates the offset of an expire request. Zero and
// negative offsets are allowed and expire the key immediately.
func ValidateExpireSeconds(seconds int64) error {
	if seconds > MaxTTLSeconds || seconds < -MaxTTLSeconds {
		return ValidationError{
			Field:  "seconds",
			Reason: fmt.Sprintf("must be within ±%d", MaxTTLSeconds),
		}
	}
	return nil
}
