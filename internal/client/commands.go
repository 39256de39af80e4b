package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidekv/engine/internal/command"
)

// Ping checks that the server is responsive
func (c *Client) Ping(ctx context.Context) error {
	reply, err := c.Do(ctx, string(command.Ping))
	if err != nil {
		return err
	}
	if reply != command.ReplyPong {
		return fmt.Errorf("tidekv: unexpected PING reply %q", reply)
	}
	return nil
}

// Set stores a text value
func (c *Client) Set(ctx context.Context, key, value string, opts ...SetOption) error {
	return c.set(ctx, command.Set, key, value, opts)
}

// SetBytes stores a raw bytes value. The bytes travel as one protocol token, so
// they must not contain ASCII whitespace.
func (c *Client) SetBytes(ctx context.Context, key string, value []byte, opts ...SetOption) error {
	return c.set(ctx, command.ByteSet, key, string(value), opts)
}

// SetInt stores an integer value
func (c *Client) SetInt(ctx context.Context, key string, value int64, opts ...SetOption) error {
	return c.set(ctx, command.IntSet, key, strconv.FormatInt(value, 10), opts)
}

// SetBool stores a boolean value
func (c *Client) SetBool(ctx context.Context, key string, value bool, opts ...SetOption) error {
	return c.set(ctx, command.BoolSet, key, strconv.FormatBool(value), opts)
}

func (c *Client) set(ctx context.Context, verb command.Name, key, value string, opts []SetOption) error {
	options := &SetOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if err := checkToken("key", key); err != nil {
		return err
	}
	if err := checkToken("value", value); err != nil {
		return err
	}

	line := string(verb) + " " + key + " " + value
	if options.TTL != 0 {
		seconds, err := ttlSeconds(options.TTL)
		if err != nil {
			return err
		}
		line += " EX " + strconv.FormatInt(seconds, 10)
	}

	reply, err := c.Do(ctx, line)
	if err != nil {
		return err
	}
	if reply != command.ReplyOK {
		return fmt.Errorf("tidekv: unexpected %s reply %q", verb, reply)
	}
	return nil
}

// Get returns the value of key rendered as text, or ErrNil when it is absent.
// A stored text value equal to "nil" is indistinguishable from absence.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if err := checkToken("key", key); err != nil {
		return "", err
	}
	reply, err := c.Do(ctx, string(command.Get)+" "+key)
	if err != nil {
		return "", err
	}
	if reply == command.ReplyNil {
		return "", ErrNil
	}
	return reply, nil
}

// Del removes key and reports whether it existed
func (c *Client) Del(ctx context.Context, key string) (bool, error) {
	return c.okOrNil(ctx, command.Del, key)
}

// Expire sets the deadline of key to now plus seconds, which may be zero or
// negative. It reports whether a live key was updated.
func (c *Client) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	if seconds > command.MaxSeconds || seconds < -command.MaxSeconds {
		return false, fmt.Errorf("%w: seconds out of range", ErrInvalidArgument)
	}
	return c.okOrNil(ctx, command.Expire, key, strconv.FormatInt(seconds, 10))
}

// TTL returns the absolute deadline of key, or ErrNil when it is absent or
// never expires
func (c *Client) TTL(ctx context.Context, key string) (time.Time, error) {
	if err := checkToken("key", key); err != nil {
		return time.Time{}, err
	}
	reply, err := c.Do(ctx, string(command.TTL)+" "+key)
	if err != nil {
		return time.Time{}, err
	}
	if reply == command.ReplyNil {
		return time.Time{}, ErrNil
	}
	ms, err := strconv.ParseInt(reply, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("tidekv: unexpected TTL reply %q", reply)
	}
	return time.UnixMilli(ms), nil
}

func (c *Client) okOrNil(ctx context.Context, verb command.Name, key string, args ...string) (bool, error) {
	if err := checkToken("key", key); err != nil {
		return false, err
	}
	line := string(verb) + " " + key
	for _, arg := range args {
		line += " " + arg
	}

	reply, err := c.Do(ctx, line)
	if err != nil {
		return false, err
	}
	switch reply {
	case command.ReplyOK:
		return true, nil
	case command.ReplyNil:
		return false, nil
	default:
		return false, fmt.Errorf("tidekv: unexpected %s reply %q", verb, reply)
	}
}

// checkToken rejects arguments that would not survive tokenization
func checkToken(field, s string) error {
	if s == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidArgument, field)
	}
	if strings.ContainsAny(s, " \t\n\r\v\f") {
		return fmt.Errorf("%w: %s cannot contain whitespace", ErrInvalidArgument, field)
	}
	return nil
}

func ttlSeconds(ttl time.Duration) (int64, error) {
	if ttl < 0 {
		return 0, fmt.Errorf("%w: ttl cannot be negative", ErrInvalidArgument)
	}
	if ttl > time.Duration(command.MaxSeconds)*time.Second {
		return 0, fmt.Errorf("%w: ttl exceeds %d seconds", ErrInvalidArgument, command.MaxSeconds)
	}
	return int64((ttl + time.Second - 1) / time.Second), nil
}
