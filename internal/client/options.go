package client

import (
	"time"
)

const (
	// DefaultTimeout bounds one request when the context has no deadline
	DefaultTimeout = 5 * time.Second
	// DefaultDialTimeout bounds connection establishment
	DefaultDialTimeout = 5 * time.Second
)

// Option is a functional option for client configuration
type Option func(*Client)

// WithTimeout sets the per-request timeout (0 disables it)
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithDialTimeout sets the connection timeout
func WithDialTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.dialTimeout = timeout
	}
}

// SetOptions holds options for SET-family commands
type SetOptions struct {
	TTL time.Duration
}

// SetOption is a functional option for SET-family commands
type SetOption func(*SetOptions)

// WithTTL expires the key after ttl. The protocol counts whole seconds, so
// ttl is rounded up.
func WithTTL(ttl time.Duration) SetOption {
	return func(opts *SetOptions) {
		opts.TTL = ttl
	}
}
