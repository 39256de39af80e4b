package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// Client is a line protocol connection. It is safe for concurrent use; requests
// are serialized so each reply pairs with its request.
type Client struct {
	addr        string
	timeout     time.Duration
	dialTimeout time.Duration

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	broken error
}

// Dial connects to a tidekv server
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := &Client{
		addr:        addr,
		timeout:     DefaultTimeout,
		dialTimeout: DefaultDialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("tidekv: dial %s: %w", addr, err)
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.writer = bufio.NewWriter(conn)
	return c, nil
}

// Addr returns the server address
func (c *Client) Addr() string {
	return c.addr
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		// Already closed, either here or after a transport failure
		c.broken = ErrClosed
		return nil
	}
	c.broken = ErrClosed
	return c.conn.Close()
}

// Do sends one raw request line and returns the reply without its terminator.
// An error reply is returned both as the reply text and as an *Error.
//
// A transport failure (including a cancelled ctx) leaves the stream position
// unknown, so the connection is closed and later calls fail.
func (c *Client) Do(ctx context.Context, line string) (string, error) {
	if strings.ContainsAny(line, "\r\n") {
		return "", fmt.Errorf("%w: request line contains a line terminator", ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return "", c.broken
	}

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	} else if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return "", c.fail(err)
	}

	// Unblock I/O as soon as ctx is cancelled
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	defer stop()

	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return "", c.fail(ctxErr(ctx, err))
	}
	if err := c.writer.Flush(); err != nil {
		return "", c.fail(ctxErr(ctx, err))
	}

	reply, err := c.reader.ReadString('\n')
	if err != nil {
		return "", c.fail(ctxErr(ctx, err))
	}

	return parseReply(strings.TrimRight(reply, "\r\n"))
}

// fail marks the connection unusable. The caller must hold c.mu.
func (c *Client) fail(err error) error {
	c.broken = fmt.Errorf("%w: %v", ErrClosed, err)
	_ = c.conn.Close()
	return fmt.Errorf("tidekv: %w", err)
}

func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
