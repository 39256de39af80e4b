package test

import (
	"bufio"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TempDir creates a temporary directory for testing and returns its path.
// The directory is automatically cleaned up after the test.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "tidekv-test-*")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.RemoveAll(dir) // Ignore cleanup errors in tests
	})
	return dir
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the file path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(TempDir(t), name)
	//nolint:gosec // Acceptable: test file permissions
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// FreeAddr returns a loopback address with a port that was free at the time
// of the call.
func FreeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

// LineConn is a raw line protocol connection for tests
type LineConn struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

// DialLine connects to a line protocol server. The connection is closed when
// the test ends.
func DialLine(t *testing.T, addr string) *LineConn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return &LineConn{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

// Send writes one command line and returns the reply without its terminator
func (c *LineConn) Send(line string) string {
	c.t.Helper()
	c.Write(line + "\n")
	return c.ReadLine()
}

// Write writes raw bytes to the connection
func (c *LineConn) Write(raw string) {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetWriteDeadline(time.Now().Add(2*time.Second)))
	_, err := c.conn.Write([]byte(raw))
	require.NoError(c.t, err)
}

// ReadLine reads one reply line
func (c *LineConn) ReadLine() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	return strings.TrimRight(line, "\r\n")
}

// Conn exposes the underlying connection
func (c *LineConn) Conn() net.Conn {
	return c.conn
}

// Close closes the connection
func (c *LineConn) Close() error {
	return c.conn.Close()
}

// AssertFileExists checks if a file exists and fails the test if it doesn't.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.NoError(t, err, "file should exist: %s", path)
}
