package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidekv/engine/internal/api/tcp"
	"github.com/tidekv/engine/internal/command"
	"github.com/tidekv/engine/internal/storage/kv"
)

func startServer(t *testing.T) (string, *kv.Store) {
	t.Helper()

	store := kv.NewStore(kv.WithShards(4))
	server := tcp.NewServer("127.0.0.1:0", command.NewInterpreter(store), tcp.Options{})

	ctx := context.Background()
	require.NoError(t, server.Start(ctx))
	t.Cleanup(func() {
		_ = server.Stop(ctx)
	})
	return server.Addr(), store
}

func dial(t *testing.T, addr string, opts ...Option) *Client {
	t.Helper()

	c, err := Dial(context.Background(), addr, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.Close()
	})
	return c
}

func TestClient_Commands(t *testing.T) {
	addr, store := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	t.Run("text", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "greeting", "hello"))
		v, err := c.Get(ctx, "greeting")
		require.NoError(t, err)
		assert.Equal(t, "hello", v)
	})

	t.Run("bytes", func(t *testing.T) {
		require.NoError(t, c.SetBytes(ctx, "blob", []byte("raw")))
		v, ok := store.Get(ctx, "blob")
		require.True(t, ok)
		assert.Equal(t, kv.KindBytes, v.Kind())
	})

	t.Run("integer", func(t *testing.T) {
		require.NoError(t, c.SetInt(ctx, "n", -7))
		v, err := c.Get(ctx, "n")
		require.NoError(t, err)
		assert.Equal(t, "-7", v)
	})

	t.Run("boolean", func(t *testing.T) {
		require.NoError(t, c.SetBool(ctx, "flag", true))
		v, ok := store.Get(ctx, "flag")
		require.True(t, ok)
		assert.True(t, v.Equal(kv.BooleanValue(true)))
	})

	t.Run("missing key", func(t *testing.T) {
		_, err := c.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNil)

		_, err = c.TTL(ctx, "missing")
		assert.ErrorIs(t, err, ErrNil)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "gone", "x"))

		deleted, err := c.Del(ctx, "gone")
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = c.Del(ctx, "gone")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}

func TestClient_Expiration(t *testing.T) {
	addr, store := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	before := store.Now()
	require.NoError(t, c.Set(ctx, "session", "abc", WithTTL(1500*time.Millisecond)))

	at, err := c.TTL(ctx, "session")
	require.NoError(t, err)
	// 1.5s rounds up to two whole seconds
	assert.GreaterOrEqual(t, at.UnixMilli(), int64(before)+2000)
	assert.LessOrEqual(t, at.UnixMilli(), int64(store.Now())+2000)

	ok, err := c.Expire(ctx, "session", 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Expire(ctx, "missing", 100)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Expire(ctx, "session", -1)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = c.Get(ctx, "session")
	assert.ErrorIs(t, err, ErrNil)
}

func TestClient_ErrorReply(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	reply, err := c.Do(ctx, "FLUSHALL")
	require.Error(t, err)
	assert.Equal(t, "ERROR: unknown command 'FLUSHALL'", reply)

	var serverErr *Error
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "unknown command 'FLUSHALL'", serverErr.Message)

	// The connection stays usable after an error reply
	require.NoError(t, c.Ping(ctx))
}

func TestClient_InvalidArguments(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"empty key", func() error { return c.Set(ctx, "", "v") }},
		{"key with space", func() error { return c.Set(ctx, "a b", "v") }},
		{"value with space", func() error { return c.Set(ctx, "k", "a b") }},
		{"bytes with newline", func() error { return c.SetBytes(ctx, "k", []byte("a\nb")) }},
		{"negative ttl", func() error { return c.Set(ctx, "k", "v", WithTTL(-time.Second)) }},
		{"ttl too large", func() error {
			return c.Set(ctx, "k", "v", WithTTL(time.Duration(command.MaxSeconds+1)*time.Second))
		}},
		{"expire out of range", func() error {
			_, err := c.Expire(ctx, "k", command.MaxSeconds+1)
			return err
		}},
		{"raw line terminator", func() error {
			_, err := c.Do(ctx, "PING\nPING")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrInvalidArgument)
		})
	}

	// Nothing reached the server
	require.NoError(t, c.Ping(ctx))
}

func TestClient_ConcurrentUse(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k%d-%d", worker, j)
				if !assert.NoError(t, c.SetInt(ctx, key, int64(j))) {
					return
				}
				v, err := c.Get(ctx, key)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, strconv.Itoa(j), v)
			}
		}(i)
	}
	wg.Wait()
}

// silentServer accepts connections and never replies
func silentServer(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var mu sync.Mutex
	var conns []net.Conn
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			conn.Close()
		}
	})

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()
	return ln.Addr().String()
}

func TestClient_Cancellation(t *testing.T) {
	c := dial(t, silentServer(t), WithTimeout(0))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := c.Do(ctx, "PING")
	require.ErrorIs(t, err, context.Canceled)

	// The stream position is lost, so the client refuses further requests
	_, err = c.Do(context.Background(), "PING")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestClient_Timeout(t *testing.T) {
	c := dial(t, silentServer(t), WithTimeout(50*time.Millisecond))

	start := time.Now()
	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	var netErr net.Error
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())
}

func TestClient_Close(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDial_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), addr, WithDialTimeout(time.Second))
	assert.Error(t, err)
}
