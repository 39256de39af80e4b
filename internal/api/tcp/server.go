package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tidekv/engine/internal/command"
	"github.com/tidekv/engine/internal/logger"
)

const (
	// DefaultMaxLineLength bounds one request line including its terminator
	DefaultMaxLineLength = 1 << 20

	readBufferSize = 4096

	// lingerTimeout bounds how long unread input is drained before closing
	lingerTimeout = 500 * time.Millisecond
)

var errLineTooLong = errors.New("line too long")

// ConnObserver receives connection lifecycle notifications
type ConnObserver interface {
	ConnectionOpened()
	ConnectionClosed()
	ProtocolError(kind string)
}

// Options configures a Server
type Options struct {
	// MaxLineLength bounds one request line (0 = DefaultMaxLineLength)
	MaxLineLength int
	// IdleTimeout closes connections silent for this long (0 = never)
	IdleTimeout time.Duration
	// Observer is notified of connection events (optional)
	Observer ConnObserver
}

// Server accepts line protocol connections and serves each one on its own
// goroutine. Every connection shares the interpreter and, through it, the store.
type Server struct {
	addr   string
	interp *command.Interpreter
	opts   Options
	log    zerolog.Logger

	mu       sync.RWMutex
	listener net.Listener
	ready    bool
	cancel   context.CancelFunc

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
	wg     sync.WaitGroup
}

// NewServer creates a server that will listen on addr
func NewServer(addr string, interp *command.Interpreter, opts Options) *Server {
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}
	return &Server{
		addr:   addr,
		interp: interp,
		opts:   opts,
		log:    logger.WithComponent("tcp"),
	}
}

// Start binds the listen address and runs the accept loop in the background
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	s.connMu.Lock()
	s.conns = make(map[net.Conn]struct{})
	s.connMu.Unlock()

	// Connections outlive the caller's context; Stop ends them.
	baseCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel

	s.wg.Add(1)
	go s.acceptLoop(baseCtx, listener)

	s.ready = true
	s.log.Info().Str("addr", listener.Addr().String()).Msg("TCP server started")

	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and every open connection, then waits for the
// handlers to return or ctx to expire
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}

	s.log.Info().Msg("Stopping TCP server")

	s.cancel()
	err := s.listener.Close()

	s.connMu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
	s.connMu.Unlock()

	stopped := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(stopped)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stopped:
	}

	s.ready = false
	s.log.Info().Msg("TCP server stopped")

	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Ready returns true if the server is accepting connections
func (s *Server) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Server) acceptLoop(ctx context.Context, listener net.Listener) {
	defer s.wg.Done()

	var backoff time.Duration
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			// Transient failures such as EMFILE; retry with capped backoff
			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else if backoff *= 2; backoff > time.Second {
				backoff = time.Second
			}
			s.log.Warn().Err(err).Dur("retry_in", backoff).Msg("Accept failed")
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		s.wg.Add(1)
		go s.serve(ctx, conn)
	}
}

// track registers conn; it returns false once the server is shutting down
func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.conns, conn)
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	connID := uuid.NewString()
	log := logger.WithConn("tcp", connID, conn.RemoteAddr().String())
	log.Debug().Msg("Connection opened")

	if s.opts.Observer != nil {
		s.opts.Observer.ConnectionOpened()
		defer s.opts.Observer.ConnectionClosed()
	}

	reader := bufio.NewReaderSize(conn, readBufferSize)
	writer := bufio.NewWriter(conn)

	for {
		if s.opts.IdleTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
		}

		line, err := readLine(reader, s.opts.MaxLineLength)
		if errors.Is(err, errLineTooLong) {
			log.Warn().Int("max_line_length", s.opts.MaxLineLength).Msg("Request line too long, closing connection")
			if s.opts.Observer != nil {
				s.opts.Observer.ProtocolError("line_too_long")
			}
			if writeReply(writer, command.ErrorReply(errLineTooLong)) == nil {
				_ = writer.Flush()
			}
			closeGracefully(conn, reader)
			return
		}
		// A final line without terminator is still served
		if line != "" && (err == nil || errors.Is(err, io.EOF)) {
			reply := s.interp.Reply(ctx, line)
			if werr := writeReply(writer, reply); werr != nil {
				log.Warn().Err(werr).Msg("Write failed")
				return
			}
			// Flush once the pipeline is drained
			if reader.Buffered() == 0 || err != nil {
				if ferr := writer.Flush(); ferr != nil {
					log.Warn().Err(ferr).Msg("Write failed")
					return
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				log.Debug().Msg("Connection closed")
			} else {
				log.Warn().Err(err).Msg("Read failed")
			}
			return
		}
	}
}

// readLine returns the next line including its terminator. It stops with
// errLineTooLong once more than max bytes arrive without a newline.
func readLine(r *bufio.Reader, max int) (string, error) {
	var buf []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if len(buf)+len(chunk) > max {
			return "", errLineTooLong
		}
		if err == bufio.ErrBufferFull {
			buf = append(buf, chunk...)
			continue
		}
		if buf == nil {
			return string(chunk), err
		}
		buf = append(buf, chunk...)
		return string(buf), err
	}
}

func writeReply(w *bufio.Writer, reply string) error {
	if _, err := w.WriteString(reply); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return nil
}

// closeGracefully half-closes conn and drains pending input so the final
// reply is not lost to a reset
func closeGracefully(conn net.Conn, reader *bufio.Reader) {
	if hc, ok := conn.(interface{ CloseWrite() error }); ok {
		_ = hc.CloseWrite()
	}
	_ = conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	_, _ = io.Copy(io.Discard, reader)
}
