package command

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tidekv/engine/internal/logger"
	"github.com/tidekv/engine/internal/storage/kv"
	"github.com/tidekv/engine/internal/tracing"
)

const tracerName = "tidekv.command"

// Command outcomes reported to the Observer
const (
	StatusOK    = "ok"
	StatusNil   = "nil"
	StatusError = "error"
)

// Store is the subset of the entry store the interpreter drives
type Store interface {
	Set(ctx context.Context, key string, value kv.Value, options kv.SetOptions) error
	Get(ctx context.Context, key string) (kv.Value, bool)
	Delete(ctx context.Context, key string) (kv.Value, bool)
	SetExpiration(ctx context.Context, key string, at kv.Timestamp) bool
	TimeToLive(ctx context.Context, key string) (kv.Timestamp, bool)
	Now() kv.Timestamp
}

// Observer receives one call per handled request line
type Observer interface {
	ObserveCommand(command, status string, duration time.Duration)
}

// Interpreter executes decoded commands against a Store. It holds no state of
// its own and is safe for concurrent use.
type Interpreter struct {
	store    Store
	observer Observer
	log      zerolog.Logger
}

// Option configures an Interpreter
type Option func(*Interpreter)

// WithObserver records per-command outcomes and latency
func WithObserver(o Observer) Option {
	return func(i *Interpreter) {
		i.observer = o
	}
}

// NewInterpreter creates an interpreter over store
func NewInterpreter(store Store, opts ...Option) *Interpreter {
	i := &Interpreter{
		store: store,
		log:   logger.WithComponent("command"),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Reply parses line, executes it and returns the reply without terminator.
// Parse failures become error replies.
func (i *Interpreter) Reply(ctx context.Context, line string) string {
	cmd, err := Parse(line)
	if err != nil {
		i.observe("invalid", StatusError, 0)
		return ErrorReply(err)
	}
	return i.Execute(ctx, cmd)
}

// Execute runs one command and formats its reply
func (i *Interpreter) Execute(ctx context.Context, cmd Command) (reply string) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "command."+string(cmd.Name),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(tracing.AttrCommand, string(cmd.Name))),
	)
	defer span.End()

	start := time.Now()
	status := StatusOK
	defer func() {
		if r := recover(); r != nil {
			i.log.Error().
				Interface("panic", r).
				Str("command", string(cmd.Name)).
				Bytes("stack", debug.Stack()).
				Msg("Panic while executing command")
			span.SetStatus(codes.Error, "panic")
			reply, status = ErrorReply(errors.New("internal error")), StatusError
		}
		span.SetAttributes(attribute.String(tracing.AttrStatus, status))
		i.observe(string(cmd.Name), status, time.Since(start))
	}()

	if cmd.Name != Ping {
		span.SetAttributes(attribute.String(tracing.AttrKey, cmd.Key))
	}

	switch cmd.Name {
	case Ping:
		return ReplyPong

	case Set, ByteSet, IntSet, BoolSet:
		span.SetAttributes(attribute.String(tracing.AttrValueKind, cmd.Value.Kind().String()))
		if err := i.store.Set(ctx, cmd.Key, cmd.Value, kv.SetOptions{TTL: cmd.TTL}); err != nil {
			span.RecordError(err)
			status = StatusError
			return ErrorReply(err)
		}
		return ReplyOK

	case Get:
		value, ok := i.store.Get(ctx, cmd.Key)
		if !ok {
			status = StatusNil
			return ReplyNil
		}
		return value.String()

	case Del:
		if _, ok := i.store.Delete(ctx, cmd.Key); !ok {
			status = StatusNil
			return ReplyNil
		}
		return ReplyOK

	case Expire:
		at := i.store.Now() + kv.Timestamp(cmd.Seconds*1000)
		if !i.store.SetExpiration(ctx, cmd.Key, at) {
			status = StatusNil
			return ReplyNil
		}
		return ReplyOK

	case TTL:
		at, ok := i.store.TimeToLive(ctx, cmd.Key)
		if !ok {
			status = StatusNil
			return ReplyNil
		}
		return at.String()

	default:
		status = StatusError
		return ErrorReply(unknownCommand(string(cmd.Name)))
	}
}

func (i *Interpreter) observe(command, status string, d time.Duration) {
	if i.observer != nil {
		i.observer.ObserveCommand(command, status, d)
	}
}

// ErrorReply formats err as a protocol error line
func ErrorReply(err error) string {
	return fmt.Sprintf("%s%s", ErrorPrefix, err)
}
