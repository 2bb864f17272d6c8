package interpreter

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/kritixilithos/roda/pkg/runtime"
)

const defaultMaxDepth = 1000

// Interpreter evaluates programs against a global scope.
type Interpreter struct {
	global         *runtime.Scope
	in             runtime.Stream
	out            runtime.Stream
	pool           *Pool
	ownsPool       bool
	logger         *slog.Logger
	debug          bool
	maxDepth       int
	streamCapacity int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStreams sets the streams statements and main read from and write to.
func WithStreams(in, out runtime.Stream) Option {
	return func(i *Interpreter) {
		i.in = in
		i.out = out
	}
}

// WithStdio connects the interpreter to the process standard streams.
func WithStdio() Option {
	return WithStreams(runtime.NewLineReaderStream(os.Stdin), runtime.NewWriterStream(os.Stdout))
}

// WithPool shares a worker pool between interpreters. The caller keeps
// ownership and shuts it down.
func WithPool(pool *Pool) Option {
	return func(i *Interpreter) {
		i.pool = pool
		i.ownsPool = false
	}
}

// WithMaxWorkers bounds the number of pipeline stages running at once; 0
// means unbounded. Ignored when WithPool is given.
func WithMaxWorkers(n int) Option {
	return func(i *Interpreter) {
		if i.ownsPool {
			i.pool = NewPool(n, i.logger)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		i.logger = logger
	}
}

// WithDebug toggles call-stack capture for error objects.
func WithDebug(enabled bool) Option {
	return func(i *Interpreter) {
		i.debug = enabled
	}
}

// WithMaxDepth bounds nested record construction.
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) {
		if n > 0 {
			i.maxDepth = n
		}
	}
}

// WithStreamCapacity bounds the streams connecting pipeline stages; 0 means
// unbounded.
func WithStreamCapacity(n int) Option {
	return func(i *Interpreter) {
		if n >= 0 {
			i.streamCapacity = n
		}
	}
}

// New returns an interpreter with the builtin records and functions
// registered in its global scope.
func New(opts ...Option) *Interpreter {
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	i := &Interpreter{
		global:   runtime.NewScope(nil),
		in:       runtime.NewEmptyStream(),
		out:      runtime.NewEmptyStream(),
		logger:   discard,
		debug:    true,
		maxDepth: defaultMaxDepth,
		ownsPool: true,
	}
	i.pool = NewPool(0, i.logger)
	for _, opt := range opts {
		opt(i)
	}
	if i.pool == nil {
		i.pool = NewPool(0, i.logger)
	}
	if i.ownsPool {
		i.pool.logger = i.logger
	}
	i.registerBuiltinRecords()
	i.registerCoreBuiltins()
	i.registerEnv(os.Environ())
	return i
}

// Global returns the global scope.
func (i *Interpreter) Global() *runtime.Scope {
	return i.global
}

func (i *Interpreter) Logger() *slog.Logger {
	return i.logger
}

// Shutdown stops the worker pool when the interpreter owns it.
func (i *Interpreter) Shutdown() {
	if i.ownsPool {
		i.pool.Shutdown()
	}
}

func (i *Interpreter) registerEnv(environ []string) {
	entries := make(map[string]runtime.Value, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		entries[key] = runtime.StringValue{Val: value}
	}
	i.global.SetLocal("ENV", runtime.NewReadOnlyMap(entries))
}

// evalState is the per-goroutine evaluation context. It is never shared:
// pipeline stages run on a fork.
type evalState struct {
	callStack []string
	depth     int
	worker    bool
}

func (i *Interpreter) newState() *evalState {
	return &evalState{}
}

func (s *evalState) fork() *evalState {
	stack := make([]string, len(s.callStack))
	copy(stack, s.callStack)
	return &evalState{callStack: stack, depth: s.depth}
}

func (i *Interpreter) pushFrame(state *evalState, frame func() string) {
	if i.debug {
		state.callStack = append(state.callStack, frame())
	}
}

func (i *Interpreter) popFrame(state *evalState) {
	if i.debug && len(state.callStack) > 0 {
		state.callStack = state.callStack[:len(state.callStack)-1]
	}
}

// stackSnapshot returns the call stack innermost frame first.
func (s *evalState) stackSnapshot() []string {
	out := make([]string, len(s.callStack))
	for idx, frame := range s.callStack {
		out[len(s.callStack)-1-idx] = frame
	}
	return out
}
