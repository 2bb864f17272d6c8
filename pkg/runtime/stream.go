package runtime

import (
	"bufio"
	"errors"
	"io"
	"sync"
)

// ErrStreamFinished is returned when pushing to a finished stream.
var ErrStreamFinished = errors.New("stream is closed")

// ErrInputOnly is returned when pushing to a stream that only produces values.
var ErrInputOnly = errors.New("can't push to an input stream")

// Stream is a FIFO of values between a producer and a consumer. Pull and
// Peek block until a value is available or the stream is finished.
type Stream interface {
	Push(v Value) error
	Pull() (Value, bool)
	Peek() (Value, bool)
	Finish()
	Finished() bool
	ReadAll() []Value
}

// QueueStream is an in-memory stream, optionally bounded.
type QueueStream struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []Value
	capacity int
	finished bool
	detached bool
}

// NewStream creates an unbounded stream.
func NewStream() *QueueStream {
	return NewBoundedStream(0)
}

// NewBoundedStream creates a stream holding at most capacity values; Push
// blocks while it is full. A capacity of 0 means unbounded.
func NewBoundedStream(capacity int) *QueueStream {
	s := &QueueStream{capacity: capacity}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *QueueStream) Push(v Value) error { return s.PushWaiting(v, nil) }

func (s *QueueStream) Pull() (Value, bool) { return s.PullWaiting(nil) }

func (s *QueueStream) Peek() (Value, bool) { return s.PeekWaiting(nil) }

// PushWaiting is Push with a hook run the first time the call has to wait
// for room. The hook runs with the stream locked and must not block; the
// function it returns runs after the push, with the stream unlocked.
func (s *QueueStream) PushWaiting(v Value, onWait func() func()) error {
	s.mu.Lock()
	var resume func()
	for s.capacity > 0 && len(s.buf) >= s.capacity && !s.finished && !s.detached {
		resume = s.wait(onWait, resume)
	}
	var err error
	switch {
	case s.finished:
		err = ErrStreamFinished
	case s.detached:
	default:
		s.buf = append(s.buf, v)
		s.cond.Broadcast()
	}
	s.mu.Unlock()
	if resume != nil {
		resume()
	}
	return err
}

// PullWaiting is Pull with a hook run the first time the call has to wait
// for a value. See PushWaiting.
func (s *QueueStream) PullWaiting(onWait func() func()) (Value, bool) {
	return s.take(onWait, true)
}

// PeekWaiting is Peek with a hook run the first time the call has to wait
// for a value. See PushWaiting.
func (s *QueueStream) PeekWaiting(onWait func() func()) (Value, bool) {
	return s.take(onWait, false)
}

func (s *QueueStream) take(onWait func() func(), remove bool) (Value, bool) {
	s.mu.Lock()
	var resume func()
	for len(s.buf) == 0 && !s.finished {
		resume = s.wait(onWait, resume)
	}
	var v Value
	ok := len(s.buf) > 0
	if ok {
		v = s.buf[0]
		if remove {
			s.buf[0] = nil
			s.buf = s.buf[1:]
			s.cond.Broadcast()
		}
	}
	s.mu.Unlock()
	if resume != nil {
		resume()
	}
	return v, ok
}

// wait blocks on the condition, running onWait before the first wait.
func (s *QueueStream) wait(onWait func() func(), resume func()) func() {
	if resume == nil && onWait != nil {
		resume = onWait()
	}
	s.cond.Wait()
	return resume
}

func (s *QueueStream) Finish() {
	s.mu.Lock()
	s.finished = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *QueueStream) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished && len(s.buf) == 0
}

// Detach is called when the consumer has exited: buffered values are dropped
// and later pushes are discarded instead of blocking.
func (s *QueueStream) Detach() {
	s.mu.Lock()
	s.detached = true
	s.buf = nil
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *QueueStream) ReadAll() []Value {
	var out []Value
	for {
		v, ok := s.Pull()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

type emptyStream struct{}

// NewEmptyStream returns a stream with no input that discards output.
func NewEmptyStream() Stream { return emptyStream{} }

func (emptyStream) Push(Value) error { return nil }
func (emptyStream) Pull() (Value, bool) { return nil, false }
func (emptyStream) Peek() (Value, bool) { return nil, false }
func (emptyStream) Finish() {}
func (emptyStream) Finished() bool { return true }
func (emptyStream) ReadAll() []Value { return nil }

// LineReaderStream produces one string value per line of an io.Reader.
type LineReaderStream struct {
	mu       sync.Mutex
	scanner  *bufio.Scanner
	peeked   Value
	finished bool
}

func NewLineReaderStream(r io.Reader) *LineReaderStream {
	return &LineReaderStream{scanner: bufio.NewScanner(r)}
}

func (s *LineReaderStream) Push(Value) error { return ErrInputOnly }

func (s *LineReaderStream) fill() bool {
	if s.peeked != nil {
		return true
	}
	if s.finished {
		return false
	}
	if !s.scanner.Scan() {
		s.finished = true
		return false
	}
	s.peeked = StringValue{Val: s.scanner.Text()}
	return true
}

func (s *LineReaderStream) Pull() (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fill() {
		return nil, false
	}
	v := s.peeked
	s.peeked = nil
	return v, true
}

func (s *LineReaderStream) Peek() (Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fill() {
		return nil, false
	}
	return s.peeked, true
}

func (s *LineReaderStream) Finish() {
	s.mu.Lock()
	s.finished = true
	s.peeked = nil
	s.mu.Unlock()
}

func (s *LineReaderStream) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.fill()
}

func (s *LineReaderStream) ReadAll() []Value {
	var out []Value
	for {
		v, ok := s.Pull()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// WriterStream writes each pushed value on its own line.
type WriterStream struct {
	mu       sync.Mutex
	w        io.Writer
	finished bool
}

func NewWriterStream(w io.Writer) *WriterStream {
	return &WriterStream{w: w}
}

func (s *WriterStream) Push(v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return ErrStreamFinished
	}
	_, err := io.WriteString(s.w, Stringify(v)+"\n")
	return err
}

func (s *WriterStream) Pull() (Value, bool) { return nil, false }
func (s *WriterStream) Peek() (Value, bool) { return nil, false }

func (s *WriterStream) Finish() {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
}

func (s *WriterStream) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *WriterStream) ReadAll() []Value { return nil }
