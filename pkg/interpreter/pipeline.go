package interpreter

import (
	"errors"
	"fmt"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

func (i *Interpreter) newPipe() *runtime.QueueStream {
	return runtime.NewBoundedStream(i.streamCapacity)
}

// stagePipe is a pipe as seen by one stage. While the stage waits on it
// the stage's pool slot is given back, so a stage never holds a slot while
// blocked on a neighbour.
type stagePipe struct {
	*runtime.QueueStream
	pool  *Pool
	state *evalState
}

// bindPipe views s as a pipe of the stage running on state. Streams that
// are not pipes are returned unchanged.
func (i *Interpreter) bindPipe(state *evalState, s runtime.Stream) runtime.Stream {
	switch q := s.(type) {
	case stagePipe:
		return stagePipe{QueueStream: q.QueueStream, pool: i.pool, state: state}
	case *runtime.QueueStream:
		return stagePipe{QueueStream: q, pool: i.pool, state: state}
	}
	return s
}

func (p stagePipe) yield() func() { return p.pool.release(p.state) }

func (p stagePipe) Push(v runtime.Value) error { return p.PushWaiting(v, p.yield) }

func (p stagePipe) Pull() (runtime.Value, bool) { return p.PullWaiting(p.yield) }

func (p stagePipe) Peek() (runtime.Value, bool) { return p.PeekWaiting(p.yield) }

func (p stagePipe) ReadAll() []runtime.Value {
	var out []runtime.Value
	for {
		v, ok := p.Pull()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

// pipeOf returns the queue behind a stage's stream, if any.
func pipeOf(s runtime.Stream) (*runtime.QueueStream, bool) {
	switch q := s.(type) {
	case stagePipe:
		return q.QueueStream, true
	case *runtime.QueueStream:
		return q, true
	}
	return nil, false
}

// evalStatement runs a pipeline. A single command runs on the caller's
// goroutine; several commands run as concurrent stages connected by
// streams. When redirected, out is finished once the last stage exits.
func (i *Interpreter) evalStatement(state *evalState, scope *runtime.Scope, stmt *ast.Statement, in, out runtime.Stream, redirected bool) error {
	n := len(stmt.Commands)
	if n == 1 {
		err := i.evalCommand(state, scope, stmt.Commands[0], in, out)
		if redirected {
			out.Finish()
		}
		return err
	}

	ins := make([]runtime.Stream, n)
	outs := make([]runtime.Stream, n)
	ins[0] = in
	for k := 0; k < n-1; k++ {
		pipe := i.newPipe()
		outs[k] = pipe
		ins[k+1] = pipe
	}
	outs[n-1] = out

	reacquire := i.pool.release(state)
	defer reacquire()

	handles := make([]*stageHandle, 0, n)
	for k, cmd := range stmt.Commands {
		k, cmd := k, cmd // per-iteration copy (module targets go 1.21)
		h, err := i.pool.submit(state, k, func(taskState *evalState) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = i.panicError(r)
				}
				if k < n-1 || redirected {
					outs[k].Finish()
				}
				if pipe, ok := pipeOf(ins[k]); ok && k > 0 {
					pipe.Detach()
				}
			}()
			return i.evalCommand(taskState, scope, cmd, i.bindPipe(taskState, ins[k]), i.bindPipe(taskState, outs[k]))
		})
		if err != nil {
			if pipe, ok := pipeOf(ins[k]); ok && k > 0 {
				pipe.Detach()
			}
			if redirected {
				out.Finish()
			}
			i.pool.await(handles)
			return i.plainError(state, "can't start pipeline stage: %v", err)
		}
		handles = append(handles, h)
	}
	errs := make([]error, n)
	i.pool.await(handles)
	for k, h := range handles {
		errs[k] = i.stageFault(h)
	}
	return i.pipelineError(state, errs)
}

// stageFault tags a host fault raised in a stage with the stage's task id.
func (i *Interpreter) stageFault(h *stageHandle) error {
	var re *RodaError
	if !errors.As(h.err, &re) || re.Kind() != string(ErrorKindJava) {
		return h.err
	}
	return i.withNativeLine(re, fmt.Sprintf("pipeline task %s (stage %d)", h.id, h.stage))
}

// pipelineError merges the failures of a pipeline's stages. Escaped
// control-flow signals become LeakyPipeError, host faults JavaError; more
// than one failure is reported as a single Error with every failure as a
// cause, in stage order.
func (i *Interpreter) pipelineError(state *evalState, errs []error) error {
	var causes []*RodaError
	for _, err := range errs {
		switch {
		case err == nil:
			continue
		case isLoopSignal(err):
			causes = append(causes, i.newError(state, ErrorKindLeakyPipe, "cannot pipe a break or continue command"))
		case isSignal(err):
			causes = append(causes, i.newError(state, ErrorKindLeakyPipe, "cannot pipe a return command"))
		default:
			causes = append(causes, i.asRodaError(state, err))
		}
	}
	switch len(causes) {
	case 0:
		return nil
	case 1:
		return causes[0]
	default:
		i.logger.Debug("pipeline failed", "failures", len(causes))
		return i.newError(state, ErrorKindError, "multiple threads crashed", causes...)
	}
}
