package interpreter

import (
	"errors"
	"testing"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

// newCapturing returns an interpreter whose output is collected.
func newCapturing(t *testing.T, opts ...Option) (*Interpreter, *runtime.QueueStream) {
	t.Helper()
	out := runtime.NewStream()
	all := append([]Option{WithStreams(runtime.NewEmptyStream(), out)}, opts...)
	interp := New(all...)
	t.Cleanup(interp.Shutdown)
	return interp, out
}

func drain(out *runtime.QueueStream) []runtime.Value {
	out.Finish()
	return out.ReadAll()
}

func mustLoad(t *testing.T, interp *Interpreter, prog *ast.Program) {
	t.Helper()
	if err := interp.Load(prog, nil); err != nil {
		t.Fatalf("load failed: %v", DescribeError(err))
	}
}

func mustExec(t *testing.T, interp *Interpreter, stmts ...*ast.Statement) {
	t.Helper()
	for _, stmt := range stmts {
		if err := interp.ExecStatement(stmt); err != nil {
			t.Fatalf("statement failed: %v", DescribeError(err))
		}
	}
}

func execErr(t *testing.T, interp *Interpreter, stmts ...*ast.Statement) *RodaError {
	t.Helper()
	var err error
	for _, stmt := range stmts {
		if err = interp.ExecStatement(stmt); err != nil {
			break
		}
	}
	if err == nil {
		t.Fatalf("expected an error")
	}
	var re *RodaError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RodaError, got %T: %v", err, err)
	}
	return re
}

func evalExpr(t *testing.T, interp *Interpreter, expr ast.Expression) (runtime.Value, error) {
	t.Helper()
	empty := runtime.NewEmptyStream()
	return interp.evalValue(interp.newState(), interp.global, expr, empty, empty)
}

func expectInts(t *testing.T, got []runtime.Value, want ...int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d values %v, got %d: %v", len(want), want, len(got), render(got))
	}
	for idx, w := range want {
		n, ok := got[idx].(runtime.IntegerValue)
		if !ok || n.Val != w {
			t.Fatalf("value %d: expected %d, got %#v", idx, w, got[idx])
		}
	}
}

func expectStrings(t *testing.T, got []runtime.Value, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d values %v, got %d: %v", len(want), want, len(got), render(got))
	}
	for idx, w := range want {
		if s := runtime.Stringify(got[idx]); s != w {
			t.Fatalf("value %d: expected %q, got %q", idx, w, s)
		}
	}
}

func render(values []runtime.Value) []string {
	out := make([]string, len(values))
	for idx, v := range values {
		out[idx] = runtime.Stringify(v)
	}
	return out
}

func truth(b bool) *ast.Statement {
	return ast.Stmt(ast.ExprCmd(ast.Bool(b)))
}
