package interpreter

import (
	"testing"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

func TestBinaryOperators(t *testing.T) {
	interp, _ := newCapturing(t)
	cases := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{"add", ast.Bin(ast.OpAdd, ast.Int(2), ast.Int(3)), "5"},
		{"mixed add", ast.Bin(ast.OpAdd, ast.Int(1), ast.Flt(0.5)), "1.5"},
		{"truncating division", ast.Bin(ast.OpDiv, ast.Int(-7), ast.Int(2)), "-3"},
		{"float floor division", ast.Bin(ast.OpIntDiv, ast.Flt(-7), ast.Int(2)), "-4"},
		{"modulo", ast.Bin(ast.OpMod, ast.Int(7), ast.Int(3)), "1"},
		{"bitwise and", ast.Bin(ast.OpBAnd, ast.Int(6), ast.Int(3)), "2"},
		{"left shift", ast.Bin(ast.OpBLShift, ast.Int(1), ast.Int(4)), "16"},
		{"unsigned shift", ast.Bin(ast.OpBRRShift, ast.Int(-1), ast.Int(60)), "15"},
		{"string compare", ast.Bin(ast.OpLt, ast.Str("abc"), ast.Str("abd")), "true"},
		{"numeric compare", ast.Bin(ast.OpGe, ast.Int(2), ast.Flt(2.0)), "true"},
		{"list equality", ast.Bin(ast.OpEq, ast.List(ast.Int(1)), ast.List(ast.Int(1))), "true"},
		{"full match", ast.Bin(ast.OpMatches, ast.Str("abc"), ast.Str("a.")), "false"},
		{"not match", ast.Bin(ast.OpNotMatches, ast.Str("abc"), ast.Str("a.")), "true"},
		{"xor", ast.Bin(ast.OpXor, ast.Bool(true), ast.Bool(false)), "true"},
		{"short-circuit and", ast.Bin(ast.OpAnd, ast.Bool(false), ast.Var("missing")), "false"},
		{"short-circuit or", ast.Bin(ast.OpOr, ast.Bool(true), ast.Var("missing")), "true"},
		{"negation", ast.Un(ast.UnaryNeg, ast.Int(4)), "-4"},
		{"bitwise not", ast.Un(ast.UnaryBNot, ast.Int(0)), "-1"},
		{"not", ast.Un(ast.UnaryNot, ast.Bool(false)), "true"},
	}
	for _, tc := range cases {
		tc := tc // per-iteration copy (module targets go 1.21)
		t.Run(tc.name, func(t *testing.T) {
			v, err := evalExpr(t, interp, tc.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", DescribeError(err))
			}
			if got := runtime.Stringify(v); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestOperatorErrors(t *testing.T) {
	interp, _ := newCapturing(t)
	cases := []struct {
		name string
		expr ast.Expression
		kind ErrorKind
	}{
		{"integer division by zero", ast.Bin(ast.OpDiv, ast.Int(1), ast.Int(0)), ErrorKindIllegalArguments},
		{"float division by zero", ast.Bin(ast.OpDiv, ast.Flt(1), ast.Int(0)), ErrorKindIllegalArguments},
		{"negative shift", ast.Bin(ast.OpBLShift, ast.Int(1), ast.Int(-1)), ErrorKindIllegalArguments},
		{"adding a string", ast.Bin(ast.OpAdd, ast.Str("a"), ast.Int(1)), ErrorKindTypeMismatch},
		{"comparing mixed", ast.Bin(ast.OpLt, ast.Str("a"), ast.Int(1)), ErrorKindTypeMismatch},
		{"negating a string", ast.Un(ast.UnaryNeg, ast.Str("a")), ErrorKindTypeMismatch},
		{"bad pattern", ast.Bin(ast.OpMatches, ast.Str("a"), ast.Str("(")), ErrorKindError},
		{"and with non-boolean", ast.Bin(ast.OpAnd, ast.Bool(true), ast.Int(1)), ErrorKindTypeMismatch},
	}
	for _, tc := range cases {
		tc := tc // per-iteration copy (module targets go 1.21)
		t.Run(tc.name, func(t *testing.T) {
			_, err := evalExpr(t, interp, tc.expr)
			if !isKind(err, tc.kind) {
				t.Fatalf("expected %s, got %v", tc.kind, err)
			}
		})
	}
}

func TestContainerExpressions(t *testing.T) {
	interp, _ := newCapturing(t)
	xs := ast.List(ast.Int(10), ast.Int(20), ast.Int(30))
	cases := []struct {
		name string
		expr ast.Expression
		want string
	}{
		{"length of list", ast.Len(xs), "3"},
		{"length counts runes", ast.Len(ast.Str("äö")), "2"},
		{"negative index", ast.Elem(xs, ast.Int(-1)), "30"},
		{"slice", ast.Slice(xs, ast.Int(1), nil), "[20, 30]"},
		{"open slice", ast.Slice(xs, nil, ast.Int(-1)), "[10, 20]"},
		{"string slice", ast.Slice(ast.Str("hello"), ast.Int(1), ast.Int(3)), "el"},
		{"contains index", ast.Contains(xs, ast.Int(3)), "false"},
		{"in", ast.In(ast.Int(20), xs), "true"},
		{"concat lists", ast.Concat(xs, ast.List(ast.Int(40))), "[10, 20, 30, 40]"},
		{"concat text", ast.Concat(ast.Str("a"), ast.Int(1)), "a1"},
		{"concat children", ast.ConcatChildren(ast.List(ast.Str("a"), ast.Str("b")), ast.Str("x")), "[ax, bx]"},
		{"join", ast.Join(xs, ast.Str("-")), "10-20-30"},
	}
	for _, tc := range cases {
		tc := tc // per-iteration copy (module targets go 1.21)
		t.Run(tc.name, func(t *testing.T) {
			v, err := evalExpr(t, interp, tc.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", DescribeError(err))
			}
			if got := runtime.Stringify(v); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}

	if _, err := evalExpr(t, interp, ast.Elem(xs, ast.Int(3))); !isKind(err, ErrorKindOutOfBounds) {
		t.Fatalf("expected OutOfBoundsError, got %v", err)
	}
	if _, err := evalExpr(t, interp, ast.Slice(xs, ast.Int(2), ast.Int(1))); !isKind(err, ErrorKindOutOfBounds) {
		t.Fatalf("expected OutOfBoundsError for a reversed slice, got %v", err)
	}
}

func TestStatementExpressionArity(t *testing.T) {
	interp, _ := newCapturing(t)
	pushes := func(n int) *ast.Statement {
		args := make([]ast.Expression, n)
		for idx := range args {
			args[idx] = ast.Int(int64(idx))
		}
		if n == 0 {
			return ast.Stmt(ast.Call("identity"))
		}
		return ast.Stmt(ast.Call("push", args...))
	}
	if _, err := evalExpr(t, interp, ast.StmtSingle(pushes(0))); !isKind(err, ErrorKindEmptyStream) {
		t.Fatalf("expected EmptyStreamError, got %v", err)
	}
	if _, err := evalExpr(t, interp, ast.StmtSingle(pushes(2))); !isKind(err, ErrorKindFullStream) {
		t.Fatalf("expected FullStreamError, got %v", err)
	}
	v, err := evalExpr(t, interp, ast.StmtList(pushes(2)))
	if err != nil || runtime.Stringify(v) != "[0, 1]" {
		t.Fatalf("unexpected list %v (%v)", v, err)
	}
}

func TestVariableCommands(t *testing.T) {
	interp, out := newCapturing(t)
	mustExec(t, interp,
		ast.Stmt(ast.Define("n", ast.Int(1))),
		ast.Stmt(ast.VarCmd(ast.Var("n"), "++")),
		ast.Stmt(ast.VarCmd(ast.Var("n"), "*=", ast.Int(5))),
		ast.Stmt(ast.VarCmd(ast.Var("n"), "-=", ast.Int(3))),
		ast.Stmt(ast.ExprCmd(ast.Var("n"))),

		ast.Stmt(ast.Define("xs", ast.List(ast.Int(1)))),
		ast.Stmt(ast.VarCmd(ast.Var("xs"), "+=", ast.Int(2))),
		ast.Stmt(ast.VarCmd(ast.Var("xs"), ".=", ast.List(ast.Int(3), ast.Int(4)))),
		ast.Stmt(ast.VarCmd(ast.Elem(ast.Var("xs"), ast.Int(0)), "=", ast.Int(9))),
		ast.Stmt(ast.Del(ast.Elem(ast.Var("xs"), ast.Int(1)))),
		ast.Stmt(ast.VarCmd(ast.Slice(ast.Var("xs"), ast.Int(1), nil), "=", ast.List(ast.Int(7)))),
		ast.Stmt(ast.ExprCmd(ast.Var("xs"))),

		ast.Stmt(ast.Define("s", ast.Str("foo bar"))),
		ast.Stmt(ast.VarCmd(ast.Var("s"), "~=", ast.Str("o+"), ast.Str("0"), ast.Str("^f"), ast.Str("F"))),
		ast.Stmt(ast.VarCmd(ast.Var("s"), ".=", ast.Str("!"))),
		ast.Stmt(ast.ExprCmd(ast.Var("s"))),
	)
	expectStrings(t, drain(out), "7", "[9, 7]", "F0 bar!")
}

func TestVariableCommandErrors(t *testing.T) {
	interp, _ := newCapturing(t)
	mustExec(t, interp,
		ast.Stmt(ast.Define("s", ast.Str("x"))),
		ast.Stmt(ast.Define("typed", ast.New(ast.Ty("list", ast.Ty("integer"))))),
	)
	cases := []struct {
		name string
		stmt *ast.Statement
		kind ErrorKind
	}{
		{"increment a string", ast.Stmt(ast.VarCmd(ast.Var("s"), "++")), ErrorKindTypeMismatch},
		{"odd replacement arguments", ast.Stmt(ast.VarCmd(ast.Var("s"), "~=", ast.Str("x"))), ErrorKindIllegalArguments},
		{"assign needs one value", ast.Stmt(ast.VarCmd(ast.Var("s"), "=", ast.Int(1), ast.Int(2))), ErrorKindIllegalArguments},
		{"unknown operator", ast.Stmt(ast.VarCmd(ast.Var("s"), "^=", ast.Int(1))), ErrorKindUnknownName},
		{"typed list rejects", ast.Stmt(ast.VarCmd(ast.Elem(ast.Var("typed"), ast.Int(0)), "=", ast.Str("a"))), ErrorKindTypeMismatch},
		{"typed list rejects append", ast.Stmt(ast.VarCmd(ast.Var("typed"), "+=", ast.Str("oops"))), ErrorKindTypeMismatch},
		{"typed list rejects concatenation", ast.Stmt(ast.VarCmd(ast.Var("typed"), ".=", ast.List(ast.Int(1), ast.Str("more")))), ErrorKindTypeMismatch},
		{"read-only map", ast.Stmt(ast.VarCmd(ast.Elem(ast.Var("ENV"), ast.Str("HOME")), "=", ast.Str("/"))), ErrorKindError},
	}
	for _, tc := range cases {
		tc := tc // per-iteration copy (module targets go 1.21)
		t.Run(tc.name, func(t *testing.T) {
			re := execErr(t, interp, tc.stmt)
			if !re.IsA(tc.kind) {
				t.Fatalf("expected %s, got %s: %s", tc.kind, re.Kind(), re.Message())
			}
		})
	}
	v, _ := interp.Global().Resolve("typed")
	if list := v.(*runtime.ListValue); list.Len() != 0 {
		t.Fatalf("rejected updates changed the list: %v", list.Elements())
	}
}

func TestTypedListKeepsElementTypeThroughUpdates(t *testing.T) {
	interp, out := newCapturing(t)
	mustExec(t, interp,
		ast.Stmt(ast.Define("typed", ast.New(ast.Ty("list", ast.Ty("integer"))))),
		ast.Stmt(ast.VarCmd(ast.Var("typed"), "+=", ast.Int(1))),
		ast.Stmt(ast.VarCmd(ast.Var("typed"), ".=", ast.List(ast.Int(2), ast.Int(3)))),
		ast.Stmt(ast.CallExpr(ast.Var("push"), &ast.Arguments{Positional: []*ast.Argument{ast.Flat(ast.Var("typed"))}})),
	)
	expectInts(t, drain(out), 1, 2, 3)
	v, _ := interp.Global().Resolve("typed")
	list := v.(*runtime.ListValue)
	if list.ElementType == nil || list.ElementType.Name != "integer" {
		t.Fatalf("expected list<integer> after .=, got %#v", list.ElementType)
	}
	re := execErr(t, interp, ast.Stmt(ast.VarCmd(ast.Var("typed"), "+=", ast.Str("x"))))
	if !re.IsA(ErrorKindTypeMismatch) {
		t.Fatalf("expected TypeMismatchError, got %s: %s", re.Kind(), re.Message())
	}
}
