package interpreter

import (
	"testing"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

func referenceProgram() *ast.Program {
	return &ast.Program{Functions: []*ast.Function{
		ast.Fn("setDeep", ast.Params(ast.RefParam("r")), ast.Stmt(ast.Call("setInner", ast.Var("r")))),
		ast.Fn("setInner", ast.Params(ast.RefParam("s")), ast.Stmt(ast.Set("s", ast.Int(5)))),
		ast.Fn("showDeep", ast.Params(ast.RefParam("r")), ast.Stmt(ast.Call("show", ast.Var("r")))),
		ast.Fn("show", ast.Params(ast.Param("v")), ast.Stmt(ast.ExprCmd(ast.Var("v")))),
	}}
}

func TestReferenceToReferenceByReference(t *testing.T) {
	interp, out := newCapturing(t)
	mustLoad(t, interp, referenceProgram())
	mustExec(t, interp,
		ast.Stmt(ast.Define("a", ast.Int(1))),
		ast.Stmt(ast.Call("setDeep", ast.Var("a"))),
		ast.Stmt(ast.ExprCmd(ast.Var("a"))),
	)
	expectInts(t, drain(out), 5)
}

func TestReferenceToReferenceByValue(t *testing.T) {
	interp, out := newCapturing(t)
	mustLoad(t, interp, referenceProgram())
	mustExec(t, interp,
		ast.Stmt(ast.Define("a", ast.Int(1))),
		ast.Stmt(ast.Call("showDeep", ast.Var("a"))),
	)
	expectInts(t, drain(out), 1)
}

func TestReferenceParameterRequiresVariable(t *testing.T) {
	interp, _ := newCapturing(t)
	mustLoad(t, interp, referenceProgram())
	re := execErr(t, interp, ast.Stmt(ast.Call("setInner", ast.Int(3))))
	if !re.IsA(ErrorKindTypeMismatch) {
		t.Fatalf("expected TypeMismatchError, got %s: %s", re.Kind(), re.Message())
	}
}

func TestArgumentCountAndTypes(t *testing.T) {
	interp, _ := newCapturing(t)
	mustLoad(t, interp, &ast.Program{Functions: []*ast.Function{
		ast.Fn("f", ast.Params(ast.TypedParam("n", ast.Ty("integer")))),
	}})
	re := execErr(t, interp, ast.Stmt(ast.Call("f")))
	if !re.IsA(ErrorKindIllegalArguments) || re.Message() != "illegal number of arguments for 'f': 1 required (got 0)" {
		t.Fatalf("unexpected error %s: %s", re.Kind(), re.Message())
	}
	re = execErr(t, interp, ast.Stmt(ast.Call("f", ast.Str("x"))))
	if !re.IsA(ErrorKindTypeMismatch) {
		t.Fatalf("expected TypeMismatchError, got %s", re.Kind())
	}
}

func TestVarargsAndFlattening(t *testing.T) {
	interp, out := newCapturing(t)
	mustLoad(t, interp, &ast.Program{Functions: []*ast.Function{
		{Name: "count", Parameters: ast.Params(ast.Param("first"), ast.Param("rest")), IsVarargs: true, Body: ast.Body(
			ast.Stmt(ast.ExprCmd(ast.Len(ast.Var("rest")))),
		)},
	}})
	args := &ast.Arguments{Positional: []*ast.Argument{
		{Expr: ast.Int(0)},
		ast.Flat(ast.List(ast.Int(1), ast.Int(2), ast.Int(3))),
	}}
	mustExec(t, interp,
		ast.Stmt(ast.CallExpr(ast.Var("count"), args)),
		ast.Stmt(ast.Call("count", ast.Int(0))),
	)
	expectInts(t, drain(out), 3, 0)

	re := execErr(t, interp, ast.Stmt(ast.Call("count")))
	if re.Message() != "illegal number of arguments for 'count': at least 1 required (got 0)" {
		t.Fatalf("unexpected message %q", re.Message())
	}
}

func TestKeywordArguments(t *testing.T) {
	interp, out := newCapturing(t)
	fn := ast.Fn("greet", ast.Params(ast.Param("name")),
		ast.Stmt(ast.ExprCmd(ast.Concat(ast.Var("greeting"), ast.Var("name")))))
	fn.KwParameters = ast.Params(ast.KwParam("greeting", ast.Str("hello ")))
	mustLoad(t, interp, &ast.Program{Functions: []*ast.Function{fn}})

	withKw := ast.Args(ast.Str("bob"))
	withKw.Keyword = []*ast.KwArgument{ast.Kw("greeting", ast.Str("hi "))}
	mustExec(t, interp,
		ast.Stmt(ast.Call("greet", ast.Str("ann"))),
		ast.Stmt(ast.CallExpr(ast.Var("greet"), withKw)),
	)
	expectStrings(t, drain(out), "hello ann", "hi bob")

	bad := ast.Args(ast.Str("x"))
	bad.Keyword = []*ast.KwArgument{ast.Kw("nope", ast.Int(1))}
	re := execErr(t, interp, ast.Stmt(ast.CallExpr(ast.Var("greet"), bad)))
	if !re.IsA(ErrorKindIllegalArguments) {
		t.Fatalf("expected IllegalArgumentsError, got %s", re.Kind())
	}
}

func TestClosuresCaptureScope(t *testing.T) {
	interp, out := newCapturing(t)
	mustLoad(t, interp, &ast.Program{Functions: []*ast.Function{
		ast.Fn("makeCounter", nil,
			ast.Stmt(ast.Define("n", ast.Int(0))),
			ast.Stmt(ast.Return(ast.Lambda(nil,
				ast.Stmt(ast.VarCmd(ast.Var("n"), "++")),
				ast.Stmt(ast.ExprCmd(ast.Var("n"))),
			))),
		),
	}})
	mustExec(t, interp,
		ast.Stmt(ast.Define("c", ast.StmtSingle(ast.Stmt(ast.Call("makeCounter"))))),
		ast.Stmt(ast.Call("c")),
		ast.Stmt(ast.Call("c")),
	)
	expectInts(t, drain(out), 1, 2)
}

func TestGenericFunctionTypeArguments(t *testing.T) {
	interp, out := newCapturing(t)
	fn := ast.Fn("only", ast.Params(ast.TypedParam("v", ast.Ty("T"))), ast.Stmt(ast.ExprCmd(ast.Var("v"))))
	fn.TypeParams = []string{"T"}
	mustLoad(t, interp, &ast.Program{Functions: []*ast.Function{fn}})

	call := ast.Call("only", ast.Int(3))
	call.TypeArguments = []*ast.Datatype{ast.Ty("integer")}
	mustExec(t, interp, ast.Stmt(call))
	expectInts(t, drain(out), 3)

	wrong := ast.Call("only", ast.Str("x"))
	wrong.TypeArguments = []*ast.Datatype{ast.Ty("integer")}
	if re := execErr(t, interp, ast.Stmt(wrong)); !re.IsA(ErrorKindTypeMismatch) {
		t.Fatalf("expected TypeMismatchError, got %s", re.Kind())
	}
	if re := execErr(t, interp, ast.Stmt(ast.Call("only", ast.Int(1)))); !re.IsA(ErrorKindIllegalArguments) {
		t.Fatalf("expected IllegalArgumentsError for missing typeargument, got %s", re.Kind())
	}
}

func TestCallingListPushesElements(t *testing.T) {
	interp, out := newCapturing(t)
	mustExec(t, interp,
		ast.Stmt(ast.Define("xs", ast.List(ast.Int(1), ast.Int(2)))),
		ast.Stmt(ast.Call("xs")),
	)
	expectInts(t, drain(out), 1, 2)

	re := execErr(t, interp,
		ast.Stmt(ast.Define("n", ast.Int(1))),
		ast.Stmt(ast.Call("n")),
	)
	if !re.IsA(ErrorKindTypeMismatch) || re.Message() != "can't execute a value of type integer" {
		t.Fatalf("unexpected error %s: %s", re.Kind(), re.Message())
	}
}

func TestCallerNamespace(t *testing.T) {
	interp, out := newCapturing(t)
	mustLoad(t, interp, &ast.Program{Functions: []*ast.Function{
		ast.Fn("peekCaller", nil, ast.Stmt(ast.ExprCmd(ast.Fld(ast.Var("caller_namespace"), "secret")))),
		ast.Fn("outer", nil,
			ast.Stmt(ast.Define("secret", ast.Str("found"))),
			ast.Stmt(ast.Call("peekCaller")),
		),
	}})
	mustExec(t, interp, ast.Stmt(ast.Call("outer")))
	expectStrings(t, drain(out), "found")
}

func TestRegisteredBuiltin(t *testing.T) {
	interp, out := newCapturing(t)
	interp.Register(Builtin{
		Name:       "double",
		Parameters: ast.Params(ast.TypedParam("n", ast.Ty("integer"))),
		Body: func(call runtime.NativeCall) error {
			n := call.Args[0].(runtime.IntegerValue)
			return call.Out.Push(runtime.IntegerValue{Val: n.Val * 2})
		},
	})
	interp.Register(Builtin{
		Name: "fail",
		Body: func(call runtime.NativeCall) error {
			return interp.RaiseError(call, ErrorKindOutOfBounds, "nothing here")
		},
	})
	mustExec(t, interp, ast.Stmt(ast.Call("double", ast.Int(21))))
	expectInts(t, drain(out), 42)

	re := execErr(t, interp, ast.Stmt(ast.Call("fail")))
	if !re.IsA(ErrorKindOutOfBounds) || len(re.Stack()) != 1 {
		t.Fatalf("unexpected error %s: %s (%v)", re.Kind(), re.Message(), re.Stack())
	}
}

func TestNativePanicBecomesJavaError(t *testing.T) {
	interp, _ := newCapturing(t)
	interp.Register(Builtin{
		Name: "explode",
		Body: func(runtime.NativeCall) error { panic("host failure") },
	})
	re := execErr(t, interp, ast.Stmt(ast.Call("explode")))
	if !re.IsA(ErrorKindJava) || len(re.NativeStack()) == 0 {
		t.Fatalf("expected JavaError with a native stack, got %s: %s", re.Kind(), re.Message())
	}
}

func TestPullAndPeekPrimitives(t *testing.T) {
	in := runtime.NewStream()
	for _, n := range []int64{1, 2} {
		_ = in.Push(runtime.IntegerValue{Val: n})
	}
	in.Finish()
	out := runtime.NewStream()
	interp := New(WithStreams(in, out))
	t.Cleanup(interp.Shutdown)

	mustExec(t, interp,
		ast.Stmt(ast.Call("peek", ast.Var("p"))),
		ast.Stmt(ast.Call("pull", ast.Var("x"))),
		ast.Stmt(ast.Call("tryPull", ast.Var("y"), ast.Var("z"))),
		ast.Stmt(ast.ExprCmd(ast.Var("p"))),
		ast.Stmt(ast.ExprCmd(ast.Var("x"))),
		ast.Stmt(ast.ExprCmd(ast.Var("y"))),
		ast.Stmt(ast.VarCmd(ast.Var("z"), "?")),
	)
	expectStrings(t, drain(out), "true", "false", "1", "1", "2", "false")

	re := execErr(t, interp, ast.Stmt(ast.Call("pull")))
	if !re.IsA(ErrorKindEmptyStream) {
		t.Fatalf("expected EmptyStreamError, got %s", re.Kind())
	}
	re = execErr(t, interp, ast.Stmt(ast.Call("tryPeek")))
	if !re.IsA(ErrorKindIllegalArguments) {
		t.Fatalf("expected IllegalArgumentsError, got %s", re.Kind())
	}
}
