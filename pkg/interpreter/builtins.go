package interpreter

import (
	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

// Builtin describes a host function made available to programs. Reference
// parameters receive *runtime.ReferenceValue arguments; keyword parameters
// take their Default expression when omitted.
type Builtin struct {
	Name         string
	Parameters   []*ast.Parameter
	KwParameters []*ast.Parameter
	Varargs      bool
	KwVarargs    bool
	Body         runtime.NativeBody
}

// Register binds b in the global scope, replacing any previous binding of
// the same name.
func (i *Interpreter) Register(b Builtin) {
	i.global.SetLocal(b.Name, &runtime.NativeFunctionValue{
		Name:         b.Name,
		Parameters:   b.Parameters,
		KwParameters: b.KwParameters,
		IsVarargs:    b.Varargs,
		IsKwVarargs:  b.KwVarargs,
		Body:         b.Body,
	})
}

// RaiseError builds a language error of kind from inside a host function,
// carrying the caller's stack.
func (i *Interpreter) RaiseError(call runtime.NativeCall, kind ErrorKind, message string) error {
	return i.newError(i.callState(call), kind, message)
}

func (i *Interpreter) registerCoreBuiltins() {
	i.Register(Builtin{
		Name:       "push",
		Parameters: ast.Params(ast.Param("values")),
		Varargs:    true,
		Body: func(call runtime.NativeCall) error {
			st := i.callState(call)
			if len(call.Args) == 0 {
				return i.illegalArguments(st, "%s", argumentUnderflow("push", 1, 0))
			}
			for _, v := range call.Args {
				if err := i.push(st, call.Out, v); err != nil {
					return err
				}
			}
			return nil
		},
	})
	i.registerPulling("pull", false, runtime.Stream.Pull)
	i.registerPulling("tryPull", true, runtime.Stream.Pull)
	i.registerPulling("peek", false, runtime.Stream.Peek)
	i.registerPulling("tryPeek", true, runtime.Stream.Peek)

	i.Register(Builtin{
		Name:       "error",
		Parameters: ast.Params(ast.Param("errorObject")),
		Body: func(call runtime.NativeCall) error {
			st := i.callState(call)
			switch v := call.Args[0].(type) {
			case runtime.StringValue:
				return i.plainError(st, "%s", v.Val)
			case *runtime.RecordInstanceValue:
				if v.IsInstanceOf(string(ErrorKindError), nil) {
					return i.errorFromObject(st, v)
				}
			}
			return i.typeMismatch(st, "error: can't raise a %s", runtime.TypeName(call.Args[0]))
		},
	})
	i.Register(Builtin{
		Name:       "print",
		Parameters: ast.Params(ast.Param("values")),
		Varargs:    true,
		Body: func(call runtime.NativeCall) error {
			st := i.callState(call)
			for _, v := range call.Args {
				if err := i.push(st, call.Out, runtime.StringValue{Val: runtime.Stringify(v)}); err != nil {
					return err
				}
			}
			return nil
		},
	})
	i.Register(Builtin{
		Name: "identity",
		Body: func(call runtime.NativeCall) error {
			st := i.callState(call)
			for {
				v, ok := call.In.Pull()
				if !ok {
					return nil
				}
				if err := i.push(st, call.Out, v); err != nil {
					return err
				}
			}
		},
	})
}

// registerPulling installs a pull-style primitive. Without arguments the
// value read is pushed to the output; otherwise each reference argument is
// bound in its own scope. The try variants push whether each read
// succeeded instead of failing on an empty stream.
func (i *Interpreter) registerPulling(name string, try bool, read func(runtime.Stream) (runtime.Value, bool)) {
	i.Register(Builtin{
		Name:       name,
		Parameters: ast.Params(ast.RefParam("variables")),
		Varargs:    true,
		Body: func(call runtime.NativeCall) error {
			st := i.callState(call)
			if len(call.Args) == 0 {
				if try {
					return i.illegalArguments(st, "%s", argumentUnderflow(name, 1, 0))
				}
				v, ok := read(call.In)
				if !ok {
					return i.emptyStream(st, "empty stream")
				}
				return i.push(st, call.Out, v)
			}
			for _, arg := range call.Args {
				ref := arg.(*runtime.ReferenceValue)
				v, ok := read(call.In)
				if try {
					if err := i.push(st, call.Out, runtime.BooleanValue{Val: ok}); err != nil {
						return err
					}
				} else if !ok {
					return i.emptyStream(st, "empty stream")
				}
				if ok {
					ref.AssignLocal(v)
				}
			}
			return nil
		},
	})
}
