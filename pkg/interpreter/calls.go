package interpreter

import (
	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

// evalArguments evaluates call arguments. Bare variables are passed as
// references so reference parameters can bind them; flattened arguments are
// spliced in.
func (i *Interpreter) evalArguments(state *evalState, scope *runtime.Scope, args *ast.Arguments, in, out runtime.Stream) ([]runtime.Value, map[string]runtime.Value, error) {
	if args == nil {
		return nil, nil, nil
	}
	values := make([]runtime.Value, 0, len(args.Positional))
	for _, arg := range args.Positional {
		if arg.Flattened {
			v, err := i.evalValue(state, scope, arg.Expr, in, out)
			if err != nil {
				return nil, nil, err
			}
			list, ok := v.(*runtime.ListValue)
			if !ok {
				return nil, nil, i.typeMismatch(state, "can't flatten a %s", runtime.TypeName(v))
			}
			values = append(values, list.Elements()...)
			continue
		}
		v, err := i.evalExpression(state, scope, arg.Expr, in, out, true)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
	}
	var kwargs map[string]runtime.Value
	if len(args.Keyword) > 0 {
		kwargs = make(map[string]runtime.Value, len(args.Keyword))
		for _, kw := range args.Keyword {
			v, err := i.evalValue(state, scope, kw.Expr, in, out)
			if err != nil {
				return nil, nil, err
			}
			kwargs[kw.Name] = v
		}
	}
	return values, kwargs, nil
}

// evalValueArguments evaluates positional arguments by value.
func (i *Interpreter) evalValueArguments(state *evalState, scope *runtime.Scope, args *ast.Arguments, in, out runtime.Stream) ([]runtime.Value, error) {
	values, _, err := i.evalArguments(state, scope, args, in, out)
	if err != nil {
		return nil, err
	}
	for idx, v := range values {
		if values[idx], err = i.resolveArgument(state, v, false); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// resolveArgument applies the dereference contract. By value, a reference
// is followed and a reference found there is followed once more. By
// reference, a reference to a reference passes the inner one; anything else
// passes unchanged.
func (i *Interpreter) resolveArgument(state *evalState, v runtime.Value, byRef bool) (runtime.Value, error) {
	ref, ok := v.(*runtime.ReferenceValue)
	if !ok {
		return v, nil
	}
	target, found := ref.Resolve()
	if byRef {
		if inner, ok := target.(*runtime.ReferenceValue); found && ok {
			return inner, nil
		}
		return ref, nil
	}
	if !found {
		return nil, i.unknownName(state, "variable '%s' not found", ref.Name)
	}
	if inner, ok := target.(*runtime.ReferenceValue); ok {
		second, found := inner.Resolve()
		if !found {
			return nil, i.unknownName(state, "variable '%s' not found", inner.Name)
		}
		return second, nil
	}
	return target, nil
}

// exec calls a callable value. Lists push their elements.
func (i *Interpreter) exec(state *evalState, scope *runtime.Scope, name string, callee runtime.Value, typeArgs []*ast.Datatype, args []runtime.Value, kwargs map[string]runtime.Value, in, out runtime.Stream) error {
	switch fn := callee.(type) {
	case *runtime.ListValue:
		for _, v := range fn.Elements() {
			if err := i.push(state, out, v); err != nil {
				return err
			}
		}
		return nil
	case *runtime.FunctionValue:
		return i.callFunction(state, scope, name, fn, typeArgs, args, kwargs, in, out)
	case *runtime.NativeFunctionValue:
		return i.callNative(state, scope, fn, typeArgs, args, kwargs, in, out)
	default:
		return i.typeMismatch(state, "can't execute a value of type %s", runtime.TypeName(callee))
	}
}

func (i *Interpreter) callFunction(state *evalState, caller *runtime.Scope, name string, fn *runtime.FunctionValue, typeArgs []*ast.Datatype, args []runtime.Value, kwargs map[string]runtime.Value, in, out runtime.Stream) error {
	decl := fn.Declaration
	if decl.Name != "" {
		name = decl.Name
	}
	parent := fn.Closure
	if parent == nil {
		parent = i.global
	}
	fs := runtime.NewScope(parent)
	fs.SetLocal("caller_namespace", runtime.NamespaceValue{Scope: caller})

	if len(typeArgs) != len(decl.TypeParams) {
		return i.illegalArguments(state, "wrong number of typearguments to '%s': %d required, got %d", name, len(decl.TypeParams), len(typeArgs))
	}
	for idx, tp := range decl.TypeParams {
		if err := fs.AddTypearg(tp, typeArgs[idx]); err != nil {
			return i.plainError(state, "%s", err.Error())
		}
	}
	bound, kw, err := i.checkArgs(state, fs, name, decl.Parameters, decl.KwParameters, decl.IsVarargs, false, args, kwargs)
	if err != nil {
		return err
	}
	for idx, p := range decl.Parameters {
		if decl.IsVarargs && idx == len(decl.Parameters)-1 {
			fs.SetLocal(p.Name, runtime.NewList(append([]runtime.Value(nil), bound[idx:]...)))
			break
		}
		fs.SetLocal(p.Name, bound[idx])
	}
	for k, v := range kw {
		fs.SetLocal(k, v)
	}

	for _, stmt := range decl.Body {
		err := i.evalStatement(state, fs, stmt, in, out, false)
		if err == nil {
			continue
		}
		switch err.(type) {
		case returnSignal:
			return nil
		case breakSignal, continueSignal:
			return i.plainError(state, "%s outside of a loop", err.Error())
		}
		return err
	}
	return nil
}

func (i *Interpreter) callNative(state *evalState, scope *runtime.Scope, fn *runtime.NativeFunctionValue, typeArgs []*ast.Datatype, args []runtime.Value, kwargs map[string]runtime.Value, in, out runtime.Stream) (err error) {
	bound, kw, err := i.checkArgs(state, scope, fn.Name, fn.Parameters, fn.KwParameters, fn.IsVarargs, fn.IsKwVarargs, args, kwargs)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = i.asRodaError(state, i.panicError(r))
		}
	}()
	err = fn.Body(runtime.NativeCall{
		TypeArgs: typeArgs,
		Args:     bound,
		KwArgs:   kw,
		Scope:    scope,
		In:       in,
		Out:      out,
		State:    state,
	})
	if err == nil || isSignal(err) {
		return err
	}
	return i.asRodaError(state, err)
}

// checkArgs validates arity and declared types and applies the dereference
// contract. Missing keyword arguments take their defaults, evaluated in
// scope.
func (i *Interpreter) checkArgs(state *evalState, scope *runtime.Scope, name string, params, kwParams []*ast.Parameter, varargs, kwVarargs bool, args []runtime.Value, kwargs map[string]runtime.Value) ([]runtime.Value, map[string]runtime.Value, error) {
	if varargs && len(params) > 0 {
		if len(args) < len(params)-1 {
			return nil, nil, i.illegalArguments(state, "%s", argumentUnderflow(name, len(params)-1, len(args)))
		}
	} else if len(args) != len(params) {
		return nil, nil, i.illegalArguments(state, "%s", argumentCount(name, len(params), len(args)))
	}

	resolved := make([]runtime.Value, len(args))
	for idx, arg := range args {
		p := params[min(idx, len(params)-1)]
		v, err := i.resolveArgument(state, arg, p.Reference)
		if err != nil {
			return nil, nil, err
		}
		if p.Reference {
			if _, ok := v.(*runtime.ReferenceValue); !ok {
				return nil, nil, i.typeMismatch(state, "illegal argument '%s' for '%s': reference expected (got %s)", p.Name, name, runtime.TypeName(v))
			}
		} else if err := i.checkType(state, scope, name, p, v); err != nil {
			return nil, nil, err
		}
		resolved[idx] = v
	}

	kw := make(map[string]runtime.Value, len(kwParams))
	for k, v := range kwargs {
		p := findParameter(kwParams, k)
		if p == nil && !kwVarargs {
			return nil, nil, i.illegalArguments(state, "illegal keyword argument '%s' for '%s'", k, name)
		}
		v, err := i.resolveArgument(state, v, false)
		if err != nil {
			return nil, nil, err
		}
		if p != nil {
			if err := i.checkType(state, scope, name, p, v); err != nil {
				return nil, nil, err
			}
		}
		kw[k] = v
	}
	for _, p := range kwParams {
		if _, ok := kw[p.Name]; ok {
			continue
		}
		if p.Default == nil {
			return nil, nil, i.illegalArguments(state, "missing keyword argument '%s' for '%s'", p.Name, name)
		}
		v, err := i.evalValue(state, scope, p.Default, runtime.NewEmptyStream(), runtime.NewEmptyStream())
		if err != nil {
			return nil, nil, err
		}
		kw[p.Name] = v
	}
	return resolved, kw, nil
}

func (i *Interpreter) checkType(state *evalState, scope *runtime.Scope, name string, p *ast.Parameter, v runtime.Value) error {
	if p.Type == nil {
		return nil
	}
	typ, err := scope.Substitute(p.Type)
	if err != nil {
		return i.plainError(state, "%s", err.Error())
	}
	if !runtime.Is(v, typ) {
		return i.typeMismatch(state, "illegal argument '%s' for '%s': %s expected (got %s)", p.Name, name, typ, runtime.TypeName(v))
	}
	return nil
}

func findParameter(params []*ast.Parameter, name string) *ast.Parameter {
	for _, p := range params {
		if p.Name == name {
			return p
		}
	}
	return nil
}
