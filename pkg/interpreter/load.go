package interpreter

import (
	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

// Load installs prog into scope (the global scope when nil): pre-blocks
// run, functions are bound, records are registered in two phases and
// post-blocks run. Blocks read from an empty stream and their output is
// discarded.
func (i *Interpreter) Load(prog *ast.Program, scope *runtime.Scope) error {
	if scope == nil {
		scope = i.global
	}
	state := i.newState()
	runBlocks := func(blocks [][]*ast.Statement) error {
		for _, block := range blocks {
			err := i.evalBody(state, scope, block, runtime.NewEmptyStream(), runtime.NewEmptyStream())
			if err != nil {
				return i.topLevel(state, err)
			}
		}
		return nil
	}

	if err := runBlocks(prog.PreBlocks); err != nil {
		return err
	}
	for _, fn := range prog.Functions {
		scope.SetLocal(fn.Name, &runtime.FunctionValue{Declaration: fn, Closure: scope})
	}
	for _, rec := range prog.Records {
		if err := i.preRegisterRecord(state, scope, rec); err != nil {
			return err
		}
	}
	for _, rec := range prog.Records {
		if err := i.postRegisterRecord(state, scope, rec); err != nil {
			return err
		}
	}
	i.logger.Debug("program loaded", "functions", len(prog.Functions), "records", len(prog.Records))
	return runBlocks(prog.PostBlocks)
}

// ExecStatement evaluates stmt against the global scope with the
// interpreter's streams.
func (i *Interpreter) ExecStatement(stmt *ast.Statement) error {
	state := i.newState()
	return i.topLevel(state, i.evalStatement(state, i.global, stmt, i.in, i.out, false))
}

// RunMain calls the program's main function with args as strings.
func (i *Interpreter) RunMain(args []string) error {
	state := i.newState()
	v, ok := i.global.Resolve("main")
	if !ok {
		return i.unknownName(state, "variable 'main' not found")
	}
	fn, ok := v.(*runtime.FunctionValue)
	if !ok {
		return i.typeMismatch(state, "the executable namespace must be a function, got %s", runtime.TypeName(v))
	}
	values := make([]runtime.Value, len(args))
	for idx, a := range args {
		values[idx] = runtime.StringValue{Val: a}
	}
	i.pushFrame(state, func() string { return "calling main\n\tat <start>" })
	defer i.popFrame(state)
	return i.topLevel(state, i.callFunction(state, i.global, "main", fn, nil, values, nil, i.in, i.out))
}

// Interpret loads prog and runs its main function when it declares one.
func (i *Interpreter) Interpret(prog *ast.Program, args []string) error {
	if err := i.Load(prog, nil); err != nil {
		return err
	}
	if _, ok := i.global.Resolve("main"); !ok {
		return nil
	}
	return i.RunMain(args)
}

// topLevel settles an error reaching the outermost evaluation: return ends
// quietly, loop signals are misplaced, and host failures become language
// errors.
func (i *Interpreter) topLevel(state *evalState, err error) error {
	switch {
	case err == nil:
		return nil
	case isLoopSignal(err):
		return i.plainError(state, "%s outside of a loop", err.Error())
	case isSignal(err):
		return nil
	default:
		return i.asRodaError(state, err)
	}
}
