package interpreter

import (
	"errors"
	"strings"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

// evalCond runs a condition statement and reports whether every value it
// pushed is true. A condition that pushes nothing holds.
func (i *Interpreter) evalCond(state *evalState, scope *runtime.Scope, name string, cond *ast.Statement, in runtime.Stream) (bool, error) {
	values, err := i.collectStatement(state, scope, cond, in)
	if err != nil {
		return false, err
	}
	result := true
	for _, v := range values {
		b, ok := v.(runtime.BooleanValue)
		if !ok {
			return false, i.typeMismatch(state, "condition of '%s' must be boolean, got %s", name, runtime.TypeName(v))
		}
		result = result && b.Val
	}
	return result, nil
}

func conditionalName(cmd *ast.Command) string {
	switch {
	case cmd.Type == ast.CommandWhile && cmd.Negation:
		return "until"
	case cmd.Type == ast.CommandWhile:
		return "while"
	case cmd.Negation:
		return "unless"
	default:
		return "if"
	}
}

// evalConditional runs if, unless, while and until. Each pass of the body
// gets a fresh child scope; the else body runs only when the body never did.
func (i *Interpreter) evalConditional(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	loop := cmd.Type == ast.CommandWhile
	name := conditionalName(cmd)
	ran := false
	for {
		holds, err := i.evalCond(state, scope, name, cmd.Cond, in)
		if err != nil {
			return err
		}
		if holds == cmd.Negation {
			break
		}
		ran = true
		err = i.evalBody(state, runtime.NewScope(scope), cmd.Body, in, out)
		if loop {
			if stop, err := loopControl(err); stop || err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		break
	}
	if !ran && cmd.ElseBody != nil {
		return i.evalBody(state, runtime.NewScope(scope), cmd.ElseBody, in, out)
	}
	return nil
}

// loopControl consumes a loop signal. stop reports a break; any other
// failure is passed through.
func loopControl(err error) (stop bool, rest error) {
	var brk breakSignal
	var cont continueSignal
	switch {
	case err == nil:
		return false, nil
	case errors.As(err, &brk):
		return true, nil
	case errors.As(err, &cont):
		return false, nil
	default:
		return false, err
	}
}

func (i *Interpreter) evalFor(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	if cmd.List != nil {
		return i.evalForList(state, scope, cmd, in, out)
	}
	if len(cmd.Variables) == 0 {
		return i.illegalArguments(state, "invalid for statement: no variables")
	}
	for {
		first, ok := in.Pull()
		if !ok {
			return nil
		}
		iter := runtime.NewScope(scope)
		iter.SetLocal(cmd.Variables[0], first)
		for _, name := range cmd.Variables[1:] {
			v, ok := in.Pull()
			if !ok {
				return i.emptyStream(state, "empty stream (in for loop: for %s at %s)", strings.Join(cmd.Variables, ", "), cmd.Pos)
			}
			iter.SetLocal(name, v)
		}
		stop, err := i.forIteration(state, iter, cmd, in, out)
		if stop || err != nil {
			return err
		}
	}
}

func (i *Interpreter) evalForList(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	if len(cmd.Variables) != 1 {
		return i.illegalArguments(state, "invalid for statement: there must be only 1 variable when iterating a list")
	}
	v, err := i.evalValue(state, scope, cmd.List, in, out)
	if err != nil {
		return err
	}
	list, ok := v.(*runtime.ListValue)
	if !ok {
		return i.typeMismatch(state, "can't iterate a %s", runtime.TypeName(v))
	}
	for _, el := range list.Elements() {
		iter := runtime.NewScope(scope)
		iter.SetLocal(cmd.Variables[0], el)
		stop, err := i.forIteration(state, iter, cmd, in, out)
		if stop || err != nil {
			return err
		}
	}
	return nil
}

// forIteration runs one pass of a for body, skipping it when the guard
// fails.
func (i *Interpreter) forIteration(state *evalState, iter *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) (bool, error) {
	if cmd.Cond != nil {
		holds, err := i.evalCond(state, iter, "for if", cmd.Cond, in)
		if err != nil {
			return false, err
		}
		if !holds {
			return false, nil
		}
	}
	return loopControl(i.evalBody(state, iter, cmd.Body, in, out))
}

// evalTry runs a command and discards any error it raises. Control-flow
// signals pass through.
func (i *Interpreter) evalTry(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	err := i.evalCommand(state, scope, cmd.Cmd, in, out)
	if err == nil || isSignal(err) {
		return err
	}
	i.logger.Debug("error suppressed by try", "error", err.Error())
	return nil
}

// evalTryDo runs a body and, if it raises, binds the error object and runs
// the catch body.
func (i *Interpreter) evalTryDo(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	err := i.evalBody(state, runtime.NewScope(scope), cmd.Body, in, out)
	if err == nil || isSignal(err) {
		return err
	}
	if cmd.CatchVariable == "" {
		return nil
	}
	catch := runtime.NewScope(scope)
	catch.SetLocal(cmd.CatchVariable, i.asRodaError(state, err).Object())
	return i.evalBody(state, catch, cmd.CatchBody, in, out)
}
