package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

func (i *Interpreter) evalCommand(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	switch cmd.Type {
	case ast.CommandNormal:
		return i.evalCallCommand(state, scope, cmd, in, out)
	case ast.CommandVariable:
		return i.evalVariableCommand(state, scope, cmd, in, out)
	case ast.CommandDel:
		return i.evalDelCommand(state, scope, cmd, in, out)
	case ast.CommandIf, ast.CommandWhile:
		return i.evalConditional(state, scope, cmd, in, out)
	case ast.CommandFor:
		return i.evalFor(state, scope, cmd, in, out)
	case ast.CommandTry:
		return i.evalTry(state, scope, cmd, in, out)
	case ast.CommandTryDo:
		return i.evalTryDo(state, scope, cmd, in, out)
	case ast.CommandReturn:
		values, err := i.evalValueArguments(state, scope, cmd.Arguments, in, out)
		if err != nil {
			return err
		}
		for _, v := range values {
			if err := i.push(state, out, v); err != nil {
				return err
			}
		}
		return returnSignal{}
	case ast.CommandBreak:
		return breakSignal{}
	case ast.CommandContinue:
		return continueSignal{}
	case ast.CommandExpression:
		v, err := i.evalValue(state, scope, cmd.Name, in, out)
		if err != nil {
			return err
		}
		return i.push(state, out, v)
	default:
		return i.plainError(state, "unsupported command type %s", cmd.Type)
	}
}

// push writes v to out, reporting a closed stream as a language error.
func (i *Interpreter) push(state *evalState, out runtime.Stream, v runtime.Value) error {
	if err := out.Push(v); err != nil {
		if errors.Is(err, runtime.ErrStreamFinished) || errors.Is(err, runtime.ErrInputOnly) {
			return i.plainError(state, "%s", err.Error())
		}
		return i.asRodaError(state, err)
	}
	return nil
}

func (i *Interpreter) evalBody(state *evalState, scope *runtime.Scope, body []*ast.Statement, in, out runtime.Stream) error {
	for _, stmt := range body {
		if err := i.evalStatement(state, scope, stmt, in, out, false); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) evalCallCommand(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	callee, err := i.evalValue(state, scope, cmd.Name, in, out)
	if err != nil {
		return err
	}
	typeArgs := make([]*ast.Datatype, len(cmd.TypeArguments))
	for idx, ta := range cmd.TypeArguments {
		if typeArgs[idx], err = scope.Substitute(ta); err != nil {
			return i.plainError(state, "%s", err.Error())
		}
	}
	args, kwargs, err := i.evalArguments(state, scope, cmd.Arguments, in, out)
	if err != nil {
		return err
	}
	i.pushFrame(state, func() string {
		return fmt.Sprintf("calling %s %s\n\tat %s", cmd.Name.String(), describeArguments(args), cmd.Pos)
	})
	defer i.popFrame(state)
	return i.exec(state, scope, calleeName(cmd.Name), callee, typeArgs, args, kwargs, in, out)
}

func calleeName(expr ast.Expression) string {
	if v, ok := expr.(*ast.Variable); ok {
		return v.Name
	}
	return expr.String()
}

func describeArguments(args []runtime.Value) string {
	if len(args) == 0 {
		return "with no arguments"
	}
	parts := make([]string, len(args))
	for idx, a := range args {
		parts[idx] = runtime.Stringify(a)
	}
	return "with argument(s) " + strings.Join(parts, ", ")
}

func (i *Interpreter) evalDelCommand(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	switch target := cmd.Name.(type) {
	case *ast.ElementExpression:
		container, err := i.evalValue(state, scope, target.Sub, in, out)
		if err != nil {
			return err
		}
		index, err := i.evalValue(state, scope, target.Index, in, out)
		if err != nil {
			return err
		}
		switch c := container.(type) {
		case *runtime.ListValue:
			idx, err := i.listIndex(state, c.Len(), index, false)
			if err != nil {
				return err
			}
			c.Splice(idx, idx+1, nil)
			return nil
		case *runtime.MapValue:
			key, ok := index.(runtime.StringValue)
			if !ok {
				return i.typeMismatch(state, "del: map key must be a string, got %s", runtime.TypeName(index))
			}
			if err := c.Delete(key.Val); err != nil {
				return i.plainError(state, "del: %v", err)
			}
			return nil
		default:
			return i.typeMismatch(state, "del: can't delete an element of a %s", runtime.TypeName(container))
		}
	case *ast.SliceExpression:
		container, err := i.evalValue(state, scope, target.Sub, in, out)
		if err != nil {
			return err
		}
		list, ok := container.(*runtime.ListValue)
		if !ok {
			return i.typeMismatch(state, "del: can't delete a slice of a %s", runtime.TypeName(container))
		}
		start, end, err := i.sliceBounds(state, scope, target, list.Len(), in, out)
		if err != nil {
			return err
		}
		list.Splice(start, end, nil)
		return nil
	default:
		return i.plainError(state, "bad lvalue for del: %s", cmd.Name.String())
	}
}
