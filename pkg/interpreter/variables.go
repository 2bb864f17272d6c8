package interpreter

import (
	"fmt"
	"strings"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

// lvalue is an assignable location named by a variable command.
type lvalue struct {
	assign      func(runtime.Value) error
	assignLocal func(runtime.Value) error
}

func (i *Interpreter) evalVariableCommand(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) error {
	args, err := i.evalValueArguments(state, scope, cmd.Arguments, in, out)
	if err != nil {
		return err
	}
	target := cmd.Name
	i.pushFrame(state, func() string {
		parts := make([]string, len(args))
		for idx, a := range args {
			parts[idx] = runtime.Stringify(a)
		}
		return fmt.Sprintf("variable command %s %s %s\n\tat %s", target, cmd.Operator, strings.Join(parts, " "), cmd.Pos)
	})
	defer i.popFrame(state)

	if cmd.Operator == "?" {
		v, ok := target.(*ast.Variable)
		if !ok {
			return i.plainError(state, "bad lvalue for '?': %s", target)
		}
		_, found := scope.Resolve(v.Name)
		return i.push(state, out, runtime.BooleanValue{Val: found})
	}

	lv, err := i.lvalueOf(state, scope, cmd, in, out)
	if err != nil {
		return err
	}
	current := func() (runtime.Value, error) {
		return i.evalValue(state, scope, target, in, out)
	}
	arg := func() (runtime.Value, error) {
		if len(args) == 0 {
			return nil, i.illegalArguments(state, "%s", argumentCount(cmd.Operator, 1, 0))
		}
		return args[0], nil
	}

	switch cmd.Operator {
	case ":=", "=":
		if len(args) != 1 {
			return i.illegalArguments(state, "%s", argumentCount(cmd.Operator, 1, len(args)))
		}
		if cmd.Operator == ":=" {
			return lv.assignLocal(args[0])
		}
		return lv.assign(args[0])
	case "++", "--":
		v, err := current()
		if err != nil {
			return err
		}
		n, ok := v.(runtime.IntegerValue)
		if !ok {
			return i.typeMismatch(state, "tried to %s a %s", cmd.Operator, runtime.TypeName(v))
		}
		if cmd.Operator == "++" {
			return lv.assign(runtime.IntegerValue{Val: n.Val + 1})
		}
		return lv.assign(runtime.IntegerValue{Val: n.Val - 1})
	case "+=":
		v, err := current()
		if err != nil {
			return err
		}
		a, err := arg()
		if err != nil {
			return err
		}
		if list, ok := v.(*runtime.ListValue); ok {
			if list.ElementType != nil && !runtime.Is(a, list.ElementType) {
				return i.typeMismatch(state, "can't add a %s to a list<%s>", runtime.TypeName(a), list.ElementType)
			}
			list.Append(a)
			return nil
		}
		return i.compound(state, lv, ast.OpAdd, v, a)
	case "-=", "*=", "/=":
		v, err := current()
		if err != nil {
			return err
		}
		a, err := arg()
		if err != nil {
			return err
		}
		op := ast.BinaryOp(strings.TrimSuffix(cmd.Operator, "="))
		return i.compound(state, lv, op, v, a)
	case ".=":
		v, err := current()
		if err != nil {
			return err
		}
		a, err := arg()
		if err != nil {
			return err
		}
		switch cur := v.(type) {
		case *runtime.ListValue:
			more, ok := a.(*runtime.ListValue)
			if !ok {
				return i.typeMismatch(state, "tried to .= a %s to a list", runtime.TypeName(a))
			}
			if cur.ElementType != nil {
				for _, e := range more.Elements() {
					if !runtime.Is(e, cur.ElementType) {
						return i.typeMismatch(state, "can't add a %s to a list<%s>", runtime.TypeName(e), cur.ElementType)
					}
				}
			}
			joined := runtime.NewList(append(cur.Elements(), more.Elements()...))
			joined.ElementType = cur.ElementType
			return lv.assign(joined)
		case runtime.StringValue:
			s, ok := a.(runtime.StringValue)
			if !ok {
				return i.typeMismatch(state, "tried to .= a %s to a string", runtime.TypeName(a))
			}
			return lv.assign(runtime.StringValue{Val: cur.Val + s.Val})
		default:
			return i.typeMismatch(state, "tried to .= a %s", runtime.TypeName(v))
		}
	case "~=":
		return i.replaceAssign(state, lv, target, current, args)
	default:
		return i.unknownName(state, "unknown operator %s", cmd.Operator)
	}
}

func (i *Interpreter) compound(state *evalState, lv *lvalue, op ast.BinaryOp, v, a runtime.Value) error {
	_, vnum := toFloat(v)
	_, anum := toFloat(a)
	if !vnum || !anum {
		return i.typeMismatch(state, "tried to %s= a %s and a %s", op, runtime.TypeName(v), runtime.TypeName(a))
	}
	result, err := i.arithmetic(state, op, v, a)
	if err != nil {
		return err
	}
	return lv.assign(result)
}

// replaceAssign applies pattern/replacement pairs in order.
func (i *Interpreter) replaceAssign(state *evalState, lv *lvalue, target ast.Expression, current func() (runtime.Value, error), args []runtime.Value) error {
	v, err := current()
	if err != nil {
		return err
	}
	text, ok := v.(runtime.StringValue)
	if !ok {
		return i.typeMismatch(state, "tried to ~= a %s", runtime.TypeName(v))
	}
	if len(args)%2 != 0 {
		return i.illegalArguments(state, "illegal arguments for '~=': even number required (got %d)", len(args))
	}
	result := text.Val
	for k := 0; k < len(args); k += 2 {
		pattern, pok := args[k].(runtime.StringValue)
		repl, rok := args[k+1].(runtime.StringValue)
		if !pok || !rok {
			return i.typeMismatch(state, "illegal arguments for '%s~=': strings expected", target)
		}
		re, err := i.compilePattern(state, pattern.Val)
		if err != nil {
			return err
		}
		result = re.ReplaceAllString(result, repl.Val)
	}
	return lv.assign(runtime.StringValue{Val: result})
}

// lvalueOf resolves the target of a variable command. A variable holding a
// reference is assigned through it.
func (i *Interpreter) lvalueOf(state *evalState, scope *runtime.Scope, cmd *ast.Command, in, out runtime.Stream) (*lvalue, error) {
	switch e := cmd.Name.(type) {
	case *ast.Variable:
		ref := func() *runtime.ReferenceValue {
			if v, ok := scope.Resolve(e.Name); ok {
				if r, ok := v.(*runtime.ReferenceValue); ok {
					return r
				}
			}
			return runtime.NewReference(scope, e.Name)
		}
		return &lvalue{
			assign: func(v runtime.Value) error {
				ref().Assign(v)
				return nil
			},
			assignLocal: func(v runtime.Value) error {
				ref().AssignLocal(v)
				return nil
			},
		}, nil
	case *ast.ElementExpression:
		set := func(v runtime.Value) error {
			container, index, err := i.evalPair(state, scope, e.Sub, e.Index, in, out)
			if err != nil {
				return err
			}
			return i.setElement(state, container, index, v)
		}
		return &lvalue{assign: set, assignLocal: set}, nil
	case *ast.SliceExpression:
		set := func(v runtime.Value) error {
			container, err := i.evalValue(state, scope, e.Sub, in, out)
			if err != nil {
				return err
			}
			list, ok := container.(*runtime.ListValue)
			if !ok {
				return i.typeMismatch(state, "can't assign a slice of a %s", runtime.TypeName(container))
			}
			repl, ok := v.(*runtime.ListValue)
			if !ok {
				return i.typeMismatch(state, "can't assign a %s to a slice", runtime.TypeName(v))
			}
			start, end, err := i.sliceBounds(state, scope, e, list.Len(), in, out)
			if err != nil {
				return err
			}
			if !list.Splice(start, end, repl.Elements()) {
				return i.outOfBounds(state, "illegal slice %d:%d", start, end)
			}
			return nil
		}
		return &lvalue{assign: set, assignLocal: set}, nil
	case *ast.FieldExpression:
		set := func(v runtime.Value) error {
			sub, err := i.evalValue(state, scope, e.Sub, in, out)
			if err != nil {
				return err
			}
			return i.setField(state, sub, e.Field, v)
		}
		return &lvalue{assign: set, assignLocal: set}, nil
	default:
		return nil, i.plainError(state, "bad lvalue for '%s': %s", cmd.Operator, cmd.Name)
	}
}

func (i *Interpreter) setElement(state *evalState, container, index, v runtime.Value) error {
	switch c := container.(type) {
	case *runtime.ListValue:
		if c.ElementType != nil && !runtime.Is(v, c.ElementType) {
			return i.typeMismatch(state, "can't put a %s to a list<%s>", runtime.TypeName(v), c.ElementType)
		}
		idx, err := i.listIndex(state, c.Len(), index, false)
		if err != nil {
			return err
		}
		if !c.Set(idx, v) {
			return i.outOfBounds(state, "index out of bounds: index %d, size %d", idx, c.Len())
		}
		return nil
	case *runtime.MapValue:
		key, ok := index.(runtime.StringValue)
		if !ok {
			return i.typeMismatch(state, "map key must be a string, got %s", runtime.TypeName(index))
		}
		if c.ElementType != nil && !runtime.Is(v, c.ElementType) {
			return i.typeMismatch(state, "can't put a %s to a map<%s>", runtime.TypeName(v), c.ElementType)
		}
		if err := c.Set(key.Val, v); err != nil {
			return i.plainError(state, "%v", err)
		}
		return nil
	default:
		return i.typeMismatch(state, "can't set an element of a %s", runtime.TypeName(container))
	}
}

// setField assigns a declared field of a record instance, checking the
// field's declared type.
func (i *Interpreter) setField(state *evalState, sub runtime.Value, name string, v runtime.Value) error {
	rec, ok := sub.(*runtime.RecordInstanceValue)
	if !ok {
		return i.typeMismatch(state, "can't set field '%s' of a %s", name, runtime.TypeName(sub))
	}
	field, typ := i.lookupField(rec, name)
	if field == nil {
		return i.unknownName(state, "field '%s' not found", name)
	}
	if typ != nil && !runtime.Is(v, typ) {
		return i.typeMismatch(state, "can't put a %s to field '%s' of type %s", runtime.TypeName(v), name, typ)
	}
	rec.SetField(name, v)
	return nil
}

// lookupField finds the declaration of a field among the instance's
// identities, returning its type with the identity's type arguments
// substituted.
func (i *Interpreter) lookupField(rec *runtime.RecordInstanceValue, name string) (*ast.Field, *ast.Datatype) {
	for _, id := range rec.Identities() {
		if id.Decl == nil {
			continue
		}
		for _, f := range id.Decl.Tree.Fields {
			if f.Name != name {
				continue
			}
			if f.Type == nil {
				return f, nil
			}
			return f, substituteParams(f.Type, id.Decl.Tree.TypeParams, id.TypeArgs)
		}
	}
	return nil, nil
}

// substituteParams replaces type parameter names in typ with their
// arguments.
func substituteParams(typ *ast.Datatype, params []string, args []*ast.Datatype) *ast.Datatype {
	for idx, p := range params {
		if typ.Name == p && idx < len(args) {
			return args[idx]
		}
	}
	if len(typ.Subtypes) == 0 {
		return typ
	}
	subs := make([]*ast.Datatype, len(typ.Subtypes))
	for idx, s := range typ.Subtypes {
		subs[idx] = substituteParams(s, params, args)
	}
	return &ast.Datatype{Name: typ.Name, Subtypes: subs}
}
