package interpreter

import (
	"strings"
	"unicode/utf8"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

// evalValue evaluates expr with variables resolved.
func (i *Interpreter) evalValue(state *evalState, scope *runtime.Scope, expr ast.Expression, in, out runtime.Stream) (runtime.Value, error) {
	return i.evalExpression(state, scope, expr, in, out, false)
}

// evalExpression evaluates expr. With refs set, a bare variable yields a
// reference to its binding instead of its value.
func (i *Interpreter) evalExpression(state *evalState, scope *runtime.Scope, expr ast.Expression, in, out runtime.Stream, refs bool) (runtime.Value, error) {
	switch e := expr.(type) {
	case *ast.Variable:
		if refs {
			return runtime.NewReference(scope, e.Name), nil
		}
		return i.resolveVariable(state, scope, e.Name)
	case *ast.StringLiteral:
		return runtime.StringValue{Val: e.Value}, nil
	case *ast.IntegerLiteral:
		return runtime.IntegerValue{Val: e.Value}, nil
	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: e.Value}, nil
	case *ast.BooleanLiteral:
		return runtime.BooleanValue{Val: e.Value}, nil
	case *ast.BlockExpression:
		return &runtime.FunctionValue{Declaration: e.Function, Closure: scope}, nil
	case *ast.ListLiteral:
		values := make([]runtime.Value, len(e.Elements))
		for idx, el := range e.Elements {
			v, err := i.evalValue(state, scope, el, in, out)
			if err != nil {
				return nil, err
			}
			values[idx] = v
		}
		return runtime.NewList(values), nil
	case *ast.ReflectExpression:
		return i.reflectType(state, scope, e.Type)
	case *ast.TypeOfExpression:
		v, err := i.evalValue(state, scope, e.Expr, in, out)
		if err != nil {
			return nil, err
		}
		return i.typeOf(state, v)
	case *ast.NewExpression:
		typ, err := scope.Substitute(e.Type)
		if err != nil {
			return nil, i.plainError(state, "%s", err.Error())
		}
		args := make([]runtime.Value, len(e.Args))
		for idx, a := range e.Args {
			if args[idx], err = i.evalValue(state, scope, a, in, out); err != nil {
				return nil, err
			}
		}
		return i.newRecord(state, scope, typ, args)
	case *ast.LengthExpression:
		return i.evalLength(state, scope, e, in, out)
	case *ast.ElementExpression:
		return i.evalElement(state, scope, e, in, out)
	case *ast.SliceExpression:
		return i.evalSlice(state, scope, e, in, out)
	case *ast.ContainsExpression:
		return i.evalContains(state, scope, e, in, out)
	case *ast.FieldExpression:
		sub, err := i.evalValue(state, scope, e.Sub, in, out)
		if err != nil {
			return nil, err
		}
		return i.getField(state, sub, e.Field)
	case *ast.ConcatExpression:
		l, r, err := i.evalPair(state, scope, e.Left, e.Right, in, out)
		if err != nil {
			return nil, err
		}
		return concat(l, r), nil
	case *ast.ConcatChildrenExpression:
		l, r, err := i.evalPair(state, scope, e.Left, e.Right, in, out)
		if err != nil {
			return nil, err
		}
		return concatChildren(l, r), nil
	case *ast.JoinExpression:
		l, r, err := i.evalPair(state, scope, e.Left, e.Right, in, out)
		if err != nil {
			return nil, err
		}
		return i.join(state, l, r)
	case *ast.IsExpression:
		v, err := i.evalValue(state, scope, e.Expr, in, out)
		if err != nil {
			return nil, err
		}
		typ, err := scope.Substitute(e.Type)
		if err != nil {
			return nil, i.plainError(state, "%s", err.Error())
		}
		return runtime.BooleanValue{Val: runtime.Is(v, typ)}, nil
	case *ast.InExpression:
		l, r, err := i.evalPair(state, scope, e.Left, e.Right, in, out)
		if err != nil {
			return nil, err
		}
		return i.contains(state, r, l)
	case *ast.StatementListExpression:
		values, err := i.collectStatement(state, scope, e.Statement, in)
		if err != nil {
			return nil, err
		}
		return runtime.NewList(values), nil
	case *ast.StatementSingleExpression:
		values, err := i.collectStatement(state, scope, e.Statement, in)
		if err != nil {
			return nil, err
		}
		switch len(values) {
		case 0:
			return nil, i.emptyStream(state, "empty stream")
		case 1:
			return values[0], nil
		default:
			return nil, i.fullStream(state, "stream is full (got %d values)", len(values))
		}
	case *ast.UnaryExpression:
		v, err := i.evalValue(state, scope, e.Operand, in, out)
		if err != nil {
			return nil, err
		}
		return i.unaryOp(state, e.Op, v)
	case *ast.BinaryExpression:
		return i.evalBinary(state, scope, e, in, out)
	default:
		return nil, i.plainError(state, "unsupported expression %T", expr)
	}
}

// resolveVariable reads a binding by value, following one stored reference.
func (i *Interpreter) resolveVariable(state *evalState, scope *runtime.Scope, name string) (runtime.Value, error) {
	v, ok := scope.Resolve(name)
	if !ok {
		return nil, i.unknownName(state, "variable '%s' not found", name)
	}
	if ref, ok := v.(*runtime.ReferenceValue); ok {
		target, found := ref.Resolve()
		if !found {
			return nil, i.unknownName(state, "variable '%s' not found", ref.Name)
		}
		return target, nil
	}
	return v, nil
}

func (i *Interpreter) evalPair(state *evalState, scope *runtime.Scope, left, right ast.Expression, in, out runtime.Stream) (runtime.Value, runtime.Value, error) {
	l, err := i.evalValue(state, scope, left, in, out)
	if err != nil {
		return nil, nil, err
	}
	r, err := i.evalValue(state, scope, right, in, out)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// collectStatement runs stmt redirected into a fresh stream and returns
// everything it pushed.
func (i *Interpreter) collectStatement(state *evalState, scope *runtime.Scope, stmt *ast.Statement, in runtime.Stream) ([]runtime.Value, error) {
	s := runtime.NewStream()
	if err := i.evalStatement(state, scope, stmt, in, s, true); err != nil {
		return nil, err
	}
	return s.ReadAll(), nil
}

func (i *Interpreter) evalLength(state *evalState, scope *runtime.Scope, e *ast.LengthExpression, in, out runtime.Stream) (runtime.Value, error) {
	v, err := i.evalValue(state, scope, e.Sub, in, out)
	if err != nil {
		return nil, err
	}
	switch c := v.(type) {
	case *runtime.ListValue:
		return runtime.IntegerValue{Val: int64(c.Len())}, nil
	case *runtime.MapValue:
		return runtime.IntegerValue{Val: int64(c.Len())}, nil
	case runtime.StringValue:
		return runtime.IntegerValue{Val: int64(utf8.RuneCountInString(c.Val))}, nil
	default:
		return nil, i.typeMismatch(state, "can't get the length of a %s", runtime.TypeName(v))
	}
}

// listIndex normalizes a possibly negative index against size. With
// allowEnd, size itself is accepted.
func (i *Interpreter) listIndex(state *evalState, size int, index runtime.Value, allowEnd bool) (int, error) {
	n, ok := index.(runtime.IntegerValue)
	if !ok {
		return 0, i.typeMismatch(state, "index must be an integer, got %s", runtime.TypeName(index))
	}
	idx := int(n.Val)
	if idx < 0 {
		idx += size
	}
	limit := size
	if allowEnd {
		limit++
	}
	if idx < 0 || idx >= limit {
		return 0, i.outOfBounds(state, "index out of bounds: index %d, size %d", n.Val, size)
	}
	return idx, nil
}

func (i *Interpreter) evalElement(state *evalState, scope *runtime.Scope, e *ast.ElementExpression, in, out runtime.Stream) (runtime.Value, error) {
	container, index, err := i.evalPair(state, scope, e.Sub, e.Index, in, out)
	if err != nil {
		return nil, err
	}
	switch c := container.(type) {
	case *runtime.ListValue:
		idx, err := i.listIndex(state, c.Len(), index, false)
		if err != nil {
			return nil, err
		}
		v, ok := c.Get(idx)
		if !ok {
			return nil, i.outOfBounds(state, "index out of bounds: index %d, size %d", idx, c.Len())
		}
		return v, nil
	case *runtime.MapValue:
		key, ok := index.(runtime.StringValue)
		if !ok {
			return nil, i.typeMismatch(state, "map key must be a string, got %s", runtime.TypeName(index))
		}
		v, found := c.Get(key.Val)
		if !found {
			return nil, i.outOfBounds(state, "key '%s' not found", key.Val)
		}
		return v, nil
	case runtime.StringValue:
		runes := []rune(c.Val)
		idx, err := i.listIndex(state, len(runes), index, false)
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: string(runes[idx])}, nil
	default:
		return nil, i.typeMismatch(state, "can't index a %s", runtime.TypeName(container))
	}
}

func (i *Interpreter) sliceBounds(state *evalState, scope *runtime.Scope, e *ast.SliceExpression, size int, in, out runtime.Stream) (int, int, error) {
	start, end := 0, size
	if e.Start != nil {
		v, err := i.evalValue(state, scope, e.Start, in, out)
		if err != nil {
			return 0, 0, err
		}
		if start, err = i.listIndex(state, size, v, true); err != nil {
			return 0, 0, err
		}
	}
	if e.End != nil {
		v, err := i.evalValue(state, scope, e.End, in, out)
		if err != nil {
			return 0, 0, err
		}
		if end, err = i.listIndex(state, size, v, true); err != nil {
			return 0, 0, err
		}
	}
	if start > end {
		return 0, 0, i.outOfBounds(state, "illegal slice: start %d is after end %d", start, end)
	}
	return start, end, nil
}

func (i *Interpreter) evalSlice(state *evalState, scope *runtime.Scope, e *ast.SliceExpression, in, out runtime.Stream) (runtime.Value, error) {
	container, err := i.evalValue(state, scope, e.Sub, in, out)
	if err != nil {
		return nil, err
	}
	switch c := container.(type) {
	case *runtime.ListValue:
		elems := c.Elements()
		start, end, err := i.sliceBounds(state, scope, e, len(elems), in, out)
		if err != nil {
			return nil, err
		}
		return runtime.NewList(append([]runtime.Value(nil), elems[start:end]...)), nil
	case runtime.StringValue:
		runes := []rune(c.Val)
		start, end, err := i.sliceBounds(state, scope, e, len(runes), in, out)
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: string(runes[start:end])}, nil
	default:
		return nil, i.typeMismatch(state, "can't slice a %s", runtime.TypeName(container))
	}
}

func (i *Interpreter) evalContains(state *evalState, scope *runtime.Scope, e *ast.ContainsExpression, in, out runtime.Stream) (runtime.Value, error) {
	container, index, err := i.evalPair(state, scope, e.Sub, e.Index, in, out)
	if err != nil {
		return nil, err
	}
	switch c := container.(type) {
	case *runtime.ListValue:
		n, ok := index.(runtime.IntegerValue)
		if !ok {
			return nil, i.typeMismatch(state, "index must be an integer, got %s", runtime.TypeName(index))
		}
		idx, size := int(n.Val), c.Len()
		if idx < 0 {
			idx += size
		}
		return runtime.BooleanValue{Val: idx >= 0 && idx < size}, nil
	case *runtime.MapValue:
		key, ok := index.(runtime.StringValue)
		if !ok {
			return nil, i.typeMismatch(state, "map key must be a string, got %s", runtime.TypeName(index))
		}
		_, found := c.Get(key.Val)
		return runtime.BooleanValue{Val: found}, nil
	default:
		return nil, i.typeMismatch(state, "can't index a %s", runtime.TypeName(container))
	}
}

func (i *Interpreter) getField(state *evalState, sub runtime.Value, field string) (runtime.Value, error) {
	switch s := sub.(type) {
	case *runtime.RecordInstanceValue:
		v, ok := s.Field(field)
		if !ok {
			return nil, i.unknownName(state, "field '%s' not found", field)
		}
		return v, nil
	case runtime.NamespaceValue:
		return i.resolveVariable(state, s.Scope, field)
	default:
		return nil, i.typeMismatch(state, "can't get field '%s' of a %s", field, runtime.TypeName(sub))
	}
}

func (i *Interpreter) contains(state *evalState, container, item runtime.Value) (runtime.Value, error) {
	switch c := container.(type) {
	case *runtime.ListValue:
		for _, el := range c.Elements() {
			if runtime.Equal(el, item) {
				return runtime.BooleanValue{Val: true}, nil
			}
		}
		return runtime.BooleanValue{Val: false}, nil
	case *runtime.MapValue:
		key, ok := item.(runtime.StringValue)
		if !ok {
			return nil, i.typeMismatch(state, "map key must be a string, got %s", runtime.TypeName(item))
		}
		_, found := c.Get(key.Val)
		return runtime.BooleanValue{Val: found}, nil
	default:
		return nil, i.typeMismatch(state, "'in' requires a list or a map, got %s", runtime.TypeName(container))
	}
}

// concat joins two lists into a new one; anything else concatenates as
// text.
func concat(l, r runtime.Value) runtime.Value {
	ll, lok := l.(*runtime.ListValue)
	rl, rok := r.(*runtime.ListValue)
	if lok && rok {
		return runtime.NewList(append(ll.Elements(), rl.Elements()...))
	}
	return runtime.StringValue{Val: runtime.Stringify(l) + runtime.Stringify(r)}
}

// concatChildren distributes concatenation over list operands: two lists
// yield every pairing, a list and a scalar pair each element with the
// scalar, and two scalars concatenate as text.
func concatChildren(l, r runtime.Value) runtime.Value {
	ll, lok := l.(*runtime.ListValue)
	rl, rok := r.(*runtime.ListValue)
	var out []runtime.Value
	switch {
	case lok && rok:
		for _, a := range ll.Elements() {
			for _, b := range rl.Elements() {
				out = append(out, concatChildren(a, b))
			}
		}
	case lok:
		for _, a := range ll.Elements() {
			out = append(out, concatChildren(a, r))
		}
	case rok:
		for _, b := range rl.Elements() {
			out = append(out, concatChildren(l, b))
		}
	default:
		return runtime.StringValue{Val: runtime.Stringify(l) + runtime.Stringify(r)}
	}
	return runtime.NewList(out)
}

func (i *Interpreter) join(state *evalState, l, r runtime.Value) (runtime.Value, error) {
	list, ok := l.(*runtime.ListValue)
	if !ok {
		return nil, i.typeMismatch(state, "can't join a %s", runtime.TypeName(l))
	}
	sep, ok := r.(runtime.StringValue)
	if !ok {
		return nil, i.typeMismatch(state, "join separator must be a string, got %s", runtime.TypeName(r))
	}
	elems := list.Elements()
	parts := make([]string, len(elems))
	for idx, el := range elems {
		parts[idx] = runtime.Stringify(el)
	}
	return runtime.StringValue{Val: strings.Join(parts, sep.Val)}, nil
}
