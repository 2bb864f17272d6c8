package interpreter

import (
	"math"
	"regexp"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

func (i *Interpreter) unaryOp(state *evalState, op ast.UnaryOp, v runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.UnaryNot:
		b, ok := v.(runtime.BooleanValue)
		if !ok {
			return nil, i.typeMismatch(state, "tried to NOT a %s", runtime.TypeName(v))
		}
		return runtime.BooleanValue{Val: !b.Val}, nil
	case ast.UnaryNeg:
		switch n := v.(type) {
		case runtime.IntegerValue:
			return runtime.IntegerValue{Val: -n.Val}, nil
		case runtime.FloatValue:
			return runtime.FloatValue{Val: -n.Val}, nil
		}
		return nil, i.typeMismatch(state, "tried to NEG a %s", runtime.TypeName(v))
	case ast.UnaryBNot:
		n, ok := v.(runtime.IntegerValue)
		if !ok {
			return nil, i.typeMismatch(state, "tried to BNOT a %s", runtime.TypeName(v))
		}
		return runtime.IntegerValue{Val: ^n.Val}, nil
	default:
		return nil, i.plainError(state, "unknown unary operator %s", op)
	}
}

func (i *Interpreter) evalBinary(state *evalState, scope *runtime.Scope, e *ast.BinaryExpression, in, out runtime.Stream) (runtime.Value, error) {
	left, err := i.evalValue(state, scope, e.Left, in, out)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpAnd, ast.OpOr:
		lb, ok := left.(runtime.BooleanValue)
		if !ok {
			return nil, i.typeMismatch(state, "tried to %s a %s", e.Op, runtime.TypeName(left))
		}
		if (e.Op == ast.OpAnd && !lb.Val) || (e.Op == ast.OpOr && lb.Val) {
			return lb, nil
		}
		right, err := i.evalValue(state, scope, e.Right, in, out)
		if err != nil {
			return nil, err
		}
		rb, ok := right.(runtime.BooleanValue)
		if !ok {
			return nil, i.typeMismatch(state, "tried to %s a %s", e.Op, runtime.TypeName(right))
		}
		return rb, nil
	}
	right, err := i.evalValue(state, scope, e.Right, in, out)
	if err != nil {
		return nil, err
	}
	return i.binaryOp(state, e.Op, left, right)
}

// binaryOp applies a non-short-circuiting operator.
func (i *Interpreter) binaryOp(state *evalState, op ast.BinaryOp, left, right runtime.Value) (runtime.Value, error) {
	switch op {
	case ast.OpEq:
		return runtime.BooleanValue{Val: runtime.Equal(left, right)}, nil
	case ast.OpNeq:
		return runtime.BooleanValue{Val: !runtime.Equal(left, right)}, nil
	case ast.OpXor:
		lb, lok := left.(runtime.BooleanValue)
		rb, rok := right.(runtime.BooleanValue)
		if !lok || !rok {
			return nil, i.typeMismatch(state, "tried to XOR a %s and a %s", runtime.TypeName(left), runtime.TypeName(right))
		}
		return runtime.BooleanValue{Val: lb.Val != rb.Val}, nil
	case ast.OpMatches, ast.OpNotMatches:
		return i.match(state, op, left, right)
	case ast.OpBAnd, ast.OpBOr, ast.OpBXor, ast.OpBLShift, ast.OpBRShift, ast.OpBRRShift:
		return i.bitwise(state, op, left, right)
	case ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe:
		return i.compare(state, op, left, right)
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpIntDiv, ast.OpMod:
		return i.arithmetic(state, op, left, right)
	default:
		return nil, i.plainError(state, "unknown operator %s", op)
	}
}

func (i *Interpreter) arithmetic(state *evalState, op ast.BinaryOp, left, right runtime.Value) (runtime.Value, error) {
	li, lint := left.(runtime.IntegerValue)
	ri, rint := right.(runtime.IntegerValue)
	if lint && rint {
		a, b := li.Val, ri.Val
		switch op {
		case ast.OpAdd:
			return runtime.IntegerValue{Val: a + b}, nil
		case ast.OpSub:
			return runtime.IntegerValue{Val: a - b}, nil
		case ast.OpMul:
			return runtime.IntegerValue{Val: a * b}, nil
		}
		if b == 0 {
			return nil, i.illegalArguments(state, "division by zero")
		}
		switch op {
		case ast.OpDiv, ast.OpIntDiv:
			return runtime.IntegerValue{Val: a / b}, nil
		default:
			return runtime.IntegerValue{Val: a % b}, nil
		}
	}
	a, aok := toFloat(left)
	b, bok := toFloat(right)
	if !aok || !bok {
		return nil, i.typeMismatch(state, "tried to %s a %s and a %s", op, runtime.TypeName(left), runtime.TypeName(right))
	}
	switch op {
	case ast.OpAdd:
		return runtime.FloatValue{Val: a + b}, nil
	case ast.OpSub:
		return runtime.FloatValue{Val: a - b}, nil
	case ast.OpMul:
		return runtime.FloatValue{Val: a * b}, nil
	}
	if b == 0 {
		return nil, i.illegalArguments(state, "division by zero")
	}
	switch op {
	case ast.OpDiv:
		return runtime.FloatValue{Val: a / b}, nil
	case ast.OpIntDiv:
		return runtime.IntegerValue{Val: int64(math.Floor(a / b))}, nil
	default:
		return runtime.FloatValue{Val: math.Mod(a, b)}, nil
	}
}

func toFloat(v runtime.Value) (float64, bool) {
	switch n := v.(type) {
	case runtime.IntegerValue:
		return float64(n.Val), true
	case runtime.FloatValue:
		return n.Val, true
	}
	return 0, false
}

func (i *Interpreter) bitwise(state *evalState, op ast.BinaryOp, left, right runtime.Value) (runtime.Value, error) {
	li, lok := left.(runtime.IntegerValue)
	ri, rok := right.(runtime.IntegerValue)
	if !lok || !rok {
		return nil, i.typeMismatch(state, "tried to %s a %s and a %s", op, runtime.TypeName(left), runtime.TypeName(right))
	}
	a, b := li.Val, ri.Val
	switch op {
	case ast.OpBAnd:
		return runtime.IntegerValue{Val: a & b}, nil
	case ast.OpBOr:
		return runtime.IntegerValue{Val: a | b}, nil
	case ast.OpBXor:
		return runtime.IntegerValue{Val: a ^ b}, nil
	}
	if b < 0 {
		return nil, i.illegalArguments(state, "negative shift count %d", b)
	}
	switch op {
	case ast.OpBLShift:
		return runtime.IntegerValue{Val: a << uint64(b)}, nil
	case ast.OpBRShift:
		return runtime.IntegerValue{Val: a >> uint64(b)}, nil
	default:
		return runtime.IntegerValue{Val: int64(uint64(a) >> uint64(b))}, nil
	}
}

func (i *Interpreter) compare(state *evalState, op ast.BinaryOp, left, right runtime.Value) (runtime.Value, error) {
	var c int
	ls, lstr := left.(runtime.StringValue)
	rs, rstr := right.(runtime.StringValue)
	switch {
	case lstr && rstr:
		switch {
		case ls.Val < rs.Val:
			c = -1
		case ls.Val > rs.Val:
			c = 1
		}
	default:
		a, aok := toFloat(left)
		b, bok := toFloat(right)
		if !aok || !bok {
			return nil, i.typeMismatch(state, "can't compare a %s and a %s", runtime.TypeName(left), runtime.TypeName(right))
		}
		li, lint := left.(runtime.IntegerValue)
		ri, rint := right.(runtime.IntegerValue)
		switch {
		case lint && rint && li.Val < ri.Val, !(lint && rint) && a < b:
			c = -1
		case lint && rint && li.Val > ri.Val, !(lint && rint) && a > b:
			c = 1
		}
	}
	var result bool
	switch op {
	case ast.OpLt:
		result = c < 0
	case ast.OpGt:
		result = c > 0
	case ast.OpLe:
		result = c <= 0
	default:
		result = c >= 0
	}
	return runtime.BooleanValue{Val: result}, nil
}

// match reports whether the whole of left matches the pattern right.
func (i *Interpreter) match(state *evalState, op ast.BinaryOp, left, right runtime.Value) (runtime.Value, error) {
	s, sok := left.(runtime.StringValue)
	p, pok := right.(runtime.StringValue)
	if !sok || !pok {
		return nil, i.typeMismatch(state, "tried to MATCH a %s and a %s", runtime.TypeName(left), runtime.TypeName(right))
	}
	re, err := i.compilePattern(state, `^(?:`+p.Val+`)$`)
	if err != nil {
		return nil, err
	}
	matched := re.MatchString(s.Val)
	if op == ast.OpNotMatches {
		matched = !matched
	}
	return runtime.BooleanValue{Val: matched}, nil
}

func (i *Interpreter) compilePattern(state *evalState, pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, i.plainError(state, "pattern syntax exception: %v", err)
	}
	return re, nil
}
