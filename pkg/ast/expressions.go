package ast

import (
	"strconv"
	"strings"
)

// Expression is any node that evaluates to a value.
type Expression interface {
	Position() Position
	String() string
	expressionNode()
}

// Node carries the position shared by every expression.
type Node struct {
	Pos Position
}

func (n Node) Position() Position { return n.Pos }
func (Node) expressionNode()      {}

type Variable struct {
	Node
	Name string
}

func (v *Variable) String() string { return v.Name }

type StringLiteral struct {
	Node
	Value string
}

func (s *StringLiteral) String() string { return strconv.Quote(s.Value) }

type IntegerLiteral struct {
	Node
	Value int64
}

func (i *IntegerLiteral) String() string { return strconv.FormatInt(i.Value, 10) }

type FloatLiteral struct {
	Node
	Value float64
}

func (f *FloatLiteral) String() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }

type BooleanLiteral struct {
	Node
	Value bool
}

func (b *BooleanLiteral) String() string { return strconv.FormatBool(b.Value) }

// BlockExpression is an anonymous function literal.
type BlockExpression struct {
	Node
	Function *Function
}

func (b *BlockExpression) String() string { return "{...}" }

type ListLiteral struct {
	Node
	Elements []Expression
}

func (l *ListLiteral) String() string { return "(" + joinExpressions(l.Elements, " ") + ")" }

type ReflectExpression struct {
	Node
	Type *Datatype
}

func (r *ReflectExpression) String() string { return "reflect " + r.Type.String() }

type TypeOfExpression struct {
	Node
	Expr Expression
}

func (t *TypeOfExpression) String() string { return "typeof " + t.Expr.String() }

type NewExpression struct {
	Node
	Type *Datatype
	Args []Expression
}

func (n *NewExpression) String() string {
	return "new " + n.Type.String() + "(" + joinExpressions(n.Args, ", ") + ")"
}

type LengthExpression struct {
	Node
	Sub Expression
}

func (l *LengthExpression) String() string { return "#" + l.Sub.String() }

type ElementExpression struct {
	Node
	Sub   Expression
	Index Expression
}

func (e *ElementExpression) String() string { return e.Sub.String() + "[" + e.Index.String() + "]" }

// SliceExpression selects Start up to End; either bound may be nil.
type SliceExpression struct {
	Node
	Sub   Expression
	Start Expression
	End   Expression
}

func (s *SliceExpression) String() string {
	start, end := "", ""
	if s.Start != nil {
		start = s.Start.String()
	}
	if s.End != nil {
		end = s.End.String()
	}
	return s.Sub.String() + "[" + start + ":" + end + "]"
}

type ContainsExpression struct {
	Node
	Sub   Expression
	Index Expression
}

func (c *ContainsExpression) String() string {
	return c.Sub.String() + "[" + c.Index.String() + "]?"
}

type FieldExpression struct {
	Node
	Sub   Expression
	Field string
}

func (f *FieldExpression) String() string { return f.Sub.String() + "." + f.Field }

type ConcatExpression struct {
	Node
	Left  Expression
	Right Expression
}

func (c *ConcatExpression) String() string { return c.Left.String() + ".." + c.Right.String() }

// ConcatChildrenExpression concatenates every element of Left with every
// element of Right.
type ConcatChildrenExpression struct {
	Node
	Left  Expression
	Right Expression
}

func (c *ConcatChildrenExpression) String() string {
	return c.Left.String() + "..." + c.Right.String()
}

type JoinExpression struct {
	Node
	Left  Expression
	Right Expression
}

func (j *JoinExpression) String() string { return j.Left.String() + "&" + j.Right.String() }

type IsExpression struct {
	Node
	Expr Expression
	Type *Datatype
}

func (i *IsExpression) String() string { return i.Expr.String() + " is " + i.Type.String() }

type InExpression struct {
	Node
	Left  Expression
	Right Expression
}

func (i *InExpression) String() string { return i.Left.String() + " in " + i.Right.String() }

// StatementListExpression collects every value a statement pushes.
type StatementListExpression struct {
	Node
	Statement *Statement
}

func (s *StatementListExpression) String() string { return "[...]" }

// StatementSingleExpression requires the statement to push exactly one value.
type StatementSingleExpression struct {
	Node
	Statement *Statement
}

func (s *StatementSingleExpression) String() string { return "!(...)" }

type UnaryOp string

const (
	UnaryNot  UnaryOp = "!"
	UnaryNeg  UnaryOp = "-"
	UnaryBNot UnaryOp = "~"
)

type UnaryExpression struct {
	Node
	Op      UnaryOp
	Operand Expression
}

func (u *UnaryExpression) String() string { return string(u.Op) + u.Operand.String() }

type BinaryOp string

const (
	OpMul        BinaryOp = "*"
	OpDiv        BinaryOp = "/"
	OpIntDiv     BinaryOp = "//"
	OpMod        BinaryOp = "%"
	OpAdd        BinaryOp = "+"
	OpSub        BinaryOp = "-"
	OpBAnd       BinaryOp = "b_and"
	OpBOr        BinaryOp = "b_or"
	OpBXor       BinaryOp = "b_xor"
	OpBRShift    BinaryOp = ">>"
	OpBRRShift   BinaryOp = ">>>"
	OpBLShift    BinaryOp = "<<"
	OpEq         BinaryOp = "=="
	OpNeq        BinaryOp = "!="
	OpMatches    BinaryOp = "=~"
	OpNotMatches BinaryOp = "!~"
	OpLt         BinaryOp = "<"
	OpGt         BinaryOp = ">"
	OpLe         BinaryOp = "<="
	OpGe         BinaryOp = ">="
	OpAnd        BinaryOp = "and"
	OpOr         BinaryOp = "or"
	OpXor        BinaryOp = "xor"
)

type BinaryExpression struct {
	Node
	Op    BinaryOp
	Left  Expression
	Right Expression
}

func (b *BinaryExpression) String() string {
	return b.Left.String() + " " + string(b.Op) + " " + b.Right.String()
}

func joinExpressions(exprs []Expression, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}
