package ast

import (
	"fmt"
	"strings"
)

// Position locates a node in its source file.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("<unknown>:%d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Datatype is a type reference: a name with optional type arguments.
type Datatype struct {
	Name     string
	Subtypes []*Datatype
}

func (d *Datatype) String() string {
	if d == nil {
		return "<nil>"
	}
	if len(d.Subtypes) == 0 {
		return d.Name
	}
	parts := make([]string, len(d.Subtypes))
	for i, sub := range d.Subtypes {
		parts[i] = sub.String()
	}
	return d.Name + "<" + strings.Join(parts, ", ") + ">"
}

// Program is the unit handed to the interpreter loader.
type Program struct {
	PreBlocks  [][]*Statement
	Functions  []*Function
	Records    []*Record
	PostBlocks [][]*Statement
}

// Function is a named function declaration or an anonymous block.
type Function struct {
	Name         string
	TypeParams   []string
	Parameters   []*Parameter
	KwParameters []*Parameter
	IsVarargs    bool
	Body         []*Statement
	Pos          Position
}

// Parameter describes a positional or keyword parameter. Keyword parameters
// always carry a Default expression.
type Parameter struct {
	Name      string
	Reference bool
	Type      *Datatype
	Default   Expression
}

// Annotation is an @name(args) attached to a record or a field. Namespace
// holds the leading namespace path when the annotation is qualified.
type Annotation struct {
	Namespace []string
	Name      string
	Arguments *Arguments
	Pos       Position
}

// SuperExpression applies a supertype with constructor arguments.
type SuperExpression struct {
	Type *Datatype
	Args []Expression
}

type Field struct {
	Name        string
	Type        *Datatype
	Default     Expression
	Annotations []*Annotation
}

// Record is a nominal record declaration.
type Record struct {
	Name        string
	TypeParams  []string
	Params      []*Parameter
	SuperTypes  []*SuperExpression
	Annotations []*Annotation
	Fields      []*Field
	IsValueType bool
	Pos         Position
}

// Statement is a pipeline: one or more commands joined by pipes.
type Statement struct {
	Commands []*Command
}

type Arguments struct {
	Positional []*Argument
	Keyword    []*KwArgument
}

// Argument is a positional argument; Flattened arguments splice a list.
type Argument struct {
	Flattened bool
	Expr      Expression
}

type KwArgument struct {
	Name string
	Expr Expression
}

// CommandType distinguishes command forms.
type CommandType int

const (
	CommandNormal CommandType = iota
	CommandVariable
	CommandDel
	CommandIf
	CommandWhile
	CommandFor
	CommandTry
	CommandTryDo
	CommandReturn
	CommandBreak
	CommandContinue
	CommandExpression
)

func (t CommandType) String() string {
	switch t {
	case CommandNormal:
		return "normal"
	case CommandVariable:
		return "variable"
	case CommandDel:
		return "del"
	case CommandIf:
		return "if"
	case CommandWhile:
		return "while"
	case CommandFor:
		return "for"
	case CommandTry:
		return "try"
	case CommandTryDo:
		return "try-do"
	case CommandReturn:
		return "return"
	case CommandBreak:
		return "break"
	case CommandContinue:
		return "continue"
	case CommandExpression:
		return "expression"
	default:
		return fmt.Sprintf("CommandType(%d)", int(t))
	}
}

// Command is one stage of a pipeline. Which fields are meaningful depends on
// Type:
//
//	Normal:     Name, TypeArguments, Arguments
//	Variable:   Name (the target), Operator, Arguments
//	Del:        Name (element or slice target)
//	If/While:   Negation, Cond, Body, ElseBody
//	For:        Variables, List (nil for the streaming form), Cond (guard), Body
//	Try:        Cmd
//	TryDo:      Body, CatchVariable, CatchBody
//	Return:     Arguments
//	Expression: Name
type Command struct {
	Type          CommandType
	Name          Expression
	TypeArguments []*Datatype
	Operator      string
	Arguments     *Arguments
	Negation      bool
	Cond          *Statement
	Variables     []string
	List          Expression
	Body          []*Statement
	ElseBody      []*Statement
	CatchVariable string
	CatchBody     []*Statement
	Cmd           *Command
	Pos           Position
}
