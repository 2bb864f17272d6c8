package ast

// Literal and variable helpers.

func Var(name string) *Variable {
	return &Variable{Name: name}
}

func Str(value string) *StringLiteral {
	return &StringLiteral{Value: value}
}

func Int(value int64) *IntegerLiteral {
	return &IntegerLiteral{Value: value}
}

func Flt(value float64) *FloatLiteral {
	return &FloatLiteral{Value: value}
}

func Bool(value bool) *BooleanLiteral {
	return &BooleanLiteral{Value: value}
}

func List(elements ...Expression) *ListLiteral {
	return &ListLiteral{Elements: elements}
}

// Type helpers.

func Ty(name string, subtypes ...*Datatype) *Datatype {
	return &Datatype{Name: name, Subtypes: subtypes}
}

// Expression helpers.

func Block(fn *Function) *BlockExpression {
	return &BlockExpression{Function: fn}
}

func Reflect(typ *Datatype) *ReflectExpression {
	return &ReflectExpression{Type: typ}
}

func TypeOf(expr Expression) *TypeOfExpression {
	return &TypeOfExpression{Expr: expr}
}

func New(typ *Datatype, args ...Expression) *NewExpression {
	return &NewExpression{Type: typ, Args: args}
}

func Len(sub Expression) *LengthExpression {
	return &LengthExpression{Sub: sub}
}

func Elem(sub, index Expression) *ElementExpression {
	return &ElementExpression{Sub: sub, Index: index}
}

func Slice(sub, start, end Expression) *SliceExpression {
	return &SliceExpression{Sub: sub, Start: start, End: end}
}

func Contains(sub, index Expression) *ContainsExpression {
	return &ContainsExpression{Sub: sub, Index: index}
}

func Fld(sub Expression, field string) *FieldExpression {
	return &FieldExpression{Sub: sub, Field: field}
}

func Concat(left, right Expression) *ConcatExpression {
	return &ConcatExpression{Left: left, Right: right}
}

func ConcatChildren(left, right Expression) *ConcatChildrenExpression {
	return &ConcatChildrenExpression{Left: left, Right: right}
}

func Join(left, right Expression) *JoinExpression {
	return &JoinExpression{Left: left, Right: right}
}

func Is(expr Expression, typ *Datatype) *IsExpression {
	return &IsExpression{Expr: expr, Type: typ}
}

func In(left, right Expression) *InExpression {
	return &InExpression{Left: left, Right: right}
}

func StmtList(stmt *Statement) *StatementListExpression {
	return &StatementListExpression{Statement: stmt}
}

func StmtSingle(stmt *Statement) *StatementSingleExpression {
	return &StatementSingleExpression{Statement: stmt}
}

func Un(op UnaryOp, operand Expression) *UnaryExpression {
	return &UnaryExpression{Op: op, Operand: operand}
}

func Bin(op BinaryOp, left, right Expression) *BinaryExpression {
	return &BinaryExpression{Op: op, Left: left, Right: right}
}

// Declaration helpers.

func Fn(name string, params []*Parameter, body ...*Statement) *Function {
	return &Function{Name: name, Parameters: params, Body: body}
}

func Lambda(params []*Parameter, body ...*Statement) *BlockExpression {
	return Block(Fn("", params, body...))
}

func Params(params ...*Parameter) []*Parameter {
	return params
}

func Param(name string) *Parameter {
	return &Parameter{Name: name}
}

func TypedParam(name string, typ *Datatype) *Parameter {
	return &Parameter{Name: name, Type: typ}
}

func RefParam(name string) *Parameter {
	return &Parameter{Name: name, Reference: true}
}

func KwParam(name string, def Expression) *Parameter {
	return &Parameter{Name: name, Default: def}
}

func Rec(name string, fields ...*Field) *Record {
	return &Record{Name: name, Fields: fields}
}

func RecField(name string, typ *Datatype, def Expression) *Field {
	return &Field{Name: name, Type: typ, Default: def}
}

func Super(typ *Datatype, args ...Expression) *SuperExpression {
	return &SuperExpression{Type: typ, Args: args}
}

func Annot(name string, args ...Expression) *Annotation {
	return &Annotation{Name: name, Arguments: Args(args...)}
}

// Statement and command helpers.

func Stmt(commands ...*Command) *Statement {
	return &Statement{Commands: commands}
}

func Body(stmts ...*Statement) []*Statement {
	return stmts
}

func Args(exprs ...Expression) *Arguments {
	args := &Arguments{Positional: make([]*Argument, 0, len(exprs))}
	for _, e := range exprs {
		args.Positional = append(args.Positional, &Argument{Expr: e})
	}
	return args
}

func Flat(expr Expression) *Argument {
	return &Argument{Flattened: true, Expr: expr}
}

func Call(name string, args ...Expression) *Command {
	return &Command{Type: CommandNormal, Name: Var(name), Arguments: Args(args...)}
}

func CallExpr(callee Expression, args *Arguments) *Command {
	return &Command{Type: CommandNormal, Name: callee, Arguments: args}
}

func Kw(name string, expr Expression) *KwArgument {
	return &KwArgument{Name: name, Expr: expr}
}

func VarCmd(target Expression, op string, args ...Expression) *Command {
	return &Command{Type: CommandVariable, Name: target, Operator: op, Arguments: Args(args...)}
}

func Define(name string, value Expression) *Command {
	return VarCmd(Var(name), ":=", value)
}

func Set(name string, value Expression) *Command {
	return VarCmd(Var(name), "=", value)
}

func Del(target Expression) *Command {
	return &Command{Type: CommandDel, Name: target}
}

func If(cond *Statement, body []*Statement, elseBody []*Statement) *Command {
	return &Command{Type: CommandIf, Cond: cond, Body: body, ElseBody: elseBody}
}

func Unless(cond *Statement, body []*Statement, elseBody []*Statement) *Command {
	cmd := If(cond, body, elseBody)
	cmd.Negation = true
	return cmd
}

func While(cond *Statement, body ...*Statement) *Command {
	return &Command{Type: CommandWhile, Cond: cond, Body: body}
}

func Until(cond *Statement, body ...*Statement) *Command {
	cmd := While(cond, body...)
	cmd.Negation = true
	return cmd
}

func For(variables []string, list Expression, body ...*Statement) *Command {
	return &Command{Type: CommandFor, Variables: variables, List: list, Body: body}
}

func ForStream(variables []string, body ...*Statement) *Command {
	return &Command{Type: CommandFor, Variables: variables, Body: body}
}

func Try(cmd *Command) *Command {
	return &Command{Type: CommandTry, Cmd: cmd}
}

func TryDo(body []*Statement, catchVariable string, catchBody ...*Statement) *Command {
	return &Command{Type: CommandTryDo, Body: body, CatchVariable: catchVariable, CatchBody: catchBody}
}

func Return(args ...Expression) *Command {
	return &Command{Type: CommandReturn, Arguments: Args(args...)}
}

func Break() *Command {
	return &Command{Type: CommandBreak}
}

func Continue() *Command {
	return &Command{Type: CommandContinue}
}

func ExprCmd(expr Expression) *Command {
	return &Command{Type: CommandExpression, Name: expr}
}
