package ast

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeProgram decodes a serialized program. JSON documents are accepted as
// well since they are valid YAML.
func DecodeProgram(data []byte) (*Program, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	if raw == nil {
		return &Program{}, nil
	}
	return decodeProgram(raw)
}

// DecodeStatement decodes a single serialized statement.
func DecodeStatement(data []byte) (*Statement, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode statement: %w", err)
	}
	return decodeStatement(raw)
}

func decodeProgram(node map[string]any) (*Program, error) {
	prog := &Program{}
	var err error
	if prog.PreBlocks, err = decodeBlocks(node["preBlocks"]); err != nil {
		return nil, fmt.Errorf("preBlocks: %w", err)
	}
	if prog.PostBlocks, err = decodeBlocks(node["postBlocks"]); err != nil {
		return nil, fmt.Errorf("postBlocks: %w", err)
	}
	for _, raw := range asList(node["functions"]) {
		fnNode, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid function node %T", raw)
		}
		fn, err := decodeFunction(fnNode)
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	for _, raw := range asList(node["records"]) {
		recNode, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid record node %T", raw)
		}
		rec, err := decodeRecord(recNode)
		if err != nil {
			return nil, err
		}
		prog.Records = append(prog.Records, rec)
	}
	return prog, nil
}

func decodeBlocks(raw any) ([][]*Statement, error) {
	var blocks [][]*Statement
	for _, block := range asList(raw) {
		stmts, err := decodeStatements(block)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, stmts)
	}
	return blocks, nil
}

func decodeFunction(node map[string]any) (*Function, error) {
	fn := &Function{
		Name:       asString(node["name"]),
		TypeParams: asStrings(node["typeParams"]),
		Pos:        decodePosition(node),
	}
	fn.IsVarargs, _ = node["varargs"].(bool)
	var err error
	if fn.Parameters, err = decodeParameters(node["parameters"]); err != nil {
		return nil, fmt.Errorf("function %s: %w", fn.Name, err)
	}
	if fn.KwParameters, err = decodeParameters(node["kwParameters"]); err != nil {
		return nil, fmt.Errorf("function %s: %w", fn.Name, err)
	}
	if fn.Body, err = decodeStatements(node["body"]); err != nil {
		return nil, fmt.Errorf("function %s: %w", fn.Name, err)
	}
	return fn, nil
}

func decodeParameters(raw any) ([]*Parameter, error) {
	var params []*Parameter
	for _, item := range asList(raw) {
		switch p := item.(type) {
		case string:
			params = append(params, &Parameter{Name: p})
		case map[string]any:
			param := &Parameter{Name: asString(p["name"])}
			param.Reference, _ = p["reference"].(bool)
			if typRaw, ok := p["datatype"]; ok {
				typ, err := decodeDatatype(typRaw)
				if err != nil {
					return nil, err
				}
				param.Type = typ
			}
			if defRaw, ok := p["default"]; ok {
				def, err := decodeExpression(defRaw)
				if err != nil {
					return nil, err
				}
				param.Default = def
			}
			params = append(params, param)
		default:
			return nil, fmt.Errorf("invalid parameter %T", item)
		}
	}
	return params, nil
}

func decodeRecord(node map[string]any) (*Record, error) {
	rec := &Record{
		Name:       asString(node["name"]),
		TypeParams: asStrings(node["typeParams"]),
		Pos:        decodePosition(node),
	}
	rec.IsValueType, _ = node["valueType"].(bool)
	var err error
	if rec.Params, err = decodeParameters(node["params"]); err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	if rec.Annotations, err = decodeAnnotations(node["annotations"]); err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.Name, err)
	}
	for _, raw := range asList(node["superTypes"]) {
		superNode, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %s: invalid supertype %T", rec.Name, raw)
		}
		typ, err := decodeDatatype(superNode["datatype"])
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.Name, err)
		}
		args, err := decodeExpressions(superNode["args"])
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.Name, err)
		}
		rec.SuperTypes = append(rec.SuperTypes, &SuperExpression{Type: typ, Args: args})
	}
	for _, raw := range asList(node["fields"]) {
		fieldNode, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %s: invalid field %T", rec.Name, raw)
		}
		field := &Field{Name: asString(fieldNode["name"])}
		if field.Type, err = decodeDatatype(fieldNode["datatype"]); err != nil {
			return nil, fmt.Errorf("record %s field %s: %w", rec.Name, field.Name, err)
		}
		if defRaw, ok := fieldNode["default"]; ok {
			if field.Default, err = decodeExpression(defRaw); err != nil {
				return nil, fmt.Errorf("record %s field %s: %w", rec.Name, field.Name, err)
			}
		}
		if field.Annotations, err = decodeAnnotations(fieldNode["annotations"]); err != nil {
			return nil, fmt.Errorf("record %s field %s: %w", rec.Name, field.Name, err)
		}
		rec.Fields = append(rec.Fields, field)
	}
	return rec, nil
}

func decodeAnnotations(raw any) ([]*Annotation, error) {
	var annotations []*Annotation
	for _, item := range asList(raw) {
		node, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid annotation %T", item)
		}
		args, err := decodeArguments(node["arguments"])
		if err != nil {
			return nil, err
		}
		annotations = append(annotations, &Annotation{
			Namespace: asStrings(node["namespace"]),
			Name:      asString(node["name"]),
			Arguments: args,
			Pos:       decodePosition(node),
		})
	}
	return annotations, nil
}

func decodeStatements(raw any) ([]*Statement, error) {
	var stmts []*Statement
	for _, item := range asList(raw) {
		stmt, err := decodeStatement(item)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// decodeStatement accepts either {commands: [...]} or a bare command node.
func decodeStatement(raw any) (*Statement, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid statement %T", raw)
	}
	cmdsRaw, ok := node["commands"]
	if !ok {
		cmd, err := decodeCommand(node)
		if err != nil {
			return nil, err
		}
		return &Statement{Commands: []*Command{cmd}}, nil
	}
	stmt := &Statement{}
	for _, item := range asList(cmdsRaw) {
		cmdNode, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid command %T", item)
		}
		cmd, err := decodeCommand(cmdNode)
		if err != nil {
			return nil, err
		}
		stmt.Commands = append(stmt.Commands, cmd)
	}
	if len(stmt.Commands) == 0 {
		return nil, fmt.Errorf("statement has no commands")
	}
	return stmt, nil
}

func decodeCommand(node map[string]any) (*Command, error) {
	typ := asString(node["type"])
	cmd := &Command{Pos: decodePosition(node)}
	var err error
	switch typ {
	case "call":
		cmd.Type = CommandNormal
		if cmd.Name, err = decodeCallee(node["name"]); err != nil {
			return nil, err
		}
		for _, raw := range asList(node["typeArguments"]) {
			ta, err := decodeDatatype(raw)
			if err != nil {
				return nil, err
			}
			cmd.TypeArguments = append(cmd.TypeArguments, ta)
		}
		if cmd.Arguments, err = decodeArguments(node["arguments"]); err != nil {
			return nil, err
		}
	case "variable":
		cmd.Type = CommandVariable
		cmd.Operator = asString(node["operator"])
		if cmd.Name, err = decodeCallee(node["name"]); err != nil {
			return nil, err
		}
		if cmd.Arguments, err = decodeArguments(node["arguments"]); err != nil {
			return nil, err
		}
	case "del":
		cmd.Type = CommandDel
		if cmd.Name, err = decodeExpression(node["target"]); err != nil {
			return nil, err
		}
	case "if", "unless", "while", "until":
		cmd.Type = CommandIf
		if typ == "while" || typ == "until" {
			cmd.Type = CommandWhile
		}
		cmd.Negation = typ == "unless" || typ == "until"
		if cmd.Cond, err = decodeStatement(node["cond"]); err != nil {
			return nil, err
		}
		if cmd.Body, err = decodeStatements(node["body"]); err != nil {
			return nil, err
		}
		if elseRaw, ok := node["else"]; ok {
			if cmd.ElseBody, err = decodeStatements(elseRaw); err != nil {
				return nil, err
			}
			if cmd.ElseBody == nil {
				cmd.ElseBody = []*Statement{}
			}
		}
	case "for":
		cmd.Type = CommandFor
		cmd.Variables = asStrings(node["variables"])
		if listRaw, ok := node["list"]; ok {
			if cmd.List, err = decodeExpression(listRaw); err != nil {
				return nil, err
			}
		}
		if condRaw, ok := node["cond"]; ok {
			if cmd.Cond, err = decodeStatement(condRaw); err != nil {
				return nil, err
			}
		}
		if cmd.Body, err = decodeStatements(node["body"]); err != nil {
			return nil, err
		}
	case "try":
		cmd.Type = CommandTry
		inner, ok := node["command"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("try command missing command")
		}
		if cmd.Cmd, err = decodeCommand(inner); err != nil {
			return nil, err
		}
	case "tryDo":
		cmd.Type = CommandTryDo
		cmd.CatchVariable = asString(node["catchVariable"])
		if cmd.Body, err = decodeStatements(node["body"]); err != nil {
			return nil, err
		}
		if cmd.CatchBody, err = decodeStatements(node["catch"]); err != nil {
			return nil, err
		}
	case "return":
		cmd.Type = CommandReturn
		if cmd.Arguments, err = decodeArguments(node["arguments"]); err != nil {
			return nil, err
		}
	case "break":
		cmd.Type = CommandBreak
	case "continue":
		cmd.Type = CommandContinue
	case "expression":
		cmd.Type = CommandExpression
		if cmd.Name, err = decodeExpression(node["expr"]); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported command type %q", typ)
	}
	return cmd, nil
}

// decodeCallee lets a plain string stand for a variable.
func decodeCallee(raw any) (Expression, error) {
	if name, ok := raw.(string); ok {
		return Var(name), nil
	}
	return decodeExpression(raw)
}

func decodeArguments(raw any) (*Arguments, error) {
	args := &Arguments{}
	switch node := raw.(type) {
	case nil:
		return args, nil
	case []any:
		pos, err := decodePositional(node)
		if err != nil {
			return nil, err
		}
		args.Positional = pos
	case map[string]any:
		pos, err := decodePositional(asList(node["positional"]))
		if err != nil {
			return nil, err
		}
		args.Positional = pos
		kw, ok := node["keyword"].(map[string]any)
		if ok {
			for _, name := range sortedKeys(kw) {
				expr, err := decodeExpression(kw[name])
				if err != nil {
					return nil, err
				}
				args.Keyword = append(args.Keyword, &KwArgument{Name: name, Expr: expr})
			}
		}
	default:
		return nil, fmt.Errorf("invalid arguments %T", raw)
	}
	return args, nil
}

func decodePositional(items []any) ([]*Argument, error) {
	out := make([]*Argument, 0, len(items))
	for _, item := range items {
		if node, ok := item.(map[string]any); ok && asString(node["type"]) == "Flatten" {
			expr, err := decodeExpression(node["expr"])
			if err != nil {
				return nil, err
			}
			out = append(out, &Argument{Flattened: true, Expr: expr})
			continue
		}
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		out = append(out, &Argument{Expr: expr})
	}
	return out, nil
}

func decodeExpressions(raw any) ([]Expression, error) {
	var exprs []Expression
	for _, item := range asList(raw) {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

// decodeExpression decodes an expression node. Scalars are shorthand for
// literals.
func decodeExpression(raw any) (Expression, error) {
	switch v := raw.(type) {
	case string:
		return Str(v), nil
	case int:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case float64:
		return Flt(v), nil
	case bool:
		return Bool(v), nil
	case map[string]any:
		expr, err := decodeExpressionNode(v)
		if err != nil {
			return nil, err
		}
		return expr, nil
	case nil:
		return nil, fmt.Errorf("expression node is nil")
	default:
		return nil, fmt.Errorf("invalid expression %T", raw)
	}
}

func decodeExpressionNode(node map[string]any) (Expression, error) {
	typ := asString(node["type"])
	pos := Node{Pos: decodePosition(node)}
	sub := func(key string) (Expression, error) {
		raw, ok := node[key]
		if !ok {
			return nil, fmt.Errorf("%s expression missing %s", typ, key)
		}
		return decodeExpression(raw)
	}
	optional := func(key string) (Expression, error) {
		raw, ok := node[key]
		if !ok || raw == nil {
			return nil, nil
		}
		return decodeExpression(raw)
	}
	pair := func() (Expression, Expression, error) {
		left, err := sub("left")
		if err != nil {
			return nil, nil, err
		}
		right, err := sub("right")
		if err != nil {
			return nil, nil, err
		}
		return left, right, nil
	}
	switch typ {
	case "Variable":
		return &Variable{Node: pos, Name: asString(node["name"])}, nil
	case "String":
		return &StringLiteral{Node: pos, Value: asString(node["value"])}, nil
	case "Integer":
		n, err := asInt(node["value"])
		if err != nil {
			return nil, err
		}
		return &IntegerLiteral{Node: pos, Value: n}, nil
	case "Float":
		f, ok := node["value"].(float64)
		if !ok {
			n, err := asInt(node["value"])
			if err != nil {
				return nil, err
			}
			f = float64(n)
		}
		return &FloatLiteral{Node: pos, Value: f}, nil
	case "Boolean":
		b, _ := node["value"].(bool)
		return &BooleanLiteral{Node: pos, Value: b}, nil
	case "Block":
		fn, err := decodeFunction(node)
		if err != nil {
			return nil, err
		}
		return &BlockExpression{Node: pos, Function: fn}, nil
	case "List":
		elems, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return &ListLiteral{Node: pos, Elements: elems}, nil
	case "Reflect":
		dt, err := decodeDatatype(node["datatype"])
		if err != nil {
			return nil, err
		}
		return &ReflectExpression{Node: pos, Type: dt}, nil
	case "TypeOf":
		e, err := sub("expr")
		if err != nil {
			return nil, err
		}
		return &TypeOfExpression{Node: pos, Expr: e}, nil
	case "New":
		dt, err := decodeDatatype(node["datatype"])
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(node["args"])
		if err != nil {
			return nil, err
		}
		return &NewExpression{Node: pos, Type: dt, Args: args}, nil
	case "Length":
		e, err := sub("sub")
		if err != nil {
			return nil, err
		}
		return &LengthExpression{Node: pos, Sub: e}, nil
	case "Element", "Contains":
		s, err := sub("sub")
		if err != nil {
			return nil, err
		}
		idx, err := sub("index")
		if err != nil {
			return nil, err
		}
		if typ == "Contains" {
			return &ContainsExpression{Node: pos, Sub: s, Index: idx}, nil
		}
		return &ElementExpression{Node: pos, Sub: s, Index: idx}, nil
	case "Slice":
		s, err := sub("sub")
		if err != nil {
			return nil, err
		}
		start, err := optional("start")
		if err != nil {
			return nil, err
		}
		end, err := optional("end")
		if err != nil {
			return nil, err
		}
		return &SliceExpression{Node: pos, Sub: s, Start: start, End: end}, nil
	case "Field":
		s, err := sub("sub")
		if err != nil {
			return nil, err
		}
		return &FieldExpression{Node: pos, Sub: s, Field: asString(node["field"])}, nil
	case "Concat", "ConcatChildren", "Join", "In":
		l, r, err := pair()
		if err != nil {
			return nil, err
		}
		switch typ {
		case "Concat":
			return &ConcatExpression{Node: pos, Left: l, Right: r}, nil
		case "ConcatChildren":
			return &ConcatChildrenExpression{Node: pos, Left: l, Right: r}, nil
		case "Join":
			return &JoinExpression{Node: pos, Left: l, Right: r}, nil
		default:
			return &InExpression{Node: pos, Left: l, Right: r}, nil
		}
	case "Is":
		e, err := sub("expr")
		if err != nil {
			return nil, err
		}
		dt, err := decodeDatatype(node["datatype"])
		if err != nil {
			return nil, err
		}
		return &IsExpression{Node: pos, Expr: e, Type: dt}, nil
	case "StatementList", "StatementSingle":
		stmt, err := decodeStatement(node["statement"])
		if err != nil {
			return nil, err
		}
		if typ == "StatementList" {
			return &StatementListExpression{Node: pos, Statement: stmt}, nil
		}
		return &StatementSingleExpression{Node: pos, Statement: stmt}, nil
	case "Unary":
		operand, err := sub("operand")
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{Node: pos, Op: UnaryOp(asString(node["operator"])), Operand: operand}, nil
	case "Binary":
		l, r, err := pair()
		if err != nil {
			return nil, err
		}
		return &BinaryExpression{Node: pos, Op: BinaryOp(asString(node["operator"])), Left: l, Right: r}, nil
	default:
		return nil, fmt.Errorf("unsupported expression type %q", typ)
	}
}

func decodeDatatype(raw any) (*Datatype, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return ParseDatatype(v)
	case map[string]any:
		dt := &Datatype{Name: asString(v["name"])}
		for _, item := range asList(v["subtypes"]) {
			subtype, err := decodeDatatype(item)
			if err != nil {
				return nil, err
			}
			dt.Subtypes = append(dt.Subtypes, subtype)
		}
		return dt, nil
	default:
		return nil, fmt.Errorf("invalid datatype %T", raw)
	}
}

// ParseDatatype parses the textual form produced by Datatype.String, e.g.
// "map<list<integer>>".
func ParseDatatype(text string) (*Datatype, error) {
	dt, rest, err := parseDatatype(strings.TrimSpace(text))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, fmt.Errorf("unexpected %q after datatype", rest)
	}
	return dt, nil
}

func parseDatatype(text string) (*Datatype, string, error) {
	end := strings.IndexAny(text, "<>,")
	if end < 0 {
		end = len(text)
	}
	name := strings.TrimSpace(text[:end])
	if name == "" {
		return nil, "", fmt.Errorf("empty datatype name in %q", text)
	}
	dt := &Datatype{Name: name}
	rest := text[end:]
	if !strings.HasPrefix(rest, "<") {
		return dt, rest, nil
	}
	rest = rest[1:]
	for {
		sub, remaining, err := parseDatatype(strings.TrimSpace(rest))
		if err != nil {
			return nil, "", err
		}
		dt.Subtypes = append(dt.Subtypes, sub)
		remaining = strings.TrimSpace(remaining)
		switch {
		case strings.HasPrefix(remaining, ","):
			rest = remaining[1:]
		case strings.HasPrefix(remaining, ">"):
			return dt, remaining[1:], nil
		default:
			return nil, "", fmt.Errorf("unterminated type arguments in %q", text)
		}
	}
}

func decodePosition(node map[string]any) Position {
	pos := Position{File: asString(node["file"])}
	if line, err := asInt(node["line"]); err == nil {
		pos.Line = int(line)
	}
	return pos
}

func asList(raw any) []any {
	list, _ := raw.([]any)
	return list
}

func asString(raw any) string {
	s, _ := raw.(string)
	return s
}

func asStrings(raw any) []string {
	var out []string
	for _, item := range asList(raw) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asInt(raw any) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", raw)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
