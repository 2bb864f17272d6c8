package ast

import "testing"

func TestParseDatatypeNested(t *testing.T) {
	dt, err := ParseDatatype("map<list<integer>, Pair<string,T>>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dt.Name != "map" || len(dt.Subtypes) != 2 {
		t.Fatalf("unexpected datatype %#v", dt)
	}
	if got := dt.String(); got != "map<list<integer>, Pair<string, T>>" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestParseDatatypeRejectsGarbage(t *testing.T) {
	for _, text := range []string{"", "list<", "list<integer", "a>b"} {
		if _, err := ParseDatatype(text); err == nil {
			t.Fatalf("expected error for %q", text)
		}
	}
}

func TestDecodeProgramYAML(t *testing.T) {
	src := []byte(`
functions:
  - name: main
    file: prog.roda
    line: 1
    parameters:
      - name: x
        datatype: integer
      - name: r
        reference: true
    body:
      - commands:
          - type: call
            name: push
            arguments:
              - {type: Variable, name: x}
              - {type: Flatten, expr: {type: Variable, name: rest}}
          - type: call
            name: pull
records:
  - name: B
    superTypes:
      - datatype: A
        args: [1]
    fields:
      - name: y
        datatype: integer
        default: {type: Binary, operator: "+", left: 1, right: 2}
`)
	prog, err := DecodeProgram(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prog.Functions) != 1 || prog.Functions[0].Name != "main" {
		t.Fatalf("unexpected functions %#v", prog.Functions)
	}
	main := prog.Functions[0]
	if main.Pos.String() != "prog.roda:1" {
		t.Fatalf("unexpected position %s", main.Pos)
	}
	if !main.Parameters[1].Reference || main.Parameters[0].Type.Name != "integer" {
		t.Fatalf("unexpected parameters %#v", main.Parameters)
	}
	stmt := main.Body[0]
	if len(stmt.Commands) != 2 {
		t.Fatalf("expected two piped commands, got %d", len(stmt.Commands))
	}
	args := stmt.Commands[0].Arguments.Positional
	if len(args) != 2 || !args[1].Flattened {
		t.Fatalf("unexpected arguments %#v", args)
	}
	rec := prog.Records[0]
	if rec.SuperTypes[0].Type.Name != "A" || len(rec.SuperTypes[0].Args) != 1 {
		t.Fatalf("unexpected supertypes %#v", rec.SuperTypes)
	}
	bin, ok := rec.Fields[0].Default.(*BinaryExpression)
	if !ok || bin.Op != OpAdd {
		t.Fatalf("unexpected field default %#v", rec.Fields[0].Default)
	}
}

func TestDecodeStatementAcceptsJSON(t *testing.T) {
	stmt, err := DecodeStatement([]byte(`{"type": "for", "variables": ["i"], "list": {"type": "List", "elements": [1, 2]}, "body": [{"type": "break"}]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmd := stmt.Commands[0]
	if cmd.Type != CommandFor || cmd.List == nil || len(cmd.Body) != 1 {
		t.Fatalf("unexpected command %#v", cmd)
	}
	if cmd.Body[0].Commands[0].Type != CommandBreak {
		t.Fatalf("expected break body, got %s", cmd.Body[0].Commands[0].Type)
	}
}

func TestDecodeRejectsUnknownNodes(t *testing.T) {
	if _, err := DecodeStatement([]byte(`{type: goto}`)); err == nil {
		t.Fatalf("expected error for unknown command")
	}
	if _, err := DecodeStatement([]byte(`{type: expression, expr: {type: Lambda}}`)); err == nil {
		t.Fatalf("expected error for unknown expression")
	}
}
