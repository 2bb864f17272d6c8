package runtime

import (
	"testing"

	"github.com/kritixilithos/roda/pkg/ast"
)

func TestIsBuiltinTypes(t *testing.T) {
	list := NewList([]Value{IntegerValue{Val: 1}, IntegerValue{Val: 2}})
	typed := NewTypedList(ast.Ty("string"))
	cases := []struct {
		value Value
		typ   *ast.Datatype
		want  bool
	}{
		{IntegerValue{Val: 1}, ast.Ty("integer"), true},
		{IntegerValue{Val: 1}, ast.Ty("number"), true},
		{FloatValue{Val: 1.5}, ast.Ty("number"), true},
		{FloatValue{Val: 1.5}, ast.Ty("integer"), false},
		{StringValue{Val: "x"}, ast.Ty("string"), true},
		{BooleanValue{Val: true}, ast.Ty("boolean"), true},
		{list, ast.Ty("list"), true},
		{list, ast.Ty("list", ast.Ty("integer")), true},
		{list, ast.Ty("list", ast.Ty("string")), false},
		{typed, ast.Ty("list", ast.Ty("string")), true},
		{typed, ast.Ty("list", ast.Ty("integer")), false},
		{NewMap(nil), ast.Ty("map"), true},
		{&NativeFunctionValue{Name: "f"}, ast.Ty("function"), true},
		{StringValue{Val: "x"}, ast.Ty("value"), true},
	}
	for _, tc := range cases {
		if got := Is(tc.value, tc.typ); got != tc.want {
			t.Fatalf("Is(%s, %s) = %v, want %v", Stringify(tc.value), tc.typ, got, tc.want)
		}
	}
}

func TestIsRecordIdentities(t *testing.T) {
	rec := NewRecordInstance()
	rec.AddIdentity(RecordIdentity{Name: "B"})
	rec.AddIdentity(RecordIdentity{Name: "Box", TypeArgs: []*ast.Datatype{ast.Ty("integer")}})

	if !Is(rec, ast.Ty("B")) || !Is(rec, ast.Ty("Box")) {
		t.Fatalf("expected instance to match both identities")
	}
	if !Is(rec, ast.Ty("Box", ast.Ty("integer"))) {
		t.Fatalf("expected matching type arguments")
	}
	if Is(rec, ast.Ty("Box", ast.Ty("string"))) || Is(rec, ast.Ty("C")) {
		t.Fatalf("unexpected match")
	}
	if rec.TypeName() != "B" {
		t.Fatalf("expected most derived name, got %s", rec.TypeName())
	}
}

func TestEqual(t *testing.T) {
	if !Equal(IntegerValue{Val: 2}, FloatValue{Val: 2}) {
		t.Fatalf("expected numeric equality across kinds")
	}
	a := NewList([]Value{StringValue{Val: "a"}, IntegerValue{Val: 1}})
	b := NewList([]Value{StringValue{Val: "a"}, IntegerValue{Val: 1}})
	if !Equal(a, b) {
		t.Fatalf("expected structural list equality")
	}
	b.Append(IntegerValue{Val: 2})
	if Equal(a, b) {
		t.Fatalf("expected lists of different length to differ")
	}
	if Equal(StringValue{Val: "1"}, IntegerValue{Val: 1}) {
		t.Fatalf("expected string and integer to differ")
	}
}

func TestReadOnlyMap(t *testing.T) {
	m := NewReadOnlyMap(map[string]Value{"HOME": StringValue{Val: "/root"}})
	if err := m.Set("HOME", StringValue{Val: "/tmp"}); err == nil {
		t.Fatalf("expected read-only map to reject writes")
	}
	if v, ok := m.Get("HOME"); !ok || v.(StringValue).Val != "/root" {
		t.Fatalf("unexpected value %#v", v)
	}
}

func TestListSplice(t *testing.T) {
	l := NewList([]Value{IntegerValue{Val: 1}, IntegerValue{Val: 2}, IntegerValue{Val: 3}})
	if !l.Splice(0, 2, nil) {
		t.Fatalf("expected splice to succeed")
	}
	if Stringify(l) != "[3]" {
		t.Fatalf("unexpected list %s", Stringify(l))
	}
	if l.Splice(1, 5, nil) {
		t.Fatalf("expected out of range splice to fail")
	}
}
