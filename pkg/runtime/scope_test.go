package runtime

import (
	"sync"
	"testing"

	"github.com/kritixilithos/roda/pkg/ast"
)

func TestScopeSetLocalShadowsParent(t *testing.T) {
	parent := NewScope(nil)
	parent.SetLocal("x", IntegerValue{Val: 1})
	child := NewScope(parent)
	child.SetLocal("x", IntegerValue{Val: 2})

	got, ok := child.Resolve("x")
	if !ok || got.(IntegerValue).Val != 2 {
		t.Fatalf("expected child to see 2, got %#v", got)
	}
	got, _ = parent.Resolve("x")
	if got.(IntegerValue).Val != 1 {
		t.Fatalf("expected parent to keep 1, got %#v", got)
	}
}

func TestScopeSetMutatesNearestBinding(t *testing.T) {
	parent := NewScope(nil)
	parent.SetLocal("x", IntegerValue{Val: 1})
	child := NewScope(parent)
	child.Set("x", IntegerValue{Val: 2})

	if child.HasLocal("x") {
		t.Fatalf("expected no local binding in child")
	}
	got, _ := parent.Resolve("x")
	if got.(IntegerValue).Val != 2 {
		t.Fatalf("expected parent binding to be updated, got %#v", got)
	}

	child.Set("y", StringValue{Val: "new"})
	if !child.HasLocal("y") || parent.HasLocal("y") {
		t.Fatalf("expected unbound name to be created locally")
	}
}

func TestScopeResolveMissing(t *testing.T) {
	s := NewScope(NewScope(nil))
	if _, ok := s.Resolve("missing"); ok {
		t.Fatalf("expected missing name to be unresolved")
	}
}

func TestScopeTypeargsCannotBeOverridden(t *testing.T) {
	parent := NewScope(nil)
	if err := parent.AddTypearg("T", ast.Ty("integer")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	child := NewScope(parent)
	if err := child.AddTypearg("T", ast.Ty("string")); err == nil {
		t.Fatalf("expected error when rebinding T")
	}
	if err := child.AddTypearg("U", ast.Ty("string")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestScopeSubstitute(t *testing.T) {
	s := NewScope(nil)
	_ = s.AddTypearg("T", ast.Ty("integer"))

	got, err := s.Substitute(ast.Ty("map", ast.Ty("list", ast.Ty("T"))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "map<list<integer>>" {
		t.Fatalf("unexpected substitution %s", got)
	}
	if _, err := s.Substitute(ast.Ty("T", ast.Ty("string"))); err == nil {
		t.Fatalf("expected error for type parameter with subtypes")
	}
}

func TestScopeRecordDeclarationsMerge(t *testing.T) {
	global := NewScope(nil)
	global.RegisterRecord(NewRecordDeclaration(ast.Rec("A"), global))
	global.RegisterRecord(NewRecordDeclaration(ast.Rec("B"), global))
	local := NewScope(global)
	shadow := NewRecordDeclaration(ast.Rec("B"), local)
	local.RegisterRecord(shadow)

	decls := local.RecordDeclarations()
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if decls["B"] != shadow {
		t.Fatalf("expected local declaration to shadow global one")
	}
	if len(global.Records()) != 2 || global.Records()["B"] == shadow.Tree {
		t.Fatalf("expected global view to be unaffected")
	}
}

func TestScopeConcurrentAccess(t *testing.T) {
	s := NewScope(NewScope(nil))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Set("counter", IntegerValue{Val: int64(i*100 + j)})
				s.Resolve("counter")
			}
		}(i)
	}
	wg.Wait()
	if _, ok := s.Resolve("counter"); !ok {
		t.Fatalf("expected counter to be bound")
	}
}
