package runtime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kritixilithos/roda/pkg/ast"
)

// Scope provides lexical scoping for runtime values, type-parameter bindings
// and record declarations.
type Scope struct {
	mu       sync.RWMutex
	parent   *Scope
	values   map[string]Value
	typeargs map[string]*ast.Datatype
	records  map[string]*RecordDeclaration
}

// NewScope creates a new scope, optionally nested under a parent.
func NewScope(parent *Scope) *Scope {
	return &Scope{
		parent:   parent,
		values:   make(map[string]Value),
		typeargs: make(map[string]*ast.Datatype),
		records:  make(map[string]*RecordDeclaration),
	}
}

// Parent exposes the lexical parent (nil when global).
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Resolve retrieves a binding, searching outward through the scope chain.
func (s *Scope) Resolve(name string) (Value, bool) {
	s.mu.RLock()
	if v, ok := s.values[name]; ok {
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()
	if s.parent != nil {
		return s.parent.Resolve(name)
	}
	return nil, false
}

// Set updates the nearest scope already binding name, or binds it locally
// when no scope in the chain does.
func (s *Scope) Set(name string, v Value) {
	if s.assignExisting(name, v) {
		return
	}
	s.SetLocal(name, v)
}

func (s *Scope) assignExisting(name string, v Value) bool {
	s.mu.Lock()
	if _, ok := s.values[name]; ok {
		s.values[name] = v
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()
	if s.parent != nil {
		return s.parent.assignExisting(name, v)
	}
	return false
}

// SetLocal inserts or shadows a binding in this scope.
func (s *Scope) SetLocal(name string, v Value) {
	s.mu.Lock()
	s.values[name] = v
	s.mu.Unlock()
}

// Delete removes a local binding.
func (s *Scope) Delete(name string) {
	s.mu.Lock()
	delete(s.values, name)
	s.mu.Unlock()
}

// HasLocal reports whether name is bound in this scope.
func (s *Scope) HasLocal(name string) bool {
	s.mu.RLock()
	_, ok := s.values[name]
	s.mu.RUnlock()
	return ok
}

// LocalNames returns the local bindings in sorted order.
func (s *Scope) LocalNames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}

// AddTypearg binds a type parameter. Rebinding a name visible anywhere in the
// chain is an error.
func (s *Scope) AddTypearg(name string, typ *ast.Datatype) error {
	if _, ok := s.Typearg(name); ok {
		return fmt.Errorf("can't override typeargument '%s'", name)
	}
	s.mu.Lock()
	s.typeargs[name] = typ
	s.mu.Unlock()
	return nil
}

// Typearg looks up a type parameter binding through the chain.
func (s *Scope) Typearg(name string) (*ast.Datatype, bool) {
	s.mu.RLock()
	if t, ok := s.typeargs[name]; ok {
		s.mu.RUnlock()
		return t, true
	}
	s.mu.RUnlock()
	if s.parent != nil {
		return s.parent.Typearg(name)
	}
	return nil, false
}

// Substitute replaces bound type parameters in typ, recursively.
func (s *Scope) Substitute(typ *ast.Datatype) (*ast.Datatype, error) {
	if typ == nil {
		return nil, nil
	}
	if bound, ok := s.Typearg(typ.Name); ok {
		if len(typ.Subtypes) != 0 {
			return nil, fmt.Errorf("a typeparameter can't have subtypes")
		}
		return bound, nil
	}
	if len(typ.Subtypes) == 0 {
		return typ, nil
	}
	subtypes := make([]*ast.Datatype, len(typ.Subtypes))
	for i, sub := range typ.Subtypes {
		resolved, err := s.Substitute(sub)
		if err != nil {
			return nil, err
		}
		subtypes[i] = resolved
	}
	return &ast.Datatype{Name: typ.Name, Subtypes: subtypes}, nil
}

// RegisterRecord adds a record declaration to this scope.
func (s *Scope) RegisterRecord(decl *RecordDeclaration) {
	s.mu.Lock()
	s.records[decl.Name()] = decl
	s.mu.Unlock()
}

// RecordDeclaration looks up a record by name through the chain.
func (s *Scope) RecordDeclaration(name string) (*RecordDeclaration, bool) {
	s.mu.RLock()
	if d, ok := s.records[name]; ok {
		s.mu.RUnlock()
		return d, true
	}
	s.mu.RUnlock()
	if s.parent != nil {
		return s.parent.RecordDeclaration(name)
	}
	return nil, false
}

// RecordDeclarations merges the declarations visible from this scope; local
// declarations shadow ancestors'.
func (s *Scope) RecordDeclarations() map[string]*RecordDeclaration {
	var merged map[string]*RecordDeclaration
	if s.parent != nil {
		merged = s.parent.RecordDeclarations()
	} else {
		merged = make(map[string]*RecordDeclaration)
	}
	s.mu.RLock()
	for k, d := range s.records {
		merged[k] = d
	}
	s.mu.RUnlock()
	return merged
}

// Records returns the AST of every visible record declaration.
func (s *Scope) Records() map[string]*ast.Record {
	decls := s.RecordDeclarations()
	out := make(map[string]*ast.Record, len(decls))
	for k, d := range decls {
		out[k] = d.Tree
	}
	return out
}
