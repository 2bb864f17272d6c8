package runtime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/kritixilithos/roda/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindFloat
	KindBoolean
	KindList
	KindMap
	KindFunction
	KindNativeFunction
	KindReference
	KindNamespace
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "floating"
	case KindBoolean:
		return "boolean"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindFunction, KindNativeFunction:
		return "function"
	case KindReference:
		return "reference"
	case KindNamespace:
		return "namespace"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is implemented by all runtime values.
type Value interface {
	Kind() Kind
}

type StringValue struct{ Val string }

func (StringValue) Kind() Kind { return KindString }

type IntegerValue struct{ Val int64 }

func (IntegerValue) Kind() Kind { return KindInteger }

type FloatValue struct{ Val float64 }

func (FloatValue) Kind() Kind { return KindFloat }

type BooleanValue struct{ Val bool }

func (BooleanValue) Kind() Kind { return KindBoolean }

// ListValue owns its elements. ElementType is set for lists created with
// new list<T>.
type ListValue struct {
	mu          sync.RWMutex
	elements    []Value
	ElementType *ast.Datatype
}

func NewList(elements []Value) *ListValue {
	return &ListValue{elements: elements}
}

func NewTypedList(elementType *ast.Datatype) *ListValue {
	return &ListValue{elements: []Value{}, ElementType: elementType}
}

func (*ListValue) Kind() Kind { return KindList }

func (l *ListValue) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.elements)
}

// Elements returns a copy of the current elements.
func (l *ListValue) Elements() []Value {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Value, len(l.elements))
	copy(out, l.elements)
	return out
}

func (l *ListValue) Get(index int) (Value, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= len(l.elements) {
		return nil, false
	}
	return l.elements[index], true
}

func (l *ListValue) Set(index int, v Value) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < 0 || index >= len(l.elements) {
		return false
	}
	l.elements[index] = v
	return true
}

func (l *ListValue) Append(values ...Value) {
	l.mu.Lock()
	l.elements = append(l.elements, values...)
	l.mu.Unlock()
}

// Splice replaces elements[start:end] with replacement.
func (l *ListValue) Splice(start, end int, replacement []Value) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if start < 0 || end > len(l.elements) || start > end {
		return false
	}
	next := make([]Value, 0, len(l.elements)-(end-start)+len(replacement))
	next = append(next, l.elements[:start]...)
	next = append(next, replacement...)
	next = append(next, l.elements[end:]...)
	l.elements = next
	return true
}

// MapValue owns its entries. ReadOnly maps reject mutation.
type MapValue struct {
	mu          sync.RWMutex
	entries     map[string]Value
	ElementType *ast.Datatype
	ReadOnly    bool
}

func NewMap(elementType *ast.Datatype) *MapValue {
	return &MapValue{entries: make(map[string]Value), ElementType: elementType}
}

func NewReadOnlyMap(entries map[string]Value) *MapValue {
	m := &MapValue{entries: make(map[string]Value, len(entries)), ReadOnly: true}
	for k, v := range entries {
		m.entries[k] = v
	}
	return m
}

func (*MapValue) Kind() Kind { return KindMap }

func (m *MapValue) Get(key string) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *MapValue) Set(key string, v Value) error {
	if m.ReadOnly {
		return fmt.Errorf("map is read-only")
	}
	m.mu.Lock()
	m.entries[key] = v
	m.mu.Unlock()
	return nil
}

func (m *MapValue) Delete(key string) error {
	if m.ReadOnly {
		return fmt.Errorf("map is read-only")
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *MapValue) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Keys returns the keys in sorted order.
func (m *MapValue) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// FunctionValue is a user function together with the scope it closes over.
// Closure is nil for top-level functions, which run under the global scope.
type FunctionValue struct {
	Declaration *ast.Function
	Closure     *Scope
}

func (*FunctionValue) Kind() Kind { return KindFunction }

// NativeCall carries everything a native body receives. State is the
// caller's evaluation state, opaque outside the interpreter.
type NativeCall struct {
	TypeArgs []*ast.Datatype
	Args     []Value
	KwArgs   map[string]Value
	Scope    *Scope
	In       Stream
	Out      Stream
	State    any
}

type NativeBody func(call NativeCall) error

// NativeFunctionValue is a host-implemented function. Reference parameters
// receive *ReferenceValue arguments.
type NativeFunctionValue struct {
	Name         string
	Parameters   []*ast.Parameter
	KwParameters []*ast.Parameter
	IsVarargs    bool
	IsKwVarargs  bool
	Body         NativeBody
}

func (*NativeFunctionValue) Kind() Kind { return KindNativeFunction }

// ReferenceValue locates the binding Name as seen from Scope. It never owns
// the value it points at.
type ReferenceValue struct {
	Name  string
	Scope *Scope
}

func NewReference(scope *Scope, name string) *ReferenceValue {
	return &ReferenceValue{Name: name, Scope: scope}
}

func (*ReferenceValue) Kind() Kind { return KindReference }

// Resolve returns the current target of the reference, which may itself be a
// reference.
func (r *ReferenceValue) Resolve() (Value, bool) {
	return r.Scope.Resolve(r.Name)
}

func (r *ReferenceValue) Assign(v Value) {
	r.Scope.Set(r.Name, v)
}

func (r *ReferenceValue) AssignLocal(v Value) {
	r.Scope.SetLocal(r.Name, v)
}

type NamespaceValue struct {
	Scope *Scope
}

func (NamespaceValue) Kind() Kind { return KindNamespace }

// RecordIdentity is one nominal type an instance was constructed as.
type RecordIdentity struct {
	Name     string
	TypeArgs []*ast.Datatype
	Decl     *RecordDeclaration
}

func (id RecordIdentity) String() string {
	return (&ast.Datatype{Name: id.Name, Subtypes: id.TypeArgs}).String()
}

// RecordInstanceValue owns its field map. Supertypes share the same instance,
// so identities lists the most derived type first.
type RecordInstanceValue struct {
	mu         sync.RWMutex
	identities []RecordIdentity
	fields     map[string]Value
}

func NewRecordInstance() *RecordInstanceValue {
	return &RecordInstanceValue{fields: make(map[string]Value)}
}

func (*RecordInstanceValue) Kind() Kind { return KindRecord }

func (r *RecordInstanceValue) AddIdentity(id RecordIdentity) {
	r.mu.Lock()
	r.identities = append(r.identities, id)
	r.mu.Unlock()
}

func (r *RecordInstanceValue) Identities() []RecordIdentity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RecordIdentity, len(r.identities))
	copy(out, r.identities)
	return out
}

// TypeName is the name of the most derived record.
func (r *RecordInstanceValue) TypeName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.identities) == 0 {
		return "record"
	}
	return r.identities[0].Name
}

// IsInstanceOf reports whether the instance was constructed as name. When
// typeArgs is non-empty they must match the recorded arguments.
func (r *RecordInstanceValue) IsInstanceOf(name string, typeArgs []*ast.Datatype) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.identities {
		if id.Name != name {
			continue
		}
		if len(typeArgs) == 0 {
			return true
		}
		if len(typeArgs) != len(id.TypeArgs) {
			continue
		}
		match := true
		for i := range typeArgs {
			if typeArgs[i].String() != id.TypeArgs[i].String() {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (r *RecordInstanceValue) Field(name string) (Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.fields[name]
	return v, ok
}

func (r *RecordInstanceValue) SetField(name string, v Value) {
	r.mu.Lock()
	r.fields[name] = v
	r.mu.Unlock()
}

// FieldNames returns the names of the fields currently set, sorted.
func (r *RecordInstanceValue) FieldNames() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.fields))
	for k := range r.fields {
		names = append(names, k)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Stringify renders a value the way push-to-text streams print it.
func Stringify(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case StringValue:
		return val.Val
	case IntegerValue:
		return strconv.FormatInt(val.Val, 10)
	case FloatValue:
		return strconv.FormatFloat(val.Val, 'g', -1, 64)
	case BooleanValue:
		return strconv.FormatBool(val.Val)
	case *ListValue:
		elems := val.Elements()
		parts := make([]string, len(elems))
		for i, e := range elems {
			parts[i] = Stringify(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *MapValue:
		keys := val.Keys()
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			e, _ := val.Get(k)
			parts = append(parts, k+"="+Stringify(e))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *FunctionValue:
		if val.Declaration.Name == "" {
			return "<function>"
		}
		return "<function '" + val.Declaration.Name + "'>"
	case *NativeFunctionValue:
		return "<function '" + val.Name + "'>"
	case *ReferenceValue:
		return "&" + val.Name
	case NamespaceValue:
		return "<namespace>"
	case *RecordInstanceValue:
		if msg, ok := val.Field("message"); ok && val.IsInstanceOf("Error", nil) {
			return val.TypeName() + ": " + Stringify(msg)
		}
		return "<a " + val.TypeName() + " instance>"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// TypeName returns the name used for v in type errors.
func TypeName(v Value) string {
	if rec, ok := v.(*RecordInstanceValue); ok {
		return rec.TypeName()
	}
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}

// Equal implements the language's structural equality.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case StringValue:
		bv, ok := b.(StringValue)
		return ok && av.Val == bv.Val
	case IntegerValue:
		switch bv := b.(type) {
		case IntegerValue:
			return av.Val == bv.Val
		case FloatValue:
			return float64(av.Val) == bv.Val
		}
		return false
	case FloatValue:
		switch bv := b.(type) {
		case FloatValue:
			return av.Val == bv.Val
		case IntegerValue:
			return av.Val == float64(bv.Val)
		}
		return false
	case BooleanValue:
		bv, ok := b.(BooleanValue)
		return ok && av.Val == bv.Val
	case *ListValue:
		bv, ok := b.(*ListValue)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		ae, be := av.Elements(), bv.Elements()
		if len(ae) != len(be) {
			return false
		}
		for i := range ae {
			if !Equal(ae[i], be[i]) {
				return false
			}
		}
		return true
	case *MapValue:
		bv, ok := b.(*MapValue)
		if !ok {
			return false
		}
		if av == bv {
			return true
		}
		keys := av.Keys()
		if len(keys) != bv.Len() {
			return false
		}
		for _, k := range keys {
			x, _ := av.Get(k)
			y, ok := bv.Get(k)
			if !ok || !Equal(x, y) {
				return false
			}
		}
		return true
	case *ReferenceValue:
		bv, ok := b.(*ReferenceValue)
		return ok && av.Name == bv.Name && av.Scope == bv.Scope
	case NamespaceValue:
		bv, ok := b.(NamespaceValue)
		return ok && av.Scope == bv.Scope
	default:
		return a == b
	}
}
