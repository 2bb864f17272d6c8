package runtime

import "github.com/kritixilithos/roda/pkg/ast"

// Is reports whether v belongs to typ. Type parameters must already be
// substituted. Unknown names only match record instances built as that
// record.
func Is(v Value, typ *ast.Datatype) bool {
	if typ == nil {
		return true
	}
	switch typ.Name {
	case "value":
		return true
	case "string":
		return v.Kind() == KindString
	case "integer":
		return v.Kind() == KindInteger
	case "floating":
		return v.Kind() == KindFloat
	case "number":
		return v.Kind() == KindInteger || v.Kind() == KindFloat
	case "boolean":
		return v.Kind() == KindBoolean
	case "function":
		return v.Kind() == KindFunction || v.Kind() == KindNativeFunction
	case "namespace":
		return v.Kind() == KindNamespace
	case "reference":
		return v.Kind() == KindReference
	case "list":
		list, ok := v.(*ListValue)
		if !ok {
			return false
		}
		if len(typ.Subtypes) == 0 {
			return true
		}
		return containerMatches(list.ElementType, list.Elements(), typ.Subtypes[0])
	case "map":
		m, ok := v.(*MapValue)
		if !ok {
			return false
		}
		if len(typ.Subtypes) == 0 {
			return true
		}
		keys := m.Keys()
		values := make([]Value, 0, len(keys))
		for _, k := range keys {
			e, _ := m.Get(k)
			values = append(values, e)
		}
		return containerMatches(m.ElementType, values, typ.Subtypes[0])
	}
	rec, ok := v.(*RecordInstanceValue)
	if !ok {
		return false
	}
	return rec.IsInstanceOf(typ.Name, typ.Subtypes)
}

// containerMatches compares the declared element type when there is one;
// untyped containers match when every element does.
func containerMatches(declared *ast.Datatype, elements []Value, want *ast.Datatype) bool {
	if declared != nil {
		return declared.String() == want.String() || want.Name == "value"
	}
	for _, e := range elements {
		if !Is(e, want) {
			return false
		}
	}
	return true
}
