package interpreter

import (
	"errors"
	"fmt"

	"github.com/kritixilithos/roda/pkg/ast"
	"github.com/kritixilithos/roda/pkg/runtime"
)

// planError is a hierarchy problem found while linearizing a record. It is
// raised when the record is constructed.
type planError struct {
	kind    ErrorKind
	message string
}

func (e *planError) Error() string { return e.message }

// preRegisterRecord declares a record and creates its Type reflection.
// Field descriptors are added by postRegisterRecord once every record of
// the same batch is known, so fields can refer to records declared later.
func (i *Interpreter) preRegisterRecord(state *evalState, scope *runtime.Scope, rec *ast.Record) error {
	decl := runtime.NewRecordDeclaration(rec, scope)
	scope.RegisterRecord(decl)

	i.pushFrame(state, func() string {
		return fmt.Sprintf("creating reflection object of record %s\n\tat <runtime>", rec.Name)
	})
	defer i.popFrame(state)

	typeObj := i.builtinInstance("Type")
	typeObj.SetField("name", runtime.StringValue{Val: rec.Name})
	annotations, err := i.evalAnnotations(state, scope, rec.Annotations)
	if err != nil {
		return err
	}
	typeObj.SetField("annotations", annotations)
	typeObj.SetField("fields", runtime.NewList(nil))
	typeObj.SetField("newInstance", &runtime.NativeFunctionValue{
		Name:       "Type.newInstance",
		Parameters: ast.Params(ast.Param("args")),
		IsVarargs:  true,
		Body: func(call runtime.NativeCall) error {
			st := i.callState(call)
			v, err := i.newRecord(st, scope, &ast.Datatype{Name: rec.Name, Subtypes: call.TypeArgs}, call.Args)
			if err != nil {
				return err
			}
			return i.push(st, call.Out, v)
		},
	})
	decl.SetReflection(typeObj)
	return nil
}

// postRegisterRecord builds the field descriptors and the construction plan.
func (i *Interpreter) postRegisterRecord(state *evalState, scope *runtime.Scope, rec *ast.Record) error {
	decl, ok := scope.RecordDeclaration(rec.Name)
	if !ok {
		return i.unknownName(state, "record class '%s' not found", rec.Name)
	}
	i.pushFrame(state, func() string {
		return fmt.Sprintf("creating field reflection objects of record %s\n\tat <runtime>", rec.Name)
	})
	defer i.popFrame(state)

	fields := make([]runtime.Value, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		fieldObj, err := i.fieldReflection(state, scope, rec, f)
		if err != nil {
			return err
		}
		fields = append(fields, fieldObj)
	}
	list := runtime.NewTypedList(&ast.Datatype{Name: "Field"})
	list.Append(fields...)
	decl.Reflection().SetField("fields", list)
	decl.SetPlan(i.buildPlan(decl))
	return nil
}

func (i *Interpreter) fieldReflection(state *evalState, scope *runtime.Scope, rec *ast.Record, f *ast.Field) (*runtime.RecordInstanceValue, error) {
	fieldObj := i.builtinInstance("Field")
	fieldObj.SetField("name", runtime.StringValue{Val: f.Name})
	annotations, err := i.evalAnnotations(state, scope, f.Annotations)
	if err != nil {
		return nil, err
	}
	fieldObj.SetField("annotations", annotations)
	if f.Type != nil {
		if typeDecl, ok := scope.RecordDeclaration(f.Type.Name); ok {
			fieldObj.SetField("type", typeDecl.Reflection())
		}
	}

	receiver := func(st *evalState, method string, v runtime.Value) (*runtime.RecordInstanceValue, error) {
		obj, ok := v.(*runtime.RecordInstanceValue)
		if !ok || !obj.IsInstanceOf(rec.Name, nil) {
			return nil, i.typeMismatch(st, "illegal argument for %s: %s required, got %s", method, rec.Name, runtime.TypeName(v))
		}
		return obj, nil
	}
	fieldObj.SetField("get", &runtime.NativeFunctionValue{
		Name:       "Field.get",
		Parameters: ast.Params(ast.Param("object")),
		Body: func(call runtime.NativeCall) error {
			st := i.callState(call)
			obj, err := receiver(st, "Field.get", call.Args[0])
			if err != nil {
				return err
			}
			v, err := i.getField(st, obj, f.Name)
			if err != nil {
				return err
			}
			return i.push(st, call.Out, v)
		},
	})
	fieldObj.SetField("set", &runtime.NativeFunctionValue{
		Name:       "Field.set",
		Parameters: ast.Params(ast.Param("object"), ast.Param("value")),
		Body: func(call runtime.NativeCall) error {
			st := i.callState(call)
			obj, err := receiver(st, "Field.set", call.Args[0])
			if err != nil {
				return err
			}
			return i.setField(st, obj, f.Name, call.Args[1])
		},
	})
	return fieldObj, nil
}

// evalAnnotations calls each annotation function with its arguments and
// collects everything the calls push.
func (i *Interpreter) evalAnnotations(state *evalState, scope *runtime.Scope, annotations []*ast.Annotation) (*runtime.ListValue, error) {
	result := runtime.NewList(nil)
	for _, a := range annotations {
		a := a // per-iteration copy (module targets go 1.21)
		target := scope
		for _, ns := range a.Namespace {
			v, ok := target.Resolve(ns)
			if !ok {
				return nil, i.unknownName(state, "namespace '%s' not found", ns)
			}
			nsv, ok := v.(runtime.NamespaceValue)
			if !ok {
				return nil, i.typeMismatch(state, "type mismatch: expected namespace, got %s", runtime.TypeName(v))
			}
			target = nsv.Scope
		}
		fn, ok := target.Resolve(a.Name)
		if !ok {
			return nil, i.unknownName(state, "annotation function '%s' not found", a.Name)
		}
		empty := runtime.NewEmptyStream()
		args, kwargs, err := i.evalArguments(state, scope, a.Arguments, empty, empty)
		if err != nil {
			return nil, err
		}
		out := runtime.NewStream()
		i.pushFrame(state, func() string {
			return fmt.Sprintf("calling annotation @%s %s\n\tat %s", a.Name, describeArguments(args), a.Pos)
		})
		err = i.exec(state, i.global, a.Name, fn, nil, args, kwargs, empty, out)
		i.popFrame(state)
		if err != nil {
			return nil, err
		}
		out.Finish()
		result.Append(out.ReadAll()...)
	}
	return result, nil
}

// buildPlan linearizes the supertype hierarchy of decl: enter steps in
// pre-order, defaults steps in post-order.
func (i *Interpreter) buildPlan(decl *runtime.RecordDeclaration) *runtime.RecordPlan {
	plan := &runtime.RecordPlan{}
	active := make(map[*runtime.RecordDeclaration]bool)
	var visit func(d *runtime.RecordDeclaration, super *ast.SuperExpression, parent int) error
	visit = func(d *runtime.RecordDeclaration, super *ast.SuperExpression, parent int) error {
		if active[d] {
			return &planError{kind: ErrorKindError, message: fmt.Sprintf("cyclic supertype hierarchy: record '%s' inherits itself", d.Name())}
		}
		active[d] = true
		defer delete(active, d)

		enter := len(plan.Steps)
		plan.Steps = append(plan.Steps, runtime.PlanStep{Kind: runtime.StepEnter, Decl: d, Super: super, Parent: parent})
		for _, sup := range d.Tree.SuperTypes {
			sd, ok := d.Scope.RecordDeclaration(sup.Type.Name)
			if !ok {
				return &planError{kind: ErrorKindUnknownName, message: fmt.Sprintf("record class '%s' not found", sup.Type.Name)}
			}
			if err := visit(sd, sup, enter); err != nil {
				return err
			}
		}
		plan.Steps = append(plan.Steps, runtime.PlanStep{Kind: runtime.StepDefaults, Decl: d, Enter: enter})
		return nil
	}
	if err := visit(decl, nil, -1); err != nil {
		i.logger.Debug("record hierarchy rejected", "record", decl.Name(), "error", err.Error())
		return &runtime.RecordPlan{Err: err}
	}
	return plan
}

// newRecord allocates a container or a record instance of typ.
func (i *Interpreter) newRecord(state *evalState, scope *runtime.Scope, typ *ast.Datatype, args []runtime.Value) (runtime.Value, error) {
	switch typ.Name {
	case "list", "map":
		if len(typ.Subtypes) > 1 {
			return nil, i.illegalArguments(state, "wrong number of typearguments to '%s': 1 required, got %d", typ.Name, len(typ.Subtypes))
		}
		var elem *ast.Datatype
		if len(typ.Subtypes) == 1 {
			elem = typ.Subtypes[0]
		}
		if typ.Name == "list" {
			if elem == nil {
				return runtime.NewList(nil), nil
			}
			return runtime.NewTypedList(elem), nil
		}
		return runtime.NewMap(elem), nil
	}

	decl, ok := scope.RecordDeclaration(typ.Name)
	if !ok {
		return nil, i.unknownName(state, "record class '%s' not found", typ.Name)
	}
	plan := decl.Plan()
	if plan == nil {
		plan = i.buildPlan(decl)
		decl.SetPlan(plan)
	}
	if plan.Err != nil {
		var pe *planError
		if errors.As(plan.Err, &pe) {
			return nil, i.errorf(state, pe.kind, "%s", pe.message)
		}
		return nil, i.plainError(state, "%s", plan.Err.Error())
	}
	if state.depth >= i.maxDepth {
		return nil, i.plainError(state, "maximum construction depth exceeded (%d) while constructing '%s'", i.maxDepth, typ.Name)
	}
	state.depth++
	defer func() { state.depth-- }()

	obj := runtime.NewRecordInstance()
	scopes := make([]*runtime.Scope, len(plan.Steps))
	empty := runtime.NewEmptyStream()
	for idx, step := range plan.Steps {
		if step.Kind == runtime.StepDefaults {
			rs := scopes[step.Enter]
			for _, f := range step.Decl.Tree.Fields {
				if f.Default == nil {
					continue
				}
				v, err := i.evalValue(state, rs, f.Default, empty, empty)
				if err != nil {
					return nil, err
				}
				obj.SetField(f.Name, v)
			}
			continue
		}

		typeArgs, ctorArgs := typ.Subtypes, args
		if step.Parent >= 0 {
			parentScope := scopes[step.Parent]
			super, err := parentScope.Substitute(step.Super.Type)
			if err != nil {
				return nil, i.plainError(state, "%s", err.Error())
			}
			typeArgs = super.Subtypes
			ctorArgs = make([]runtime.Value, len(step.Super.Args))
			for k, e := range step.Super.Args {
				if ctorArgs[k], err = i.evalValue(state, parentScope, e, empty, empty); err != nil {
					return nil, err
				}
			}
		}
		rs, err := i.enterRecord(state, obj, step.Decl, typeArgs, ctorArgs)
		if err != nil {
			return nil, err
		}
		scopes[idx] = rs
	}
	return obj, nil
}

// enterRecord binds one application of a record to obj and returns the
// scope its field defaults and supertype arguments are evaluated in.
func (i *Interpreter) enterRecord(state *evalState, obj *runtime.RecordInstanceValue, decl *runtime.RecordDeclaration, typeArgs []*ast.Datatype, args []runtime.Value) (*runtime.Scope, error) {
	tree := decl.Tree
	if len(tree.TypeParams) != len(typeArgs) {
		return nil, i.illegalArguments(state, "wrong number of typearguments for '%s': %d required, got %d", tree.Name, len(tree.TypeParams), len(typeArgs))
	}
	if len(tree.Params) != len(args) {
		return nil, i.illegalArguments(state, "wrong number of arguments for '%s': %d required, got %d", tree.Name, len(tree.Params), len(args))
	}
	obj.AddIdentity(runtime.RecordIdentity{Name: tree.Name, TypeArgs: typeArgs, Decl: decl})
	rs := runtime.NewScope(decl.Scope)
	rs.SetLocal("self", obj)
	for k, tp := range tree.TypeParams {
		if err := rs.AddTypearg(tp, typeArgs[k]); err != nil {
			return nil, i.plainError(state, "%s", err.Error())
		}
	}
	for k, p := range tree.Params {
		v, err := i.resolveArgument(state, args[k], false)
		if err != nil {
			return nil, err
		}
		if err := i.checkType(state, rs, tree.Name, p, v); err != nil {
			return nil, err
		}
		rs.SetLocal(p.Name, v)
	}
	return rs, nil
}

// reflectType returns the Type object of a declared record.
func (i *Interpreter) reflectType(state *evalState, scope *runtime.Scope, typ *ast.Datatype) (runtime.Value, error) {
	t, err := scope.Substitute(typ)
	if err != nil {
		return nil, i.plainError(state, "%s", err.Error())
	}
	decl, ok := scope.RecordDeclaration(t.Name)
	if !ok {
		return nil, i.unknownName(state, "reflect: unknown record class '%s'", t)
	}
	return decl.Reflection(), nil
}

// typeOf returns the Type object of the most derived record of v.
func (i *Interpreter) typeOf(state *evalState, v runtime.Value) (runtime.Value, error) {
	rec, ok := v.(*runtime.RecordInstanceValue)
	if ok {
		if ids := rec.Identities(); len(ids) > 0 && ids[0].Decl != nil {
			return ids[0].Decl.Reflection(), nil
		}
	}
	return nil, i.unknownName(state, "reflect: unknown record class '%s'", runtime.TypeName(v))
}

// builtinInstance allocates an empty instance of a global builtin record.
func (i *Interpreter) builtinInstance(name string) *runtime.RecordInstanceValue {
	obj := runtime.NewRecordInstance()
	decl, _ := i.global.RecordDeclaration(name)
	obj.AddIdentity(runtime.RecordIdentity{Name: name, Decl: decl})
	return obj
}

// callState recovers the evaluation state a native function was called
// with.
func (i *Interpreter) callState(call runtime.NativeCall) *evalState {
	if st, ok := call.State.(*evalState); ok && st != nil {
		return st
	}
	return i.newState()
}

func builtinRecord(name string, supers []string, fields ...*ast.Field) *ast.Record {
	rec := &ast.Record{Name: name, Fields: fields, Pos: ast.Position{File: "<builtin>"}}
	for _, s := range supers {
		rec.SuperTypes = append(rec.SuperTypes, &ast.SuperExpression{Type: &ast.Datatype{Name: s}})
	}
	return rec
}

func listOf(name string) *ast.Datatype {
	return &ast.Datatype{Name: "list", Subtypes: []*ast.Datatype{{Name: name}}}
}

// registerBuiltinRecords declares Type, Field and the error taxonomy in the
// global scope.
func (i *Interpreter) registerBuiltinRecords() {
	records := []*ast.Record{
		builtinRecord("Type", nil,
			ast.RecField("name", ast.Ty("string"), nil),
			ast.RecField("annotations", ast.Ty("list"), nil),
			ast.RecField("fields", listOf("Field"), nil),
			ast.RecField("newInstance", ast.Ty("function"), nil)),
		builtinRecord("Field", nil,
			ast.RecField("name", ast.Ty("string"), nil),
			ast.RecField("annotations", ast.Ty("list"), nil),
			ast.RecField("type", ast.Ty("Type"), nil),
			ast.RecField("get", ast.Ty("function"), nil),
			ast.RecField("set", ast.Ty("function"), nil)),
	}
	for _, kind := range errorKindOrder {
		if kind == ErrorKindError {
			records = append(records, builtinRecord(string(kind), nil,
				ast.RecField("message", ast.Ty("string"), ast.Str("")),
				ast.RecField("stack", listOf("string"), ast.List()),
				ast.RecField("nativestack", listOf("string"), ast.List()),
				ast.RecField("causes", listOf("Error"), ast.List())))
			continue
		}
		records = append(records, builtinRecord(string(kind), []string{string(errorParents[kind])}))
	}

	state := i.newState()
	for _, rec := range records {
		if err := i.preRegisterRecord(state, i.global, rec); err != nil {
			panic(fmt.Sprintf("registering builtin record %s: %v", rec.Name, err))
		}
	}
	for _, rec := range records {
		if err := i.postRegisterRecord(state, i.global, rec); err != nil {
			panic(fmt.Sprintf("registering builtin record %s: %v", rec.Name, err))
		}
	}
}
