package runtime

import (
	"sync"

	"github.com/kritixilithos/roda/pkg/ast"
)

// RecordDeclaration is a registered record: its AST, the scope it was
// declared in, its reflection Type instance and its construction plan.
type RecordDeclaration struct {
	Tree  *ast.Record
	Scope *Scope

	mu         sync.RWMutex
	reflection *RecordInstanceValue
	plan       *RecordPlan
}

func NewRecordDeclaration(tree *ast.Record, scope *Scope) *RecordDeclaration {
	return &RecordDeclaration{Tree: tree, Scope: scope}
}

func (d *RecordDeclaration) Name() string { return d.Tree.Name }

func (d *RecordDeclaration) Reflection() *RecordInstanceValue {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reflection
}

func (d *RecordDeclaration) SetReflection(r *RecordInstanceValue) {
	d.mu.Lock()
	d.reflection = r
	d.mu.Unlock()
}

func (d *RecordDeclaration) Plan() *RecordPlan {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.plan
}

func (d *RecordDeclaration) SetPlan(p *RecordPlan) {
	d.mu.Lock()
	d.plan = p
	d.mu.Unlock()
}

// PlanStepKind distinguishes the two phases of applying a record.
type PlanStepKind int

const (
	// StepEnter opens the application scope and binds parameters.
	StepEnter PlanStepKind = iota
	// StepDefaults evaluates the field defaults of an entered application.
	StepDefaults
)

// PlanStep is one operation of a linearized construction. For StepEnter,
// Parent is the index of the applying record's enter step (-1 for the root)
// and Super is the supertype expression being applied. For StepDefaults,
// Enter is the index of the matching enter step.
type PlanStep struct {
	Kind   PlanStepKind
	Decl   *RecordDeclaration
	Super  *ast.SuperExpression
	Parent int
	Enter  int
}

// RecordPlan is the order in which a record and its supertypes are applied:
// enter steps pre-order, defaults post-order. Err is set when the hierarchy
// is cyclic or names an unknown record and is reported at construction.
type RecordPlan struct {
	Steps []PlanStep
	Err   error
}
