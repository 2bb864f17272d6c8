package interpreter

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/kritixilithos/roda/pkg/runtime"
)

// ErrorKind names a builtin error record.
type ErrorKind string

const (
	ErrorKindError            ErrorKind = "Error"
	ErrorKindJava             ErrorKind = "JavaError"
	ErrorKindLeakyPipe        ErrorKind = "LeakyPipeError"
	ErrorKindEmptyStream      ErrorKind = "EmptyStreamError"
	ErrorKindFullStream       ErrorKind = "FullStreamError"
	ErrorKindIllegalArguments ErrorKind = "IllegalArgumentsError"
	ErrorKindUnknownName      ErrorKind = "UnknownNameError"
	ErrorKindTypeMismatch     ErrorKind = "TypeMismatchError"
	ErrorKindOutOfBounds      ErrorKind = "OutOfBoundsError"
)

var errorParents = map[ErrorKind]ErrorKind{
	ErrorKindJava:             ErrorKindError,
	ErrorKindLeakyPipe:        ErrorKindError,
	ErrorKindEmptyStream:      ErrorKindError,
	ErrorKindFullStream:       ErrorKindError,
	ErrorKindIllegalArguments: ErrorKindError,
	ErrorKindUnknownName:      ErrorKindError,
	ErrorKindTypeMismatch:     ErrorKindIllegalArguments,
	ErrorKindOutOfBounds:      ErrorKindIllegalArguments,
}

// errorKindOrder is the registration order of the builtin error records;
// parents come first.
var errorKindOrder = []ErrorKind{
	ErrorKindError,
	ErrorKindJava,
	ErrorKindLeakyPipe,
	ErrorKindEmptyStream,
	ErrorKindFullStream,
	ErrorKindIllegalArguments,
	ErrorKindUnknownName,
	ErrorKindTypeMismatch,
	ErrorKindOutOfBounds,
}

// RodaError is a raised language error. The error object it carries is an
// instance of Error or one of its subtypes and is not mutated after the
// error is created.
type RodaError struct {
	object      *runtime.RecordInstanceValue
	message     string
	stack       []string
	nativeStack []string
	causes      []*RodaError
}

func (e *RodaError) Error() string { return e.message }

func (e *RodaError) Message() string { return e.message }

// Kind is the record name of the error object.
func (e *RodaError) Kind() string { return e.object.TypeName() }

// IsA reports whether the error object is an instance of kind or a subtype.
func (e *RodaError) IsA(kind ErrorKind) bool {
	return e.object.IsInstanceOf(string(kind), nil)
}

func (e *RodaError) Stack() []string { return append([]string(nil), e.stack...) }

func (e *RodaError) NativeStack() []string { return append([]string(nil), e.nativeStack...) }

func (e *RodaError) Causes() []*RodaError { return append([]*RodaError(nil), e.causes...) }

func (e *RodaError) Object() *runtime.RecordInstanceValue { return e.object }

func (e *RodaError) Unwrap() []error {
	if len(e.causes) == 0 {
		return nil
	}
	out := make([]error, len(e.causes))
	for idx, c := range e.causes {
		out[idx] = c
	}
	return out
}

// hostPanic is a recovered Go panic.
type hostPanic struct {
	value any
	stack []byte
}

func (p *hostPanic) Error() string { return fmt.Sprintf("panic: %v", p.value) }

func (i *Interpreter) panicError(r any) error {
	return &hostPanic{value: r, stack: debug.Stack()}
}

func stringList(items []string) *runtime.ListValue {
	values := make([]runtime.Value, len(items))
	for idx, s := range items {
		values[idx] = runtime.StringValue{Val: s}
	}
	return runtime.NewList(values)
}

// newError creates an error of a builtin kind capturing the current call
// stack.
func (i *Interpreter) newError(state *evalState, kind ErrorKind, message string, causes ...*RodaError) *RodaError {
	return i.buildError(state, kind, message, nil, causes)
}

func (i *Interpreter) buildError(state *evalState, kind ErrorKind, message string, nativeStack []string, causes []*RodaError) *RodaError {
	obj := runtime.NewRecordInstance()
	for k := kind; k != ""; k = errorParents[k] {
		decl, _ := i.global.RecordDeclaration(string(k))
		obj.AddIdentity(runtime.RecordIdentity{Name: string(k), Decl: decl})
	}
	var stack []string
	if state != nil {
		stack = state.stackSnapshot()
	}
	causeObjects := make([]runtime.Value, len(causes))
	for idx, c := range causes {
		causeObjects[idx] = c.object
	}
	obj.SetField("message", runtime.StringValue{Val: message})
	obj.SetField("stack", stringList(stack))
	obj.SetField("nativestack", stringList(nativeStack))
	obj.SetField("causes", runtime.NewList(causeObjects))
	return &RodaError{
		object:      obj,
		message:     message,
		stack:       stack,
		nativeStack: nativeStack,
		causes:      causes,
	}
}

// withNativeLine copies e, which must be of a builtin kind, with line
// appended to its native stack. The copy keeps the call stack e was raised
// with.
func (i *Interpreter) withNativeLine(e *RodaError, line string) *RodaError {
	native := append(e.NativeStack(), line)
	out := i.buildError(nil, ErrorKind(e.Kind()), e.message, native, e.causes)
	out.stack = e.Stack()
	out.object.SetField("stack", stringList(out.stack))
	return out
}

// errorFromObject raises a user-supplied error object. The stack field is
// set to the raising call stack.
func (i *Interpreter) errorFromObject(state *evalState, obj *runtime.RecordInstanceValue) *RodaError {
	stack := state.stackSnapshot()
	obj.SetField("stack", stringList(stack))
	message := ""
	if msg, ok := obj.Field("message"); ok {
		message = runtime.Stringify(msg)
	}
	e := &RodaError{object: obj, message: message, stack: stack}
	if causes, ok := obj.Field("causes"); ok {
		if list, ok := causes.(*runtime.ListValue); ok {
			for _, c := range list.Elements() {
				if rec, ok := c.(*runtime.RecordInstanceValue); ok && rec.IsInstanceOf(string(ErrorKindError), nil) {
					e.causes = append(e.causes, i.wrapObject(rec))
				}
			}
		}
	}
	if _, ok := obj.Field("nativestack"); !ok {
		obj.SetField("nativestack", stringList(nil))
	}
	return e
}

// wrapObject views an existing error object as a RodaError without
// touching it.
func (i *Interpreter) wrapObject(obj *runtime.RecordInstanceValue) *RodaError {
	e := &RodaError{object: obj}
	if msg, ok := obj.Field("message"); ok {
		e.message = runtime.Stringify(msg)
	}
	e.stack = stringsOf(obj, "stack")
	e.nativeStack = stringsOf(obj, "nativestack")
	if causes, ok := obj.Field("causes"); ok {
		if list, ok := causes.(*runtime.ListValue); ok {
			for _, c := range list.Elements() {
				if rec, ok := c.(*runtime.RecordInstanceValue); ok {
					e.causes = append(e.causes, i.wrapObject(rec))
				}
			}
		}
	}
	return e
}

func stringsOf(obj *runtime.RecordInstanceValue, field string) []string {
	v, ok := obj.Field(field)
	if !ok {
		return nil
	}
	list, ok := v.(*runtime.ListValue)
	if !ok {
		return nil
	}
	var out []string
	for _, e := range list.Elements() {
		out = append(out, runtime.Stringify(e))
	}
	return out
}

// asRodaError converts any failure into a language error. Host errors and
// panics become JavaError.
func (i *Interpreter) asRodaError(state *evalState, err error) *RodaError {
	var re *RodaError
	if errors.As(err, &re) {
		return re
	}
	var hp *hostPanic
	if errors.As(err, &hp) {
		return i.buildError(state, ErrorKindJava, hp.Error(), splitLines(string(hp.stack)), nil)
	}
	if isSignal(err) {
		return i.newError(state, ErrorKindError, "unexpected "+err.Error())
	}
	var native []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		native = append(native, fmt.Sprintf("%T: %v", e, e))
	}
	return i.buildError(state, ErrorKindJava, err.Error(), native, nil)
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		out = append(out, strings.TrimSpace(line))
	}
	return out
}

func (i *Interpreter) errorf(state *evalState, kind ErrorKind, format string, args ...any) error {
	return i.newError(state, kind, fmt.Sprintf(format, args...))
}

func (i *Interpreter) illegalArguments(state *evalState, format string, args ...any) error {
	return i.errorf(state, ErrorKindIllegalArguments, format, args...)
}

func (i *Interpreter) typeMismatch(state *evalState, format string, args ...any) error {
	return i.errorf(state, ErrorKindTypeMismatch, format, args...)
}

func (i *Interpreter) unknownName(state *evalState, format string, args ...any) error {
	return i.errorf(state, ErrorKindUnknownName, format, args...)
}

func (i *Interpreter) outOfBounds(state *evalState, format string, args ...any) error {
	return i.errorf(state, ErrorKindOutOfBounds, format, args...)
}

func (i *Interpreter) emptyStream(state *evalState, format string, args ...any) error {
	return i.errorf(state, ErrorKindEmptyStream, format, args...)
}

func (i *Interpreter) fullStream(state *evalState, format string, args ...any) error {
	return i.errorf(state, ErrorKindFullStream, format, args...)
}

func (i *Interpreter) plainError(state *evalState, format string, args ...any) error {
	return i.errorf(state, ErrorKindError, format, args...)
}

func argumentUnderflow(name string, required, got int) string {
	return fmt.Sprintf("illegal number of arguments for '%s': at least %d required (got %d)", name, required, got)
}

func argumentCount(name string, required, got int) string {
	return fmt.Sprintf("illegal number of arguments for '%s': %d required (got %d)", name, required, got)
}

// DescribeError renders err with its stack and causes for display.
func DescribeError(err error) string {
	var re *RodaError
	if !errors.As(err, &re) {
		return err.Error()
	}
	var b strings.Builder
	describeInto(&b, re, "")
	return strings.TrimRight(b.String(), "\n")
}

func describeInto(b *strings.Builder, e *RodaError, indent string) {
	fmt.Fprintf(b, "%s%s: %s\n", indent, e.Kind(), e.message)
	for _, frame := range e.stack {
		for _, line := range strings.Split(frame, "\n") {
			fmt.Fprintf(b, "%s  %s\n", indent, strings.TrimSpace(line))
		}
	}
	for _, line := range e.nativeStack {
		fmt.Fprintf(b, "%s  | %s\n", indent, line)
	}
	for _, c := range e.causes {
		fmt.Fprintf(b, "%scaused by:\n", indent)
		describeInto(b, c, indent+"  ")
	}
}
