package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseCreate  Phase = "create"  // native allocation
	PhaseRelease Phase = "release" // native release
	PhaseCall    Phase = "call"    // any other native call
	PhaseDispose Phase = "dispose" // wrapper disposal
	PhaseDrain   Phase = "drain"   // pending-queue drain
	PhaseLoad    Phase = "load"    // native library loading
	PhaseConfig  Phase = "config"  // configuration
)

// Kind categorizes the error
type Kind string

const (
	KindNativeFailure  Kind = "native_failure"
	KindInvalidHandle  Kind = "invalid_handle"
	KindDoubleRelease  Kind = "double_release"
	KindDisposed       Kind = "disposed"
	KindNotInstalled   Kind = "not_installed"
	KindExhausted      Kind = "exhausted"
	KindLeaked         Kind = "leaked"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindMissingExport  Kind = "missing_export"
	KindInstantiation  Kind = "instantiation"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindClosed         Kind = "closed"
)

// Error is the structured error type used throughout handlekit
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string
	Detail string
	ID     uint64
	Code   int32
	HasID  bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}

	if e.HasID {
		b.WriteString(" (id ")
		b.WriteString(strconv.FormatUint(e.ID, 10))
		b.WriteByte(')')
	}

	if e.Code != 0 {
		b.WriteString(" code=")
		b.WriteString(strconv.FormatInt(int64(e.Code), 10))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the native operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// ID sets the native identifier involved
func (b *Builder) ID(id uint64) *Builder {
	b.err.ID = id
	b.err.HasID = true
	return b
}

// Code sets the native status code
func (b *Builder) Code(code int32) *Builder {
	b.err.Code = code
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NativeFailure creates an error for a native call that left a failure status
func NativeFailure(op string, code int32, msg string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNativeFailure,
		Op:     op,
		Code:   code,
		Detail: msg,
	}
}

// InvalidHandle creates an error for an identifier the native layer does not know
func InvalidHandle(phase Phase, id uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		ID:     id,
		HasID:  true,
		Detail: "identifier not issued by this library",
	}
}

// DoubleRelease creates an error for a release of an already released identifier
func DoubleRelease(id uint64) *Error {
	return &Error{
		Phase:  PhaseRelease,
		Kind:   KindDoubleRelease,
		ID:     id,
		HasID:  true,
		Detail: "identifier already released",
	}
}

// Disposed creates an error for use of a wrapper after disposal
func Disposed(what string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindDisposed,
		Detail: fmt.Sprintf("%s used after dispose", what),
	}
}

// NotInstalled creates an error for an operation that needs the subsystem installed
func NotInstalled(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInstalled,
		Detail: fmt.Sprintf("%s requires the subsystem to be installed", what),
	}
}

// Exhausted creates an error for a native layer that cannot issue more identifiers
func Exhausted(limit int) *Error {
	return &Error{
		Phase:  PhaseCreate,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("no free identifiers (limit %d)", limit),
	}
}

// Leaked creates an error reporting pending disposals abandoned at teardown
func Leaked(count int) *Error {
	return &Error{
		Phase:  PhaseDrain,
		Kind:   KindLeaked,
		Detail: fmt.Sprintf("%d pending disposal(s) abandoned", count),
	}
}

// Closed creates an error for use of a closed library or scheduler
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate native module",
		Cause:  cause,
	}
}

// Load creates a native library loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a configuration parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}

// MissingExportsError is returned when a native module lacks functions the
// binding requires
type MissingExportsError struct {
	Module  string
	Exports []string
}

// NewMissingExportsError creates an error listing the absent exports
func NewMissingExportsError(module string, exports []string) *MissingExportsError {
	return &MissingExportsError{
		Module:  module,
		Exports: append([]string(nil), exports...),
	}
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] missing_export: no exports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "module %q is missing %d export(s):", e.Module, len(e.Exports))
	for _, name := range e.Exports {
		b.WriteString("\n  - ")
		b.WriteString(name)
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	switch t := target.(type) {
	case *MissingExportsError:
		return true
	case *Error:
		return t.Phase == PhaseLoad && t.Kind == KindMissingExport
	}
	return false
}
