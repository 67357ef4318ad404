package dotted

import (
	"errors"
	"log/slog"
	"strings"
)

// Sentinel errors returned by the engine. Compare with errors.Is; the
// sentinels match across Wrap/With derivations.
var (
	ErrParentRef    = NewError("parent reference exceeds root")
	ErrBadPath      = NewError("malformed document path")
	ErrCompile      = NewError("expression compilation failed")
	ErrEvaluate     = NewError("expression evaluation failed")
	ErrFallback     = NewError("fallback value failed")
	ErrValidate     = NewError("validation failed")
	ErrVariantValue = NewError("invalid variant value")
)

// Error is an error with a stable base message, an optional wrapped
// cause, and slog attributes carrying structured context. It
// implements error, errors.Unwrap, and slog.LogValuer.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates an Error with the given base message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError converts an arbitrary error into an *Error, reusing one
// already present in err's chain.
func WrapError(err error) *Error {
	wrapped := &Error{}
	if errors.As(err, &wrapped) {
		return wrapped
	}

	return &Error{err: err}
}

// Error renders "<msg>: <cause>", omitting whichever half is unset.
func (e *Error) Error() string {
	parts := make([]string, 0, 2)

	if e.msg != "" {
		parts = append(parts, e.msg)
	}

	if e.err != nil {
		parts = append(parts, e.err.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches any *Error sharing the same base message, so a sentinel
// compares equal to every Wrap/With derivation of itself. Errors with
// no base message never match this way; only identity (handled by
// errors.Is itself) relates them.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)

	return ok && e.msg != "" && e.msg == other.msg
}

// LogValue implements slog.LogValuer: the base message, the cause, and
// any attached attributes as one group.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap derives a copy of e carrying err as its cause. The receiver is
// never modified, so sentinels stay pristine.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With derives a copy of e with additional slog attributes.
func (e *Error) With(attrs ...slog.Attr) *Error {
	merged := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	merged = append(merged, e.attrs...)
	merged = append(merged, attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: merged}
}
