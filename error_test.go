package dotted

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestSentinelMatchesDerivations(t *testing.T) {
	derived := ErrEvaluate.
		Wrap(errors.New("boom")).
		With(slog.String("path", "x"))

	if !errors.Is(derived, ErrEvaluate) {
		t.Error("derived error does not match its sentinel")
	}

	if errors.Is(derived, ErrCompile) {
		t.Error("derived error matches an unrelated sentinel")
	}
}

func TestWrapErrorsAreNotEquivalent(t *testing.T) {
	// WrapError yields Errors with no base message; two of them must
	// not compare as the same error.
	a := WrapError(errors.New("first"))
	b := WrapError(errors.New("second"))

	if errors.Is(a, b) {
		t.Error("unrelated wrapped errors compare equivalent")
	}

	if !errors.Is(a, a) {
		t.Error("wrapped error does not match itself")
	}
}

func TestErrorRendering(t *testing.T) {
	base := NewError("bad thing")

	if got := base.Error(); got != "bad thing" {
		t.Errorf("Error() = %q, want bad thing", got)
	}

	wrapped := base.Wrap(errors.New("cause"))
	if got := wrapped.Error(); got != "bad thing: cause" {
		t.Errorf("Error() = %q, want bad thing: cause", got)
	}

	if !strings.Contains(WrapError(errors.New("only cause")).Error(), "only cause") {
		t.Error("cause-only error lost its message")
	}
}
