package dotted

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr/vm"
)

// exprKind classifies a string value's shape. Classification happens at
// evaluation time; an expression is not a distinct stored type.
type exprKind int

const (
	// kindPlain is an ordinary string, returned unchanged.
	kindPlain exprKind = iota

	// kindSubstitution contains ${...} interpolation blocks only.
	kindSubstitution

	// kindComputed contains a function-call pattern and is compiled
	// and run with expr-lang.
	kindComputed
)

var (
	interpPattern = regexp.MustCompile(`\$\{([^}]*)\}`)

	// A dotted identifier chain immediately followed by an opening
	// paren, e.g. "divide(" or "math.divide(".
	callPattern = regexp.MustCompile(
		`\b[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*\(`,
	)
)

// classify determines how a raw string value is evaluated.
func classify(raw string) exprKind {
	switch {
	case callPattern.MatchString(raw):
		return kindComputed
	case strings.Contains(raw, "${"):
		return kindSubstitution
	default:
		return kindPlain
	}
}

// evaluator expands one expression against a document. The scope path
// locates the container holding the expression; it lives only for the
// duration of a single evaluation call.
type evaluator struct {
	doc   *Document
	scope []string
}

func (ev *evaluator) evaluate(ctx context.Context, raw string) (any, error) {
	switch classify(raw) {
	case kindSubstitution:
		return ev.substitute(raw)

	case kindComputed:
		return ev.compute(ctx, raw)

	default:
		return raw, nil
	}
}

// substitute expands ${...} blocks by scope resolution. When the whole
// trimmed string is exactly one block, the referenced value is returned
// with its type intact, so "${count}" can yield a number rather than
// its decimal rendering. Otherwise each block is replaced with the
// string form of its value; null/undefined values render as the
// literal "undefined".
func (ev *evaluator) substitute(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)

	if m := interpPattern.FindStringSubmatch(trimmed); m != nil && m[0] == trimmed {
		value, _, err := resolveScope(
			strings.TrimSpace(m[1]), ev.scope, ev.doc.tree,
		)
		if err != nil {
			return nil, err
		}

		return value, nil
	}

	var refErr error

	out := interpPattern.ReplaceAllStringFunc(raw, func(block string) string {
		ref := strings.TrimSpace(block[2 : len(block)-1])

		value, ok, err := resolveScope(ref, ev.scope, ev.doc.tree)
		if err != nil {
			if refErr == nil {
				refErr = err
			}

			return ""
		}

		if !ok || value == nil {
			return "undefined"
		}

		return stringify(value)
	})

	if refErr != nil {
		return nil, refErr
	}

	return out, nil
}

// compute interpolates ${...} blocks into expression literals,
// substitutes pronoun placeholders, and runs the result with expr-lang
// against the resolver environment.
func (ev *evaluator) compute(ctx context.Context, raw string) (any, error) {
	source, err := ev.interpolate(raw)
	if err != nil {
		return nil, err
	}

	live := ev.doc.liveVariants(ev.scope)
	source = substitutePronouns(source, live[DimLang], live[DimGender])

	program, err := compileCached(source)
	if err != nil {
		return nil, err
	}

	out, err := vm.Run(program, ev.doc.runEnv(ctx))
	if err != nil {
		return nil, ErrEvaluate.Wrap(err).
			With(slog.String("source", source))
	}

	return out, nil
}

// interpolate replaces each ${...} block with a literal representation
// of its resolved value: quoted strings, bare numeric and boolean
// literals, JSON for containers, nil for undefined references.
func (ev *evaluator) interpolate(raw string) (string, error) {
	var refErr error

	out := interpPattern.ReplaceAllStringFunc(raw, func(block string) string {
		ref := strings.TrimSpace(block[2 : len(block)-1])

		value, ok, err := resolveScope(ref, ev.scope, ev.doc.tree)
		if err != nil {
			if refErr == nil {
				refErr = err
			}

			return ""
		}

		if !ok {
			return "nil"
		}

		return literal(value)
	})

	return out, refErr
}

// literal renders a resolved value as expr-lang source text.
func literal(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"

	case string:
		return strconv.Quote(val)

	case bool:
		return strconv.FormatBool(val)

	case int:
		return strconv.Itoa(val)

	case int64:
		return strconv.FormatInt(val, 10)

	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)

	default:
		// Containers and anything else: JSON is valid expr syntax for
		// maps and arrays.
		data, err := json.Marshal(val)
		if err != nil {
			return strconv.Quote(fmt.Sprintf("%v", val))
		}

		return string(data)
	}
}

// stringify renders a resolved value for substitution-mode output.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val

	case bool:
		return strconv.FormatBool(val)

	case int:
		return strconv.Itoa(val)

	case int64:
		return strconv.FormatInt(val, 10)

	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)

	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}

		return string(data)
	}
}

// Type-coercion helpers exposed to computed expressions. Numeric
// coercion (int, float) is provided by expr-lang's own builtins; these
// cover the remainder of the vocabulary.

// coerceBool converts common truthy shapes to bool.
func coerceBool(v any) (bool, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case int:
		return val != 0, nil
	case int64:
		return val != 0, nil
	case float64:
		return val != 0, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, ErrEvaluate.Wrap(err).
				With(slog.String("value", val))
		}

		return b, nil
	default:
		return false, ErrEvaluate.With(
			slog.String("issue", "cannot coerce to bool"),
			slog.String("type", fmt.Sprintf("%T", v)),
		)
	}
}

// coerceJSON parses a JSON string into a value; non-string inputs are
// normalized through a marshal/unmarshal round trip.
func coerceJSON(v any) (any, error) {
	var data []byte

	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		data = []byte(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return nil, ErrEvaluate.Wrap(err)
		}

		data = encoded
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, ErrEvaluate.Wrap(err)
	}

	return out, nil
}
