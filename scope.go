package dotted

import "log/slog"

// resolveScope resolves a variable reference relative to a scope path.
//
// Reference forms:
//
//   - "foo.bar"  direct lookup under the current scope, then absolute
//     from the root
//   - ".foo"     tree-walking lookup: the nearest enclosing scope that
//     defines foo, searching from the current scope up to the root
//   - "..foo"    explicit parent reference: N leading dots climb N-1
//     levels before resolving; climbing past the root is a fatal error
//
// Ordinary misses return (nil, false, nil). Only a parent reference
// exceeding the root returns an error.
func resolveScope(ref string, scopePath []string, tree Tree) (any, bool, error) {
	dots := leadingDots(ref)
	rest := ref[dots:]

	switch {
	case dots == 0:
		// Current scope first, then absolute from the root.
		segs := splitPath(rest)

		if v, ok := lookup(tree, concat(scopePath, segs)); ok {
			return v, true, nil
		}

		if v, ok := lookup(tree, segs); ok {
			return v, true, nil
		}

		return nil, false, nil

	case dots == 1:
		v, ok := treeWalk(tree, scopePath, splitPath(rest))

		return v, ok, nil

	default:
		up := dots - 1
		if up > len(scopePath) {
			return nil, false, ErrParentRef.With(
				slog.String("reference", ref),
				slog.Int("levels", up),
				slog.String("scope", joinPath(scopePath)),
			)
		}

		anchor := scopePath[:len(scopePath)-up]
		segs := splitPath(rest)

		if v, ok := lookup(tree, concat(anchor, segs)); ok {
			return v, true, nil
		}

		// Single-segment references fall back to tree-walking, anchored
		// at the computed ancestor rather than the full current scope.
		if len(segs) == 1 {
			v, ok := treeWalk(tree, anchor, segs)

			return v, ok, nil
		}

		return nil, false, nil
	}
}

// treeWalk searches for segs at every scope from the deepest prefix of
// scopePath up to the root, returning the first defined hit. This gives
// "nearest enclosing scope defines it" semantics.
func treeWalk(tree Tree, scopePath, segs []string) (any, bool) {
	for depth := len(scopePath); depth >= 0; depth-- {
		if v, ok := lookup(tree, concat(scopePath[:depth], segs)); ok {
			return v, true
		}
	}

	return nil, false
}

// leadingDots counts the '.' prefix of a reference.
func leadingDots(ref string) int {
	n := 0
	for n < len(ref) && ref[n] == '.' {
		n++
	}

	return n
}

// concat returns a new slice holding a followed by b.
func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)

	return append(out, b...)
}
