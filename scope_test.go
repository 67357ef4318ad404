package dotted

import (
	"errors"
	"testing"
)

func scopeTree() Tree {
	return Tree{
		"name": "root",
		"a": Tree{
			"name": "mid",
			"b": Tree{
				"local": "leaf",
			},
			"shared": Tree{"deep": true},
		},
		"company": Tree{"title": "Acme"},
	}
}

func TestResolveScopeBare(t *testing.T) {
	tree := scopeTree()

	// Current scope first.
	v, ok, err := resolveScope("local", []string{"a", "b"}, tree)
	if err != nil || !ok || v != "leaf" {
		t.Errorf("local = (%v, %v, %v), want leaf", v, ok, err)
	}

	// Absolute from root when the scoped lookup misses.
	v, ok, err = resolveScope("company.title", []string{"a", "b"}, tree)
	if err != nil || !ok || v != "Acme" {
		t.Errorf("company.title = (%v, %v, %v), want Acme", v, ok, err)
	}

	// Ordinary miss is not an error.
	_, ok, err = resolveScope("nope", []string{"a", "b"}, tree)
	if err != nil || ok {
		t.Errorf("miss = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func TestResolveScopeTreeWalk(t *testing.T) {
	tree := scopeTree()

	// Nearest enclosing definition wins over the root's.
	v, ok, err := resolveScope(".name", []string{"a", "b"}, tree)
	if err != nil || !ok || v != "mid" {
		t.Errorf(".name = (%v, %v, %v), want mid", v, ok, err)
	}

	// Walks all the way to the root when nothing closer defines it.
	v, ok, err = resolveScope(".company", []string{"a", "b"}, tree)
	if err != nil || !ok {
		t.Fatalf(".company = (ok=%v, err=%v), want hit", ok, err)
	}

	if _, isTree := v.(Tree); !isTree {
		t.Errorf(".company resolved to %T, want Tree", v)
	}
}

func TestResolveScopeParent(t *testing.T) {
	tree := scopeTree()

	// Two dots: climb one level, then resolve.
	v, ok, err := resolveScope("..name", []string{"a", "b"}, tree)
	if err != nil || !ok || v != "mid" {
		t.Errorf("..name = (%v, %v, %v), want mid", v, ok, err)
	}

	// Three dots: climb two levels to the root.
	v, ok, err = resolveScope("...name", []string{"a", "b"}, tree)
	if err != nil || !ok || v != "root" {
		t.Errorf("...name = (%v, %v, %v), want root", v, ok, err)
	}

	// Multi-segment remainder resolves relative to the ancestor.
	v, ok, err = resolveScope("..shared.deep", []string{"a", "b"}, tree)
	if err != nil || !ok || v != true {
		t.Errorf("..shared.deep = (%v, %v, %v), want true", v, ok, err)
	}
}

func TestResolveScopeParentTreeWalkFallback(t *testing.T) {
	// Direct lookup at the ancestor misses; single-segment references
	// fall back to tree-walking anchored at that ancestor.
	tree := Tree{
		"name": "root",
		"a":    Tree{"b": Tree{}},
	}

	v, ok, err := resolveScope("..name", []string{"a", "b"}, tree)
	if err != nil || !ok || v != "root" {
		t.Errorf("..name = (%v, %v, %v), want root", v, ok, err)
	}
}

func TestResolveScopeParentExceedsRoot(t *testing.T) {
	tree := scopeTree()

	// For every scope shorter than the climb requires, the reference
	// is a typed, fatal error.
	scopes := [][]string{nil, {"a"}, {"a", "b"}}

	for _, scope := range scopes {
		ref := "...." + "name" // climbs 3 levels; deepest scope here is 2

		_, _, err := resolveScope(ref, scope, tree)
		if !errors.Is(err, ErrParentRef) {
			t.Errorf("scope %v: err = %v, want ErrParentRef", scope, err)
		}
	}

	// One dot past the exact depth is still fatal.
	_, _, err := resolveScope("...x", []string{"a"}, tree)
	if !errors.Is(err, ErrParentRef) {
		t.Errorf("err = %v, want ErrParentRef", err)
	}

	// Climbing exactly to the root is legal.
	v, ok, err := resolveScope("..name", []string{"a"}, tree)
	if err != nil || !ok || v != "root" {
		t.Errorf("..name from [a] = (%v, %v, %v), want root", v, ok, err)
	}
}

func TestLeadingDots(t *testing.T) {
	tests := []struct {
		ref  string
		want int
	}{
		{"foo", 0},
		{".foo", 1},
		{"..foo", 2},
		{"...foo", 3},
		{"", 0},
	}

	for _, tc := range tests {
		if got := leadingDots(tc.ref); got != tc.want {
			t.Errorf("leadingDots(%q) = %d, want %d", tc.ref, got, tc.want)
		}
	}
}
