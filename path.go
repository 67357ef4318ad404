package dotted

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var errEmptyPath = errors.New("empty path")

// Tree is a JSON-like data tree: string keys mapping to primitives,
// nested trees, or arrays.
type Tree = map[string]any

// splitPath splits a dotted path into its segments.
// An empty path yields nil.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}

	return strings.Split(path, ".")
}

// joinPath is the inverse of splitPath.
func joinPath(segs []string) string {
	return strings.Join(segs, ".")
}

// lookup descends the tree along segs and reports whether a value is
// defined at that location. Numeric segments index into arrays.
func lookup(tree Tree, segs []string) (any, bool) {
	var current any = tree

	for _, seg := range segs {
		switch node := current.(type) {
		case Tree:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}

			current = next

		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}

			current = node[i]

		default:
			return nil, false
		}
	}

	return current, true
}

// setValue writes value at the dotted path, creating intermediate
// containers as needed. An intermediate segment occupied by a
// non-container value is overwritten with a fresh container.
func setValue(tree Tree, path string, value any) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return ErrBadPath.Wrap(errEmptyPath)
	}

	node := tree

	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(Tree)
		if !ok {
			child = Tree{}
			node[seg] = child
		}

		node = child
	}

	node[segs[len(segs)-1]] = value

	return nil
}

// deleteValue removes the terminal key at the dotted path if present.
// It reports whether a value was removed.
func deleteValue(tree Tree, path string) bool {
	segs := splitPath(path)
	if len(segs) == 0 {
		return false
	}

	node := tree

	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(Tree)
		if !ok {
			return false
		}

		node = child
	}

	last := segs[len(segs)-1]
	if _, ok := node[last]; !ok {
		return false
	}

	delete(node, last)

	return true
}

// deepMerge merges override onto base, one level per key: tree-valued
// overrides merge key-wise, everything else replaces wholesale.
func deepMerge(base, override Tree) Tree {
	merged := make(Tree, len(base)+len(override))

	for key, val := range base {
		merged[key] = deepCopy(val)
	}

	for key, val := range override {
		sub, ok := val.(Tree)
		if !ok {
			merged[key] = deepCopy(val)

			continue
		}

		existing, ok := merged[key].(Tree)
		if !ok {
			merged[key] = deepCopy(val)

			continue
		}

		merged[key] = deepMerge(existing, sub)
	}

	return merged
}

// deepCopy returns a structural copy of v. Trees and arrays are copied
// recursively; everything else is returned as-is.
func deepCopy(v any) any {
	switch node := v.(type) {
	case Tree:
		copied := make(Tree, len(node))
		for key, val := range node {
			copied[key] = deepCopy(val)
		}

		return copied

	case []any:
		copied := make([]any, len(node))
		for i, val := range node {
			copied[i] = deepCopy(val)
		}

		return copied

	default:
		return v
	}
}

// indexContainers walks the tree and records the sorted key list of
// every container, keyed by the container's dotted path. The root
// container is keyed by the empty string. Sorted order makes variant
// candidate iteration deterministic.
func indexContainers(tree Tree) map[string][]string {
	index := make(map[string][]string)
	indexInto(index, nil, tree)

	return index
}

func indexInto(index map[string][]string, prefix []string, tree Tree) {
	keys := make([]string, 0, len(tree))
	for key := range tree {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	index[joinPath(prefix)] = keys

	for _, key := range keys {
		if child, ok := tree[key].(Tree); ok {
			indexInto(index, append(prefix, key), child)
		}
	}
}
