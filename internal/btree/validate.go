package btree

import "fmt"

// Validate checks the B-Tree invariants over the whole tree: key counts per
// node, child counts of internal nodes, key order inside nodes and against
// the separators above them, and equal depth for every leaf. Any violation
// is reported as ErrCorruptIndex with the path of the offending node.
func (tr *Tree[V]) Validate() error {
	v := validator[V]{t: tr.t, leafDepth: -1}
	return v.check(tr.root, "root", 0, nil, nil)
}

type validator[V any] struct {
	t         int
	leafDepth int
}

func (v *validator[V]) check(n *node[V], path string, depth int, lo, hi *string) error {
	k := len(n.keys)
	isRoot := depth == 0

	if len(n.values) != k {
		return v.corrupt(path, "%d keys and %d values", k, len(n.values))
	}
	if k > 2*v.t-1 {
		return v.corrupt(path, "%d keys exceeds maximum %d", k, 2*v.t-1)
	}
	if !isRoot && k < v.t-1 {
		return v.corrupt(path, "%d keys below minimum %d", k, v.t-1)
	}

	for i, key := range n.keys {
		if i > 0 && key < n.keys[i-1] {
			return v.corrupt(path, "key %d %q sorts before key %d %q", i, key, i-1, n.keys[i-1])
		}
		if lo != nil && key < *lo {
			return v.corrupt(path, "key %q sorts before separator %q", key, *lo)
		}
		if hi != nil && key > *hi {
			return v.corrupt(path, "key %q sorts after separator %q", key, *hi)
		}
	}

	if n.leaf {
		if len(n.children) != 0 {
			return v.corrupt(path, "leaf has %d children", len(n.children))
		}
		if v.leafDepth < 0 {
			v.leafDepth = depth
		} else if v.leafDepth != depth {
			return v.corrupt(path, "leaf at depth %d, expected %d", depth, v.leafDepth)
		}
		return nil
	}

	if k == 0 {
		return v.corrupt(path, "internal node without keys")
	}
	if len(n.children) != k+1 {
		return v.corrupt(path, "%d keys and %d children", k, len(n.children))
	}

	for i, c := range n.children {
		if c == nil {
			return v.corrupt(path, "child %d is nil", i)
		}
		clo, chi := lo, hi
		if i > 0 {
			clo = &n.keys[i-1]
		}
		if i < k {
			chi = &n.keys[i]
		}
		if err := v.check(c, fmt.Sprintf("%s/%d", path, i), depth+1, clo, chi); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator[V]) corrupt(path, format string, args ...any) error {
	return fmt.Errorf("%w: node %s: %s", ErrCorruptIndex, path, fmt.Sprintf(format, args...))
}
