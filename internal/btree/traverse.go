package btree

import (
	"iter"
	"strings"
)

// Ascend calls fn for every entry in ascending key order. fn returns false to
// stop the walk early. Ascend reports whether the walk ran to completion.
func (tr *Tree[V]) Ascend(fn func(key string, value V) bool) bool {
	return tr.root.ascend(fn)
}

func (n *node[V]) ascend(fn func(key string, value V) bool) bool {
	for i := range n.keys {
		if !n.leaf && !n.children[i].ascend(fn) {
			return false
		}
		if !fn(n.keys[i], n.values[i]) {
			return false
		}
	}
	if !n.leaf {
		return n.children[len(n.keys)].ascend(fn)
	}
	return true
}

// Walk visits every value in ascending key order.
func (tr *Tree[V]) Walk(fn func(value V)) {
	tr.root.ascend(func(_ string, v V) bool {
		fn(v)
		return true
	})
}

// All returns an iterator over the tree in ascending key order. Each range
// over the iterator starts a fresh walk from the root.
func (tr *Tree[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		tr.root.ascend(yield)
	}
}

// PrefixSearch returns, in key order, every value whose field has the given
// prefix. Matching is case-sensitive and runs over the whole tree: the key
// carries a tiebreaker after the field, so matches are not a contiguous key
// range in general.
func (tr *Tree[V]) PrefixSearch(prefix string, field func(V) string) []V {
	var out []V
	tr.Walk(func(v V) {
		if strings.HasPrefix(field(v), prefix) {
			out = append(out, v)
		}
	})
	return out
}
