package btree

import (
	"errors"
	"fmt"
)

// DefaultDegree is the minimum degree used when callers have no preference.
const DefaultDegree = 3

var (
	ErrInvalidDegree = errors.New("btree: minimum degree must be at least 2")
	ErrCorruptIndex  = errors.New("btree: corrupt index")
	ErrInvalidPage   = errors.New("btree: page and page size must be at least 1")
)

// Tree is a B-Tree of minimum degree t keyed by strings.
type Tree[V any] struct {
	root  *node[V]
	t     int
	count int
}

// New creates an empty tree of minimum degree t. The root starts as an empty
// leaf.
func New[V any](t int) (*Tree[V], error) {
	if t < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDegree, t)
	}
	return &Tree[V]{
		root: newNode[V](true),
		t:    t,
	}, nil
}

// Degree returns the minimum degree t
func (tr *Tree[V]) Degree() int {
	return tr.t
}

// Len returns the number of entries, duplicates included
func (tr *Tree[V]) Len() int {
	return tr.count
}

// Height returns the number of levels. An empty tree has height 1.
func (tr *Tree[V]) Height() int {
	h := 1
	for n := tr.root; !n.leaf; n = n.children[0] {
		h++
	}
	return h
}

// Search returns the value stored under key. The second result is false when
// the key is absent; that is a normal outcome, not an error. With duplicate
// keys the first one met on the way down wins.
func (tr *Tree[V]) Search(key string) (V, bool) {
	n := tr.root
	for {
		i := lowerBound(n.keys, key)
		if i < len(n.keys) && n.keys[i] == key {
			return n.values[i], true
		}
		if n.leaf {
			var zero V
			return zero, false
		}
		n = n.children[i]
	}
}

// Insert adds key with value. It never fails. Inserting an existing key keeps
// both entries; callers that need unique keys must guarantee them.
func (tr *Tree[V]) Insert(key string, value V) {
	r := tr.root
	if r.isFull(tr.t) {
		// Grow upward: the old root becomes the only child of a new root and
		// is split immediately, lifting its median.
		s := newNode[V](false)
		s.children = append(s.children, r)
		tr.root = s
		tr.splitChild(s, 0)
	}
	tr.insertNonFull(tr.root, key, value)
	tr.count++
}

// insertNonFull inserts into a subtree whose root n is known not to be full
func (tr *Tree[V]) insertNonFull(n *node[V], key string, value V) {
	for !n.leaf {
		i := upperBound(n.keys, key)
		if n.children[i].isFull(tr.t) {
			tr.splitChild(n, i)
			// The promoted median now sits at keys[i]; go right of it if the
			// new key sorts after it.
			if key > n.keys[i] {
				i++
			}
		}
		n = n.children[i]
	}
	n.insertAt(upperBound(n.keys, key), key, value)
}

// splitChild splits the full child parent.children[i]. The child keeps its
// first t-1 entries, a new right sibling takes the last t-1, and the median
// moves up into parent at index i.
func (tr *Tree[V]) splitChild(parent *node[V], i int) {
	t := tr.t
	y := parent.children[i]
	z := newNode[V](y.leaf)

	z.keys = append(z.keys, y.keys[t:]...)
	z.values = append(z.values, y.values[t:]...)
	if !y.leaf {
		z.children = append(z.children, y.children[t:]...)
	}

	midKey, midValue := y.keys[t-1], y.values[t-1]

	// Drop references held past the new length so moved values can be
	// collected once the sibling is gone.
	clear(y.values[t-1:])
	y.keys = y.keys[:t-1]
	y.values = y.values[:t-1]
	if !y.leaf {
		clear(y.children[t:])
		y.children = y.children[:t]
	}

	parent.insertAt(i, midKey, midValue)
	parent.insertChildAt(i+1, z)
}
