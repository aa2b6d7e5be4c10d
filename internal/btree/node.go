// Package btree implements an in-memory B-Tree of fixed minimum degree with
// string keys and opaque values.
//
// Every non-root node holds between t-1 and 2t-1 keys. Insertion splits full
// nodes on the way down, so the tree only ever grows at the root and all
// leaves stay at the same depth. There is no deletion.
//
// A Tree is not safe for concurrent use. Callers that share one across
// goroutines must serialize access themselves.
package btree

// node is a B-Tree node. keys and values are parallel; an internal node has
// exactly len(keys)+1 children, a leaf has none.
type node[V any] struct {
	keys     []string
	values   []V
	children []*node[V]
	leaf     bool
}

func newNode[V any](leaf bool) *node[V] {
	return &node[V]{
		keys:     make([]string, 0),
		values:   make([]V, 0),
		children: make([]*node[V], 0),
		leaf:     leaf,
	}
}

// isFull reports whether the node holds 2t-1 keys
func (n *node[V]) isFull(t int) bool {
	return len(n.keys) >= 2*t-1
}

// insertAt inserts a key/value pair at pos, shifting later entries right
func (n *node[V]) insertAt(pos int, key string, value V) {
	n.keys = append(n.keys, "")
	copy(n.keys[pos+1:], n.keys[pos:])
	n.keys[pos] = key

	var zero V
	n.values = append(n.values, zero)
	copy(n.values[pos+1:], n.values[pos:])
	n.values[pos] = value
}

// insertChildAt inserts a child pointer at pos
func (n *node[V]) insertChildAt(pos int, child *node[V]) {
	n.children = append(n.children, nil)
	copy(n.children[pos+1:], n.children[pos:])
	n.children[pos] = child
}
