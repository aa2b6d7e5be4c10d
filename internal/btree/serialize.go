package btree

import "fmt"

// SerialNode is the persisted shape of a node. Leaves carry an empty
// Children slice.
type SerialNode[V any] struct {
	Keys     []string         `json:"keys"`
	Values   []V              `json:"values"`
	Leaf     bool             `json:"leaf"`
	Children []*SerialNode[V] `json:"children"`
}

// SerialTree is the persisted shape of a tree: its minimum degree and root.
type SerialTree[V any] struct {
	T    int            `json:"t"`
	Root *SerialNode[V] `json:"root"`
}

// Serialize maps the tree onto nested SerialNodes, one per node. The result
// shares no slices with the tree.
func (tr *Tree[V]) Serialize() *SerialTree[V] {
	return &SerialTree[V]{
		T:    tr.t,
		Root: tr.root.serialize(),
	}
}

func (n *node[V]) serialize() *SerialNode[V] {
	sn := &SerialNode[V]{
		Keys:     append(make([]string, 0, len(n.keys)), n.keys...),
		Values:   append(make([]V, 0, len(n.values)), n.values...),
		Leaf:     n.leaf,
		Children: make([]*SerialNode[V], 0, len(n.children)),
	}
	for _, c := range n.children {
		sn.Children = append(sn.Children, c.serialize())
	}
	return sn
}

// Deserialize rebuilds a tree from its serialized form. It rejects forms
// that cannot be rebuilt at all (bad degree, missing nodes, mismatched
// key/value/child counts) but does not check ordering, fill or balance; run
// Validate for that.
func Deserialize[V any](st *SerialTree[V]) (*Tree[V], error) {
	if st == nil || st.Root == nil {
		return nil, fmt.Errorf("%w: missing root", ErrCorruptIndex)
	}
	if st.T < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDegree, st.T)
	}

	tr := &Tree[V]{t: st.T}
	root, err := tr.deserialize(st.Root, "root")
	if err != nil {
		return nil, err
	}
	tr.root = root
	return tr, nil
}

func (tr *Tree[V]) deserialize(sn *SerialNode[V], path string) (*node[V], error) {
	if sn == nil {
		return nil, fmt.Errorf("%w: node %s is null", ErrCorruptIndex, path)
	}
	if len(sn.Keys) != len(sn.Values) {
		return nil, fmt.Errorf("%w: node %s has %d keys and %d values",
			ErrCorruptIndex, path, len(sn.Keys), len(sn.Values))
	}
	if sn.Leaf && len(sn.Children) != 0 {
		return nil, fmt.Errorf("%w: leaf %s has %d children", ErrCorruptIndex, path, len(sn.Children))
	}
	if !sn.Leaf && len(sn.Children) != len(sn.Keys)+1 {
		return nil, fmt.Errorf("%w: node %s has %d keys and %d children",
			ErrCorruptIndex, path, len(sn.Keys), len(sn.Children))
	}

	n := newNode[V](sn.Leaf)
	n.keys = append(n.keys, sn.Keys...)
	n.values = append(n.values, sn.Values...)
	tr.count += len(n.keys)

	if sn.Leaf {
		return n, nil
	}
	for i, sc := range sn.Children {
		c, err := tr.deserialize(sc, fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, c)
	}
	return n, nil
}
