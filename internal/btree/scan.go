package btree

import (
	"fmt"
	"math"
)

// ScanResult is one page of a filtered scan.
type ScanResult[V any] struct {
	Items []V
	// HasMore is true only when another matching entry exists past this page.
	HasMore bool
	// Matched counts the matches visited before the walk stopped.
	Matched int
}

// Scan walks the tree in key order and returns page number page (1-based) of
// the entries accepted by match, pageSize entries per page. The walk stops as
// soon as the page is full and one further match has been seen, or the tree
// is exhausted. Skipped matches are counted but never collected.
func (tr *Tree[V]) Scan(match func(V) bool, page, pageSize int) (ScanResult[V], error) {
	if page < 1 || pageSize < 1 {
		return ScanResult[V]{}, fmt.Errorf("%w: page=%d pageSize=%d", ErrInvalidPage, page, pageSize)
	}

	// No tree can hold more than math.MaxInt entries, so a page whose offset
	// overflows is past the end.
	if page-1 > math.MaxInt/pageSize {
		return ScanResult[V]{Items: []V{}}, nil
	}
	offset := (page - 1) * pageSize
	res := ScanResult[V]{Items: make([]V, 0, min(pageSize, 64))}

	tr.Ascend(func(_ string, v V) bool {
		if !match(v) {
			return true
		}
		res.Matched++
		if res.Matched <= offset {
			return true
		}
		if len(res.Items) == pageSize {
			res.HasMore = true
			return false
		}
		res.Items = append(res.Items, v)
		return true
	})

	return res, nil
}
