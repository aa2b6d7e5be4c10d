package btree

import "sort"

// Nodes smaller than this are scanned linearly; larger ones use binary search.
const searchThreshold = 32

// lowerBound returns the smallest index i such that key <= keys[i], or
// len(keys) if every key is smaller.
func lowerBound(keys []string, key string) int {
	if len(keys) < searchThreshold {
		i := 0
		for i < len(keys) && key > keys[i] {
			i++
		}
		return i
	}

	return sort.Search(len(keys), func(i int) bool {
		return key <= keys[i]
	})
}

// upperBound returns the smallest index i such that key < keys[i], or
// len(keys) if no key is greater. Equal keys sort before the returned index,
// so a duplicate lands after its existing twin.
func upperBound(keys []string, key string) int {
	if len(keys) < searchThreshold {
		i := len(keys) - 1
		for i >= 0 && key < keys[i] {
			i--
		}
		return i + 1
	}

	return sort.Search(len(keys), func(i int) bool {
		return key < keys[i]
	})
}
