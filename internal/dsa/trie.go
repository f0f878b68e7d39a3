// Package dsa provides the index structures behind the motif catalog and
// peptide lookup. Uses go-radix for the compressed prefix tree.
package dsa

import (
	"github.com/armon/go-radix"
)

// Trie wraps go-radix as a typed, ordered key index.
//
// PROSITE accessions share long prefixes (PS00001 .. PS51999), so a radix
// tree keeps one node per distinct suffix and walks keys in lexicographic
// order, which gives the catalog a stable iteration order for free.
//
// Time Complexity: O(k) per operation where k is key length.
type Trie[V any] struct {
	tree *radix.Tree
}

// NewTrie creates an empty index.
func NewTrie[V any]() *Trie[V] {
	return &Trie[V]{tree: radix.New()}
}

// Insert adds or replaces the value stored under key.
// Returns true if an existing value was replaced.
func (t *Trie[V]) Insert(key string, value V) bool {
	_, updated := t.tree.Insert(key, value)
	return updated
}

// Get looks up a key.
func (t *Trie[V]) Get(key string) (V, bool) {
	val, found := t.tree.Get(key)
	if !found {
		var zero V
		return zero, false
	}
	v, ok := val.(V)
	return v, ok
}

// Delete removes a key. Returns true if the key was present.
func (t *Trie[V]) Delete(key string) bool {
	_, deleted := t.tree.Delete(key)
	return deleted
}

// Len returns the number of keys.
func (t *Trie[V]) Len() int {
	return t.tree.Len()
}

// Walk visits every entry in ascending key order.
// Returning false from fn stops the walk.
func (t *Trie[V]) Walk(fn func(key string, value V) bool) {
	t.tree.Walk(func(k string, v interface{}) bool {
		val, ok := v.(V)
		if !ok {
			return false
		}
		return !fn(k, val)
	})
}

// WalkPrefix visits entries whose key starts with prefix, in ascending order.
// Returning false from fn stops the walk.
func (t *Trie[V]) WalkPrefix(prefix string, fn func(key string, value V) bool) {
	t.tree.WalkPrefix(prefix, func(k string, v interface{}) bool {
		val, ok := v.(V)
		if !ok {
			return false
		}
		return !fn(k, val)
	})
}

// Keys returns all keys in ascending order.
func (t *Trie[V]) Keys() []string {
	keys := make([]string, 0, t.tree.Len())
	t.tree.Walk(func(k string, _ interface{}) bool {
		keys = append(keys, k)
		return false
	})
	return keys
}
