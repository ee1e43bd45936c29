package trees

import (
	"cmp"
	"log/slog"
)

// KeySetBuilder collects the keys of an ordered set. Finish hands the tree to
// a read-only KeySet.
type KeySetBuilder[K cmp.Ordered] struct {
	tree *Tree[K, struct{}]
}

// NewKeySetBuilder creates an empty builder.
func NewKeySetBuilder[K cmp.Ordered]() *KeySetBuilder[K] {
	return &KeySetBuilder[K]{tree: New[K, struct{}]()}
}

// Insert adds key. A duplicate is logged and ignored; Insert reports whether
// the key was new. Insert panics with ErrSealed after Finish.
func (b *KeySetBuilder[K]) Insert(key K) bool {
	if b.tree == nil {
		panic(ErrSealed)
	}
	added := b.tree.Upsert(key,
		func() struct{} { return struct{}{} },
		func(v struct{}) struct{} { return v },
	)
	if !added {
		slog.Debug("Duplicate key ignored", "key", key)
	}
	return added
}

// Finish returns the read-only set. The builder cannot be used afterwards.
func (b *KeySetBuilder[K]) Finish() *KeySet[K] {
	if b.tree == nil {
		panic(ErrSealed)
	}
	s := &KeySet[K]{tree: b.tree}
	b.tree = nil
	return s
}

// KeySet is a read-only ordered set answering membership in O(log n). It backs
// the known-switch universe consulted while validating call records.
type KeySet[K cmp.Ordered] struct {
	tree *Tree[K, struct{}]
}

// NewKeySet returns a finished set holding keys.
func NewKeySet[K cmp.Ordered](keys ...K) *KeySet[K] {
	b := NewKeySetBuilder[K]()
	for _, k := range keys {
		b.Insert(k)
	}
	return b.Finish()
}

func (s *KeySet[K]) Contains(key K) bool { return s.tree.Contains(key) }
func (s *KeySet[K]) Len() int            { return s.tree.Len() }
func (s *KeySet[K]) Height() int         { return s.tree.Height() }
func (s *KeySet[K]) Keys() []K           { return s.tree.Keys() }
func (s *KeySet[K]) Validate() []error   { return s.tree.Validate() }
