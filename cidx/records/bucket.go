package records

import "iter"

type bucketNode[T any] struct {
	item T
	next *bucketNode[T]
}

// Bucket is an append-only singly linked list that iterates in insertion order.
// There is no removal and no random access; call history is never rewritten.
type Bucket[T any] struct {
	head *bucketNode[T]
	tail *bucketNode[T]
	n    int
}

// NewBucket returns a bucket holding the given items in order.
func NewBucket[T any](items ...T) *Bucket[T] {
	b := &Bucket[T]{}
	for _, item := range items {
		b.Add(item)
	}
	return b
}

// Add appends item in O(1).
func (b *Bucket[T]) Add(item T) {
	n := &bucketNode[T]{item: item}
	if b.tail == nil {
		b.head = n
	} else {
		b.tail.next = n
	}
	b.tail = n
	b.n++
}

func (b *Bucket[T]) Len() int      { return b.n }
func (b *Bucket[T]) IsEmpty() bool { return b.head == nil }

// All iterates the bucket front to back.
func (b *Bucket[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := b.head; n != nil; n = n.next {
			if !yield(n.item) {
				return
			}
		}
	}
}

// Slice copies the bucket into a new slice.
func (b *Bucket[T]) Slice() []T {
	out := make([]T, 0, b.n)
	for n := b.head; n != nil; n = n.next {
		out = append(out, n.item)
	}
	return out
}
