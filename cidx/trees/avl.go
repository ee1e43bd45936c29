package trees

import (
	"cmp"
	"fmt"
)

// avlNode is a tree node. Children are owned exclusively; there is no parent link.
type avlNode[K, V any] struct {
	key    K
	value  V
	height int
	left   *avlNode[K, V]
	right  *avlNode[K, V]
}

// Tree is an AVL tree mapping each distinct key to one value. Multi-valued
// indices store a bucket as the value and append to it on repeated keys.
//
// Tree is not safe for concurrent mutation. Once insertion stops, any number
// of goroutines may read it.
type Tree[K, V any] struct {
	root    *avlNode[K, V]
	compare func(a, b K) int
	size    int
}

// New creates a tree over a naturally ordered key type.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return NewFunc[K, V](cmp.Compare[K])
}

// NewFunc creates a tree ordered by compare, which must define a strict total order.
func NewFunc[K, V any](compare func(a, b K) int) *Tree[K, V] {
	return &Tree[K, V]{compare: compare}
}

func height[K, V any](n *avlNode[K, V]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *avlNode[K, V]) fix() {
	n.height = max(height(n.left), height(n.right)) + 1
}

// rotateRight resolves a left-left imbalance at k2.
func rotateRight[K, V any](k2 *avlNode[K, V]) *avlNode[K, V] {
	k1 := k2.left
	k2.left = k1.right
	k1.right = k2
	k2.fix()
	k1.fix()
	return k1
}

// rotateLeft resolves a right-right imbalance at k1.
func rotateLeft[K, V any](k1 *avlNode[K, V]) *avlNode[K, V] {
	k2 := k1.right
	k1.right = k2.left
	k2.left = k1
	k1.fix()
	k2.fix()
	return k2
}

func rotateLeftRight[K, V any](k3 *avlNode[K, V]) *avlNode[K, V] {
	k3.left = rotateLeft(k3.left)
	return rotateRight(k3)
}

func rotateRightLeft[K, V any](k1 *avlNode[K, V]) *avlNode[K, V] {
	k1.right = rotateRight(k1.right)
	return rotateLeft(k1)
}

// Upsert stores a value for key. When key is absent a node holding create() is
// added and the tree rebalanced; otherwise update receives the existing value
// and its result replaces it without changing the tree shape. Upsert reports
// whether a node was created.
func (t *Tree[K, V]) Upsert(key K, create func() V, update func(V) V) bool {
	var created bool
	t.root = t.upsert(t.root, key, create, update, &created)
	if created {
		t.size++
	}
	return created
}

func (t *Tree[K, V]) upsert(n *avlNode[K, V], key K, create func() V, update func(V) V, created *bool) *avlNode[K, V] {
	if n == nil {
		*created = true
		return &avlNode[K, V]{key: key, value: create(), height: 1}
	}

	switch c := t.compare(key, n.key); {
	case c < 0:
		n.left = t.upsert(n.left, key, create, update, created)
		if height(n.left)-height(n.right) == 2 {
			if t.compare(key, n.left.key) < 0 {
				n = rotateRight(n)
			} else {
				n = rotateLeftRight(n)
			}
		}
	case c > 0:
		n.right = t.upsert(n.right, key, create, update, created)
		if height(n.right)-height(n.left) == 2 {
			if t.compare(key, n.right.key) > 0 {
				n = rotateLeft(n)
			} else {
				n = rotateRightLeft(n)
			}
		}
	default:
		n.value = update(n.value)
	}

	n.fix()
	return n
}

// Put inserts key with value, replacing any existing value.
func (t *Tree[K, V]) Put(key K, value V) bool {
	return t.Upsert(key, func() V { return value }, func(V) V { return value })
}

func (t *Tree[K, V]) find(key K) *avlNode[K, V] {
	n := t.root
	for n != nil {
		c := t.compare(key, n.key)
		switch {
		case c < 0:
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// Get returns the value stored at key.
func (t *Tree[K, V]) Get(key K) (V, bool) {
	if n := t.find(key); n != nil {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is present in O(log n).
func (t *Tree[K, V]) Contains(key K) bool {
	return t.find(key) != nil
}

// Ceiling returns the smallest key not less than key.
func (t *Tree[K, V]) Ceiling(key K) (K, V, bool) {
	var best *avlNode[K, V]
	n := t.root
	for n != nil {
		c := t.compare(key, n.key)
		switch {
		case c < 0:
			best = n
			n = n.left
		case c > 0:
			n = n.right
		default:
			return n.key, n.value, true
		}
	}
	return unpack(best)
}

// Floor returns the largest key not greater than key.
func (t *Tree[K, V]) Floor(key K) (K, V, bool) {
	var best *avlNode[K, V]
	n := t.root
	for n != nil {
		c := t.compare(key, n.key)
		switch {
		case c < 0:
			n = n.left
		case c > 0:
			best = n
			n = n.right
		default:
			return n.key, n.value, true
		}
	}
	return unpack(best)
}

// Min returns the smallest key.
func (t *Tree[K, V]) Min() (K, V, bool) {
	n := t.root
	for n != nil && n.left != nil {
		n = n.left
	}
	return unpack(n)
}

// Max returns the largest key.
func (t *Tree[K, V]) Max() (K, V, bool) {
	n := t.root
	for n != nil && n.right != nil {
		n = n.right
	}
	return unpack(n)
}

func unpack[K, V any](n *avlNode[K, V]) (K, V, bool) {
	if n == nil {
		var (
			k K
			v V
		)
		return k, v, false
	}
	return n.key, n.value, true
}

// Ascend calls fn for every entry in key order until fn returns false.
func (t *Tree[K, V]) Ascend(fn func(key K, value V) bool) {
	ascend(t.root, fn)
}

func ascend[K, V any](n *avlNode[K, V], fn func(K, V) bool) bool {
	if n == nil {
		return true
	}
	return ascend(n.left, fn) && fn(n.key, n.value) && ascend(n.right, fn)
}

// AscendRange calls fn in key order for every key in [lo, hi] until fn
// returns false. Subtrees wholly outside the range are not visited.
func (t *Tree[K, V]) AscendRange(lo, hi K, fn func(key K, value V) bool) {
	t.ascendRange(t.root, lo, hi, fn)
}

func (t *Tree[K, V]) ascendRange(n *avlNode[K, V], lo, hi K, fn func(K, V) bool) bool {
	if n == nil {
		return true
	}
	aboveLo := t.compare(n.key, lo) >= 0
	belowHi := t.compare(n.key, hi) <= 0
	if aboveLo && !t.ascendRange(n.left, lo, hi, fn) {
		return false
	}
	if aboveLo && belowHi && !fn(n.key, n.value) {
		return false
	}
	if !belowHi {
		// every key to the right is greater still
		return true
	}
	return t.ascendRange(n.right, lo, hi, fn)
}

// Keys returns every key in ascending order.
func (t *Tree[K, V]) Keys() []K {
	keys := make([]K, 0, t.size)
	t.Ascend(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Len returns the number of distinct keys.
func (t *Tree[K, V]) Len() int { return t.size }

// Height returns the height of the root, 0 for an empty tree.
func (t *Tree[K, V]) Height() int { return height(t.root) }

// Validate checks the AVL balance, ordering and stored-height invariants and
// returns one error per violation found.
func (t *Tree[K, V]) Validate() []error {
	var errs []error
	count := t.validate(t.root, nil, nil, &errs)
	if count != t.size {
		errs = append(errs, fmt.Errorf("size mismatch: counted %d nodes, recorded %d", count, t.size))
	}
	return errs
}

func (t *Tree[K, V]) validate(n *avlNode[K, V], lo, hi *K, errs *[]error) int {
	if n == nil {
		return 0
	}
	if lo != nil && t.compare(n.key, *lo) <= 0 {
		*errs = append(*errs, fmt.Errorf("ordering violated: key %v not greater than ancestor %v", n.key, *lo))
	}
	if hi != nil && t.compare(n.key, *hi) >= 0 {
		*errs = append(*errs, fmt.Errorf("ordering violated: key %v not less than ancestor %v", n.key, *hi))
	}
	lh, rh := height(n.left), height(n.right)
	if d := lh - rh; d > 1 || d < -1 {
		*errs = append(*errs, fmt.Errorf("balance violated at key %v: left height %d, right height %d", n.key, lh, rh))
	}
	if want := max(lh, rh) + 1; n.height != want {
		*errs = append(*errs, fmt.Errorf("stale height at key %v: stored %d, actual %d", n.key, n.height, want))
	}
	return 1 + t.validate(n.left, lo, &n.key, errs) + t.validate(n.right, &n.key, hi, errs)
}
