package trees

import (
	"cmp"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ZanzyTHEbar/callindex/cidx/records"
)

type recordBucket = records.Bucket[*records.CallRecord]

func newRecordBucket(rec *records.CallRecord) func() *recordBucket {
	return func() *recordBucket { return records.NewBucket(rec) }
}

func appendRecord(rec *records.CallRecord) func(*recordBucket) *recordBucket {
	return func(b *recordBucket) *recordBucket {
		b.Add(rec)
		return b
	}
}

// RecordIndexBuilder accumulates call records under a key (a phone number or
// a switch id). Finish hands the tree to a read-only RecordIndex.
type RecordIndexBuilder[K cmp.Ordered] struct {
	tree    *Tree[K, *recordBucket]
	entries int
}

// NewRecordIndexBuilder creates an empty builder.
func NewRecordIndexBuilder[K cmp.Ordered]() *RecordIndexBuilder[K] {
	return &RecordIndexBuilder[K]{tree: New[K, *recordBucket]()}
}

// Insert files rec under key. Records sharing a key land in one bucket in
// insertion order. Insert panics with ErrSealed after Finish.
func (b *RecordIndexBuilder[K]) Insert(key K, rec *records.CallRecord) {
	if b.tree == nil {
		panic(ErrSealed)
	}
	b.tree.Upsert(key, newRecordBucket(rec), appendRecord(rec))
	b.entries++
}

// Finish returns the read-only index. The builder cannot be used afterwards.
func (b *RecordIndexBuilder[K]) Finish() *RecordIndex[K] {
	if b.tree == nil {
		panic(ErrSealed)
	}
	idx := &RecordIndex[K]{tree: b.tree, entries: b.entries}
	b.tree = nil
	return idx
}

// RecordIndex is a read-only multi-valued ordered index. All methods are safe
// for concurrent use.
type RecordIndex[K cmp.Ordered] struct {
	tree    *Tree[K, *recordBucket]
	entries int
}

// Len returns the number of distinct keys.
func (idx *RecordIndex[K]) Len() int { return idx.tree.Len() }

// Entries returns the number of bucket entries across all keys.
func (idx *RecordIndex[K]) Entries() int { return idx.entries }

func (idx *RecordIndex[K]) Height() int       { return idx.tree.Height() }
func (idx *RecordIndex[K]) Keys() []K         { return idx.tree.Keys() }
func (idx *RecordIndex[K]) Validate() []error { return idx.tree.Validate() }

// Count returns the bucket size at key.
func (idx *RecordIndex[K]) Count(key K) int {
	b, ok := idx.tree.Get(key)
	if !ok {
		return 0
	}
	return b.Len()
}

// collect projects every bucket entry at key that passes keep.
func collect[K cmp.Ordered, T any](idx *RecordIndex[K], key K, keep func(*records.CallRecord) bool, project func(*records.CallRecord) (T, bool)) []T {
	out := []T{}
	b, ok := idx.tree.Get(key)
	if !ok {
		return out
	}
	for rec := range b.All() {
		if keep != nil && !keep(rec) {
			continue
		}
		if v, ok := project(rec); ok {
			out = append(out, v)
		}
	}
	return out
}

func inWindow(w records.Window) func(*records.CallRecord) bool {
	return func(rec *records.CallRecord) bool { return rec.Within(w) }
}

func identity(rec *records.CallRecord) (*records.CallRecord, bool) { return rec, true }

func receiverOf(rec *records.CallRecord) (records.PhoneNumber, bool) { return rec.Receiver(), true }

func diallerOf(rec *records.CallRecord) (records.PhoneNumber, bool) { return rec.Dialler(), true }

// Records returns the bucket at key in insertion order.
func (idx *RecordIndex[K]) Records(key K) []*records.CallRecord {
	return collect(idx, key, nil, identity)
}

// RecordsWithin returns the bucket entries at key timestamped inside w.
func (idx *RecordIndex[K]) RecordsWithin(key K, w records.Window) []*records.CallRecord {
	return collect(idx, key, inWindow(w), identity)
}

// Receivers returns the receiving number of every record at key. Repeat
// calls to the same number appear once per call.
func (idx *RecordIndex[K]) Receivers(key K) []records.PhoneNumber {
	return collect(idx, key, nil, receiverOf)
}

// ReceiversWithin is Receivers restricted to records inside w.
func (idx *RecordIndex[K]) ReceiversWithin(key K, w records.Window) []records.PhoneNumber {
	return collect(idx, key, inWindow(w), receiverOf)
}

// Diallers returns the dialling number of every record at key.
func (idx *RecordIndex[K]) Diallers(key K) []records.PhoneNumber {
	return collect(idx, key, nil, diallerOf)
}

// DiallersWithin is Diallers restricted to records inside w.
func (idx *RecordIndex[K]) DiallersWithin(key K, w records.Window) []records.PhoneNumber {
	return collect(idx, key, inWindow(w), diallerOf)
}

// Faults returns, for every record at key whose routing is faulty, the switch
// at fault. Correctly terminated calls contribute nothing.
func (idx *RecordIndex[K]) Faults(key K) []records.SwitchID {
	return collect(idx, key, nil, (*records.CallRecord).Fault)
}

// FaultsWithin is Faults restricted to records inside w.
func (idx *RecordIndex[K]) FaultsWithin(key K, w records.Window) []records.SwitchID {
	return collect(idx, key, inWindow(w), (*records.CallRecord).Fault)
}

// extremum is the accumulator threaded through an aggregate fold.
type extremum[K cmp.Ordered] struct {
	count int
	key   K
	found bool
}

// offer folds one node into the accumulator. better reports whether count
// strictly beats the current extremum; ties go to the smaller key.
func (e extremum[K]) offer(key K, count int, better func(a, b int) bool) extremum[K] {
	switch {
	case !e.found, better(count, e.count):
		return extremum[K]{count: count, key: key, found: true}
	case count == e.count && key < e.key:
		e.key = key
	}
	return e
}

func (idx *RecordIndex[K]) fold(counter func(*recordBucket) int, better func(a, b int) bool) (K, bool) {
	var acc extremum[K]
	idx.tree.Ascend(func(key K, b *recordBucket) bool {
		if n := counter(b); n > 0 {
			acc = acc.offer(key, n, better)
		}
		return true
	})
	return acc.key, acc.found
}

func bucketSize(b *recordBucket) int { return b.Len() }

func countWithin(w records.Window) func(*recordBucket) int {
	return func(b *recordBucket) int {
		n := 0
		for rec := range b.All() {
			if rec.Within(w) {
				n++
			}
		}
		return n
	}
}

func greater(a, b int) bool { return a > b }
func less(a, b int) bool    { return a < b }

// MaxConnections returns the key with the largest bucket, the smallest such
// key on a tie. ok is false for an empty index.
func (idx *RecordIndex[K]) MaxConnections() (K, bool) {
	return idx.fold(bucketSize, greater)
}

// MaxConnectionsWithin counts only records inside w. Keys with no record in
// the window are not in contention; ok is false when no key has one.
func (idx *RecordIndex[K]) MaxConnectionsWithin(w records.Window) (K, bool) {
	return idx.fold(countWithin(w), greater)
}

// MinConnections returns the key with the smallest bucket, the smallest such
// key on a tie.
func (idx *RecordIndex[K]) MinConnections() (K, bool) {
	return idx.fold(bucketSize, less)
}

// MinConnectionsWithin counts only records inside w. A key must have carried
// at least one record in the window to be the minimum.
func (idx *RecordIndex[K]) MinConnectionsWithin(w records.Window) (K, bool) {
	return idx.fold(countWithin(w), less)
}

// BucketStats summarises bucket sizes across all keys.
type BucketStats struct {
	Keys   int
	Total  int
	Min    int
	Max    int
	Mean   float64
	StdDev float64
}

// BucketStats computes size statistics over every bucket.
func (idx *RecordIndex[K]) BucketStats() BucketStats {
	sizes := make([]float64, 0, idx.tree.Len())
	st := BucketStats{Min: math.MaxInt}
	idx.tree.Ascend(func(_ K, b *recordBucket) bool {
		n := b.Len()
		sizes = append(sizes, float64(n))
		st.Total += n
		st.Min = min(st.Min, n)
		st.Max = max(st.Max, n)
		return true
	})
	st.Keys = len(sizes)
	if st.Keys == 0 {
		st.Min = 0
		return st
	}
	if st.Keys == 1 {
		st.Mean = sizes[0]
		return st
	}
	st.Mean, st.StdDev = stat.MeanStdDev(sizes, nil)
	return st
}
