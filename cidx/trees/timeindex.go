package trees

import (
	"time"

	"github.com/ZanzyTHEbar/callindex/cidx/records"
)

func compareTime(a, b time.Time) int { return a.Compare(b) }

// TimeIndexBuilder accumulates call records by timestamp.
type TimeIndexBuilder struct {
	tree    *Tree[time.Time, *recordBucket]
	entries int
}

// NewTimeIndexBuilder creates an empty builder.
func NewTimeIndexBuilder() *TimeIndexBuilder {
	return &TimeIndexBuilder{tree: NewFunc[time.Time, *recordBucket](compareTime)}
}

// Insert files rec under ts. Insert panics with ErrSealed after Finish.
func (b *TimeIndexBuilder) Insert(ts time.Time, rec *records.CallRecord) {
	if b.tree == nil {
		panic(ErrSealed)
	}
	b.tree.Upsert(ts, newRecordBucket(rec), appendRecord(rec))
	b.entries++
}

// Finish returns the read-only index. The builder cannot be used afterwards.
func (b *TimeIndexBuilder) Finish() *TimeIndex {
	if b.tree == nil {
		panic(ErrSealed)
	}
	idx := &TimeIndex{tree: b.tree, entries: b.entries}
	b.tree = nil
	return idx
}

// TimeIndex is a read-only index of call records ordered by timestamp.
type TimeIndex struct {
	tree    *Tree[time.Time, *recordBucket]
	entries int
}

func (idx *TimeIndex) Len() int          { return idx.tree.Len() }
func (idx *TimeIndex) Entries() int      { return idx.entries }
func (idx *TimeIndex) Height() int       { return idx.tree.Height() }
func (idx *TimeIndex) Validate() []error { return idx.tree.Validate() }

// At returns the records stamped exactly ts.
func (idx *TimeIndex) At(ts time.Time) []*records.CallRecord {
	b, ok := idx.tree.Get(ts)
	if !ok {
		return []*records.CallRecord{}
	}
	return b.Slice()
}

// Bounds returns the tightest stored timestamps inside [start, end]: the
// first key not before start and the last key not after end. ok is false
// when no stored timestamp falls in the range.
func (idx *TimeIndex) Bounds(start, end time.Time) (lower, upper time.Time, ok bool) {
	lower, _, okLo := idx.tree.Ceiling(start)
	upper, _, okHi := idx.tree.Floor(end)
	if !okLo || !okHi || lower.After(upper) {
		return time.Time{}, time.Time{}, false
	}
	return lower, upper, true
}

// CallsInRange returns every record timestamped within [start, end], ordered
// by timestamp and, for equal timestamps, by insertion.
func (idx *TimeIndex) CallsInRange(start, end time.Time) []*records.CallRecord {
	calls := []*records.CallRecord{}
	lower, upper, ok := idx.Bounds(start, end)
	if !ok {
		return calls
	}
	idx.tree.AscendRange(lower, upper, func(_ time.Time, b *recordBucket) bool {
		calls = append(calls, b.Slice()...)
		return true
	})
	return calls
}

// First returns the earliest stored timestamp.
func (idx *TimeIndex) First() (time.Time, bool) {
	ts, _, ok := idx.tree.Min()
	return ts, ok
}

// Last returns the latest stored timestamp.
func (idx *TimeIndex) Last() (time.Time, bool) {
	ts, _, ok := idx.tree.Max()
	return ts, ok
}
