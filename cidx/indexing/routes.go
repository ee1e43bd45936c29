package indexing

import (
	roaring "github.com/RoaringBitmap/roaring"

	"github.com/ZanzyTHEbar/callindex/cidx/records"
)

// RouteBitmaps holds one roaring bitmap per switch: the ordinals of every
// call whose connection path visits that switch.
type RouteBitmaps struct {
	Switch map[records.SwitchID]*roaring.Bitmap
}

func NewRouteBitmaps() *RouteBitmaps {
	return &RouteBitmaps{Switch: make(map[records.SwitchID]*roaring.Bitmap)}
}

// Add marks call ord as routed through sw.
func (rb *RouteBitmaps) Add(sw records.SwitchID, ord Ordinal) {
	bm, ok := rb.Switch[sw]
	if !ok {
		bm = roaring.New()
		rb.Switch[sw] = bm
	}
	bm.Add(ord)
}

// Cardinality returns how many calls were routed through sw.
func (rb *RouteBitmaps) Cardinality(sw records.SwitchID) uint64 {
	if bm, ok := rb.Switch[sw]; ok {
		return bm.GetCardinality()
	}
	return 0
}

// All returns the intersection of the bitmaps of every given switch: calls
// routed through all of them. An unknown switch yields an empty bitmap.
func (rb *RouteBitmaps) All(switches ...records.SwitchID) *roaring.Bitmap {
	if len(switches) == 0 {
		return roaring.New()
	}
	// copy first
	res := rb.clone(rb.Switch[switches[0]])
	for _, sw := range switches[1:] {
		bm, ok := rb.Switch[sw]
		if !ok {
			return roaring.New()
		}
		res.And(bm)
	}
	return res
}

// Any returns the union of the bitmaps of the given switches.
func (rb *RouteBitmaps) Any(switches ...records.SwitchID) *roaring.Bitmap {
	res := roaring.New()
	for _, sw := range switches {
		if bm, ok := rb.Switch[sw]; ok {
			res.Or(bm)
		}
	}
	return res
}

func (rb *RouteBitmaps) clone(b *roaring.Bitmap) *roaring.Bitmap {
	if b == nil {
		return roaring.New()
	}
	c := roaring.New()
	c.Or(b) // copy
	return c
}
