package indexing

// Ordinal is the position of a call record in ingest order. It is small and
// contiguous so it can live in roaring bitmaps.
type Ordinal = uint32
