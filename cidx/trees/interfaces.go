package trees

// Validator is implemented by every index that can check its own invariants.
type Validator interface {
	Validate() []error
}

// IndexShape is a point-in-time summary of one index tree.
type IndexShape struct {
	Name    string
	Keys    int // distinct keys (tree nodes)
	Entries int // bucket entries across all keys
	Height  int
}

// Balanced reports whether the height is within the AVL bound of
// 1.44·log2(keys+2) for the recorded key count.
func (s IndexShape) Balanced() bool {
	return float64(s.Height) <= avlHeightBound(s.Keys)
}
