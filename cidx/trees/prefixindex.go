package trees

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/armon/go-radix"

	"github.com/ZanzyTHEbar/callindex/cidx/records"
)

// PhoneDigits is the fixed width of a phone number in decimal.
const PhoneDigits = 10

// FormatNumber renders a phone number at its fixed width, keeping leading zeros.
func FormatNumber(n records.PhoneNumber) string {
	return fmt.Sprintf("%0*d", PhoneDigits, n)
}

// NumberPrefixIndexBuilder counts calls per phone number in a patricia tree
// keyed by the fixed-width decimal form, so that lexical prefix walks visit
// numbers in ascending order.
type NumberPrefixIndexBuilder struct {
	tree *radix.Tree
}

func NewNumberPrefixIndexBuilder() *NumberPrefixIndexBuilder {
	return &NumberPrefixIndexBuilder{tree: radix.New()}
}

// Insert records one call touching number.
func (b *NumberPrefixIndexBuilder) Insert(number records.PhoneNumber) {
	if b.tree == nil {
		panic(ErrSealed)
	}
	key := FormatNumber(number)
	count := 0
	if v, ok := b.tree.Get(key); ok {
		count = v.(int)
	}
	b.tree.Insert(key, count+1)
}

// Finish returns the read-only index.
func (b *NumberPrefixIndexBuilder) Finish() *NumberPrefixIndex {
	if b.tree == nil {
		panic(ErrSealed)
	}
	idx := &NumberPrefixIndex{tree: b.tree}
	b.tree = nil
	return idx
}

// NumberPrefixIndex answers "which numbers start with these digits" in O(k)
// to reach the prefix, where k is the prefix length.
type NumberPrefixIndex struct {
	tree *radix.Tree
}

func (idx *NumberPrefixIndex) Len() int { return idx.tree.Len() }

// Calls returns how many indexed calls touched number.
func (idx *NumberPrefixIndex) Calls(number records.PhoneNumber) int {
	v, ok := idx.tree.Get(FormatNumber(number))
	if !ok {
		return 0
	}
	return v.(int)
}

// PrefixLookup returns every distinct number whose decimal form starts with
// prefix, in ascending order. An empty prefix matches every number.
func (idx *NumberPrefixIndex) PrefixLookup(prefix string) []records.PhoneNumber {
	results := []records.PhoneNumber{}
	idx.tree.WalkPrefix(prefix, func(key string, _ interface{}) bool {
		n, err := strconv.ParseInt(key, 10, 64)
		if err == nil {
			results = append(results, records.PhoneNumber(n))
		}
		return false // Continue walking
	})

	slog.Debug("Number prefix lookup completed",
		"prefix", prefix,
		"results_count", len(results))

	return results
}

// LongestCommonPrefix returns the digits shared by every indexed number.
func (idx *NumberPrefixIndex) LongestCommonPrefix() string {
	if idx.tree.Len() == 0 {
		return ""
	}

	var longest string
	first := true
	idx.tree.Walk(func(key string, _ interface{}) bool {
		if first {
			longest = key
			first = false
		} else {
			longest = commonPrefix(longest, key)
		}
		return len(longest) == 0 // Stop if no common prefix
	})
	return longest
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}

// Validate checks that every key is a fixed-width number with a positive count.
func (idx *NumberPrefixIndex) Validate() []error {
	var errs []error
	idx.tree.Walk(func(key string, value interface{}) bool {
		if len(key) != PhoneDigits {
			errs = append(errs, fmt.Errorf("prefix index key %q is not %d digits", key, PhoneDigits))
		}
		if _, err := strconv.ParseInt(key, 10, 64); err != nil {
			errs = append(errs, fmt.Errorf("prefix index key %q is not numeric: %w", key, err))
		}
		if c, ok := value.(int); !ok || c <= 0 {
			errs = append(errs, fmt.Errorf("prefix index key %q has invalid count %v", key, value))
		}
		return false
	})
	return errs
}
