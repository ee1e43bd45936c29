package trees

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/callindex/cidx/records"
)

func TestNumberPrefixIndex(t *testing.T) {
	b := NewNumberPrefixIndexBuilder()
	for _, n := range []records.PhoneNumber{4155550101, 4155550199, 4155550101, 415555, 6175550000} {
		b.Insert(n)
	}
	idx := b.Finish()

	require.Empty(t, idx.Validate())
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, 2, idx.Calls(4155550101))
	assert.Equal(t, 0, idx.Calls(1))

	tests := []struct {
		prefix string
		want   []records.PhoneNumber
	}{
		{"41555501", []records.PhoneNumber{4155550101, 4155550199}},
		{"0000", []records.PhoneNumber{415555}},
		{"617", []records.PhoneNumber{6175550000}},
		{"9", []records.PhoneNumber{}},
		{"", []records.PhoneNumber{415555, 4155550101, 4155550199, 6175550000}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, idx.PrefixLookup(tt.prefix), "prefix %q", tt.prefix)
	}

	assert.Equal(t, "", idx.LongestCommonPrefix())
	assert.Equal(t, "0000415555", FormatNumber(415555))

	assert.PanicsWithValue(t, ErrSealed, func() { b.Insert(1) })
}

func TestNumberPrefixIndexCommonPrefix(t *testing.T) {
	b := NewNumberPrefixIndexBuilder()
	b.Insert(4155550101)
	b.Insert(4155550199)
	b.Insert(4155551000)
	idx := b.Finish()

	assert.Equal(t, "415555", idx.LongestCommonPrefix())
	assert.Equal(t, "", NewNumberPrefixIndexBuilder().Finish().LongestCommonPrefix())
}
