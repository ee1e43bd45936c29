package records

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2017, 9, 1, 0, 0, 0, 0, time.UTC)

func TestCallRecord(t *testing.T) {
	tests := []struct {
		name string
		test func(t *testing.T)
	}{
		{"PathIsCopied", testRecordPathIsCopied},
		{"Fault", testRecordFault},
		{"DistinctHops", testRecordDistinctHops},
		{"WindowInclusive", testWindowInclusive},
		{"String", testRecordString},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.test)
	}
}

func testRecordPathIsCopied(t *testing.T) {
	path := []SwitchID{10, 20}
	rec := NewCallRecord(1, 2, 10, 20, path, baseTime)

	path[0] = 99
	assert.Equal(t, []SwitchID{10, 20}, rec.Path(), "constructor must copy the path")

	got := rec.Path()
	got[1] = 77
	assert.Equal(t, []SwitchID{10, 20}, rec.Path(), "Path must return a copy")
	assert.Equal(t, 2, rec.PathLen())
	assert.Equal(t, SwitchID(20), rec.Hop(1))
}

func testRecordFault(t *testing.T) {
	tests := []struct {
		name      string
		path      []SwitchID
		receiving SwitchID
		want      SwitchID
		faulty    bool
	}{
		{"path ends at receiving switch", []SwitchID{10, 20}, 20, 0, false},
		{"path ends elsewhere", []SwitchID{10, 20}, 30, 20, true},
		{"empty path blames dialling switch", nil, 30, 10, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := NewCallRecord(1, 2, 10, tt.receiving, tt.path, baseTime)
			got, faulty := rec.Fault()
			assert.Equal(t, tt.faulty, faulty)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testRecordDistinctHops(t *testing.T) {
	rec := NewCallRecord(1, 2, 10, 10, []SwitchID{10, 20, 10, 30, 20}, baseTime)
	assert.Equal(t, []SwitchID{10, 20, 30}, rec.DistinctHops())

	empty := NewCallRecord(1, 2, 10, 10, nil, baseTime)
	assert.Empty(t, empty.DistinctHops())
	_, ok := empty.LastHop()
	assert.False(t, ok)
}

func testWindowInclusive(t *testing.T) {
	w := NewWindow(baseTime, baseTime.Add(time.Hour))

	assert.True(t, w.Contains(baseTime), "start is inclusive")
	assert.True(t, w.Contains(baseTime.Add(time.Hour)), "end is inclusive")
	assert.False(t, w.Contains(baseTime.Add(-time.Millisecond)))
	assert.False(t, w.Contains(baseTime.Add(time.Hour+time.Millisecond)))
}

func testRecordString(t *testing.T) {
	ts := baseTime.Add(5*time.Second + 123*time.Millisecond)
	rec := NewCallRecord(7041234567, 7049876543, 12345, 54321, []SwitchID{12345, 54321}, ts)
	require.Equal(t, "7041234567 12345 12345 54321 54321 7049876543 2017-09-01T00:00:05.123", rec.String())

	whole := NewCallRecord(1, 2, 3, 4, nil, baseTime)
	assert.Equal(t, "0000000001 00003 00004 0000000002 2017-09-01T00:00:00", whole.String())

	fine := NewCallRecord(1, 2, 3, 4, nil, baseTime.Add(123456789*time.Nanosecond))
	assert.True(t, strings.HasSuffix(fine.String(), "2017-09-01T00:00:00.123456789"), "sub-millisecond precision is kept")
}

func TestBucket(t *testing.T) {
	t.Run("EmptyBucket", func(t *testing.T) {
		b := NewBucket[int]()
		assert.True(t, b.IsEmpty())
		assert.Equal(t, 0, b.Len())
		assert.Empty(t, b.Slice())
		for range b.All() {
			t.Fatal("empty bucket must not yield")
		}
	})

	t.Run("InsertionOrder", func(t *testing.T) {
		b := NewBucket(3, 1, 2)
		b.Add(1)
		assert.Equal(t, 4, b.Len())
		assert.Equal(t, []int{3, 1, 2, 1}, b.Slice())

		var seen []int
		for v := range b.All() {
			seen = append(seen, v)
		}
		assert.Equal(t, []int{3, 1, 2, 1}, seen)
	})

	t.Run("EarlyStop", func(t *testing.T) {
		b := NewBucket(1, 2, 3, 4)
		var seen []int
		for v := range b.All() {
			if v == 3 {
				break
			}
			seen = append(seen, v)
		}
		assert.Equal(t, []int{1, 2}, seen)
	})
}
