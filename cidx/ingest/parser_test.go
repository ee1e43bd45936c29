package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/callindex/cidx/records"
	"github.com/ZanzyTHEbar/callindex/cidx/trees"
)

func testSwitches() *trees.KeySet[records.SwitchID] {
	return trees.NewKeySet[records.SwitchID](10001, 10002, 10003, 10004, 10005)
}

func TestParseLine(t *testing.T) {
	p := NewParser(testSwitches(), "")

	t.Run("NoHops", func(t *testing.T) {
		rec, err := p.ParseLine("4000000001 10001 10002 4000000002 2017-09-01T10:00:00.123")
		require.NoError(t, err)
		assert.Equal(t, records.PhoneNumber(4000000001), rec.Dialler())
		assert.Equal(t, records.PhoneNumber(4000000002), rec.Receiver())
		assert.Equal(t, records.SwitchID(10001), rec.DiallerSwitch())
		assert.Equal(t, records.SwitchID(10002), rec.ReceiverSwitch())
		assert.Equal(t, 0, rec.PathLen())
		assert.Equal(t, time.Date(2017, 9, 1, 10, 0, 0, 123_000_000, time.UTC), rec.Timestamp())

		sw, faulty := rec.Fault()
		assert.True(t, faulty)
		assert.Equal(t, records.SwitchID(10001), sw)
	})

	t.Run("WithHops", func(t *testing.T) {
		rec, err := p.ParseLine("4000000001  10001 10001 10003 10002   10002 4000000002 2017-09-01T10:00:00")
		require.NoError(t, err)
		assert.Equal(t, []records.SwitchID{10001, 10003, 10002}, rec.Path())
		assert.Equal(t, records.SwitchID(10002), rec.ReceiverSwitch())
		_, faulty := rec.Fault()
		assert.False(t, faulty)
	})

	t.Run("LeadingZeros", func(t *testing.T) {
		rec, err := p.ParseLine("0000000042 10001 10002 0000000007 2017-09-01T10:00:00")
		require.NoError(t, err)
		assert.Equal(t, records.PhoneNumber(42), rec.Dialler())
		assert.Equal(t, records.PhoneNumber(7), rec.Receiver())
	})

	t.Run("Rejections", func(t *testing.T) {
		tests := []struct {
			name string
			line string
			want error
		}{
			{"empty", "", ErrFieldCount},
			{"four fields", "4000000001 10001 10002 4000000002", ErrFieldCount},
			{"short dialler", "400000001 10001 10002 4000000002 2017-09-01T10:00:00", ErrFieldWidth},
			{"long receiver", "4000000001 10001 10002 40000000022 2017-09-01T10:00:00", ErrFieldWidth},
			{"short switch", "4000000001 1001 10002 4000000002 2017-09-01T10:00:00", ErrFieldWidth},
			{"non digit", "40000000x1 10001 10002 4000000002 2017-09-01T10:00:00", ErrFieldWidth},
			{"signed number", "-400000001 10001 10002 4000000002 2017-09-01T10:00:00", ErrFieldWidth},
			{"unknown receiving switch", "4000000001 10001 10009 4000000002 2017-09-01T10:00:00", ErrUnknownSwitch},
			{"unknown hop", "4000000001 10001 10001 10009 10002 4000000002 2017-09-01T10:00:00", ErrUnknownSwitch},
			{"wrong origin", "4000000001 10001 10002 10003 4000000002 2017-09-01T10:00:00", ErrPathOrigin},
			{"repeated hop", "4000000001 10001 10001 10002 10002 10003 4000000002 2017-09-01T10:00:00", ErrDuplicateHop},
			{"bad month", "4000000001 10001 10002 4000000002 2017-13-01T10:00:00", ErrTimestamp},
			{"not a time", "4000000001 10001 10002 4000000002 yesterday", ErrTimestamp},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec, err := p.ParseLine(tt.line)
				assert.Nil(t, rec)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})

	t.Run("CustomLayout", func(t *testing.T) {
		cp := NewParser(testSwitches(), "2006-01-02T15:04")
		rec, err := cp.ParseLine("4000000001 10001 10002 4000000002 2017-09-01T10:30")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2017, 9, 1, 10, 30, 0, 0, time.UTC), rec.Timestamp())
	})

	t.Run("RoundTripsThroughString", func(t *testing.T) {
		line := "4000000001 10001 10001 10003 10002 4000000002 2017-09-01T10:00:00.250"
		rec, err := p.ParseLine(line)
		require.NoError(t, err)
		again, err := p.ParseLine(rec.String())
		require.NoError(t, err)
		assert.Equal(t, rec, again)
		assert.True(t, strings.HasPrefix(rec.String(), "4000000001 10001"))

		for _, ts := range []string{"2017-09-01T10:00:00", "2017-09-01T10:00:00.000001", "2017-09-01T10:00:00.123456789"} {
			rec, err := p.ParseLine("4000000001 10001 10002 4000000002 " + ts)
			require.NoError(t, err)
			again, err := p.ParseLine(rec.String())
			require.NoError(t, err)
			assert.Equal(t, rec.Timestamp(), again.Timestamp(), "timestamp %s", ts)
		}
	})
}

func TestReadSwitches(t *testing.T) {
	set, err := ReadSwitches(strings.NewReader("4\n10001\n10002\n\n10002\n 10005 \n"))
	require.NoError(t, err)
	assert.Equal(t, []records.SwitchID{10001, 10002, 10005}, set.Keys())

	_, err = ReadSwitches(strings.NewReader("2\n10001\nabcde\n"))
	require.ErrorIs(t, err, ErrInvalidSwitch)
	assert.Contains(t, err.Error(), "line 3")

	_, err = ReadSwitches(strings.NewReader("1\n123456\n"))
	assert.ErrorIs(t, err, ErrInvalidSwitch)

	set, err = ReadSwitches(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestReadRecords(t *testing.T) {
	input := strings.Join([]string{
		"4000000001 10001 10002 4000000002 2017-09-01T10:00:00",
		"",
		"4000000001 10001 10002",
		"4000000003 10001 10001 10004 10004 10004 4000000002 2017-09-01T10:00:01",
		"4000000003 10001 10001 10004 4000000002 2017-09-01T10:00:02",
		"4000000003 10001 10002 4000000002 noon",
		"4000000003 10001 10001 10003 10002 4000000001 2017-09-01T10:00:03",
	}, "\n")

	recs, rep, err := ReadRecords(strings.NewReader(input), NewParser(testSwitches(), ""))
	require.NoError(t, err)

	require.Len(t, recs, 3)
	assert.Equal(t, records.PhoneNumber(4000000001), recs[2].Receiver(), "records keep file order")

	assert.Equal(t, 7, rep.Lines)
	assert.Equal(t, 1, rep.Blank)
	assert.Equal(t, 3, rep.Accepted)
	assert.Equal(t, 3, rep.Rejected)
	assert.Equal(t, 3, rep.FirstRejected)
	assert.Equal(t, map[error]int{
		ErrFieldCount:   1,
		ErrDuplicateHop: 1,
		ErrTimestamp:    1,
	}, rep.ByReason)
}
