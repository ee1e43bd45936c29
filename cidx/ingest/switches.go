package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/callindex/cidx/records"
	"github.com/ZanzyTHEbar/callindex/cidx/trees"
)

// SwitchDigits is the fixed width of a switch id in decimal.
const SwitchDigits = 5

// ReadSwitches reads the known-switch list. The first line holds the number
// of switches and is skipped; every other non-blank line is one switch id.
func ReadSwitches(r io.Reader) (*trees.KeySet[records.SwitchID], error) {
	set := trees.NewKeySetBuilder[records.SwitchID]()
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo == 1 {
			continue
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		sw, err := parseSwitch(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		set.Insert(sw)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read switches: %w", err)
	}
	return set.Finish(), nil
}

func parseSwitch(s string) (records.SwitchID, error) {
	if len(s) != SwitchDigits {
		return 0, fmt.Errorf("%w %q", ErrInvalidSwitch, s)
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w %q", ErrInvalidSwitch, s)
	}
	return records.SwitchID(n), nil
}
