package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	internal "github.com/ZanzyTHEbar/callindex/cidx"
	"github.com/ZanzyTHEbar/callindex/cidx/records"
	"github.com/ZanzyTHEbar/callindex/cidx/trees"
)

// minFields is dialler, dialler switch, receiver switch, receiver, timestamp.
const minFields = 5

var lineValidate = validator.New()

// rawRecord holds the textual fields of one line before conversion.
type rawRecord struct {
	Dialler  string   `validate:"len=10,number"`
	Receiver string   `validate:"len=10,number"`
	Switches []string `validate:"min=2,dive,len=5,number"`
}

// Parser turns call record lines into validated records.
type Parser struct {
	switches   *trees.KeySet[records.SwitchID]
	timeLayout string
}

// NewParser returns a parser checking switch fields against switches. An
// empty layout selects the default ISO-8601 local date-time layout.
func NewParser(switches *trees.KeySet[records.SwitchID], timeLayout string) *Parser {
	if switches == nil {
		switches = trees.NewKeySet[records.SwitchID]()
	}
	if timeLayout == "" {
		timeLayout = internal.DefaultTimeLayout
	}
	return &Parser{switches: switches, timeLayout: timeLayout}
}

// ParseLine parses one whitespace-separated line of the form
//
//	dialler diallerSwitch [hop...] receiverSwitch receiver timestamp
//
// When hops are present the first one must be the dialling switch. The
// timestamp carries no zone and is read as UTC.
func (p *Parser) ParseLine(line string) (*records.CallRecord, error) {
	fields := strings.Fields(line)
	n := len(fields)
	if n < minFields {
		return nil, fmt.Errorf("%w: got %d, want at least %d", ErrFieldCount, n, minFields)
	}

	raw := rawRecord{
		Dialler:  fields[0],
		Receiver: fields[n-2],
		Switches: fields[1 : n-2],
	}
	if err := lineValidate.Struct(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFieldWidth, err)
	}

	dialler, err := strconv.ParseInt(raw.Dialler, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: dialler %q", ErrFieldWidth, raw.Dialler)
	}
	receiver, err := strconv.ParseInt(raw.Receiver, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: receiver %q", ErrFieldWidth, raw.Receiver)
	}

	switches := make([]records.SwitchID, len(raw.Switches))
	for i, s := range raw.Switches {
		sw, err := parseSwitch(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFieldWidth, err)
		}
		if !p.switches.Contains(sw) {
			return nil, fmt.Errorf("%w %05d", ErrUnknownSwitch, sw)
		}
		switches[i] = sw
	}

	diallerSwitch := switches[0]
	receiverSwitch := switches[len(switches)-1]
	path := switches[1 : len(switches)-1]

	if len(path) > 0 && path[0] != diallerSwitch {
		return nil, fmt.Errorf("%w: first hop %05d, dialling switch %05d", ErrPathOrigin, path[0], diallerSwitch)
	}
	for i := 1; i < len(path); i++ {
		if path[i] == path[i-1] {
			return nil, fmt.Errorf("%w %05d at position %d", ErrDuplicateHop, path[i], i)
		}
	}

	ts, err := time.ParseInLocation(p.timeLayout, fields[n-1], time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTimestamp, err)
	}

	return records.NewCallRecord(
		records.PhoneNumber(dialler),
		records.PhoneNumber(receiver),
		diallerSwitch,
		receiverSwitch,
		path,
		ts,
	), nil
}
