package records

import (
	"fmt"
	"strings"
	"time"
)

// PhoneNumber is the fixed-width numeric identity of a subscriber line.
type PhoneNumber int64

// SwitchID identifies a telephone switch.
type SwitchID int32

// TimeLayout renders timestamps as ISO-8601 local date-times, keeping any
// fraction down to the nanosecond and omitting trailing zeros.
const TimeLayout = "2006-01-02T15:04:05.999999999"

// CallRecord is a single call-detail record. It is immutable once built and is
// shared by pointer between every index bucket that references it.
type CallRecord struct {
	dialler        PhoneNumber
	receiver       PhoneNumber
	diallerSwitch  SwitchID
	receiverSwitch SwitchID
	path           []SwitchID
	timestamp      time.Time
}

// NewCallRecord builds a record. The connection path is copied.
func NewCallRecord(dialler, receiver PhoneNumber, diallerSwitch, receiverSwitch SwitchID, path []SwitchID, ts time.Time) *CallRecord {
	var p []SwitchID
	if len(path) > 0 {
		p = make([]SwitchID, len(path))
		copy(p, path)
	}
	return &CallRecord{
		dialler:        dialler,
		receiver:       receiver,
		diallerSwitch:  diallerSwitch,
		receiverSwitch: receiverSwitch,
		path:           p,
		timestamp:      ts,
	}
}

func (r *CallRecord) Dialler() PhoneNumber     { return r.dialler }
func (r *CallRecord) Receiver() PhoneNumber    { return r.receiver }
func (r *CallRecord) DiallerSwitch() SwitchID  { return r.diallerSwitch }
func (r *CallRecord) ReceiverSwitch() SwitchID { return r.receiverSwitch }
func (r *CallRecord) Timestamp() time.Time     { return r.timestamp }
func (r *CallRecord) PathLen() int             { return len(r.path) }
func (r *CallRecord) Hop(i int) SwitchID       { return r.path[i] }
func (r *CallRecord) Within(w Window) bool     { return w.Contains(r.timestamp) }

// Path returns a copy of the connection path.
func (r *CallRecord) Path() []SwitchID {
	p := make([]SwitchID, len(r.path))
	copy(p, r.path)
	return p
}

// LastHop returns the final switch of the connection path, if any.
func (r *CallRecord) LastHop() (SwitchID, bool) {
	if len(r.path) == 0 {
		return 0, false
	}
	return r.path[len(r.path)-1], true
}

// DistinctHops returns the path switches with repeats removed, in first-seen order.
func (r *CallRecord) DistinctHops() []SwitchID {
	out := make([]SwitchID, 0, len(r.path))
	seen := make(map[SwitchID]struct{}, len(r.path))
	for _, hop := range r.path {
		if _, ok := seen[hop]; ok {
			continue
		}
		seen[hop] = struct{}{}
		out = append(out, hop)
	}
	return out
}

// Fault reports the switch at fault for this call. A call with no connection
// path blames the dialling switch; a path that ends anywhere other than the
// receiving switch blames its last hop.
func (r *CallRecord) Fault() (SwitchID, bool) {
	last, ok := r.LastHop()
	if !ok {
		return r.diallerSwitch, true
	}
	if last != r.receiverSwitch {
		return last, true
	}
	return 0, false
}

func (r *CallRecord) String() string {
	hops := make([]string, len(r.path))
	for i, hop := range r.path {
		hops[i] = fmt.Sprintf("%05d", hop)
	}
	fields := []string{fmt.Sprintf("%010d", r.dialler), fmt.Sprintf("%05d", r.diallerSwitch)}
	fields = append(fields, hops...)
	fields = append(fields,
		fmt.Sprintf("%05d", r.receiverSwitch),
		fmt.Sprintf("%010d", r.receiver),
		r.timestamp.Format(TimeLayout),
	)
	return strings.Join(fields, " ")
}

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow returns the inclusive window [start, end].
func NewWindow(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
