package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/callindex/cidx/records"
)

const maxLineBytes = 1 << 20

// Report summarises one pass over a call record file.
type Report struct {
	Lines    int
	Blank    int
	Accepted int
	Rejected int
	// ByReason counts rejections per sentinel error.
	ByReason map[error]int
	// FirstRejected is the 1-based line number of the first rejected line.
	FirstRejected int
}

func (r *Report) reject(lineNo int, err error) {
	r.Rejected++
	if r.ByReason == nil {
		r.ByReason = make(map[error]int)
	}
	r.ByReason[reasonOf(err)]++
	if r.FirstRejected == 0 {
		r.FirstRejected = lineNo
	}
}

// ReadRecords parses every line of r. Malformed lines are skipped and counted
// in the report; only read failures are returned as errors.
func ReadRecords(r io.Reader, p *Parser) ([]*records.CallRecord, Report, error) {
	var (
		out []*records.CallRecord
		rep Report
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		rep.Lines++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			rep.Blank++
			continue
		}
		rec, err := p.ParseLine(line)
		if err != nil {
			rep.reject(rep.Lines, err)
			continue
		}
		rep.Accepted++
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return out, rep, fmt.Errorf("failed to read call records at line %d: %w", rep.Lines+1, err)
	}
	return out, rep, nil
}
