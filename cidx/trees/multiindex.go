package trees

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/ZanzyTHEbar/callindex/cidx/indexing"
	"github.com/ZanzyTHEbar/callindex/cidx/records"
)

// Option configures a Builder.
type Option func(*options)

type options struct {
	metrics *Metrics
}

// WithMetrics exports build and query activity through m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Builder is the write side of the indexing engine. It fans every record out
// into the timeline, dialler, receiver and connection indices and is used by
// a single goroutine. Build seals it and returns the read side.
type Builder struct {
	timeline    *TimeIndexBuilder
	diallers    *RecordIndexBuilder[records.PhoneNumber]
	receivers   *RecordIndexBuilder[records.PhoneNumber]
	connections *RecordIndexBuilder[records.SwitchID]
	dialPrefix  *NumberPrefixIndexBuilder
	recvPrefix  *NumberPrefixIndexBuilder
	routes      *indexing.RouteBitmaps
	switches    *KeySet[records.SwitchID]
	records     []*records.CallRecord
	opts        options
	started     time.Time
	sealed      bool
}

// NewBuilder creates an engine builder over the known-switch universe, a
// finished read-only set. A nil switch set is treated as empty.
func NewBuilder(switches *KeySet[records.SwitchID], opts ...Option) *Builder {
	if switches == nil {
		switches = NewKeySet[records.SwitchID]()
	}
	b := &Builder{
		timeline:    NewTimeIndexBuilder(),
		diallers:    NewRecordIndexBuilder[records.PhoneNumber](),
		receivers:   NewRecordIndexBuilder[records.PhoneNumber](),
		connections: NewRecordIndexBuilder[records.SwitchID](),
		dialPrefix:  NewNumberPrefixIndexBuilder(),
		recvPrefix:  NewNumberPrefixIndexBuilder(),
		routes:      indexing.NewRouteBitmaps(),
		switches:    switches,
		started:     time.Now(),
	}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

// Add indexes one validated record. The connection index receives the record
// once per distinct hop of its path.
func (b *Builder) Add(rec *records.CallRecord) error {
	if b.sealed {
		return ErrSealed
	}
	if rec == nil {
		return ErrNilRecord
	}

	ord := indexing.Ordinal(len(b.records))
	b.records = append(b.records, rec)

	b.timeline.Insert(rec.Timestamp(), rec)
	b.diallers.Insert(rec.Dialler(), rec)
	b.receivers.Insert(rec.Receiver(), rec)
	b.dialPrefix.Insert(rec.Dialler())
	b.recvPrefix.Insert(rec.Receiver())
	for _, hop := range rec.DistinctHops() {
		b.connections.Insert(hop, rec)
		b.routes.Add(hop, ord)
	}
	return nil
}

// Build seals the builder and returns the read-only index.
func (b *Builder) Build() *MultiIndex {
	if b.sealed {
		panic(ErrSealed)
	}
	b.sealed = true

	mi := &MultiIndex{
		id:          uuid.New(),
		timeline:    b.timeline.Finish(),
		diallers:    b.diallers.Finish(),
		receivers:   b.receivers.Finish(),
		connections: b.connections.Finish(),
		dialPrefix:  b.dialPrefix.Finish(),
		recvPrefix:  b.recvPrefix.Finish(),
		routes:      b.routes,
		switches:    b.switches,
		records:     b.records,
		metrics:     b.opts.metrics,
		builtAt:     time.Now(),
	}
	b.records = nil
	b.routes = nil

	duration := time.Since(b.started)
	mi.metrics.observeBuild(duration, len(mi.records))

	slog.Info("Multi-index build completed",
		"id", mi.id,
		"records", len(mi.records),
		"diallers", mi.diallers.Len(),
		"receivers", mi.receivers.Len(),
		"switches_in_use", mi.connections.Len(),
		"duration", duration)

	return mi
}

// BuildIndices indexes every record and returns the finished engine.
func BuildIndices(recs []*records.CallRecord, switches *KeySet[records.SwitchID], opts ...Option) (*MultiIndex, error) {
	b := NewBuilder(switches, opts...)
	for i, rec := range recs {
		if err := b.Add(rec); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return b.Build(), nil
}

// MultiIndex is the read side of the indexing engine: four tree indices over
// one immutable record set plus route bitmaps and number prefix tries. It
// exposes no mutation and is safe for any number of concurrent readers.
type MultiIndex struct {
	id          uuid.UUID
	timeline    *TimeIndex
	diallers    *RecordIndex[records.PhoneNumber]
	receivers   *RecordIndex[records.PhoneNumber]
	connections *RecordIndex[records.SwitchID]
	dialPrefix  *NumberPrefixIndex
	recvPrefix  *NumberPrefixIndex
	routes      *indexing.RouteBitmaps
	switches    *KeySet[records.SwitchID]
	records     []*records.CallRecord
	metrics     *Metrics
	stats       queryCounters
	builtAt     time.Time
}

func (mi *MultiIndex) ID() uuid.UUID                                { return mi.id }
func (mi *MultiIndex) BuiltAt() time.Time                           { return mi.builtAt }
func (mi *MultiIndex) Len() int                                     { return len(mi.records) }
func (mi *MultiIndex) Timeline() *TimeIndex                         { return mi.timeline }
func (mi *MultiIndex) Diallers() *RecordIndex[records.PhoneNumber]  { return mi.diallers }
func (mi *MultiIndex) Receivers() *RecordIndex[records.PhoneNumber] { return mi.receivers }
func (mi *MultiIndex) Connections() *RecordIndex[records.SwitchID]  { return mi.connections }
func (mi *MultiIndex) Switches() *KeySet[records.SwitchID]          { return mi.switches }

// Records returns every indexed record in ingest order.
func (mi *MultiIndex) Records() []*records.CallRecord {
	out := make([]*records.CallRecord, len(mi.records))
	copy(out, mi.records)
	return out
}

// IsKnownSwitch reports whether sw belongs to the known-switch universe.
func (mi *MultiIndex) IsKnownSwitch(sw records.SwitchID) bool {
	return mi.switches.Contains(sw)
}

// KnownSwitches returns the known-switch universe in ascending order.
func (mi *MultiIndex) KnownSwitches() []records.SwitchID {
	return mi.switches.Keys()
}

func (mi *MultiIndex) track(kind string) func() {
	start := time.Now()
	mi.stats.record(kind)
	return func() { mi.metrics.observeQuery(kind, start) }
}

// Called returns every number dialler called, once per call.
func (mi *MultiIndex) Called(dialler records.PhoneNumber) []records.PhoneNumber {
	defer mi.track(QueryLookup)()
	return mi.diallers.Receivers(dialler)
}

// CalledWithin is Called restricted to calls inside w.
func (mi *MultiIndex) CalledWithin(dialler records.PhoneNumber, w records.Window) []records.PhoneNumber {
	defer mi.track(QueryLookup)()
	return mi.diallers.ReceiversWithin(dialler, w)
}

// Callers returns every number that called receiver, once per call.
func (mi *MultiIndex) Callers(receiver records.PhoneNumber) []records.PhoneNumber {
	defer mi.track(QueryLookup)()
	return mi.receivers.Diallers(receiver)
}

// CallersWithin is Callers restricted to calls inside w.
func (mi *MultiIndex) CallersWithin(receiver records.PhoneNumber, w records.Window) []records.PhoneNumber {
	defer mi.track(QueryLookup)()
	return mi.receivers.DiallersWithin(receiver, w)
}

// ConnectionFaults returns the faulty switch of every misrouted call made by dialler.
func (mi *MultiIndex) ConnectionFaults(dialler records.PhoneNumber) []records.SwitchID {
	defer mi.track(QueryFault)()
	return mi.diallers.Faults(dialler)
}

func (mi *MultiIndex) ConnectionFaultsWithin(dialler records.PhoneNumber, w records.Window) []records.SwitchID {
	defer mi.track(QueryFault)()
	return mi.diallers.FaultsWithin(dialler, w)
}

// ReceivingFaults returns the faulty switch of every misrouted call to receiver.
func (mi *MultiIndex) ReceivingFaults(receiver records.PhoneNumber) []records.SwitchID {
	defer mi.track(QueryFault)()
	return mi.receivers.Faults(receiver)
}

func (mi *MultiIndex) ReceivingFaultsWithin(receiver records.PhoneNumber, w records.Window) []records.SwitchID {
	defer mi.track(QueryFault)()
	return mi.receivers.FaultsWithin(receiver, w)
}

// MaxConnections returns the switch that carried the most calls, the
// smallest id on a tie.
func (mi *MultiIndex) MaxConnections() (records.SwitchID, bool) {
	defer mi.track(QueryExtremum)()
	return mi.connections.MaxConnections()
}

func (mi *MultiIndex) MaxConnectionsWithin(w records.Window) (records.SwitchID, bool) {
	defer mi.track(QueryExtremum)()
	return mi.connections.MaxConnectionsWithin(w)
}

// MinConnections returns the switch that carried the fewest calls, the
// smallest id on a tie. Only switches that appear on some path compete.
func (mi *MultiIndex) MinConnections() (records.SwitchID, bool) {
	defer mi.track(QueryExtremum)()
	return mi.connections.MinConnections()
}

func (mi *MultiIndex) MinConnectionsWithin(w records.Window) (records.SwitchID, bool) {
	defer mi.track(QueryExtremum)()
	return mi.connections.MinConnectionsWithin(w)
}

// CallsMade returns every call timestamped within [start, end] in time order.
func (mi *MultiIndex) CallsMade(start, end time.Time) []*records.CallRecord {
	defer mi.track(QueryRange)()
	return mi.timeline.CallsInRange(start, end)
}

// CallsThrough returns, in ingest order, the calls whose path visits every
// given switch.
func (mi *MultiIndex) CallsThrough(switches ...records.SwitchID) []*records.CallRecord {
	defer mi.track(QueryRoute)()
	return mi.resolve(mi.routes.All(switches...).ToArray())
}

// CallsThroughAny returns, in ingest order, the calls whose path visits at
// least one of the given switches.
func (mi *MultiIndex) CallsThroughAny(switches ...records.SwitchID) []*records.CallRecord {
	defer mi.track(QueryRoute)()
	return mi.resolve(mi.routes.Any(switches...).ToArray())
}

func (mi *MultiIndex) resolve(ords []indexing.Ordinal) []*records.CallRecord {
	out := make([]*records.CallRecord, 0, len(ords))
	for _, ord := range ords {
		out = append(out, mi.records[ord])
	}
	return out
}

// DiallersWithPrefix returns the distinct dialling numbers starting with prefix.
func (mi *MultiIndex) DiallersWithPrefix(prefix string) []records.PhoneNumber {
	defer mi.track(QueryPrefix)()
	return mi.dialPrefix.PrefixLookup(prefix)
}

// ReceiversWithPrefix returns the distinct receiving numbers starting with prefix.
func (mi *MultiIndex) ReceiversWithPrefix(prefix string) []records.PhoneNumber {
	defer mi.track(QueryPrefix)()
	return mi.recvPrefix.PrefixLookup(prefix)
}

// CallActivity returns how many indexed calls number made and received.
func (mi *MultiIndex) CallActivity(number records.PhoneNumber) (made, received int) {
	defer mi.track(QueryPrefix)()
	return mi.dialPrefix.Calls(number), mi.recvPrefix.Calls(number)
}

// CommonPrefixes returns the leading digits shared by every dialling number
// and by every receiving number.
func (mi *MultiIndex) CommonPrefixes() (dialler, receiver string) {
	defer mi.track(QueryPrefix)()
	return mi.dialPrefix.LongestCommonPrefix(), mi.recvPrefix.LongestCommonPrefix()
}

// ConnectionStats summarises how calls are spread across switches.
func (mi *MultiIndex) ConnectionStats() BucketStats {
	defer mi.track(QueryExtremum)()
	return mi.connections.BucketStats()
}

// Shapes describes every tree index.
func (mi *MultiIndex) Shapes() []IndexShape {
	return []IndexShape{
		{Name: "timeline", Keys: mi.timeline.Len(), Entries: mi.timeline.Entries(), Height: mi.timeline.Height()},
		{Name: "diallers", Keys: mi.diallers.Len(), Entries: mi.diallers.Entries(), Height: mi.diallers.Height()},
		{Name: "receivers", Keys: mi.receivers.Len(), Entries: mi.receivers.Entries(), Height: mi.receivers.Height()},
		{Name: "connections", Keys: mi.connections.Len(), Entries: mi.connections.Entries(), Height: mi.connections.Height()},
		{Name: "switches", Keys: mi.switches.Len(), Entries: mi.switches.Len(), Height: mi.switches.Height()},
	}
}

// GetStats returns the query counters.
func (mi *MultiIndex) GetStats() QueryStats {
	return mi.stats.snapshot()
}

// Validate performs integrity checking across all indices. Each index is
// checked on its own goroutine.
func (mi *MultiIndex) Validate(ctx context.Context) []error {
	validators := map[string]Validator{
		"timeline":      mi.timeline,
		"diallers":      mi.diallers,
		"receivers":     mi.receivers,
		"connections":   mi.connections,
		"switches":      mi.switches,
		"dialler_trie":  mi.dialPrefix,
		"receiver_trie": mi.recvPrefix,
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	p := pool.New().WithContext(ctx)
	for name, v := range validators {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found := v.Validate()
			if len(found) == 0 {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			for _, err := range found {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		errs = append(errs, fmt.Errorf("validation interrupted: %w", err))
	}

	n := len(mi.records)
	for _, c := range []struct {
		name    string
		entries int
	}{
		{"timeline", mi.timeline.Entries()},
		{"diallers", mi.diallers.Entries()},
		{"receivers", mi.receivers.Entries()},
	} {
		if c.entries != n {
			errs = append(errs, fmt.Errorf("%s: holds %d entries for %d records", c.name, c.entries, n))
		}
	}

	if len(errs) > 0 {
		slog.Warn("Multi-index validation found issues", "error_count", len(errs))
	} else {
		slog.Debug("Multi-index validation passed", "id", mi.id)
	}
	return errs
}
