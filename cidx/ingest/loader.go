package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZanzyTHEbar/callindex/cidx/config"
	"github.com/ZanzyTHEbar/callindex/cidx/records"
	"github.com/ZanzyTHEbar/callindex/cidx/trees"
)

// Load reads the configured switch list and call record file and builds the
// query engine over every valid record.
func Load(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...trees.Option) (*trees.MultiIndex, Report, error) {
	start := time.Now()

	switches, err := loadSwitches(cfg.Data.SwitchesFile)
	if err != nil {
		return nil, Report{}, err
	}
	logger.Debug().
		Str("file", cfg.Data.SwitchesFile).
		Int("switches", switches.Len()).
		Msg("Loaded known switches")

	if err := ctx.Err(); err != nil {
		return nil, Report{}, err
	}

	recs, rep, err := loadRecords(cfg.Data.RecordsFile, NewParser(switches, cfg.Query.TimeLayout))
	if err != nil {
		return nil, rep, err
	}
	if rep.Rejected > 0 {
		ev := logger.Warn().
			Str("file", cfg.Data.RecordsFile).
			Int("rejected", rep.Rejected).
			Int("first_rejected_line", rep.FirstRejected)
		for reason, n := range rep.ByReason {
			ev = ev.Int(reason.Error(), n)
		}
		ev.Msg("Skipped malformed call records")
	}

	if err := ctx.Err(); err != nil {
		return nil, rep, err
	}

	mi, err := trees.BuildIndices(recs, switches, opts...)
	if err != nil {
		return nil, rep, fmt.Errorf("failed to build indices: %w", err)
	}

	if cfg.Query.ValidateOnLoad {
		if errs := mi.Validate(ctx); len(errs) > 0 {
			return nil, rep, fmt.Errorf("%w: %w", ErrCorruptIndex, errors.Join(errs...))
		}
	}

	logger.Info().
		Str("index_id", mi.ID().String()).
		Int("records", mi.Len()).
		Int("lines", rep.Lines).
		Int("rejected", rep.Rejected).
		Dur("elapsed", time.Since(start)).
		Msg("Call records indexed")

	return mi, rep, nil
}

func loadSwitches(path string) (*trees.KeySet[records.SwitchID], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open switches file: %w", err)
	}
	defer f.Close()

	set, err := ReadSwitches(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

func loadRecords(path string, p *Parser) ([]*records.CallRecord, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("failed to open call records file: %w", err)
	}
	defer f.Close()

	return ReadRecords(f, p)
}
