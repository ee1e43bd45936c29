package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	internal "github.com/ZanzyTHEbar/callindex/cidx"
	"github.com/ZanzyTHEbar/callindex/cidx/config"
	"github.com/ZanzyTHEbar/callindex/cidx/ingest"
	"github.com/ZanzyTHEbar/callindex/cidx/records"
	"github.com/ZanzyTHEbar/callindex/cidx/trees"
)

var errPartialWindow = errors.New("--from and --to must be given together")

// app holds state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	index  *trees.MultiIndex
	report ingest.Report
}

func (a *app) load(ctx context.Context) error {
	if a.index != nil {
		return nil
	}
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if a.verbose {
		level = zerolog.LevelDebugValue
	}
	logger := internal.GetLoggerWithLevel(level)

	mi, rep, err := ingest.Load(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to load call records: %w", err)
	}
	a.cfg, a.index, a.report = cfg, mi, rep
	return nil
}

// windowFlags are the optional --from/--to bounds of a time-restricted query.
type windowFlags struct {
	from, to string
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&w.from, "from", "", "start of the time window (inclusive)")
	cmd.Flags().StringVar(&w.to, "to", "", "end of the time window (inclusive)")
}

// window parses the flags with layout. ok is false when neither bound is set.
func (w *windowFlags) window(layout string) (records.Window, bool, error) {
	if w.from == "" && w.to == "" {
		return records.Window{}, false, nil
	}
	if w.from == "" || w.to == "" {
		return records.Window{}, false, errPartialWindow
	}
	start, err := time.ParseInLocation(layout, w.from, time.UTC)
	if err != nil {
		return records.Window{}, false, fmt.Errorf("invalid --from: %w", err)
	}
	end, err := time.ParseInLocation(layout, w.to, time.UTC)
	if err != nil {
		return records.Window{}, false, fmt.Errorf("invalid --to: %w", err)
	}
	return records.NewWindow(start, end), true, nil
}

func parseNumber(s string) (records.PhoneNumber, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid phone number %q", s)
	}
	return records.PhoneNumber(n), nil
}

func parseSwitchArg(s string) (records.SwitchID, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid switch id %q", s)
	}
	return records.SwitchID(n), nil
}

func printNumbers(out io.Writer, nums []records.PhoneNumber) {
	for _, n := range nums {
		fmt.Fprintln(out, trees.FormatNumber(n))
	}
}

func printSwitches(out io.Writer, sws []records.SwitchID) {
	for _, sw := range sws {
		fmt.Fprintf(out, "%05d\n", sw)
	}
}

func (a *app) calledCmd() *cobra.Command {
	var wf windowFlags
	cmd := &cobra.Command{
		Use:   "called <dialler>",
		Short: "List the numbers a dialler called, once per call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dialler, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			w, bounded, err := wf.window(a.cfg.Query.TimeLayout)
			if err != nil {
				return err
			}
			if bounded {
				printNumbers(cmd.OutOrStdout(), a.index.CalledWithin(dialler, w))
			} else {
				printNumbers(cmd.OutOrStdout(), a.index.Called(dialler))
			}
			return nil
		},
	}
	wf.register(cmd)
	return cmd
}

func (a *app) callersCmd() *cobra.Command {
	var wf windowFlags
	cmd := &cobra.Command{
		Use:   "callers <receiver>",
		Short: "List the numbers that called a receiver, once per call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			receiver, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			w, bounded, err := wf.window(a.cfg.Query.TimeLayout)
			if err != nil {
				return err
			}
			if bounded {
				printNumbers(cmd.OutOrStdout(), a.index.CallersWithin(receiver, w))
			} else {
				printNumbers(cmd.OutOrStdout(), a.index.Callers(receiver))
			}
			return nil
		},
	}
	wf.register(cmd)
	return cmd
}

func (a *app) faultsCmd() *cobra.Command {
	var (
		wf        windowFlags
		receiving bool
	)
	cmd := &cobra.Command{
		Use:   "faults <number>",
		Short: "List the switch at fault for every misrouted call made by a number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			w, bounded, err := wf.window(a.cfg.Query.TimeLayout)
			if err != nil {
				return err
			}
			var faults []records.SwitchID
			switch {
			case receiving && bounded:
				faults = a.index.ReceivingFaultsWithin(number, w)
			case receiving:
				faults = a.index.ReceivingFaults(number)
			case bounded:
				faults = a.index.ConnectionFaultsWithin(number, w)
			default:
				faults = a.index.ConnectionFaults(number)
			}
			printSwitches(cmd.OutOrStdout(), faults)
			return nil
		},
	}
	wf.register(cmd)
	cmd.Flags().BoolVar(&receiving, "receiving", false, "report calls received by the number instead of calls made")
	return cmd
}

func (a *app) extremumCmd(use, short string, most bool) *cobra.Command {
	var wf windowFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			w, bounded, err := wf.window(a.cfg.Query.TimeLayout)
			if err != nil {
				return err
			}
			var (
				sw records.SwitchID
				ok bool
			)
			switch {
			case most && bounded:
				sw, ok = a.index.MaxConnectionsWithin(w)
			case most:
				sw, ok = a.index.MaxConnections()
			case bounded:
				sw, ok = a.index.MinConnectionsWithin(w)
			default:
				sw, ok = a.index.MinConnections()
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "no calls")
				return nil
			}
			printSwitches(cmd.OutOrStdout(), []records.SwitchID{sw})
			return nil
		},
	}
	wf.register(cmd)
	return cmd
}

func (a *app) callsMadeCmd() *cobra.Command {
	var wf windowFlags
	cmd := &cobra.Command{
		Use:   "calls-made",
		Short: "List every call made within --from and --to in time order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			w, bounded, err := wf.window(a.cfg.Query.TimeLayout)
			if err != nil {
				return err
			}
			if !bounded {
				return errPartialWindow
			}
			for _, rec := range a.index.CallsMade(w.Start, w.End) {
				fmt.Fprintln(cmd.OutOrStdout(), rec)
			}
			return nil
		},
	}
	wf.register(cmd)
	return cmd
}

func (a *app) throughCmd() *cobra.Command {
	var anyOf bool
	cmd := &cobra.Command{
		Use:   "through <switch>...",
		Short: "List calls routed through every given switch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sws := make([]records.SwitchID, 0, len(args))
			for _, arg := range args {
				sw, err := parseSwitchArg(arg)
				if err != nil {
					return err
				}
				sws = append(sws, sw)
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			var calls []*records.CallRecord
			if anyOf {
				calls = a.index.CallsThroughAny(sws...)
			} else {
				calls = a.index.CallsThrough(sws...)
			}
			for _, rec := range calls {
				fmt.Fprintln(cmd.OutOrStdout(), rec)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&anyOf, "any", false, "match calls routed through at least one of the switches")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index shape and load summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "index %s built %s\n", a.index.ID(), a.index.BuiltAt().Format(time.RFC3339))
			fmt.Fprintf(out, "records %d (lines %d, rejected %d)\n", a.index.Len(), a.report.Lines, a.report.Rejected)
			for _, s := range a.index.Shapes() {
				fmt.Fprintf(out, "%-12s keys %-8d entries %-8d height %d\n", s.Name, s.Keys, s.Entries, s.Height)
			}
			if first, ok := a.index.Timeline().First(); ok {
				last, _ := a.index.Timeline().Last()
				fmt.Fprintf(out, "span %s .. %s\n", first.Format(a.cfg.Query.TimeLayout), last.Format(a.cfg.Query.TimeLayout))
			}
			dialPrefix, recvPrefix := a.index.CommonPrefixes()
			fmt.Fprintf(out, "common prefix: diallers %q receivers %q\n", dialPrefix, recvPrefix)
			cs := a.index.ConnectionStats()
			fmt.Fprintf(out, "calls per switch: min %d max %d mean %.2f stddev %.2f\n", cs.Min, cs.Max, cs.Mean, cs.StdDev)
			return nil
		},
	}
}

func (a *app) activityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activity <number>",
		Short: "Count the calls a number made and received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := parseNumber(args[0])
			if err != nil {
				return err
			}
			if err := a.load(cmd.Context()); err != nil {
				return err
			}
			made, received := a.index.CallActivity(number)
			fmt.Fprintf(cmd.OutOrStdout(), "%s made %d received %d\n", trees.FormatNumber(number), made, received)
			return nil
		},
	}
}
