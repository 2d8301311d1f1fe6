package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/gesture/internal/errors"
	"github.com/vango-dev/gesture/pkg/gesture"
	"github.com/vango-dev/gesture/pkg/record"
)

// overrides replaces recorded thresholds. A nil field keeps the recording's.
// An explicit zero distance or speed means no minimum.
type overrides struct {
	minDistance *float64
	maxTimeMs   *int64
	minSpeed    *float64
}

func (o overrides) any() bool {
	return o.minDistance != nil || o.maxTimeMs != nil || o.minSpeed != nil
}

func (o overrides) apply(cfg gesture.Config) gesture.Config {
	if o.minDistance != nil {
		cfg.MinSwipeDistance = noMinimum(*o.minDistance)
	}
	if o.maxTimeMs != nil {
		cfg.MaxSwipeTime = time.Duration(*o.maxTimeMs) * time.Millisecond
		if *o.maxTimeMs < 0 {
			cfg.MaxSwipeTime = -1
		}
	}
	if o.minSpeed != nil {
		cfg.MinSwipeSpeed = noMinimum(*o.minSpeed)
	}
	return cfg
}

// noMinimum maps 0 to a negative threshold, which the recognizer clamps to 0
// instead of replacing it with the default.
func noMinimum(v float64) float64 {
	if v == 0 {
		return -1
	}
	return v
}

func replayCmd() *cobra.Command {
	var (
		minDistance float64
		maxTimeMs   int64
		minSpeed    float64
		check       bool
	)

	cmd := &cobra.Command{
		Use:   "replay <trace.yaml>...",
		Short: "Re-run recorded gestures through the recognizer",
		Long: `Replay recorded gesture traces.

Each trace is fed through a recognizer configured with the thresholds it
was recorded under, or with the thresholds given by flags. The verdict is
printed next to the recorded one.

Examples:
  gestured replay traces/*.yaml
  gestured replay --min-distance=80 traces/abc/def.yaml
  gestured replay --check traces/regressions/*.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("G400").WithDetail("replay needs at least one trace file")
			}

			var o overrides
			if cmd.Flags().Changed("min-distance") {
				o.minDistance = &minDistance
			}
			if cmd.Flags().Changed("max-time") {
				o.maxTimeMs = &maxTimeMs
			}
			if cmd.Flags().Changed("min-speed") {
				o.minSpeed = &minSpeed
			}
			return runReplay(cmd.OutOrStdout(), args, o, check)
		},
	}

	cmd.Flags().Float64Var(&minDistance, "min-distance", 0, "Override the minimum swipe distance in px (0 disables)")
	cmd.Flags().Int64Var(&maxTimeMs, "max-time", 0, "Override the maximum swipe time in ms (-1 disables)")
	cmd.Flags().Float64Var(&minSpeed, "min-speed", 0, "Override the minimum swipe speed in px/ms (0 disables)")
	cmd.Flags().BoolVar(&check, "check", false, "Fail when any verdict differs from the recording")

	return cmd
}

func runReplay(w io.Writer, paths []string, o overrides, check bool) error {
	var changed []string
	for _, path := range paths {
		tr, err := record.ReadFile(path)
		if err != nil {
			return errors.New("G200").WithFile(path).Wrap(err)
		}

		cfg := o.apply(tr.Thresholds.Config())
		got := record.OutcomeFrom(record.Replay(tr, cfg))

		if got.Matches(tr.Outcome) {
			success(w, "%s: %s (%s)", path, got.Direction, got.Reason)
			continue
		}
		changed = append(changed, path)
		warn(w, "%s: %s (%s), recorded %s (%s)",
			path, got.Direction, got.Reason, tr.Outcome.Direction, tr.Outcome.Reason)
	}

	fmt.Fprintf(w, "\n  %d traces, %d changed", len(paths), len(changed))
	if o.any() {
		fmt.Fprint(w, " under overridden thresholds")
	}
	fmt.Fprintln(w)

	if check && len(changed) > 0 {
		return errors.New("G202").WithDetailf("%d of %d traces changed verdict, first: %s",
			len(changed), len(paths), changed[0])
	}
	return nil
}
