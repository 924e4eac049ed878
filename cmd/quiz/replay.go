package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yegorkir/aqs/internal/replay"
	"github.com/yegorkir/aqs/internal/session"
)

func newReplayCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "replay fixture.yaml...",
		Short: "Replay scripted sessions and report drift from their expectations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			diverged := 0
			for _, path := range args {
				n, err := runReplay(cmd.OutOrStdout(), a, path, jsonOut)
				if err != nil {
					return err
				}
				diverged += n
			}
			if diverged > 0 {
				return fmt.Errorf("%d step(s) diverged", diverged)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output step results as JSON instead of a table")
	return cmd
}

// runReplay replays one fixture and returns the number of diverging steps.
func runReplay(w io.Writer, a *app, path string, jsonOut bool) (int, error) {
	f, err := replay.LoadFixture(path)
	if err != nil {
		return 0, err
	}
	cat, err := f.Catalogue()
	if err != nil {
		return 0, err
	}

	opts := session.Options{Logger: a.log}
	if a.cfg.Seed != 0 && f.Seed == 0 {
		opts.Rand = rand.New(rand.NewPCG(a.cfg.Seed, a.cfg.Seed))
	}
	results, sum, err := replay.Replay(cat, f, opts)
	if err != nil {
		return 0, fmt.Errorf("replay %s: %w", path, err)
	}
	a.log.Info("fixture replayed",
		zap.String("fixture", path),
		zap.Int("steps", sum.TotalSteps),
		zap.Int("mismatches", sum.Mismatches))

	diverged := 0
	for _, r := range results {
		if len(r.Mismatches) > 0 {
			diverged++
		}
	}

	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return diverged, enc.Encode(map[string]any{"fixture": path, "results": results, "summary": sum})
	}

	fmt.Fprintf(w, "%s\n", path)
	if f.Description != "" {
		fmt.Fprintf(w, "  %s\n", f.Description)
	}
	fmt.Fprintf(w, "%-5s| %-16s| %-16s| %-22s| %-16s| %s\n", "Step", "Presented", "Answered", "Stop", "Next", "Match")
	fmt.Fprintf(w, "%-5s+%-17s+%-17s+%-23s+%-17s+%s\n",
		"-----", "-----------------", "-----------------", "-----------------------", "-----------------", "------")
	for _, r := range results {
		match := "OK"
		if len(r.Mismatches) > 0 {
			match = "DIFF"
		}
		next := r.Next
		if next == "" {
			next = replay.NextNone
		}
		fmt.Fprintf(w, "%-5d| %-16s| %-16s| %-22s| %-16s| %s\n", r.Index, r.Presented, r.Answered, r.Stop, next, match)
		for _, m := range r.Mismatches {
			fmt.Fprintf(w, "       %s\n", m)
		}
	}
	fmt.Fprintf(w, "\nSummary: %d steps, %d answers, %d followups, %d proposals, %d diverge, final phase %s\n",
		sum.TotalSteps, sum.Answers, sum.Followups, sum.Proposals, diverged, sum.FinalPhase)
	return diverged, nil
}
