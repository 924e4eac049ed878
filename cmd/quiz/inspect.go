package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/yegorkir/aqs/internal/journal"
)

type inspectOptions struct {
	last      int
	sessionID string
	jsonl     string
	jsonOut   bool
}

func newInspectCmd(a *app) *cobra.Command {
	var o inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List journaled sessions, one session's events, or summarize a JSONL export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch {
			case o.jsonl != "":
				return runInspectJSONL(w, o)
			case o.sessionID != "":
				return runInspectSession(w, a, o)
			default:
				return runInspectList(w, a, o)
			}
		},
	}
	cmd.Flags().IntVar(&o.last, "last", 20, "show N most recent sessions")
	cmd.Flags().StringVar(&o.sessionID, "session", "", "show one session's events")
	cmd.Flags().StringVar(&o.jsonl, "jsonl", "", "summarize a JSONL export instead of the journal")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "output as JSON instead of a table")
	return cmd
}

// #region list-mode

type listRow struct {
	SessionID   string    `json:"session_id"`
	StartedAt   time.Time `json:"started_at"`
	LastEventAt time.Time `json:"last_event_at"`
	Events      int       `json:"events"`
}

func runInspectList(w io.Writer, a *app, o inspectOptions) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	sessions, err := store.Sessions(o.last)
	if err != nil {
		return err
	}
	rows := make([]listRow, len(sessions))
	for i, s := range sessions {
		rows[i] = listRow(s)
	}
	if o.jsonOut {
		return writeJSON(w, rows)
	}

	fmt.Fprintf(w, "%-38s %-20s %-20s %s\n", "SESSION", "STARTED", "LAST EVENT", "EVENTS")
	for _, r := range rows {
		fmt.Fprintf(w, "%-38s %-20s %-20s %d\n",
			r.SessionID, r.StartedAt.Format(time.DateTime), r.LastEventAt.Format(time.DateTime), r.Events)
	}
	return nil
}

// #endregion list-mode

// #region session-mode

func runInspectSession(w io.Writer, a *app, o inspectOptions) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.Events(o.sessionID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("session %s not found", o.sessionID)
	}
	if o.jsonOut {
		return writeJSON(w, events)
	}

	fmt.Fprintf(w, "Session %s (%d events)\n", o.sessionID, len(events))
	for _, ev := range events {
		fmt.Fprintf(w, "%4d  %s  %-18s %s\n", ev.Seq, ev.At.Format(time.TimeOnly), ev.Type, clip(string(ev.Payload), 90))
	}
	return nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// #endregion session-mode

// #region jsonl-mode

type jsonlSummary struct {
	Events   int            `json:"events"`
	Sessions []string       `json:"sessions"`
	ByType   map[string]int `json:"by_type"`
}

func runInspectJSONL(w io.Writer, o inspectOptions) error {
	f, err := os.Open(o.jsonl)
	if err != nil {
		return fmt.Errorf("open %s: %w", o.jsonl, err)
	}
	defer f.Close()

	events, err := journal.ReadJSONL(f)
	if err != nil {
		return fmt.Errorf("%s: %w", o.jsonl, err)
	}

	sum := jsonlSummary{Events: len(events), ByType: map[string]int{}}
	seen := map[string]bool{}
	for _, ev := range events {
		sum.ByType[ev.Type]++
		if !seen[ev.SessionID] {
			seen[ev.SessionID] = true
			sum.Sessions = append(sum.Sessions, ev.SessionID)
		}
	}
	if o.jsonOut {
		return writeJSON(w, sum)
	}

	fmt.Fprintf(w, "%s: %d events, %d session(s)\n", o.jsonl, sum.Events, len(sum.Sessions))
	for _, t := range slices.Sorted(maps.Keys(sum.ByType)) {
		fmt.Fprintf(w, "  %-18s %d\n", t, sum.ByType[t])
	}
	return nil
}

// #endregion jsonl-mode

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
