package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yegorkir/aqs/internal/journal"
	"github.com/yegorkir/aqs/internal/replay"
)

type exportOptions struct {
	sessionID string
	out       string
	fixture   bool
}

func newExportCmd(a *app) *cobra.Command {
	var o exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a journaled session as JSONL or as a replay fixture",
		Long: `Export writes one session's journal events as JSON lines
({type, session_id, event_id, ts, payload}). With --fixture it writes a replay
fixture instead, expecting exactly what the session did, against --bundle.

Without --session the most recent session is exported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.OutOrStdout(), a, o)
		},
	}
	cmd.Flags().StringVar(&o.sessionID, "session", "", "session id")
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "output path (default stdout)")
	cmd.Flags().BoolVar(&o.fixture, "fixture", false, "write a replay fixture instead of JSONL")
	return cmd
}

func runExport(stdout io.Writer, a *app, o exportOptions) (err error) {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	id := o.sessionID
	if id == "" {
		sessions, err := store.Sessions(1)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return errors.New("journal has no sessions")
		}
		id = sessions[0].SessionID
	}
	events, err := store.Events(id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("session %s not found", id)
	}

	w := stdout
	if o.out != "" {
		f, err := os.Create(o.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", o.out, err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if o.fixture {
		fx, err := replay.FixtureFromEvents(events, a.cfg.Bundle, a.cfg.Seed)
		if err != nil {
			return fmt.Errorf("session %s: %w", id, err)
		}
		err = replay.WriteFixture(w, fx)
		if err == nil {
			a.log.Info("fixture exported", zap.String("session", id), zap.Int("steps", len(fx.Steps)))
		}
		return err
	}

	if err := journal.WriteJSONL(w, events); err != nil {
		return err
	}
	a.log.Info("session exported", zap.String("session", id), zap.Int("events", len(events)))
	return nil
}
