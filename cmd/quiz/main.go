package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yegorkir/aqs/internal/config"
	"github.com/yegorkir/aqs/internal/journal"
)

// #region app

// app carries the resolved configuration and logger into every subcommand.
type app struct {
	configPath string
	cfg        config.Config
	log        *zap.Logger

	// flag values; only applied when the flag was set
	bundle  string
	journal string
	seed    uint64
	debug   bool
	verbose bool
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("bundle") {
		cfg.Bundle = a.bundle
	}
	if flags.Changed("journal") {
		cfg.Journal = a.journal
	}
	if flags.Changed("seed") {
		cfg.Seed = a.seed
	}
	if flags.Changed("debug") {
		cfg.Debug = a.debug
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	a.cfg = cfg

	zcfg := zap.NewProductionConfig()
	if cfg.Verbose {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zcfg.OutputPaths = []string{"stderr"}
	a.log, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openJournal opens the configured SQLite journal, or an in-memory one when
// no path is configured.
func (a *app) openJournal() (journal.Journal, error) {
	if a.cfg.Journal == "" {
		return journal.NewMemory(), nil
	}
	return journal.NewStore(a.cfg.Journal)
}

// openStore opens the SQLite journal for read-side commands.
func (a *app) openStore() (*journal.Store, error) {
	if a.cfg.Journal == "" {
		return nil, fmt.Errorf("no journal configured (--journal or %s)", config.EnvJournal)
	}
	return journal.NewStore(a.cfg.Journal)
}

// #endregion app

// #region root

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "quiz",
		Short: "Adaptive questionnaire engine",
		Long: `quiz runs adaptive questionnaires from a content bundle.

Each answer updates axis, module and mode estimates; the next question is
chosen by expected information gain, followups take precedence, and a stop
evaluator proposes the result once the profile is defined.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file")
	pf.StringVar(&a.bundle, "bundle", "", "content bundle (YAML or JSON)")
	pf.StringVar(&a.journal, "journal", "", "SQLite journal path; empty keeps events in memory")
	pf.Uint64Var(&a.seed, "seed", 0, "random seed for priority picks; 0 is random")
	pf.BoolVar(&a.debug, "debug", false, "print selector internals after each pick")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "development logging at debug level")

	root.AddCommand(
		newRunCmd(a),
		newValidateCmd(a),
		newReplayCmd(a),
		newExportCmd(a),
		newInspectCmd(a),
	)
	return root
}

// #endregion root

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
