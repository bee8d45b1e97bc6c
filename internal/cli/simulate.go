package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/MRamiBalles/ColdFront/server/internal/engine"
	"github.com/MRamiBalles/ColdFront/server/internal/events"
	"github.com/MRamiBalles/ColdFront/server/internal/infra/storage"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/config"
	"github.com/MRamiBalles/ColdFront/server/internal/platform/logger"
	"github.com/MRamiBalles/ColdFront/server/internal/report"
	"github.com/MRamiBalles/ColdFront/server/internal/scenario"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	strategy   string
	seed       int64
	step       time.Duration
	maxDays    int
	configPath string
	dbPath     string
	outPath    string
	locale     string
	logLevel   string
	asJSON     bool
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play a whole session headless with a scripted strategy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.strategy, "strategy", "caretaker", fmt.Sprintf("Player strategy (%v)", scenario.Names()))
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed (default: from config, or time-based)")
	cmd.Flags().DurationVar(&opts.step, "step", time.Second, "Real time per simulation step")
	cmd.Flags().IntVar(&opts.maxDays, "days", 0, "Give up after this many days (default: twice the days to win)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Balance file (TOML or YAML)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Record the session into this SQLite history")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Write the TOML report to this file")
	cmd.Flags().StringVar(&opts.locale, "locale", report.DefaultLocale, "Locale for number formatting")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Render JSON output")

	return cmd
}

func runSimulate(cmd *cobra.Command, opts simulateOptions) error {
	sim, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		sim.Seed = opts.seed
	}
	// Pin the seed so a recorded session can be replayed.
	if sim.Seed == 0 {
		sim.Seed = time.Now().UnixNano()
	}

	strategy, err := scenario.ByName(opts.strategy)
	if err != nil {
		return err
	}

	log := logger.New(cmd.ErrOrStderr(), logger.FormatText, opts.logLevel)
	sessionID := uuid.NewString()

	var logOpts []events.Option
	var sessions storage.SessionRepository
	if opts.dbPath != "" {
		st, err := openStore(opts.dbPath)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.sessions.Create(cmd.Context(), storage.SessionRecord{SessionID: sessionID, Seed: sim.Seed}); err != nil {
			return err
		}
		sessions = st.sessions
		logOpts = append(logOpts,
			events.WithPersister(storage.NewEventPersister(st.events, sessionID)),
			events.WithPersistObserver(func(_ time.Duration, err error) {
				if err != nil {
					log.Error("failed to persist event", "error", err)
				}
			}),
		)
	}

	e, err := engine.New(sim,
		engine.WithSessionID(sessionID),
		engine.WithEventLog(events.NewEventLog(logOpts...)),
		engine.WithLogger(log),
		engine.WithStartMode(engine.ModePlaying),
	)
	if err != nil {
		return err
	}
	defer e.Close()

	summary, err := scenario.Runner{Step: opts.step, MaxDays: opts.maxDays, Logger: log}.Run(e, strategy)
	if err != nil {
		return err
	}

	if sessions != nil {
		if err := sessions.Finish(cmd.Context(), sessionID, summary.Won, summary.DaysSurvived, summary); err != nil {
			return fmt.Errorf("record outcome: %w", err)
		}
	}

	if opts.outPath != "" {
		doc, err := report.TOML(summary)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.outPath, doc, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "session %s (seed %d, %s)\n\n", sessionID, sim.Seed, strategy.Name()); err != nil {
		return err
	}
	return report.Text(cmd.OutOrStdout(), summary, opts.locale)
}
