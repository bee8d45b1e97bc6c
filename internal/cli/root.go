// Package cli implements the coldfront command line: headless simulations
// and a look into recorded sessions.
package cli

import (
	"database/sql"

	"github.com/MRamiBalles/ColdFront/server/internal/infra/storage"
	"github.com/spf13/cobra"
)

const defaultDBPath = "data/coldfront.db"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coldfront",
		Short:         "ColdFront: keep a family alive through a fifteen-day freeze",
		Long:          "coldfront runs headless ColdFront sessions with scripted strategies, prints their reports and browses the sessions recorded in the SQLite history.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newSimulateCmd(),
		newHistoryCmd(),
		newEventsCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// store bundles the repositories of one history database.
type store struct {
	db       *sql.DB
	events   *storage.SQLiteEventRepository
	sessions *storage.SQLiteSessionRepository
}

func openStore(path string) (*store, error) {
	db, err := storage.InitSQLite(path)
	if err != nil {
		return nil, err
	}
	return &store{
		db:       db,
		events:   storage.NewSQLiteEventRepository(db),
		sessions: storage.NewSQLiteSessionRepository(db),
	}, nil
}

func (s *store) Close() error { return s.db.Close() }
