package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/MRamiBalles/ColdFront/server/internal/infra/storage"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.sessions.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, list)
			}
			return writeSessions(cmd, list)
		},
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath, "SQLite history")
	cmd.Flags().IntVar(&limit, "limit", 20, "Most recent sessions to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	cmd.AddCommand(newHistoryShowCmd(&dbPath))
	return cmd
}

func newHistoryShowCmd(dbPath *string) *cobra.Command {
	var sinceDay int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Rebuild a recorded session and recap what happened",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(*dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			recon := storage.NewReconstructor(st.events)
			state, err := recon.Rebuild(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			recap, err := recon.GenerateRecap(cmd.Context(), args[0], sinceDay)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, map[string]any{"state": state, "recap": recap})
			}
			return writeRecap(cmd, state, recap)
		},
	}

	cmd.Flags().IntVar(&sinceDay, "since-day", 0, "Only recap from this day on")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")
	return cmd
}

func writeSessions(cmd *cobra.Command, list []storage.SessionRecord) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tSTARTED\tOUTCOME\tDAYS\tSEED")
	for _, s := range list {
		outcome := "running"
		if s.Ended() {
			outcome = "lost"
			if s.Won {
				outcome = "won"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.SessionID, s.StartedAt.Local().Format("2006-01-02 15:04"), outcome, s.DaysSurvived, s.Seed)
	}
	return tw.Flush()
}

func writeRecap(cmd *cobra.Command, state *storage.RebuiltState, recap []storage.RecapEvent) error {
	out := cmd.OutOrStdout()
	status := "in progress"
	switch {
	case state.Ended && state.Won:
		status = "won"
	case state.Ended:
		status = "lost"
	}

	fmt.Fprintf(out, "session %s: %s on day %d at %02d:00\n", state.SessionID, status, state.Day, state.Hour)
	fmt.Fprintf(out, "food %d, water %.1f, fuel %.2f, %.1f°\n",
		state.Resources.Food, state.Resources.Water, state.Resources.Fuel, state.Resources.Temperature)
	fmt.Fprintf(out, "errands %d (food brought home %d), nights slept %d, unconscious %d\n\n",
		state.Errands, state.FoodRetrieved, state.TimesSlept, len(state.Unconscious))

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, r := range recap {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.When, r.Impact, r.Summary)
	}
	return tw.Flush()
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
