package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/MRamiBalles/ColdFront/server/internal/infra/storage"
	"github.com/spf13/cobra"
)

type eventsOptions struct {
	dbPath    string
	day       int
	eventType string
	actor     string
	asJSON    bool
}

func newEventsCmd() *cobra.Command {
	var opts eventsOptions

	cmd := &cobra.Command{
		Use:   "events <session-id>",
		Short: "Print the stored events of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", defaultDBPath, "SQLite history")
	cmd.Flags().IntVar(&opts.day, "day", -1, "Only this in-game day")
	cmd.Flags().StringVar(&opts.eventType, "type", "", "Only this event type")
	cmd.Flags().StringVar(&opts.actor, "actor", "", "Only events by this actor")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Render JSON output")

	return cmd
}

func runEvents(cmd *cobra.Command, sessionID string, opts eventsOptions) error {
	st, err := openStore(opts.dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := cmd.Context()
	var list []storage.GameEvent
	switch {
	case opts.eventType != "":
		list, err = st.events.GetByEventType(ctx, sessionID, strings.ToUpper(opts.eventType))
	case opts.actor != "":
		list, err = st.events.GetByActorID(ctx, sessionID, opts.actor)
	case opts.day >= 0:
		list, err = st.events.GetByGameDay(ctx, sessionID, opts.day)
	default:
		list, err = st.events.GetBySessionID(ctx, sessionID)
	}
	if err != nil {
		return err
	}

	// The first filter picked the query; the rest narrow it down.
	filtered := list[:0]
	for _, e := range list {
		if opts.actor != "" && e.ActorID != opts.actor {
			continue
		}
		if opts.day >= 0 && e.GameDay != opts.day {
			continue
		}
		filtered = append(filtered, e)
	}

	if opts.asJSON {
		return writeJSON(cmd, filtered)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tHOUR\tTYPE\tACTOR\tPAYLOAD")
	for _, e := range filtered {
		fmt.Fprintf(tw, "%d\t%02d\t%s\t%s\t%s\n", e.GameDay, e.GameHour, e.EventType, e.ActorID, e.Payload)
	}
	return tw.Flush()
}
