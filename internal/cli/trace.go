package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/cliptrack/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Type     string // optional - filter to one event type
}

// SessionList is the trace output without --session.
type SessionList struct {
	Sessions []store.Session `json:"sessions"`
}

// TraceResult holds the trace of one session.
type TraceResult struct {
	Session  store.Session  `json:"session"`
	Timeline []store.Event  `json:"timeline"`
	Stats    map[string]int `json:"stats"`
	Complete bool           `json:"complete"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "List recorded sessions or show one session's events",
		Long: `Read sessions recorded by "cliptrack play --db".

Without --session, lists every session in recording order. With --session,
prints its events in emission order followed by per-type counts.

Examples:
  cliptrack trace --db sessions.db
  cliptrack trace --db sessions.db --session 0190a1b2-...
  cliptrack trace --db sessions.db --session 0190a1b2-... --type loop --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to show")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter events to one type (play, start, update, end, loop, finish, stop)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSession, fmt.Errorf("open database: %w", err))
	}
	defer st.Close()

	if opts.Session == "" {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeSession, err)
		}
		if opts.Format == "json" {
			return outputTraceJSON(cmd, SessionList{Sessions: sessions})
		}
		outputSessionsText(cmd.OutOrStdout(), sessions)
		return nil
	}

	trace, err := st.ReplaySession(ctx, opts.Session)
	if errors.Is(err, store.ErrSessionNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeSession, fmt.Errorf("session not found: %s", opts.Session))
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSession, err)
	}
	stats, err := st.CountEvents(ctx, opts.Session)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeSession, err)
	}

	result := TraceResult{
		Session:  trace.Session,
		Timeline: filterEvents(trace.Events, opts.Type),
		Stats:    stats,
		Complete: trace.Session.EndedBy != "",
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	outputTraceText(cmd.OutOrStdout(), result, opts.Verbose)
	return nil
}

func filterEvents(events []store.Event, typ string) []store.Event {
	if typ == "" {
		return events
	}
	out := []store.Event{}
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, data any) error {
	return outputJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: data})
}

func outputSessionsText(w io.Writer, sessions []store.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  #%-6d %s [%d]  %s\n",
			s.ID, s.CreatedSeq, s.GroupName, s.GroupID, endedStatus(s.EndedBy))
	}
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) {
	s := result.Session
	fmt.Fprintf(w, "Session: %s\n", s.ID)
	fmt.Fprintf(w, "Group: %s [%d]\n", s.GroupName, s.GroupID)
	if s.Owner != "" {
		fmt.Fprintf(w, "Owner: %s\n", s.Owner)
	}
	if verbose {
		fmt.Fprintf(w, "Asset: %s\n", s.AssetHash)
	}
	fmt.Fprintf(w, "Status: %s\n", endedStatus(s.EndedBy))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, ev := range result.Timeline {
		formatTimelineEvent(w, ev, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	types := make([]string, 0, len(result.Stats))
	for t := range result.Stats {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Fprintf(w, "  %-7s %d\n", t+":", result.Stats[t])
	}
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, ev store.Event, verbose bool) {
	seq := "-"
	if ev.Seq > 0 {
		seq = fmt.Sprint(ev.Seq)
	}
	switch ev.Type {
	case "start", "end", "update":
		fmt.Fprintf(w, "  [%s] %-6s track %d clip %d @ %.3f", seq, ev.Type, ev.TrackIndex, ev.ClipIndex, ev.At)
		if ev.Type == "update" {
			fmt.Fprintf(w, " (%.0f%%)", ev.Progress*100)
		}
	default:
		fmt.Fprintf(w, "  [%s] %-6s @ %.3f", seq, ev.Type, ev.At)
	}
	if verbose {
		fmt.Fprintf(w, "  clock=%.6f", ev.Clock)
	}
	fmt.Fprintln(w)
}

// endedStatus returns a human-readable session status.
func endedStatus(endedBy string) string {
	if endedBy == "" {
		return "Open (never ended)"
	}
	return "Ended by " + endedBy
}
