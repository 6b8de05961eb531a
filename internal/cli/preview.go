package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cliptrack/internal/engine"
	"github.com/roach88/cliptrack/internal/notify"
	"github.com/roach88/cliptrack/internal/player"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	GroupID int
	Owner   string
}

// PreviewSummary is printed when the preview is interrupted.
type PreviewSummary struct {
	Path    string  `json:"path"`
	GroupID int     `json:"group_id"`
	Reloads int     `json:"reloads"`
	Clock   float64 `json:"clock"`
	Loops   int     `json:"loops"`
}

func (s PreviewSummary) String() string {
	return fmt.Sprintf("%s [%d]: %d reload(s), stopped at %.3fs after %d loop(s)",
		s.Path, s.GroupID, s.Reloads, s.Clock, s.Loops)
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview <asset>",
		Short: "Play a group in real time, reloading on file changes",
		Long: `Play one group in real time and watch the asset file. Every save
reloads the asset and restarts the group from 0; a file that fails to load is
reported and the previous version keeps playing. Runs until Ctrl-C.

Example:
  cliptrack preview intro.yaml --group 1000 --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("owner") {
				opts.Owner = opts.config().Player.Owner
			}
			return runPreview(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.GroupID, "group", 0, "group id to preview (required)")
	_ = cmd.MarkFlagRequired("group")
	cmd.Flags().StringVar(&opts.Owner, "owner", "player", "owner passed to notification handlers")

	return cmd
}

func runPreview(opts *PreviewOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	scripts := notify.NewScriptHandler()
	defer scripts.Close()
	engineOpts := append(cfg.EngineOptions(),
		engine.WithDispatcher(notify.NewDefaultRegistry(slog.Default(), notify.NewScene(), scripts)),
		engine.WithOwner(opts.Owner),
	)

	pv, err := player.NewPreview(path, opts.GroupID, engineOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter.VerboseLog("Previewing %s group %d. Press Ctrl-C to stop.", path, opts.GroupID)
	if err := pv.Run(ctx, time.Duration(cfg.Player.Tick)); err != nil && !errors.Is(err, context.Canceled) {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	state := pv.Player().State()
	return formatter.Success(PreviewSummary{
		Path:    path,
		GroupID: opts.GroupID,
		Reloads: pv.Reloads(),
		Clock:   state.Time,
		Loops:   state.Loops,
	})
}
