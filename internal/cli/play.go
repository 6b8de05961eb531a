package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cliptrack/internal/engine"
	"github.com/roach88/cliptrack/internal/notify"
	"github.com/roach88/cliptrack/internal/player"
	"github.com/roach88/cliptrack/internal/store"
	"github.com/roach88/cliptrack/internal/timeline"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Group    groupSelector
	Delta    float64
	Duration float64
	Speed    float64
	Database string
	Realtime bool
	Owner    string
}

// PlaySummary is printed when playback ends.
type PlaySummary struct {
	Group    string   `json:"group"`
	GroupID  int      `json:"group_id"`
	Clock    float64  `json:"clock"`
	Loops    int      `json:"loops"`
	Playing  bool     `json:"playing"`
	Starts   int      `json:"starts"`
	Ends     int      `json:"ends"`
	Spawned  int      `json:"spawned"`
	Sessions []string `json:"sessions,omitempty"`
}

// String renders the summary for text output.
func (s PlaySummary) String() string {
	var b strings.Builder
	state := "finished"
	if s.Playing {
		state = "playing"
	}
	fmt.Fprintf(&b, "%s [%d]: %s at %.3fs after %d loop(s)\n", s.Group, s.GroupID, state, s.Clock, s.Loops)
	fmt.Fprintf(&b, "  clip starts: %d, ends: %d, spawned: %d", s.Starts, s.Ends, s.Spawned)
	for _, id := range s.Sessions {
		fmt.Fprintf(&b, "\n  session %s", id)
	}
	return b.String()
}

// eventCounter counts clip starts and ends.
type eventCounter struct {
	starts, ends int
}

func (c *eventCounter) OnEvent(ev engine.Event) {
	switch ev.Type {
	case engine.EventStart:
		c.starts++
	case engine.EventEnd:
		c.ends++
	}
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <asset>",
		Short: "Play one group of an asset",
		Long: `Play one track group and print a summary.

By default playback is a fixed-step simulation: the clock advances by --dt
until --duration seconds have been consumed (one pass of the group when
--duration is 0) or a non-looping group finishes. With --realtime the player
ticks on the wall clock instead, until Ctrl-C, --duration or the finish.

With --db every session is recorded to SQLite for the trace command.

Examples:
  cliptrack play intro.yaml --name intro
  cliptrack play intro.yaml --group 1000 --duration 30 --dt 0.02
  cliptrack play intro.yaml --name intro --db sessions.db --realtime`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Group.idSet = cmd.Flags().Changed("group")
			opts.Group.nameSet = cmd.Flags().Changed("name")
			cfg := opts.config()
			if !cmd.Flags().Changed("dt") {
				opts.Delta = cfg.Player.FixedDelta
			}
			if !cmd.Flags().Changed("db") {
				opts.Database = cfg.Store.Path
			}
			if !cmd.Flags().Changed("owner") {
				opts.Owner = cfg.Player.Owner
			}
			return runPlay(opts, args[0], cmd.Flags().Changed("speed"), cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Group.ID, "group", 0, "group id to play")
	cmd.Flags().StringVar(&opts.Group.Name, "name", "", "group name to play")
	cmd.Flags().Float64Var(&opts.Delta, "dt", 1.0/60.0, "fixed delta per update, in seconds")
	cmd.Flags().Float64Var(&opts.Duration, "duration", 0, "seconds to play (0 = one pass)")
	cmd.Flags().Float64Var(&opts.Speed, "speed", 1, "speed multiplier (default: the group's speed)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record sessions to this SQLite database")
	cmd.Flags().BoolVar(&opts.Realtime, "realtime", false, "tick on the wall clock")
	cmd.Flags().StringVar(&opts.Owner, "owner", "player", "owner passed to notification handlers")

	return cmd
}

func runPlay(opts *PlayOptions, path string, speedSet bool, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	cfg := opts.config()

	if err := opts.Group.validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err)
	}
	if !(opts.Delta > 0) || math.IsInf(opts.Delta, 0) {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Errorf("--dt must be positive, got %v", opts.Delta))
	}
	if opts.Duration < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, fmt.Errorf("--duration must be >= 0, got %v", opts.Duration))
	}

	asset, err := timeline.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}
	group, err := opts.Group.resolve(asset)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scene := notify.NewScene()
	scripts := notify.NewScriptHandler()
	defer scripts.Close()
	counter := &eventCounter{}

	engineOpts := append(cfg.EngineOptions(),
		engine.WithDispatcher(notify.NewDefaultRegistry(slog.Default(), scene, scripts)),
		engine.WithOwner(opts.Owner),
		engine.WithObserver(counter),
	)

	var rec *store.Recorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeSession, fmt.Errorf("open database: %w", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		rec, err = newRecorder(ctx, st, asset, opts.Owner, cfg.Store.RecordUpdates)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeSession, err)
		}
		last, err := st.LastSeq(ctx)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeSession, err)
		}
		engineOpts = append(engineOpts, engine.WithObserver(rec), engine.WithClock(engine.NewClockAt(last)))
	}

	p := player.New(asset, engineOpts...)
	if err := opts.Group.play(p); err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}
	if speedSet {
		if err := p.SetSpeed(opts.Speed); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidArgs, err)
		}
	}

	duration := opts.Duration
	if duration == 0 {
		duration = group.MaxDuration
	}

	if opts.Realtime {
		err = playRealtime(ctx, p, duration, time.Duration(cfg.Player.Tick), formatter)
	} else {
		err = playFixed(p, duration, opts.Delta)
	}
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	state := p.State()
	summary := PlaySummary{
		Group:   group.Name,
		GroupID: group.ID,
		Clock:   state.Time,
		Loops:   state.Loops,
		Playing: state.Playing,
		Starts:  counter.starts,
		Ends:    counter.ends,
		Spawned: len(scene.Instances()),
	}
	p.Stop()

	if rec != nil {
		if err := rec.Flush(ctx); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeSession, err)
		}
		if err := rec.Err(); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeSession, err)
		}
		summary.Sessions = rec.Sessions()
	}

	return formatter.Success(summary)
}

func newRecorder(ctx context.Context, st *store.Store, asset *timeline.Asset, owner string, updates bool) (*store.Recorder, error) {
	hash, err := timeline.Hash(asset)
	if err != nil {
		return nil, fmt.Errorf("hash asset: %w", err)
	}
	open, err := st.FindOpenSessions(ctx)
	if err != nil {
		return nil, err
	}
	if len(open) > 0 {
		slog.Warn("database has sessions that never ended", "count", len(open))
	}
	return store.NewRecorder(st,
		store.WithAssetHash(hash),
		store.WithSessionOwner(owner),
		store.WithUpdates(updates),
	), nil
}

// playFixed advances in steps of delta until duration is consumed or the
// group finishes.
func playFixed(p *player.Player, duration, delta float64) error {
	elapsed := 0.0
	for duration-elapsed > 1e-9 && p.IsPlaying() {
		dt := math.Min(delta, duration-elapsed)
		if err := p.Update(dt); err != nil && !engine.IsSubstepCapError(err) {
			return err
		}
		elapsed += dt
	}
	return nil
}

// playRealtime runs the player on the wall clock until the group finishes,
// duration elapses or the process is interrupted.
func playRealtime(ctx context.Context, p *player.Player, duration float64, tick time.Duration, formatter *OutputFormatter) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(duration*float64(time.Second)))
		defer cancel()
	}

	formatter.VerboseLog("Playing in real time (tick %s). Press Ctrl-C to stop.", tick)
	err := p.Run(ctx, tick)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
