package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/roach88/cliptrack/internal/engine"
	"github.com/roach88/cliptrack/internal/notify"
	"github.com/roach88/cliptrack/internal/player"
	"github.com/roach88/cliptrack/internal/store"
	"github.com/roach88/cliptrack/internal/timeline"
)

// clockTolerance is the slack allowed when comparing clock expectations.
const clockTolerance = 1e-6

// defaultOwner is the owner handed to notification handlers when the
// scenario names none.
const defaultOwner = "harness"

// Harness executes one scenario against a fresh player, store and scene.
type Harness struct {
	player   *player.Player
	store    *store.Store
	recorder *store.Recorder
	scene    *notify.Scene
	scripts  *notify.ScriptHandler
	updates  bool
	result   *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation. Handler
// logs are discarded.
//
// Execution flow:
// 1. Load the asset (file or inline)
// 2. Start the selected group
// 3. Execute steps, checking expect clauses after each
// 4. Evaluate assertions against the trace and final state
func Run(scenario *Scenario) (*Result, error) {
	asset, err := loadAsset(scenario)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	hash, err := timeline.Hash(asset)
	if err != nil {
		return nil, fmt.Errorf("hash asset: %w", err)
	}

	owner := scenario.Owner
	if owner == "" {
		owner = defaultOwner
	}

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &Harness{
		store:   st,
		scene:   notify.NewScene(),
		scripts: notify.NewScriptHandler(notify.WithScriptLogger(discard)),
		updates: scenario.TraceUpdates,
		result:  NewResult(),
	}
	defer h.scripts.Close()
	h.recorder = store.NewRecorder(st, store.WithAssetHash(hash), store.WithSessionOwner(owner))

	registry := notify.NewDefaultRegistry(discard, h.scene, h.scripts)
	h.player = player.New(asset,
		engine.WithDispatcher(registry),
		engine.WithOwner(owner),
		engine.WithObserver(engine.ObserverFunc(h.observe)),
		engine.WithObserver(h.recorder),
	)

	if err := h.play(scenario.Group); err != nil {
		return nil, fmt.Errorf("failed to start group %s: %w", scenario.Group, err)
	}

	for i, step := range scenario.Steps {
		h.executeStep(i, step)
	}

	ctx := context.Background()
	if err := h.recorder.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush recorder: %w", err)
	}
	if err := h.recorder.Err(); err != nil {
		return nil, fmt.Errorf("record sessions: %w", err)
	}
	h.result.State = h.finalState()

	for _, errMsg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(errMsg)
	}
	return h.result, nil
}

func loadAsset(scenario *Scenario) (*timeline.Asset, error) {
	if scenario.Timeline != nil {
		return scenario.Timeline, nil
	}
	asset, err := timeline.Load(scenario.Asset)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset: %w", err)
	}
	return asset, nil
}

func (h *Harness) observe(ev engine.Event) {
	if ev.Type == engine.EventUpdate && !h.updates {
		return
	}
	h.result.Trace = append(h.result.Trace, traceEventFrom(ev))
}

func (h *Harness) play(ref GroupRef) error {
	if ref.ID != nil {
		return h.player.Play(*ref.ID)
	}
	return h.player.PlayByName(ref.Name)
}

// executeStep runs one step. Step failures are recorded on the result and
// execution continues.
func (h *Harness) executeStep(i int, step Step) {
	var err error
	switch {
	case step.Advance != nil:
		err = h.player.Update(*step.Advance)
	case step.Speed != nil:
		err = h.player.SetSpeed(*step.Speed)
	case step.Stop:
		h.player.Stop()
	case step.Play != nil:
		err = h.play(*step.Play)
	}
	if err != nil {
		h.result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
	}

	if step.Expect != nil {
		for _, msg := range checkState(h.finalState(), *step.Expect) {
			h.result.AddError(fmt.Sprintf("steps[%d].expect: %s", i, msg))
		}
	}
}

func (h *Harness) finalState() FinalState {
	s := h.player.State()
	return FinalState{
		Clock:    s.Time,
		Playing:  s.Playing,
		Active:   len(s.Active),
		Loops:    s.Loops,
		Sessions: len(h.recorder.Sessions()),
		Spawned:  len(h.scene.Instances()),
	}
}

// checkState compares state against the set fields of want and returns one
// message per mismatch.
func checkState(state FinalState, want StateExpect) []string {
	var errs []string
	if want.Clock != nil && math.Abs(state.Clock-*want.Clock) > clockTolerance {
		errs = append(errs, fmt.Sprintf("clock: expected %.6f, got %.6f", *want.Clock, state.Clock))
	}
	if want.Playing != nil && state.Playing != *want.Playing {
		errs = append(errs, fmt.Sprintf("playing: expected %v, got %v", *want.Playing, state.Playing))
	}
	if want.Active != nil && state.Active != *want.Active {
		errs = append(errs, fmt.Sprintf("active: expected %d, got %d", *want.Active, state.Active))
	}
	if want.Loops != nil && state.Loops != *want.Loops {
		errs = append(errs, fmt.Sprintf("loops: expected %d, got %d", *want.Loops, state.Loops))
	}
	if want.Sessions != nil && state.Sessions != *want.Sessions {
		errs = append(errs, fmt.Sprintf("sessions: expected %d, got %d", *want.Sessions, state.Sessions))
	}
	if want.Spawned != nil && state.Spawned != *want.Spawned {
		errs = append(errs, fmt.Sprintf("spawned: expected %d, got %d", *want.Spawned, state.Spawned))
	}
	return errs
}
