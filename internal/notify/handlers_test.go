package notify

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cliptrack/internal/timeline"
)

// syncBuffer is a bytes.Buffer safe for concurrent slog writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

func TestLogHandler(t *testing.T) {
	logger, buf := testLogger()
	h := NewLogHandler(logger)
	n := &timeline.LogNotify{Message: "hello"}

	h.OnStart("hero", n)
	h.OnUpdate("hero", n, 0.5)
	h.OnEnd("hero", n)

	out := buf.String()
	assert.Contains(t, out, `msg="clip start" owner=hero message=hello`)
	assert.Contains(t, out, `msg="clip end" owner=hero message=hello`)
	assert.Equal(t, 2, bytes.Count([]byte(out), []byte("\n")), "update logs nothing")
}

func TestLogHandler_IgnoresOtherKinds(t *testing.T) {
	logger, buf := testLogger()
	h := NewLogHandler(logger)

	h.OnStart("hero", &timeline.SpawnNotify{Prefab: "x"})

	assert.Empty(t, buf.String())
}

func TestSpawnHandler(t *testing.T) {
	scene := NewScene()
	h := NewSpawnHandler(scene)
	n := &timeline.SpawnNotify{Prefab: "spark", Position: timeline.Vec2{X: 3}, Rotation: 90, Scale: 2}

	h.OnStart(namedOwner{name: "boss"}, n)
	h.OnStart("hero", n)
	h.OnUpdate("hero", n, 0.5)
	h.OnEnd("hero", n)

	instances := scene.Instances()
	require.Len(t, instances, 2)
	assert.Equal(t, "boss", instances[0].Owner)
	assert.Equal(t, "hero", instances[1].Owner)
	assert.Equal(t, 90.0, instances[0].Rotation)
	assert.Equal(t, 2.0, instances[0].Scale)

	id, err := uuid.Parse(instances[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	assert.NotEqual(t, instances[0].ID, instances[1].ID)

	scene.Clear()
	assert.Empty(t, scene.Instances())
}

func TestSpawnHandler_SkipsEmptyPrefab(t *testing.T) {
	scene := NewScene()
	NewSpawnHandler(scene).OnStart("hero", &timeline.SpawnNotify{})
	assert.Empty(t, scene.Instances())
}

type failingSpawner struct{}

func (failingSpawner) Spawn(owner any, n *timeline.SpawnNotify) (Instance, error) {
	return Instance{}, errors.New("scene full")
}

func TestSpawnHandler_SpawnErrorIsLogged(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpawnHandler(failingSpawner{}).OnStart("hero", &timeline.SpawnNotify{Prefab: "x"})
	})
}

const lifecycleScript = `
local ticks = 0
function on_start() log("start " .. owner) end
function on_update(p)
  ticks = ticks + 1
  if p >= 1 then log("done after " .. ticks) end
end
function on_end() log("end") end
`

func TestScriptHandler_Lifecycle(t *testing.T) {
	logger, buf := testLogger()
	h := NewScriptHandler(WithScriptLogger(logger))
	n := &timeline.ScriptNotify{Name: "fx", Source: lifecycleScript}

	h.OnStart("hero", n)
	assert.Equal(t, 1, h.Running())
	assert.Contains(t, buf.String(), `owner=hero script=fx message="start hero"`)

	h.OnUpdate("hero", n, 0.5)
	h.OnUpdate("hero", n, 1)
	assert.Contains(t, buf.String(), `message="done after 2"`)

	h.OnEnd("hero", n)
	assert.Equal(t, 0, h.Running())
	assert.Contains(t, buf.String(), "message=end")
	assert.NotContains(t, buf.String(), "level=ERROR")
}

func TestScriptHandler_OneVMPerOwner(t *testing.T) {
	logger, _ := testLogger()
	h := NewScriptHandler(WithScriptLogger(logger))
	n := &timeline.ScriptNotify{Source: lifecycleScript}

	h.OnStart("hero", n)
	h.OnStart("boss", n)
	assert.Equal(t, 2, h.Running())
	assert.Len(t, h.protos, 1, "same source compiles once")

	h.OnStart("hero", n)
	assert.Equal(t, 2, h.Running(), "restart replaces the owner's VM")

	h.Close()
	assert.Equal(t, 0, h.Running())
}

func TestScriptHandler_UpdateWithoutStartIgnored(t *testing.T) {
	logger, buf := testLogger()
	h := NewScriptHandler(WithScriptLogger(logger))
	n := &timeline.ScriptNotify{Source: lifecycleScript}

	h.OnUpdate("hero", n, 0.5)
	h.OnEnd("hero", n)

	assert.Empty(t, buf.String())
}

func TestScriptHandler_OptionalFunctions(t *testing.T) {
	logger, buf := testLogger()
	h := NewScriptHandler(WithScriptLogger(logger))
	n := &timeline.ScriptNotify{Source: `log("loaded")`}

	h.OnStart("hero", n)
	h.OnUpdate("hero", n, 0.5)
	h.OnEnd("hero", n)

	assert.Contains(t, buf.String(), "message=loaded")
	assert.NotContains(t, buf.String(), "level=ERROR")
}

func TestScriptHandler_Errors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		running int
		logged  string
	}{
		{"syntax error", "this is not lua", 0, "script compile failed"},
		{"load error", `error("boom")`, 0, "script load failed"},
		{"sandboxed require", `function on_start() require("os") end`, 1, "script call failed"},
		{"no io library", `function on_start() io.write("x") end`, 1, "script call failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := testLogger()
			h := NewScriptHandler(WithScriptLogger(logger))
			defer h.Close()

			h.OnStart("hero", &timeline.ScriptNotify{Source: tt.source})

			assert.Equal(t, tt.running, h.Running())
			assert.Contains(t, buf.String(), tt.logged)
			assert.Contains(t, buf.String(), "level=ERROR")
		})
	}
}

func TestScriptHandler_Timeout(t *testing.T) {
	logger, buf := testLogger()
	h := NewScriptHandler(WithScriptLogger(logger), WithScriptTimeout(20*time.Millisecond))
	defer h.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.OnStart("hero", &timeline.ScriptNotify{Source: `function on_start() while true do end end`})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runaway script was not interrupted")
	}
	assert.Contains(t, buf.String(), "script call failed")
}
