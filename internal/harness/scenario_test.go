package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const inlineScenario = `
name: inline
description: "inline timeline"
timeline:
  groups:
    - id: 3
      name: solo
      max_duration: 1
      looping: false
      tracks:
        - name: a
          clips:
            - { start: 0.25, duration: 0.5 }
group: { id: 3 }
steps:
  - advance: 0.5
  - speed: 2
  - stop: true
  - play: { name: solo }
  - expect: { clock: 0, playing: true }
assertions:
  - type: trace_count
    event: play
    count: 2
`

func TestLoadScenario_Inline(t *testing.T) {
	s, err := LoadScenario(writeScenario(t, inlineScenario))
	require.NoError(t, err)

	assert.Equal(t, "inline", s.Name)
	require.NotNil(t, s.Timeline)
	require.Len(t, s.Timeline.Groups, 1)
	assert.Equal(t, 1.0, s.Timeline.Groups[0].Speed, "group defaults apply inline")
	require.NotNil(t, s.Group.ID)
	assert.Equal(t, 3, *s.Group.ID)

	require.Len(t, s.Steps, 5)
	assert.Equal(t, 0.5, *s.Steps[0].Advance)
	assert.Equal(t, 2.0, *s.Steps[1].Speed)
	assert.True(t, s.Steps[2].Stop)
	assert.Equal(t, "solo", s.Steps[3].Play.Name)
	assert.True(t, *s.Steps[4].Expect.Playing)

	require.Len(t, s.Assertions, 1)
	assert.Equal(t, 2, *s.Assertions[0].Count)
}

func TestLoadScenario_ResolvesAssetPath(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/loop_overshoot.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "assets", "demo.yaml"), s.Asset)
	assert.Equal(t, "intro", s.Group.Name)
	require.Len(t, s.Assertions, 4)
	assert.Equal(t, AssertFinalState, s.Assertions[3].Type)
	assert.Equal(t, 1, *s.Assertions[3].Sessions, "final_state fields are inline")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MissingAsset(t *testing.T) {
	path := writeScenario(t, `
name: x
description: x
asset: missing.yaml
group: { id: 1 }
steps: [{ advance: 1 }]
assertions: [{ type: trace_count, event: play, count: 1 }]
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asset file not found")
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: x
description: x
timeline: { groups: [] }
group: { id: 1 }
step: [{ advance: 1 }]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	const head = "name: x\ndescription: x\ntimeline: { groups: [] }\ngroup: { id: 1 }\n"

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: x\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\n",
			wantErr: "description is required",
		},
		{
			name:    "no asset",
			yaml:    "name: x\ndescription: x\n",
			wantErr: "asset or timeline is required",
		},
		{
			name:    "asset and timeline",
			yaml:    "name: x\ndescription: x\nasset: a.yaml\ntimeline: { groups: [] }\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "no group",
			yaml:    "name: x\ndescription: x\ntimeline: { groups: [] }\n",
			wantErr: "group: id or name is required",
		},
		{
			name:    "group id and name",
			yaml:    "name: x\ndescription: x\ntimeline: { groups: [] }\ngroup: { id: 1, name: a }\n",
			wantErr: "group: id and name are mutually exclusive",
		},
		{
			name:    "no steps",
			yaml:    head,
			wantErr: "steps list is required",
		},
		{
			name:    "no assertions",
			yaml:    head + "steps: [{ advance: 1 }]\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "two actions in one step",
			yaml:    head + "steps: [{ advance: 1, stop: true }]\nassertions: [{ type: trace_order, events: [play] }]\n",
			wantErr: "steps[0]: only one of",
		},
		{
			name:    "empty step",
			yaml:    head + "steps: [{}]\nassertions: [{ type: trace_order, events: [play] }]\n",
			wantErr: "steps[0]: an action or expect is required",
		},
		{
			name:    "bad play ref",
			yaml:    head + "steps: [{ play: {} }]\nassertions: [{ type: trace_order, events: [play] }]\n",
			wantErr: "steps[0].play: id or name is required",
		},
		{
			name:    "assertion without type",
			yaml:    head + "steps: [{ advance: 1 }]\nassertions: [{ event: play }]\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "trace_contains without event",
			yaml:    head + "steps: [{ advance: 1 }]\nassertions: [{ type: trace_contains }]\n",
			wantErr: "event is required for trace_contains",
		},
		{
			name:    "trace_order without events",
			yaml:    head + "steps: [{ advance: 1 }]\nassertions: [{ type: trace_order }]\n",
			wantErr: "events list is required for trace_order",
		},
		{
			name:    "trace_count without count",
			yaml:    head + "steps: [{ advance: 1 }]\nassertions: [{ type: trace_count, event: play }]\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "final_state without fields",
			yaml:    head + "steps: [{ advance: 1 }]\nassertions: [{ type: final_state }]\n",
			wantErr: "at least one state field",
		},
		{
			name:    "unknown assertion",
			yaml:    head + "steps: [{ advance: 1 }]\nassertions: [{ type: trace_maybe }]\n",
			wantErr: `unknown assertion type "trace_maybe"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
