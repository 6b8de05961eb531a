package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_InlineScenario(t *testing.T) {
	scenario, err := ParseScenario([]byte(inlineScenario))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	var types []string
	for _, ev := range result.Trace {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{"play", "start", "stop", "play"}, types)
	assert.Equal(t, 2, result.State.Sessions)
	assert.True(t, result.State.Playing)
}

func TestRun_FileScenarios(t *testing.T) {
	for _, name := range []string{"loop_overshoot", "burst_finish"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_StepExpectFailure(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: wrong_clock
description: "expectation that cannot hold"
timeline:
  groups:
    - { id: 1, name: g, max_duration: 1 }
group: { id: 1 }
steps:
  - advance: 0.25
    expect: { clock: 0.5, loops: 1 }
assertions:
  - type: final_state
    playing: true
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "steps[0].expect: clock: expected 0.500000, got 0.250000", result.Errors[0])
	assert.Equal(t, "steps[0].expect: loops: expected 1, got 0", result.Errors[1])
}

func TestRun_StepErrorIsRecorded(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: missing_group
description: "play of an unknown group"
timeline:
  groups:
    - { id: 1, name: g }
group: { id: 1 }
steps:
  - play: { name: nope }
assertions:
  - type: trace_count
    event: play
    count: 1
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `steps[0]: GROUP_NOT_FOUND: no group with name "nope"`, result.Errors[0])
}

func TestRun_UnknownStartGroup(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: bad_start
description: "start group does not exist"
timeline:
  groups:
    - { id: 1, name: g }
group: { id: 9 }
steps:
  - advance: 1
assertions:
  - type: trace_count
    event: play
    count: 0
`))
	require.NoError(t, err)

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start group id 9")
}

func TestRun_TraceUpdates(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: updates
description: "update samples are traced on request"
trace_updates: true
timeline:
  groups:
    - id: 1
      name: g
      max_duration: 0.1
      looping: false
      tracks:
        - clips: [{ start: 0, duration: 0.05 }]
group: { id: 1 }
steps:
  - advance: 0.2
assertions:
  - type: trace_order
    events: [play, start, update, end, finish]
`))
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	for _, ev := range result.Trace {
		if ev.Type == "update" {
			assert.Equal(t, int64(0), ev.Seq)
		}
	}
}
