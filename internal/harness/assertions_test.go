package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Type: "play", Group: "g", Track: -1, Clip: -1, At: "0.000"},
		{Seq: 2, Type: "start", Group: "g", Track: 0, Clip: 0, At: "0.500"},
		{Seq: 3, Type: "start", Group: "g", Track: 1, Clip: 0, At: "0.750"},
		{Seq: 4, Type: "end", Group: "g", Track: 0, Clip: 0, At: "1.500"},
		{Seq: 5, Type: "loop", Group: "g", Track: -1, Clip: -1, At: "2.000"},
		{Seq: 6, Type: "start", Group: "g", Track: 0, Clip: 0, At: "0.500"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Event: "end"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Event: "start", Track: intPtr(1), Clip: intPtr(0)}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Event: "end", At: "1.500"}))

	err := assertTraceContains(trace, Assertion{Event: "end", Track: intPtr(1)})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Equal(t, "event end track=1", ae.Expected)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), "[4] #4 end g[0/0] @1.500")
	assert.Contains(t, err.Error(), "[1] #1 play g @0.000")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	tests := []struct {
		name   string
		events []string
		ok     bool
	}{
		{"full", []string{"play", "start", "start", "end", "loop", "start"}, true},
		{"gaps", []string{"play", "end", "start"}, true},
		{"repeat after loop", []string{"loop", "start"}, true},
		{"reversed", []string{"end", "play"}, false},
		{"missing", []string{"play", "finish"}, false},
		{"too many", []string{"end", "end"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceOrder(trace, Assertion{Events: tt.events})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertTraceOrder_Message(t *testing.T) {
	err := assertTraceOrder(sampleTrace(), Assertion{Events: []string{"play", "finish"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `matched [play], then no "finish"`)
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Event: "start", Count: intPtr(3)}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Event: "start", Track: intPtr(0), Count: intPtr(2)}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Event: "finish", Count: intPtr(0)}))

	err := assertTraceCount(trace, Assertion{Event: "loop", Count: intPtr(2)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences of loop")
	assert.Contains(t, err.Error(), "Actual: 1 occurrences")
}

func TestAssertFinalState(t *testing.T) {
	clock := 0.2
	playing := true
	state := FinalState{Clock: 0.2000000001, Playing: true, Active: 1, Loops: 2, Sessions: 1}

	assert.NoError(t, assertFinalState(state, Assertion{StateExpect: StateExpect{
		Clock:   &clock,
		Playing: &playing,
		Active:  intPtr(1),
		Loops:   intPtr(2),
	}}))

	err := assertFinalState(state, Assertion{StateExpect: StateExpect{
		Active:   intPtr(0),
		Sessions: intPtr(3),
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "active: expected 0, got 1; sessions: expected 3, got 1")
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	result.State = FinalState{Loops: 1}

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Event: "loop"},
		{Type: AssertTraceOrder, Events: []string{"play", "loop"}},
		{Type: AssertTraceCount, Event: "end", Count: intPtr(1)},
		{Type: AssertFinalState, StateExpect: StateExpect{Loops: intPtr(1)}},
	})
	assert.Empty(t, errs)

	errs = EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Event: "stop"},
		{Type: AssertTraceCount, Event: "end"},
		{Type: "bogus"},
	})
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0], "trace_contains")
	assert.Contains(t, errs[1], "trace_count requires count")
	assert.Contains(t, errs[2], `unknown assertion type "bogus"`)
}
