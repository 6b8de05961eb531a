package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cliptrack/internal/timeline"
)

// Scenario defines a playback scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Asset is a path to an asset file (.yaml, .json or .cue). Relative
	// paths are resolved against the scenario file's directory.
	Asset string `yaml:"asset,omitempty"`

	// Timeline is an inline asset, used when Asset is empty.
	Timeline *timeline.Asset `yaml:"timeline,omitempty"`

	// Group selects the group to play before the first step.
	Group GroupRef `yaml:"group"`

	// Owner is passed to notification handlers.
	Owner string `yaml:"owner,omitempty"`

	// TraceUpdates includes update samples in the trace.
	TraceUpdates bool `yaml:"trace_updates,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// GroupRef selects a group by id or by name. Exactly one must be set.
type GroupRef struct {
	ID   *int   `yaml:"id,omitempty"`
	Name string `yaml:"name,omitempty"`
}

func (r GroupRef) String() string {
	if r.ID != nil {
		return fmt.Sprintf("id %d", *r.ID)
	}
	return fmt.Sprintf("name %q", r.Name)
}

func (r GroupRef) validate() error {
	switch {
	case r.ID == nil && r.Name == "":
		return fmt.Errorf("id or name is required")
	case r.ID != nil && r.Name != "":
		return fmt.Errorf("id and name are mutually exclusive")
	}
	return nil
}

// Step is one action against the player, optionally followed by a state
// check. An expect-only step checks state without acting.
type Step struct {
	Advance *float64     `yaml:"advance,omitempty"`
	Speed   *float64     `yaml:"speed,omitempty"`
	Stop    bool         `yaml:"stop,omitempty"`
	Play    *GroupRef    `yaml:"play,omitempty"`
	Expect  *StateExpect `yaml:"expect,omitempty"`
}

func (s Step) actions() int {
	n := 0
	if s.Advance != nil {
		n++
	}
	if s.Speed != nil {
		n++
	}
	if s.Stop {
		n++
	}
	if s.Play != nil {
		n++
	}
	return n
}

// StateExpect lists engine state to check. Unset fields are not checked.
type StateExpect struct {
	Clock    *float64 `yaml:"clock,omitempty"`
	Playing  *bool    `yaml:"playing,omitempty"`
	Active   *int     `yaml:"active,omitempty"`
	Loops    *int     `yaml:"loops,omitempty"`
	Sessions *int     `yaml:"sessions,omitempty"`
	Spawned  *int     `yaml:"spawned,omitempty"`
}

func (e StateExpect) empty() bool {
	return e.Clock == nil && e.Playing == nil && e.Active == nil &&
		e.Loops == nil && e.Sessions == nil && e.Spawned == nil
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Event is the event type (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Track and Clip narrow Event to one clip when set.
	Track *int `yaml:"track,omitempty"`
	Clip  *int `yaml:"clip,omitempty"`

	// At narrows Event to a timeline position, e.g. "1.500".
	At string `yaml:"at,omitempty"`

	// Count is the expected number of matches (trace_count).
	Count *int `yaml:"count,omitempty"`

	// Events is the expected order of event types (trace_order). The events
	// must appear as a subsequence; others may come in between.
	Events []string `yaml:"events,omitempty"`

	// final_state fields.
	StateExpect `yaml:",inline"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Asset != "" && !filepath.IsAbs(scenario.Asset) {
		scenario.Asset = filepath.Join(filepath.Dir(path), scenario.Asset)
	}
	if scenario.Asset != "" {
		if _, err := os.Stat(scenario.Asset); err != nil {
			return nil, fmt.Errorf("invalid scenario: asset file not found: %s", scenario.Asset)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Asset paths are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Asset == "" && s.Timeline == nil:
		return fmt.Errorf("asset or timeline is required")
	case s.Asset != "" && s.Timeline != nil:
		return fmt.Errorf("asset and timeline are mutually exclusive")
	}

	if err := s.Group.validate(); err != nil {
		return fmt.Errorf("group: %w", err)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch n := step.actions(); {
		case n > 1:
			return fmt.Errorf("steps[%d]: only one of advance, speed, stop, play is allowed", i)
		case n == 0 && step.Expect == nil:
			return fmt.Errorf("steps[%d]: an action or expect is required", i)
		}
		if step.Play != nil {
			if err := step.Play.validate(); err != nil {
				return fmt.Errorf("steps[%d].play: %w", i, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.StateExpect.empty() {
			return fmt.Errorf("assertions[%d]: at least one state field is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
