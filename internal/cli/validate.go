package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cliptrack/internal/timeline"
)

// GroupSummary describes one group of a validated asset.
type GroupSummary struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	MaxDuration float64 `json:"max_duration"`
	Looping     bool    `json:"looping"`
	Speed       float64 `json:"speed"`
	Tracks      int     `json:"tracks"`
	Clips       int     `json:"clips"`
}

// Anomaly is one authoring problem reported by validation.
type Anomaly struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool           `json:"valid"`
	Version   int            `json:"version"`
	Hash      string         `json:"hash"`
	Groups    []GroupSummary `json:"groups"`
	Anomalies []Anomaly      `json:"anomalies,omitempty"`
}

// String renders the result for text output.
func (r ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Asset v%d (%s)\n", r.Version, r.Hash)
	for _, g := range r.Groups {
		loop := "once"
		if g.Looping {
			loop = "loop"
		}
		fmt.Fprintf(&b, "  [%d] %s  %.3fs %s x%g  %d track(s), %d clip(s)\n",
			g.ID, g.Name, g.MaxDuration, loop, g.Speed, g.Tracks, g.Clips)
	}
	if len(r.Anomalies) == 0 {
		b.WriteString("✓ No anomalies")
		return b.String()
	}
	fmt.Fprintf(&b, "✗ %d anomal(ies):", len(r.Anomalies))
	for _, a := range r.Anomalies {
		fmt.Fprintf(&b, "\n  %s: %s", a.Path, a.Message)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <asset>",
		Short: "Load an asset and report authoring anomalies",
		Long: `Load a timeline asset (.yaml, .json or .cue), list its groups and
report anomalies the engine does not check at runtime: duplicate group ids or
names, negative starts or speeds, non-positive clip durations and max
durations shorter than the latest clip end.

Exit codes:
  0 - Asset is clean
  1 - Anomalies found
  2 - Asset could not be loaded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	asset, err := timeline.Load(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, errorCode(err), err)
	}
	formatter.VerboseLog("Loaded %s: %d group(s)", path, len(asset.Groups))

	hash, err := timeline.Hash(asset)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("hash asset: %w", err))
	}

	result := ValidationResult{
		Version: asset.Version,
		Hash:    hash,
		Groups:  summarizeGroups(asset),
	}
	for _, a := range asset.Validate() {
		result.Anomalies = append(result.Anomalies, Anomaly{Path: a.Path, Message: a.Message})
	}
	result.Valid = len(result.Anomalies) == 0

	if err := formatter.Success(result); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d anomal(ies) found", len(result.Anomalies)))
	}
	return nil
}

func summarizeGroups(asset *timeline.Asset) []GroupSummary {
	out := make([]GroupSummary, 0, len(asset.Groups))
	for _, g := range asset.Groups {
		s := GroupSummary{
			ID:          g.ID,
			Name:        g.Name,
			MaxDuration: g.MaxDuration,
			Looping:     g.Looping,
			Speed:       g.Speed,
			Tracks:      len(g.Tracks),
		}
		for _, t := range g.Tracks {
			s.Clips += len(t.Clips)
		}
		out = append(out, s)
	}
	return out
}
