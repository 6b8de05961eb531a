package timeline

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed asset_schema.cue
var assetSchema string

// Format identifies an asset encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCUE  Format = "cue"
)

// Load error codes. They match the CLI's error code table.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeNotFound    = "E005"
	ErrCodeLoadFailed  = "E004"
	ErrCodeBuildFailed = "E006"
	ErrCodeWriteFailed = "E007"
	ErrCodeSchema      = "E008"
	ErrCodeFormat      = "E009"
)

// LoadError reports why an asset could not be read or written.
type LoadError struct {
	Code    string
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", &LoadError{Code: ErrCodeFormat, Path: path, Message: "unsupported asset extension (want .yaml, .yml, .json or .cue)"}
	}
}

// Load reads the asset at path. The format is chosen by extension.
func Load(path string) (*Asset, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "asset not found", Err: err}
		}
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: err.Error(), Err: err}
	}
	asset, err := Decode(data, format, path)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Decode parses data in the given format. name is only used in messages.
//
// Every format goes through the same pipeline: build a CUE value, unify it
// with #Asset, require it to be concrete, export JSON and decode that into
// the Go model. This keeps the three formats equally strict.
func Decode(data []byte, format Format, name string) (*Asset, error) {
	ctx := cuecontext.New()

	var value cue.Value
	switch format {
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Path: name, Message: fmt.Sprintf("parsing YAML: %v", err), Err: err}
		}
		if doc == nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Path: name, Message: "empty document"}
		}
		value = ctx.Encode(doc)
	case FormatJSON, FormatCUE:
		value = ctx.CompileBytes(data, cue.Filename(name))
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Path: name, Message: fmt.Sprintf("unknown format %q", format)}
	}
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Path: name, Message: fmt.Sprintf("building CUE value: %v", err), Err: err}
	}

	schema := ctx.CompileString(assetSchema, cue.Filename("asset_schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Path: name, Message: fmt.Sprintf("compiling schema: %v", err), Err: err}
	}
	unified := schema.LookupPath(cue.ParsePath("#Asset")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Path: name, Message: fmt.Sprintf("schema: %v", err), Err: err}
	}

	exported, err := unified.MarshalJSON()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Path: name, Message: fmt.Sprintf("exporting: %v", err), Err: err}
	}
	asset := NewAsset()
	if err := json.Unmarshal(exported, asset); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: name, Message: fmt.Sprintf("decoding: %v", err), Err: err}
	}
	return asset, nil
}

// Encode renders the asset in the given format. CUE output is not supported;
// JSON is valid CUE, so callers wanting a .cue file can write JSON into it.
func Encode(asset *Asset, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(asset)
	case FormatJSON, FormatCUE:
		return json.MarshalIndent(asset, "", "  ")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Save writes the asset to path in the format implied by its extension.
func Save(asset *Asset, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(asset, format)
	if err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Path: path, Message: err.Error(), Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &LoadError{Code: ErrCodeWriteFailed, Path: path, Message: err.Error(), Err: err}
	}
	return nil
}
