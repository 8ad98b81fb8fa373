// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ConversionStatus indicates the outcome of converting one file.
type ConversionStatus string

const (
	ConversionNone   ConversionStatus = "none"
	ConversionDone   ConversionStatus = "converted"
	ConversionFailed ConversionStatus = "failed"
)

// ConversionRequest names one conversion: a readable source file, the path
// the artifact must be written to, and the declared format pair. Format
// identifiers are free-form; they are not checked against the registry.
type ConversionRequest struct {
	InputPath    string `json:"input_path" yaml:"input_path"`
	OutputPath   string `json:"output_path" yaml:"output_path"`
	InputFormat  string `json:"input_format" yaml:"input_format"`
	OutputFormat string `json:"output_format" yaml:"output_format"`

	// WorkDir is the working directory of the converter process. Relative
	// media-extraction paths resolve under it. Empty inherits the caller's.
	WorkDir string `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
}

// ConversionResult describes a produced artifact.
type ConversionResult struct {
	// OutputPath is the artifact location; it exists when the result is returned.
	OutputPath string `json:"output_path" yaml:"output_path"`

	// ContentType is the MIME type reported by the selected strategy.
	ContentType string `json:"content_type" yaml:"content_type"`

	// Extension is the artifact extension, including the leading dot.
	Extension string `json:"extension" yaml:"extension"`

	// Strategy names the strategy that produced the artifact (e.g. "pdf-output").
	Strategy string `json:"strategy" yaml:"strategy"`

	// Size is the artifact size in bytes.
	Size int64 `json:"size" yaml:"size"`
}
