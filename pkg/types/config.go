package types

import (
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ServerConfig holds settings for the HTTP conversion service.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":3001").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes caps the multipart body accepted by /api/convert.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// RateLimitPerMinute is the per-client request budget for /api/convert.
	// Zero disables rate limiting.
	RateLimitPerMinute int `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`

	// CORSOrigins lists allowed origins ("*" allows any).
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" mapstructure:"cors_origins"`

	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ToolsConfig names the external converter binaries and bounds their runtime.
type ToolsConfig struct {
	// DocumentConverter is the pandoc binary.
	DocumentConverter string `json:"document_converter" yaml:"document_converter" mapstructure:"document_converter"`

	// ImageConverter is the ImageMagick convert binary.
	ImageConverter string `json:"image_converter" yaml:"image_converter" mapstructure:"image_converter"`

	// Timeout bounds a single conversion; the child process is killed when
	// it elapses. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// WorkspaceConfig holds settings for per-request upload storage.
type WorkspaceConfig struct {
	// Dir is the root under which each request gets its own job directory.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Retention is how long a finished job directory is kept before removal.
	Retention time.Duration `json:"retention" yaml:"retention" mapstructure:"retention"`
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json, console, or auto (console on a terminal).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings for docconv.
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Tools     ToolsConfig     `json:"tools" yaml:"tools" mapstructure:"tools"`
	Workspace WorkspaceConfig `json:"workspace" yaml:"workspace" mapstructure:"workspace"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultConfig returns the settings used when no config file or
// environment override is present.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:               ":3001",
			MaxUploadBytes:     50 << 20,
			RateLimitPerMinute: 60,
			CORSOrigins:        []string{"*"},
			ReadTimeout:        30 * time.Second,
			WriteTimeout:       5 * time.Minute,
			ShutdownTimeout:    10 * time.Second,
		},
		Tools: ToolsConfig{
			DocumentConverter: "pandoc",
			ImageConverter:    "convert",
			Timeout:           2 * time.Minute,
		},
		Workspace: WorkspaceConfig{
			Dir:       filepath.Join(os.TempDir(), "file-converter"),
			Retention: time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Validate checks the settings that would otherwise fail late at runtime.
func (c Config) Validate() error {
	return validation.Errors{
		"server": validation.ValidateStruct(&c.Server,
			validation.Field(&c.Server.Addr, validation.Required),
			validation.Field(&c.Server.MaxUploadBytes, validation.Required, validation.Min(int64(1))),
			validation.Field(&c.Server.RateLimitPerMinute, validation.Min(0)),
		),
		"tools": validation.ValidateStruct(&c.Tools,
			validation.Field(&c.Tools.DocumentConverter, validation.Required),
			validation.Field(&c.Tools.ImageConverter, validation.Required),
			validation.Field(&c.Tools.Timeout, validation.Min(time.Duration(0))),
		),
		"workspace": validation.ValidateStruct(&c.Workspace,
			validation.Field(&c.Workspace.Dir, validation.Required),
			validation.Field(&c.Workspace.Retention, validation.Min(time.Duration(0))),
		),
		"log": validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
			validation.Field(&c.Log.Format, validation.In("json", "console", "auto")),
		),
	}.Filter()
}
