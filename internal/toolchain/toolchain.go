// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package toolchain probes the external converters docconv shells out to.
package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/pdiddy/docconv/pkg/types"
)

// Probe names used by the check endpoint and CLI.
const (
	NamePandoc      = "pandoc"
	NameImageMagick = "imagemagick"
)

// probeTimeout bounds a single version query.
const probeTimeout = 10 * time.Second

// Tool reports on one converter binary.
type Tool interface {
	// Name returns the probe name ("pandoc" or "imagemagick").
	Name() string

	// Binary returns the executable the probe looks for.
	Binary() string

	// Available reports whether the binary exists on PATH.
	Available() bool

	// Version runs the binary's version flag and returns a short version
	// string. It fails when the binary is missing or exits non-zero.
	Version(ctx context.Context) (string, error)
}

// executor abstracts command lookup and execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
}

// tool implements Tool for a converter binary. The document and image
// converters differ only in the version flag and how its output is trimmed.
type tool struct {
	name        string
	bin         string
	versionArgs []string
	prefix      string // stripped from the first line of version output
	exec        executor
}

func (t *tool) Name() string   { return t.name }
func (t *tool) Binary() string { return t.bin }

func (t *tool) Available() bool {
	_, err := t.exec.LookPath(t.bin)
	return err == nil
}

func (t *tool) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := t.exec.Output(ctx, t.bin, t.versionArgs...)
	if err != nil {
		return "", fmt.Errorf("%s is not installed or not in PATH: %w", t.bin, err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	line = strings.TrimSpace(line)
	return strings.TrimSpace(strings.TrimPrefix(line, t.prefix)), nil
}

func newPandoc(bin string, exec executor) *tool {
	if bin == "" {
		bin = "pandoc"
	}
	return &tool{name: NamePandoc, bin: bin, versionArgs: []string{"--version"}, prefix: "pandoc ", exec: exec}
}

func newImageMagick(bin string, exec executor) *tool {
	if bin == "" {
		bin = "convert"
	}
	return &tool{name: NameImageMagick, bin: bin, versionArgs: []string{"-version"}, exec: exec}
}

var defaultExec = &osExecutor{}

// Tools returns the probes for the configured converters, document
// converter first.
func Tools(cfg types.ToolsConfig) []Tool {
	return tools(cfg, defaultExec)
}

func tools(cfg types.ToolsConfig, exec executor) []Tool {
	return []Tool{newPandoc(cfg.DocumentConverter, exec), newImageMagick(cfg.ImageConverter, exec)}
}

// Lookup returns the probe with the given name.
func Lookup(cfg types.ToolsConfig, name string) (Tool, bool) {
	for _, t := range Tools(cfg) {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Status is the outcome of probing one tool.
type Status struct {
	Name      string `json:"name" yaml:"name"`
	Binary    string `json:"binary" yaml:"binary"`
	Installed bool   `json:"installed" yaml:"installed"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Check probes t.
func Check(ctx context.Context, t Tool) Status {
	st := Status{Name: t.Name(), Binary: t.Binary()}
	v, err := t.Version(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Installed = true
	st.Version = v
	return st
}

// Detect probes every configured tool.
func Detect(ctx context.Context, cfg types.ToolsConfig) []Status {
	return detect(ctx, tools(cfg, defaultExec))
}

func detect(ctx context.Context, ts []Tool) []Status {
	out := make([]Status, 0, len(ts))
	for _, t := range ts {
		out = append(out, Check(ctx, t))
	}
	return out
}

// AllInstalled reports whether every status is installed.
func AllInstalled(statuses []Status) bool {
	for _, s := range statuses {
		if !s.Installed {
			return false
		}
	}
	return true
}
