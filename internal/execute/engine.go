// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package execute runs external converter commands as child processes.
//
// Commands are spawned directly from their argument list, never through a
// shell, so file names and format identifiers cannot inject shell syntax.
// The child's stderr is captured line by line while it runs; stdout is
// discarded. A run resolves only when the process exits.
package execute

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/docconv/internal/strategy"
	"github.com/pdiddy/docconv/pkg/types"
)

// maxStderr caps the diagnostic text kept for an error report.
const maxStderr = 64 << 10

// killGrace is how long a killed child may hold its output pipes open.
const killGrace = 5 * time.Second

// executor abstracts process execution for testing.
type executor interface {
	// Run starts name with args in dir, copies its stderr to stderr, and
	// waits for it to exit. It returns the exit code. A failure to spawn
	// the process is returned as a *startError.
	Run(ctx context.Context, dir, name string, args []string, stderr io.Writer) (int, error)
}

// startError marks a process that never started.
type startError struct {
	err error
}

func (e *startError) Error() string { return e.err.Error() }
func (e *startError) Unwrap() error { return e.err }

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) Run(ctx context.Context, dir, name string, args []string, stderr io.Writer) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	cmd.Dir = dir
	cmd.Stderr = stderr
	cmd.WaitDelay = killGrace

	if err := cmd.Start(); err != nil {
		return -1, &startError{err: err}
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

var defaultExec = &osExecutor{}

// Engine runs converter commands with a bounded wait.
type Engine struct {
	exec    executor
	timeout time.Duration
	logger  *zap.Logger
}

// New returns an Engine that kills a converter after cfg.Timeout.
func New(cfg types.ToolsConfig, logger *zap.Logger) *Engine {
	return newEngine(defaultExec, cfg.Timeout, logger)
}

func newEngine(exec executor, timeout time.Duration, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{exec: exec, timeout: timeout, logger: logger}
}

// Execute runs cmd with dir as its working directory (empty inherits ours).
// It returns nil when the process exits 0 and an *Error otherwise.
func (e *Engine) Execute(ctx context.Context, cmd strategy.Command, dir string) error {
	name := cmd.Name()
	if name == "" {
		return errors.New("execute: empty command")
	}
	if dir != "" {
		if info, err := os.Stat(dir); err != nil {
			return fmt.Errorf("execute: working directory: %w", err)
		} else if !info.IsDir() {
			return fmt.Errorf("execute: working directory %s is not a directory", dir)
		}
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	log := e.logger.With(zap.String("tool", name))
	log.Debug("running converter", zap.Strings("args", cmd.Args()), zap.String("dir", dir))

	capture := &stderrCapture{
		limit: maxStderr,
		onLine: func(line string) {
			log.Debug("converter stderr", zap.String("line", line))
		},
	}

	start := time.Now()
	code, err := e.exec.Run(runCtx, dir, name, cmd.Args(), capture)
	capture.flush()
	elapsed := time.Since(start)

	var se *startError
	switch {
	case err == nil && code == 0:
		log.Debug("converter finished", zap.Duration("elapsed", elapsed))
		return nil
	case ctx.Err() != nil:
		return &Error{Kind: KindCanceled, Tool: name, Stderr: capture.String(), Err: ctx.Err()}
	case runCtx.Err() != nil:
		log.Warn("converter timed out", zap.Duration("timeout", e.timeout))
		return &Error{Kind: KindTimeout, Tool: name, Stderr: capture.String(), Timeout: e.timeout, Err: runCtx.Err()}
	case errors.As(err, &se):
		log.Warn("converter not available", zap.Error(se.err))
		return &Error{Kind: KindToolNotAvailable, Tool: name, Err: se.err}
	case err != nil:
		return fmt.Errorf("running %s: %w", name, err)
	default:
		log.Info("converter failed", zap.Int("exit_code", code), zap.Duration("elapsed", elapsed))
		return &Error{Kind: KindConversionFailed, Tool: name, ExitCode: code, Stderr: capture.String()}
	}
}

// stderrCapture splits the child's stderr into lines as it arrives and keeps
// up to limit bytes of them.
type stderrCapture struct {
	limit     int
	onLine    func(string)
	partial   []byte
	kept      strings.Builder
	truncated bool
}

func (c *stderrCapture) Write(p []byte) (int, error) {
	c.partial = append(c.partial, p...)
	for {
		i := bytes.IndexByte(c.partial, '\n')
		if i < 0 {
			break
		}
		c.line(string(c.partial[:i]))
		c.partial = c.partial[i+1:]
	}
	return len(p), nil
}

func (c *stderrCapture) flush() {
	if len(c.partial) > 0 {
		c.line(string(c.partial))
		c.partial = nil
	}
}

func (c *stderrCapture) line(s string) {
	s = strings.TrimRight(s, "\r")
	if c.onLine != nil {
		c.onLine(s)
	}
	if c.kept.Len()+len(s)+1 > c.limit {
		c.truncated = true
		return
	}
	c.kept.WriteString(s)
	c.kept.WriteByte('\n')
}

func (c *stderrCapture) String() string {
	if c.truncated {
		return c.kept.String() + "[stderr truncated]\n"
	}
	return c.kept.String()
}
