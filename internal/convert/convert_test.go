// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/docconv/internal/execute"
	"github.com/pdiddy/docconv/internal/strategy"
	"github.com/pdiddy/docconv/pkg/types"
)

// fakeRunner implements Runner for testing. It records each command and,
// unless told otherwise, writes the command's output file.
type fakeRunner struct {
	err      error
	noOutput bool
	calls    []strategy.Command
	dirs     []string
}

func (f *fakeRunner) Execute(_ context.Context, cmd strategy.Command, dir string) error {
	f.calls = append(f.calls, cmd)
	f.dirs = append(f.dirs, dir)
	if f.err != nil {
		return f.err
	}
	if f.noOutput {
		return nil
	}
	return os.WriteFile(outputArg(cmd), []byte("artifact"), 0o644)
}

// outputArg finds the output path in a pandoc or convert command line.
func outputArg(cmd strategy.Command) string {
	for i, a := range cmd {
		if a == "-o" && i+1 < len(cmd) {
			return cmd[i+1]
		}
	}
	return cmd[len(cmd)-1]
}

func newTestService(t *testing.T, r Runner) *Service {
	t.Helper()
	return NewService(strategy.NewSelector(strategy.DefaultTools()), r, zaptest.NewLogger(t))
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("# Title\n\nBody."), 0o644))
	return p
}

func TestConvert_Success(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "notes.md")
	out := filepath.Join(dir, "notes.pdf")

	r := &fakeRunner{}
	res, err := newTestService(t, r).Convert(context.Background(), types.ConversionRequest{
		InputPath: in, OutputPath: out, InputFormat: "markdown", OutputFormat: "pdf", WorkDir: dir,
	})
	require.NoError(t, err)

	assert.Equal(t, out, res.OutputPath)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.Equal(t, ".pdf", res.Extension)
	assert.Equal(t, "pdf-output", res.Strategy)
	assert.Equal(t, int64(len("artifact")), res.Size)

	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"pandoc", "-f", "markdown"}, []string(r.calls[0][:3]))
	assert.Equal(t, []string{"-o", out, in}, []string(r.calls[0][len(r.calls[0])-3:]))
	assert.Equal(t, dir, r.dirs[0])
}

func TestConvert_OutputMissing(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "empty.md")

	_, err := newTestService(t, &fakeRunner{noOutput: true}).Convert(context.Background(), types.ConversionRequest{
		InputPath: in, OutputPath: filepath.Join(dir, "empty.html"), InputFormat: "markdown", OutputFormat: "html",
	})
	require.ErrorIs(t, err, ErrOutputMissing)
	assert.Contains(t, err.Error(), "output file was not produced")
}

func TestConvert_RunnerErrorsPropagate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"tool missing", &execute.Error{Kind: execute.KindToolNotAvailable, Tool: "convert"}, execute.ErrToolNotAvailable},
		{"non-zero exit", &execute.Error{Kind: execute.KindConversionFailed, ExitCode: 1, Stderr: "bad"}, execute.ErrConversionFailed},
		{"timeout", &execute.Error{Kind: execute.KindTimeout}, execute.ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := newTestService(t, &fakeRunner{err: tt.err}).Convert(context.Background(), types.ConversionRequest{
				InputPath: writeInput(t, dir, "a.png"), OutputPath: filepath.Join(dir, "a.jpg"), InputFormat: "png", OutputFormat: "jpg",
			})
			require.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, ErrOutputMissing)
		})
	}
}

func TestConvert_RelativePathsResolvedWithWorkDir(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	writeInput(t, dir, "in.html")
	work := filepath.Join(dir, "job")
	require.NoError(t, os.Mkdir(work, 0o755))

	r := &fakeRunner{}
	res, err := newTestService(t, r).Convert(context.Background(), types.ConversionRequest{
		InputPath: "in.html", OutputPath: "out.docx", InputFormat: "html", OutputFormat: "docx", WorkDir: work,
	})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(res.OutputPath))
	assert.Equal(t, filepath.Join(dir, "out.docx"), res.OutputPath)
	assert.Equal(t, filepath.Join(dir, "in.html"), r.calls[0][len(r.calls[0])-1])
}

func TestPlan(t *testing.T) {
	s := newTestService(t, &fakeRunner{})
	assert.Equal(t, strategy.PdfInput, s.Plan("PDF", "markdown").Kind)
	assert.Equal(t, ".md", s.Plan("pdf", "markdown").Extension)
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name       string
		runner     *fakeRunner
		preCreate  bool
		overwrite  bool
		wantStatus types.ConversionStatus
		wantLog    string
	}{
		{
			name:       "successful conversion",
			runner:     &fakeRunner{},
			wantStatus: types.ConversionDone,
			wantLog:    "converted: report -> report.html",
		},
		{
			name:       "skip existing artifact",
			runner:     &fakeRunner{},
			preCreate:  true,
			wantStatus: types.ConversionNone,
			wantLog:    "skipped:",
		},
		{
			name:       "overwrite existing artifact",
			runner:     &fakeRunner{},
			preCreate:  true,
			overwrite:  true,
			wantStatus: types.ConversionDone,
			wantLog:    "converted:",
		},
		{
			name:       "conversion failure",
			runner:     &fakeRunner{err: errors.New("pandoc crashed")},
			wantStatus: types.ConversionFailed,
			wantLog:    "failed:",
		},
		{
			name:       "missing output",
			runner:     &fakeRunner{noOutput: true},
			wantStatus: types.ConversionFailed,
			wantLog:    "output file was not produced",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			in := writeInput(t, dir, "report.md")
			outDir := filepath.Join(dir, "out")
			if tt.preCreate {
				require.NoError(t, os.MkdirAll(outDir, 0o755))
				require.NoError(t, os.WriteFile(filepath.Join(outDir, "report.html"), []byte("old"), 0o644))
			}

			var log bytes.Buffer
			status := newTestService(t, tt.runner).ConvertFile(context.Background(), in,
				BatchOptions{From: "markdown", To: "html", OutDir: outDir, Overwrite: tt.overwrite}, &log)

			assert.Equal(t, tt.wantStatus, status)
			assert.Contains(t, log.String(), tt.wantLog)
		})
	}
}

func TestConvertFile_DefaultsToInputDir(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "page.html")

	r := &fakeRunner{}
	var log bytes.Buffer
	status := newTestService(t, r).ConvertFile(context.Background(), in, BatchOptions{From: "html", To: "docx"}, &log)

	assert.Equal(t, types.ConversionDone, status)
	assert.FileExists(t, filepath.Join(dir, "page.docx"))
	assert.Equal(t, dir, r.dirs[0])
}

func TestConvertFile_RefusesToOverwriteInput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "same.md")

	r := &fakeRunner{}
	var log bytes.Buffer
	status := newTestService(t, r).ConvertFile(context.Background(), in,
		BatchOptions{From: "markdown", To: "markdown", Overwrite: true}, &log)

	assert.Equal(t, types.ConversionNone, status)
	assert.Empty(t, r.calls)
}

func TestConvertBatch(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.md")
	b := writeInput(t, dir, "b.md")
	missing := filepath.Join(dir, "missing.md")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "b.odt"), []byte("old"), 0o644))

	var log bytes.Buffer
	res := newTestService(t, &fakeRunner{}).ConvertBatch(context.Background(), []string{a, b, missing},
		BatchOptions{From: "markdown", To: "odt", OutDir: outDir}, &log)

	assert.Equal(t, BatchResult{Converted: 1, Skipped: 1, Failed: 1}, res)
	assert.Equal(t, 3, res.Total())
	assert.True(t, res.HasFailures())
	assert.True(t, strings.Contains(log.String(), "Batch summary: 1 converted, 1 skipped, 1 failed (total: 3)"))
}

func TestConvertBatch_StopsWhenContextDone(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &fakeRunner{}
	var log bytes.Buffer
	res := newTestService(t, r).ConvertBatch(ctx, []string{writeInput(t, dir, "a.md")},
		BatchOptions{From: "markdown", To: "html"}, &log)

	assert.Equal(t, 0, res.Total())
	assert.Empty(t, r.calls)
}
