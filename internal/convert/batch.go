// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pdiddy/docconv/pkg/types"
)

// BatchOptions configures a local batch conversion.
type BatchOptions struct {
	// From and To are the declared input and output formats for every file.
	From string
	To   string

	// OutDir receives the artifacts. Empty writes next to each input.
	OutDir string

	// Overwrite replaces existing artifacts instead of skipping them.
	Overwrite bool
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertFile converts one local file and prints its status to w. An
// existing artifact is left alone unless opts.Overwrite is set. The
// converter runs in the output directory, so extracted media lands beside
// the artifact.
func (s *Service) ConvertFile(ctx context.Context, path string, opts BatchOptions, w io.Writer) types.ConversionStatus {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	st := s.Plan(opts.From, opts.To)

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Dir(path)
	}
	outPath := filepath.Join(outDir, base+st.Extension)

	if abs, err := filepath.Abs(path); err == nil {
		if absOut, err := filepath.Abs(outPath); err == nil && abs == absOut {
			fmt.Fprintf(w, "skipped: %s (output would overwrite input)\n", base)
			return types.ConversionNone
		}
	}

	if _, err := os.Stat(outPath); err == nil && !opts.Overwrite {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", base)
		return types.ConversionNone
	}

	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	res, err := s.Convert(ctx, types.ConversionRequest{
		InputPath:    path,
		OutputPath:   outPath,
		InputFormat:  opts.From,
		OutputFormat: opts.To,
		WorkDir:      outDir,
	})
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", base, err)
		return types.ConversionFailed
	}

	fmt.Fprintf(w, "converted: %s -> %s (%s)\n", base, filepath.Base(res.OutputPath), humanize.Bytes(uint64(res.Size)))
	return types.ConversionDone
}

// ConvertBatch processes paths in order, printing per-file status to w and
// returning a summary. It stops early only when ctx is done.
func (s *Service) ConvertBatch(ctx context.Context, paths []string, opts BatchOptions, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		switch s.ConvertFile(ctx, p, opts, w) {
		case types.ConversionDone:
			result.Converted++
		case types.ConversionNone:
			result.Skipped++
		case types.ConversionFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
