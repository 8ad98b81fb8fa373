// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs one conversion end to end: select a strategy for the
// declared format pair, build its command, execute it, and confirm the
// artifact was written.
package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/pdiddy/docconv/internal/strategy"
	"github.com/pdiddy/docconv/pkg/types"
)

// ErrOutputMissing reports a converter that exited 0 without writing the
// declared output file.
var ErrOutputMissing = errors.New("output file was not produced")

// Runner executes a converter command in a working directory.
// *execute.Engine implements it.
type Runner interface {
	Execute(ctx context.Context, cmd strategy.Command, dir string) error
}

// Service performs conversions. It is safe for concurrent use; each call
// owns the paths in its request.
type Service struct {
	selector *strategy.Selector
	runner   Runner
	logger   *zap.Logger
}

// NewService returns a Service that picks strategies with selector and runs
// them with runner.
func NewService(selector *strategy.Selector, runner Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{selector: selector, runner: runner, logger: logger}
}

// Plan returns the strategy the service would use for a format pair. The
// transport uses it to name the output file before converting.
func (s *Service) Plan(inputFormat, outputFormat string) strategy.Strategy {
	return s.selector.Select(inputFormat, outputFormat)
}

// Convert runs req. On success the artifact exists at req.OutputPath. A
// converter that exits 0 without creating it yields ErrOutputMissing.
func (s *Service) Convert(ctx context.Context, req types.ConversionRequest) (types.ConversionResult, error) {
	// The converter runs in WorkDir, so relative paths would resolve there.
	if req.WorkDir != "" {
		var err error
		if req.InputPath, err = filepath.Abs(req.InputPath); err != nil {
			return types.ConversionResult{}, fmt.Errorf("resolving input path: %w", err)
		}
		if req.OutputPath, err = filepath.Abs(req.OutputPath); err != nil {
			return types.ConversionResult{}, fmt.Errorf("resolving output path: %w", err)
		}
	}

	st := s.selector.Select(req.InputFormat, req.OutputFormat)
	cmd := st.BuildCommand(req.InputPath, req.OutputPath)

	log := s.logger.With(
		zap.String("input_format", req.InputFormat),
		zap.String("output_format", req.OutputFormat),
		zap.Stringer("strategy", st.Kind),
	)

	start := time.Now()
	if err := s.runner.Execute(ctx, cmd, req.WorkDir); err != nil {
		log.Warn("conversion failed", zap.Error(err))
		return types.ConversionResult{}, err
	}

	info, err := os.Stat(req.OutputPath)
	if err != nil {
		log.Warn("converter exited cleanly without output", zap.String("output", req.OutputPath))
		return types.ConversionResult{}, fmt.Errorf("%w: %s", ErrOutputMissing, req.OutputPath)
	}
	if info.IsDir() {
		return types.ConversionResult{}, fmt.Errorf("%w: %s is a directory", ErrOutputMissing, req.OutputPath)
	}

	log.Info("conversion complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("size", humanize.Bytes(uint64(info.Size()))),
	)

	return types.ConversionResult{
		OutputPath:  req.OutputPath,
		ContentType: st.ContentType,
		Extension:   st.Extension,
		Strategy:    st.Kind.String(),
		Size:        info.Size(),
	}, nil
}
