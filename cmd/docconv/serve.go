package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/internal/execute"
	"github.com/pdiddy/docconv/internal/server"
	"github.com/pdiddy/docconv/internal/strategy"
	"github.com/pdiddy/docconv/internal/toolchain"
	"github.com/pdiddy/docconv/internal/workspace"
	"github.com/pdiddy/docconv/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion API",
	Long: `Serve starts the HTTP API. Uploads are stored under the workspace
directory, one job directory per request, and removed after the retention
window. Only one server may use a workspace at a time.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :3001)")
	serveCmd.Flags().String("workspace", "", "workspace directory for uploads")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("workspace.dir", serveCmd.Flags().Lookup("workspace"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ws, err := workspace.New(cfg.Workspace.Dir, cfg.Workspace.Retention, logger)
	if err != nil {
		return err
	}
	if err := ws.Lock(); err != nil {
		return err
	}
	defer func() {
		if err := ws.Unlock(); err != nil {
			logger.Warn("failed to release workspace lock", zap.Error(err))
		}
	}()

	if _, err := ws.Sweep(time.Now()); err != nil {
		logger.Warn("workspace sweep failed", zap.Error(err))
	}

	for _, st := range toolchain.Detect(cmd.Context(), cfg.Tools) {
		if st.Installed {
			logger.Info("converter available", zap.String("tool", st.Name), zap.String("version", st.Version))
		} else {
			logger.Warn("converter missing", zap.String("tool", st.Name), zap.String("binary", st.Binary))
		}
	}

	srv := server.New(cfg.Server, cfg.Tools, ws, newService(cfg, logger), logger)

	logger.Info("starting docconv",
		zap.String("version", version),
		zap.String("workspace", ws.Dir()),
		zap.String("max_upload", humanize.IBytes(uint64(cfg.Server.MaxUploadBytes))),
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping docconv")
		ws.Close()
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// newService wires the conversion pipeline from config.
func newService(cfg types.Config, logger *zap.Logger) *convert.Service {
	tools := strategy.Tools{Document: cfg.Tools.DocumentConverter, Image: cfg.Tools.ImageConverter}
	return convert.NewService(strategy.NewSelector(tools), execute.New(cfg.Tools, logger), logger)
}
