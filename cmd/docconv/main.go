// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docconv CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/docconv/internal/logging"
	"github.com/pdiddy/docconv/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the docconv CLI.
var rootCmd = &cobra.Command{
	Use:   "docconv",
	Short: "Convert documents and images with pandoc and ImageMagick",
	Long: `docconv converts files between document formats (Markdown, HTML, PDF,
DOCX, ODT, RTF, LaTeX, EPUB) and raster image formats (PNG, JPG, TIFF, BMP,
GIF). Document work is delegated to pandoc and image work to ImageMagick.

Run "docconv serve" for the HTTP API or "docconv convert" for local files.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./docconv.yaml or ~/.config/docconv/docconv.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: json, console, auto")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docconv")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docconv"))
		}
	}

	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// configureViper registers defaults and environment overrides. Every key
// needs a default so AutomaticEnv can see it during Unmarshal.
func configureViper(v *viper.Viper) {
	d := types.DefaultConfig()
	defaults := map[string]any{
		"server.addr":                  d.Server.Addr,
		"server.max_upload_bytes":      d.Server.MaxUploadBytes,
		"server.rate_limit_per_minute": d.Server.RateLimitPerMinute,
		"server.cors_origins":          d.Server.CORSOrigins,
		"server.read_timeout":          d.Server.ReadTimeout,
		"server.write_timeout":         d.Server.WriteTimeout,
		"server.shutdown_timeout":      d.Server.ShutdownTimeout,
		"tools.document_converter":     d.Tools.DocumentConverter,
		"tools.image_converter":        d.Tools.ImageConverter,
		"tools.timeout":                d.Tools.Timeout,
		"workspace.dir":                d.Workspace.Dir,
		"workspace.retention":          d.Workspace.Retention,
		"log.level":                    d.Log.Level,
		"log.format":                   d.Log.Format,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("DOCCONV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig decodes and validates the effective configuration.
func loadConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setup loads the config and builds the logger for a command.
func setup() (types.Config, *zap.Logger, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return cfg, nil, err
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
