package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/internal/formats"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert local files between formats",
	Long: `Convert runs pandoc or ImageMagick on each file, writing the result next to
the input or into --out-dir. Existing outputs are skipped unless --overwrite
is set. Formats are declared, not detected: --from applies to every file.`,
	Example: `  docconv convert --from markdown --to pdf notes.md
  docconv convert --from png --to jpg --out-dir out/ *.png`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("from", "", "input format identifier (required)")
	convertCmd.Flags().String("to", "", "output format identifier (required)")
	convertCmd.Flags().String("out-dir", "", "directory for converted files (default: next to each input)")
	convertCmd.Flags().Bool("overwrite", false, "replace existing output files")
	_ = convertCmd.MarkFlagRequired("from")
	_ = convertCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more files to convert")
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	outDir, _ := cmd.Flags().GetString("out-dir")
	overwrite, _ := cmd.Flags().GetBool("overwrite")

	for _, id := range []string{from, to} {
		if !formats.ValidID(id) {
			return fmt.Errorf("invalid format identifier %q", id)
		}
	}

	opts := convert.BatchOptions{From: from, To: to, OutDir: outDir, Overwrite: overwrite}
	result := newService(cfg, logger).ConvertBatch(cmd.Context(), args, opts, cmd.OutOrStdout())
	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed conversion", result.Failed)
	}
	return nil
}
