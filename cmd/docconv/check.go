package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docconv/internal/toolchain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the external converters are installed",
	Long: `Check probes the configured pandoc and ImageMagick binaries and prints their
versions. It exits non-zero when either is missing.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup()
	if err != nil {
		return err
	}

	statuses := toolchain.Detect(cmd.Context(), cfg.Tools)
	fmt.Fprintln(cmd.OutOrStdout(), renderStatuses(statuses))

	if !toolchain.AllInstalled(statuses) {
		return fmt.Errorf("one or more converters are not installed")
	}
	return nil
}

func renderStatuses(statuses []toolchain.Status) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		installed, detail := "yes", s.Version
		if !s.Installed {
			installed, detail = "no", s.Error
		}
		rows = append(rows, []string{s.Name, s.Binary, installed, detail})
	}
	return renderTable([]string{"Tool", "Binary", "Installed", "Version"}, rows)
}
