package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docconv/internal/formats"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List known format identifiers",
	Long: `Formats lists the registered format identifiers with their file extension,
content type, and the converter that handles them. Identifiers not listed are
still accepted and passed through to pandoc.`,
	RunE: runFormats,
}

func init() {
	formatsCmd.Flags().Bool("yaml", false, "print as YAML")

	rootCmd.AddCommand(formatsCmd)
}

func runFormats(cmd *cobra.Command, args []string) error {
	all := formats.All()

	asYAML, _ := cmd.Flags().GetBool("yaml")
	if asYAML {
		out, err := yaml.Marshal(all)
		if err != nil {
			return fmt.Errorf("encoding formats: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}

	rows := make([][]string, 0, len(all))
	for _, d := range all {
		tool := "pandoc"
		if d.Image {
			tool = "imagemagick"
		}
		rows = append(rows, []string{d.ID, d.Extension, d.ContentType, tool})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Format", "Extension", "Content Type", "Converter"}, rows))
	return nil
}
