package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"settlement-engine/internal/dto/request"
	"settlement-engine/internal/report"
	"settlement-engine/internal/usecase"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a settlement report file",
	Example: `  # All paid entries of one operator in May as a spreadsheet
  settlement export --format xlsx --operator op-42 --status paid --from 2026-05-01 --to 2026-06-01

  # Everything as CSV into a directory
  settlement export --out reports/`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", "csv", "Report format: csv, xlsx or pdf")
	exportCmd.Flags().String("operator", "", "Only entries of this operator")
	exportCmd.Flags().String("status", "", "Only entries in this status")
	exportCmd.Flags().String("from", "", "Created on or after (YYYY-MM-DD or RFC3339)")
	exportCmd.Flags().String("to", "", "Created before (YYYY-MM-DD or RFC3339)")
	exportCmd.Flags().String("out", "", "Output file or directory (default: generated name in the working directory)")
}

func runExport(cmd *cobra.Command, args []string) error {
	rawFormat, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	format, ok := report.ParseFormat(rawFormat)
	if !ok {
		return fmt.Errorf("unknown format %q: use csv, xlsx or pdf", rawFormat)
	}

	query := request.LedgerFilterQuery{}
	query.OperatorID, _ = cmd.Flags().GetString("operator")
	query.Status, _ = cmd.Flags().GetString("status")
	query.From, _ = cmd.Flags().GetString("from")
	query.To, _ = cmd.Flags().GetString("to")

	filter, err := query.ToFilter()
	if err != nil {
		return err
	}

	s, err := openStack(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()

	service := usecase.NewService(s.repos, config, s.deps, logger)

	export, err := service.Export.Export(cmd.Context(), format, filter)
	if err != nil {
		return err
	}

	path := exportPath(out, export.Filename)
	if err := os.WriteFile(path, export.Body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	logger.Info("Export written", zap.String("path", path), zap.String("digest", export.Digest))
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, export.Digest)
	return nil
}

// exportPath resolves --out: empty uses the generated name, an existing
// directory receives the generated name, anything else is the file path.
func exportPath(out, generated string) string {
	if out == "" {
		return generated
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, generated)
	}
	return out
}
