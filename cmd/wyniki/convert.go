package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"wyniki/pkg/config"
	"wyniki/pkg/logger"
	"wyniki/pkg/report"
	"wyniki/pkg/ui"
)

var (
	// Convert command flags
	inputDir    string
	reportFile  string
	workers     int
	previewRows int
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Collate downloaded XML results into one CSV file",
	Long: `Read every *.xml file in the input directory and write one CSV row per
test parameter.

Bilirubin is converted from mg/dl to µmol/l and total cholesterol from mmol/l
to mg/dl; the original value and unit are kept in their own columns. Numbers
use a decimal comma.`,
	Example: `  # Convert the default download directory into lab_results.csv
  wyniki convert

  # Convert another directory and preview the first 20 rows
  wyniki convert --input ./results --report-file results.csv --preview 20`,
	Args: cobra.NoArgs,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&inputDir, "input", "i", "", "directory with XML results (default: downloads/xml_results)")
	convertCmd.Flags().StringVarP(&reportFile, "report-file", "o", "", "CSV file to write (default: lab_results.csv)")
	convertCmd.Flags().IntVar(&workers, "workers", 0, "number of files parsed in parallel (default 4)")
	convertCmd.Flags().IntVar(&previewRows, "preview", 0, "print the first N rows after converting")
}

func runConvert(cmd *cobra.Command, _ []string) error {
	flags := globalFlags(cmd)
	if inputDir != "" {
		flags["input"] = inputDir
	}
	if reportFile != "" {
		flags["report-file"] = reportFile
	}
	if workers > 0 {
		flags["workers"] = workers
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return runReport(cmd.Context(), cfg, previewRows)
}

// runReport converts cfg.Report.InputDirectory and prints the outcome
func runReport(ctx context.Context, cfg *config.Config, preview int) error {
	ui.PrintInfo("Converting", cfg.Report.InputDirectory)

	conv := report.NewConverter(cfg.Report.Workers, logger.GetLogger())
	result, err := conv.Convert(ctx, cfg.Report.InputDirectory, cfg.Report.OutputFile)
	if errors.Is(err, report.ErrNoInput) {
		ui.PrintWarning(err.Error())
		return nil
	}
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if !ui.IsQuietMode() {
		report.RenderResult(ui.Output(), result)
		if preview > 0 && len(result.Extracted) > 0 {
			report.RenderRows(ui.Output(), result.Extracted, preview)
		}
	}

	if !result.Written {
		ui.PrintWarning("No data extracted from XML files")
		return nil
	}
	ui.PrintSuccess(fmt.Sprintf("Saved %d parameters to %s", result.Rows, result.OutputFile))
	return nil
}
