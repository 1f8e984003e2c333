package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/featmerge/internal/app"
	"github.com/RyanBlaney/featmerge/internal/pipeline"
)

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Build the Praat feature table from voice reports",
	Long: `Parse every Praat voice report in the reports directory and write one
row per segment, or one row per recording with --mean-only or the
full tier.

Examples:
  # Word tier segments to TSV
  featmerge organize --reports-dir results/praat --tier word --out organized_word.tsv

  # Per-recording means to Excel
  featmerge organize --mean-only --out organized_mean.xlsx`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(pipeline.StageOrganize, "", "")
	},
}

var gemapsCmd = &cobra.Command{
	Use:   "gemaps",
	Short: "Build the openSMILE feature table from ARFF output",
	Long: `Decode every openSMILE ARFF file in the ARFF directory, attach segment
labels from the matching TextGrid and write one table.

Examples:
  featmerge gemaps --arff-dir results/opensmile --textgrid-dir TextGrids --out gemaps_word.tsv`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(pipeline.StageGemaps, "", "")
	},
}

var combineCmd = &cobra.Command{
	Use:   "combine <praat-table> <opensmile-table>",
	Short: "Align two feature tables and filter outliers",
	Long: `Align two previously built tables recording by recording, truncate the
longer side, drop placeholder labels and zero or missing measurements.

Examples:
  featmerge combine organized_word.tsv gemaps_word.tsv --out combined_word.xlsx
  featmerge combine a.csv b.csv --strict-alignment --remove-outliers=false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(pipeline.StageCombine, args[0], args[1])
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Organize, collect and combine in one pass",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStage(pipeline.StageRun, "", "")
	},
}

func init() {
	for _, c := range []*cobra.Command{organizeCmd, runCmd} {
		c.Flags().String("reports-dir", "", "directory of Praat voice reports")
		c.Flags().String("report-glob", "", "file pattern of Praat voice reports")
		c.Flags().Bool("mean-only", false, "one row per recording with segment means")
	}
	for _, c := range []*cobra.Command{gemapsCmd, runCmd} {
		c.Flags().String("arff-dir", "", "directory of openSMILE ARFF output")
		c.Flags().String("arff-glob", "", "file pattern of openSMILE ARFF output")
		c.Flags().String("textgrid-dir", "", "directory of TextGrid annotations")
	}
	for _, c := range []*cobra.Command{organizeCmd, gemapsCmd, runCmd} {
		c.Flags().String("tier", "", "segmentation tier (word, phoneme, full)")
		c.Flags().String("class", "", "class label attached to every row")
		c.Flags().Int("workers", 0, "parallel file parsers (default GOMAXPROCS)")
	}
	for _, c := range []*cobra.Command{combineCmd, runCmd} {
		c.Flags().Bool("remove-outliers", true, "drop rows with zero or missing measurements")
		c.Flags().Bool("strict-alignment", false, "fail when aligned labels differ")
		c.Flags().Int("max-length-gap", 0, "row count gap above which a warning is logged")
		c.Flags().StringSlice("placeholder-label", nil, "labels dropped before alignment")
	}
	for _, c := range []*cobra.Command{organizeCmd, gemapsCmd, combineCmd, runCmd} {
		c.Flags().Bool("metrics", false, "emit run metrics")
		c.Flags().String("metrics-log", "", "metrics log file")
		rootCmd.AddCommand(c)
	}
}

// runStage builds the application for stage and runs it until completion or
// an interrupt
func runStage(stage pipeline.Stage, inputA, inputB string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.NewApp(&app.Context{
		ConfigFile: configFile,
		RulesFile:  rulesFile,
		Command:    stage,
		InputA:     inputA,
		InputB:     inputB,
		Verbose:    verbose,
	})
	if err != nil {
		return err
	}

	return a.Run(ctx)
}
