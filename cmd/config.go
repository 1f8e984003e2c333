package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RyanBlaney/featmerge/configs"
	"github.com/RyanBlaney/featmerge/internal/app"
)

const (
	ColorReset = "\033[0m"
	ColorGreen = "\033[32m"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate, validate and inspect configuration",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "featmerge.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		return app.GenerateExampleConfig(path)
	},
}

var configRulesCmd = &cobra.Command{
	Use:   "rules [file]",
	Short: "Write an example participant rules file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "participants.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		return app.GenerateExampleRules(path)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a configuration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.ValidateConfig(args[0])
	},
}

var configValidateRulesCmd = &cobra.Command{
	Use:   "validate-rules <file>",
	Short: "Validate a participant rules file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.ValidateRules(args[0])
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Load the configuration from defaults, the config file and FEATMERGE_*
environment variables and print every value.

Examples:
  featmerge config show
  FEATMERGE_ORGANIZE_TIER=phoneme featmerge --config featmerge.yaml config show`,
	RunE: runConfigShow,
}

func init() {
	configCmd.AddCommand(configGenerateCmd, configRulesCmd, configValidateCmd, configValidateRulesCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	fmt.Println("FEATMERGE CONFIGURATION")
	fmt.Println(strings.Repeat("=", 80))

	config, err := configs.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := configs.ValidateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	printSection("APPLICATION SETTINGS")
	printKeyValue("Verbose", fmt.Sprintf("%t", config.Verbose))
	printKeyValue("Log Level", config.LogLevel)
	printKeyValue("Output Format", config.OutputFormat)

	printSection("INPUT")
	printKeyValue("Reports Directory", config.Input.ReportsDir)
	printKeyValue("Report Glob", config.Input.ReportGlob)
	printKeyValue("ARFF Directory", config.Input.ArffDir)
	printKeyValue("ARFF Glob", config.Input.ArffGlob)
	printKeyValue("TextGrid Directory", config.Input.TextGridDir)
	printKeyValue("TextGrid Extensions", fmt.Sprintf("(%d) %v", len(config.Input.TextGridExtensions), config.Input.TextGridExtensions))

	printSection("OUTPUT")
	printKeyValue("Table File", config.Output.File)
	printKeyValue("Report File", config.Output.ReportFile)

	printSection("ORGANIZE")
	printKeyValue("Tier", config.Organize.Tier)
	printKeyValue("Mean Only", fmt.Sprintf("%t", config.Organize.MeanOnly))
	printKeyValue("Class", config.Organize.Class)
	printKeyValue("Workers", fmt.Sprintf("%d", config.Organize.Workers))
	printSubsection("Tier Indices")
	tiers := make([]string, 0, len(config.Organize.TierIndices))
	for tier := range config.Organize.TierIndices {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		printKeyValue("  "+tier, fmt.Sprintf("%d", config.Organize.TierIndices[tier]))
	}

	printSection("COMBINE")
	printKeyValue("Remove Outliers", fmt.Sprintf("%t", config.Combine.RemoveOutliers))
	printKeyValue("Strict Alignment", fmt.Sprintf("%t", config.Combine.StrictAlignment))
	printKeyValue("Max Length Gap", fmt.Sprintf("%d", config.Combine.MaxLengthGap))
	printKeyValue("Identifier Suffixes", fmt.Sprintf("(%d) %v", len(config.Combine.IdentifierSuffixes), config.Combine.IdentifierSuffixes))
	printKeyValue("Placeholder Labels", fmt.Sprintf("(%d) %v", len(config.Combine.PlaceholderLabels), config.Combine.PlaceholderLabels))
	printKeyValue("Duplicate Suffix", config.Combine.DuplicateSuffix)

	printSection("PARTICIPANT RULES")
	for i, rule := range config.Participants {
		printKeyValue(fmt.Sprintf("  %d. prefix %q", i+1, rule.Prefix), rule.Pattern)
	}

	printSection("METRICS")
	printKeyValue("Enabled", fmt.Sprintf("%t", config.Metrics.Enabled))
	printKeyValue("Log File", config.Metrics.LogFile)

	fmt.Println()
	fmt.Println(ColorGreen + strings.Repeat("-", 80))
	fmt.Println("CONFIGURATION LOADED SUCCESSFULLY")
	fmt.Printf("Config file: %s\n", configFileUsed())
	fmt.Println(strings.Repeat("=", 80) + ColorReset)

	return nil
}

func printSection(title string) {
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("-", len(title)))
}

func printSubsection(title string) {
	fmt.Printf("\n  %s\n", title)
}

func printKeyValue(key, value string) {
	if value == "" {
		fmt.Printf("%-35s\n", key)
	} else {
		fmt.Printf("%-35s %s\n", key+":", value)
	}
}

func configFileUsed() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(none, defaults and environment only)"
}
