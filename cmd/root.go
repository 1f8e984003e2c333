package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "FEATMERGE"

var (
	configFile   string
	rulesFile    string
	verbose      bool
	logLevel     string
	outputFormat string
	outFile      string
	reportFile   string
)

// flagKeys maps command flags to nested configuration keys
var flagKeys = map[string]string{
	"reports-dir":       "input.reports_dir",
	"report-glob":       "input.report_glob",
	"arff-dir":          "input.arff_dir",
	"arff-glob":         "input.arff_glob",
	"textgrid-dir":      "input.textgrid_dir",
	"tier":              "organize.tier",
	"mean-only":         "organize.mean_only",
	"class":             "organize.class",
	"workers":           "organize.workers",
	"remove-outliers":   "combine.remove_outliers",
	"strict-alignment":  "combine.strict_alignment",
	"max-length-gap":    "combine.max_length_gap",
	"placeholder-label": "combine.placeholder_labels",
	"metrics":           "metrics.enabled",
	"metrics-log":       "metrics.log_file",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "featmerge",
	Short: "Merge Praat and openSMILE acoustic feature tables",
	Long: `featmerge reconciles segment-level acoustic measurements from Praat
voice reports with openSMILE functionals into one analysis-ready table.

Pipeline stages:
- organize: Praat reports to a per-segment or per-recording table
- gemaps:   openSMILE ARFF output plus TextGrid labels to a table
- combine:  align two tables on file_name and filter outliers
- run:      all of the above in one pass`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/featmerge/featmerge.yaml)")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "",
		"participant rules file, replaces the configured rules")

	// Output and logging flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table",
		"report format (json, table, csv, yaml)")
	rootCmd.PersistentFlags().StringVar(&outFile, "out", "",
		"output table file (.tsv, .txt, .csv or .xlsx)")
	rootCmd.PersistentFlags().StringVar(&reportFile, "report-file", "",
		"write the run report to this file instead of stdout")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("output.file", rootCmd.PersistentFlags().Lookup("out"))
	viper.BindPFlag("output.report_file", rootCmd.PersistentFlags().Lookup("report-file"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(filepath.Join(home, ".config", "featmerge"))
		viper.AddConfigPath("/etc/featmerge")
		viper.SetConfigName("featmerge")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if configFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", configFile, err)
		os.Exit(1)
	}
}

// initializeConfig initializes configuration after flags are parsed
func initializeConfig(cmd *cobra.Command) error {
	return bindFlags(cmd, viper.GetViper())
}

// bindFlags binds each cobra flag to its configuration key and to the
// FEATMERGE_ environment variable named after the flag
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}

		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		if err := v.BindPFlag(key, f); err != nil {
			lastErr = err
		}

		if err := v.BindEnv(key, envPrefix+"_"+envVarSuffix); err != nil {
			lastErr = err
		}
	})

	return lastErr
}

// GetConfig returns the current viper instance
func GetConfig() *viper.Viper {
	return viper.GetViper()
}
