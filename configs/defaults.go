package configs

import (
	"runtime"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/featmerge/internal/reconcile"
	"github.com/RyanBlaney/featmerge/pkg/features"
)

// setDefaults registers default values for every key. Registering each key
// also lets environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	// Input defaults
	v.SetDefault("input.reports_dir", "results/praat")
	v.SetDefault("input.report_glob", "*.txt")
	v.SetDefault("input.arff_dir", "results/opensmile")
	v.SetDefault("input.arff_glob", "*_openSMILE_*")
	v.SetDefault("input.textgrid_dir", "TextGrids")
	v.SetDefault("input.textgrid_extensions", reconcile.DefaultTextGridExtensions())

	// Output defaults
	v.SetDefault("output.file", "")
	v.SetDefault("output.report_file", "")

	// Organize defaults
	v.SetDefault("organize.tier", string(features.TierWord))
	v.SetDefault("organize.mean_only", false)
	v.SetDefault("organize.class", "Reference")
	v.SetDefault("organize.workers", runtime.GOMAXPROCS(0))
	v.SetDefault("organize.tier_indices", reconcile.DefaultTierIndices())

	// Combine defaults
	v.SetDefault("combine.remove_outliers", true)
	v.SetDefault("combine.strict_alignment", false)
	v.SetDefault("combine.max_length_gap", reconcile.DefaultMaxLengthGap)
	v.SetDefault("combine.identifier_suffixes", reconcile.DefaultIdentifierSuffixes())
	v.SetDefault("combine.placeholder_labels", reconcile.DefaultPlaceholderLabels())
	v.SetDefault("combine.duplicate_suffix", reconcile.DefaultDuplicateSuffix)

	// Participant rules
	v.SetDefault("participants", participantRuleMaps(reconcile.DefaultParticipantRules()))

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.log_file", "/tmp/featmerge-metrics.log")

	// Application defaults
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "table")
}

// participantRuleMaps converts rules to the generic form viper stores
// decoded config files in
func participantRuleMaps(rules []reconcile.ParticipantRule) []map[string]any {
	out := make([]map[string]any, len(rules))
	for i, r := range rules {
		out[i] = map[string]any{"prefix": r.Prefix, "pattern": r.Pattern}
	}
	return out
}

// GetDefaultConfig returns a Config struct with all default values set
func GetDefaultConfig() *Config {
	return &Config{
		// Application settings defaults
		Verbose:      false,
		LogLevel:     "info",
		OutputFormat: "table",

		Input:        GetDefaultInputConfig(),
		Output:       OutputConfig{},
		Organize:     GetDefaultOrganizeConfig(),
		Combine:      GetDefaultCombineConfig(),
		Participants: reconcile.DefaultParticipantRules(),
		Metrics: MetricsConfig{
			Enabled: false,
			LogFile: "/tmp/featmerge-metrics.log",
		},
	}
}

// GetDefaultInputConfig returns default input locations
func GetDefaultInputConfig() InputConfig {
	return InputConfig{
		ReportsDir:         "results/praat",
		ReportGlob:         "*.txt",
		ArffDir:            "results/opensmile",
		ArffGlob:           "*_openSMILE_*",
		TextGridDir:        "TextGrids",
		TextGridExtensions: reconcile.DefaultTextGridExtensions(),
	}
}

// GetDefaultOrganizeConfig returns default table building settings
func GetDefaultOrganizeConfig() OrganizeConfig {
	return OrganizeConfig{
		Tier:        string(features.TierWord),
		MeanOnly:    false,
		Class:       "Reference",
		Workers:     runtime.GOMAXPROCS(0),
		TierIndices: reconcile.DefaultTierIndices(),
	}
}

// GetDefaultCombineConfig returns default merge settings
func GetDefaultCombineConfig() CombineConfig {
	return CombineConfig{
		RemoveOutliers:     true,
		StrictAlignment:    false,
		MaxLengthGap:       reconcile.DefaultMaxLengthGap,
		IdentifierSuffixes: reconcile.DefaultIdentifierSuffixes(),
		PlaceholderLabels:  reconcile.DefaultPlaceholderLabels(),
		DuplicateSuffix:    reconcile.DefaultDuplicateSuffix,
	}
}
