package configs

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/RyanBlaney/featmerge/internal/reconcile"
	"github.com/RyanBlaney/featmerge/pkg/features"
	"github.com/RyanBlaney/featmerge/pkg/tableio"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format" json:"output_format"`

	// Input locations
	Input InputConfig `mapstructure:"input" yaml:"input" json:"input"`

	// Output locations
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Source table assembly
	Organize OrganizeConfig `mapstructure:"organize" yaml:"organize" json:"organize"`

	// Cross-source merge and filtering
	Combine CombineConfig `mapstructure:"combine" yaml:"combine" json:"combine"`

	// Participant derivation rules, evaluated in order
	Participants []reconcile.ParticipantRule `mapstructure:"participants" yaml:"participants" json:"participants"`

	// Run metrics
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// InputConfig locates the raw extracts
type InputConfig struct {
	ReportsDir         string   `mapstructure:"reports_dir" yaml:"reports_dir" json:"reports_dir"`
	ReportGlob         string   `mapstructure:"report_glob" yaml:"report_glob" json:"report_glob"`
	ArffDir            string   `mapstructure:"arff_dir" yaml:"arff_dir" json:"arff_dir"`
	ArffGlob           string   `mapstructure:"arff_glob" yaml:"arff_glob" json:"arff_glob"`
	TextGridDir        string   `mapstructure:"textgrid_dir" yaml:"textgrid_dir" json:"textgrid_dir"`
	TextGridExtensions []string `mapstructure:"textgrid_extensions" yaml:"textgrid_extensions" json:"textgrid_extensions"`
}

// OutputConfig contains output destinations
type OutputConfig struct {
	File       string `mapstructure:"file" yaml:"file" json:"file"`
	ReportFile string `mapstructure:"report_file" yaml:"report_file" json:"report_file"`
}

// OrganizeConfig contains table building settings
type OrganizeConfig struct {
	Tier        string         `mapstructure:"tier" yaml:"tier" json:"tier"`
	MeanOnly    bool           `mapstructure:"mean_only" yaml:"mean_only" json:"mean_only"`
	Class       string         `mapstructure:"class" yaml:"class" json:"class"`
	Workers     int            `mapstructure:"workers" yaml:"workers" json:"workers"`
	TierIndices map[string]int `mapstructure:"tier_indices" yaml:"tier_indices" json:"tier_indices"`
}

// CombineConfig contains merge and outlier settings
type CombineConfig struct {
	RemoveOutliers     bool     `mapstructure:"remove_outliers" yaml:"remove_outliers" json:"remove_outliers"`
	StrictAlignment    bool     `mapstructure:"strict_alignment" yaml:"strict_alignment" json:"strict_alignment"`
	MaxLengthGap       int      `mapstructure:"max_length_gap" yaml:"max_length_gap" json:"max_length_gap"`
	IdentifierSuffixes []string `mapstructure:"identifier_suffixes" yaml:"identifier_suffixes" json:"identifier_suffixes"`
	PlaceholderLabels  []string `mapstructure:"placeholder_labels" yaml:"placeholder_labels" json:"placeholder_labels"`
	DuplicateSuffix    string   `mapstructure:"duplicate_suffix" yaml:"duplicate_suffix" json:"duplicate_suffix"`
}

// MetricsConfig controls run metric emission
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	LogFile string `mapstructure:"log_file" yaml:"log_file" json:"log_file"`
}

// LoadConfig loads configuration from the global viper instance
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(viper.GetViper())
}

// LoadConfigFrom fills unset keys with defaults and decodes v
func LoadConfigFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}

	return config, nil
}

// Tier returns the parsed segmentation tier
func (c *Config) Tier() (features.Tier, error) {
	return features.ParseTier(c.Organize.Tier)
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if _, err := config.Tier(); err != nil {
		return err
	}

	// An empty class reads back as a missing cell and would drop every row
	if strings.TrimSpace(config.Organize.Class) == "" {
		return fmt.Errorf("class cannot be empty")
	}

	if config.Organize.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}

	if config.Combine.MaxLengthGap < 0 {
		return fmt.Errorf("max length gap cannot be negative")
	}

	switch config.OutputFormat {
	case "json", "yaml", "csv", "table":
	default:
		return fmt.Errorf("unsupported output format %q (want json, yaml, csv or table)", config.OutputFormat)
	}

	if config.Output.File != "" {
		if _, err := tableio.FormatFromPath(config.Output.File); err != nil {
			return fmt.Errorf("output file: %w", err)
		}
	}

	for tier, index := range config.Organize.TierIndices {
		if index < 0 {
			return fmt.Errorf("tier index for %q cannot be negative", tier)
		}
	}

	if _, err := reconcile.NewParticipantResolver(config.Participants); err != nil {
		return err
	}

	return nil
}
