package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/featmerge/configs"
	"github.com/RyanBlaney/featmerge/internal/reconcile"
)

// RulesConfig is a standalone participant rules file
type RulesConfig struct {
	Participants []reconcile.ParticipantRule `yaml:"participants" json:"participants"`
}

// loadRulesFromFile loads participant rules from a YAML or JSON file
func loadRulesFromFile(filePath string) (*RulesConfig, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("rules file does not exist: %s", filePath)
	}

	var rules RulesConfig
	if err := decodeFile(filePath, &rules); err != nil {
		return nil, err
	}

	if _, err := reconcile.NewParticipantResolver(rules.Participants); err != nil {
		return nil, fmt.Errorf("invalid participant rules: %w", err)
	}

	return &rules, nil
}

// loadConfigFromFile decodes a configuration file over the defaults
func loadConfigFromFile(filePath string) (*configs.Config, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", filePath)
	}

	config := configs.GetDefaultConfig()
	if err := decodeFile(filePath, config); err != nil {
		return nil, err
	}
	return config, nil
}

// decodeFile picks the decoder from the extension, trying YAML then JSON
// when the extension is unknown
func decodeFile(filePath string, out any) error {
	switch filepath.Ext(filePath) {
	case ".yaml", ".yml":
		return decodeYAML(filePath, out)
	case ".json":
		return decodeJSON(filePath, out)
	default:
		if err := decodeYAML(filePath, out); err == nil {
			return nil
		}
		return decodeJSON(filePath, out)
	}
}

func decodeYAML(filePath string, out any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open YAML file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func decodeJSON(filePath string, out any) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// GenerateExampleConfig writes the default configuration as YAML
func GenerateExampleConfig(outputFile string) error {
	config := configs.GetDefaultConfig()
	config.Organize.Workers = 0
	config.Output.File = "results/combined_word.xlsx"

	if err := writeYAML(outputFile, config); err != nil {
		return err
	}

	fmt.Printf("✅ Example application configuration written to: %s\n", outputFile)
	return nil
}

// GenerateExampleRules writes the default participant rules as YAML
func GenerateExampleRules(outputFile string) error {
	rules := &RulesConfig{Participants: reconcile.DefaultParticipantRules()}

	if err := writeYAML(outputFile, rules); err != nil {
		return err
	}

	fmt.Printf("✅ Example participant rules written to: %s\n", outputFile)
	return nil
}

func writeYAML(outputFile string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}

	dir := filepath.Dir(outputFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ValidateConfig validates a configuration file
func ValidateConfig(configFile string) error {
	config, err := loadConfigFromFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := configs.ValidateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	fmt.Printf("✅ Application configuration is valid: %s\n", configFile)
	fmt.Printf("   - Tier: %s (mean only: %t)\n", config.Organize.Tier, config.Organize.MeanOnly)
	fmt.Printf("   - Participant rules: %d\n", len(config.Participants))

	return nil
}

// ValidateRules validates a participant rules file
func ValidateRules(rulesFile string) error {
	rules, err := loadRulesFromFile(rulesFile)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	fmt.Printf("✅ Participant rules are valid: %s\n", rulesFile)
	fmt.Printf("   - %d rules found\n", len(rules.Participants))

	return nil
}
