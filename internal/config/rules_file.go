package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleOverride tunes one registered rule from the rules YAML file.
// Pointer fields distinguish "not set" from zero values.
type RuleOverride struct {
	ID              string   `yaml:"id"`
	Enabled         *bool    `yaml:"enabled,omitempty"`
	CooldownSeconds *int     `yaml:"cooldown_seconds,omitempty"`
	Threshold       *float64 `yaml:"threshold,omitempty"`
}

type rulesFile struct {
	Rules []RuleOverride `yaml:"rules"`
}

// LoadRuleOverrides parses the rule-override file. A missing path is not
// an error; deployments without the file run on registered defaults.
func LoadRuleOverrides(path string) ([]RuleOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	for i, r := range f.Rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rules file %s: rule %d has no id", path, i)
		}
	}
	return f.Rules, nil
}
