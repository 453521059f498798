package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		return os.Getenv(envPattern.FindStringSubmatch(m)[1])
	})
}

// Load reads a YAML config file on top of the defaults, expanding $(VAR)
// placeholders from the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshalling yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the core could misbehave on. It runs
// before any backend mutation.
func (c Config) Validate() error {
	if c.VolumeGroup == "" {
		return fmt.Errorf("volumeGroup must not be empty")
	}
	if c.Origin == "" {
		return fmt.Errorf("origin must not be empty")
	}
	if c.SizeFraction <= 0 || c.SizeFraction > 1 {
		return fmt.Errorf("sizeFraction %v out of range (0,1]", c.SizeFraction)
	}
	if c.UsageThreshold < 0 || c.UsageThreshold > 100 {
		return fmt.Errorf("usageThreshold %d out of range 0-100", c.UsageThreshold)
	}
	if c.CountThreshold <= 0 {
		return fmt.Errorf("countThreshold must be positive, got %d", c.CountThreshold)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batchSize must be positive, got %d", c.BatchSize)
	}
	return nil
}
