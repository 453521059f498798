// Package config holds the file-based configuration. Flags override
// anything set here.
package config

// Config mirrors the YAML config file.
type Config struct {
	VolumeGroup  string  `yaml:"volumeGroup"`
	Origin       string  `yaml:"origin"`
	Name         string  `yaml:"name"` // snapshot name override
	SizeFraction float64 `yaml:"sizeFraction"`

	UsageThreshold int `yaml:"usageThreshold"` // percent, 0-100
	CountThreshold int `yaml:"countThreshold"`
	BatchSize      int `yaml:"batchSize"`

	Unattended bool   `yaml:"unattended"`
	Schedule   string `yaml:"schedule"` // cron spec, empty means one shot

	Logging LoggingConfig `yaml:"logging"`

	PushgatewayURL string `yaml:"pushgatewayUrl"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // "info", "debug", ...
	File  string `yaml:"file"`  // appended to when set
}

// Default returns the configuration used when no file and no flags are
// given.
func Default() Config {
	return Config{
		VolumeGroup:    "ubuntu-vg",
		Origin:         "ubuntu-lv",
		SizeFraction:   0.025,
		UsageThreshold: 70,
		CountThreshold: 34,
		BatchSize:      10,
		Logging:        LoggingConfig{Level: "info"},
	}
}
