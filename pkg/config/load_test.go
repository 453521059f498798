package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anjaustin/autolvmb/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autolvmb.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
volumeGroup: data-vg
origin: data-lv
sizeFraction: 0.05
usageThreshold: 80
countThreshold: 20
batchSize: 5
unattended: true
schedule: "0 3 * * *"
logging:
  level: debug
  file: /var/log/autolvmb.log
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %+v", err)
	}
	if cfg.VolumeGroup != "data-vg" || cfg.Origin != "data-lv" {
		t.Errorf("volume selection: %+v", cfg)
	}
	if cfg.SizeFraction != 0.05 || cfg.UsageThreshold != 80 || cfg.CountThreshold != 20 || cfg.BatchSize != 5 {
		t.Errorf("thresholds: %+v", cfg)
	}
	if !cfg.Unattended || cfg.Schedule != "0 3 * * *" {
		t.Errorf("run mode: %+v", cfg)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.File != "/var/log/autolvmb.log" {
		t.Errorf("logging: %+v", cfg.Logging)
	}
}

func TestLoadKeepsDefaultsForUnsetFields(t *testing.T) {
	path := writeConfig(t, "origin: data-lv\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %+v", err)
	}
	def := config.Default()
	if cfg.VolumeGroup != def.VolumeGroup {
		t.Errorf("volumeGroup: got %q, want default %q", cfg.VolumeGroup, def.VolumeGroup)
	}
	if cfg.SizeFraction != def.SizeFraction || cfg.CountThreshold != def.CountThreshold {
		t.Errorf("thresholds not defaulted: %+v", cfg)
	}
	if cfg.Origin != "data-lv" {
		t.Errorf("origin: got %q", cfg.Origin)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("AUTOLVMB_VG", "env-vg")
	path := writeConfig(t, "volumeGroup: $(AUTOLVMB_VG)\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %+v", err)
	}
	if cfg.VolumeGroup != "env-vg" {
		t.Errorf("got %q, want env-vg", cfg.VolumeGroup)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "empty volume group", mutate: func(c *config.Config) { c.VolumeGroup = "" }},
		{name: "empty origin", mutate: func(c *config.Config) { c.Origin = "" }},
		{name: "zero size fraction", mutate: func(c *config.Config) { c.SizeFraction = 0 }},
		{name: "size fraction above one", mutate: func(c *config.Config) { c.SizeFraction = 1.2 }},
		{name: "usage threshold above 100", mutate: func(c *config.Config) { c.UsageThreshold = 101 }},
		{name: "negative usage threshold", mutate: func(c *config.Config) { c.UsageThreshold = -1 }},
		{name: "zero count threshold", mutate: func(c *config.Config) { c.CountThreshold = 0 }},
		{name: "zero batch size", mutate: func(c *config.Config) { c.BatchSize = 0 }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := config.Default().Validate(); err != nil {
		t.Errorf("default config must validate: %+v", err)
	}
}
