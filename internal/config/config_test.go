package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/sheetran/internal/dispatcher"
	"github.com/valpere/sheetran/internal/queue"
)

func loadWith(t *testing.T, setup func(v *viper.Viper)) *Config {
	t.Helper()
	v := viper.New()
	Setup(v)
	if setup != nil {
		setup(v)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg := loadWith(t, nil)

	if cfg.Model != "text-davinci-003" {
		t.Errorf("unexpected model %q", cfg.Model)
	}
	if cfg.Target != "ro" || cfg.Sheet != "Worksheet" {
		t.Errorf("unexpected target/sheet: %q %q", cfg.Target, cfg.Sheet)
	}
	if cfg.Dispatch.RPM != 60 || cfg.Dispatch.Interval != 60*time.Second {
		t.Errorf("unexpected dispatch config: %+v", cfg.Dispatch)
	}
	if cfg.API.Timeout != 120*time.Second {
		t.Errorf("unexpected timeout %s", cfg.API.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SHEETRAN_DISPATCH_RPM", "5")
	t.Setenv("SHEETRAN_DISPATCH_INTERVAL", "2s")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := loadWith(t, nil)

	if cfg.Dispatch.RPM != 5 {
		t.Errorf("expected rpm 5, got %d", cfg.Dispatch.RPM)
	}
	if cfg.Dispatch.Interval != 2*time.Second {
		t.Errorf("expected interval 2s, got %s", cfg.Dispatch.Interval)
	}
	if cfg.API.Key != "sk-test" {
		t.Errorf("expected key from OPENAI_API_KEY, got %q", cfg.API.Key)
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := []byte("model: gpt-3.5-turbo-instruct\ntarget: fr\ndispatch:\n  rpm: 10\n  release_order: lifo\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := loadWith(t, func(v *viper.Viper) {
		if err := ReadFile(v, path, ""); err != nil {
			t.Fatalf("ReadFile failed: %v", err)
		}
	})

	if cfg.Model != "gpt-3.5-turbo-instruct" || cfg.Target != "fr" {
		t.Errorf("unexpected model/target: %q %q", cfg.Model, cfg.Target)
	}
	if cfg.Dispatch.RPM != 10 || cfg.Dispatch.ReleaseOrder != "lifo" {
		t.Errorf("unexpected dispatch: %+v", cfg.Dispatch)
	}
}

func TestReadFile_MissingExplicitPath(t *testing.T) {
	v := viper.New()
	if err := ReadFile(v, filepath.Join(t.TempDir(), "missing.yaml"), ""); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestReadFile_NoDefaultFile(t *testing.T) {
	// Equivalent of t.Chdir (Go 1.24+) for older toolchains.
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	v := viper.New()
	if err := ReadFile(v, "", t.TempDir()); err != nil {
		t.Errorf("missing default config should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero rpm", func(c *Config) { c.Dispatch.RPM = 0 }, true},
		{"zero interval", func(c *Config) { c.Dispatch.Interval = 0 }, true},
		{"bad first burst", func(c *Config) { c.Dispatch.FirstBurst = "later" }, true},
		{"bad release order", func(c *Config) { c.Dispatch.ReleaseOrder = "random" }, true},
		{"bad choice", func(c *Config) { c.Choice = "best" }, true},
		{"bad target", func(c *Config) { c.Target = "not a language" }, true},
		{"empty model", func(c *Config) { c.Model = " " }, true},
		{"empty sheet", func(c *Config) { c.Sheet = "" }, true},
		{"negative timeout", func(c *Config) { c.API.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadWith(t, nil)
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDispatchConfig_Resolve(t *testing.T) {
	d := DispatchConfig{RPM: 3, Interval: time.Second, FirstBurst: "after-interval", ReleaseOrder: "LIFO"}

	cfg, order, err := d.Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RPM != 3 || cfg.Interval != time.Second || cfg.FirstBurst != dispatcher.AfterInterval {
		t.Errorf("unexpected dispatcher config: %+v", cfg)
	}
	if order != queue.LIFO {
		t.Errorf("expected lifo, got %q", order)
	}
}
