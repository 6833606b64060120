package config

import "testing"

func TestValidateDefaults(t *testing.T) {
	if err := Validate(Defaults()); err != nil {
		t.Fatalf("defaults should validate, got: %v", err)
	}
}

func TestValidateRejectsNegativeOverscan(t *testing.T) {
	cfg := Defaults()
	cfg.Overscan = -1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for negative overscan")
	}
}

func TestValidateRejectsZeroFPS(t *testing.T) {
	cfg := Defaults()
	cfg.FPS = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for zero fps")
	}
}

func TestValidateRejectsUnknownExporter(t *testing.T) {
	cfg := Defaults()
	cfg.Tracing.Exporter = "otlp"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}

func TestValidateRejectsOutOfRangeSampleRate(t *testing.T) {
	cfg := Defaults()
	cfg.Tracing.SampleRate = 1.5
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for sample rate > 1.0")
	}
}

func TestValidateRejectsUnknownThemeType(t *testing.T) {
	cfg := Defaults()
	cfg.Theme.Type = "midnight"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for unknown theme type")
	}
}

func TestLoadWithNoConfigFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load should tolerate a missing config file and use defaults: %v", err)
	}
	if cfg.FPS != Defaults().FPS {
		t.Fatalf("expected default FPS %d, got %d", Defaults().FPS, cfg.FPS)
	}
	if cfg.Theme.Preset != "default" {
		t.Fatalf("expected default theme preset, got %q", cfg.Theme.Preset)
	}
}
