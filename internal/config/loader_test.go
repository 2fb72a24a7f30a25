package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml",
		"addr: :9999\nams_type: happy_hare\ngates_per_unit: 8\nscenario: printing\nop_delay: 500ms\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.AMSType != "happy_hare" || cfg.GatesPerUnit != 8 || cfg.Scenario != "printing" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if d, err := cfg.ParseOpDelay(); err != nil || d != 500*time.Millisecond {
		t.Fatalf("op delay: %v %v", d, err)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json",
		`{"addr":":7070","demo":true,"units":2,"topology":"parallel","cors_enabled":true,"cors_origins":["*"]}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || !cfg.Demo || cfg.Units != 2 || cfg.Topology != "parallel" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.CORSEnabled || len(cfg.CORSOrigins) != 1 {
		t.Fatalf("cors: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml",
		"addr=\":8081\"\nams_type=\"toolchanger\"\ntool_names=[\"tool T0\",\"tool T1\"]\nlog_level=\"debug\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.AMSType != "toolchanger" || len(cfg.ToolNames) != 2 || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.ini", "addr=:1\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error on unsupported extension")
	}
	if _, err := Load(filepath.Join(d, "missing.yaml")); err == nil {
		t.Fatalf("expected error on missing file")
	}
	p = writeTempFile(t, d, "bad.json", "{not json")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected error on malformed json")
	}
}

func TestParseOpDelay(t *testing.T) {
	if d, err := (Config{}).ParseOpDelay(); err != nil || d != 0 {
		t.Fatalf("empty: %v %v", d, err)
	}
	if d, err := (Config{OpDelay: "0s"}).ParseOpDelay(); err != nil || d != -1 {
		t.Fatalf("zero: %v %v", d, err)
	}
	if _, err := (Config{OpDelay: "soon"}).ParseOpDelay(); err == nil {
		t.Fatalf("expected error on junk duration")
	}
}
