package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *c != *Defaults() {
		t.Fatalf("got %+v, want %+v", *c, *Defaults())
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := "output_format: json\nlisten_addr: 127.0.0.1:9000\nmax_upload_bytes: 2048\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("SAMPLESCOPE_LISTEN_ADDR", ":7070")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.OutputFormat != "json" || c.MaxUploadBytes != 2048 {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.ListenAddr != ":7070" {
		t.Fatalf("env must override file, got %s", c.ListenAddr)
	}
	if c.LogFormat != "console" {
		t.Fatalf("default missing: %+v", c)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := Defaults()
	if err := c.Set("watch_output_dir", "/tmp/reports"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("log_format", "JSON"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.WatchOutputDir != "/tmp/reports" || got.LogFormat != "json" {
		t.Fatalf("round trip: %+v", got)
	}
}

func TestValidateAndSetRejectBadValues(t *testing.T) {
	cases := []struct{ key, val string }{
		{"output_format", "pdf"},
		{"log_level", "loud"},
		{"log_format", "xml"},
		{"max_upload_bytes", "0"},
		{"max_upload_bytes", "lots"},
		{"read_timeout_sec", "-1"},
		{"nope", "x"},
	}
	for _, tc := range cases {
		c := Defaults()
		if err := c.Set(tc.key, tc.val); err == nil {
			t.Errorf("Set(%s, %s) accepted", tc.key, tc.val)
		}
	}
}
