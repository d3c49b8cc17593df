package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rupor-github/gencfg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if !cfg.Spider.Cache {
		t.Error("cache should be enabled by default")
	}
	if cfg.Spider.MaxImports != 15 {
		t.Errorf("MaxImports = %d, want 15", cfg.Spider.MaxImports)
	}
	if len(cfg.Spider.Ignore) != 0 || len(cfg.Spider.Map) != 0 {
		t.Errorf("expected no url rules by default, got ignore=%v map=%v", cfg.Spider.Ignore, cfg.Spider.Map)
	}
	if !cfg.Spider.HTTP.Enable || cfg.Spider.HTTP.Timeout != 30*time.Second {
		t.Errorf("unexpected http defaults: %+v", cfg.Spider.HTTP)
	}
	if cfg.Output.Format != OutputFmtJSON {
		t.Errorf("Output.Format = %v, want json", cfg.Output.Format)
	}
	if cfg.Output.NameTemplate != "{{ .Base }}-fonts" {
		t.Errorf("name template must not be expanded, got %q", cfg.Output.NameTemplate)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	configPath := writeConfig(t, `version: 1
spider:
  cache: false
  max_imports: 40
  ignore: ["\\.eot$", "^https?://fonts\\.googleapis\\.com/"]
  map:
    - pattern: "^https?://cdn\\.example\\.com/(.*)$"
      replacement: "/srv/static/${1}"
  http:
    enable: false
    timeout: 5s
    authorization: "Bearer token"
output:
  format: yaml
  indent: 4
  summary: true
logging:
  console:
    level: normal
  file:
    level: debug
    destination: /tmp/test.log
    mode: append
reporting:
  destination: /tmp/test-report.zip
`)

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Spider.Cache {
		t.Error("Expected cache to be disabled")
	}
	if cfg.Spider.MaxImports != 40 {
		t.Errorf("MaxImports = %d, want 40", cfg.Spider.MaxImports)
	}
	if len(cfg.Spider.Ignore) != 2 || cfg.Spider.Ignore[0] != `\.eot$` {
		t.Errorf("Ignore = %v", cfg.Spider.Ignore)
	}
	if len(cfg.Spider.Map) != 1 || cfg.Spider.Map[0].Replacement != "/srv/static/${1}" {
		t.Errorf("Map = %+v", cfg.Spider.Map)
	}
	if cfg.Spider.HTTP.Enable || cfg.Spider.HTTP.Timeout != 5*time.Second {
		t.Errorf("HTTP = %+v", cfg.Spider.HTTP)
	}
	if cfg.Spider.HTTP.Authorization.Reveal() != "Bearer token" {
		t.Error("authorization was not loaded")
	}
	if cfg.Output.Format != OutputFmtYAML || cfg.Output.Indent != 4 || !cfg.Output.Summary {
		t.Errorf("Output = %+v", cfg.Output)
	}
	// defaults are kept for unspecified fields
	if cfg.Spider.HTTP.UserAgent == "" {
		t.Error("UserAgent should have default value")
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	_, err := LoadConfiguration("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "version: 1\nspider:\n  cache: true\n  invalid indent\n"},
		{"unknown field", "version: 1\nunknown_field: value\n"},
		{"invalid version", "version: 2\n"},
		{"zero import ceiling", "version: 1\nspider:\n  max_imports: 0\n"},
		{"unknown output format", "version: 1\noutput:\n  format: xml\n"},
		{"map rule without pattern", "version: 1\nspider:\n  map:\n    - replacement: x\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfiguration(writeConfig(t, tt.content)); err == nil {
				t.Errorf("Expected error for %s", tt.name)
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Prepare() returned empty data")
	}

	cfg := &Config{}
	if _, err = unmarshalConfig(data, cfg, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Spider.HTTP.Authorization = "Bearer hidden"
	cfg.Spider.Map = []MapRuleConfig{{Pattern: "^/old/(.*)$", Replacement: "/new/$1"}}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if strings.Contains(string(data), "Bearer hidden") {
		t.Error("Dump() leaked authorization")
	}

	// Verify we can load it back
	cfg2, err := unmarshalConfig(data, &Config{}, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Version != cfg.Version || cfg2.Output.Format != cfg.Output.Format {
		t.Errorf("mismatch after dump/load: got %+v", cfg2)
	}
	if len(cfg2.Spider.Map) != 1 || cfg2.Spider.Map[0].Replacement != "/new/$1" {
		t.Errorf("map rules lost after dump/load: %+v", cfg2.Spider.Map)
	}
}

func TestOutputFmt(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFmt
		ext     string
		wantErr bool
	}{
		{"json", OutputFmtJSON, ".json", false},
		{"YAML", OutputFmtYAML, ".yaml", false},
		{" yaml ", OutputFmtYAML, ".yaml", false},
		{"xml", 0, "", true},
		{"", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f OutputFmt
			err := f.UnmarshalText([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalText() error = %v", err)
			}
			if f != tt.want || f.Ext() != tt.ext {
				t.Errorf("UnmarshalText(%q) = %v (%s), want %v (%s)", tt.input, f, f.Ext(), tt.want, tt.ext)
			}
			text, _ := f.MarshalText()
			if string(text) != strings.ToLower(strings.TrimSpace(tt.input)) {
				t.Errorf("MarshalText() = %q", text)
			}
		})
	}

	if got := OutputFmt(99).String(); got != "OutputFmt(99)" {
		t.Errorf("String() = %q", got)
	}
	if names := OutputFmtNames(); len(names) != 2 || names[0] != "json" || names[1] != "yaml" {
		t.Errorf("OutputFmtNames() = %v", names)
	}
}

func TestOutputFmt_Ext_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Ext() should panic for invalid format")
		}
	}()
	OutputFmt(99).Ext()
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	// version: 99 will fail validation (validate:"eq=1").
	data := []byte("version: 99\n")

	_, err := unmarshalConfig(data, &Config{}, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validat") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got bare error: %v", err)
	}
}
