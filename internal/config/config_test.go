package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsWithoutConfigFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataPath != defaultDataPath || cfg.OutputDir != defaultOutputDir {
		t.Fatalf("unexpected paths: %s %s", cfg.DataPath, cfg.OutputDir)
	}
	if cfg.Geocode.Provider != ProviderOffline || !cfg.Render.Enabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Delimiter != ',' {
		t.Fatalf("expected comma delimiter, got %q", cfg.Delimiter)
	}
}

func TestStrictConfigRequiresFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("STRICT_CONFIG", "true")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected strict mode to fail on missing config file")
	}
}

func TestFileValuesAndEnvPrecedence(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
data_path: input/mass.csv
output_dir: charts
delimiter: ";"
normalize:
  preserve_ca_quirk: true
  state_names:
    CA: California
    CO: Colorado
geocode:
  provider: nominatim
  concurrency: 2
  timeout_sec: 5
render:
  maps: false
watch:
  debounce_ms: 250
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OUTPUT_DIR", "override")
	t.Setenv("GEOCODE_CONCURRENCY", "1")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataPath != "input/mass.csv" {
		t.Fatalf("expected file data path, got %s", cfg.DataPath)
	}
	if cfg.OutputDir != "override" {
		t.Fatalf("expected env output dir, got %s", cfg.OutputDir)
	}
	if cfg.Delimiter != ';' {
		t.Fatalf("expected semicolon delimiter, got %q", cfg.Delimiter)
	}
	if !cfg.Normalize.PreserveCAQuirk || cfg.Normalize.StateNames["CO"] != "Colorado" {
		t.Fatalf("unexpected normalize config: %+v", cfg.Normalize)
	}
	if cfg.Geocode.Provider != ProviderNominatim || cfg.Geocode.Concurrency != 1 || cfg.Geocode.TimeoutSec != 5 {
		t.Fatalf("unexpected geocode config: %+v", cfg.Geocode)
	}
	if cfg.Render.Maps || !cfg.Render.Enabled {
		t.Fatalf("unexpected render config: %+v", cfg.Render)
	}
	if cfg.Watch.DebounceMs != 250 {
		t.Fatalf("expected debounce 250, got %d", cfg.Watch.DebounceMs)
	}
}

func TestJSONConfigFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"data_path": "x.csv", "geocode": {"enabled": false}}`)
	t.Setenv("CONFIG_PATH", path)
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DataPath != "x.csv" || cfg.Geocode.Enabled {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestInvalidIntegerEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GEOCODE_TIMEOUT_SEC", "soon")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("lenient load failed: %v", err)
	}
	if cfg.Geocode.TimeoutSec != DefaultGeocodeConfig().TimeoutSec {
		t.Fatalf("expected default timeout, got %d", cfg.Geocode.TimeoutSec)
	}

	path := writeConfig(t, "config.yaml", "data_path: a.csv\n")
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STRICT_CONFIG", "1")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected strict load to fail on invalid integer")
	}
}

func TestMapboxRequiresTokenInStrictMode(t *testing.T) {
	path := writeConfig(t, "config.yaml", "geocode:\n  provider: mapbox\n")
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("STRICT_CONFIG", "true")
	t.Setenv("MAPBOX_TOKEN", "")
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected missing token to fail validation")
	}
	t.Setenv("MAPBOX_TOKEN", "pk.test")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Geocode.MapboxToken != "pk.test" {
		t.Fatalf("expected token from env, got %q", cfg.Geocode.MapboxToken)
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{",": ',', ";": ';', "tab": '\t', `\t`: '\t', "|": '|'}
	for in, want := range cases {
		got, err := parseDelimiter(in)
		if err != nil || got != want {
			t.Fatalf("delimiter %q: expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := parseDelimiter("::"); err == nil {
		t.Fatalf("expected error for multi-char delimiter")
	}
}
