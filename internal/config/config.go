package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"shooting_stats/internal/logging"
)

// Config holds report settings derived from the config file and environment.
type Config struct {
	DataPath     string
	OutputDir    string
	Delimiter    rune
	LogLevel     string
	LogDev       bool
	StrictConfig bool
	ConfigPath   string
	Normalize    NormalizeConfig
	Geocode      GeocodeConfig
	Render       RenderConfig
	Watch        WatchConfig
}

// NormalizeConfig feeds the state rewrite table.
type NormalizeConfig struct {
	StateNames      map[string]string
	PreserveCAQuirk bool
}

// RenderConfig toggles chart output.
type RenderConfig struct {
	Enabled bool
	Maps    bool
}

// WatchConfig controls the file watcher.
type WatchConfig struct {
	DebounceMs int
}

// Debounce returns the debounce window as a duration.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

type fileConfig struct {
	DataPath  string              `json:"data_path" yaml:"data_path"`
	OutputDir string              `json:"output_dir" yaml:"output_dir"`
	Delimiter string              `json:"delimiter" yaml:"delimiter"`
	LogLevel  string              `json:"log_level" yaml:"log_level"`
	Normalize normalizeFileConfig `json:"normalize" yaml:"normalize"`
	Geocode   geocodeFileConfig   `json:"geocode" yaml:"geocode"`
	Render    renderFileConfig    `json:"render" yaml:"render"`
	Watch     watchFileConfig     `json:"watch" yaml:"watch"`
}

type normalizeFileConfig struct {
	StateNames      map[string]string `json:"state_names" yaml:"state_names"`
	PreserveCAQuirk *bool             `json:"preserve_ca_quirk" yaml:"preserve_ca_quirk"`
}

type renderFileConfig struct {
	Enabled *bool `json:"enabled" yaml:"enabled"`
	Maps    *bool `json:"maps" yaml:"maps"`
}

type watchFileConfig struct {
	DebounceMs *int `json:"debounce_ms" yaml:"debounce_ms"`
}

const (
	defaultDataPath   = "data/data.csv"
	defaultOutputDir  = "result"
	defaultLogLevel   = "info"
	defaultDebounceMs = 500
)

// Load reads .env, the optional config file and environment variables, in
// increasing precedence. Bad values fall back to defaults with a warning
// unless STRICT_CONFIG is set.
func Load(log *zap.Logger) (Config, error) {
	log = logging.OrNop(log)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("dotenv load failed", zap.Error(err))
	}

	cfg := Config{
		Delimiter:    ',',
		StrictConfig: parseBoolEnv("STRICT_CONFIG"),
		LogDev:       parseBoolEnv("LOG_DEV"),
		Render:       RenderConfig{Enabled: true, Maps: true},
		Watch:        WatchConfig{DebounceMs: defaultDebounceMs},
		Geocode:      DefaultGeocodeConfig(),
	}

	configPath := getEnv("CONFIG_PATH", filepath.Join("config", "config.yaml"))
	cfg.ConfigPath = configPath

	fileCfg, fileErr := loadFileConfig(configPath)
	if fileErr != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("config load failed (%s): %w", configPath, fileErr)
		}
		log.Info("config file not used, using defaults", zap.String("path", configPath), zap.Error(fileErr))
	}

	cfg.DataPath = firstNonEmpty(os.Getenv("DATA_PATH"), fileCfg.DataPath, defaultDataPath)
	cfg.OutputDir = firstNonEmpty(os.Getenv("OUTPUT_DIR"), fileCfg.OutputDir, defaultOutputDir)
	cfg.LogLevel = firstNonEmpty(os.Getenv("LOG_LEVEL"), fileCfg.LogLevel, defaultLogLevel)

	if raw := firstNonEmpty(os.Getenv("CSV_DELIMITER"), fileCfg.Delimiter); raw != "" {
		d, err := parseDelimiter(raw)
		if err != nil {
			if cfg.StrictConfig {
				return cfg, err
			}
			log.Warn("invalid delimiter, using comma", zap.String("value", raw), zap.Error(err))
		} else {
			cfg.Delimiter = d
		}
	}

	cfg.Normalize = applyNormalizeOverrides(cfg.Normalize, fileCfg.Normalize)
	if v := strings.TrimSpace(os.Getenv("PRESERVE_CA_QUIRK")); v != "" {
		cfg.Normalize.PreserveCAQuirk = parseBoolEnv("PRESERVE_CA_QUIRK")
	}

	if fileCfg.Render.Enabled != nil {
		cfg.Render.Enabled = *fileCfg.Render.Enabled
	}
	if fileCfg.Render.Maps != nil {
		cfg.Render.Maps = *fileCfg.Render.Maps
	}
	cfg.Render.Enabled = parseBoolEnvDefault("RENDER_ENABLED", cfg.Render.Enabled)
	cfg.Render.Maps = parseBoolEnvDefault("RENDER_MAPS", cfg.Render.Maps)

	if fileCfg.Watch.DebounceMs != nil && *fileCfg.Watch.DebounceMs > 0 {
		cfg.Watch.DebounceMs = *fileCfg.Watch.DebounceMs
	}
	if v, ok, err := parseIntEnv("WATCH_DEBOUNCE_MS"); err != nil {
		if cfg.StrictConfig {
			return cfg, fmt.Errorf("invalid WATCH_DEBOUNCE_MS: %w", err)
		}
		log.Warn("invalid WATCH_DEBOUNCE_MS, using default", zap.Error(err))
	} else if ok && v > 0 {
		cfg.Watch.DebounceMs = v
	}

	cfg.Geocode = applyGeocodeOverrides(cfg.Geocode, fileCfg.Geocode)
	if err := applyGeocodeEnv(&cfg.Geocode, cfg.StrictConfig, log); err != nil {
		return cfg, err
	}

	if err := validateConfig(cfg); err != nil {
		if cfg.StrictConfig {
			return cfg, err
		}
		log.Warn("config validation failed (continuing)", zap.Error(err))
	}
	return cfg, nil
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func applyNormalizeOverrides(base NormalizeConfig, override normalizeFileConfig) NormalizeConfig {
	if len(override.StateNames) > 0 {
		names := make(map[string]string, len(override.StateNames))
		for code, name := range override.StateNames {
			code = strings.TrimSpace(code)
			name = strings.TrimSpace(name)
			if code != "" && name != "" {
				names[code] = name
			}
		}
		base.StateNames = names
	}
	if override.PreserveCAQuirk != nil {
		base.PreserveCAQuirk = *override.PreserveCAQuirk
	}
	return base
}

func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.DataPath) == "" {
		return errors.New("DATA_PATH is required")
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.New("OUTPUT_DIR is required")
	}
	return cfg.Geocode.validate()
}

func parseDelimiter(raw string) (rune, error) {
	switch raw {
	case `\t`, "tab":
		return '\t', nil
	}
	r := []rune(raw)
	if len(r) != 1 || r[0] == '"' || r[0] == '\n' || r[0] == '\r' {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", raw)
	}
	return r[0], nil
}

func firstNonEmpty(values ...string) string {
	for _, val := range values {
		if strings.TrimSpace(val) != "" {
			return val
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolEnv(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return defaultVal
	}
	return parseBoolEnv(key)
}

func parseIntEnv(key string) (int, bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false, nil
	}
	val, err := strconv.Atoi(raw)
	return val, true, err
}
