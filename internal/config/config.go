package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const envPrefix = "LANGID_"

type Config struct {
	App       AppConfig       `yaml:"app"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Training  TrainingConfig  `yaml:"training"`
	MCP       MCPConfig       `yaml:"mcp"`
}

type AppConfig struct {
	Port       int    `yaml:"port"`
	WorkDir    string `yaml:"workdir"`
	LogLevel   string `yaml:"log_level"`
	Vocabulary string `yaml:"vocabulary"` // Snapshot name under WorkDir
}

type TokenizerConfig struct {
	CacheSize int `yaml:"cache_size"`
}

type TrainingConfig struct {
	CorpusDir       string   `yaml:"corpus_dir"`
	DatasetPath     string   `yaml:"dataset_path"`
	MinFrequency    int64    `yaml:"min_frequency"`
	Workers         int      `yaml:"workers"`
	SkipDedupe      bool     `yaml:"skip_dedupe"`
	ExpectedSamples uint     `yaml:"expected_samples"`
	DedupeFPRate    float64  `yaml:"dedupe_fp_rate"` // 0 keeps exact dedupe
	SkipDirs        []string `yaml:"skip_dirs"`
	GCThreshold     int64    `yaml:"gc_threshold"`
}

type MCPConfig struct {
	Disabled bool   `yaml:"disabled"`
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
}

// LoadConfig reads .env, then the YAML file at appConfigPath when it is
// non-empty, then LANGID_* environment overrides, and fills defaults
func LoadConfig(appConfigPath string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if appConfigPath != "" {
		data, err := os.ReadFile(appConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read app config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse app config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error

	setString := func(name string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setInt64 := func(name string, dst *int64) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(name string, dst *float64) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", envPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	setBool := func(name string, dst *bool) {
		if v := strings.TrimSpace(os.Getenv(envPrefix + name)); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", envPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	setInt("PORT", &c.App.Port)
	setString("WORKDIR", &c.App.WorkDir)
	setString("LOG_LEVEL", &c.App.LogLevel)
	setString("VOCABULARY", &c.App.Vocabulary)
	setInt("CACHE_SIZE", &c.Tokenizer.CacheSize)
	setString("CORPUS_DIR", &c.Training.CorpusDir)
	setString("DATASET_PATH", &c.Training.DatasetPath)
	setInt64("MIN_FREQUENCY", &c.Training.MinFrequency)
	setInt("WORKERS", &c.Training.Workers)
	setBool("SKIP_DEDUPE", &c.Training.SkipDedupe)
	setFloat("DEDUPE_FP_RATE", &c.Training.DedupeFPRate)
	setBool("MCP_DISABLED", &c.MCP.Disabled)

	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	if c.App.Port == 0 {
		c.App.Port = 8080
	}
	if c.App.WorkDir == "" {
		c.App.WorkDir = "data"
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.App.Vocabulary == "" {
		c.App.Vocabulary = "default"
	}
	if c.Tokenizer.CacheSize == 0 {
		c.Tokenizer.CacheSize = 1024
	}
	if c.Training.CorpusDir == "" {
		c.Training.CorpusDir = "samples"
	}
	if c.Training.DatasetPath == "" {
		c.Training.DatasetPath = filepath.Join(c.App.WorkDir, c.App.Vocabulary+"_dataset.jsonl")
	}
	if c.Training.MinFrequency == 0 {
		c.Training.MinFrequency = 2
	}
	if len(c.Training.SkipDirs) == 0 {
		c.Training.SkipDirs = []string{"node_modules", "vendor"}
	}
	if c.MCP.Name == "" {
		c.MCP.Name = "langid-mcp"
	}
	if c.MCP.Version == "" {
		c.MCP.Version = "1.0.0"
	}
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	if c.App.Port < 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app port: %d", c.App.Port)
	}
	if c.Tokenizer.CacheSize < 0 {
		return fmt.Errorf("invalid tokenizer cache size: %d", c.Tokenizer.CacheSize)
	}
	if c.Training.MinFrequency < 1 {
		return fmt.Errorf("invalid training min frequency: %d", c.Training.MinFrequency)
	}
	if c.Training.Workers < 0 {
		return fmt.Errorf("invalid training workers: %d", c.Training.Workers)
	}
	if c.Training.DedupeFPRate < 0 || c.Training.DedupeFPRate >= 1 {
		return fmt.Errorf("invalid training dedupe false positive rate: %g", c.Training.DedupeFPRate)
	}
	switch strings.ToLower(c.App.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.App.LogLevel)
	}
	return nil
}
