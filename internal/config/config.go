package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr              string        `yaml:"addr"`
	JWTSecret         string        `yaml:"jwt_secret"`
	HRAccessKeyHash   string        `yaml:"hr_access_key_hash"`
	APITimeout        time.Duration `yaml:"timeout"`
	DatabasePath      string        `yaml:"database_path"`
	TokenDuration     time.Duration `yaml:"token_duration"`
	MaxQuestionLength int           `yaml:"max_question_length"`
	SeedDir           string        `yaml:"seed_dir"`
	ImportDir         string        `yaml:"import_dir"`
	HREmail           string        `yaml:"hr_email"`
	Workers           int           `yaml:"workers"`
	RateLimit         RateLimit     `yaml:"rate_limit"`
	EngineConfig      EngineConfig  `yaml:"engine"`
	OllamaConfig      OllamaConfig  `yaml:"ollama"`
}

// RateLimit bounds the rate of workflow requests accepted by the API.
type RateLimit struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

type EngineConfig struct {
	Model        string        `yaml:"model"`
	SummaryModel string        `yaml:"summary_model"`
	Timeout      time.Duration `yaml:"timeout"`
}

type OllamaConfig struct {
	BaseURL                 string        `yaml:"base_url"`
	Timeout                 time.Duration `yaml:"timeout"`
	Retries                 int           `yaml:"retries"`
	Backoff                 time.Duration `yaml:"backoff"`
	CircuitFailureThreshold int           `yaml:"circuit_failure_threshold"`
	CircuitReset            time.Duration `yaml:"circuit_reset"`
}

func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:              getEnv("FAQ_ADDR", ":8080"),
		JWTSecret:         getEnv("FAQ_JWT_SECRET", "supersecretkey"),
		HRAccessKeyHash:   getEnv("FAQ_HR_KEY_HASH", ""),
		APITimeout:        15 * time.Second,
		DatabasePath:      getEnv("FAQ_DATABASE_PATH", "positionfaq.db"),
		TokenDuration:     1 * time.Hour,
		MaxQuestionLength: getEnvInt("FAQ_MAX_QUESTION_LENGTH", 5000),
		SeedDir:           getEnv("FAQ_SEED_DIR", ""),
		ImportDir:         getEnv("FAQ_IMPORT_DIR", ""),
		HREmail:           getEnv("FAQ_HR_EMAIL", "hr@example.com"),
		Workers:           2,
		RateLimit:         RateLimit{PerSecond: 5, Burst: 10},
		EngineConfig: EngineConfig{
			Model:   getEnv("FAQ_MODEL", "llama3"),
			Timeout: 20 * time.Second,
		},
		OllamaConfig: OllamaConfig{
			BaseURL:                 getEnv("FAQ_OLLAMA_URL", "http://localhost:11434"),
			Timeout:                 30 * time.Second,
			Retries:                 2,
			Backoff:                 500 * time.Millisecond,
			CircuitFailureThreshold: 5,
			CircuitReset:            30 * time.Second,
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.EngineConfig.SummaryModel == "" {
		cfg.EngineConfig.SummaryModel = cfg.EngineConfig.Model
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}
