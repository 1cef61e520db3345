package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Judge backend selection.
const (
	JudgeBackendJudge0 = "judge0"
	JudgeBackendDocker = "docker"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	JWTRefreshSecret       string
	CORSAllowOrigins       string
	JudgeBackend           string
	JudgeBaseURL           string
	JudgeAuthToken         string
	JudgeTimeout           time.Duration
	JudgePollInterval      time.Duration
	GradingMaxConcurrency  int
	StatisticsCacheTTL     time.Duration
	DispatchSubject        string
	DispatchMaxAttempts    int
	DispatchBackoff        time.Duration
	DockerHost             string
	ExecutionTimeout       time.Duration
	CodeRunMemoryMB        int
	CodeRunCPUShares       int
	ShortlistProvider      string
	ShortlistThreshold     float64
	OpenAIAPIKey           string
	OpenAIModel            string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("HIREFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "HireFlow API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("judge.backend", JudgeBackendJudge0)
	v.SetDefault("judge.timeout_ms", 30000)
	v.SetDefault("judge.poll_interval_ms", 500)
	v.SetDefault("grading.max_concurrency", 4)
	v.SetDefault("statistics.cache_ttl", "30s")
	v.SetDefault("dispatch.subject", "hireflow.invites")
	v.SetDefault("dispatch.max_attempts", 3)
	v.SetDefault("dispatch.backoff", "60s")
	v.SetDefault("execution_timeout_ms", 5000)
	v.SetDefault("code_run_memory_mb", 256)
	v.SetDefault("code_run_cpu_shares", 512)
	v.SetDefault("shortlist.provider", "keyword")
	v.SetDefault("shortlist.threshold", 0.5)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("cloudinary.folder", "hireflow/resumes")

	cacheTTL, err := time.ParseDuration(v.GetString("statistics.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid statistics cache ttl: %w", err)
	}

	backoff, err := time.ParseDuration(v.GetString("dispatch.backoff"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dispatch backoff: %w", err)
	}

	judgeTimeoutMs := v.GetInt("judge.timeout_ms")
	if judgeTimeoutMs <= 0 {
		judgeTimeoutMs = 30000
	}

	pollIntervalMs := v.GetInt("judge.poll_interval_ms")
	if pollIntervalMs <= 0 {
		pollIntervalMs = 500
	}

	timeoutMs := v.GetInt("execution_timeout_ms")
	if timeoutMs <= 0 {
		timeoutMs = 5000
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTRefreshSecret:       v.GetString("jwt.refresh_secret"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		JudgeBackend:           strings.ToLower(v.GetString("judge.backend")),
		JudgeBaseURL:           v.GetString("judge.base_url"),
		JudgeAuthToken:         v.GetString("judge.auth_token"),
		JudgeTimeout:           time.Duration(judgeTimeoutMs) * time.Millisecond,
		JudgePollInterval:      time.Duration(pollIntervalMs) * time.Millisecond,
		GradingMaxConcurrency:  v.GetInt("grading.max_concurrency"),
		StatisticsCacheTTL:     cacheTTL,
		DispatchSubject:        v.GetString("dispatch.subject"),
		DispatchMaxAttempts:    v.GetInt("dispatch.max_attempts"),
		DispatchBackoff:        backoff,
		DockerHost:             v.GetString("docker_host"),
		ExecutionTimeout:       time.Duration(timeoutMs) * time.Millisecond,
		CodeRunMemoryMB:        v.GetInt("code_run_memory_mb"),
		CodeRunCPUShares:       v.GetInt("code_run_cpu_shares"),
		ShortlistProvider:      strings.ToLower(v.GetString("shortlist.provider")),
		ShortlistThreshold:     v.GetFloat64("shortlist.threshold"),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		OpenAIModel:            v.GetString("openai.model"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
	}

	if cfg.JWTSecret == "" || cfg.JWTRefreshSecret == "" {
		return Config{}, fmt.Errorf("jwt secrets must be provided")
	}

	if cfg.JudgeBackend != JudgeBackendJudge0 && cfg.JudgeBackend != JudgeBackendDocker {
		return Config{}, fmt.Errorf("unknown judge backend %q", cfg.JudgeBackend)
	}

	if cfg.GradingMaxConcurrency <= 0 {
		cfg.GradingMaxConcurrency = 4
	}

	if cfg.DispatchMaxAttempts <= 0 {
		cfg.DispatchMaxAttempts = 3
	}

	if cfg.CodeRunMemoryMB <= 0 {
		cfg.CodeRunMemoryMB = 256
	}

	if cfg.CodeRunCPUShares <= 0 {
		cfg.CodeRunCPUShares = 512
	}

	return cfg, nil
}
