package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	StoragePath string
	GeoIPDBPath string

	// Provider selection. One of: openai, anthropic, replicate, static.
	Provider            string
	AllowStaticProvider bool

	OpenAIAPIKey string
	OpenAIModel  string
	OpenAIBaseURL string
	OpenAIOrg    string

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	AnthropicVersion string

	ReplicateAPIToken string
	ReplicateModel    string
	ReplicateBaseURL  string

	QueueMaxConcurrent int
	QueueMaxRetries    int
	QueueCacheTTL      time.Duration

	GenerateTimeout  time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	DefaultLocale    string
	AllowedOrigins   []string
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. A missing database URL or a selected provider
// without its credential is a fatal configuration error, not a silent
// default.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StoragePath: getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),

		Provider:            getEnv("LLM_PROVIDER", "openai"),
		AllowStaticProvider: getEnvBool("ALLOW_STATIC_PROVIDER", false),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:     os.Getenv("OPENAI_ORG"),

		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		AnthropicVersion: getEnv("ANTHROPIC_VERSION", "2023-06-01"),

		ReplicateAPIToken: os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateModel:    getEnv("REPLICATE_MODEL", "deepseek-ai/deepseek-v3"),
		ReplicateBaseURL:  getEnv("REPLICATE_BASE_URL", "https://api.replicate.com"),

		QueueMaxConcurrent: getEnvInt("QUEUE_MAX_CONCURRENT", 3),
		QueueMaxRetries:    getEnvInt("QUEUE_MAX_RETRIES", 3),
		QueueCacheTTL:      time.Second * time.Duration(getEnvInt("QUEUE_CACHE_TTL_SECONDS", 300)),

		GenerateTimeout:  time.Second * time.Duration(getEnvInt("GENERATE_TIMEOUT_SECONDS", 90)),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "en"),
		AllowedOrigins:   splitEnv("ALLOWED_ORIGINS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if err := cfg.validateProvider(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateProvider() error {
	switch c.Provider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			return c.missingCredential("OPENAI_API_KEY")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return c.missingCredential("ANTHROPIC_API_KEY")
		}
	case "replicate":
		if c.ReplicateAPIToken == "" {
			return c.missingCredential("REPLICATE_API_TOKEN")
		}
	case "static":
		if !c.AllowStaticProvider {
			return fmt.Errorf("LLM_PROVIDER=static requires ALLOW_STATIC_PROVIDER=true")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.Provider)
	}
	return nil
}

// missingCredential falls back to the static provider only when explicitly
// allowed; otherwise the absent credential is fatal.
func (c *Config) missingCredential(name string) error {
	if c.AllowStaticProvider {
		c.Provider = "static"
		return nil
	}
	return fmt.Errorf("%s is required for LLM_PROVIDER=%s", name, c.Provider)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func splitEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
