package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Fetch       FetchConfig      `mapstructure:"fetch"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Storage     StorageConfig    `mapstructure:"storage"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Image       ImageConfig      `mapstructure:"image"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig holds application metadata.
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OpenRouterConfig holds the generative-model provider settings. Enabled=false
// forces structured-data-only extraction regardless of key presence.
type OpenRouterConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// FetchConfig holds content fetcher settings.
type FetchConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	SettleDelay       time.Duration `mapstructure:"settle_delay"`
	MinContentLength  int           `mapstructure:"min_content_length"`
	MaxRenders        int           `mapstructure:"max_renders"`
	RenderHosts       []string      `mapstructure:"render_hosts"`
	BrowserBin        string        `mapstructure:"browser_bin"`
}

// CacheConfig holds AI response cache settings.
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// StorageConfig holds recipe persistence settings.
type StorageConfig struct {
	SQLitePath   string        `mapstructure:"sqlite_path"`
	RedisEnabled bool          `mapstructure:"redis_enabled"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	RedisTTL     time.Duration `mapstructure:"redis_ttl"`
}

// RateLimitConfig holds API rate limit settings.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig holds image input settings.
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// LoadConfig loads configuration from .env and environment variables.
func LoadConfig() (*Config, error) {
	// .env is optional; environment variables alone are fine.
	_ = godotenv.Load()

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.BindEnv("openrouter.enabled", "OPENROUTER_ENABLED")
	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	viper.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("fetch.timeout", "FETCH_TIMEOUT")
	viper.BindEnv("fetch.browser_bin", "BROWSER_BIN")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("storage.sqlite_path", "SQLITE_PATH")
	viper.BindEnv("storage.redis_enabled", "REDIS_ENABLED")
	viper.BindEnv("storage.redis_addr", "REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey masks a credential for logging, keeping 4 characters on each end.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-extractor")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")
	viper.SetDefault("server.idle_timeout", "120s")

	viper.SetDefault("openrouter.enabled", false)
	viper.SetDefault("openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	viper.SetDefault("openrouter.max_tokens", 4000)
	viper.SetDefault("openrouter.timeout", "60s")

	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.navigation_timeout", "20s")
	viper.SetDefault("fetch.settle_delay", "2s")
	viper.SetDefault("fetch.min_content_length", 500)
	viper.SetDefault("fetch.max_renders", 3)
	// Hosts known to render recipe content client-side; plain GET returns a shell.
	viper.SetDefault("fetch.render_hosts", []string{
		"www.10dakot.co.il",
		"www.mako.co.il",
		"food.walla.co.il",
	})

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")

	viper.SetDefault("storage.sqlite_path", "recipes.db")
	viper.SetDefault("storage.redis_enabled", false)
	viper.SetDefault("storage.redis_addr", "localhost:6379")
	viper.SetDefault("storage.redis_ttl", "24h")

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	viper.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	viper.SetDefault("dedup_window", "1s")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Fetch.Timeout <= 0 {
		return fmt.Errorf("invalid fetch timeout")
	}
	if config.Fetch.MinContentLength <= 0 {
		return fmt.Errorf("invalid fetch min content length")
	}
	if config.Fetch.MaxRenders <= 0 {
		return fmt.Errorf("invalid fetch max renders")
	}

	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	return nil
}
