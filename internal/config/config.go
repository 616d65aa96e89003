package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Chat      ChatConfig      `mapstructure:"chat"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`
	Debug       bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	HTTPPort        int           `mapstructure:"http_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Schema          string        `mapstructure:"schema"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, c.Schema,
	)
}

type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GeminiConfig holds the generation model configuration.
// Leaving the API key empty disables generation; the chat service
// falls back to a static reply.
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	TopK        float32 `mapstructure:"top_k"`
	TopP        float32 `mapstructure:"top_p"`
}

type AuthConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// ChatConfig tunes the chat orchestration layer.
type ChatConfig struct {
	HistoryLimit       int `mapstructure:"history_limit"`        // messages sent to the model as context
	ScoreHistoryLimit  int `mapstructure:"score_history_limit"`  // prior scores kept per conversation
	CompressThreshold  int `mapstructure:"compress_threshold"`   // messages before compression kicks in
	CompressKeepNewest int `mapstructure:"compress_keep_newest"` // messages kept after compression
	ExcerptMaxRunes    int `mapstructure:"excerpt_max_runes"`    // alert summary length cap
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/crea-bienestar")
	}

	// Environment variables
	v.SetEnvPrefix("BIENESTAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind nested env vars explicitly (viper doesn't auto-bind nested struct fields)
	v.BindEnv("redis.host", "BIENESTAR_REDIS_HOST")
	v.BindEnv("redis.port", "BIENESTAR_REDIS_PORT")
	v.BindEnv("redis.password", "BIENESTAR_REDIS_PASSWORD")
	v.BindEnv("database.host", "BIENESTAR_DATABASE_HOST")
	v.BindEnv("database.port", "BIENESTAR_DATABASE_PORT")
	v.BindEnv("database.user", "BIENESTAR_DATABASE_USER")
	v.BindEnv("database.password", "BIENESTAR_DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "BIENESTAR_DATABASE_DBNAME")
	v.BindEnv("database.sslmode", "BIENESTAR_DATABASE_SSLMODE")
	v.BindEnv("gemini.api_key", "BIENESTAR_GEMINI_API_KEY")
	v.BindEnv("auth.api_key", "BIENESTAR_AUTH_API_KEY")
	v.BindEnv("app.environment", "BIENESTAR_APP_ENVIRONMENT")

	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gemini.model", "gemini-1.5-pro")
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.max_tokens", 500)
	v.SetDefault("gemini.top_k", 40)
	v.SetDefault("gemini.top_p", 0.95)

	v.SetDefault("chat.history_limit", 20)
	v.SetDefault("chat.score_history_limit", 50)
	v.SetDefault("chat.compress_threshold", 30)
	v.SetDefault("chat.compress_keep_newest", 10)
	v.SetDefault("chat.excerpt_max_runes", 500)
}
