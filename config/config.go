package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment `mapstructure:"-"`

	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Generation GenerationConfig `mapstructure:"generation"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	Storage    StorageConfig    `mapstructure:"storage"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port" validate:"required"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address for the HTTP server
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ConnectionString returns the DSN for the configured driver
func (d DatabaseConfig) ConnectionString() string {
	if d.DSN != "" {
		return d.DSN
	}
	if d.Driver == "sqlite" {
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// MigrationURL returns a postgres URL usable by golang-migrate
func (d DatabaseConfig) MigrationURL() string {
	if strings.HasPrefix(d.DSN, "postgres://") || strings.HasPrefix(d.DSN, "postgresql://") {
		return d.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether any redis endpoint was configured
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required,min=8"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
}

type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	APIKeyFile  string        `mapstructure:"api_key_file"`
	APIURL      string        `mapstructure:"api_url" validate:"required,url"`
	Model       string        `mapstructure:"model" validate:"required"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gt=0"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"gte=0,lte=5"`
}

type GenerationConfig struct {
	BestEffortPersistence bool          `mapstructure:"best_effort_persistence"`
	CacheTTL              time.Duration `mapstructure:"cache_ttl"`
}

type RateLimitConfig struct {
	GeneratePerWindow int           `mapstructure:"generate_per_window" validate:"gte=0"`
	Window            time.Duration `mapstructure:"window" validate:"gt=0"`
}

type StorageConfig struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// envBindings maps config keys to the plain environment variable names used by
// the docker-compose and CI setups.
var envBindings = map[string][]string{
	"server.port":                        {"SERVER_PORT", "PORT"},
	"server.host":                        {"SERVER_HOST"},
	"database.driver":                    {"DB_DRIVER"},
	"database.dsn":                       {"DATABASE_URL"},
	"database.host":                      {"DB_HOST"},
	"database.port":                      {"DB_PORT"},
	"database.user":                      {"DB_USER"},
	"database.password":                  {"DB_PASSWORD"},
	"database.name":                      {"DB_NAME"},
	"database.sslmode":                   {"DB_SSL_MODE"},
	"redis.url":                          {"REDIS_URL"},
	"redis.host":                         {"REDIS_HOST"},
	"redis.port":                         {"REDIS_PORT"},
	"redis.password":                     {"REDIS_PASSWORD"},
	"auth.jwt_secret":                    {"JWT_SECRET"},
	"llm.api_key":                        {"DEEPSEEK_API_KEY"},
	"llm.api_key_file":                   {"DEEPSEEK_API_KEY_FILE"},
	"llm.api_url":                        {"DEEPSEEK_API_URL"},
	"storage.bucket":                     {"S3_BUCKET_NAME"},
	"storage.region":                     {"AWS_REGION"},
	"generation.best_effort_persistence": {"BEST_EFFORT_PERSISTENCE"},
	"log.level":                          {"LOG_LEVEL"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "fusion_kitchen")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("llm.api_url", "https://api.deepseek.com/v1/chat/completions")
	v.SetDefault("llm.model", "deepseek-chat")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 4000)
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_retries", 0)

	v.SetDefault("generation.best_effort_persistence", false)
	v.SetDefault("generation.cache_ttl", 24*time.Hour)

	v.SetDefault("ratelimit.generate_per_window", 10)
	v.SetDefault("ratelimit.window", time.Hour)

	v.SetDefault("storage.prefix", "generations")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173", "http://frontend:5173"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// LoadConfig builds the configuration from defaults, an optional config file,
// environment variables and docker secrets, in increasing precedence for
// everything except secrets, which only fill values still empty.
func LoadConfig() (*Config, error) {
	cfg, _, err := load()
	return cfg, err
}

// Watcher delivers freshly decoded configs when the config file changes
type Watcher struct {
	v *viper.Viper
}

// LoadWithWatcher behaves like LoadConfig and also returns a Watcher for the
// file that was read. Nothing is watched until Watch is called.
func LoadWithWatcher() (*Config, *Watcher, error) {
	cfg, v, err := load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, &Watcher{v: v}, nil
}

// Watch starts watching the config file and invokes onChange with each
// successfully decoded revision. It is a no-op when no file was used.
func (w *Watcher) Watch(onChange func(*Config)) bool {
	if w == nil || w.v.ConfigFileUsed() == "" || onChange == nil {
		return false
	}
	w.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(w.v)
		if err != nil {
			return
		}
		onChange(next)
	})
	w.v.WatchConfig()
	return true
}

func load() (*Config, *viper.Viper, error) {
	env := GetEnvironment()
	if env != Production {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("FUSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.Environment = GetEnvironment()

	if err := applySecrets(cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
