package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// AppName names the per-user data and config directories
const AppName = "guardian-shield"

// XDGDataDir returns the per-user data directory, for example
// ~/.local/share/guardian-shield on Linux
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the per-user config directory, for example
// ~/.config/guardian-shield on Linux
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Config holds all configuration for the application
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Database  DatabaseConfig  `mapstructure:"database"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Detection DetectionConfig `mapstructure:"detection"`
	Extension ExtensionConfig `mapstructure:"extension"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
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
	GRPCPort        int           `mapstructure:"grpc_port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// StoreConfig selects the analysis record store backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "postgres", "sqlite" or "memory"
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

type SQLiteConfig struct {
	Dir       string `mapstructure:"dir"`
	EnableWAL bool   `mapstructure:"enable_wal"`
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type NATSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	URL        string `mapstructure:"url"`
	StreamName string `mapstructure:"stream_name"`
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
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
}

// DetectionConfig mirrors the heuristic rule tables. Empty lists fall back
// to the compiled-in defaults.
type DetectionConfig struct {
	RulesFile string `mapstructure:"rules_file"`

	LookalikeDomains  []string `mapstructure:"lookalike_domains"`
	SubdomainMarkers  []string `mapstructure:"subdomain_markers"`
	SuspiciousPaths   []string `mapstructure:"suspicious_paths"`
	UrgencyPhrases    []string `mapstructure:"urgency_phrases"`
	LinkPhrases       []string `mapstructure:"link_phrases"`
	PersonalInfo      []string `mapstructure:"personal_info_phrases"`
	GrammarMarkers    []string `mapstructure:"grammar_markers"`
	VoiceMarkers      []string `mapstructure:"voice_markers"`
	VideoMarkers      []string `mapstructure:"video_markers"`
	VoiceMinBytes     int64    `mapstructure:"voice_min_bytes"`
	VideoMinBytes     int64    `mapstructure:"video_min_bytes"`
}

// ExtensionConfig holds the defaults handed to new extension clients
type ExtensionConfig struct {
	Enabled                 bool   `mapstructure:"enabled"`
	EnablePhishingDetection bool   `mapstructure:"enable_phishing_detection"`
	EnableDeepfakeDetection bool   `mapstructure:"enable_deepfake_detection"`
	EnableVoiceDetection    bool   `mapstructure:"enable_voice_detection"`
	AlertLevel              string `mapstructure:"alert_level"`
	AutoBlockThreats        bool   `mapstructure:"auto_block_threats"`
	HistoryLimit            int    `mapstructure:"history_limit"`
	WarningPage             string `mapstructure:"warning_page"`
}

// ArchiveConfig configures the optional media evidence bucket
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type AnalysisConfig struct {
	PersistTimeout time.Duration `mapstructure:"persist_timeout"`
	BatchLimit     int           `mapstructure:"batch_limit"`
	MaxBatchSize   int           `mapstructure:"max_batch_size"`
	DefaultUserID  int           `mapstructure:"default_user_id"`
}

// Validate checks values viper cannot type-check on its own
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case "postgres", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("store.driver must be postgres, sqlite or memory, got %q", c.Store.Driver))
	}

	switch c.Extension.AlertLevel {
	case "low", "medium", "high":
	default:
		errs = append(errs, fmt.Errorf("extension.alert_level must be low, medium or high, got %q", c.Extension.AlertLevel))
	}

	if c.Detection.VoiceMinBytes < 0 || c.Detection.VideoMinBytes < 0 {
		errs = append(errs, errors.New("detection size thresholds must not be negative"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server.max_upload_bytes must be positive"))
	}
	if c.Analysis.BatchLimit <= 0 {
		errs = append(errs, errors.New("analysis.batch_limit must be positive"))
	}

	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", AppName)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.max_upload_bytes", 100*1024*1024)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.schema", "public")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("sqlite.dir", XDGDataDir())
	v.SetDefault("sqlite.enable_wal", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "guardian:")

	v.SetDefault("nats.stream_name", "GUARDIAN_ANALYSES")

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "X-Client-ID"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("ratelimit.requests_per_minute", 120)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.time_format", time.RFC3339)

	v.SetDefault("detection.voice_min_bytes", 100000)
	v.SetDefault("detection.video_min_bytes", 1000000)

	v.SetDefault("extension.enabled", true)
	v.SetDefault("extension.enable_phishing_detection", true)
	v.SetDefault("extension.enable_deepfake_detection", true)
	v.SetDefault("extension.enable_voice_detection", true)
	v.SetDefault("extension.alert_level", "medium")
	v.SetDefault("extension.auto_block_threats", true)
	v.SetDefault("extension.history_limit", 100)
	v.SetDefault("extension.warning_page", "warning.html")

	v.SetDefault("archive.bucket", "guardian-media")

	v.SetDefault("analysis.persist_timeout", 5*time.Second)
	v.SetDefault("analysis.batch_limit", 8)
	v.SetDefault("analysis.max_batch_size", 100)
	v.SetDefault("analysis.default_user_id", 1)
}

// Load reads configuration from file and environment variables. A missing
// config file is not an error; defaults and environment still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath(XDGConfigDir())
		v.AddConfigPath("/etc/guardian-shield")
	}

	v.SetEnvPrefix("GUARDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadDefault loads configuration with default path
func LoadDefault() (*Config, error) {
	return Load("")
}
