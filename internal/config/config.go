package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/feral-file/flightstake-indexer/internal/domain"
)

const envPrefix = "FLIGHTSTAKE"

// Storage backends of the projection
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"log_level"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// URL is a full connection string and wins over the individual fields
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration. An empty URL disables notifications.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
	MaxAge         time.Duration `mapstructure:"max_age"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// LedgerConfig holds the ledger node connection settings
type LedgerConfig struct {
	WebSocketURL         string        `mapstructure:"websocket_url"`
	StartBlock           uint64        `mapstructure:"start_block"`
	ReconnectWait        time.Duration `mapstructure:"reconnect_wait"`
	MaxReconnectWait     time.Duration `mapstructure:"max_reconnect_wait"`
	ReconnectJitter      float64       `mapstructure:"reconnect_jitter"`
	LogPageSize          uint64        `mapstructure:"log_page_size"`
	BlockHeadTTL         time.Duration `mapstructure:"block_head_ttl"`
	BlockHeadStaleWindow time.Duration `mapstructure:"block_head_stale_window"`
	TimestampCacheSize   int           `mapstructure:"timestamp_cache_size"`
	TokenDecimals        int           `mapstructure:"token_decimals"`
}

// ContractConfig locates one source contract. An empty ABIPath selects the built-in ABI.
type ContractConfig struct {
	Address string `mapstructure:"address"`
	ABIPath string `mapstructure:"abi_path"`
}

// ContractsConfig holds the five source contracts
type ContractsConfig struct {
	Registry    ContractConfig `mapstructure:"registry"`
	Staking     ContractConfig `mapstructure:"staking"`
	Lending     ContractConfig `mapstructure:"lending"`
	Marketplace ContractConfig `mapstructure:"marketplace"`
	Oracle      ContractConfig `mapstructure:"oracle"`
}

// ForSource returns the contract of a source
func (c ContractsConfig) ForSource(source domain.Source) ContractConfig {
	switch source {
	case domain.SourceRegistry:
		return c.Registry
	case domain.SourceStaking:
		return c.Staking
	case domain.SourceLending:
		return c.Lending
	case domain.SourceMarketplace:
		return c.Marketplace
	case domain.SourceOracle:
		return c.Oracle
	default:
		return ContractConfig{}
	}
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// Addr returns host:port
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HubConfig holds live-update hub configuration
type HubConfig struct {
	KeepAlive time.Duration `mapstructure:"keep_alive"`
}

// ProjectorConfig holds configuration for the projector
type ProjectorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Storage    string          `mapstructure:"storage"`
	Database   DatabaseConfig  `mapstructure:"database"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Ledger     LedgerConfig    `mapstructure:"ledger"`
	Contracts  ContractsConfig `mapstructure:"contracts"`
	Metrics    ServerConfig    `mapstructure:"metrics"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Hub        HubConfig      `mapstructure:"hub"`
}

// legacyEnv maps config keys onto the variable names of earlier deployments.
// The prefixed variable takes precedence when both are set.
var legacyEnv = map[string]string{
	"ledger.websocket_url":          "SEPOLIA_WSS_URL",
	"contracts.registry.address":    "TICKET_NFT_ADDRESS",
	"contracts.staking.address":     "STAKING_VAULT_ADDRESS",
	"contracts.lending.address":     "LENDING_POOL_ADDRESS",
	"contracts.marketplace.address": "MARKETPLACE_ADDRESS",
	"contracts.oracle.address":      "PRICING_ORACLE_ADDRESS",
	"database.url":                  "DATABASE_URL",
	"server.port":                   "PORT",
}

// LoadProjectorConfig loads and validates configuration for the projector
func LoadProjectorConfig(configFile string, envPath string) (*ProjectorConfig, error) {
	v := configureViper("projector", configFile, envPath)

	// Set defaults
	v.SetDefault("storage", StoragePostgres)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("nats.stream_name", "FLIGHTSTAKE")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "flightstake-projector")
	v.SetDefault("nats.max_age", "24h")
	v.SetDefault("nats.publish_timeout", "5s")
	v.SetDefault("ledger.reconnect_wait", "5s")
	v.SetDefault("ledger.max_reconnect_wait", "1m")
	v.SetDefault("ledger.reconnect_jitter", 0.5)
	v.SetDefault("ledger.log_page_size", 5000)
	v.SetDefault("ledger.block_head_ttl", "12s")
	v.SetDefault("ledger.block_head_stale_window", "1m")
	v.SetDefault("ledger.timestamp_cache_size", 4096)
	v.SetDefault("ledger.token_decimals", domain.DEFAULT_TOKEN_DECIMALS)
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 9090)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg ProjectorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate reports the first missing required setting
func (c *ProjectorConfig) Validate() error {
	if c.Ledger.WebSocketURL == "" {
		return fmt.Errorf("%w: ledger.websocket_url", domain.ErrMissingConfig)
	}
	for _, source := range domain.AllSources {
		if c.Contracts.ForSource(source).Address == "" {
			return fmt.Errorf("%w: contracts.%s.address", domain.ErrMissingConfig, source)
		}
	}

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if err := c.Database.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported storage %q", c.Storage)
	}

	return nil
}

// LoadAPIConfig loads and validates configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("nats.stream_name", "FLIGHTSTAKE")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.connection_name", "flightstake-api")
	v.SetDefault("nats.ack_wait", "30s")
	v.SetDefault("nats.max_deliver", 3)
	v.SetDefault("hub.keep_alive", "15s")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	if cfg.NATS.URL != "" && cfg.NATS.ConsumerName == "" {
		hostname, _ := os.Hostname()
		cfg.NATS.ConsumerName = "flightstake-api-" + sanitizeConsumerName(hostname)
	}

	return &cfg, nil
}

// Validate checks that a connection target is configured
func (c *DatabaseConfig) Validate() error {
	if c.URL != "" {
		return nil
	}
	if c.Host == "" {
		return errors.New("database.host is required")
	}
	if c.DBName == "" {
		return errors.New("database.dbname is required")
	}
	return nil
}

// readConfig reads the config file, a missing file falls back to the environment
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in the current directory, the service
		// directory (e.g. cmd/projector/) and config/
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"log_level",
		"sentry_dsn",
		"storage",
		// Database
		"database.url",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		"nats.max_age",
		"nats.publish_timeout",
		// Ledger
		"ledger.websocket_url",
		"ledger.start_block",
		"ledger.reconnect_wait",
		"ledger.max_reconnect_wait",
		"ledger.reconnect_jitter",
		"ledger.log_page_size",
		"ledger.block_head_ttl",
		"ledger.block_head_stale_window",
		"ledger.timestamp_cache_size",
		"ledger.token_decimals",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"metrics.host",
		"metrics.port",
		"hub.keep_alive",
	}
	for _, source := range domain.AllSources {
		keys = append(keys,
			fmt.Sprintf("contracts.%s.address", source),
			fmt.Sprintf("contracts.%s.abi_path", source))
	}

	for _, key := range keys {
		legacy, ok := legacyEnv[key]
		if !ok {
			_ = v.BindEnv(key)
			continue
		}
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}

func sanitizeConsumerName(name string) string {
	if name == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}
