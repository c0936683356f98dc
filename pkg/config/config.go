package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/rubiojr/catalog/pkg/db"
	"github.com/rubiojr/catalog/pkg/query"
)

//go:embed config.toml.sample
var configTemplate string

// Environment variables overriding the file.
const (
	EnvStorageDir  = "CATALOG_STORAGE_DIR"
	EnvStoreDriver = "CATALOG_STORE_DRIVER"
	EnvStoreDSN    = "CATALOG_STORE_DSN"
)

type Config struct {
	StorageDir string       `toml:"storage_dir"`
	Store      StoreConfig  `toml:"store"`
	Search     SearchConfig `toml:"search"`
	Server     ServerConfig `toml:"server"`
}

type StoreConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
	// Zero disables periodic optimization while serving.
	OptimizeInterval Duration `toml:"optimize_interval"`
}

type SearchConfig struct {
	DefaultPageSize   int      `toml:"default_page_size"`
	StoreTimeout      Duration `toml:"store_timeout"`
	ProjectionWorkers int      `toml:"projection_workers"`
}

type ServerConfig struct {
	Host      string  `toml:"host"`
	Port      int     `toml:"port"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func GetDefaultConfig() (*Config, error) {
	storageDir, err := GetDefaultStorageDir()
	if err != nil {
		return nil, fmt.Errorf("getting default storage directory: %w", err)
	}
	c := &Config{StorageDir: storageDir}
	c.Store.OptimizeInterval = Duration{time.Hour}
	c.applyDefaults()
	c.applyEnv()
	return c, nil
}

// LoadConfig reads configPath, falling back to defaults when the file does
// not exist. Environment variables override file values.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, fs.ErrNotExist) {
		return GetDefaultConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	config.applyEnv()

	if config.StorageDir == "" {
		storageDir, err := GetDefaultStorageDir()
		if err != nil {
			return nil, fmt.Errorf("getting default storage directory: %w", err)
		}
		config.StorageDir = storageDir
	}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// LoadDotEnv loads variables from a .env file into the environment without
// overriding variables already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvStorageDir); v != "" {
		c.StorageDir = v
	}
	if v := os.Getenv(EnvStoreDriver); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(EnvStoreDSN); v != "" {
		c.Store.DSN = v
	}
}

func (c *Config) applyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = string(db.SQLite)
	}
	if c.Search.DefaultPageSize == 0 {
		c.Search.DefaultPageSize = query.DefaultPageSize
	}
	if c.Search.StoreTimeout.Duration == 0 {
		c.Search.StoreTimeout = Duration{10 * time.Second}
	}
	if c.Search.ProjectionWorkers == 0 {
		c.Search.ProjectionWorkers = 8
	}
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 40
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := db.ParseDialect(c.Store.Driver); err != nil {
		return fmt.Errorf("store.driver: %w", err)
	}
	if n := c.Search.DefaultPageSize; n < 1 || n > query.MaxPageSize {
		return fmt.Errorf("search.default_page_size must be between 1 and %d, got %d", query.MaxPageSize, n)
	}
	if c.Store.OptimizeInterval.Duration < 0 {
		return fmt.Errorf("store.optimize_interval must not be negative")
	}
	if c.Search.StoreTimeout.Duration < 0 {
		return fmt.Errorf("search.store_timeout must not be negative")
	}
	if c.Search.ProjectionWorkers < 1 {
		return fmt.Errorf("search.projection_workers must be positive, got %d", c.Search.ProjectionWorkers)
	}
	if p := c.Server.Port; p < 1 || p > 65535 {
		return fmt.Errorf("server.port out of range: %d", p)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	return nil
}

// StoreDSN returns the data source name for the configured store. An empty
// SQLite DSN resolves to catalog.db inside the storage directory.
func (c *Config) StoreDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}
	if d, err := db.ParseDialect(c.Store.Driver); err == nil && d == db.SQLite {
		return filepath.Join(c.StorageDir, "catalog.db")
	}
	return ""
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	template, err := c.generateConfigTemplate()
	if err != nil {
		return fmt.Errorf("generating config template: %w", err)
	}
	return os.WriteFile(configPath, []byte(template), 0644)
}

func (c *Config) generateConfigTemplate() (string, error) {
	storageDir := c.StorageDir
	if storageDir == "" {
		var err error
		storageDir, err = GetDefaultStorageDir()
		if err != nil {
			return "", fmt.Errorf("getting default storage directory: %w", err)
		}
	}

	// Replace the placeholder storage_dir with the actual path
	template := strings.Replace(configTemplate, "/home/user/.local/share/catalog", storageDir, 1)
	return template, nil
}

// GetDefaultStorageDir returns the default storage directory for databases
func GetDefaultStorageDir() (string, error) {
	// Use XDG_DATA_HOME if set, otherwise use ~/.local/share
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "catalog")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetConfigDir returns the configuration directory for catalog
func GetConfigDir() (string, error) {
	// Use XDG_CONFIG_HOME if set, otherwise use ~/.config
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "catalog")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}
