package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Portal    PortalConfig   `mapstructure:"portal"`
	Downloads DownloadConfig `mapstructure:"downloads"`
	Network   NetworkConfig  `mapstructure:"network"`
	Cache     CacheConfig    `mapstructure:"cache"`
	Log       LogConfig      `mapstructure:"log"`
}

// PortalConfig holds the remote portal endpoints
type PortalConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	AssetHost   string `mapstructure:"asset_host"`
	LoginPath   string `mapstructure:"login_path"`
	CatalogPath string `mapstructure:"catalog_path"`
}

// DownloadConfig holds download settings
type DownloadConfig struct {
	Path          string `mapstructure:"path"`
	MaxConcurrent int    `mapstructure:"max_concurrent"`
	Thumbnails    bool   `mapstructure:"thumbnails"`
	Notifications bool   `mapstructure:"notifications"`
}

// NetworkConfig holds network settings
type NetworkConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	RetryAttempts   int           `mapstructure:"retry_attempts"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay   time.Duration `mapstructure:"retry_max_delay"`
	RetryMultiplier float64       `mapstructure:"retry_multiplier"`
	MaxFormHops     int           `mapstructure:"max_form_hops"`
	BrowserFallback bool          `mapstructure:"browser_fallback"`
}

// CacheConfig holds catalog cache settings
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DefaultUserAgent is sent with every portal request unless overridden
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var cfg *Config

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "d5s")
}

// GetDBPath returns the database file path
func GetDBPath() string {
	return filepath.Join(GetConfigDir(), "d5s.db")
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// GetCookiesDir returns the directory holding session snapshots
func GetCookiesDir() string {
	return filepath.Join(GetConfigDir(), "keys", "cookies")
}

// GetSessionPath returns the path of the current session snapshot
func GetSessionPath() string {
	return filepath.Join(GetConfigDir(), "keys", "session.json")
}

// GetMetaDir returns the directory holding catalog listings
func GetMetaDir() string {
	return filepath.Join(Get().Downloads.Path, "meta")
}

// Init initializes the configuration
func Init(cfgFile string) error {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	viper.SetDefault("portal.base_url", "https://digi4school.at")
	viper.SetDefault("portal.asset_host", "a.digi4school.at")
	viper.SetDefault("portal.login_path", "/br/xhr/login")
	viper.SetDefault("portal.catalog_path", "/ebooks")
	viper.SetDefault("downloads.path", "~/d5s/downloads")
	viper.SetDefault("downloads.max_concurrent", 1)
	viper.SetDefault("downloads.thumbnails", false)
	viper.SetDefault("downloads.notifications", false)
	viper.SetDefault("network.timeout", 30*time.Second)
	viper.SetDefault("network.user_agent", DefaultUserAgent)
	viper.SetDefault("network.retry_attempts", 1)
	viper.SetDefault("network.retry_base_delay", time.Second)
	viper.SetDefault("network.retry_max_delay", 30*time.Second)
	viper.SetDefault("network.retry_multiplier", 2.0)
	viper.SetDefault("network.max_form_hops", 8)
	viper.SetDefault("network.browser_fallback", false)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl", time.Hour)
	viper.SetDefault("log.level", "info")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(GetConfigDir())
	}

	// Environment variable overrides
	viper.SetEnvPrefix("D5S")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	cfg = nil
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		cfg = &Config{}
		viper.Unmarshal(cfg)
		cfg.Downloads.Path = expandPath(cfg.Downloads.Path)
	}
	return cfg
}

// Set sets a configuration value
func Set(key, value string) error {
	viper.Set(key, value)

	// Ensure config directory exists
	configDir := GetConfigDir()
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// Reset cached config
	cfg = nil

	return viper.WriteConfigAs(GetConfigPath())
}

// GetValue retrieves a configuration value
func GetValue(key string) interface{} {
	return viper.Get(key)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
