package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Geo      GeoConfig      `mapstructure:"geo"`
	Security SecurityConfig `mapstructure:"security"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	AdminPort   int    `mapstructure:"admin_port"`
	ProxyPort   int    `mapstructure:"proxy_port"`
	MetricsPort int    `mapstructure:"metrics_port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type GeoConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

type SecurityConfig struct {
	// FailClosed inverts the fail-open default: store errors on the hot
	// path deny the request instead of admitting it.
	FailClosed bool `mapstructure:"fail_closed"`
	// TrustProxyHeaders admits X-Real-IP and X-Forwarded-For as the
	// caller identity. Leave off unless a trusted proxy fronts the
	// server, otherwise callers can pick their own IP.
	TrustProxyHeaders bool                              `mapstructure:"trust_proxy_headers"`
	BlockTTLHours     int                               `mapstructure:"block_ttl_hours"`
	BruteForce        BruteForceConfig                  `mapstructure:"brute_force"`
	RateLimit         RateLimitConfig                   `mapstructure:"rate_limit"`
	TopN              int                               `mapstructure:"top_n"`
	VisitBuffer       int                               `mapstructure:"visit_buffer"`
	RecentAlerts      int                               `mapstructure:"recent_alerts"`
	CustomSettings    map[string]map[string]interface{} `mapstructure:"custom_settings"`
}

type BruteForceConfig struct {
	WindowMinutes int `mapstructure:"window_minutes"`
	Threshold     int `mapstructure:"threshold"`
}

type RateLimitConfig struct {
	Default   QuotaConfig            `mapstructure:"default"`
	Endpoints map[string]QuotaConfig `mapstructure:"endpoints"`
}

type QuotaConfig struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("could not load main config file: %w", err)
	}

	setDefaultValues()

	return nil
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

// setDefaultValues keeps the historical hardcoded values as fallbacks so
// deployments only override what they tune.
func setDefaultValues() {
	if globalConfig.Database.SSLMode == "" {
		globalConfig.Database.SSLMode = "disable"
	}
	if globalConfig.Security.BlockTTLHours <= 0 {
		globalConfig.Security.BlockTTLHours = 1
	}
	if globalConfig.Security.BruteForce.WindowMinutes <= 0 {
		globalConfig.Security.BruteForce.WindowMinutes = 5
	}
	if globalConfig.Security.BruteForce.Threshold <= 0 {
		globalConfig.Security.BruteForce.Threshold = 20
	}
	if globalConfig.Security.RateLimit.Default.Limit <= 0 {
		globalConfig.Security.RateLimit.Default.Limit = 100
	}
	if globalConfig.Security.RateLimit.Default.WindowSeconds <= 0 {
		globalConfig.Security.RateLimit.Default.WindowSeconds = 60
	}
	if globalConfig.Security.TopN <= 0 {
		globalConfig.Security.TopN = 10
	}
	if globalConfig.Security.VisitBuffer <= 0 {
		globalConfig.Security.VisitBuffer = 1024
	}
	if globalConfig.Security.RecentAlerts <= 0 {
		globalConfig.Security.RecentAlerts = 50
	}
}

func GetConfig() *Config {
	return &globalConfig
}
