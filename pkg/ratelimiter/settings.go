package ratelimiter

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ConfigFromSettings decodes a raw settings map, as loaded from
// configuration or an admin update, into a validated Config.
func ConfigFromSettings(settings map[string]interface{}) (Config, error) {
	var cfg Config
	if err := mapstructure.Decode(settings, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode rate limit settings: %w", err)
	}

	if cfg.Default.Limit < 0 || cfg.Default.WindowSeconds < 0 {
		return Config{}, fmt.Errorf("default quota must be positive")
	}
	for endpoint, quota := range cfg.Endpoints {
		if quota.Limit <= 0 {
			return Config{}, fmt.Errorf("quota for %s requires a positive limit", endpoint)
		}
		if quota.WindowSeconds <= 0 {
			return Config{}, fmt.Errorf("quota for %s requires a positive window", endpoint)
		}
	}

	return cfg, nil
}
