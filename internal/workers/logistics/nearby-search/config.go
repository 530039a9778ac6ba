// internal/workers/logistics/nearby-search/config.go
package nearbysearch

import "time"

type Config struct {
	Enabled         bool
	Timeout         time.Duration
	DefaultKeywords string
}

func LoadConfig() *Config {
	return &Config{
		Enabled:         true,
		Timeout:         20 * time.Second,
		DefaultKeywords: "recycling plant",
	}
}
