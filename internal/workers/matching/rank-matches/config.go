// internal/workers/matching/rank-matches/config.go
package rankmatches

import "time"

type Config struct {
	Enabled    bool
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Enabled:    true,
		Timeout:    60 * time.Second,
		MaxResults: 10,
	}
}
