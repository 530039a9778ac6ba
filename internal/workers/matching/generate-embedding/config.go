// internal/workers/matching/generate-embedding/config.go
package generateembedding

import "time"

type Config struct {
	Enabled bool
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 30 * time.Second,
	}
}
