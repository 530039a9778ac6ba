// internal/workers/matching/llm-match-scoring/config.go
package llmmatchscoring

import "time"

type Config struct {
	Enabled bool
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Enabled: true,
		// LLM calls are slow; give the model room before the job deadline.
		Timeout: 90 * time.Second,
	}
}
