// internal/workers/notification/match-alert/config.go
package matchalert

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		EmailEnabled: true,
		SMSEnabled:   true,
		FromEmail:    "alerts@wastematch.io",
		AWSRegion:    "ap-south-1",
		Timeout:      30 * time.Second,
	}
}
