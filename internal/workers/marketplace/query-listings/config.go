// internal/workers/marketplace/query-listings/config.go
package querylistings

import "time"

type Config struct {
	Enabled  bool
	Timeout  time.Duration
	CacheTTL time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 15 * time.Second,
		// Listings change slowly; five minutes keeps the marketplace
		// page cheap without serving stale inventory for long.
		CacheTTL: 5 * time.Minute,
	}
}
