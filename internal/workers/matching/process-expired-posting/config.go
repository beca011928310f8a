// internal/workers/matching/process-expired-posting/config.go
package processexpiredposting

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Minute,
	}
}
