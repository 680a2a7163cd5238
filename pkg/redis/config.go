package redis

import "time"

// Config configures the optional Redis connection. An empty ConnectionURL
// means Redis is not used.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                              // ConnectionURL looks like redis://:password@localhost:6379/0.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // RetryAttempts is the number of ping attempts on startup.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`   // RetryInterval is the wait between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"15s"` // ConnectTimeout bounds the whole connect loop.
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
