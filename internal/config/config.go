// Package config assembles the application configuration from the
// per-package Config structs.
package config

import (
	"errors"
	"time"

	envconfig "github.com/dmitrymomot/clinickit/pkg/config"
	"github.com/dmitrymomot/clinickit/pkg/httpserver"
	"github.com/dmitrymomot/clinickit/pkg/jwt"
	"github.com/dmitrymomot/clinickit/pkg/logger"
	"github.com/dmitrymomot/clinickit/pkg/pg"
	"github.com/dmitrymomot/clinickit/pkg/redis"
	"github.com/dmitrymomot/clinickit/pkg/tenant"
)

var ErrInvalidTimezone = errors.New("config: invalid timezone")

// App is the full server configuration.
type App struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"clinickit"`
	Timezone    string `env:"APP_TIMEZONE" envDefault:"UTC"` // Timezone defines the business day for ticket numbering and expiry.

	DB     pg.Config
	Redis  redis.Config
	HTTP   httpserver.Config
	Tenant tenant.Config
	Log    logger.Config
	JWT    jwt.Config
	Jobs   Jobs
	DBCtx  DBCtx
}

// Jobs configures the background runners.
type Jobs struct {
	Enabled      bool `env:"JOBS_ENABLED" envDefault:"true"`
	ExpireHour   int  `env:"JOBS_EXPIRE_HOUR" envDefault:"0"`
	ExpireMinute int  `env:"JOBS_EXPIRE_MINUTE" envDefault:"5"`
}

// DBCtx configures the request transaction layer.
type DBCtx struct {
	TenantSetting  string        `env:"DB_TENANT_SETTING" envDefault:"app.current_tenant_id"`
	CleanupTimeout time.Duration `env:"DB_CLEANUP_TIMEOUT" envDefault:"5s"`
}

// Location parses Timezone.
func (a App) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, errors.Join(ErrInvalidTimezone, err)
	}
	return loc, nil
}

// Load reads the configuration from the environment and the given dotenv
// files.
func Load(files ...string) (App, error) {
	return envconfig.Load[App](files...)
}
