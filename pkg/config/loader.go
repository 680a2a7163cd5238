// Package config loads environment-tagged structs, optionally seeded from
// dotenv files.
package config

import (
	"errors"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Load reads the given dotenv files (default ".env") into the process
// environment without overriding variables that are already set, then
// parses T from the environment. Missing dotenv files are ignored.
func Load[T any](files ...string) (T, error) {
	var zero T
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zero, errors.Join(ErrDotenv, err)
		}
	}

	cfg, err := env.ParseAs[T]()
	if err != nil {
		return zero, errors.Join(ErrParsingConfig, err)
	}
	return cfg, nil
}

// MustLoad is Load for main packages: it panics on error.
func MustLoad[T any](files ...string) T {
	cfg, err := Load[T](files...)
	if err != nil {
		panic(err)
	}
	return cfg
}
