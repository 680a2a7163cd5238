package config

import "errors"

var (
	ErrParsingConfig = errors.New("failed to parse environment variables into config")
	ErrDotenv        = errors.New("failed to read dotenv file")
)
