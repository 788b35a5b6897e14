package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/looksia/looksledger/internal/logger"
)

const (
	defaultListenAddr    = "localhost:8000"
	defaultLoggingLevel  = logger.LevelInfo
	defaultScorerAddr    = "localhost:3000"
	defaultScorerTimeout = 30 * time.Second
	defaultEnvironment   = logger.EnvProduction
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the ledger service will be run
	ListenAddr string

	// Scoring service address to connect to
	ScorerAddr string

	// API key passed to the scoring service
	ScorerAPIKey string

	// How long a single scoring call may run
	ScorerTimeout time.Duration

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Some internal parts (like signing JWT tokens) uses symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:      defaultLoggingLevel,
		ListenAddr:    defaultListenAddr,
		ScorerAddr:    defaultScorerAddr,
		ScorerTimeout: defaultScorerTimeout,
		Environment:   defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			if d, err := time.ParseDuration(value); err == nil {
				*o = d
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"SECRET_KEY":             setString(&c.SecretKey),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"SCORER_SYSTEM_ADDRESS":  setString(&c.ScorerAddr),
		"SCORER_API_KEY":         setString(&c.ScorerAPIKey),
		"SCORER_REQUEST_TIMEOUT": setDuration(&c.ScorerTimeout),
		"ENVIRONMENT":            setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("looksledger", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.ScorerAddr, "scorer", "r", c.ScorerAddr, "Scoring service address")
	fs.StringVar(&c.ScorerAPIKey, "scorer-api-key", c.ScorerAPIKey, "Scoring service API key")
	fs.DurationVar(&c.ScorerTimeout, "scorer-timeout", c.ScorerTimeout, "Scoring request timeout")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (development, production)")

	return fs.Parse(args)
}
