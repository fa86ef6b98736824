// Package config resolves runtime settings from flags, environment variables
// and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"

	"taskgrid/internal/util"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Config holds everything main needs to wire the service.
type Config struct {
	Addr        string
	Store       string
	DBPath      string
	MongoURI    string
	MongoDB     string
	StaticDir   string
	JWTSecret   string
	TokenTTL    time.Duration
	CORSOrigins []string
	LogLevel    string
	LogFile     string
	SeedFile    string
}

// LoadDotEnv reads variables from the given files into the environment.
// Variables already set win; missing files are not an error.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load parses args (without the program name) on top of environment defaults.
func Load(args []string) (Config, error) {
	var (
		cfg     Config
		origins string
	)

	fset := flag.NewFlagSet("taskgrid", flag.ContinueOnError)
	fset.StringVar(&cfg.Addr, "addr", util.EnvOrDefault("TASKGRID_ADDR", ":5000"), "HTTP listen address")
	fset.StringVar(&cfg.Store, "store", util.EnvOrDefault("TASKGRID_STORE", StoreSQLite), "Storage backend: sqlite or mongo")
	fset.StringVar(&cfg.DBPath, "db", util.EnvOrDefault("TASKGRID_DB_PATH", "data/taskgrid.db"), "Path to sqlite database file")
	fset.StringVar(&cfg.MongoURI, "mongo-uri", util.EnvOrDefault("TASKGRID_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection string")
	fset.StringVar(&cfg.MongoDB, "mongo-db", util.EnvOrDefault("TASKGRID_MONGO_DB", "taskgrid"), "MongoDB database name")
	fset.StringVar(&cfg.StaticDir, "static", util.EnvOrDefault("TASKGRID_STATIC_DIR", "web/dist"), "Directory with built frontend")
	fset.StringVar(&cfg.JWTSecret, "jwt-secret", util.EnvOrDefault("TASKGRID_JWT_SECRET", ""), "Secret used to sign login tokens")
	fset.DurationVar(&cfg.TokenTTL, "token-ttl", util.EnvDurationOrDefault("TASKGRID_TOKEN_TTL", 12*time.Hour), "Lifetime of login tokens")
	fset.StringVar(&origins, "cors-origins", util.EnvOrDefault("TASKGRID_CORS_ORIGINS", "*"), "Comma separated allowed CORS origins")
	fset.StringVar(&cfg.LogLevel, "log-level", util.EnvOrDefault("TASKGRID_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	fset.StringVar(&cfg.LogFile, "log-file", util.EnvOrDefault("TASKGRID_LOG_FILE", ""), "Optional rotating log file")
	fset.StringVar(&cfg.SeedFile, "seed", util.EnvOrDefault("TASKGRID_SEED_FILE", ""), "YAML fixtures applied to an empty store")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	cfg.CORSOrigins = util.SplitList(origins)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			return errors.New("sqlite store needs a database path")
		}
	case StoreMongo:
		if c.MongoURI == "" || c.MongoDB == "" {
			return errors.New("mongo store needs a URI and a database name")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required (TASKGRID_JWT_SECRET)")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	return nil
}
