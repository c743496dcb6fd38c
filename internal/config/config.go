package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	StoreMongo = "mongo"
	StoreMySQL = "mysql"
)

// Config holds all settings of the contacts API. Values are taken from the environment.
type Config struct {
	Port            int           `env:"PORT"             envDefault:"3000"`
	Store           string        `env:"STORE"            envDefault:"mongo"`
	LogMode         string        `env:"LOG_MODE"         envDefault:"development"`
	GinLogging      string        `env:"GIN_LOGGING"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	Mongo           Mongo         `envPrefix:"MONGODB_"`
	MySQL           MySQL
}

// Mongo configures the document store.
type Mongo struct {
	URI      string `env:"URI"`
	Database string `env:"DATABASE" envDefault:"contacts"`
}

// MySQL configures the relational store.
type MySQL struct {
	User     string `env:"DBUSER"`
	Password string `env:"DBPWD"`
	Host     string `env:"DBHOST" envDefault:"localhost:3306"`
	Name     string `env:"DBNAME" envDefault:"test"`
}

// DSN returns the connection string for the MySQL driver. Found rows rather than changed rows are
// reported so that an update with unchanged values still counts as a match.
func (m MySQL) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&clientFoundRows=true",
		m.User, m.Password, m.Host, m.Name)
}

// Load reads a .env file if there is one and then parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the configuration from the environment and validates it.
func Parse() (*Config, error) {
	conf, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(c.Store)
	switch c.Store {
	case StoreMongo:
		if c.Mongo.URI == "" {
			return errors.New("MONGODB_URI must be set")
		}
	case StoreMySQL:
		if c.MySQL.User == "" {
			return errors.New("DBUSER must be set")
		}
	default:
		return errors.Errorf("unknown STORE %q, expected %q or %q", c.Store, StoreMongo, StoreMySQL)
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

// GinLoggingEnabled reports whether gin's request logger should be installed.
func (c *Config) GinLoggingEnabled() bool {
	return !strings.EqualFold(c.GinLogging, "off")
}

// Address is the listen address of the HTTP server.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}
