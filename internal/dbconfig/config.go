package dbconfig

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds Postgres connection settings, read from DB_* environment
// variables. Both the server (database/sql + lib/pq) and the seed tools
// (pgxpool) build their connection strings from it.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// FromEnv builds a Config from DB_* environment variables, falling back
// to local-development defaults.
func FromEnv() Config {
	return Config{
		Host:            envStr("DB_HOST", "localhost"),
		Port:            envInt("DB_PORT", 5432),
		User:            envStr("DB_USER", "postgres"),
		Password:        envStr("DB_PASSWORD", "postgres"),
		Database:        envStr("DB_NAME", "mockdraft"),
		SSLMode:         envStr("DB_SSLMODE", "disable"),
		MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 16),
		ConnMaxLifetime: time.Duration(envInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,
	}
}

// URL returns the postgres:// connection URL. Credentials are escaped so
// passwords with reserved characters survive.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
