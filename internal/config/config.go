// Package config reads the blog's settings from the environment.
//
// Values come from process environment variables. A .env file in the
// working directory, when present, fills in variables that are not already
// set (real environment wins).
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/blog/internal/auth"
)

const minSecretLength = 16

// Config holds every runtime setting.
type Config struct {
	Port          int
	DBPath        string
	SecretKey     string
	SessionTTL    time.Duration
	BcryptCost    int
	SecureCookies bool
	LogLevel      slog.Level

	// GeneratedSecret is true when SECRET_KEY was unset and a random
	// per-process key was generated instead. Sessions then do not survive
	// a restart.
	GeneratedSecret bool
}

// Load reads .env (if any) and the environment, applies defaults and
// validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, which has the signature of
// os.LookupEnv. Tests pass a map-backed lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		DBPath:    get("DB_PATH", "data/blog.db"),
		SecretKey: get("SECRET_KEY", ""),
	}

	var err error
	if cfg.Port, err = strconv.Atoi(get("PORT", "8080")); err != nil || cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: PORT must be a TCP port number, got %q", get("PORT", ""))
	}

	if cfg.SessionTTL, err = time.ParseDuration(get("SESSION_TTL", "24h")); err != nil || cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("config: SESSION_TTL must be a positive duration, got %q", get("SESSION_TTL", ""))
	}

	if cfg.BcryptCost, err = strconv.Atoi(get("BCRYPT_COST", strconv.Itoa(auth.DefaultCost))); err != nil {
		return Config{}, fmt.Errorf("config: BCRYPT_COST must be an integer, got %q", get("BCRYPT_COST", ""))
	}
	cfg.BcryptCost = min(max(cfg.BcryptCost, bcrypt.MinCost), bcrypt.MaxCost)

	if cfg.SecureCookies, err = strconv.ParseBool(get("SECURE_COOKIES", "false")); err != nil {
		return Config{}, fmt.Errorf("config: SECURE_COOKIES must be a boolean, got %q", get("SECURE_COOKIES", ""))
	}

	if cfg.LogLevel, err = parseLevel(get("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}

	switch {
	case cfg.SecretKey == "":
		if cfg.SecretKey, err = randomSecret(); err != nil {
			return Config{}, err
		}
		cfg.GeneratedSecret = true
	case len(cfg.SecretKey) < minSecretLength:
		return Config{}, fmt.Errorf("config: SECRET_KEY must be at least %d characters", minSecretLength)
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL must be debug, info, warn or error, got %q", s)
	}
	return level, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("config: generating secret key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
