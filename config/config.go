package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// RBACModel is the casbin model used for role policies.
//
//go:embed rbac_model.conf
var RBACModel string

var loadOnce sync.Once

// LoadDotEnv loads .env.local and .env if present. godotenv never
// overwrites variables that are already set, so the process environment
// wins over both files and .env.local wins over .env.
func LoadDotEnv() []string {
	var loaded []string
	loadOnce.Do(func() {
		for _, f := range []string{".env.local", ".env"} {
			if _, err := os.Stat(f); err == nil {
				loaded = append(loaded, f)
			}
		}
		if len(loaded) > 0 {
			_ = godotenv.Load(loaded...)
		}
	})
	return loaded
}

// Config returns the value of an environment key.
func Config(key string) string {
	LoadDotEnv()
	return strings.TrimSpace(os.Getenv(key))
}

// Default returns the value of key, or fallback when it is unset or empty.
func Default(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

func Int(key string, fallback int) int {
	if v, err := strconv.Atoi(Config(key)); err == nil {
		return v
	}
	return fallback
}

func Bool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(Config(key)); err == nil {
		return v
	}
	return fallback
}

// Duration accepts Go duration strings ("30s") or a bare number of seconds.
func Duration(key string, fallback time.Duration) time.Duration {
	v := Config(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

// List splits a comma separated value, dropping empty items.
func List(key string) []string {
	var out []string
	for _, item := range strings.Split(Config(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
