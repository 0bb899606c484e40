package cms

import (
	"log"
	"os"
	"time"
)

// Config holds all configuration for the CMS backend.
type Config struct {
	Name        string // site name for feed metadata (default "Living Water")
	URL         string // canonical URL (default "http://localhost:5000")
	Description string // site description for the RSS channel

	Addr         string // listen address (default ":5000")
	DatabasePath string // SQLite path (default "data/cms.db")
	StaticDir    string // pre-built site pages and uploads (default "public")

	AdminUsername string // bootstrap identity username (default "admin")
	AdminPassword string // required: bootstrap/reset password
	SessionSecret string // required: cookie authentication secret
	CookieSecure  bool   // set true behind HTTPS

	SessionTTL time.Duration // server-side session lifetime (default 24h)
}

func (c *Config) setDefaults() {
	if c.Name == "" {
		c.Name = "Living Water"
	}
	if c.URL == "" {
		c.URL = "http://localhost:5000"
	}
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/cms.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.AdminUsername == "" {
		c.AdminUsername = "admin"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 24 * time.Hour
	}
}

// EnvOr returns the value of the environment variable key, or fallback
// if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally
// exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("cms: required environment variable %s is not set", key)
	}
	return v
}

// Option configures additional App behavior.
type Option func(*App)

// WithAssetStore replaces the default disk-backed asset store, e.g.
// with a remote media host client.
func WithAssetStore(as AssetStore) Option {
	return func(a *App) {
		a.Assets = as
	}
}

// WithCustomRoutes registers additional routes on the Echo instance
// before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}
