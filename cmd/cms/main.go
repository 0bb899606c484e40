package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/livingwater/cms"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := cms.Config{
		Name:        cms.EnvOr("SITE_NAME", "Living Water"),
		URL:         cms.EnvOr("SITE_URL", "http://localhost:5000"),
		Description: cms.EnvOr("SITE_DESCRIPTION", ""),

		Addr:         cms.EnvOr("ADDR", ":5000"),
		DatabasePath: cms.EnvOr("DATABASE_PATH", "data/cms.db"),
		StaticDir:    cms.EnvOr("STATIC_DIR", "public"),

		AdminUsername: cms.EnvOr("ADMIN_USERNAME", "admin"),
		AdminPassword: cms.EnvOr("ADMIN_PASSWORD", "admin123"),
		SessionSecret: cms.MustEnv("SESSION_SECRET"),
		CookieSecure:  cms.EnvOr("COOKIE_SECURE", "") == "true",
	}

	app := cms.New(cfg)
	defer app.Close()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
