package main

import (
	"github.com/caarlos0/env/v11"
)

// Config holds all environment configuration. Values come from the process
// environment; a local .env file is loaded first via godotenv autoload.
type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"folio.db"`

	// InternalSecret guards the /internal content write endpoints.
	// WebhookSecret signs source-control webhook payloads.
	// An empty secret never matches, so the endpoints stay locked
	// until configured.
	InternalSecret string `env:"INTERNAL_SECRET"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`

	// PrimaryBranch is the only branch whose pushes trigger a
	// "last published" update.
	PrimaryBranch string `env:"PRIMARY_BRANCH" envDefault:"main"`

	// SeedContent populates about/projects with the built-in site copy
	// on first run. Off by default so a fresh store stays empty.
	SeedContent bool `env:"SEED_CONTENT" envDefault:"false"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	ToEmail  string `env:"TO_EMAIL"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
}

var cfg Config

func loadConfig() error {
	return env.Parse(&cfg)
}
