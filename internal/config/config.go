package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all server settings, read once from the environment at startup.
type Config struct {
	Addr          string `env:"VELORA_ADDR" envDefault:":8080"`
	SQLitePath    string `env:"VELORA_SQLITE_PATH" envDefault:"data/velora.db"`
	MigrationsDir string `env:"VELORA_MIGRATIONS_DIR"`
	QuestionsPath string `env:"VELORA_QUESTIONS_PATH"`

	JWTSecret string `env:"VELORA_JWT_SECRET" envDefault:"velora-dev-secret"`

	// AdminEmail/AdminPassword seed the admin user on first boot. The
	// password is hashed immediately and never stored in clear.
	AdminEmail    string `env:"VELORA_ADMIN_EMAIL"`
	AdminPassword string `env:"VELORA_ADMIN_PASSWORD"`

	StripeLiveKey string `env:"VELORA_STRIPE_LIVE_KEY"`
	StripeTestKey string `env:"VELORA_STRIPE_TEST_KEY"`

	ResendAPIKey string `env:"VELORA_RESEND_API_KEY"`
	EmailFrom    string `env:"VELORA_EMAIL_FROM" envDefault:"Velora <noreply@velora.app>"`

	PixelEndpoint    string `env:"VELORA_PIXEL_ENDPOINT"`
	PixelAccessToken string `env:"VELORA_PIXEL_ACCESS_TOKEN"`

	PricingURL string `env:"VELORA_PRICING_URL" envDefault:"/pricing"`

	StaticDir      string `env:"VELORA_STATIC_DIR"`
	DevFrontendURL string `env:"VELORA_DEV_FRONTEND_URL"`

	Commit    string `env:"VELORA_COMMIT"`
	BuildTime string `env:"VELORA_BUILD_TIME"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
