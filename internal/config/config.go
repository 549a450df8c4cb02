package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

const minSecretLength = 32

// Config holds the runtime configuration of the account service.
type Config struct {
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"account-service"`
	HTTPAddr    string `env:"HTTP_ADDR"    envDefault:":8080"`

	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"account_api"`

	// JWTSecret is the process-wide signing secret. Its absence is a fatal
	// startup condition.
	JWTSecret   string        `env:"JWT_SECRET"`
	TokenIssuer string        `env:"TOKEN_ISSUER"  envDefault:"account-api"`
	SessionTTL  time.Duration `env:"SESSION_TOKEN_TTL"   envDefault:"24h"`
	EphemeralTTL time.Duration `env:"EPHEMERAL_TOKEN_TTL" envDefault:"1h"`
	CookieMaxAge time.Duration `env:"COOKIE_MAX_AGE"      envDefault:"168h"`

	HashTimeCost      uint32 `env:"HASH_TIME_COST"      envDefault:"3"`
	HashMemoryCost    uint32 `env:"HASH_MEMORY_COST"    envDefault:"65536"`
	HashParallelism   uint8  `env:"HASH_PARALLELISM"    envDefault:"4"`
	HashMaxConcurrent int64  `env:"HASH_MAX_CONCURRENT" envDefault:"0"`

	ConsulAddr string `env:"CONSUL_ADDR"`
}

// Parse reads the configuration from environment variables.
func Parse() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load parses the environment and terminates the process on failure.
func Load(logger *zerolog.Logger) Config {
	cfg, err := Parse()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	return cfg
}

// Production reports whether the service runs with production hardening,
// which controls the Secure attribute on the session cookie.
func (c Config) Production() bool {
	return c.Environment == "production"
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("missing JWT_SECRET environment variable")
	}
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TOKEN_TTL must be positive")
	}
	if c.EphemeralTTL <= 0 {
		return fmt.Errorf("EPHEMERAL_TOKEN_TTL must be positive")
	}
	if c.CookieMaxAge < 24*time.Hour {
		return fmt.Errorf("COOKIE_MAX_AGE must be at least 24h")
	}

	return nil
}
