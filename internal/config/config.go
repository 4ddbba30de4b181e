package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"

	EmailDriverLog     = "log"
	EmailDriverMailgun = "mailgun"

	minSecretLen = 32
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required for the postgres store")
	ErrMissingMongoURI    = errors.New("MONGO_URI is required for the mongo store")
	ErrShortJWTSecret     = fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLen)
	ErrMissingMailgun     = errors.New("MAILGUN_DOMAIN and MAILGUN_API_KEY are required for the mailgun driver")
	ErrBadBaseURL         = errors.New("APP_BASE_URL must be an absolute http or https URL")
	ErrLogEmailInProd     = errors.New("EMAIL_DRIVER=log writes reset links to the log and is not allowed in production")
)

// Config is built once at startup and handed to every component that needs it.
// Nothing reads the environment after Load returns.
type Config struct {
	Env       string     `yaml:"env" env:"APP_ENV" env-default:"development"`
	// BaseURL is the public origin links in emails point to. The Host
	// header of a request is never used for that.
	BaseURL   string     `yaml:"base_url" env:"APP_BASE_URL" env-default:"http://localhost:3000"`
	HTTP      HTTPServer `yaml:"http_server"`
	Store     Store      `yaml:"store"`
	Auth      Auth       `yaml:"auth"`
	Email     Email      `yaml:"email"`
	CORS      CORS       `yaml:"cors"`
	RateLimit RateLimit  `yaml:"rate_limit"`
}

type HTTPServer struct {
	Port            string        `yaml:"port" env:"PORT" env-default:"3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"120s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"HTTP_REQUEST_TIMEOUT" env-default:"8s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Store struct {
	Driver        string `yaml:"driver" env:"STORE_DRIVER" env-default:"postgres"`
	DatabaseURL   string `yaml:"database_url" env:"DATABASE_URL"`
	MongoURI      string `yaml:"mongo_uri" env:"MONGO_URI"`
	MongoDatabase string `yaml:"mongo_database" env:"MONGO_DATABASE" env-default:"natours"`
}

type Auth struct {
	JWTSecret           string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	JWTExpiresIn        time.Duration `yaml:"jwt_expires_in" env:"JWT_EXPIRES_IN" env-default:"2160h"`
	CookieExpiresInDays int           `yaml:"jwt_cookie_expires_in" env:"JWT_COOKIE_EXPIRES_IN" env-default:"90"`
	BcryptCost          int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"12"`
	ResetTokenTTL       time.Duration `yaml:"reset_token_ttl" env:"RESET_TOKEN_TTL" env-default:"10m"`
}

type Email struct {
	Driver         string `yaml:"driver" env:"EMAIL_DRIVER" env-default:"log"`
	From           string `yaml:"from" env:"EMAIL_FROM" env-default:"hello@natours.dev"`
	MailgunAPIHost string `yaml:"mailgun_api_host" env:"MAILGUN_API_HOST" env-default:"api.mailgun.net"`
	MailgunDomain  string `yaml:"mailgun_domain" env:"MAILGUN_DOMAIN"`
	MailgunAPIKey  string `yaml:"mailgun_api_key" env:"MAILGUN_API_KEY"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

type RateLimit struct {
	PerMinute int `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"10"`
	Burst     int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"5"`
}

// Load reads the configuration from the environment. When CONFIG_PATH points
// to a YAML file, that file is read first and the environment overrides it.
func Load() (Config, error) {
	var cfg Config

	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadStore reads only the store settings. It is meant for tools like the seed
// command that need a database but no secrets.
func LoadStore() (Store, error) {
	var cfg struct {
		Store Store `yaml:"store"`
	}

	var err error
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Store{}, fmt.Errorf("read store config: %w", err)
	}

	switch cfg.Store.Driver {
	case StoreDriverPostgres:
		if cfg.Store.DatabaseURL == "" {
			return Store{}, ErrMissingDatabaseURL
		}
	case StoreDriverMongo:
		if cfg.Store.MongoURI == "" {
			return Store{}, ErrMissingMongoURI
		}
	case StoreDriverMemory:
	default:
		return Store{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	return cfg.Store, nil
}

// Validate checks the values that would otherwise only fail at first use.
func (c Config) Validate() error {
	switch c.Env {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.Env)
	}

	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrBadBaseURL
	}

	if len(c.Auth.JWTSecret) < minSecretLen {
		return ErrShortJWTSecret
	}
	if c.Auth.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	if c.Auth.CookieExpiresInDays <= 0 {
		return errors.New("JWT_COOKIE_EXPIRES_IN must be positive")
	}
	if c.Auth.ResetTokenTTL <= 0 {
		return errors.New("RESET_TOKEN_TTL must be positive")
	}

	switch c.Store.Driver {
	case StoreDriverPostgres:
		if c.Store.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	case StoreDriverMongo:
		if c.Store.MongoURI == "" {
			return ErrMissingMongoURI
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	switch c.Email.Driver {
	case EmailDriverLog:
		if c.IsProduction() {
			return ErrLogEmailInProd
		}
	case EmailDriverMailgun:
		if c.Email.MailgunDomain == "" || c.Email.MailgunAPIKey == "" {
			return ErrMissingMailgun
		}
	default:
		return fmt.Errorf("unknown EMAIL_DRIVER %q", c.Email.Driver)
	}

	if c.RateLimit.PerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// CookieTTL is the lifetime of the jwt cookie.
func (a Auth) CookieTTL() time.Duration {
	return time.Duration(a.CookieExpiresInDays) * 24 * time.Hour
}

func (h HTTPServer) Addr() string {
	return "0.0.0.0:" + h.Port
}
