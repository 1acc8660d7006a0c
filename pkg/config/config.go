package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by the backend.
const EnvPrefix = "KAISHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Store         StoreConfig
	Checkout      CheckoutConfig
	Realtime      RealtimeConfig
	CORS          CORSConfig
	Redis         RedisConfig
	AuthRateLimit AuthRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"KAISHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"KAISHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KAISHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KAISHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type JWTConfig struct {
	Secret            string `envconfig:"KAISHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"KAISHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"KAISHOP_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KAISHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KAISHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KAISHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KAISHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KAISHOP_ARGON_KEY_LEN" default:"32"`
}

// StoreConfig locates the whole-document JSON collections on disk.
type StoreConfig struct {
	DataDir string `envconfig:"KAISHOP_STORE_DATA_DIR" default:"data"`
}

// CheckoutConfig carries the promotional rule and the post-checkout redirect.
type CheckoutConfig struct {
	MegaDealItemID string `envconfig:"KAISHOP_CHECKOUT_MEGA_DEAL_ITEM_ID" default:"100b-mega-deal"`
	RedirectURL    string `envconfig:"KAISHOP_CHECKOUT_REDIRECT_URL" default:"https://www.facebook.com/ryoevisu"`
}

// RealtimeConfig tunes the websocket hub.
type RealtimeConfig struct {
	SendBufferSize  int           `envconfig:"KAISHOP_REALTIME_SEND_BUFFER" default:"32"`
	MaxMessageBytes int64         `envconfig:"KAISHOP_REALTIME_MAX_MESSAGE_BYTES" default:"4096"`
	WriteTimeout    time.Duration `envconfig:"KAISHOP_REALTIME_WRITE_TIMEOUT" default:"10s"`
	PongTimeout     time.Duration `envconfig:"KAISHOP_REALTIME_PONG_TIMEOUT" default:"60s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"KAISHOP_CORS_ORIGINS" default:"*"`
}

// RedisConfig is optional; an empty URL disables auth rate limiting.
type RedisConfig struct {
	URL          string        `envconfig:"KAISHOP_REDIS_URL"`
	DialTimeout  time.Duration `envconfig:"KAISHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KAISHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KAISHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"KAISHOP_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"KAISHOP_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"KAISHOP_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"KAISHOP_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"KAISHOP_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"KAISHOP_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}
