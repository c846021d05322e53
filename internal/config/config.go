package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/artxchange/artx-api/internal/domain"
)

const envPrefix = "ARTX"

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	SQLite    *SQLiteConfig    `mapstructure:"sqlite"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	NATS      *NATSConfig      `mapstructure:"nats"`
	Stripe    *StripeConfig    `mapstructure:"stripe"`
	Engine    *EngineConfig    `mapstructure:"engine"`
	RateLimit *RateLimitConfig `mapstructure:"rate_limit"`
	Policy    domain.Policy    `mapstructure:"policy"`

	v *viper.Viper
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	Port               string   `mapstructure:"port"`
	BaseURL            string   `mapstructure:"base_url"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	// Storage is "postgres", "sqlite" or "memory".
	Storage string `mapstructure:"storage"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// An empty URL in RedisConfig or NATSConfig selects the in-process
// implementation.

type RedisConfig struct {
	URL     string        `mapstructure:"url"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type StripeConfig struct {
	SecretKey string `mapstructure:"secret_key"`
}

type EngineConfig struct {
	ExternalTimeout       time.Duration `mapstructure:"external_timeout"`
	VoteCacheSize         int           `mapstructure:"vote_cache_size"`
	SimulatedPaymentDelay time.Duration `mapstructure:"simulated_payment_delay"`
}

type RateLimitConfig struct {
	Window time.Duration `mapstructure:"window"`
	Limit  int64         `mapstructure:"limit"`
	// MaxClients bounds how many client IPs are tracked at once.
	MaxClients int `mapstructure:"max_clients"`
}

// Load reads the YAML file at path. ARTX_* environment variables override
// file values, e.g. ARTX_API_PORT for api.port.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{v: v}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	if err := conf.Policy.Resolve(); err != nil {
		return nil, fmt.Errorf("conf.Policy.Resolve -> %w", err)
	}

	return conf, nil
}

// WatchPolicy calls fn with the new policy whenever the config file changes.
// A file that no longer parses keeps the previous policy in force.
func (c *AppConfig) WatchPolicy(fn func(domain.Policy)) {
	if c.v == nil {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(c.v)
		if err != nil {
			zap.L().Error("ignoring invalid config change", zap.String("file", e.Name), zap.Error(err))
			return
		}
		zap.L().Info("policy reloaded", zap.String("file", e.Name))
		fn(next.Policy)
	})
	c.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	p := domain.DefaultPolicy()

	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.jwt_signing_key", "")
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:3000"})
	v.SetDefault("api.storage", "postgres")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "artx")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "artx")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("sqlite.path", "artx.db")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.lock_ttl", 30*time.Second)
	v.SetDefault("nats.url", "")
	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("engine.external_timeout", 10*time.Second)
	v.SetDefault("engine.vote_cache_size", 100_000)
	v.SetDefault("engine.simulated_payment_delay", 1500*time.Millisecond)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.limit", 120)
	v.SetDefault("rate_limit.max_clients", 10000)

	v.SetDefault("policy.max_monthly_submissions", p.MaxMonthlySubmissions)
	v.SetDefault("policy.max_monthly_events", p.MaxMonthlyEvents)
	v.SetDefault("policy.max_daily_votes", p.MaxDailyVotes)
	v.SetDefault("policy.max_daily_donations", p.MaxDailyDonations)
	v.SetDefault("policy.vote_fee_cents", int64(p.VoteFeeCents))
	v.SetDefault("policy.min_donation_cents", int64(p.MinDonationCents))
	v.SetDefault("policy.max_donation_cents", int64(p.MaxDonationCents))
	v.SetDefault("policy.donation_tax_percent", p.DonationTaxPercent)
	v.SetDefault("policy.donation_message_max", p.DonationMessageMax)
	v.SetDefault("policy.appeal_window", p.AppealWindow)
	v.SetDefault("policy.max_appeal_attachments", p.MaxAppealAttachments)
	v.SetDefault("policy.max_attachment_bytes", p.MaxAttachmentBytes)
	v.SetDefault("policy.registration_fee_cents", int64(p.RegistrationFeeCents))
	v.SetDefault("policy.max_tickets_per_registration", p.MaxTicketsPerRegistration)
	v.SetDefault("policy.timezone", p.Timezone)
	v.SetDefault("policy.appeal_content_types", p.AppealContentTypes)
	v.SetDefault("policy.vote_methods", methodStrings(p.VoteMethods))
	v.SetDefault("policy.donation_methods", methodStrings(p.DonationMethods))
	v.SetDefault("policy.signup_methods", methodStrings(p.SignupMethods))
	v.SetDefault("policy.ticket_methods", methodStrings(p.TicketMethods))
}

func methodStrings(methods []domain.PaymentMethod) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}
