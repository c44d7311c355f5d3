package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"

	"github.com/jayawardhanm/jay-claimsub-ai/internal/domain/claims"
)

type Config struct {
	Port      string `mapstructure:"PORT"`
	Env       string `mapstructure:"ENV"`
	AuthMode  string `mapstructure:"AUTH_MODE"`
	APIKey    string `mapstructure:"API_KEY"`
	JWTSecret string `mapstructure:"JWT_SECRET"`

	StoreBackend  string `mapstructure:"STORE_BACKEND"`
	BackendURL    string `mapstructure:"BACKEND_URL"`
	BackendAPIKey string `mapstructure:"BACKEND_API_KEY"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DBMaxConns    int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns    int32  `mapstructure:"DB_MIN_CONNS"`

	ScorerStrategy         string `mapstructure:"SCORER_STRATEGY"`
	AdvisoryURL            string `mapstructure:"ADVISORY_URL"`
	AdvisoryTimeoutSeconds int    `mapstructure:"ADVISORY_TIMEOUT_SECONDS"`

	RiskLow              float64  `mapstructure:"RISK_LOW"`
	RiskMedium           float64  `mapstructure:"RISK_MEDIUM"`
	RiskHigh             float64  `mapstructure:"RISK_HIGH"`
	AutoApproveThreshold float64  `mapstructure:"AUTO_APPROVE_THRESHOLD"`
	AutoDenyThreshold    float64  `mapstructure:"AUTO_DENY_THRESHOLD"`
	AutoApproveAmount    float64  `mapstructure:"AUTO_APPROVE_AMOUNT"`
	FraudLocations       []string `mapstructure:"FRAUD_LOCATIONS"`

	ProcessConcurrency    int     `mapstructure:"PROCESS_CONCURRENCY"`
	RateLimitRPS          float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst        int     `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeoutSeconds int     `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // auto-detect: "" -> inferred from ENV
	v.SetDefault("STORE_BACKEND", "postgres")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("SCORER_STRATEGY", "rule")
	v.SetDefault("ADVISORY_TIMEOUT_SECONDS", 30)
	v.SetDefault("RISK_LOW", 0.3)
	v.SetDefault("RISK_MEDIUM", 0.7)
	v.SetDefault("RISK_HIGH", 1.0)
	v.SetDefault("AUTO_APPROVE_THRESHOLD", 0.3)
	v.SetDefault("AUTO_DENY_THRESHOLD", 0.8)
	v.SetDefault("AUTO_APPROVE_AMOUNT", 5000)
	v.SetDefault("FRAUD_LOCATIONS", "fraud_city,unknown")
	v.SetDefault("PROCESS_CONCURRENCY", 4)
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 60)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "AUTH_MODE", "API_KEY", "JWT_SECRET",
		"STORE_BACKEND", "BACKEND_URL", "BACKEND_API_KEY",
		"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"SCORER_STRATEGY", "ADVISORY_URL", "ADVISORY_TIMEOUT_SECONDS",
		"RISK_LOW", "RISK_MEDIUM", "RISK_HIGH",
		"AUTO_APPROVE_THRESHOLD", "AUTO_DENY_THRESHOLD", "AUTO_APPROVE_AMOUNT",
		"FRAUD_LOCATIONS", "PROCESS_CONCURRENCY",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT_SECONDS",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.FraudLocations == nil {
		locations := v.GetString("FRAUD_LOCATIONS")
		if locations != "" {
			cfg.FraudLocations = strings.Split(locations, ",")
		}
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Dev auth is active — all requests are accepted.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure API_KEY or JWT_SECRET.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise, the mode is inferred:
//   - ENV=development → "development" (no auth, all requests accepted)
//   - JWT_SECRET set  → "jwt" (HS256 bearer tokens)
//   - Otherwise       → "apikey" (shared key in the X-API-Key header)
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	if c.JWTSecret != "" {
		return "jwt"
	}
	return "apikey"
}

// Thresholds returns the decision thresholds assembled from configuration.
func (c *Config) Thresholds() claims.Thresholds {
	return claims.Thresholds{
		RiskLow:           c.RiskLow,
		RiskMedium:        c.RiskMedium,
		RiskHigh:          c.RiskHigh,
		AutoApprove:       c.AutoApproveThreshold,
		AutoDeny:          c.AutoDenyThreshold,
		AutoApproveAmount: c.AutoApproveAmount,
		FraudLocations:    c.FraudLocations,
	}
}

// Validate checks that the configuration is safe to run. The selected store
// and scorer must have their endpoints configured, non-development auth modes
// need their credentials, and the decision thresholds must describe a
// coherent score scale.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is \"postgres\"")
		}
	case "backend":
		if c.BackendURL == "" {
			return fmt.Errorf("BACKEND_URL is required when STORE_BACKEND is \"backend\"")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be \"postgres\" or \"backend\", got %q", c.StoreBackend)
	}

	switch c.ScorerStrategy {
	case "rule":
	case "advisory":
		if c.AdvisoryURL == "" {
			return fmt.Errorf("ADVISORY_URL is required when SCORER_STRATEGY is \"advisory\"")
		}
	default:
		return fmt.Errorf("SCORER_STRATEGY must be \"rule\" or \"advisory\", got %q", c.ScorerStrategy)
	}

	switch mode := c.ResolvedAuthMode(); mode {
	case "development":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE \"development\" is not allowed when ENV is \"production\"")
		}
	case "apikey":
		if c.APIKey == "" {
			return fmt.Errorf("API_KEY is required when AUTH_MODE is \"apikey\"")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is \"jwt\"")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"development\", \"apikey\", or \"jwt\", got %q", mode)
	}

	if c.RiskLow < 0 || c.RiskLow > c.RiskMedium || c.RiskMedium > c.RiskHigh {
		return fmt.Errorf("risk thresholds must satisfy 0 <= RISK_LOW <= RISK_MEDIUM <= RISK_HIGH")
	}
	if c.AutoApproveThreshold > c.AutoDenyThreshold {
		return fmt.Errorf("AUTO_APPROVE_THRESHOLD must not exceed AUTO_DENY_THRESHOLD")
	}
	if c.AutoApproveAmount < 0 {
		return fmt.Errorf("AUTO_APPROVE_AMOUNT must not be negative")
	}
	if c.ProcessConcurrency < 1 {
		return fmt.Errorf("PROCESS_CONCURRENCY must be at least 1")
	}

	return nil
}
