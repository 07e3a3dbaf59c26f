// README: Config loader reading JEEP_* environment variables through viper.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"jeepney/internal/modules/pricing"
	"jeepney/internal/types"
)

const envPrefix = "JEEP"

const (
	RoutingORS    = "ors"
	RoutingGoogle = "google"

	AuthFirebase = "firebase"
	AuthJWT      = "jwt"

	RegistryMemory   = "memory"
	RegistryRedis    = "redis"
	RegistryFirebase = "firebase"
)

type RoutingConfig struct {
	Provider         string
	ORSAPIKey        string
	ORSBaseURL       string
	ORSProfile       string
	GoogleMapsAPIKey string
	Timeout          time.Duration
}

type FirebaseConfig struct {
	CredentialsFile string
	ProjectID       string
	DatabaseURL     string
}

// FareConfig selects a preset and optionally overrides single tier fields.
type FareConfig struct {
	Preset    string
	BaseFare  *float64
	BaseKm    *float64
	PerKmRate *float64
}

type ETAConfig struct {
	RadiusKm float64
	MaxJeeps int
}

type Config struct {
	HTTP struct {
		Addr string
	}
	AppEnv   string
	LogLevel string
	Routing  RoutingConfig
	Auth     struct {
		Provider  string
		JWTSecret string
	}
	Firebase FirebaseConfig
	Registry struct {
		Backend   string
		RedisAddr string
	}
	DB struct {
		DSN string
	}
	Fare FareConfig
	AMQP struct {
		URL      string
		Exchange string
	}
	ETA ETAConfig
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8000")
	v.SetDefault("app_env", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("routing.provider", RoutingORS)
	v.SetDefault("ors.base_url", "https://api.openrouteservice.org")
	v.SetDefault("ors.profile", "driving-car")
	v.SetDefault("routing.timeout", "10s")
	v.SetDefault("auth.provider", AuthFirebase)
	v.SetDefault("registry.backend", RegistryMemory)
	v.SetDefault("fare.preset", pricing.DefaultPreset)
	v.SetDefault("amqp.exchange", "jeep.events")
	v.SetDefault("eta.radius_km", "5")
	v.SetDefault("eta.max_jeeps", "10")
	return v
}

// Load reads configuration from the environment and validates it. Every
// failure wraps types.ErrConfiguration.
func Load() (Config, error) {
	v := newViper()

	var cfg Config
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.AppEnv = strings.ToLower(v.GetString("app_env"))
	cfg.LogLevel = v.GetString("log_level")

	cfg.Routing.Provider = strings.ToLower(v.GetString("routing.provider"))
	cfg.Routing.ORSAPIKey = v.GetString("ors.api_key")
	cfg.Routing.ORSBaseURL = v.GetString("ors.base_url")
	cfg.Routing.ORSProfile = v.GetString("ors.profile")
	cfg.Routing.GoogleMapsAPIKey = v.GetString("google_maps.api_key")
	timeout, err := time.ParseDuration(v.GetString("routing.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: JEEP_ROUTING_TIMEOUT: %v", types.ErrConfiguration, err)
	}
	cfg.Routing.Timeout = timeout

	cfg.Auth.Provider = strings.ToLower(v.GetString("auth.provider"))
	cfg.Auth.JWTSecret = v.GetString("jwt.secret")
	cfg.Firebase.CredentialsFile = v.GetString("firebase.credentials_file")
	cfg.Firebase.ProjectID = v.GetString("firebase.project_id")
	cfg.Firebase.DatabaseURL = v.GetString("firebase.database_url")

	cfg.Registry.Backend = strings.ToLower(v.GetString("registry.backend"))
	cfg.Registry.RedisAddr = v.GetString("redis.addr")
	cfg.DB.DSN = v.GetString("db.dsn")

	cfg.Fare.Preset = v.GetString("fare.preset")
	overrides := []struct {
		key string
		dst **float64
	}{
		{"fare.base_fare", &cfg.Fare.BaseFare},
		{"fare.base_km", &cfg.Fare.BaseKm},
		{"fare.per_km_rate", &cfg.Fare.PerKmRate},
	}
	for _, o := range overrides {
		raw := strings.TrimSpace(v.GetString(o.key))
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", types.ErrConfiguration, envName(o.key), err)
		}
		*o.dst = &f
	}

	cfg.AMQP.URL = v.GetString("amqp.url")
	cfg.AMQP.Exchange = v.GetString("amqp.exchange")

	radius, err := strconv.ParseFloat(strings.TrimSpace(v.GetString("eta.radius_km")), 64)
	if err != nil {
		return Config{}, fmt.Errorf("%w: JEEP_ETA_RADIUS_KM: %v", types.ErrConfiguration, err)
	}
	maxJeeps, err := strconv.Atoi(strings.TrimSpace(v.GetString("eta.max_jeeps")))
	if err != nil {
		return Config{}, fmt.Errorf("%w: JEEP_ETA_MAX_JEEPS: %v", types.ErrConfiguration, err)
	}
	cfg.ETA = ETAConfig{RadiusKm: radius, MaxJeeps: maxJeeps}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every provider selected by the config has what it needs.
func (c Config) Validate() error {
	switch c.Routing.Provider {
	case RoutingORS:
		if c.Routing.ORSAPIKey == "" {
			return missing("ors.api_key")
		}
	case RoutingGoogle:
		if c.Routing.GoogleMapsAPIKey == "" {
			return missing("google_maps.api_key")
		}
	default:
		return invalid("routing.provider", c.Routing.Provider)
	}
	if c.Routing.Timeout < 0 {
		return invalid("routing.timeout", c.Routing.Timeout.String())
	}

	switch c.Auth.Provider {
	case AuthFirebase:
		if c.Firebase.CredentialsFile == "" {
			return missing("firebase.credentials_file")
		}
	case AuthJWT:
		if c.Auth.JWTSecret == "" {
			return missing("jwt.secret")
		}
	default:
		return invalid("auth.provider", c.Auth.Provider)
	}

	switch c.Registry.Backend {
	case RegistryMemory:
	case RegistryRedis:
		if c.Registry.RedisAddr == "" {
			return missing("redis.addr")
		}
	case RegistryFirebase:
		if c.Firebase.CredentialsFile == "" {
			return missing("firebase.credentials_file")
		}
		if c.Firebase.DatabaseURL == "" {
			return missing("firebase.database_url")
		}
	default:
		return invalid("registry.backend", c.Registry.Backend)
	}

	if c.ETA.RadiusKm <= 0 {
		return invalid("eta.radius_km", strconv.FormatFloat(c.ETA.RadiusKm, 'f', -1, 64))
	}
	if c.ETA.MaxJeeps <= 0 {
		return invalid("eta.max_jeeps", strconv.Itoa(c.ETA.MaxJeeps))
	}
	return nil
}

// Apply returns base with the configured overrides applied.
func (f FareConfig) Apply(base pricing.Tier) pricing.Tier {
	if f.BaseFare != nil {
		base.BaseFare = *f.BaseFare
	}
	if f.BaseKm != nil {
		base.BaseKm = *f.BaseKm
	}
	if f.PerKmRate != nil {
		base.PerKmRate = *f.PerKmRate
	}
	return base
}

// IsDevelopment reports whether development logging should be used.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev" || c.AppEnv == "local"
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func missing(key string) error {
	return fmt.Errorf("%w: environment variable %s is required", types.ErrConfiguration, envName(key))
}

func invalid(key, value string) error {
	return fmt.Errorf("%w: invalid %s %q", types.ErrConfiguration, envName(key), value)
}
