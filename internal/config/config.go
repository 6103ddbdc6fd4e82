package config

import (
	"os"
	"strconv"
	"time"

	"github.com/samber/lo"

	"fontier-admin/internal/logx"
)

var configLogger = logx.GetScope("config")

// DefaultAPIURL is the production font-distribution API.
const DefaultAPIURL = "https://api.fontier.pro/api"

// Config holds the application configuration
type Config struct {
	AppEnv string
	Server struct {
		Addr string
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // text, json
	}
	API struct {
		URL     string // remote REST API base, e.g. https://api.fontier.pro/api
		Token   string // optional bearer token sent upstream
		Timeout time.Duration
	}
	Cache struct {
		TTL    time.Duration // 0 = fresh until invalidated
		Prefix string        // Redis key prefix for the shared L2
	}
	Paging struct {
		Size int
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	MQ struct {
		URL      string // RabbitMQ URL
		Exchange string
	}
	JWT struct {
		Secret string // empty disables admin auth
		Issuer string
	}
	RateLimit struct {
		Window time.Duration
		Max    int
	}
	Apollo struct {
		Enable    bool
		AppID     string
		Cluster   string
		Namespace string
		Addrs     string
		AccessKey string
	}
}

// Load loads config from env, and if enabled, overrides with Apollo values.
// Returns config, store, optional apollo closer, and error.
func Load() (*Config, *Store, func(), error) {
	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Server.Addr = getEnv("SERVER_ADDR", ":8080")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "text")

	cfg.API.URL = getEnv("FONTIER_API_URL", DefaultAPIURL)
	cfg.API.Token = getEnv("FONTIER_API_TOKEN", "")
	cfg.API.Timeout = getDuration("FONTIER_API_TIMEOUT", 30*time.Second)

	cfg.Cache.TTL = getDuration("CACHE_TTL", 0)
	cfg.Cache.Prefix = getEnv("CACHE_PREFIX", "fontier:qc:")
	cfg.Paging.Size = lo.Clamp(getInt("PAGE_SIZE", 6), 1, 100)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	cfg.MQ.URL = getEnv("RABBITMQ_URL", "")
	cfg.MQ.Exchange = getEnv("MQ_EXCHANGE", "fontier.invalidations")

	cfg.JWT.Secret = getEnv("JWT_SECRET", "")
	cfg.JWT.Issuer = getEnv("JWT_ISSUER", "")

	cfg.RateLimit.Window = getDuration("RATE_LIMIT_WINDOW", time.Minute)
	cfg.RateLimit.Max = getInt("RATE_LIMIT_MAX", 300)

	cfg.Apollo.Enable = getBool("APOLLO_ENABLE", false)
	cfg.Apollo.AppID = getEnv("APOLLO_APP_ID", "")
	cfg.Apollo.Cluster = getEnv("APOLLO_CLUSTER", "default")
	cfg.Apollo.Namespace = getEnv("APOLLO_NAMESPACE", "application")
	cfg.Apollo.Addrs = getEnv("APOLLO_ADDRS", "")
	cfg.Apollo.AccessKey = getEnv("APOLLO_ACCESS_KEY", "")

	store := NewStore(cfg)

	if cfg.Apollo.Enable {
		closer, err := overrideFromApollo(cfg, store)
		if err != nil {
			configLogger.Sugar().Errorf("apollo override failed: %v", err)
			return cfg, store, closer, err
		}
		return store.Get(), store, closer, nil
	}

	return cfg, store, nil, nil
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	return lo.Ternary(v != "", v, def)
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// getDuration accepts Go durations ("15s") or a bare number of seconds.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return parseDuration(v, def)
}

func parseDuration(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second
	}
	return def
}
