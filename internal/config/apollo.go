package config

import (
	"strconv"

	agollo "github.com/apolloconfig/agollo/v4"
	apconf "github.com/apolloconfig/agollo/v4/env/config"
	"github.com/apolloconfig/agollo/v4/storage"
)

// overrideFromApollo starts the Apollo client and overrides config values if present.
// Returns a closer to stop the Apollo client.
func overrideFromApollo(cfg *Config, store *Store) (func(), error) {
	if cfg.Apollo.Addrs == "" || cfg.Apollo.AppID == "" {
		configLogger.Warn("apollo: missing APOLLO_ADDRS or APOLLO_APP_ID; skip")
		return nil, nil
	}

	ns := cfg.Apollo.Namespace
	if ns == "" {
		ns = "application"
	}

	appCfg := &apconf.AppConfig{
		AppID:         cfg.Apollo.AppID,
		Cluster:       cfg.Apollo.Cluster,
		NamespaceName: ns,
		IP:            cfg.Apollo.Addrs,
		Secret:        cfg.Apollo.AccessKey,
	}

	client, err := agollo.StartWithConfig(func() (*apconf.AppConfig, error) { return appCfg, nil })
	if err != nil {
		return nil, err
	}

	next := cloneConfig(cfg)
	applyOverrides(getterFor(client, ns), next)
	_ = store.UpdateValidated(next, map[string]bool{"apollo.init": true})

	client.AddChangeListener(&changeListener{ns: ns, client: client, store: store})

	// agollo v4 exposes no Stop; keep the closer for symmetry with other deps
	return func() {}, nil
}

// getter looks up a raw string value by Apollo key.
type getter func(key string) (string, bool)

func getterFor(client agollo.Client, ns string) getter {
	return func(key string) (string, bool) {
		cache := client.GetConfigCache(ns)
		if cache == nil {
			return "", false
		}
		v, err := cache.Get(key)
		if err != nil {
			return "", false
		}
		s, ok := v.(string)
		return s, ok
	}
}

// applyOverrides copies recognised keys onto cfg. Empty strings are ignored except for
// secrets, which may be cleared on purpose.
func applyOverrides(get getter, cfg *Config) {
	str := func(key string, dst *string, allowEmpty bool) {
		if s, ok := get(key); ok && (allowEmpty || s != "") {
			*dst = s
		}
	}
	num := func(key string, dst *int) {
		if s, ok := get(key); ok && s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				*dst = n
			}
		}
	}

	str("app.env", &cfg.AppEnv, false)
	str("server.addr", &cfg.Server.Addr, false)
	str("log.level", &cfg.Log.Level, false)
	str("log.format", &cfg.Log.Format, false)

	str("api.url", &cfg.API.URL, false)
	str("api.token", &cfg.API.Token, true)
	if s, ok := get("api.timeout"); ok && s != "" {
		cfg.API.Timeout = parseDuration(s, cfg.API.Timeout)
	}
	if s, ok := get("cache.ttl"); ok && s != "" {
		cfg.Cache.TTL = parseDuration(s, cfg.Cache.TTL)
	}
	num("paging.size", &cfg.Paging.Size)

	str("redis.addr", &cfg.Redis.Addr, false)
	str("redis.password", &cfg.Redis.Password, true)
	num("redis.db", &cfg.Redis.DB)

	str("mq.url", &cfg.MQ.URL, false)
	str("jwt.secret", &cfg.JWT.Secret, true)
	num("ratelimit.max", &cfg.RateLimit.Max)
}

type changeListener struct {
	ns     string
	client agollo.Client
	store  *Store
}

func (c *changeListener) OnChange(e *storage.ChangeEvent) {
	configLogger.Sugar().Infof("apollo change: namespace=%s, changes=%d", e.Namespace, len(e.Changes))
	_, err := c.store.UpdateFunc(func(next *Config) (map[string]bool, error) {
		applyOverrides(getterFor(c.client, c.ns), next)
		changed := map[string]bool{}
		for k := range e.Changes {
			changed[k] = true
		}
		return changed, nil
	})
	if err != nil {
		configLogger.Warn("apollo change rejected by validator")
	}
}

// OnNewestChange satisfies storage.ChangeListener; updates are handled in OnChange.
func (c *changeListener) OnNewestChange(e *storage.FullChangeEvent) {}
