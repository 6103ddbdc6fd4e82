// Package main is the entry point for the font admin dashboard server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fontier-admin/internal/assign"
	"fontier-admin/internal/config"
	"fontier-admin/internal/fontapi"
	"fontier-admin/internal/httpx"
	"fontier-admin/internal/logx"
	"fontier-admin/internal/mqx"
	"fontier-admin/internal/querycache"
	"fontier-admin/internal/redisx"
	"fontier-admin/internal/resources"
	"fontier-admin/internal/server"
)

func main() {
	// Load .env if present
	_ = godotenv.Load()

	// Load config (env first; optional Apollo override)
	cfg, store, apClose, err := config.Load()
	if err != nil {
		panic(err)
	}
	if apClose != nil {
		defer apClose()
	}

	logx.Init(cfg.Log.Level, cfg.Log.Format)
	mainLogger := logx.GetScope("main")

	mainLogger.Info("config loaded",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.Server.Addr),
		zap.String("api.url", cfg.API.URL),
		zap.Duration("cache.ttl", cfg.Cache.TTL),
		zap.Int("paging.size", cfg.Paging.Size),
		zap.Bool("auth", cfg.JWT.Secret != ""),
	)

	api, err := fontapi.New(cfg.API.URL,
		fontapi.WithToken(cfg.API.Token),
		fontapi.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		mainLogger.Sugar().Errorf("fontapi client: %v", err)
		panic(err)
	}

	opts := []querycache.Option{querycache.WithTTL(cfg.Cache.TTL)}

	// Optional deps: Redis shares fetched values, RabbitMQ shares invalidations.
	rdb, redisClose, err := redisx.Open(cfg)
	if err != nil {
		mainLogger.Sugar().Warnf("redis init failed, running without shared cache: %v", err)
	}
	defer redisClose()
	if rdb != nil {
		opts = append(opts, querycache.WithL2(redisx.NewL2(rdb, cfg.Cache.Prefix)))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var consumer *mqx.Consumer
	if cfg.MQ.URL != "" {
		if pub, err := mqx.NewRabbitPublisher(cfg.MQ.URL, cfg.MQ.Exchange); err != nil {
			mainLogger.Sugar().Warnf("mq publisher init failed: %v", err)
		} else {
			defer pub.Close()
			opts = append(opts, querycache.WithNotifier(mqx.NewNotifier(pub)))
		}
		if c, err := mqx.NewConsumer(cfg.MQ.URL, cfg.MQ.Exchange); err != nil {
			mainLogger.Sugar().Warnf("mq consumer init failed: %v", err)
		} else {
			consumer = c
			defer consumer.Close()
		}
	}

	cache := querycache.New(opts...)
	defer cache.Close()
	if consumer != nil {
		go consumer.Run(ctx, cache)
	}

	svc := resources.New(api, cache, assign.NewEngine())
	app := httpx.NewApp(httpx.Deps{Service: svc, Config: store, Redis: rdb})

	// Validators: reject runtime values the server cannot apply.
	store.AddValidator(config.ValidateRuntime)

	store.Watch(func(newCfg *config.Config, changed map[string]bool) {
		if changed["log.level"] || changed["log.format"] {
			logx.Init(newCfg.Log.Level, newCfg.Log.Format)
			mainLogger.Info("logger reconfigured",
				zap.String("level", newCfg.Log.Level),
				zap.String("format", newCfg.Log.Format),
			)
		}
		if changed["cache.ttl"] {
			cache.SetTTL(newCfg.Cache.TTL)
			mainLogger.Info("cache ttl updated", zap.Duration("ttl", newCfg.Cache.TTL))
		}
		if changed["paging.size"] {
			mainLogger.Info("page size updated", zap.Int("size", newCfg.Paging.Size))
		}
		for _, k := range []string{"server.addr", "api.url", "redis.addr", "mq.url", "ratelimit.max"} {
			if changed[k] {
				mainLogger.Warn(k + " changed; restart required to take effect")
			}
		}
	})

	// Graceful shutdown
	go func() {
		ln, err := server.GetListener(cfg.Server.Addr)
		if err != nil {
			mainLogger.Sugar().Errorf("listener error: %v", err)
			stop()
			return
		}
		if err := app.Listener(ln); err != nil {
			mainLogger.Sugar().Infof("fiber exit: %v", err)
		}
	}()
	mainLogger.Sugar().Infof("server started on %s", cfg.Server.Addr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	mainLogger.Sugar().Info("shutting down...")
	stop()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		mainLogger.Sugar().Warnf("shutdown: %v", err)
	}
}
