package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-redis/redis_rate/v10"

	"github.com/pribylovaa/robot-helper/internal/cache"
	"github.com/pribylovaa/robot-helper/internal/config"
	rhhttp "github.com/pribylovaa/robot-helper/internal/http"
	"github.com/pribylovaa/robot-helper/internal/password"
	"github.com/pribylovaa/robot-helper/internal/relay"
	"github.com/pribylovaa/robot-helper/internal/service"
	"github.com/pribylovaa/robot-helper/internal/storage/postgres"
	"github.com/pribylovaa/robot-helper/internal/token"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting robot-helper", "env", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("service_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("service_stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		return err
	}
	defer str.Close()
	log.Info("postgres_connected")

	if !cfg.DB.SkipMigrations {
		if err := str.Migrate(rootCtx); err != nil {
			log.Error("migrations_failed", slog.String("err", err.Error()))
			return err
		}
		log.Info("migrations_applied")
	}

	hasher, err := password.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	codec, err := token.New(cfg.Auth)
	if err != nil {
		log.Error("token_codec_init_failed", slog.String("err", err.Error()))
		return err
	}

	srvc := service.New(str, codec, hasher, cfg.Auth)
	srvc.SetMessenger(relay.New(nil, cfg.Relay.Timeout))

	opts := rhhttp.Options{
		Logger:        log,
		Timeout:       cfg.Timeouts.Request,
		BasePath:      cfg.HTTP.BasePath,
		AuthPerMinute: cfg.RateLimit.AuthPerMinute,
	}

	checks := []readinessCheck{{name: "postgres", ping: str.Ping}}

	// Redis опционален: без него logout отвечает 501, а rate limit выключен.
	if cfg.Redis.Enabled() {
		redisCtx, redisCancel := context.WithTimeout(rootCtx, 5*time.Second)
		rc, err := cache.NewRedisCache(redisCtx, cfg.Redis.RedisURL, cfg.Redis.KeyPrefix)
		redisCancel()
		if err != nil {
			log.Error("redis_connect_failed", slog.String("err", err.Error()))
			return err
		}
		defer func() {
			if cerr := rc.Close(); cerr != nil {
				log.Warn("redis_close_failed", slog.String("err", cerr.Error()))
			}
		}()
		log.Info("redis_connected")

		srvc.SetDenylist(rc)
		opts.Limiter = redis_rate.NewLimiter(rc.Client())
		opts.KeyPrefix = rc.Prefix()
		checks = append(checks, readinessCheck{name: "redis", ping: rc.Ping})
	} else {
		log.Warn("redis_disabled", slog.String("effect", "token revocation and rate limiting are off"))
	}

	log.Info("service_initialized")

	var ready atomic.Bool

	apiSrv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           rhhttp.NewRouter(srvc, opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	opsSrv := &http.Server{
		Addr:              cfg.Ops.Addr(),
		Handler:           newOpsMux(&ready, checks...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 2)
	for name, srv := range map[string]*http.Server{"api": apiSrv, "ops": opsSrv} {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			log.Error("http_listen_failed", slog.String("server", name), slog.String("addr", srv.Addr), slog.String("err", err.Error()))
			return err
		}
		log.Info("http_listen_start", slog.String("server", name), slog.String("addr", srv.Addr))

		srv, ln := srv, ln
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErrCh <- err
			}
		}()
	}

	ready.Store(true)
	log.Info("robot_helper_ready")

	var serveErr error
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case serveErr = <-serveErrCh:
		log.Error("http_serve_failed", slog.String("err", serveErr.Error()))
	}

	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for name, srv := range map[string]*http.Server{"api": apiSrv, "ops": opsSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http_shutdown_incomplete", slog.String("server", name), slog.String("err", err.Error()))
			continue
		}
		log.Info("http_stopped", slog.String("server", name))
	}

	return serveErr
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
