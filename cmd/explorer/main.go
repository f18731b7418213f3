package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PabloPavan/data_explorer/internal/config"
	"github.com/PabloPavan/data_explorer/internal/explorer"
	"github.com/PabloPavan/data_explorer/internal/httpapi"
	"github.com/PabloPavan/data_explorer/internal/i18n"
	"github.com/PabloPavan/data_explorer/internal/ratelimit"
	"github.com/PabloPavan/data_explorer/internal/session"
	"github.com/PabloPavan/data_explorer/internal/telemetry"
	"github.com/PabloPavan/data_explorer/internal/upstream"
	"github.com/PabloPavan/data_explorer/internal/users"
	"github.com/redis/go-redis/v9"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:     cfg.ServiceName,
		Endpoint:        cfg.Telemetry.Endpoint,
		TracesEndpoint:  cfg.Telemetry.TracesEndpoint,
		MetricsEndpoint: cfg.Telemetry.MetricsEndpoint,
		LogsEndpoint:    cfg.Telemetry.LogsEndpoint,
		Insecure:        cfg.Telemetry.Insecure,
		Disabled:        cfg.Telemetry.Disabled,
	})
	if err != nil {
		log.Fatalf("telemetry error: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown error: %v", err)
		}
	}()
	upstream.InitTelemetry(cfg.ServiceName)

	if err := i18n.Init(); err != nil {
		log.Fatalf("i18n error: %v", err)
	}

	client, err := upstream.New(cfg.APIBaseURL)
	if err != nil {
		log.Fatalf("upstream error: %v", err)
	}
	defer client.Close()
	usrRepo := users.NewRepository(upstream.NewBase(client, cfg.APITimeout))

	health := &httpapi.HealthHandler{Upstream: client}

	var (
		store       session.Store
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisOpt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url error: %v", err)
		}
		redisClient = redis.NewClient(redisOpt)
		defer redisClient.Close()

		redisStore := session.NewRedisStore(redisClient, cfg.Session.RedisPrefix)
		store = redisStore
		health.Redis = redisStore
	} else {
		memStore := session.NewMemoryStore()
		store = memStore
		go purgeSessions(ctx, memStore)
	}

	sessionManager := &session.Manager{
		Store:         store,
		TTL:           cfg.Session.TTL,
		RefreshBefore: cfg.Session.RefreshBefore,
	}
	cookie := session.CookieConfig{
		Name:     cfg.Session.CookieName,
		Path:     cfg.Session.CookiePath,
		Domain:   cfg.Session.CookieDomain,
		Secure:   cfg.Session.CookieSecure,
		SameSite: cfg.Session.SameSite(),
	}

	transitionLimiter := &ratelimit.Limiter{
		Client: redisClient,
		Prefix: "explorer:ratelimit:",
		Limit:  cfg.TransitionRateLimit,
		Window: cfg.TransitionRateWindow,
	}

	registry := explorer.NewRegistry(ctx, usrRepo)
	defer registry.Close()
	go registry.Run(ctx, sweepInterval, cfg.ControllerIdleTTL)

	app := &httpapi.App{
		ServiceName: cfg.ServiceName,
		Health:      health,
		Users: &httpapi.UsersHandler{
			Pages:      registry,
			Sessions:   sessionManager,
			Limiter:    transitionLimiter,
			RenderWait: cfg.RenderWait,
		},
		Sessions: sessionManager,
		Cookie:   cookie,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("explorer listening on :%s (api %s)", cfg.Port, cfg.APIBaseURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

func purgeSessions(ctx context.Context, store *session.MemoryStore) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Purge()
		}
	}
}
