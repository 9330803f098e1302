package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finverify-platform/internal/audit"
	"finverify-platform/internal/auth"
	"finverify-platform/internal/config"
	"finverify-platform/internal/credentials"
	"finverify-platform/internal/httpapi"
	"finverify-platform/internal/insights"
	"finverify-platform/internal/session"
	"finverify-platform/pkg/logger"
	"finverify-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tokens, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	verifier := credentials.NewService(credentials.NewPostgresRepo(db))
	sessions := session.NewManager(verifier, tokens, session.NewStore(rdb))
	cookies := session.CookieWriter{
		Name:   cfg.Auth.CookieName,
		TTL:    tokens.AccessTTL(),
		Secure: cfg.IsProduction(),
	}

	r := httpapi.NewRouter(httpapi.Deps{
		Log:      log,
		Tokens:   tokens,
		Sessions: sessions,
		Cookies:  cookies,
		Handlers: httpapi.Handlers{
			Sessions: sessions,
			Cookies:  cookies,
			Insights: insights.NewService(insights.NewPostgresRepo(db)),
			Audit:    audit.NewService(audit.NewPostgresRepo(db)),
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
