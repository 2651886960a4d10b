package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/talentlink/talentlink-backend/internal/auth/blacklist"
	auth "github.com/talentlink/talentlink-backend/internal/auth/middleware"
	"github.com/talentlink/talentlink-backend/internal/auth/password"
	"github.com/talentlink/talentlink-backend/internal/config"
	"github.com/talentlink/talentlink-backend/internal/db"
	"github.com/talentlink/talentlink-backend/internal/logging"
	"github.com/talentlink/talentlink-backend/internal/server"
	"github.com/talentlink/talentlink-backend/internal/users"
)

func main() {
	dotenv := os.Getenv("DOTENV_PATH")
	if dotenv == "" {
		dotenv = ".env"
	}
	env, err := config.Load(dotenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg, err := config.Build(env)
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.New(cfg.Debug)
	if cfg.UsesPlaceholderSecret() {
		logger.Warn("SECRET_KEY is not set; using the insecure development key")
	}
	if err := run(cfg, logger); err != nil {
		logger.Fatal(err)
	}
}

// run opens and closes every resource the server needs.
func run(cfg config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()

	// --- Token blacklist ---
	var bl auth.Blacklist
	if cfg.HasApp(config.AppTokenBlacklist) {
		if cfg.RedisURL != "" {
			rs, err := blacklist.NewRedisStore(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			defer rs.Close()
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = rs.Ping(pingCtx)
			cancel()
			if err != nil {
				return fmt.Errorf("redis ping: %w", err)
			}
			bl = rs
		} else {
			ss := blacklist.NewSQLStore(dbh)
			go purgeBlacklist(ctx, ss, logger)
			bl = ss
		}
	}

	tokens, err := auth.NewTokenService(cfg.SecretKey, cfg.Tokens, bl)
	if err != nil {
		return fmt.Errorf("tokens: %w", err)
	}
	tokens.SetLogger(logger)
	policy, err := password.NewPolicy(cfg.Passwords.Validators, cfg.Passwords.MinLength)
	if err != nil {
		return fmt.Errorf("password policy: %w", err)
	}

	handler, err := server.New(cfg, server.Deps{
		Tokens: tokens,
		Users:  users.NewStore(dbh, policy),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("router: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithFields(log.Fields{
		"addr":  cfg.HTTPAddr,
		"env":   cfg.Environment,
		"debug": cfg.Debug,
		"db":    cfg.Database.String(),
	}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func purgeBlacklist(ctx context.Context, s *blacklist.SQLStore, logger *log.Logger) {
	purge := func(now time.Time) {
		n, err := s.PurgeExpired(ctx, now)
		if err != nil {
			logger.WithError(err).Warn("blacklist purge failed")
			return
		}
		if n > 0 {
			logger.WithField("rows", n).Debug("purged expired blacklist entries")
		}
	}

	purge(time.Now())
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			purge(now)
		}
	}
}
