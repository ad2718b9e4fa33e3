package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mservice.org/internal/auth"
	"mservice.org/internal/config"
	"mservice.org/internal/httpapi"
	"mservice.org/internal/obs"
	"mservice.org/internal/session"
	"mservice.org/internal/store/pg"
)

var (
	version = "1.2.0"
	commit  = "dev"
)

func main() {
	configPath := flag.String("config", os.Getenv("MS_CONFIG"), "Path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	ctx := context.Background()

	store, err := pg.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	defer store.Close()

	sessions, err := session.Open(ctx, session.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("open redis: %v", err)
	}
	defer sessions.Close()

	verifier, err := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.TokenTTL, auth.WithIssuer(cfg.Auth.Issuer))
	if err != nil {
		log.Fatalf("verifier: %v", err)
	}

	var accessTokens *auth.AccessTokens
	if cfg.Auth.AccessTokenSecret != "" {
		accessTokens, err = auth.NewAccessTokens(cfg.Auth.AccessTokenSecret)
		if err != nil {
			log.Fatalf("access tokens: %v", err)
		}
	}

	public := auth.NewPublicPaths(cfg.Auth.PublicPaths, cfg.Auth.PublicPrefixes)
	svc, err := auth.NewService(verifier, sessions, store,
		auth.WithPublicPaths(public),
		auth.WithEvalTimeout(cfg.Auth.EvalTimeout),
	)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	api := httpapi.New(svc, accessTokens, httpapi.ReadyProbe{DB: store.DB()}, version,
		httpapi.WithLimits(cfg.HTTP.MaxBodyBytes, cfg.HTTP.RateBurst, int(cfg.HTTP.RateRPS)),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting m-service-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Println("Stopped")
}
