package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asagus.com/internal/audit"
	"asagus.com/internal/auth"
	"asagus.com/internal/config"
	"asagus.com/internal/httpapi"
	"asagus.com/internal/obs"
	"asagus.com/internal/store/pg"
)

var (
	version = "1.2.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.EphemeralSecrets {
		obs.Warn("ephemeral_signing_secrets", map[string]any{
			"detail": "signing secrets were generated at startup; all previously issued tokens are now unverifiable",
		})
	}
	if cfg.DatabaseDSN == "" {
		log.Fatal("missing DSN: set ASAGUS_PG_DSN")
	}

	store, err := pg.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	tokens, err := auth.NewTokenService(cfg.Issuer, cfg.AccessSecret, cfg.RefreshSecret,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	recorder := audit.NewRecorder(store.AuditLog())
	svc, err := auth.NewService(store, tokens, recorder)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	api := httpapi.New(svc, httpapi.ReadyProbe{DB: store.DB()}, httpapi.Options{
		Version:          version,
		EphemeralSecrets: cfg.EphemeralSecrets,
		RateBurst:        cfg.RateBurst,
		RatePerSecond:    cfg.RatePerSecond,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting asagus-admin-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
