package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"padhub/api/internal/app"
	"padhub/api/internal/config"
	"padhub/api/internal/email"
	"padhub/api/internal/search"
	"padhub/api/internal/store"
	"padhub/api/internal/watcher"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	kv, err := store.Open(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer kv.Close()

	docs := store.NewDocStore(kv)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewStoreScan(kv))

	service := app.New(cfg, kv, docs, searchService)

	if meiliClient != nil {
		go func() {
			if err := service.ReindexSearch(ctx); err != nil {
				log.Printf("search: startup reindex failed: %v", err)
			}
		}()
	}

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})

	scheduler := cron.New()
	if mailer.IsConfigured() {
		digest := watcher.New(kv, docs, mailer, cfg.RootURL, cfg.DigestWindow)
		if _, err := scheduler.AddFunc(cfg.DigestSchedule, func() {
			if err := digest.Run(ctx); err != nil {
				log.Printf("watcher: digest run failed: %v", err)
			}
		}); err != nil {
			log.Fatalf("invalid digest schedule %q: %v", cfg.DigestSchedule, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	} else {
		log.Printf("SMTP not configured, watchlist digests disabled")
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Padhub API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
