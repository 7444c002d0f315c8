package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/config"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/db"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/facebook"
	httpapi "github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/http"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "fitwiser-crm").Logger()

	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	fbClient := facebook.NewGraphClient(cfg.FBGraphURL, logger)

	syncSvc := &service.SyncService{
		Store:   store,
		FB:      fbClient,
		Logger:  logger.With().Str("component", "sync").Logger(),
		Limiter: rate.NewLimiter(rate.Every(cfg.SyncAccountDelay), 1),
	}
	webhookSvc := &service.WebhookService{
		Store:  store,
		FB:     fbClient,
		Logger: logger.With().Str("component", "webhook").Logger(),
		Secret: cfg.FBAppSecret,
	}
	assignSvc := &service.AssignmentService{
		Store:  store,
		Logger: logger.With().Str("component", "auto-assign").Logger(),
	}

	router := httpapi.Router(cfg, store, syncSvc, webhookSvc, assignSvc, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
