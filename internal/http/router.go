package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/config"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/db"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/http/handlers"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/http/middleware"
	"github.com/jat1ndh1man/Fitwiser-CRM-sub001/internal/service"

	_ "github.com/jat1ndh1man/Fitwiser-CRM-sub001/docs"
)

func Router(cfg config.Config, store *db.Store, syncSvc *service.SyncService, webhookSvc *service.WebhookService, assignSvc *service.AssignmentService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id", "api_key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:       store,
		Sync:        syncSvc,
		Webhook:     webhookSvc,
		Assign:      assignSvc,
		Validator:   validator.New(),
		Logger:      logger,
		VerifyToken: cfg.FBVerifyToken,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/leads", h.LeadsList)
		api.GET("/assignments", h.AssignmentsList)
		api.GET("/webhooks/facebook", h.WebhookVerify)
		api.POST("/webhooks/facebook", h.WebhookReceive)
	}

	api.POST("/cron/auto-assign", middleware.Bearer(cfg.CronSecret), h.CronAutoAssign)
	api.POST("/sync", middleware.APIKey(cfg.SyncAPIKey), h.SyncAll)

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/sync/:userId", h.SyncUser)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
