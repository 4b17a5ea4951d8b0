package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/audioproof/audioproof/config"
	"github.com/audioproof/audioproof/controllers"
	"github.com/audioproof/audioproof/forensics"
	"github.com/audioproof/audioproof/middleware"
	"github.com/audioproof/audioproof/relay"
	"github.com/audioproof/audioproof/storage"
	"github.com/audioproof/audioproof/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, ext *forensics.Extractor, svc *relay.Service, blobs storage.BlobStore) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access logging goes to its own rolling file, separate from the app log.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.GinLogger(gl))
		r.Use(utils.GinRecovery(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.UsageRecorder())

	if cfg.StorageBackend == "local" {
		r.Static("/static/uploads", cfg.LocalUploadDir)
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	verifyController := controllers.NewVerifyController(db, cfg, ext, svc, blobs)
	recordsController := controllers.NewRecordsController(db, blobs)
	statsController := controllers.NewStatsController(db)
	adminController := controllers.NewAdminController(db, blobs)
	configController := controllers.NewConfigController()

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/oauth/:provider/login", authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/profile", middleware.AuthRequired(), authController.UpdateProfile)

	// Verification works anonymously; authenticated callers additionally get
	// their result persisted.
	api.POST("/verify", middleware.OptionalAuth(), middleware.RateLimitMiddleware(), verifyController.Verify)
	api.POST("/metadata", middleware.OptionalAuth(), middleware.RateLimitMiddleware(), verifyController.Metadata)

	api.GET("/stats", statsController.GetStats)
	api.GET("/config/ui", configController.GetUIConfig)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.GET("/verifications", recordsController.List)
	protected.GET("/verifications/:id", recordsController.Get)
	protected.DELETE("/verifications/:id", recordsController.Delete)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/verifications", adminController.ListVerifications)
	admin.DELETE("/verifications/:id", adminController.DeleteVerification)
	admin.GET("/users", adminController.ListUsers)
	admin.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
