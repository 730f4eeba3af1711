package main

import (
	"context"
	"log"
	"os"

	"github.com/authkit/api/internal/auth"
	"github.com/authkit/api/internal/cache"
	"github.com/authkit/api/internal/config"
	"github.com/authkit/api/internal/database"
	"github.com/authkit/api/internal/handler"
	"github.com/authkit/api/internal/middleware"
	"github.com/authkit/api/internal/password"
	"github.com/authkit/api/internal/scheduler"
	"github.com/authkit/api/internal/store"
	"github.com/authkit/api/internal/verification"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Redis only backs the login rate limiter, so it is optional (fail-open)
	redisStorage, err := cache.NewRedisStorage(cfg.RedisURL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		redisStorage = nil
	}

	userStore := store.NewGormUserStore(db)
	tokenStore := store.NewGormAuthTokenStore(db)

	codec := auth.NewCodec(cfg.JWTSecret)
	tokenService := auth.NewTokenService(tokenStore, userStore, codec, cfg)
	verificationService := verification.NewService(userStore, cfg.JWTSecret)

	authHandler := handler.NewAuthHandler(userStore, tokenService, password.BcryptHasher{}, cfg.SignUpEnabled)
	verificationHandler := handler.NewVerificationHandler(verificationService)

	purgeScheduler := scheduler.NewPurgeScheduler(tokenService, cfg.PurgeInterval)
	go purgeScheduler.Start(context.Background())

	r := gin.Default()

	r.Use(middleware.Metrics())

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/purge/status", func(c *gin.Context) {
		c.JSON(200, purgeScheduler.GetStatus())
	})

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login",
			middleware.LoginRateLimit(redisStorage, cfg.LoginRateLimit, cfg.LoginRateWindow),
			authHandler.Login)
		authGroup.POST("/sign-up",
			middleware.LoginRateLimit(redisStorage, cfg.LoginRateLimit, cfg.LoginRateWindow),
			authHandler.SignUp)

		authGroup.POST("/refresh",
			middleware.Auth(tokenService, middleware.Requirements{RefreshToken: true}),
			authHandler.Refresh)
		authGroup.POST("/logout",
			middleware.Auth(tokenService, middleware.Requirements{}),
			authHandler.Logout)
		authGroup.GET("",
			middleware.Auth(tokenService, middleware.Requirements{}),
			authHandler.GetAuthenticatedUser)
		authGroup.PATCH("/password",
			middleware.Auth(tokenService, middleware.Requirements{}),
			authHandler.ChangePassword)

		ev := authGroup.Group("/email-verification",
			middleware.Auth(tokenService, middleware.Requirements{}))
		{
			ev.POST("/verify", verificationHandler.Verify)
			ev.POST("/resend", verificationHandler.Resend)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}

	log.Printf("API server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
