// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/archelabs/arche-backend/internal/config"
	"github.com/archelabs/arche-backend/internal/database"
	"github.com/archelabs/arche-backend/internal/handlers"
	"github.com/archelabs/arche-backend/internal/middleware"
	"github.com/archelabs/arche-backend/internal/services"
	"github.com/archelabs/arche-backend/internal/utils"
)

func Initialize(graph *database.Graph, cfg *config.Config) *gin.Engine {
	// Initialize services
	storageService, _ := services.NewStorageService(cfg)
	pinningService := services.NewPinningService(cfg)
	storyService := services.NewStoryService(cfg)
	generationService := services.NewGenerationService(cfg, storageService)

	assetService := services.NewAssetService(graph)
	lineageService := services.NewLineageService(graph)
	userService := services.NewUserService(graph)
	marketplaceService := services.NewMarketplaceService(graph)
	registrationLedger := services.NewRegistrationLedger(graph)
	registrationService := services.NewRegistrationService(
		assetService, pinningService, storyService, registrationLedger, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	graphHandler := handlers.NewGraphHandler(lineageService, assetService)
	studioHandler := handlers.NewStudioHandler(assetService, generationService, storageService)
	assetHandler := handlers.NewAssetHandler(assetService)
	storyHandler := handlers.NewStoryHandler(registrationService)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService)
	userHandler := handlers.NewUserHandler(userService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.Metrics())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/session", authHandler.CreateSession)
		}

		// Provenance graph routes
		graphGroup := v1.Group("/graph")
		{
			graphGroup.GET("/explore", middleware.OptionalAuth(), graphHandler.Explore)
			graphGroup.GET("/get-history", graphHandler.GetHistory)
			graphGroup.POST("/save-draft", middleware.AuthRequired(), graphHandler.SaveDraft)
		}

		// Studio routes
		studio := v1.Group("/studio")
		studio.Use(middleware.AuthRequired())
		{
			studio.GET("/assets", studioHandler.GetAssets)
			studio.POST("/generate", middleware.GenerationRateLimit(), studioHandler.Generate)
			studio.DELETE("/draft", studioHandler.DeleteDraft)
			studio.POST("/favorite", studioHandler.ToggleFavorite)
		}

		// Asset routes
		assets := v1.Group("/assets")
		{
			assets.GET("/:id", middleware.OptionalAuth(), assetHandler.GetAsset)
		}

		// On-chain registration routes
		story := v1.Group("/story")
		story.Use(middleware.AuthRequired())
		{
			story.POST("/register", middleware.RegisterRateLimit(), storyHandler.Register)
			story.POST("/reconcile", storyHandler.Reconcile)
		}

		// Marketplace routes
		marketplace := v1.Group("/marketplace")
		{
			marketplace.GET("/explore", marketplaceHandler.ExploreListings)

			protected := marketplace.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("/list", marketplaceHandler.CreateListing)
				protected.POST("/buy", marketplaceHandler.BuyListing)
				protected.POST("/cancel", marketplaceHandler.CancelListing)
				protected.GET("/my-listings", marketplaceHandler.MyListings)
			}
		}

		// User routes
		user := v1.Group("/user")
		{
			user.GET("/profile", middleware.OptionalAuth(), userHandler.GetProfile)
			user.POST("/profile", middleware.AuthRequired(), userHandler.UpdateProfile)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
