package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/trimlink/trimlink/internal/cache"
	"github.com/trimlink/trimlink/internal/config"
	"github.com/trimlink/trimlink/internal/database"
	"github.com/trimlink/trimlink/internal/handler"
	"github.com/trimlink/trimlink/internal/repository"
	"github.com/trimlink/trimlink/internal/service"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db, err := database.Connect(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName)
	if err != nil {
		log.Fatal("Failed to connect database: ", err)
	}
	defer db.Close()

	log.Println("Successfully connected to database")

	if err := database.EnsureSchema(db); err != nil {
		log.Fatal("Failed to ensure schema: ", err)
	}

	// Подключаемся к Redis; без него работаем через NullCache
	var linkCache cache.Cache
	redisClient, err := cache.NewRedisClient(cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		CacheTTL:     cfg.Redis.CacheTTL,
	})
	if err != nil {
		log.Printf("⚠️  Failed to connect to Redis (running without cache): %v", err)
		linkCache = cache.NewNullCache()
	} else {
		defer redisClient.Close()
		linkCache = redisClient
		log.Println("✅ Successfully connected to Redis")
	}

	linkRepo := repository.NewCachedLinkRepository(
		repository.NewPostgresLinkRepository(db),
		linkCache,
	)

	linkService := service.NewLinkService(linkRepo, cfg.GetBaseURL(), cfg.App.CodeLength, cfg.App.MaxRetries)
	linkHandler := handler.NewLinkHandler(linkService, version)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.GetAllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Статические файлы и HTML дашборд
	router.Static("/static", "./web/static")
	router.LoadHTMLGlob("web/static/*.html")

	router.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", nil)
	})

	// Liveness: без зависимостей от хранилища
	router.GET("/healthz", linkHandler.Healthz)

	// Глубокая проверка: БД + кэш
	router.GET("/health", func(c *gin.Context) {
		response := gin.H{
			"status": "healthy",
			"services": gin.H{
				"database": "healthy",
				"cache":    "healthy",
			},
		}

		if err := database.HealthCheck(db); err != nil {
			response["services"].(gin.H)["database"] = "unhealthy"
			response["status"] = "degraded"
		}

		if err := linkCache.HealthCheck(c.Request.Context()); err != nil {
			response["services"].(gin.H)["cache"] = "unhealthy"
			response["status"] = "degraded"
		}

		statusCode := http.StatusOK
		if response["status"] == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	})

	// API routes
	api := router.Group("/api")
	{
		api.POST("/links", linkHandler.CreateLink)
		api.GET("/links", linkHandler.ListLinks)
		api.GET("/links/:code", linkHandler.GetLink)
		api.DELETE("/links/:code", linkHandler.DeleteLink)
	}

	// Редирект регистрируется последним: статические маршруты выигрывают у /:code
	router.GET("/:code", linkHandler.Redirect)

	// HTTP Server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// Запускаем сервер
	go func() {
		log.Printf("🚀 Server starting on %s", cfg.GetServerAddress())
		log.Printf("📝 API endpoints: /api/links")
		log.Printf("🔗 Redirect endpoint: GET /{code}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("✅ Server gracefully stopped")
}
