package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"wikigraph/backend/internal/audio"
	"wikigraph/backend/internal/provider"
	"wikigraph/backend/internal/store"
	"wikigraph/backend/internal/view"
	"wikigraph/backend/pkg/config"
	"wikigraph/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize the similarity store
	ctx := context.Background()
	st, err := store.New(ctx, cfg.DSN())
	if err != nil {
		log.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer st.Close()

	// Initialize dependencies
	wiki := provider.NewWiki(cfg.WikiAPIURL)
	inference := provider.NewInference(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ChatModelID, cfg.EmbeddingModelID, cfg.SpeechModelID)
	contentProvider := provider.New(wiki, inference)
	viewManager := view.NewManager(st, contentProvider, cfg.EdgesLimit)
	audioManager := audio.NewManager(st, inference, cfg.AudioDir)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	api := router.Group("/api")
	{
		// Read a view, synthesizing it on first request
		api.GET("/views/:name", func(c *gin.Context) {
			name := c.Param("name")
			populateEdges := c.DefaultQuery("edges", "true") != "false"
			ctx := c.Request.Context()

			v, err := viewManager.ReadOrCreateView(ctx, name, populateEdges)
			if err != nil {
				log.Error("Failed to read or create view",
					zap.String("name", name),
					zap.Error(err),
				)
				c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Could not build view for %s.", name)})
				return
			}
			if v == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No view found for %s.", name)})
				return
			}

			c.JSON(http.StatusOK, v)
		})

		// Re-run edge population for a stored view and persist the result
		api.POST("/views/:name/edges", func(c *gin.Context) {
			name := c.Param("name")
			ctx := c.Request.Context()

			v, err := st.GetViewByPageName(ctx, name)
			if err != nil {
				log.Error("Failed to fetch view", zap.String("name", name), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch view"})
				return
			}
			if v == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No view found for %s.", name)})
				return
			}

			src, err := contentProvider.FetchContent(ctx, v.PageName)
			if err != nil {
				log.Error("Failed to fetch context for edge population",
					zap.String("name", name),
					zap.Error(err),
				)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch source content"})
				return
			}

			if err := viewManager.PopulateEdges(ctx, v, src.FullText, true, cfg.EdgesLimit); err != nil {
				log.Error("Failed to populate edges", zap.String("name", name), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Could not populate edges for %s.", name)})
				return
			}

			c.JSON(http.StatusOK, v)
		})

		// Synthesize narration for a stored view, lazily
		api.POST("/views/:name/audio", func(c *gin.Context) {
			name := c.Param("name")
			ctx := c.Request.Context()

			v, err := st.GetViewByPageName(ctx, name)
			if err != nil {
				log.Error("Failed to fetch view", zap.String("name", name), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch view"})
				return
			}
			if v == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("No view found for %s.", name)})
				return
			}
			if v.Audio != "" {
				c.JSON(http.StatusOK, gin.H{"url": v.Audio})
				return
			}

			url, err := audioManager.CreateAndSaveAudio(ctx, v)
			if err != nil {
				log.Error("Failed to generate audio", zap.String("name", name), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate audio."})
				return
			}

			c.JSON(http.StatusOK, gin.H{"url": url})
		})
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
