// Package api exposes the backtest engine over HTTP: run simulations,
// list stored runs, and inspect the loaded chain data.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"optbt/chain"
)

// Server is the HTTP front end over one loaded option chain.
type Server struct {
	engine *gin.Engine
	server *http.Server
	data   chain.Table
	store  *RunStore
}

// NewServer creates a server for the given chain data and port.
func NewServer(data chain.Table, port int) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware())

	s := &Server{
		engine: engine,
		data:   data,
		store:  NewRunStore(),
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: engine,
		},
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	handler := NewHandler(s.data, s.store)

	api := s.engine.Group("/api")
	{
		api.POST("/simulate", handler.Simulate)
		api.GET("/runs", handler.GetRuns)
		api.GET("/runs/:id", handler.GetRun)
		api.GET("/strategies", handler.GetStrategies)
		api.GET("/status", handler.GetStatus)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Start runs the server until Shutdown or a listener error.
func (s *Server) Start() error {
	log.Printf("[API] serving on http://localhost%s\n", s.server.Addr)
	log.Println("[API] endpoints:")
	log.Println("  POST /api/simulate   - run a backtest")
	log.Println("  GET  /api/runs       - list stored runs")
	log.Println("  GET  /api/runs/:id   - fetch one run's trade log")
	log.Println("  GET  /api/strategies - list strategies and selectors")
	log.Println("  GET  /api/status     - loaded data and run count")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting up to 5s for in-flight requests.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log.Printf("[API] %s %s %d %v\n", c.Request.Method, path, status, latency)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
