// Package server exposes the aggregated usage statistics over a small
// read-only HTTP API.
package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundseek/soundseek/internal/stats"
)

const defaultTopK = 10

// Server handles HTTP requests for usage statistics.
type Server struct {
	aggregator *stats.Aggregator
	router     *gin.Engine
}

// New creates a new HTTP server instance.
func New(aggregator *stats.Aggregator) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.Default()

	server := &Server{
		aggregator: aggregator,
		router:     router,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.healthCheck)

	// API endpoints
	api := s.router.Group("/api/v1")
	{
		api.GET("/stats", s.getStats)
		api.GET("/stats/queries", s.getTopQueries)
		api.GET("/stats/artists", s.getTopArtists)
	}
}

// Start starts the HTTP server
func (s *Server) Start(port string) error {
	return s.router.Run(":" + port)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "soundseek",
	})
}

// getStats returns the full statistics snapshot.
func (s *Server) getStats(c *gin.Context) {
	c.JSON(200, s.aggregator.Snapshot())
}

// getTopQueries returns the k most frequent search queries.
func (s *Server) getTopQueries(c *gin.Context) {
	c.JSON(200, gin.H{"queries": s.aggregator.TopQueries(topK(c))})
}

// getTopArtists returns the k most downloaded artists.
func (s *Server) getTopArtists(c *gin.Context) {
	c.JSON(200, gin.H{"artists": s.aggregator.TopArtists(topK(c))})
}

func topK(c *gin.Context) int {
	k := defaultTopK
	if raw := c.Query("k"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			k = parsed
		}
	}
	return k
}
