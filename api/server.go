// Package api exposes the HTTP surface: health, LiveKit token minting,
// conversation history and the admin panel endpoints.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	contractx "github.com/Satyam6024/superbryn-agent/agent/contract"
	"github.com/Satyam6024/superbryn-agent/agent/orchestrator"
	"github.com/Satyam6024/superbryn-agent/pkg/avatar"
	"github.com/Satyam6024/superbryn-agent/pkg/livekit"
)

type Config struct {
	Addr          string `envconfig:"ADDR" default:":8080"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD" split_words:"true" required:"true"`
	Debug         bool   `envconfig:"DEBUG" default:"false"`
}

type Server struct {
	cfg      Config
	store    contractx.Store
	livekit  *livekit.Client
	avatar   *avatar.Client
	sessions *orchestrator.Factory
	chats    *chatRegistry
	engine   *gin.Engine
}

func NewServer(cfg Config, store contractx.Store, lk *livekit.Client, av *avatar.Client, sessions *orchestrator.Factory) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg,
		store:    store,
		livekit:  lk,
		avatar:   av,
		sessions: sessions,
		chats:    newChatRegistry(),
		engine:   gin.New(),
	}
	s.engine.Use(gin.Recovery(), requestLogger(), corsMiddleware())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.health)

	api := s.engine.Group("/api")
	{
		api.POST("/token", s.generateToken)
		api.GET("/history/:phone", s.conversationHistory)

		api.POST("/chat", s.startChat)
		api.POST("/chat/:id/message", s.chatMessage)
		api.DELETE("/chat/:id", s.endChat)

		admin := api.Group("/admin")
		{
			admin.POST("/auth", s.adminAuth)
			admin.GET("/appointments", s.requireAdmin, s.allAppointments)
			admin.GET("/stats", s.requireAdmin, s.adminStats)
		}
	}
}

// Handler exposes the router for tests and custom servers.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Run() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	return s.engine.Run(s.cfg.Addr)
}

// requireAdmin gates admin endpoints on the shared panel password.
func (s *Server) requireAdmin(c *gin.Context) {
	if c.GetHeader("X-Admin-Password") != s.cfg.AdminPassword {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.Next()
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Password")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
