package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"explain-it/internal/config"
	"explain-it/internal/game"
)

type Server struct {
	svc    *game.Service
	cfg    config.Config
	log    zerolog.Logger
	secret []byte
}

func New(svc *game.Service, cfg config.Config, logger zerolog.Logger) *Server {
	registerValidators()
	return &Server{
		svc:    svc,
		cfg:    cfg,
		log:    logger,
		secret: []byte(cfg.JWTSecret),
	}
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log))

	router.GET("/health", s.handleHealth)

	api := router.Group("/api", s.requireIdentity())
	api.GET("/settings", s.handleSettings)

	games := api.Group("/games")
	games.POST("", s.handleCreateGame)
	games.POST("/join", s.handleJoinGame)
	games.GET("/mine", s.handleListMyGames)
	games.GET("/:gameID", s.handleGetFull)
	games.DELETE("/:gameID", s.handleDeleteGame)
	games.POST("/:gameID/update", s.handleUpdateFull)
	games.GET("/:gameID/frequent", s.handleGetFrequent)
	games.POST("/:gameID/frequent", s.handleUpdateFrequent)
	games.POST("/:gameID/accept", s.handleAcceptGame)
	games.POST("/:gameID/reject", s.handleRejectGame)
	games.GET("/:gameID/players", s.handlePlayersStatus)
	games.POST("/:gameID/players", requireAdmin(), s.handleAddPlayer)

	return router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Client)
}
