package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"explain-it/internal/game"
)

type joinRequest struct {
	Code string `json:"code" binding:"required,roomcode"`
	Name string `json:"name" binding:"omitempty,playername"`
}

type addPlayerRequest struct {
	ID       string `json:"id" binding:"required,max=128"`
	Name     string `json:"name" binding:"required,playername"`
	Accepted bool   `json:"accepted"`
}

var joinMessages = bindMessages{
	"Code": {
		"required": "code is required",
		"roomcode": "code must be numeric",
	},
	"Name": {
		"playername": "name contains unsupported characters",
	},
}

var addPlayerMessages = bindMessages{
	"ID": {
		"required": "id is required",
	},
	"Name": {
		"required":   "name is required",
		"playername": "name contains unsupported characters",
	},
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req game.CreateRequest
	if !bindJSON(c, &req, nil, "invalid game") {
		return
	}
	caller := identityFrom(c)
	for i := range req.Players {
		if req.Players[i].Name == "" {
			continue
		}
		name, err := validateName(req.Players[i].Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.Players[i].Name = name
	}
	created, err := s.svc.CreateGame(c.Request.Context(), caller, req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleJoinGame(c *gin.Context) {
	var req joinRequest
	if !bindJSON(c, &req, joinMessages, "invalid join request") {
		return
	}
	code, _ := validateCode(req.Code)
	name := normalizeText(req.Name)
	session, err := s.svc.JoinGame(c.Request.Context(), code, identityFrom(c), name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleListMyGames(c *gin.Context) {
	games, err := s.svc.ListMyGames(c.Request.Context(), identityFrom(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (s *Server) handleGetFull(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	session, err := s.svc.GetFull(c.Request.Context(), gameID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleUpdateFull(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	var update game.FullUpdate
	if !bindJSON(c, &update, nil, "invalid game state") {
		return
	}
	result, err := s.svc.UpdateFull(c.Request.Context(), gameID, identityFrom(c).ID, update)
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeResult(c, result)
}

func (s *Server) handleGetFrequent(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	frequent, err := s.svc.GetFrequent(c.Request.Context(), gameID, identityFrom(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, frequent)
}

func (s *Server) handleUpdateFrequent(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	var update game.Frequent
	if !bindJSON(c, &update, nil, "invalid game state") {
		return
	}
	result, err := s.svc.UpdateFrequent(c.Request.Context(), gameID, update)
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeResult(c, result)
}

func (s *Server) handleAcceptGame(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	session, err := s.svc.AcceptGame(c.Request.Context(), gameID, identityFrom(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleRejectGame(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	if err := s.svc.RejectGame(c.Request.Context(), gameID, identityFrom(c).ID); err != nil {
		s.writeError(c, err)
		return
	}
	writeResult(c, game.ResultApplied)
}

func (s *Server) handlePlayersStatus(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	status, err := s.svc.GetPlayersStatus(c.Request.Context(), gameID, identityFrom(c).ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) handleAddPlayer(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	var req addPlayerRequest
	if !bindJSON(c, &req, addPlayerMessages, "invalid player") {
		return
	}
	player := game.Player{
		ID:       req.ID,
		Name:     normalizeText(req.Name),
		Accepted: req.Accepted,
	}
	if err := s.svc.AddPlayer(c.Request.Context(), gameID, player); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": game.ResultApplied.String()})
}

func (s *Server) handleDeleteGame(c *gin.Context) {
	gameID, ok := bindGameID(c)
	if !ok {
		return
	}
	if err := s.svc.DeleteGame(c.Request.Context(), gameID, identityFrom(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
