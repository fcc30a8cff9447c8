// Package server is the HTTP transport: thin gin handlers over the game
// service, with the {info, data} envelope the clients poll against.
package server

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/deceit-arena/backend/internal/agent"
	"github.com/deceit-arena/backend/internal/game"
)

type Server struct {
	svc    *game.Service
	store  game.Store
	agents *agent.Service
	log    zerolog.Logger
}

func New(svc *game.Service, store game.Store, agents *agent.Service, log zerolog.Logger) *Server {
	return &Server{svc: svc, store: store, agents: agents, log: log}
}

type info struct {
	OK   bool   `json:"ok"`
	Msg  string `json:"msg,omitempty"`
	Code string `json:"code,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"info": info{OK: true}, "data": data})
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := classify(err)
	s.log.Warn().Err(err).Str("path", c.Request.URL.Path).Str("code", code).Msg("request failed")
	c.JSON(status, gin.H{"info": info{OK: false, Msg: err.Error(), Code: code}})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, game.ErrAgentNotFound):
		return http.StatusNotFound, "AgentNotFound"
	case errors.Is(err, game.ErrRoomNotFound):
		return http.StatusNotFound, "RoomNotFound"
	case errors.Is(err, game.ErrPlayerNotInRoom):
		return http.StatusNotFound, "PlayerNotInRoom"
	case errors.Is(err, game.ErrIllegalTransition):
		return http.StatusConflict, "IllegalTransition"
	case errors.Is(err, game.ErrDeadPlayerAction):
		return http.StatusConflict, "DeadPlayerAction"
	case errors.Is(err, game.ErrRoomFinished):
		return http.StatusConflict, "RoomFinished"
	case errors.Is(err, game.ErrEmptyVoteTarget):
		return http.StatusBadRequest, "EmptyVoteTarget"
	case errors.Is(err, game.ErrInvalidVoteTarget):
		return http.StatusBadRequest, "InvalidVoteTarget"
	case errors.Is(err, game.ErrUnsupportedAction):
		return http.StatusBadRequest, "UnsupportedActionType"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}

func (s *Server) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")

	api.POST("/game/startMatch", s.startMatch)
	api.POST("/game/cancelMatch", s.cancelMatch)
	api.GET("/game/checkMatch", s.checkMatch)
	api.GET("/game/room/:roomId", s.roomView)
	api.POST("/game/action", s.gameAction)

	api.GET("/agent/list", s.agentList)
	api.POST("/agent/init", s.agentInit)
	api.POST("/agent/perceive", s.agentPerceive)
	api.POST("/agent/interact", s.agentInteract)
}

type agentReq struct {
	AgentID string `json:"agentId" binding:"required"`
}

func (s *Server) startMatch(c *gin.Context) {
	var req agentReq
	if err := c.BindJSON(&req); err != nil {
		return
	}
	if err := s.svc.StartMatching(c.Request.Context(), req.AgentID); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"success": true})
}

func (s *Server) cancelMatch(c *gin.Context) {
	var req agentReq
	if err := c.BindJSON(&req); err != nil {
		return
	}
	if err := s.svc.CancelMatching(c.Request.Context(), req.AgentID); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"success": true})
}

func (s *Server) checkMatch(c *gin.Context) {
	agentID := c.Query("agentId")
	if agentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"info": info{OK: false, Msg: "agentId required"}})
		return
	}
	rec := s.svc.CheckMatchStatus(agentID)
	ok(c, gin.H{"gameStatus": rec.Status, "roomId": rec.RoomID})
}

func (s *Server) roomView(c *gin.Context) {
	view, err := s.svc.Rooms().View(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, view)
}

type actionReq struct {
	RoomID     string          `json:"roomId" binding:"required"`
	AgentID    string          `json:"agentId" binding:"required"`
	Action     game.ActionType `json:"action" binding:"required"`
	Content    string          `json:"content"`
	VoteTarget string          `json:"voteToDisplayName"`
}

func (s *Server) gameAction(c *gin.Context) {
	var req actionReq
	if err := c.BindJSON(&req); err != nil {
		return
	}
	err := s.svc.Rooms().ProcessAction(c.Request.Context(), req.RoomID, game.Action{
		AgentID:    req.AgentID,
		Type:       req.Action,
		Content:    req.Content,
		VoteTarget: req.VoteTarget,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"success": true})
}

type agentListItem struct {
	AgentID     string           `json:"agentId"`
	Name        string           `json:"name"`
	Avatar      string           `json:"avatar,omitempty"`
	Score       float64          `json:"score"`
	Rank        int              `json:"rank"`
	GameCount   int              `json:"gameCount"`
	WinningRate float64          `json:"winningRate"`
	Status      game.AgentStatus `json:"status"`
}

func (s *Server) agentList(c *gin.Context) {
	agents, err := s.store.ListAgents(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Score > agents[j].Score })

	items := make([]agentListItem, 0, len(agents))
	for i, a := range agents {
		rate := 0.0
		if a.GameCount > 0 {
			rate = float64(a.WinCount) / float64(a.GameCount)
		}
		items = append(items, agentListItem{
			AgentID:     a.AgentID,
			Name:        a.Name,
			Avatar:      a.Avatar,
			Score:       a.Score,
			Rank:        i + 1,
			GameCount:   a.GameCount,
			WinningRate: rate,
			Status:      s.svc.CheckMatchStatus(a.AgentID).Status,
		})
	}
	ok(c, gin.H{"result": items, "total": len(items)})
}

func (s *Server) agentInit(c *gin.Context) {
	if err := game.SeedAgents(c.Request.Context(), s.store); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"success": true})
}

type perceiveReq struct {
	AgentID string `json:"agentId" binding:"required"`
	agent.Perception
}

func (s *Server) agentPerceive(c *gin.Context) {
	var req perceiveReq
	if err := c.BindJSON(&req); err != nil {
		return
	}
	if err := s.agents.Perceive(c.Request.Context(), req.AgentID, req.Perception); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"success": true})
}

type interactReq struct {
	AgentID string   `json:"agentId" binding:"required"`
	Kind    string   `json:"status" binding:"required"`
	Choices []string `json:"choices"`
}

func (s *Server) agentInteract(c *gin.Context) {
	var req interactReq
	if err := c.BindJSON(&req); err != nil {
		return
	}
	var (
		result string
		err    error
	)
	switch req.Kind {
	case "round":
		result, err = s.agents.Speech(c.Request.Context(), req.AgentID)
	case "vote":
		result, err = s.agents.Vote(c.Request.Context(), req.AgentID, req.Choices)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"info": info{OK: false, Msg: "unsupported status"}})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"result": result})
}
