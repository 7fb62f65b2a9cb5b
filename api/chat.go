package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Satyam6024/superbryn-agent/agent/orchestrator"
	"github.com/Satyam6024/superbryn-agent/pkg/avatar"
)

// chatRegistry tracks live text-channel sessions by id. The realtime voice
// transport is external; this surface drives the same orchestrator over
// plain HTTP for web chat and debugging.
type chatRegistry struct {
	mu       sync.Mutex
	sessions map[string]*orchestrator.Session
}

func newChatRegistry() *chatRegistry {
	return &chatRegistry{sessions: make(map[string]*orchestrator.Session)}
}

func (r *chatRegistry) add(s *orchestrator.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *chatRegistry) get(id string) *orchestrator.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

func (r *chatRegistry) remove(id string) *orchestrator.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[id]
	delete(r.sessions, id)
	return s
}

func (s *Server) startChat(c *gin.Context) {
	var req struct {
		UserTimezone string `json:"user_timezone"`
		RoomName     string `json:"room_name"`
	}
	_ = c.ShouldBindJSON(&req)

	hooks, avatarSession := s.avatarHooks(c, req.RoomName)
	session := s.sessions.NewSession(hooks, req.UserTimezone)
	s.chats.add(session)

	log.Info().Str("session_id", session.ID).Msg("chat session started")
	resp := gin.H{
		"session_id": session.ID,
		"greeting":   session.Greeting(),
	}
	if avatarSession != nil {
		resp["avatar"] = avatarSession
	}
	c.JSON(http.StatusOK, resp)
}

// avatarHooks creates an avatar render session for the room and returns
// hooks that mirror the conversation into avatar states: thinking while a
// tool runs, speaking when a reply goes out. Without an avatar client or a
// room the hooks are empty.
func (s *Server) avatarHooks(c *gin.Context, roomName string) (orchestrator.Hooks, *avatar.Session) {
	if s.avatar == nil || roomName == "" {
		return orchestrator.Hooks{}, nil
	}

	avatarSession, err := s.avatar.CreateSession(c.Request.Context(), roomName)
	if err != nil {
		log.Warn().Err(err).Str("room", roomName).Msg("avatar session unavailable")
		return orchestrator.Hooks{}, nil
	}

	guard := avatar.NewStateGuard(s.avatar, avatarSession.SessionID)
	ctx := context.WithoutCancel(c.Request.Context())
	return orchestrator.Hooks{
		OnToolCall: func(map[string]any) { guard.OnToolCall(ctx) },
		Speak: func(string) {
			guard.OnAgentSpeaking(ctx)
			guard.OnAgentStopped(ctx)
		},
	}, avatarSession
}

func (s *Server) chatMessage(c *gin.Context) {
	session := s.chats.get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message text required"})
		return
	}

	reply, err := session.HandleUserTurn(c.Request.Context(), req.Text)
	if err != nil {
		log.Error().Err(err).Str("session_id", session.ID).Msg("chat turn failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
		return
	}

	done := session.ShouldEnd()
	if done {
		s.chats.remove(session.ID)
		session.End(c.Request.Context())
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": reply,
		"done":  done,
	})
}

func (s *Server) endChat(c *gin.Context) {
	session := s.chats.remove(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	summary := session.End(c.Request.Context())
	resp := gin.H{"ended": true}
	if summary != nil {
		resp["summary"] = summary.DisplayDict()
	}
	c.JSON(http.StatusOK, resp)
}
