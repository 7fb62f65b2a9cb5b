package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	toolx "github.com/Satyam6024/superbryn-agent/agent/tool"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "superbryn-agent",
	})
}

type tokenRequest struct {
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
	UserTimezone    string `json:"user_timezone"`
}

// generateToken mints a LiveKit join token, inventing a room and participant
// name when the client supplies none.
func (s *Server) generateToken(c *gin.Context) {
	var req tokenRequest
	// Body is optional; every field has a fallback.
	_ = c.ShouldBindJSON(&req)

	if req.RoomName == "" {
		req.RoomName = "bryn-room-" + time.Now().UTC().Format("20060102150405")
	}
	if req.ParticipantName == "" {
		req.ParticipantName = "user-" + uuid.NewString()
	}
	if req.UserTimezone == "" {
		req.UserTimezone = "UTC"
	}

	token, err := s.livekit.MintToken(req.RoomName, req.ParticipantName)
	if err != nil {
		log.Error().Err(err).Msg("token minting failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":            token,
		"room_name":        req.RoomName,
		"participant_name": req.ParticipantName,
		"user_timezone":    req.UserTimezone,
	})
}

func (s *Server) conversationHistory(c *gin.Context) {
	phone := toolx.NormalizePhone(c.Param("phone"))
	if phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone number required"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	summaries, err := s.store.GetConversationHistory(c.Request.Context(), phone, limit)
	if err != nil {
		log.Error().Err(err).Str("phone", phone).Msg("history lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	conversations := make([]map[string]any, 0, len(summaries))
	for i := range summaries {
		conversations = append(conversations, summaries[i].DisplayDict())
	}

	c.JSON(http.StatusOK, gin.H{
		"phone":         toolx.FormatPhoneDisplay(phone),
		"conversations": conversations,
	})
}

func (s *Server) adminAuth(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authentication failed"})
		return
	}

	if req.Password != s.cfg.AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

func (s *Server) allAppointments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	appointments, err := s.store.GetAllAppointments(c.Request.Context(), limit, offset)
	if err != nil {
		log.Error().Err(err).Msg("appointment listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch appointments"})
		return
	}

	total, err := s.store.CountAppointments(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("appointment count failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch appointments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"appointments": appointments,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

func (s *Server) adminStats(c *gin.Context) {
	total, err := s.store.CountAppointments(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("stats total failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	byStatus, err := s.store.CountAppointmentsByStatus(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("stats by status failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_appointments": total,
		"stats":              byStatus,
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
	})
}
