package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/middleware"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
)

const clockPushInterval = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// ClockHandler streams a session's remaining time over WebSocket. The
// stream is read-only derived state: each push recomputes the remaining
// seconds from the stored deadline, and the socket closing or the timer
// running out never writes anything back. Expiry stays lazy.
type ClockHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewClockHandler creates a new ClockHandler.
func NewClockHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *ClockHandler {
	return &ClockHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "clock_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

type clockTick struct {
	SessionID        string `json:"session_id"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Expired          bool   `json:"expired"`
}

// SessionClockStream godoc
// WS /ws/v1/sessions/:session_id/clock
// Pushes the remaining seconds every few seconds until the session
// expires or the client disconnects.
func (h *ClockHandler) SessionClockStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.GetOwnedUsable(c.Request.Context(), sessionID, claims.ParticipantID)
	if err != nil {
		failFromErr(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Str("session_id", sessionID.String()).
		Int64("participant_id", claims.ParticipantID).
		Logger()
	wsLog.Debug().Msg("clock stream connected")

	// Drain incoming frames so pongs and client closes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(clockPushInterval)
	defer ticker.Stop()

	for {
		remaining := time.Until(session.ExpiresAt)
		tick := clockTick{
			SessionID:        sessionID.String(),
			RemainingSeconds: int64(remaining.Seconds()),
			Expired:          remaining <= 0,
		}
		if tick.RemainingSeconds < 0 {
			tick.RemainingSeconds = 0
		}

		conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(tick); err != nil {
			wsLog.Debug().Msg("clock stream closed")
			return
		}
		if tick.Expired {
			wsLog.Debug().Msg("session deadline reached, closing stream")
			return
		}

		select {
		case <-ticker.C:
		case <-c.Request.Context().Done():
			return
		}
	}
}
