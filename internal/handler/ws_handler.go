package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/examtaker/examtaker-backend/internal/config"
	"github.com/examtaker/examtaker-backend/internal/middleware"
	"github.com/examtaker/examtaker-backend/internal/service"
	ws "github.com/examtaker/examtaker-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

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

// WSHandler streams live leaderboard updates over WebSocket.
type WSHandler struct {
	rdb         *redis.Client
	leaderboard *service.LeaderboardService
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, leaderboard *service.LeaderboardService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:         rdb,
		leaderboard: leaderboard,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// LeaderboardStream godoc
// WS /ws/v1/exams/:exam_id/leaderboard
// Sends a snapshot on connect, then pushes fresh standings whenever the
// exam's board is reranked. Clients may also send refresh and ping actions.
func (h *WSHandler) LeaderboardStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exam ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("exam_id", examID.String()).
		Logger()
	wsLog.Info().Msg("Leaderboard stream connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	if err := h.pushStandings(ctx, conn, examID, ws.EventSnapshot); err != nil {
		wsLog.Warn().Err(err).Msg("Initial snapshot failed")
		return
	}

	channel := config.CacheKey.ExamLeaderboardChannel(examID.String())
	sub := h.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	// Reader goroutine: serves ping/refresh and detects disconnects.
	events := make(chan ws.Action)
	go func() {
		defer close(events)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				cancel()
				return
			}
			select {
			case events <- msg.Action:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Leaderboard stream closed")
			return

		case <-sub.Channel():
			if err := h.pushStandings(ctx, conn, examID, ws.EventUpdate); err != nil {
				wsLog.Warn().Err(err).Msg("Push update failed")
				return
			}

		case action, ok := <-events:
			if !ok {
				return
			}
			switch action {
			case ws.ActionPing:
				if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
					return
				}
			case ws.ActionRefresh:
				if err := h.pushStandings(ctx, conn, examID, ws.EventSnapshot); err != nil {
					return
				}
			default:
				ws.WriteError(conn, "unknown action")
			}
		}
	}
}

func (h *WSHandler) pushStandings(ctx context.Context, conn *websocket.Conn, examID uuid.UUID, event ws.Event) error {
	entries, err := h.leaderboard.TopByExam(ctx, examID, 10)
	if err != nil {
		ws.WriteError(conn, "failed to load leaderboard")
		return err
	}
	return ws.WriteTyped(conn, ws.LeaderboardResponse{
		Event:   event,
		ExamID:  examID.String(),
		Entries: entries,
	})
}
