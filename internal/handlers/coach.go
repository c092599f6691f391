package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
	"github.com/JacksonLee45/stride-sync-sub000/internal/requestdata"
	"github.com/JacksonLee45/stride-sync-sub000/internal/services"
	"github.com/JacksonLee45/stride-sync-sub000/internal/types"
)

type CoachHandler struct {
	log   *logger.Logger
	coach services.CoachService
}

func NewCoachHandler(log *logger.Logger, coach services.CoachService) *CoachHandler {
	return &CoachHandler{
		log:   log.With("handler", "CoachHandler"),
		coach: coach,
	}
}

type coachRequest struct {
	Messages []types.Message `json:"messages"`
}

// Coach handles POST /api/coach: it streams newline-delimited StreamEvent
// JSON objects back to the caller, flushed per event, until exactly one
// terminal complete or error event.
func (h *CoachHandler) Coach(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req coachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "messages required"})
		return
	}
	for _, m := range req.Messages {
		if m.Role != types.RoleUser && m.Role != types.RoleAssistant && m.Role != types.RoleSystem {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid message role: " + m.Role})
			return
		}
	}

	c.Writer.Header().Set("Content-Type", "application/x-ndjson")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	enc := json.NewEncoder(c.Writer)
	emit := func(ev types.StreamEvent) error {
		if err := enc.Encode(ev); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	}

	if err := h.coach.Stream(c.Request.Context(), rd.UserID, req.Messages, emit); err != nil {
		// Headers are gone; all we can do is log the broken pipe.
		fields := []interface{}{"user_id", rd.UserID, "error", err}
		if td := requestdata.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		h.log.Debug("Coach stream ended early", fields...)
	}
}

// ListConversations handles GET /api/coach/conversations.
func (h *CoachHandler) ListConversations(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	records, err := h.coach.ListConversations(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		h.log.Error("Failed to list conversations", "user_id", rd.UserID, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": records})
}
