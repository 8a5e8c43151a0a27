package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vibez.app/engine/internal/http/dto"
)

type Asker interface {
	Ask(ctx context.Context, now time.Time, question string, days int) (string, error)
}

type ChatHandler struct {
	chat Asker
}

func NewChatHandler(chat Asker) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid chat request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.chat.Ask(ctx, time.Now().UTC(), req.Question, req.LookbackDays)
	if err != nil {
		slog.ErrorContext(ctx, "chat failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer question"})
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{Answer: answer})
}
