package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"vibez.app/engine/internal/http/dto"
	"vibez.app/engine/internal/queue"
)

// SynthesisHandler accepts on-demand synthesis runs and hands them to
// the worker via the request stream.
type SynthesisHandler struct {
	producer queue.Producer
}

func NewSynthesisHandler(producer queue.Producer) *SynthesisHandler {
	return &SynthesisHandler{producer: producer}
}

func (h *SynthesisHandler) Run(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RunSynthesisRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		slog.WarnContext(ctx, "invalid synthesis request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}

	msg := queue.RequestMessage{Date: date}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		msg.TraceID = sc.TraceID().String()
	}

	if err := h.producer.Enqueue(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue synthesis request", "error", err, "report_date", date)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue synthesis"})
		return
	}

	c.JSON(http.StatusAccepted, dto.RunSynthesisResponse{Date: date, Enqueued: true})
}
