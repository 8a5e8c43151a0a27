package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vibez.app/engine/common/llm"
	"vibez.app/engine/internal/model"
)

// Intelligence is the slice of the engine the chat agent needs: message
// retrieval for the question and the latest briefing for context.
type Intelligence interface {
	Search(ctx context.Context, now time.Time, query string, days, limit int) ([]model.Message, error)
	LatestReport(ctx context.Context) (*model.Report, error)
}

const chatSystemPrompt = `You are a chat analyst for a group-chat ecosystem.
You answer questions about what's happening in the group chats, who said what,
trending topics, and help the reader understand conversations they may have missed.

Be concise, specific, and cite who said what when relevant. If you don't have
enough context to answer, say so clearly.`

// ChatService answers free-text questions about recent chat activity by
// grounding the LLM in retrieved messages and the latest briefing.
type ChatService struct {
	intel    Intelligence
	llm      llm.Client
	lookback int
}

func NewChatService(intel Intelligence, client llm.Client, lookbackDays int) *ChatService {
	return &ChatService{intel: intel, llm: client, lookback: lookbackDays}
}

// Ask answers question using messages from the lookback window ending at
// now. days <= 0 uses the configured chat lookback.
func (c *ChatService) Ask(ctx context.Context, now time.Time, question string, days int) (string, error) {
	if c.llm == nil {
		return "", fmt.Errorf("chat model not configured")
	}
	if days <= 0 {
		days = c.lookback
	}

	messages, err := c.intel.Search(ctx, now, question, days, 0)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}

	briefingBlock := ""
	if latest, err := c.intel.LatestReport(ctx); err != nil {
		return "", fmt.Errorf("loading briefing context: %w", err)
	} else if latest != nil && latest.BriefingMD != "" {
		briefingBlock = fmt.Sprintf("Latest briefing (%s):\n%s\n\n", latest.Date, clip(latest.BriefingMD, 2000))
	}

	var msgBlock strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&msgBlock, "[%s] [%s] %s: %s\n",
			m.Timestamp.Format("2006-01-02 15:04"), m.RoomName, m.SenderName, clip(m.Body, 300))
	}
	context := msgBlock.String()
	if context == "" {
		context = "(no matching messages found)"
	}

	prompt := fmt.Sprintf(`Question: %s

%sRelevant messages:
%s

Answer the question based on the messages and briefing above.`, question, briefingBlock, context)

	answer, err := c.llm.Complete(ctx, llm.Request{
		SystemPrompt: chatSystemPrompt,
		UserPrompt:   prompt,
	})
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}

	slog.InfoContext(ctx, "chat question answered",
		"context_messages", len(messages),
		"answer_chars", len(answer))
	return answer, nil
}
