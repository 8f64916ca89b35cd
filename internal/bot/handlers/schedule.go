package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daybell/internal/engine"
)

func (h *Handlers) handleSchedule(ctx context.Context, msg *tgbotapi.Message) {
	list, ok := h.activeList(msg.Chat.ID)
	if !ok {
		return
	}
	if len(list.Tasks) == 0 {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("%q has no tasks to schedule", list.Name))
		return
	}

	res, err := h.engine.RescheduleList(ctx, list.ID)
	if err != nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Scheduling failed: %v", err))
		return
	}
	h.sendMessage(msg.Chat.ID, describeResult(list.Name, res))
}

func (h *Handlers) handleCancelAll(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.engine.CancelAll(ctx); err != nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Cancelling failed: %v", err))
		return
	}
	h.sendMessage(msg.Chat.ID, "Cancelled every reminder")
}

func describeResult(listName string, res *engine.Result) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scheduled %d reminder(s) for %q", len(res.Created), listName))
	if len(res.Failures) > 0 {
		sb.WriteString(fmt.Sprintf("\n\n%d task(s) could not be scheduled:", len(res.Failures)))
		for _, failure := range res.Failures {
			sb.WriteString(fmt.Sprintf("\n- %s: %v", failure.ItemID, failure.Err))
		}
	}
	return sb.String()
}
