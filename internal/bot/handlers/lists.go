package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *Handlers) handleLists(msg *tgbotapi.Message) {
	lists := h.engine.Lists()
	if len(lists) == 0 {
		h.sendMessage(msg.Chat.ID, "No lists yet, create one with /newlist <name>")
		return
	}

	active := h.engine.ActiveListID()
	var sb strings.Builder
	sb.WriteString("Lists\n\n")
	for i, list := range lists {
		marker := "  "
		if list.ID == active {
			marker = "* "
		}
		sb.WriteString(fmt.Sprintf("%s%d. %s (%d tasks)\n", marker, i+1, list.Name, len(list.Tasks)))
	}
	sb.WriteString("\n* marks the active list, switch with /use <n>")
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleNewList(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /newlist <name>")
		return
	}

	list, err := h.engine.AddList(ctx, name)
	if err != nil {
		h.sendMessage(msg.Chat.ID, "Created the list but saving failed, it may not survive a restart")
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("Created list %q", list.Name))
}

func (h *Handlers) handleDelList(ctx context.Context, msg *tgbotapi.Message) {
	list, ok := h.nthList(msg.Chat.ID, strings.TrimSpace(msg.CommandArguments()))
	if !ok {
		return
	}

	if err := h.engine.DeleteList(ctx, list.ID); err != nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Failed to delete %q: %v", list.Name, err))
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("Deleted list %q and cancelled its reminders", list.Name))
}

func (h *Handlers) handleUse(msg *tgbotapi.Message) {
	list, ok := h.nthList(msg.Chat.ID, strings.TrimSpace(msg.CommandArguments()))
	if !ok {
		return
	}

	if err := h.engine.SetActiveList(list.ID); err != nil {
		h.sendMessage(msg.Chat.ID, "That list no longer exists")
		return
	}
	// Reminders of the previous list stay live until rescheduled.
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("Active list is now %q", list.Name))
}
