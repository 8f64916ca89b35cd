package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daybell/internal/engine"
	"daybell/internal/models"
	"daybell/internal/occurrence"
	"daybell/internal/timespec"
)

func (h *Handlers) handleTasks(msg *tgbotapi.Message) {
	list, ok := h.activeList(msg.Chat.ID)
	if !ok {
		return
	}
	if len(list.Tasks) == 0 {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("%q has no tasks, add one with /add HH:MM <label>", list.Name))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n\n", list.Name))
	for i, task := range list.Tasks {
		display := task.Time
		if tod, err := timespec.Parse(task.Time); err == nil {
			display = timespec.Format12(tod)
		}
		suffix := ""
		if task.Repeat != models.RepeatDaily {
			suffix = " (once)"
		}
		sb.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, display, task.Label, suffix))
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleAdd(ctx context.Context, msg *tgbotapi.Message) {
	list, ok := h.activeList(msg.Chat.ID)
	if !ok {
		return
	}

	parts := strings.SplitN(strings.TrimSpace(msg.CommandArguments()), " ", 2)
	if len(parts) < 2 {
		h.sendMessage(msg.Chat.ID, "Usage: /add HH:MM <label>")
		return
	}
	timeRaw, label := parts[0], strings.TrimSpace(parts[1])

	repeat := models.RepeatDaily
	if rest, found := strings.CutPrefix(label, "once "); found {
		repeat = models.RepeatNone
		label = strings.TrimSpace(rest)
	}

	task, err := h.engine.AddTask(ctx, list.ID, timeRaw, label, repeat)
	switch {
	case errors.Is(err, timespec.ErrInvalidFormat):
		h.sendMessage(msg.Chat.ID, "Time must be 24-hour HH:MM, e.g. 07:30 or 21:15")
		return
	case errors.Is(err, engine.ErrEmptyLabel):
		h.sendMessage(msg.Chat.ID, "The task needs a label")
		return
	case err != nil:
		h.sendMessage(msg.Chat.ID, "Added the task but saving failed, it may not survive a restart")
		return
	}

	tod, _ := timespec.Parse(task.Time)
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("Added %q at %s. Run /schedule to arm reminders.", task.Label, timespec.Format12(tod)))
}

func (h *Handlers) handleEdit(ctx context.Context, msg *tgbotapi.Message) {
	list, ok := h.activeList(msg.Chat.ID)
	if !ok {
		return
	}

	parts := strings.SplitN(strings.TrimSpace(msg.CommandArguments()), " ", 3)
	if len(parts) < 3 {
		h.sendMessage(msg.Chat.ID, "Usage: /edit <n> HH:MM <label>")
		return
	}
	task, ok := h.nthTask(msg.Chat.ID, list, parts[0])
	if !ok {
		return
	}

	updated, err := h.engine.UpdateTask(ctx, list.ID, task.ID, parts[1], parts[2])
	switch {
	case errors.Is(err, timespec.ErrInvalidFormat):
		h.sendMessage(msg.Chat.ID, "Time must be 24-hour HH:MM, e.g. 07:30 or 21:15")
		return
	case errors.Is(err, engine.ErrEmptyLabel):
		h.sendMessage(msg.Chat.ID, "The task needs a label")
		return
	case err != nil:
		h.sendMessage(msg.Chat.ID, "Updated the task but saving failed, it may not survive a restart")
		return
	}

	h.sendMessage(msg.Chat.ID, fmt.Sprintf("Updated %q. Run /schedule to refresh reminders.", updated.Label))
}

func (h *Handlers) handleDel(ctx context.Context, msg *tgbotapi.Message) {
	list, ok := h.activeList(msg.Chat.ID)
	if !ok {
		return
	}
	task, ok := h.nthTask(msg.Chat.ID, list, strings.TrimSpace(msg.CommandArguments()))
	if !ok {
		return
	}

	if err := h.engine.DeleteTask(ctx, list.ID, task.ID); err != nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Failed to delete %q: %v", task.Label, err))
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("Deleted %q and cancelled its reminder", task.Label))
}

func (h *Handlers) handleUpcoming(msg *tgbotapi.Message) {
	list, ok := h.activeList(msg.Chat.ID)
	if !ok {
		return
	}
	if len(list.Tasks) == 0 {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("%q has no tasks", list.Name))
		return
	}

	now := time.Now()
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Next firings for %q\n\n", list.Name))
	for _, task := range list.Tasks {
		occurrences, err := occurrence.Upcoming(&task, now, 2)
		if err != nil || len(occurrences) == 0 {
			sb.WriteString(fmt.Sprintf("%s: unavailable\n", task.Label))
			continue
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", task.Label, occurrences[0].Format("Mon 15:04")))
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}
