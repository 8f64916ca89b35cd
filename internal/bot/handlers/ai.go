package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daybell/internal/models"
)

func (h *Handlers) handleAIMessage(ctx context.Context, msg *tgbotapi.Message) {
	intent, err := h.ai.ParseIntent(ctx, msg.Text)
	if err != nil {
		log.Printf("Failed to parse intent: %v", err)
		h.sendMessage(msg.Chat.ID, "I could not work out what you meant, try /help")
		return
	}

	switch intent.Action {
	case "add_task":
		h.aiAddTask(ctx, msg, intent.Parameters)
	case "delete_task":
		h.aiDeleteTask(ctx, msg, intent.Parameters)
	case "list_tasks":
		h.handleTasks(msg)
	case "schedule":
		h.handleSchedule(ctx, msg)
	case "cancel_all":
		h.handleCancelAll(ctx, msg)
	default:
		reply := intent.Reply
		if reply == "" {
			reply = "I can add, delete and schedule timed tasks, see /help"
		}
		h.sendMessage(msg.Chat.ID, reply)
	}
}

func (h *Handlers) aiAddTask(ctx context.Context, msg *tgbotapi.Message, params map[string]string) {
	list, ok := h.activeList(msg.Chat.ID)
	if !ok {
		return
	}

	timeRaw, label := params["time"], params["task"]
	if timeRaw == "" || label == "" {
		h.sendMessage(msg.Chat.ID, "Tell me both a time and a task, e.g. \"remind me to stretch at 16:00\"")
		return
	}

	task, err := h.engine.AddTask(ctx, list.ID, timeRaw, label, models.RepeatDaily)
	if err != nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("Could not add the task: %v", err))
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("Added %q at %s. Run /schedule to arm reminders.", task.Label, task.Time))
}

func (h *Handlers) aiDeleteTask(ctx context.Context, msg *tgbotapi.Message, params map[string]string) {
	list, ok := h.activeList(msg.Chat.ID)
	if !ok {
		return
	}

	needle := strings.ToLower(strings.TrimSpace(params["task"]))
	if needle == "" {
		h.sendMessage(msg.Chat.ID, "Which task should I delete?")
		return
	}

	for _, task := range list.Tasks {
		if strings.Contains(strings.ToLower(task.Label), needle) {
			if err := h.engine.DeleteTask(ctx, list.ID, task.ID); err != nil {
				h.sendMessage(msg.Chat.ID, fmt.Sprintf("Failed to delete %q: %v", task.Label, err))
				return
			}
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("Deleted %q and cancelled its reminder", task.Label))
			return
		}
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("No task matching %q on %q", needle, list.Name))
}
