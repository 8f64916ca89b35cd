package handlers

import (
	"context"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"daybell/internal/ai"
	"daybell/internal/engine"
	"daybell/internal/models"
)

type Handlers struct {
	api    *tgbotapi.BotAPI
	engine *engine.Engine
	ai     *ai.Client
}

func New(api *tgbotapi.BotAPI, eng *engine.Engine, aiClient *ai.Client) *Handlers {
	return &Handlers{
		api:    api,
		engine: eng,
		ai:     aiClient,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(msg)
	case "help":
		h.handleHelp(msg)
	case "lists":
		h.handleLists(msg)
	case "newlist":
		h.handleNewList(ctx, msg)
	case "dellist":
		h.handleDelList(ctx, msg)
	case "use":
		h.handleUse(msg)
	case "tasks":
		h.handleTasks(msg)
	case "add":
		h.handleAdd(ctx, msg)
	case "edit":
		h.handleEdit(ctx, msg)
	case "del":
		h.handleDel(ctx, msg)
	case "upcoming":
		h.handleUpcoming(msg)
	case "schedule":
		h.handleSchedule(ctx, msg)
	case "cancelall":
		h.handleCancelAll(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "Unknown command, see /help")
	}
}

func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if h.ai == nil {
		h.sendMessage(msg.Chat.ID, "I only understand commands, see /help")
		return
	}
	h.handleAIMessage(ctx, msg)
}

func (h *Handlers) handleStart(msg *tgbotapi.Message) {
	h.sendMessage(msg.Chat.ID, "Daybell keeps lists of timed tasks and pings you when they are due.\n\nSee /help for commands.")
}

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	help := `Lists:
/lists - show all lists
/newlist <name> - create a list
/dellist <n> - delete list n (cancels its reminders)
/use <n> - switch the active list

Tasks (on the active list):
/tasks - show tasks
/add HH:MM <label> - add a daily task
/add HH:MM once <label> - add a one-shot task
/edit <n> HH:MM <label> - change task n
/del <n> - delete task n (cancels its reminder)
/upcoming - next firing times

Scheduling:
/schedule - cancel everything, then schedule the active list
/cancelall - cancel every reminder`
	h.sendMessage(msg.Chat.ID, help)
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

// activeList resolves the currently active list, complaining to the user
// when there is none yet.
func (h *Handlers) activeList(chatID int64) (models.TaskList, bool) {
	id := h.engine.ActiveListID()
	if id == "" {
		h.sendMessage(chatID, "No lists yet, create one with /newlist <name>")
		return models.TaskList{}, false
	}
	for _, list := range h.engine.Lists() {
		if list.ID == id {
			return list, true
		}
	}
	h.sendMessage(chatID, "Active list is gone, pick one with /use")
	return models.TaskList{}, false
}

// nthList resolves a 1-based list number as printed by /lists.
func (h *Handlers) nthList(chatID int64, arg string) (models.TaskList, bool) {
	lists := h.engine.Lists()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(lists) {
		h.sendMessage(chatID, "Give a list number from /lists")
		return models.TaskList{}, false
	}
	return lists[n-1], true
}

// nthTask resolves a 1-based task number on the active list.
func (h *Handlers) nthTask(chatID int64, list models.TaskList, arg string) (models.Task, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(list.Tasks) {
		h.sendMessage(chatID, "Give a task number from /tasks")
		return models.Task{}, false
	}
	return list.Tasks[n-1], true
}
