package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"daybell/internal/models"
)

// TelegramPort delivers notifications as Telegram messages. One-shot
// triggers are armed as in-process timers; daily triggers are armed as
// cron entries at the trigger's wall-clock minute and hour.
type TelegramPort struct {
	api    *tgbotapi.BotAPI
	chatID int64
	cron   *cron.Cron

	mu     sync.Mutex
	timers map[string]*time.Timer
	crons  map[string]cron.EntryID
}

func NewTelegramPort(api *tgbotapi.BotAPI, chatID int64) *TelegramPort {
	p := &TelegramPort{
		api:    api,
		chatID: chatID,
		cron:   cron.New(),
		timers: make(map[string]*time.Timer),
		crons:  make(map[string]cron.EntryID),
	}
	p.cron.Start()
	return p
}

// Stop disarms everything and stops the cron runner. Armed triggers do
// not survive a restart; callers reschedule explicitly after startup.
func (p *TelegramPort) Stop() {
	p.mu.Lock()
	for id, timer := range p.timers {
		timer.Stop()
		delete(p.timers, id)
	}
	for id, entry := range p.crons {
		p.cron.Remove(entry)
		delete(p.crons, id)
	}
	p.mu.Unlock()
	p.cron.Stop()
}

func (p *TelegramPort) CreateChannel(ctx context.Context, channelID, displayName string) (string, error) {
	// Telegram has no notification-channel concept; the chat is the channel.
	return channelID, nil
}

func (p *TelegramPort) CreateTrigger(ctx context.Context, id string, payload Payload, tr Trigger) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Same id replaces any existing trigger.
	p.disarmLocked(id)

	if tr.Repeat == models.RepeatDaily {
		at := tr.At.Local()
		spec := fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour())
		entry, err := p.cron.AddFunc(spec, func() {
			p.deliver(id, payload)
		})
		if err != nil {
			return fmt.Errorf("failed to arm daily trigger %s: %w", id, err)
		}
		p.crons[id] = entry
		return nil
	}

	p.timers[id] = time.AfterFunc(time.Until(tr.At), func() {
		p.deliver(id, payload)
		p.mu.Lock()
		delete(p.timers, id)
		p.mu.Unlock()
	})
	return nil
}

func (p *TelegramPort) Cancel(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.disarmLocked(id) {
		return ErrNotFound
	}
	return nil
}

func (p *TelegramPort) CancelAll(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id := range p.timers {
		p.timers[id].Stop()
		delete(p.timers, id)
	}
	for id := range p.crons {
		p.cron.Remove(p.crons[id])
		delete(p.crons, id)
	}
	return nil
}

func (p *TelegramPort) RequestPermission(ctx context.Context) (bool, error) {
	// The only permission Telegram has is a working bot token.
	if _, err := p.api.GetMe(); err != nil {
		return false, fmt.Errorf("failed to reach Telegram: %w", err)
	}
	return true, nil
}

func (p *TelegramPort) disarmLocked(id string) bool {
	if timer, ok := p.timers[id]; ok {
		timer.Stop()
		delete(p.timers, id)
		return true
	}
	if entry, ok := p.crons[id]; ok {
		p.cron.Remove(entry)
		delete(p.crons, id)
		return true
	}
	return false
}

func (p *TelegramPort) deliver(id string, payload Payload) {
	text := "⏰ " + payload.Title
	if payload.Body != "" {
		text += "\n\n" + payload.Body
	}
	msg := tgbotapi.NewMessage(p.chatID, text)
	if _, err := p.api.Send(msg); err != nil {
		log.Printf("Failed to deliver notification %s: %v", id, err)
		return
	}
	log.Printf("Delivered notification %s to chat %d", id, p.chatID)
}
