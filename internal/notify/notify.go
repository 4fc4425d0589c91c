// Package notify sends site events to the supervisors' chat
package notify

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers a short message. Failures are logged, never returned.
type Notifier interface {
	Notify(message string)
}

// Noop drops every message; used when no bot token is configured
type Noop struct{}

func (Noop) Notify(string) {}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts to one chat
type TelegramNotifier struct {
	bot    sender
	chatID int64
}

// NewTelegramNotifier authorizes the bot token
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("[Notify] Authorized on account %s", bot.Self.UserName)

	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Notify sends in the background so a slow chat API never delays a scan
func (t *TelegramNotifier) Notify(message string) {
	if t.chatID == 0 {
		return
	}
	go t.send(message)
}

func (t *TelegramNotifier) send(message string) {
	msg := tgbotapi.NewMessage(t.chatID, message)
	msg.ParseMode = "Markdown"
	if _, err := t.bot.Send(msg); err != nil {
		log.Printf("[Notify] Failed to send: %v", err)
	}
}

// New picks the Telegram notifier when a token is set and falls back to Noop
func New(token string, chatID int64) Notifier {
	if token == "" {
		return Noop{}
	}
	n, err := NewTelegramNotifier(token, chatID)
	if err != nil {
		log.Printf("[Notify] Telegram disabled: %v", err)
		return Noop{}
	}
	return n
}

var (
	_ Notifier = Noop{}
	_ Notifier = (*TelegramNotifier)(nil)
)
