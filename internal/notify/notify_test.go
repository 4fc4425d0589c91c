package notify

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, f.err
}

func TestTelegramSend(t *testing.T) {
	fake := &fakeSender{}
	n := &TelegramNotifier{bot: fake, chatID: 42}

	n.send("*João* entrou")

	if len(fake.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.sent))
	}
	if fake.sent[0].ChatID != 42 || fake.sent[0].Text != "*João* entrou" {
		t.Fatalf("unexpected message %+v", fake.sent[0])
	}
}

func TestTelegramSendErrorIsSwallowed(t *testing.T) {
	n := &TelegramNotifier{bot: &fakeSender{err: errors.New("chat not found")}, chatID: 42}
	n.send("x")
}

func TestNewWithoutTokenIsNoop(t *testing.T) {
	if _, ok := New("", 1).(Noop); !ok {
		t.Fatalf("expected Noop notifier")
	}
}
