package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
	"gopkg.in/telebot.v3"
)

var ErrTelegramNotConfigured = errors.New("telegram bot token and chat id are required")

// TelegramClient is the part of *telebot.Bot the sender needs.
type TelegramClient interface {
	ChatByID(id int64) (*telebot.Chat, error)
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

type TelegramSender struct {
	client TelegramClient
	chatID int64
}

// NewTelegramBot builds a send-only bot; it never polls for updates.
func NewTelegramBot(token string) (*telebot.Bot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTelegramNotConfigured
	}
	bot, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Offline: true,
		Client:  &http.Client{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return bot, nil
}

func NewTelegramSender(client TelegramClient, chatID int64) (*TelegramSender, error) {
	if client == nil || chatID == 0 {
		return nil, ErrTelegramNotConfigured
	}
	return &TelegramSender{client: client, chatID: chatID}, nil
}

func (sender *TelegramSender) Channel() string {
	return ChannelTelegram
}

// Authorize checks that the bot can reach the configured chat.
func (sender *TelegramSender) Authorize(context.Context) (services.AuthResult, error) {
	if _, err := sender.client.ChatByID(sender.chatID); err != nil {
		return services.AuthResult{Granted: false, Reason: err.Error()}, nil
	}
	return services.AuthResult{Granted: true}, nil
}

func (sender *TelegramSender) Send(ctx context.Context, reminder models.PendingReminder) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := sender.client.Send(
		&telebot.Chat{ID: sender.chatID},
		formatReminderText(reminder),
		&telebot.SendOptions{DisableWebPagePreview: true},
	)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
