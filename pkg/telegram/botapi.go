package telegram

import (
	"context"
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tutordex/aggregator/pkg/config"
)

// BotAPISender is the Sender implementation used by pkg/delivery for
// channel broadcasts and per-tutor DMs (spec §4.9). Only a manifest-only
// reference to this library exists in the pack (other_examples/manifests/
// lueurxax-TelegramDigestBot), so the call shape follows the library's
// own documented public API (noted in DESIGN.md).
type BotAPISender struct {
	bot *tgbotapi.BotAPI
}

// NewBotAPISender builds a Sender from the bot token named by
// cfg.BotTokenEnv.
func NewBotAPISender(cfg *config.TelegramConfig) (*BotAPISender, error) {
	token := os.Getenv(cfg.BotTokenEnv)
	if token == "" {
		return nil, fmt.Errorf("telegram: %s is not set", cfg.BotTokenEnv)
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: creating bot API client: %w", err)
	}
	return &BotAPISender{bot: bot}, nil
}

// SendBroadcast posts html to the channel configured for broadcasts
// (spec §4.9 "Telegram broadcast").
func (s *BotAPISender) SendBroadcast(ctx context.Context, chatID int64, html string) error {
	return s.send(ctx, chatID, html)
}

// SendDM sends html to an individual tutor's chat (spec §4.9
// "matcher-driven per-tutor DM").
func (s *BotAPISender) SendDM(ctx context.Context, chatID int64, html string) error {
	return s.send(ctx, chatID, html)
}

func (s *BotAPISender) send(ctx context.Context, chatID int64, html string) error {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := s.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram: sending to chat %d: %w", chatID, err)
	}
	return nil
}
