package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/username/hurma-bot/internal/digest"
	"github.com/username/hurma-bot/pkg/dateutil"
)

// TelegramOptions configures TelegramNotifier
type TelegramOptions struct {
	BotToken    string
	ChatID      string // numeric id or @channel
	APIEndpoint string // optional, format "https://host/bot%s/%s"
	SkipEmpty   bool
}

// TelegramNotifier posts the rendered digest to a Telegram chat
type TelegramNotifier struct {
	api       *tgbotapi.BotAPI
	chatID    string
	skipEmpty bool
	renderer  *Renderer
	logger    *zap.Logger
}

// NewTelegramNotifier authorizes the bot and returns a notifier
func NewTelegramNotifier(opts TelegramOptions, renderer *Renderer, logger *zap.Logger) (*TelegramNotifier, error) {
	if opts.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	if opts.ChatID == "" {
		return nil, fmt.Errorf("telegram chat id is empty")
	}

	var (
		api *tgbotapi.BotAPI
		err error
	)
	if opts.APIEndpoint != "" {
		api, err = tgbotapi.NewBotAPIWithAPIEndpoint(opts.BotToken, opts.APIEndpoint)
	} else {
		api, err = tgbotapi.NewBotAPI(opts.BotToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Debug("Telegram bot authorized", zap.String("username", api.Self.UserName))

	return &TelegramNotifier{
		api:       api,
		chatID:    opts.ChatID,
		skipEmpty: opts.SkipEmpty,
		renderer:  renderer,
		logger:    logger,
	}, nil
}

// Notify renders the result and sends it as one HTML message
func (n *TelegramNotifier) Notify(ctx context.Context, result *digest.Result, target dateutil.Target) error {
	if n.skipEmpty && (result == nil || result.IsEmpty()) {
		n.logger.Info("Nothing to announce, message skipped", zap.String("date", target.ISODay()))
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	text, err := n.renderer.Render(result, target)
	if err != nil {
		return err
	}

	msg := n.newMessage(text)
	sent, err := n.api.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	n.logger.Info("Telegram message sent",
		zap.String("chat_id", n.chatID),
		zap.Int("message_id", sent.MessageID))

	return nil
}

func (n *TelegramNotifier) newMessage(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(n.chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(normalizeChannel(n.chatID), text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	return msg
}

func normalizeChannel(name string) string {
	if strings.HasPrefix(name, "@") {
		return name
	}
	return "@" + name
}
