package notify

import (
	"context"
	"fmt"

	"ductclean/internal/config"
	"ductclean/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramNotifier pushes operational alerts (new bookings, exhausted
// deliveries) into the staff chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zerolog.Logger
}

func NewTelegramNotifier(cfg config.TelegramConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram notifier connected")

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.OpsChatID,
		logger: logger,
	}, nil
}

func (n *TelegramNotifier) SendAlert(ctx context.Context, alert domain.OpsAlert) error {
	if alert.Text == "" {
		return fmt.Errorf("alert text is empty")
	}

	msg := tgbotapi.NewMessage(n.chatID, alert.Text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}

// LogOpsNotifier writes alerts to the application log. It is the
// fallback when no telegram token is configured.
type LogOpsNotifier struct {
	logger *zerolog.Logger
}

func NewLogOpsNotifier(logger *zerolog.Logger) *LogOpsNotifier {
	return &LogOpsNotifier{logger: logger}
}

func (n *LogOpsNotifier) SendAlert(ctx context.Context, alert domain.OpsAlert) error {
	n.logger.Info().Str("alert", alert.Text).Msg("ops alert")
	return nil
}
