// Package notify sends run summaries to a Telegram chat.
package notify

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"venuefeed/model"
)

// Notifier posts run summaries via the Telegram Bot API.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New creates a Notifier for the given bot token and chat.
func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// RunSummary sends a formatted summary of a collection run.
func (n *Notifier) RunSummary(siteName string, result *model.Result) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatRunSummary(siteName, result))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatRunSummary formats a collection result for display in Telegram.
func FormatRunSummary(siteName string, result *model.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📅 <b>%s</b>\n\n", html.EscapeString(siteName)))
	sb.WriteString(fmt.Sprintf("🎫 %d events collected\n", len(result.Events)))

	if len(result.Errors) == 0 {
		sb.WriteString("✅ All sources succeeded")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("❌ %d sources failed:\n", len(result.Errors)))
	for _, e := range result.Errors {
		sb.WriteString(fmt.Sprintf("  • %s (%s)\n", html.EscapeString(e.SourceName), e.Kind))
	}

	return strings.TrimRight(sb.String(), "\n")
}
