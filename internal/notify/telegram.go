// Package notify sends analysis alerts via the Telegram Bot API.
package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ledgerlens/ledgerlens/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends an analysis failure notification.
func (c *Client) SendError(runErr error) error {
	text := fmt.Sprintf("⚠️ *Analysis failed*\n`%s`", escapeMarkdownV2(runErr.Error()))
	return c.sendMarkdownV2(text)
}

// Send sends the run summary with the top anomalies at or above minSeverity.
func (c *Client) Send(summary *models.Summary, minSeverity models.Severity, topK int) error {
	return c.sendMarkdownV2(formatMessage(summary, minSeverity, topK))
}

// filterAnomalies keeps at most topK anomalies at or above minSeverity,
// preserving the ranked order.
func filterAnomalies(anomalies []models.Anomaly, minSeverity models.Severity, topK int) []models.Anomaly {
	var kept []models.Anomaly
	for _, a := range anomalies {
		if a.Severity.Rank() < minSeverity.Rank() {
			continue
		}
		kept = append(kept, a)
		if len(kept) == topK {
			break
		}
	}
	return kept
}

var severityEmoji = map[models.Severity]string{
	models.SeverityCritical: "🔴",
	models.SeverityHigh:     "🟠",
	models.SeverityMedium:   "🟡",
	models.SeverityLow:      "⚪",
}

// formatMessage formats the summary into a Telegram MarkdownV2 message.
func formatMessage(summary *models.Summary, minSeverity models.Severity, topK int) string {
	var b strings.Builder
	b.WriteString("🚨 *Statement Anomalies Detected*\n\n")
	b.WriteString(fmt.Sprintf("Accounts flagged: %d of %d\n", summary.AccountsFlagged, summary.TotalAccounts))

	var counts []string
	for _, sev := range []models.Severity{models.SeverityCritical, models.SeverityHigh, models.SeverityMedium, models.SeverityLow} {
		if n := summary.BySeverity[sev]; n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, sev))
		}
	}
	if len(counts) > 0 {
		b.WriteString(escapeMarkdownV2(strings.Join(counts, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, a := range filterAnomalies(summary.Anomalies, minSeverity, topK) {
		emoji := severityEmoji[a.Severity]
		name := escapeMarkdownV2(fmt.Sprintf("%s (%s)", a.AccountName, a.AccountCode))
		metric := escapeMarkdownV2(fmt.Sprintf("%+.1f%%", a.MetricValue))

		b.WriteString(fmt.Sprintf("%d\\. %s *%s*\n", i+1, emoji, name))
		b.WriteString(fmt.Sprintf("   %s %s in %s\n", escapeMarkdownV2(string(a.Type)), metric, escapeMarkdownV2(a.Period)))
		if a.RuleName != "" {
			b.WriteString(fmt.Sprintf("   📐 %s\n", escapeMarkdownV2(a.RuleName)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
