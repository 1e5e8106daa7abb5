// Package telegram provides a client for sending alert notifications via
// Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	interval       time.Duration
	statsProvider  func() string
}

// NewClient creates a new Telegram client. The interval is the detection
// bucket length, used only for message wording.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase, interval time.Duration) (*Client, error) {
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
		interval:       interval,
	}, nil
}

// SetStatsProvider registers the callback backing the /stats bot command.
func (c *Client) SetStatsProvider(provider func() string) {
	c.statsProvider = provider
}

// ListenForCommands starts a goroutine that polls for Telegram updates and
// handles bot commands. It returns immediately; the goroutine stops when ctx
// is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	case "stats":
		if c.statsProvider == nil {
			return
		}
		reply := tgbotapi.NewMessage(msg.Chat.ID, c.statsProvider())
		c.bot.Send(reply) //nolint:errcheck
	}
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

// SendError sends a feed error notification.
// Call this only on the first occurrence of a consecutive error sequence.
func (c *Client) SendError(feedErr error) error {
	text := fmt.Sprintf("⚠️ *Feed error*\n`%s`", escapeMarkdownV2(feedErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendRecovery sends a recovery notification after consecutive failures.
func (c *Client) SendRecovery(failureCount int) error {
	text := fmt.Sprintf("✅ *Feed recovered* after %d consecutive failure\\(s\\)", failureCount)
	return c.sendMarkdownV2(text)
}

// SendAlert delivers a confirmed volume spike alert.
func (c *Client) SendAlert(alert models.AlertEvent) error {
	return c.sendMarkdownV2(c.formatAlert(alert))
}

// formatAlert renders an alert as a Telegram MarkdownV2 message.
func (c *Client) formatAlert(alert models.AlertEvent) string {
	var b strings.Builder

	b.WriteString("🚨 *VOLUME SPIKE ALERT* 🚨\n\n")
	fmt.Fprintf(&b, "*Symbol:* `%s`\n", escapeMarkdownV2(alert.Symbol))
	fmt.Fprintf(&b, "*Current %s volume:* %s USDT\n",
		escapeMarkdownV2(shortDuration(c.interval)), escapeMarkdownV2(humanizeVolume(alert.CurrentVolume)))
	fmt.Fprintf(&b, "*Baseline volume:* %s USDT\n", escapeMarkdownV2(humanizeVolume(alert.BaselineVolume)))
	fmt.Fprintf(&b, "*Spike ratio:* %s\n\n", escapeMarkdownV2(fmt.Sprintf("%.2fx", alert.SpikeRatio)))
	fmt.Fprintf(&b, "_Time: %s_\n\n", escapeMarkdownV2(alert.ConfirmedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	fmt.Fprintf(&b, "[View on Binance](https://www.binance.com/en/futures/%s)", alert.Symbol)

	return b.String()
}

// humanizeVolume formats a quote-currency volume with K/M/B units.
func humanizeVolume(volume float64) string {
	switch {
	case volume >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", volume/1_000_000_000)
	case volume >= 1_000_000:
		return fmt.Sprintf("%.2fM", volume/1_000_000)
	case volume >= 1_000:
		return fmt.Sprintf("%.2fK", volume/1_000)
	default:
		return fmt.Sprintf("%.2f", volume)
	}
}

// shortDuration renders a duration without trailing zero units ("5m", "1h").
func shortDuration(d time.Duration) string {
	s := d.String()
	s = strings.TrimSuffix(s, "0s")
	s = strings.TrimSuffix(s, "0m")
	return s
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
