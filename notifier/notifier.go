package notifier

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Notifier delivers one text message to the configured channel
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Telegram posts to a single chat through the bot API
type Telegram struct {
	Bot    *tgbotapi.BotAPI
	ChatID int64
}

func NewTelegram(bot *tgbotapi.BotAPI, channel string) (*Telegram, error) {
	chatID, err := strconv.ParseInt(channel, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram chat id %q: %w", channel, err)
	}
	return &Telegram{Bot: bot, ChatID: chatID}, nil
}

func (t *Telegram) Send(_ context.Context, text string) error {
	msg, err := t.Bot.Send(tgbotapi.NewMessage(t.ChatID, text))
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	log.Info().Int64("chat", t.ChatID).Int("message", msg.MessageID).Msg("✅ Notification sent")
	return nil
}

const slackPostMessage = "https://slack.com/api/chat.postMessage"

// Slack posts through chat.postMessage with a bot token
type Slack struct {
	client  *resty.Client
	channel string
	url     string
}

func NewSlack(token, channel string) *Slack {
	client := resty.New()
	client.SetAuthToken(token)
	return &Slack{client: client, channel: channel, url: slackPostMessage}
}

// WithURL points the notifier at another chat.postMessage endpoint
func (s *Slack) WithURL(url string) *Slack {
	s.url = url
	return s
}

type slackResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Slack) Send(ctx context.Context, text string) error {
	var out slackResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"text":    text,
			"channel": s.channel,
		}).
		SetResult(&out).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}

	log.Info().Int("status", resp.StatusCode()).Str("response", resp.String()).Msg("slack response")
	if !out.OK {
		return fmt.Errorf("slack send: status %d: %s", resp.StatusCode(), out.Error)
	}
	return nil
}
