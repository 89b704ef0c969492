package handlers

import (
	"context"
	"fmt"
	"strings"

	"court-watcher/checker"
	"court-watcher/types"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Sender is the part of *tgbotapi.BotAPI the handler uses
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SnapshotStore lists and loads the stored calendars
type SnapshotStore interface {
	Names(ctx context.Context) ([]string, error)
	Restore(ctx context.Context, name string) (*types.Calendar, error)
}

// Runner runs one availability check
type Runner interface {
	Run(ctx context.Context) (*checker.Report, error)
}

type Handler struct {
	Bot        Sender
	Store      SnapshotStore
	Checker    Runner
	Conditions types.Conditions
	ChatID     int64
}

func New(bot Sender, store SnapshotStore, runner Runner, conds types.Conditions, chatID int64) *Handler {
	return &Handler{
		Bot:        bot,
		Store:      store,
		Checker:    runner,
		Conditions: conds,
		ChatID:     chatID,
	}
}

// HandleMessage routes a bot command. Messages from other chats are ignored.
func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg == nil || msg.Chat == nil {
		return
	}
	if msg.Chat.ID != h.ChatID {
		log.Warn().Int64("chat", msg.Chat.ID).Msg("⚠️ Message from unknown chat ignored")
		return
	}

	switch msg.Command() {
	case "start":
		h.HandleStart(msg)
	case "status":
		h.HandleStatus(ctx, msg)
	case "check":
		h.HandleCheck(ctx, msg)
	default:
		h.send(msg.Chat.ID, "不明なコマンドです。/start を試してください")
	}
}

func (h *Handler) HandleStart(msg *tgbotapi.Message) {
	conds := make([]string, 0, len(h.Conditions))
	for _, c := range h.Conditions {
		conds = append(conds, c.String())
	}
	text := "👋 施設の空き状況を監視しています。\n\n" +
		"利用できるコマンド:\n" +
		"/status — 保存済みの空き状況を表示\n" +
		"/check — 今すぐ確認する\n\n" +
		"⏰ 監視条件: " + strings.Join(conds, ", ")
	h.send(msg.Chat.ID, text)
}

// HandleStatus shows the open slots of every stored snapshot that match the
// configured conditions
func (h *Handler) HandleStatus(ctx context.Context, msg *tgbotapi.Message) {
	names, err := h.Store.Names(ctx)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to list calendars")
		h.send(msg.Chat.ID, "⚠️ 保存データの読み込みに失敗しました。")
		return
	}
	if len(names) == 0 {
		h.send(msg.Chat.ID, "まだデータがありません。\n\n/check で確認を開始してください。")
		return
	}

	var b strings.Builder
	b.WriteString("📋 現在の空き状況")
	for _, name := range names {
		cal, err := h.Store.Restore(ctx, name)
		if err != nil {
			log.Error().Err(err).Str("court", name).Msg("❌ Failed to restore calendar")
			h.send(msg.Chat.ID, "⚠️ 保存データの読み込みに失敗しました。")
			return
		}
		if cal == nil {
			continue
		}
		fmt.Fprintf(&b, "\n\n[%s]\n%s", cal.Name, formatSlots(cal.Open(h.Conditions)))
	}
	h.send(msg.Chat.ID, b.String())
}

func (h *Handler) HandleCheck(ctx context.Context, msg *tgbotapi.Message) {
	h.send(msg.Chat.ID, "🔍 確認しています...")

	report, err := h.Checker.Run(ctx)
	switch {
	case err != nil:
		// the checker already sent the error notification
		log.Error().Err(err).Msg("❌ Manual check failed")
	case report.Maintenance:
		h.send(msg.Chat.ID, "🛠 メンテナンス中のため確認をスキップしました。")
	case len(report.Groups) == 0:
		h.send(msg.Chat.ID, "✅ 変更はありません。")
	}
}

func formatSlots(slots []types.Slot) string {
	if len(slots) == 0 {
		return "空きはありません"
	}
	lines := make([]string, 0, len(slots))
	for _, s := range slots {
		lines = append(lines, fmt.Sprintf("%s %s 残り%s", s.Date, s.Time, s.Value))
	}
	return strings.Join(lines, "\n")
}

func (h *Handler) send(chatID int64, text string) {
	if _, err := h.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("⚠️ Failed to send reply")
	}
}
