// Package notify pushes job outcomes to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"story-agent/internal/logging"
	"story-agent/internal/model"
)

type TelegramNotifier struct {
	tg     *tgbotapi.BotAPI
	chatID int64
	log    *logging.Logger
}

func NewTelegram(token string, chatID int64, log *logging.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	log.Infof("notify: authorized on telegram account %s", api.Self.UserName)
	return &TelegramNotifier{tg: api, chatID: chatID, log: log}, nil
}

func (n *TelegramNotifier) JobSucceeded(_ context.Context, job model.ProcessingJob) {
	text := fmt.Sprintf("✅ Story pronto: %s\nLegenda: %s\nEstilo: %s\nDuração do processamento: %s",
		filepath.Base(job.OutputPath), job.Caption, job.Style,
		job.FinishedAt.Sub(job.StartedAt).Round(time.Second))
	n.send(text)
}

func (n *TelegramNotifier) JobFailed(_ context.Context, job model.ProcessingJob, jobErr error) {
	text := fmt.Sprintf("❌ Falha ao processar %s\nErro: %v",
		filepath.Base(job.SourcePath), jobErr)
	n.send(text)
}

// SendSummary posts the daily run counters.
func (n *TelegramNotifier) SendSummary(text string) {
	n.send(text)
}

func (n *TelegramNotifier) send(text string) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.tg.Send(msg); err != nil {
		n.log.Errorf("notify: telegram send failed: %v", err)
	}
}
