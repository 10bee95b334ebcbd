package telegram

import (
	"encoding/json"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Bot struct {
	api *tgbotapi.BotAPI
	h   *Handlers
	log zerolog.Logger
}

// NewBot connects to Telegram and points the bot's webhook at webhookURL.
func NewBot(token, webhookURL string, p Portfolio, ledger Ledger, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram api: %w", err)
	}
	log = log.With().Str("component", "telegram").Logger()

	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, fmt.Errorf("telegram webhook %s: %w", webhookURL, err)
	}
	if _, err := api.Request(webhook); err != nil {
		return nil, fmt.Errorf("set telegram webhook: %w", err)
	}
	log.Info().Str("webhook", webhookURL).Str("bot", api.Self.UserName).Msg("telegram: webhook set")

	return &Bot{api: api, h: NewHandlers(api, p, ledger, log), log: log}, nil
}

// WebhookHandler returns the HTTP handler registered at /telegram/webhook.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return webhookHandler(b.h, b.log)
}

func webhookHandler(h *Handlers, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		if update.Message == nil {
			log.Debug().Int("update_id", update.UpdateID).Msg("webhook: non-message update received")
			w.WriteHeader(http.StatusOK)
			return
		}
		ev := log.Info().Str("text", update.Message.Text)
		if update.Message.Chat != nil {
			ev = ev.Int64("chat_id", update.Message.Chat.ID)
		}
		if update.Message.From != nil {
			ev = ev.Int64("from", update.Message.From.ID)
		}
		ev.Msg("webhook: message")
		go h.HandleMessage(update.Message)
		w.WriteHeader(http.StatusOK)
	}
}
