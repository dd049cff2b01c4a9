package bot

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pfrederiksen/moviepost/internal/logger"
)

const (
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout = 60
	// SecretHeader carries the webhook secret token.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	maxUpdateBytes = 1 << 20
)

// allowedUpdates limits what Telegram delivers to the update types handled here.
const allowedUpdates = `["message","callback_query"]`

// Poll removes any registered webhook and starts long polling.
// Call api.StopReceivingUpdates to end it.
func Poll(api *tgbotapi.BotAPI) (tgbotapi.UpdatesChannel, error) {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, fmt.Errorf("deleting webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = PollTimeout
	u.AllowedUpdates = []string{"message", "callback_query"}

	logger.Info("Long polling started", logger.Fields{"timeout": PollTimeout})
	return api.GetUpdatesChan(u), nil
}

// requester is the part of *tgbotapi.BotAPI needed to register a webhook.
type requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// RegisterWebhook points Telegram at url. A non-empty secret is echoed back by
// Telegram in SecretHeader on every delivery.
func RegisterWebhook(api requester, url, secret string) error {
	params := tgbotapi.Params{
		"url":             url,
		"allowed_updates": allowedUpdates,
	}
	params.AddNonEmpty("secret_token", secret)

	resp, err := api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("setting webhook: %s", resp.Description)
	}

	logger.Info("Webhook registered", logger.Fields{"url": url})
	return nil
}

// Webhook receives updates over HTTP and queues them for Run.
type Webhook struct {
	secret  string
	updates chan tgbotapi.Update
}

// NewWebhook creates a webhook handler with a queue of size buffer.
func NewWebhook(secret string, buffer int) *Webhook {
	if buffer <= 0 {
		buffer = 100
	}
	return &Webhook{
		secret:  secret,
		updates: make(chan tgbotapi.Update, buffer),
	}
}

// Updates returns the queue to pass to Bot.Run
func (h *Webhook) Updates() <-chan tgbotapi.Update {
	return h.updates
}

// ServeHTTP accepts one update per POST.
func (h *Webhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.secret != "" {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			logger.Warn("Webhook request with bad secret", logger.Fields{"remote": r.RemoteAddr})
			logger.IncrCounter("bot.webhook_rejected")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	select {
	case h.updates <- update:
		w.WriteHeader(http.StatusOK)
	default:
		// Telegram redelivers when it does not get a 2xx
		logger.IncrCounter("bot.webhook_queue_full")
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}
