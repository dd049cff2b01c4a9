package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/render"
	"github.com/pfrederiksen/moviepost/internal/storage"
)

// handleCallback handles inline button presses. The only action is
// "publish:<id>", which publishes a stored movie and updates the card.
func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	id, ok := strings.CutPrefix(cq.Data, callbackPublish)
	if !ok {
		b.answer(cq, "Unknown action", false)
		return
	}

	var userID int64
	if cq.From != nil {
		userID = cq.From.ID
	}

	switch {
	case b.publisher == nil:
		b.answer(cq, msgNoPublisher, true)
		return
	case !b.canPublish(userID):
		b.answer(cq, msgNotAllowed, true)
		return
	}

	if posted, seen := b.claimPress(id); seen {
		text := msgPosting
		if posted {
			text = msgAlreadyPosted
		}
		logger.IncrCounter("bot.duplicate_presses")
		b.answer(cq, text, false)
		return
	}

	m, err := b.store.Get(ctx, id)
	if err != nil {
		b.releasePress(id)
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrInvalidID) {
			logger.Error("Failed to load movie for publish", logger.Fields{"movie_id": id}, err)
		}
		b.answer(cq, msgMovieNotFound, true)
		return
	}

	res, err := b.publishMovie(ctx, m)
	if err != nil {
		b.releasePress(id)
		logger.Error("Publish from button failed", logger.Fields{
			"movie_id": id,
			"user_id":  userID,
		}, err)
		b.answer(cq, msgPostFailed, true)
		return
	}
	b.finishPress(id)

	b.answer(cq, msgPosted, false)

	if cq.Message == nil || cq.Message.Chat == nil {
		return
	}

	text := render.TelegramHTML(m) + "\n\n" + msgPosted
	if res.URL != "" {
		text = fmt.Sprintf("%s\n\n✅ <a href=\"%s\">Posted to Blogger</a>", render.TelegramHTML(m), html.EscapeString(res.URL))
	}
	edit := tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	b.request(edit)
}

// claimPress marks id as being published. seen is false when the caller now
// owns the publish; otherwise posted tells a finished publish from one still
// in flight.
func (b *Bot) claimPress(id string) (posted, seen bool) {
	b.pressMu.Lock()
	defer b.pressMu.Unlock()
	if posted, ok := b.pressed[id]; ok {
		return posted, true
	}
	b.pressed[id] = false
	return false, false
}

func (b *Bot) releasePress(id string) {
	b.pressMu.Lock()
	defer b.pressMu.Unlock()
	delete(b.pressed, id)
}

func (b *Bot) finishPress(id string) {
	b.pressMu.Lock()
	defer b.pressMu.Unlock()
	b.pressed[id] = true
}

func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string, alert bool) {
	cb := tgbotapi.NewCallback(cq.ID, text)
	cb.ShowAlert = alert
	b.request(cb)
}
