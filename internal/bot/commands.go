package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pfrederiksen/moviepost/internal/blogger"
	"github.com/pfrederiksen/moviepost/internal/config"
	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/metadata"
	"github.com/pfrederiksen/moviepost/internal/movie"
	"github.com/pfrederiksen/moviepost/internal/publisher"
	"github.com/pfrederiksen/moviepost/internal/render"
	"github.com/pfrederiksen/moviepost/internal/storage"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" || msg.Chat == nil {
		return
	}

	logger.Debug("Message received", logger.Fields{
		"chat_id": msg.Chat.ID,
		"user_id": senderID(msg),
		"command": msg.Command(),
	})

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	switch {
	case strings.Contains(text, "|"):
		b.handleMovie(ctx, msg, b.mode == config.ModePublish)
	case msg.Chat.IsPrivate():
		b.reply(msg.Chat.ID, movie.Usage)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpMessage())
	case "post":
		b.handlePost(ctx, msg)
	case "movie":
		b.handleMovie(ctx, msg, false)
	case "publish":
		b.handleMovie(ctx, msg, true)
	case "recent":
		b.handleRecent(ctx, msg)
	case "stats":
		b.handleStats(ctx, msg)
	default:
		// Commands addressed to other bots in a group are not ours to answer
		if msg.Chat.IsPrivate() {
			b.reply(msg.Chat.ID, msgUnknown)
		}
	}
}

// handlePost publishes "/post Title | Content" as a free-form post.
func (b *Bot) handlePost(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.Chat.IsPrivate() {
		return
	}

	title, body, err := movie.ParsePost(msg.Text)
	if err != nil {
		b.reply(msg.Chat.ID, movie.PostUsage)
		return
	}
	if !b.checkPublisher(msg) {
		return
	}

	res, err := b.publisher.Publish(ctx, publisher.Item{
		Title: title,
		HTML:  render.PostHTML(title, body),
		Text:  body,
	})
	if err != nil {
		logger.Error("Free-form post failed", logger.Fields{
			"chat_id": msg.Chat.ID,
			"title":   title,
		}, err)
		b.reply(msg.Chat.ID, msgPostFailed)
		return
	}

	logger.IncrCounter("bot.posts")
	b.reply(msg.Chat.ID, postedMessage(res.URL))
}

// handleMovie looks up a "Title | link" request, stores it, and either
// replies with a preview card or publishes it straight away.
func (b *Bot) handleMovie(ctx context.Context, msg *tgbotapi.Message, publishNow bool) {
	chatID := msg.Chat.ID

	req, err := movie.ParseRequest(msg.Text)
	if err != nil {
		if errors.Is(err, movie.ErrInvalidLink) {
			b.reply(chatID, msgInvalidLink+"\n\n"+movie.Usage)
			return
		}
		b.reply(chatID, movie.Usage)
		return
	}
	if publishNow && !b.checkPublisher(msg) {
		return
	}

	b.request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	m, err := metadata.Resolve(ctx, b.lookup, req)
	if err != nil {
		logger.Error("Metadata lookup failed", logger.Fields{
			"chat_id": chatID,
			"title":   req.Title,
		}, err)
		logger.IncrCounter("bot.errors")
		b.reply(chatID, errorMessage(err))
		return
	}
	logger.IncrCounter("bot.lookups")

	id, err := b.store.Insert(ctx, m)
	if err != nil {
		logger.Error("Failed to store movie", logger.Fields{"title": m.Title}, err)
		logger.IncrCounter("bot.errors")
	}

	if publishNow {
		text := render.TelegramHTML(m)
		res, err := b.publishMovie(ctx, m)
		if err != nil {
			logger.Error("Publish failed", logger.Fields{
				"chat_id": chatID,
				"title":   m.Title,
			}, err)
			b.reply(chatID, text+"\n\n"+msgPostFailed)
			return
		}
		b.reply(chatID, text+"\n\n"+postedMessage(res.URL))
		return
	}

	reply := tgbotapi.NewMessage(chatID, render.TelegramHTML(m))
	reply.ParseMode = tgbotapi.ModeHTML
	if kb := b.movieKeyboard(id, m); kb != nil {
		reply.ReplyMarkup = kb
	}
	b.send(reply)
}

func (b *Bot) movieKeyboard(id string, m *movie.Movie) *tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if id != "" && b.publisher != nil {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("📝 Publish to Blogger", callbackPublish+id))
	}
	if m.Link != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("🔗 Open link", m.Link))
	}
	if len(row) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(row)
	return &kb
}

func (b *Bot) publishMovie(ctx context.Context, m *movie.Movie) (publisher.Result, error) {
	res, err := b.publisher.Publish(ctx, publisher.Item{
		Title:  render.PostTitle(m),
		HTML:   render.BlogHTML(m),
		Text:   m.Overview,
		Link:   m.Link,
		Labels: render.Labels(m),
	})
	if err != nil {
		logger.IncrCounter("bot.publish_errors")
		return publisher.Result{}, err
	}
	logger.IncrCounter("bot.published")
	logger.Info("Movie published", logger.Fields{
		"title":  m.Title,
		"target": res.Target,
		"url":    res.URL,
	})
	return res, nil
}

// checkPublisher replies and returns false when msg's sender cannot publish.
func (b *Bot) checkPublisher(msg *tgbotapi.Message) bool {
	if b.publisher == nil {
		b.reply(msg.Chat.ID, msgNoPublisher)
		return false
	}
	if !b.canPublish(senderID(msg)) {
		b.reply(msg.Chat.ID, msgNotAllowed)
		return false
	}
	return true
}

func (b *Bot) handleRecent(ctx context.Context, msg *tgbotapi.Message) {
	movies, err := b.store.List(ctx, storage.ListOptions{Limit: recentLimit})
	if err != nil {
		logger.Error("Failed to list movies", nil, err)
		b.reply(msg.Chat.ID, errorMessage(err))
		return
	}

	var posts []blogger.Post
	if b.posts != nil {
		posts, err = b.posts.ListPosts(ctx, recentLimit)
		if err != nil {
			// Blog listing is a bonus; stored movies are still shown
			logger.Warn("Failed to list blog posts", logger.Fields{"error": err.Error()})
			posts = nil
		}
	}

	b.reply(msg.Chat.ID, recentMessage(movies, posts))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.canPublish(senderID(msg)) {
		b.reply(msg.Chat.ID, msgNotAllowed)
		return
	}

	stored, err := b.store.Count(ctx)
	if err != nil {
		logger.Warn("Failed to count movies", logger.Fields{"error": err.Error()})
	}
	b.reply(msg.Chat.ID, statsMessage(logger.GetMetricsSnapshot(), stored))
}

func senderID(msg *tgbotapi.Message) int64 {
	if msg.From == nil {
		return 0
	}
	return msg.From.ID
}
