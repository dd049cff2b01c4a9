package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pfrederiksen/moviepost/internal/blogger"
	"github.com/pfrederiksen/moviepost/internal/config"
	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/metadata"
	"github.com/pfrederiksen/moviepost/internal/publisher"
	"github.com/pfrederiksen/moviepost/internal/storage"
)

const (
	// DefaultWorkers is the worker pool size when Options.Workers is zero.
	DefaultWorkers = 4
	// HandlerTimeout bounds the handling of one update.
	HandlerTimeout = 90 * time.Second
	recentLimit    = 5
)

// API is the part of *tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// PostLister lists recent blog posts
type PostLister interface {
	ListPosts(ctx context.Context, max int) ([]blogger.Post, error)
}

// Options configure a Bot
type Options struct {
	API    API
	Lookup metadata.Provider
	Store  storage.Store
	// Publisher is nil when Blogger is not configured.
	Publisher publisher.Publisher
	// Posts is optional; /recent lists blog posts when set.
	Posts   PostLister
	Mode    string
	Admins  []int64
	Workers int
}

// Bot handles Telegram updates
type Bot struct {
	api       API
	lookup    metadata.Provider
	store     storage.Store
	publisher publisher.Publisher
	posts     PostLister
	mode      string
	admins    map[int64]bool
	workers   int

	// publish buttons by movie ID: false while in flight, true once posted
	pressMu sync.Mutex
	pressed map[string]bool
}

// New creates a Bot
func New(opts Options) (*Bot, error) {
	if opts.API == nil {
		return nil, errors.New("telegram API is required")
	}
	if opts.Lookup == nil {
		return nil, errors.New("metadata provider is required")
	}
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}

	mode := opts.Mode
	if mode == "" {
		mode = config.ModeReply
	}
	if mode == config.ModePublish && opts.Publisher == nil {
		return nil, fmt.Errorf("mode %q needs a publisher", mode)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	admins := make(map[int64]bool, len(opts.Admins))
	for _, id := range opts.Admins {
		admins[id] = true
	}

	return &Bot{
		api:       opts.API,
		lookup:    opts.Lookup,
		store:     opts.Store,
		publisher: opts.Publisher,
		posts:     opts.Posts,
		mode:      mode,
		admins:    admins,
		workers:   workers,
		pressed:   make(map[string]bool),
	}, nil
}

// Run handles updates with a pool of workers until ctx is canceled or updates
// is closed. It returns after every in-flight update has been handled.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	logger.Info("Bot workers starting", logger.Fields{
		"workers": b.workers,
		"mode":    b.mode,
	})

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case u, ok := <-updates:
					if !ok {
						return
					}
					b.handle(ctx, u)
				}
			}
		}()
	}
	wg.Wait()

	logger.Info("Bot workers stopped", nil)
}

// handle runs HandleUpdate with a context that survives shutdown for up to
// HandlerTimeout so a started publish is not cut off halfway.
func (b *Bot) handle(ctx context.Context, u tgbotapi.Update) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), HandlerTimeout)
	defer cancel()

	b.HandleUpdate(hctx, u)
}

// HandleUpdate processes one update. Panics are recovered and logged.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic while handling update", logger.Fields{
				"update_id": u.UpdateID,
				"stack":     string(debug.Stack()),
			}, fmt.Errorf("%v", r))
			logger.IncrCounter("bot.panics")
		}
		logger.Since("bot.update", start)
	}()

	logger.IncrCounter("bot.updates")

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

// canPublish reports whether userID may publish. An empty admin list allows everyone.
func (b *Bot) canPublish(userID int64) bool {
	return len(b.admins) == 0 || b.admins[userID]
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		logger.Error("Failed to send Telegram message", nil, err)
		logger.IncrCounter("bot.send_errors")
	}
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		logger.Warn("Telegram request failed", logger.Fields{"error": err.Error()})
	}
}
