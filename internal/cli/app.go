package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pfrederiksen/moviepost/internal/blogger"
	"github.com/pfrederiksen/moviepost/internal/bot"
	"github.com/pfrederiksen/moviepost/internal/config"
	"github.com/pfrederiksen/moviepost/internal/httpx"
	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/metadata"
	"github.com/pfrederiksen/moviepost/internal/publisher"
	"github.com/pfrederiksen/moviepost/internal/storage"
)

const (
	// PublishInterval spaces consecutive publishes.
	PublishInterval = 2 * time.Second
	// CacheSweepInterval is how often expired metadata cache entries are dropped.
	CacheSweepInterval = time.Hour
)

// app holds the loaded configuration and builds the components commands need.
type app struct {
	flags rootFlags
	cfg   *config.Config
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	store, err := storage.Open(ctx, storage.Options{
		MongoURI: a.cfg.MongoURI,
		MongoDB:  a.cfg.MongoDB,
		DataDir:  a.cfg.DataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

func closeStore(store storage.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		logger.Warn("Failed to close store", logger.Fields{"error": err.Error()})
	}
}

// lookup builds the metadata chain. Its caches are swept until ctx is canceled.
func (a *app) lookup(ctx context.Context) metadata.Provider {
	chain := metadata.NewDefault(a.cfg.TMDbAPIKey, a.cfg.OMDbAPIKey, httpx.NewClient(0))
	for _, p := range chain {
		if c, ok := p.(*metadata.Cache); ok {
			go c.Janitor(ctx, CacheSweepInterval)
		}
	}
	return chain
}

func (a *app) bloggerClient() (*blogger.Client, error) {
	opts := blogger.Options{APIKey: a.cfg.BloggerAPIKey}
	if a.cfg.BloggerOAuth() {
		opts.OAuth = &blogger.OAuthCredentials{
			ClientID:     a.cfg.BloggerClientID,
			ClientSecret: a.cfg.BloggerClientSecret,
			RefreshToken: a.cfg.BloggerRefreshToken,
		}
	}
	client, err := blogger.New(a.cfg.BlogID, opts)
	if err != nil {
		return nil, fmt.Errorf("creating Blogger client: %w", err)
	}
	return client, nil
}

// publisher returns nil, nil, nil when Blogger is not configured. Twitter is
// added as a secondary target when its credentials are set.
func (a *app) publisher() (publisher.Publisher, *blogger.Client, error) {
	if !a.cfg.BloggerConfigured() {
		logger.Warn("Blogger not configured, publishing disabled", nil)
		return nil, nil, nil
	}

	client, err := a.bloggerClient()
	if err != nil {
		return nil, nil, err
	}

	targets := publisher.Multi{publisher.NewBlogger(client, a.cfg.BloggerDraft)}
	if a.cfg.Twitter.Enabled() {
		tw, err := publisher.NewTwitter(
			a.cfg.Twitter.APIKey,
			a.cfg.Twitter.APISecret,
			a.cfg.Twitter.AccessToken,
			a.cfg.Twitter.AccessSecret,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("creating Twitter publisher: %w", err)
		}
		targets = append(targets, tw)
	}

	logger.Info("Publishing enabled", logger.Fields{
		"blog_id": a.cfg.BlogID,
		"targets": len(targets),
		"draft":   a.cfg.BloggerDraft,
	})
	return publisher.NewPaced(targets, PublishInterval), client, nil
}

func (a *app) telegram() (*tgbotapi.BotAPI, error) {
	if err := tgbotapi.SetLogger(log.New(logger.Default().Writer(), "telegram: ", 0)); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPI(a.cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("connecting to Telegram: %w", err)
	}
	logger.Info("Authorized on Telegram", logger.Fields{"username": api.Self.UserName})
	return api, nil
}

// newBot wires a Bot with the store, the metadata chain and a publisher.
func (a *app) newBot(api bot.API, store storage.Store, lookup metadata.Provider) (*bot.Bot, error) {
	pub, client, err := a.publisher()
	if err != nil {
		return nil, err
	}

	opts := bot.Options{
		API:       api,
		Lookup:    lookup,
		Store:     store,
		Publisher: pub,
		Mode:      a.cfg.BotMode,
		Admins:    a.cfg.BotAdmins,
		Workers:   a.cfg.BotWorkers,
	}
	if client != nil {
		opts.Posts = client
	}

	return bot.New(opts)
}
