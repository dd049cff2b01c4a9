package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/moviepost/internal/bot"
	"github.com/pfrederiksen/moviepost/internal/logger"
	"github.com/pfrederiksen/moviepost/internal/metadata"
	"github.com/pfrederiksen/moviepost/internal/movie"
	"github.com/pfrederiksen/moviepost/internal/publisher"
	"github.com/pfrederiksen/moviepost/internal/render"
	"github.com/pfrederiksen/moviepost/internal/storage"
	"github.com/pfrederiksen/moviepost/internal/web"
)

func newBotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot with long polling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateBot(); err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			api, err := a.telegram()
			if err != nil {
				return err
			}
			b, err := a.newBot(api, store, a.lookup(ctx))
			if err != nil {
				return err
			}

			updates, err := bot.Poll(api)
			if err != nil {
				return err
			}
			go func() {
				<-ctx.Done()
				api.StopReceivingUpdates()
			}()

			b.Run(ctx, updates)
			return nil
		},
	}
}

func newWebCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "web",
		Short: "Run the web catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateWeb(); err != nil {
				return err
			}
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			srv, err := web.New(a.webOptions(store, a.lookup(ctx)))
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx, a.cfg.HTTPAddr)
		},
	}
}

func (a *app) webOptions(store storage.Store, lookup metadata.Provider) web.Options {
	return web.Options{
		Store:         store,
		Lookup:        lookup,
		AdminUser:     a.cfg.AdminUser,
		AdminPassword: a.cfg.AdminPassword,
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web catalogue and the Telegram bot in one process",
		Long: `Run the web catalogue and the Telegram bot together.

The bot uses a webhook at <WEBHOOK_URL> when WEBHOOK_URL is set (the web app
serves /telegram/webhook) and long polling otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateBot(); err != nil {
				return err
			}
			if err := a.cfg.ValidateWeb(); err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}
}

// serve runs the web app and the bot until ctx is canceled or the web server
// fails, then drains the bot workers.
func (a *app) serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(store)

	api, err := a.telegram()
	if err != nil {
		return err
	}
	lookup := a.lookup(ctx)
	b, err := a.newBot(api, store, lookup)
	if err != nil {
		return err
	}

	opts := a.webOptions(store, lookup)
	var updates <-chan tgbotapi.Update
	if a.cfg.WebhookURL != "" {
		hook := bot.NewWebhook(a.cfg.WebhookSecret, 0)
		if err := bot.RegisterWebhook(api, a.cfg.WebhookURL, a.cfg.WebhookSecret); err != nil {
			return err
		}
		opts.Webhook = hook
		updates = hook.Updates()
	} else {
		ch, err := bot.Poll(api)
		if err != nil {
			return err
		}
		defer api.StopReceivingUpdates()
		updates = ch
	}

	srv, err := web.New(opts)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.Run(ctx, updates)
	}()

	err = srv.ListenAndServe(ctx, a.cfg.HTTPAddr)
	cancel()
	wg.Wait()
	return err
}

func newPostCmd(a *app) *cobra.Command {
	var (
		title   string
		content string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "post [\"Title | Content\"]",
		Short: "Publish a free-form post to Blogger",
		Example: `  moviepost post "Weekend picks | Three films worth your time"
  moviepost post --title "Weekend picks" --content "Three films" --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				var err error
				title, content, err = movie.ParsePost(strings.Join(args, " "))
				if err != nil {
					return errors.New(movie.PostUsage)
				}
			}
			if strings.TrimSpace(title) == "" {
				return errors.New(movie.PostUsage)
			}

			var pub publisher.Publisher
			if dryRun {
				pub = publisher.NewDryRun(cmd.OutOrStdout())
			} else {
				if err := a.cfg.ValidatePublish(); err != nil {
					return err
				}
				var err error
				if pub, _, err = a.publisher(); err != nil {
					return err
				}
			}

			res, err := pub.Publish(cmd.Context(), publisher.Item{
				Title: title,
				HTML:  render.PostHTML(title, content),
				Text:  content,
			})
			if err != nil {
				return fmt.Errorf("publishing %q: %w", title, err)
			}

			if !dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "✅ Posted to Blogger!")
				if res.URL != "" {
					fmt.Fprintln(cmd.OutOrStdout(), res.URL)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Post title")
	cmd.Flags().StringVar(&content, "content", "", "Post content")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the post instead of publishing it")

	return cmd
}

func newLookupCmd(a *app) *cobra.Command {
	var (
		format string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "lookup \"Title | link [| quality]\"",
		Short: "Look up a movie and print its post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := OutputFormat(strings.ToLower(format))
			if !f.valid() {
				return fmt.Errorf("invalid format: %s (must be 'html', 'telegram' or 'json')", format)
			}

			req, err := movie.ParseRequest(strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("%w\n\n%s", err, movie.Usage)
			}

			ctx := cmd.Context()
			m, err := metadata.Resolve(ctx, a.lookup(ctx), req)
			if err != nil {
				return err
			}
			logger.Debug("Lookup finished", logger.Fields{"title": m.Title, "source": m.Source})

			if save {
				store, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeStore(store)
				if _, err := store.Insert(ctx, m); err != nil {
					return fmt.Errorf("saving movie: %w", err)
				}
			}

			return WriteMovie(cmd.OutOrStdout(), m, f)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(FormatHTML), "Output format: html, telegram or json")
	cmd.Flags().BoolVar(&save, "save", false, "Store the movie after the lookup")

	return cmd
}
