package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"
)

// TweetLimit is the maximum tweet length
const TweetLimit = 280

const maxHashtags = 3

// statusUpdater is the part of the go-twitter status service we use.
type statusUpdater interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error)
}

// TwitterPublisher cross-posts a short status
type TwitterPublisher struct {
	statuses statusUpdater
}

// NewTwitter creates a Twitter publisher from OAuth1 user credentials.
func NewTwitter(apiKey, apiSecret, accessToken, accessSecret string) (*TwitterPublisher, error) {
	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, errors.New("missing required Twitter credentials")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	client := twitter.NewClient(httpClient)

	return &TwitterPublisher{statuses: client.Statuses}, nil
}

// Name returns "twitter"
func (t *TwitterPublisher) Name() string {
	return "twitter"
}

// Publish posts FormatTweet(item)
func (t *TwitterPublisher) Publish(ctx context.Context, item Item) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	tweet, _, err := t.statuses.Update(FormatTweet(item), nil)
	if err != nil {
		return Result{}, fmt.Errorf("posting tweet for %q: %w", item.Title, err)
	}

	res := Result{Target: t.Name(), ID: tweet.IDStr}
	if tweet.User != nil && tweet.User.ScreenName != "" {
		res.URL = fmt.Sprintf("https://twitter.com/%s/status/%s", tweet.User.ScreenName, tweet.IDStr)
	}
	return res, nil
}

// FormatTweet builds a status of at most TweetLimit characters. The summary
// text is shortened first; the title, link and hashtags are kept.
func FormatTweet(item Item) string {
	head := "🎬 " + item.Title

	var tail []string
	if item.Link != "" {
		tail = append(tail, item.Link)
	}
	if tags := hashtags(item.Labels); tags != "" {
		tail = append(tail, tags)
	}

	build := func(text string) string {
		parts := []string{head}
		if text != "" {
			parts = append(parts, text)
		}
		parts = append(parts, tail...)
		return strings.Join(parts, "\n\n")
	}

	tweet := build(item.Text)
	if utf8.RuneCountInString(tweet) <= TweetLimit {
		return tweet
	}

	over := utf8.RuneCountInString(tweet) - TweetLimit
	if text := []rune(item.Text); len(text) > over+3 {
		tweet = build(strings.TrimSpace(string(text[:len(text)-over-3])) + "...")
		if utf8.RuneCountInString(tweet) <= TweetLimit {
			return tweet
		}
	}

	tweet = build("")
	if runes := []rune(tweet); len(runes) > TweetLimit {
		tweet = string(runes[:TweetLimit-3]) + "..."
	}
	return tweet
}

// hashtags turns labels into up to maxHashtags tags, e.g. "Science Fiction" -> "#ScienceFiction".
func hashtags(labels []string) string {
	var tags []string
	for _, label := range labels {
		var b strings.Builder
		for _, r := range label {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		if b.Len() == 0 {
			continue
		}
		tags = append(tags, "#"+b.String())
		if len(tags) == maxHashtags {
			break
		}
	}
	return strings.Join(tags, " ")
}
