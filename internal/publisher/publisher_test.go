package publisher

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter"

	"github.com/pfrederiksen/moviepost/internal/blogger"
)

// recordingPublisher records every item it receives.
type recordingPublisher struct {
	name   string
	result Result
	err    error

	mu    sync.Mutex
	items []Item
	times []time.Time
}

func (r *recordingPublisher) Name() string { return r.name }

func (r *recordingPublisher) Publish(ctx context.Context, item Item) (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, item)
	r.times = append(r.times, time.Now())
	return r.result, r.err
}

func TestMulti(t *testing.T) {
	primary := &recordingPublisher{name: "blogger", result: Result{Target: "blogger", ID: "1", URL: "https://blog/post-1"}}
	failing := &recordingPublisher{name: "twitter", err: errors.New("rate limited")}
	other := &recordingPublisher{name: "dry-run"}

	res, err := Multi{primary, failing, other}.Publish(context.Background(), Item{Title: "Heat", Link: "https://watch/heat"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.URL != "https://blog/post-1" {
		t.Errorf("Publish() = %+v, want primary result", res)
	}
	if len(other.items) != 1 {
		t.Fatal("secondary failure stopped later publishers")
	}
	if other.items[0].Link != "https://blog/post-1" {
		t.Errorf("secondary link = %q, want primary URL", other.items[0].Link)
	}
	if primary.items[0].Link != "https://watch/heat" {
		t.Errorf("primary link = %q", primary.items[0].Link)
	}
}

func TestMulti_PrimaryFailure(t *testing.T) {
	boom := errors.New("boom")
	primary := &recordingPublisher{name: "blogger", err: boom}
	secondary := &recordingPublisher{name: "twitter"}

	_, err := Multi{primary, secondary}.Publish(context.Background(), Item{Title: "Heat"})
	if !errors.Is(err, boom) {
		t.Fatalf("Publish() error = %v, want boom", err)
	}
	if len(secondary.items) != 0 {
		t.Error("secondary published after primary failure")
	}

	if _, err := (Multi{}).Publish(context.Background(), Item{}); err == nil {
		t.Error("empty Multi should fail")
	}
}

func TestPaced(t *testing.T) {
	inner := &recordingPublisher{name: "blogger"}
	p := NewPaced(inner, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if _, err := p.Publish(context.Background(), Item{Title: "x"}); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	if len(inner.times) != 3 {
		t.Fatalf("published %d items, want 3", len(inner.times))
	}
	if gap := inner.times[2].Sub(inner.times[0]); gap < 80*time.Millisecond {
		t.Errorf("publishes not spaced: %v between first and third", gap)
	}
}

func TestPaced_ContextCanceled(t *testing.T) {
	inner := &recordingPublisher{name: "blogger"}
	p := NewPaced(inner, time.Hour)

	if _, err := p.Publish(context.Background(), Item{}); err != nil {
		t.Fatalf("first Publish() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := p.Publish(ctx, Item{}); err == nil {
		t.Error("Publish() should fail when the wait exceeds the deadline")
	}
	if len(inner.items) != 1 {
		t.Errorf("inner published %d items, want 1", len(inner.items))
	}
}

func TestDryRun(t *testing.T) {
	var buf bytes.Buffer
	res, err := NewDryRun(&buf).Publish(context.Background(), Item{
		Title:  "Heat (1995)",
		HTML:   "<h2>Heat</h2>",
		Labels: []string{"Crime", "1995"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.Target != "dry-run" {
		t.Errorf("Target = %q", res.Target)
	}
	out := buf.String()
	for _, want := range []string{"--- Post: Heat (1995) ---", "Labels: Crime, 1995", "<h2>Heat</h2>", "(Length: 13 characters)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

type fakeInserter struct {
	got  blogger.Post
	post *blogger.Post
	err  error
}

func (f *fakeInserter) InsertPost(ctx context.Context, p blogger.Post) (*blogger.Post, error) {
	f.got = p
	return f.post, f.err
}

func TestBloggerPublisher(t *testing.T) {
	fake := &fakeInserter{post: &blogger.Post{ID: "55", URL: "https://blog/55"}}
	p := &BloggerPublisher{client: fake, draft: true}

	res, err := p.Publish(context.Background(), Item{Title: "Heat", HTML: "<p>x</p>", Labels: []string{"Crime"}})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res != (Result{Target: "blogger", ID: "55", URL: "https://blog/55"}) {
		t.Errorf("Publish() = %+v", res)
	}
	if fake.got.Title != "Heat" || fake.got.Content != "<p>x</p>" || !fake.got.IsDraft || len(fake.got.Labels) != 1 {
		t.Errorf("inserted post = %+v", fake.got)
	}

	fake.err = errors.New("denied")
	if _, err := p.Publish(context.Background(), Item{Title: "Heat"}); err == nil {
		t.Error("Publish() should return the client error")
	}
}

type fakeStatuses struct {
	status string
	err    error
}

func (f *fakeStatuses) Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error) {
	f.status = status
	if f.err != nil {
		return nil, nil, f.err
	}
	return &twitter.Tweet{IDStr: "42", User: &twitter.User{ScreenName: "moviepost"}}, nil, nil
}

func TestTwitterPublisher(t *testing.T) {
	fake := &fakeStatuses{}
	p := &TwitterPublisher{statuses: fake}

	res, err := p.Publish(context.Background(), Item{Title: "Heat (1995)", Link: "https://blog/heat", Labels: []string{"Crime"}})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if res.URL != "https://twitter.com/moviepost/status/42" {
		t.Errorf("URL = %q", res.URL)
	}
	if !strings.Contains(fake.status, "https://blog/heat") || !strings.Contains(fake.status, "#Crime") {
		t.Errorf("status = %q", fake.status)
	}

	fake.err = errors.New("duplicate status")
	if _, err := p.Publish(context.Background(), Item{Title: "Heat"}); err == nil {
		t.Error("Publish() should fail")
	}
}

func TestNewTwitter_MissingCredentials(t *testing.T) {
	if _, err := NewTwitter("key", "", "token", "secret"); err == nil {
		t.Error("NewTwitter() should require all credentials")
	}
	if _, err := NewTwitter("a", "b", "c", "d"); err != nil {
		t.Errorf("NewTwitter() error = %v", err)
	}
}

func TestFormatTweet(t *testing.T) {
	tests := []struct {
		name     string
		item     Item
		contains []string
	}{
		{
			name:     "short",
			item:     Item{Title: "Heat (1995)", Text: "Cops and robbers.", Link: "https://b/1", Labels: []string{"Crime", "Science Fiction", "1995", "1080p"}},
			contains: []string{"🎬 Heat (1995)", "Cops and robbers.", "https://b/1", "#Crime #ScienceFiction #1995"},
		},
		{
			name:     "long text shortened",
			item:     Item{Title: "Heat", Text: strings.Repeat("word ", 100), Link: "https://b/1", Labels: []string{"Crime"}},
			contains: []string{"🎬 Heat", "...", "https://b/1", "#Crime"},
		},
		{
			name:     "no text",
			item:     Item{Title: "Heat", Link: "https://b/1"},
			contains: []string{"🎬 Heat\n\nhttps://b/1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tweet := FormatTweet(tt.item)
			if n := utf8.RuneCountInString(tweet); n > TweetLimit {
				t.Errorf("tweet length = %d, want <= %d", n, TweetLimit)
			}
			for _, want := range tt.contains {
				if !strings.Contains(tweet, want) {
					t.Errorf("tweet missing %q:\n%s", want, tweet)
				}
			}
		})
	}

	if strings.Contains(FormatTweet(Item{Title: "x", Labels: []string{"a", "b", "c", "d"}}), "#d") {
		t.Error("more than three hashtags")
	}
}
