package bot

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/pfrederiksen/moviepost/internal/blogger"
	"github.com/pfrederiksen/moviepost/internal/movie"
)

const (
	msgPosted        = "✅ Posted to Blogger!"
	msgPostFailed    = "❌ Failed to post. Check your API key and Blog ID."
	msgAlreadyPosted = "Already posted to Blogger."
	msgPosting       = "⏳ Already publishing, please wait."
	msgNotAllowed    = "⛔ You are not allowed to publish."
	msgNoPublisher   = "⚠️ Publishing is not configured."
	msgUnknown       = "Unknown command. Try /help"
	msgMovieNotFound = "❌ Movie not found"
	msgInvalidLink   = "⚠️ The link must start with http:// or https://"
	msgNoMovies      = "No movies stored yet. Send one as: Title | link"
)

// callbackPublish prefixes "publish:<id>" button data.
const callbackPublish = "publish:"

func helpMessage() string {
	return `🎬 <b>Movie Post Bot</b>

Send a movie as:
<code>Title | link</code>
<code>Title (Year) | link | quality</code>

I look it up on TMDb/OMDb and reply with a card you can publish to Blogger.

<b>Commands</b>
/movie Title | link - Look up and preview
/publish Title | link - Look up and publish now
/post Title | Content - Publish a free-form post (private chat)
/recent - Recently added movies
/stats - Bot statistics (admins)
/help - This message`
}

func errorMessage(err error) string {
	return "❌ Error: " + html.EscapeString(err.Error())
}

func postedMessage(url string) string {
	if url == "" {
		return msgPosted
	}
	return fmt.Sprintf("%s\n%s", msgPosted, html.EscapeString(url))
}

func recentMessage(movies []*movie.Movie, posts []blogger.Post) string {
	var msg strings.Builder

	if len(movies) == 0 {
		msg.WriteString(msgNoMovies)
	} else {
		msg.WriteString("🎬 <b>Recent movies</b>\n\n")
		for _, m := range movies {
			msg.WriteString(fmt.Sprintf("• <b>%s</b>", html.EscapeString(m.DisplayTitle())))
			if m.Quality != "" {
				msg.WriteString(fmt.Sprintf(" <code>%s</code>", html.EscapeString(m.Quality)))
			}
			msg.WriteString("\n")
		}
	}

	if len(posts) > 0 {
		msg.WriteString("\n📝 <b>Recent blog posts</b>\n\n")
		for _, p := range posts {
			msg.WriteString(fmt.Sprintf("• <a href=\"%s\">%s</a>\n", html.EscapeString(p.URL), html.EscapeString(p.Title)))
		}
	}

	return strings.TrimRight(msg.String(), "\n")
}

func statsMessage(snapshot map[string]interface{}, stored int64) string {
	var msg strings.Builder
	msg.WriteString("📊 <b>Bot statistics</b>\n\n")
	msg.WriteString(fmt.Sprintf("Stored movies: %d\n", stored))

	counters, _ := snapshot["counters"].(map[string]int64)
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		msg.WriteString(fmt.Sprintf("%s: %d\n", html.EscapeString(name), counters[name]))
	}

	return strings.TrimRight(msg.String(), "\n")
}
