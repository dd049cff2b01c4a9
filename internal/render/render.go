package render

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf16"

	"github.com/pfrederiksen/moviepost/internal/movie"
)

const (
	// TelegramMessageLimit is the maximum length of a Telegram text message,
	// in UTF-16 code units.
	TelegramMessageLimit = 4096
	// Footer closes every blog post.
	Footer = "<p><em>Posted via Telegram Blogger Bot</em></p>"
)

const ellipsis = "…"

// PostTitle returns the blog post title, e.g. "Inception (2010) [1080p]".
func PostTitle(m *movie.Movie) string {
	title := m.DisplayTitle()
	if m.Quality != "" {
		title = fmt.Sprintf("%s [%s]", title, m.Quality)
	}
	return title
}

// Labels returns Blogger labels for a movie: genres, year and quality.
func Labels(m *movie.Movie) []string {
	labels := append([]string(nil), m.Genres...)
	if m.Year != "" {
		labels = append(labels, m.Year)
	}
	if m.Quality != "" {
		labels = append(labels, m.Quality)
	}
	return labels
}

// BlogHTML formats a movie as a Blogger post body.
func BlogHTML(m *movie.Movie) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("<h2>%s</h2>\n", esc(m.DisplayTitle())))

	if m.Poster != "" {
		b.WriteString(fmt.Sprintf("<p><img src=\"%s\" alt=\"%s\" style=\"max-width:100%%;height:auto;\"/></p>\n",
			esc(m.Poster), esc(m.Title)))
	}

	if m.Overview != "" {
		b.WriteString(fmt.Sprintf("<p>%s</p>\n", esc(m.Overview)))
	}

	details := detailRows(m)
	if len(details) > 0 {
		b.WriteString("<ul>\n")
		for _, d := range details {
			b.WriteString(fmt.Sprintf("<li><b>%s:</b> %s</li>\n", d[0], esc(d[1])))
		}
		b.WriteString("</ul>\n")
	}

	if m.Link != "" {
		b.WriteString(fmt.Sprintf("<p>🔗 <a href=\"%s\" target=\"_blank\" rel=\"noopener\">Watch / Download</a></p>\n", esc(m.Link)))
	}

	b.WriteString("<hr>\n")
	b.WriteString(Footer)
	return b.String()
}

// PostHTML formats a free-form "/post Title | Content" body. Line breaks in
// the content become <br>.
func PostHTML(title, body string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>%s</h2>\n", esc(title)))
	b.WriteString(fmt.Sprintf("<p>%s</p>\n", strings.ReplaceAll(esc(body), "\n", "<br>\n")))
	b.WriteString("<hr>\n")
	b.WriteString(Footer)
	return b.String()
}

// TelegramHTML formats a movie as a Telegram chat reply using only b, i, a and
// code tags. The overview is shortened so the message fits TelegramMessageLimit.
func TelegramHTML(m *movie.Movie) string {
	msg := telegramHTML(m, m.Overview)
	if textLen(msg) <= TelegramMessageLimit {
		return msg
	}

	overhead := textLen(telegramHTML(m, ""))
	budget := TelegramMessageLimit - overhead - len("\n<i></i>\n")
	overview := shorten(m.Overview, budget)
	msg = telegramHTML(m, overview)
	if textLen(msg) <= TelegramMessageLimit {
		return msg
	}
	return telegramHTML(m, "")
}

func telegramHTML(m *movie.Movie, overview string) string {
	var msg strings.Builder

	msg.WriteString(fmt.Sprintf("🎬 <b>%s</b>", esc(m.Title)))
	if m.Year != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", esc(m.Year)))
	}
	msg.WriteString("\n")

	var facts []string
	if m.Rating != "" {
		facts = append(facts, fmt.Sprintf("⭐ %s/10", esc(m.Rating)))
	}
	if m.Language != "" {
		facts = append(facts, "🌐 "+esc(m.Language))
	}
	if m.Quality != "" {
		facts = append(facts, "🎞 <code>"+esc(m.Quality)+"</code>")
	}
	if len(facts) > 0 {
		msg.WriteString(strings.Join(facts, " · "))
		msg.WriteString("\n")
	}
	if len(m.Genres) > 0 {
		msg.WriteString(fmt.Sprintf("🎭 %s\n", esc(strings.Join(m.Genres, ", "))))
	}

	if overview != "" {
		msg.WriteString(fmt.Sprintf("\n<i>%s</i>\n", esc(overview)))
	}

	if m.Link != "" {
		msg.WriteString(fmt.Sprintf("\n🔗 <a href=\"%s\">Watch / Download</a>", esc(m.Link)))
	}

	return msg.String()
}

// shorten trims s so that its escaped form plus an ellipsis fits in budget
// UTF-16 code units.
func shorten(s string, budget int) string {
	if budget <= textLen(ellipsis) {
		return ""
	}
	runes := []rune(s)
	cut := func(n int) string {
		return strings.TrimSpace(string(runes[:n])) + ellipsis
	}
	fits := func(n int) bool {
		return textLen(esc(cut(n))) <= budget
	}

	// longest prefix whose escaped form still fits
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if fits(mid) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		return ""
	}
	return cut(lo)
}

func detailRows(m *movie.Movie) [][2]string {
	var rows [][2]string
	add := func(label, value string) {
		if value != "" {
			rows = append(rows, [2]string{label, value})
		}
	}
	add("Language", m.Language)
	add("Genres", strings.Join(m.Genres, ", "))
	if m.Rating != "" {
		add("Rating", m.Rating+"/10")
	}
	add("Quality", m.Quality)
	if m.IMDbID != "" {
		add("IMDb", m.IMDbID)
	}
	return rows
}

// textLen counts s the way Telegram does, in UTF-16 code units.
func textLen(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func esc(s string) string {
	return html.EscapeString(s)
}
