package movie

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Usage is the reply for messages that are not in the "Title | link" format.
const Usage = "⚠️ Use format: Title | link\n\nExamples:\nInception (2010) | https://example.com/inception\nInception | https://example.com/inception | 1080p"

// PostUsage is the reply for a malformed /post command.
const PostUsage = "⚠️ Use format: /post Title | Content"

var (
	// ErrUsage marks input that does not follow the expected format.
	ErrUsage = errors.New("malformed input")
	// ErrInvalidLink marks a link that is not an absolute http(s) URL.
	ErrInvalidLink = fmt.Errorf("%w: link must be an http(s) URL", ErrUsage)
)

var (
	yearOnly    = regexp.MustCompile(`^\d{4}$`)
	parenYear   = regexp.MustCompile(`^(.*\S)\s*[(\[]((?:18|19|20)\d{2})[)\]]$`)
	trailerYear = regexp.MustCompile(`^(.*\S)\s+((?:19|20)\d{2})$`)
	resolution  = regexp.MustCompile(`^(?i)(\d{3,4})p$`)
)

// Request is a parsed "Title | link | quality" message.
type Request struct {
	Title   string
	Year    string
	Link    string
	Quality string
}

// ParseRequest parses "Title | link" or "Title | link | quality".
// A leading bot command such as "/movie" or "/publish@MyBot" is ignored.
func ParseRequest(text string) (Request, error) {
	text = stripCommand(text)
	if !strings.Contains(text, "|") {
		return Request{}, ErrUsage
	}

	parts := strings.SplitN(text, "|", 3)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	req := Request{Link: parts[1]}
	req.Title, req.Year = SplitYear(parts[0])
	if len(parts) == 3 {
		req.Quality = NormalizeQuality(parts[2])
	}

	if req.Title == "" || req.Link == "" {
		return Request{}, ErrUsage
	}
	if !isHTTPURL(req.Link) {
		return Request{}, ErrInvalidLink
	}

	return req, nil
}

// ParsePost parses "/post Title | Content". Only the first "|" separates the
// title; the content keeps any further "|" characters.
func ParsePost(text string) (title, body string, err error) {
	text = stripCommand(text)
	title, body, found := strings.Cut(text, "|")
	if !found {
		return "", "", ErrUsage
	}
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return "", "", ErrUsage
	}
	return title, body, nil
}

// SplitYear splits a trailing release year from a title.
// "Inception (2010)" and "Inception 2010" both yield ("Inception", "2010").
// A bare number is only treated as a year when it is not in the future,
// so "Blade Runner 2049" keeps its number.
func SplitYear(title string) (string, string) {
	title = strings.TrimSpace(title)

	if m := parenYear.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1]), m[2]
	}

	if m := trailerYear.FindStringSubmatch(title); m != nil {
		year, _ := strconv.Atoi(m[2])
		if year <= time.Now().Year()+1 {
			return strings.TrimSpace(m[1]), m[2]
		}
	}

	return title, ""
}

// NormalizeQuality lower-cases resolutions ("1080P" -> "1080p") and
// upper-cases "4k"; other tags are returned trimmed.
func NormalizeQuality(q string) string {
	q = strings.TrimSpace(q)
	switch {
	case resolution.MatchString(q):
		return strings.ToLower(q)
	case strings.EqualFold(q, "4k"), strings.EqualFold(q, "8k"):
		return strings.ToUpper(q)
	}
	return q
}

func stripCommand(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return text
	}
	if i := strings.IndexAny(text, " \n\t"); i >= 0 {
		return strings.TrimSpace(text[i:])
	}
	return ""
}
