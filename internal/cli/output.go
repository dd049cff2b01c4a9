package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pfrederiksen/moviepost/internal/movie"
	"github.com/pfrederiksen/moviepost/internal/render"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatHTML     OutputFormat = "html"
	FormatTelegram OutputFormat = "telegram"
	FormatJSON     OutputFormat = "json"
)

func (f OutputFormat) valid() bool {
	switch f {
	case FormatHTML, FormatTelegram, FormatJSON:
		return true
	}
	return false
}

// WriteMovie writes m in the specified format
func WriteMovie(w io.Writer, m *movie.Movie, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, m)
	case FormatTelegram:
		_, err := fmt.Fprintln(w, render.TelegramHTML(m))
		return err
	case FormatHTML:
		_, err := fmt.Fprint(w, render.BlogHTML(m))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the movie as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
