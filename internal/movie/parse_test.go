package movie

import (
	"errors"
	"testing"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Request
		wantErr error
	}{
		{
			name:  "title and link",
			input: "Inception | https://example.com/inception",
			want:  Request{Title: "Inception", Link: "https://example.com/inception"},
		},
		{
			name:  "parenthesized year",
			input: "Inception (2010) | https://example.com/inception",
			want:  Request{Title: "Inception", Year: "2010", Link: "https://example.com/inception"},
		},
		{
			name:  "bare year",
			input: "The Matrix 1999|https://example.com/m",
			want:  Request{Title: "The Matrix", Year: "1999", Link: "https://example.com/m"},
		},
		{
			name:  "number in title is not a year",
			input: "Blade Runner 2049 | https://example.com/br",
			want:  Request{Title: "Blade Runner 2049", Link: "https://example.com/br"},
		},
		{
			name:  "quality tag",
			input: "Dune (2021) | https://example.com/dune | 1080P",
			want:  Request{Title: "Dune", Year: "2021", Link: "https://example.com/dune", Quality: "1080p"},
		},
		{
			name:  "command prefix",
			input: "/movie@MovieBot Heat | http://example.com/heat | 4k",
			want:  Request{Title: "Heat", Link: "http://example.com/heat", Quality: "4K"},
		},
		{
			name:    "no separator",
			input:   "Inception https://example.com",
			wantErr: ErrUsage,
		},
		{
			name:    "empty title",
			input:   " | https://example.com",
			wantErr: ErrUsage,
		},
		{
			name:    "empty link",
			input:   "Inception | ",
			wantErr: ErrUsage,
		},
		{
			name:    "relative link",
			input:   "Inception | example.com/inception",
			wantErr: ErrInvalidLink,
		},
		{
			name:    "unsupported scheme",
			input:   "Inception | ftp://example.com/inception",
			wantErr: ErrInvalidLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRequest(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseRequest() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRequest() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestErrInvalidLinkIsUsage(t *testing.T) {
	if !errors.Is(ErrInvalidLink, ErrUsage) {
		t.Error("ErrInvalidLink should wrap ErrUsage")
	}
}

func TestParsePost(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantBody  string
		wantErr   bool
	}{
		{"simple", "/post Hello | World", "Hello", "World", false},
		{"pipes in body", "/post Title | a | b", "Title", "a | b", false},
		{"empty body", "/post Title |", "Title", "", false},
		{"missing separator", "/post just text", "", "", true},
		{"bare command", "/post", "", "", true},
		{"missing title", "/post | body", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body, err := ParsePost(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePost() error = %v, wantErr %v", err, tt.wantErr)
			}
			if title != tt.wantTitle || body != tt.wantBody {
				t.Errorf("ParsePost() = (%q, %q), want (%q, %q)", title, body, tt.wantTitle, tt.wantBody)
			}
		})
	}
}

func TestSplitYear(t *testing.T) {
	tests := []struct {
		input, title, year string
	}{
		{"Inception (2010)", "Inception", "2010"},
		{"Inception [2010]", "Inception", "2010"},
		{"Alien 1979", "Alien", "1979"},
		{"2001", "2001", ""},
		{"Blade Runner 2049", "Blade Runner 2049", ""},
		{"Metropolis (1927)", "Metropolis", "1927"},
		{"  Up  ", "Up", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			title, year := SplitYear(tt.input)
			if title != tt.title || year != tt.year {
				t.Errorf("SplitYear(%q) = (%q, %q), want (%q, %q)", tt.input, title, year, tt.title, tt.year)
			}
		})
	}
}

func TestNormalizeQuality(t *testing.T) {
	tests := map[string]string{
		"1080P":   "1080p",
		"720p":    "720p",
		"4k":      "4K",
		" HDRip ": "HDRip",
		"":        "",
	}
	for in, want := range tests {
		if got := NormalizeQuality(in); got != want {
			t.Errorf("NormalizeQuality(%q) = %q, want %q", in, got, want)
		}
	}
}
