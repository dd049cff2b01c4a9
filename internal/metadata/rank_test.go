package metadata

import "testing"

func TestBestMatch(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		year       string
		candidates []candidate
		want       int
	}{
		{
			name:  "exact title beats longer title",
			title: "Heat",
			candidates: []candidate{
				{Title: "Heat Wave", Year: "2022"},
				{Title: "Heat", Year: "1995"},
			},
			want: 1,
		},
		{
			name:  "year breaks a tie",
			title: "Dune",
			year:  "2021",
			candidates: []candidate{
				{Title: "Dune", Year: "1984"},
				{Title: "Dune", Year: "2021"},
			},
			want: 1,
		},
		{
			name:  "punctuation and case ignored",
			title: "spider-man into the spider verse",
			candidates: []candidate{
				{Title: "Spider-Man: Far From Home"},
				{Title: "Spider-Man: Into the Spider-Verse"},
			},
			want: 1,
		},
		{
			name:  "no fuzzy match keeps API order",
			title: "zzz",
			candidates: []candidate{
				{Title: "Alpha"},
				{Title: "Beta"},
			},
			want: 0,
		},
		{
			name: "no candidates",
			want: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := bestMatch(tt.title, tt.year, tt.candidates); got != tt.want {
				t.Errorf("bestMatch() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := map[string]string{
		"  The Matrix  ":          "the matrix",
		"Spider-Man: No Way Home": "spider man no way home",
		"Amélie":                  "amélie",
		"Ocean's Eleven":          "oceans eleven",
	}
	for in, want := range tests {
		if got := normalizeTitle(in); got != want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestYearOf(t *testing.T) {
	tests := map[string]string{
		"2010-07-15": "2010",
		"2010–2014":  "2010",
		"":           "",
		"N/A":        "",
		"20":         "",
	}
	for in, want := range tests {
		if got := yearOf(in); got != want {
			t.Errorf("yearOf(%q) = %q, want %q", in, got, want)
		}
	}
}
