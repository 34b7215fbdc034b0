package textnorm

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "case", input: "SUZHAL", want: "suzhal"},
		{name: "punctuation", input: "Suzhal: The Vortex", want: "suzhal the vortex"},
		{name: "diacritics", input: "Pokémon", want: "pokemon"},
		{name: "ampersand", input: "Me & You", want: "me and you"},
		{name: "dotted release", input: "Ponniyin.Selvan-I", want: "ponniyin selvan i"},
		{name: "empty", input: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFoldTransliteratesNonLatin(t *testing.T) {
	if got := Fold("விக்ரம்"); got == "" {
		t.Fatal("expected a non-empty key for Tamil script")
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		title string
		query string
		want  bool
	}{
		{"Suzhal: The Vortex", "suzhal", true},
		{"Suzhal: The Vortex", "VORTEX", true},
		{"Ponniyin Selvan: Part I", "ponniyin selvan", true},
		{"Jailer", "leo", false},
		{"Jailer", "", false},
	}
	for _, tt := range tests {
		if got := Contains(tt.title, tt.query); got != tt.want {
			t.Errorf("Contains(%q, %q) = %v, want %v", tt.title, tt.query, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity("The Night Manager", "the.night.manager"); got != 1 {
		t.Errorf("identical after folding scored %v", got)
	}
	if got := Similarity("Vikram", "Vikram Vedha"); got < 0.4 || got >= 1 {
		t.Errorf("partial overlap scored %v", got)
	}
	if got := Similarity("Jailer", "November Story"); got > 0.3 {
		t.Errorf("unrelated titles scored %v", got)
	}
	if got := Similarity("", "Leo"); got != 0 {
		t.Errorf("empty title scored %v", got)
	}
}
