package voice

import "testing"

func TestDetectAccent(t *testing.T) {
	tests := []struct {
		name    string
		culture string
		region  string
		want    string
	}{
		{name: "empty culture", want: "English"},
		{name: "non indian", culture: "Japanese", region: "Tamil", want: "English"},
		{name: "explicit region", culture: "Indian", region: "Tamil", want: "Hindi-South"},
		{name: "region in culture", culture: "Bengali Indian", want: "Hindi-East"},
		{name: "plain indian", culture: "Indian", want: "Hindi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectAccent(tt.culture, tt.region); got != tt.want {
				t.Fatalf("DetectAccent(%q, %q) = %q, want %q", tt.culture, tt.region, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tbl := DefaultTable()

	key, id := tbl.Resolve("Hindi", "", "Marathi")
	if key != "Hindi-West" || id != tbl["Hindi-West"] {
		t.Fatalf("unexpected hindi resolve: %s %s", key, id)
	}

	key, id = tbl.Resolve("Klingon", "", "")
	if key != "English" || id != tbl["English"] {
		t.Fatalf("unknown language should use english voice, got %s %s", key, id)
	}

	key, _ = tbl.Resolve("", "", "")
	if key != "English" {
		t.Fatalf("empty language should default to english, got %s", key)
	}
}

func TestLanguagesSorted(t *testing.T) {
	langs := DefaultTable().Languages()
	if len(langs) != 7 || langs[0] != "English" {
		t.Fatalf("unexpected languages: %v", langs)
	}
}

func TestResolveAccent(t *testing.T) {
	tbl := DefaultTable()
	tests := []struct {
		culture, region string
		wantKey         string
	}{
		{culture: "Indian", region: "Punjabi", wantKey: "Hindi-North"},
		{culture: "Indian", wantKey: "Hindi"},
		{culture: "Japanese", region: "Tamil", wantKey: "English"},
	}
	for _, tt := range tests {
		key, id := tbl.ResolveAccent(tt.culture, tt.region)
		if key != tt.wantKey || id != tbl[tt.wantKey] {
			t.Fatalf("ResolveAccent(%q, %q) = %q/%q, want %q", tt.culture, tt.region, key, id, tt.wantKey)
		}
	}

	partial := Table{"English": "en"}
	if key, id := partial.ResolveAccent("Indian", "Tamil"); key != "English" || id != "en" {
		t.Fatalf("expected English fallback, got %q/%q", key, id)
	}
}
