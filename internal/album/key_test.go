package album

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		name   string
		artist string
		album  string
		want   string
	}{
		{
			name:   "simple",
			artist: "Michael Jackson",
			album:  "Thriller",
			want:   "michael-jackson-thriller",
		},
		{
			name:   "punctuation collapses",
			artist: "Godspeed You! Black Emperor",
			album:  "F# A# (Infinity)",
			want:   "godspeed-you-black-emperor-f-a-infinity",
		},
		{
			name:   "unicode stripped",
			artist: "Sigur Rós",
			album:  "Ágætis byrjun",
			want:   "sigur-r-s-g-tis-byrjun",
		},
		{
			name:   "leading and trailing trimmed",
			artist: "...And You Will Know Us by the Trail of Dead",
			album:  "Madonna!",
			want:   "and-you-will-know-us-by-the-trail-of-dead-madonna",
		},
		{
			name:   "empty pair",
			artist: "",
			album:  "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(tt.artist, tt.album)
			if got != tt.want {
				t.Errorf("Key(%q, %q) = %q, want %q", tt.artist, tt.album, got, tt.want)
			}
		})
	}
}

// Variants in casing and whitespace of the same pair must normalize to the
// same key, at every call site.
func TestKeyNormalizationIdempotent(t *testing.T) {
	variants := [][2]string{
		{"Radiohead", "OK Computer"},
		{"radiohead", "ok computer"},
		{"RADIOHEAD", "OK   COMPUTER"},
		{"  Radiohead  ", " OK Computer "},
	}

	want := "radiohead-ok-computer"
	for _, v := range variants {
		if got := Key(v[0], v[1]); got != want {
			t.Errorf("Key(%q, %q) = %q, want %q", v[0], v[1], got, want)
		}
	}

	// Applying the normalization to an already-normalized key is a no-op.
	if got := Key("radiohead", "ok-computer"); got != want {
		t.Errorf("re-normalized key = %q, want %q", got, want)
	}
}

func TestListenedID(t *testing.T) {
	got := ListenedID("u1", "radiohead-ok-computer")
	if got != "u1-radiohead-ok-computer" {
		t.Errorf("ListenedID = %q, want %q", got, "u1-radiohead-ok-computer")
	}
}
