package match

import "testing"

func TestClean(t *testing.T) {
	t.Run("CleanTitle", func(t *testing.T) {
		cases := []struct {
			name string
			in   string
			want string
		}{
			{"lowercases", "HELLO", "hello"},
			{"strips parentheticals", "Hello (Remastered 2011)", "hello"},
			{"strips bracketed text", "Hello [Deluxe]", "hello"},
			{"drops noise words", "The Trial", "trial"},
			{"cuts guest credits", "Crazy in Love feat. Jay-Z", "crazy in love"},
			{"cuts featuring", "Crazy in Love featuring Jay-Z", "crazy in love"},
			{"cuts at spaced slash", "Heroes / Villains", "heroes"},
			{"keeps unspaced slash", "24/7", "24 7"},
			{"removes part", "Echoes Part 2", "echoes 2"},
			{"strips punctuation", "What's Up?!", "what's up"},
			{"strips diacritics", "Déjà Vu", "deja vu"},
			{"empty input", "", ""},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := CleanTitle(tc.in); got != tc.want {
					t.Errorf("CleanTitle(%q) = %q, want %q", tc.in, got, tc.want)
				}
			})
		}
	})

	t.Run("CleanArtist", func(t *testing.T) {
		cases := []struct {
			name string
			in   string
			want string
		}{
			{"strips diacritics", "Beyoncé", "beyonce"},
			{"cuts versus credits", "Daft Punk vs Justice", "daft punk"},
			{"keeps names containing vs", "Elvis Presley", "elvis presley"},
			{"cuts guest credits", "Silk City feat. Dua Lipa", "silk city"},
			{"drops ampersand", "Simon & Garfunkel", "simon garfunkel"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := CleanArtist(tc.in); got != tc.want {
					t.Errorf("CleanArtist(%q) = %q, want %q", tc.in, got, tc.want)
				}
			})
		}
	})

	t.Run("CleanAlbum", func(t *testing.T) {
		cases := []struct {
			name string
			in   string
			want string
		}{
			{"cuts edition suffix at dash", "OK Computer - Deluxe Edition", "ok computer"},
			{"removes ep marker", "My First EP", "my first"},
			{"strips parentheticals", "Abbey Road (2019 Mix)", "abbey road"},
			{"plain album unchanged", "In Rainbows", "in rainbows"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := CleanAlbum(tc.in); got != tc.want {
					t.Errorf("CleanAlbum(%q) = %q, want %q", tc.in, got, tc.want)
				}
			})
		}
	})

	t.Run("containsKaraoke", func(t *testing.T) {
		if !containsKaraoke("Hits (Karaoke Version)") {
			t.Error("expected karaoke marker to be detected")
		}
		if !containsKaraoke("Song", "Backing Band") {
			t.Error("expected backing marker to be detected in later values")
		}
		if containsKaraoke("Hello", "Adele", "25") {
			t.Error("did not expect karaoke marker")
		}
	})
}
