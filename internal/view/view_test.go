package view

import (
	"testing"

	"pocketflix-portal/internal/domain"
)

func TestHexToRGB(t *testing.T) {
	cases := map[string]RGB{
		"#1A2C45": {26, 44, 69},
		"#ffffff": {255, 255, 255},
		"#000000": {0, 0, 0},
		"1A2C45":  {26, 44, 69},
		"#FFF":    {26, 44, 69},
		"#GG0000": {26, 44, 69},
		"":        {26, 44, 69},
	}
	for in, want := range cases {
		if got := HexToRGB(in); got != want {
			t.Fatalf("HexToRGB(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(150, 0, 100); got != 100 {
		t.Fatalf("Clamp(150) = %d", got)
	}
	if got := Clamp(-5, 0, 100); got != 0 {
		t.Fatalf("Clamp(-5) = %d", got)
	}
	if got := Clamp(42, 0, 100); got != 42 {
		t.Fatalf("Clamp(42) = %d", got)
	}
}

func TestRGBA(t *testing.T) {
	if got := RGBA(RGB{26, 44, 69}, 80); got != "rgba(26, 44, 69, 0.8)" {
		t.Fatalf("unexpected rgba %q", got)
	}
	if got := RGBA(RGB{1, 2, 3}, 250); got != "rgba(1, 2, 3, 1)" {
		t.Fatalf("opacity not clamped: %q", got)
	}
}

func TestAnonymizeUser(t *testing.T) {
	cases := map[string]string{
		"aaaa-bbbb-cccc-1234": "User 1234",
		"rrkah-fqaaa-aaaaa-q": "User Q",
		"nodashes":            "User NODA",
		"x-abcdefg":           "User ABCD",
		"":                    "User ",
		"x-éèàüz":             "User ÉÈÀÜ",
		"a-日本語テキスト":           "User 日本語テ",
	}
	for in, want := range cases {
		if got := AnonymizeUser(in); got != want {
			t.Fatalf("AnonymizeUser(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewHomePage(t *testing.T) {
	data := domain.SettingsData{
		Categories: []domain.Category{"Math", "Art"},
		Videos: []domain.Video{
			{ID: "v1", Title: "Fractions", Category: "Math", Thumbnail: domain.BlobFromURL("/media/t/1")},
			{ID: "v2", Title: "Orphan", Category: "Removed"},
		},
		AdminConfig: domain.AdminConfig{
			HomeHeroHeading: "Welcome",
			HomepageVisuals: domain.HomepageVisuals{BackgroundColorOverlay: "#000000", OverlayOpacity: 50},
		},
		Settings: domain.Settings{SiteName: "Pocketflix"},
	}
	var results []domain.QuizResult
	for i := 0; i < 7; i++ {
		results = append(results, domain.QuizResult{User: "aaaa-bbbb-cccc-000" + string(rune('0'+i)), Score: 10 - i, QuizID: "q"})
	}

	page := NewHomePage(data, results, false)
	if page.Hero.Heading != "Welcome" || page.FeaturedHeading != "Featured Videos" {
		t.Fatalf("unexpected text %+v", page.Hero)
	}
	if page.Hero.Overlay != "rgba(0, 0, 0, 0.5)" {
		t.Fatalf("unexpected overlay %q", page.Hero.Overlay)
	}
	if len(page.Categories) != 2 || len(page.Categories[0].Videos) != 1 || len(page.Categories[1].Videos) != 0 {
		t.Fatalf("unexpected grouping %+v", page.Categories)
	}
	if page.Categories[0].Videos[0].ThumbnailURL != "/media/t/1" {
		t.Fatalf("thumbnail url lost")
	}
	if len(page.Leaderboard) != LeaderboardSize {
		t.Fatalf("leaderboard has %d rows", len(page.Leaderboard))
	}
	if page.Leaderboard[0].User != "User 0000" || page.Leaderboard[0].Rank != 1 || page.Leaderboard[0].Score != 10 {
		t.Fatalf("unexpected first row %+v", page.Leaderboard[0])
	}
}

func TestHomePageDefaultsOverlay(t *testing.T) {
	page := NewHomePage(domain.SettingsData{}, nil, true)
	if page.Hero.Overlay != "rgba(26, 44, 69, 0.8)" {
		t.Fatalf("unexpected default overlay %q", page.Hero.Overlay)
	}
	if page.Leaderboard == nil || page.Categories == nil {
		t.Fatalf("empty collections must encode as []")
	}
}
