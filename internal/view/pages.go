package view

import (
	"time"

	"pocketflix-portal/internal/domain"
)

// LeaderboardSize is how many results the home page shows.
const LeaderboardSize = 5

type VideoCard struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Category     string `json:"category"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type CategorySection struct {
	Name   string      `json:"name"`
	Videos []VideoCard `json:"videos"`
}

type LeaderboardRow struct {
	Rank   int       `json:"rank"`
	User   string    `json:"user"`
	Score  int       `json:"score"`
	QuizID string    `json:"quizId"`
	At     time.Time `json:"at"`
}

type Hero struct {
	Heading        string `json:"heading"`
	SubText        string `json:"subText"`
	SupportingText string `json:"supportingText"`
	ImageURL       string `json:"imageUrl,omitempty"`
	// Overlay is the CSS rgba() laid over the hero background.
	Overlay string                 `json:"overlay"`
	Visuals domain.HomepageVisuals `json:"visuals"`
}

type HomePage struct {
	SiteName            string            `json:"siteName"`
	Theme               domain.Theme      `json:"theme"`
	LogoURL             string            `json:"logoUrl,omitempty"`
	DonationLink        string            `json:"donationLink,omitempty"`
	Hero                Hero              `json:"hero"`
	FeaturedHeading     string            `json:"featuredHeading"`
	NoCategoriesMessage string            `json:"noCategoriesMessage"`
	NoVideosMessage     string            `json:"noVideosMessage"`
	Categories          []CategorySection `json:"categories"`
	Leaderboard         []LeaderboardRow  `json:"leaderboard"`
	// CanEdit shows the inline content editor.
	CanEdit bool `json:"canEdit"`
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func videoCard(v domain.Video) VideoCard {
	return VideoCard{ID: v.ID, Title: v.Title, URL: v.URL, Category: v.Category, ThumbnailURL: v.Thumbnail.DirectURL()}
}

// NewHomePage groups videos under the configured categories (videos whose category
// no longer exists are not shown) and anonymizes the top of the leaderboard.
func NewHomePage(data domain.SettingsData, leaderboard []domain.QuizResult, canEdit bool) HomePage {
	cfg := data.AdminConfig
	visuals := cfg.HomepageVisuals

	opacity := visuals.OverlayOpacity
	if opacity == 0 {
		opacity = 80
	}
	overlay := orDefault(visuals.BackgroundColorOverlay, DefaultOverlayColor)

	page := HomePage{
		SiteName:     data.Settings.SiteName,
		Theme:        data.Settings.Theme,
		DonationLink: data.Settings.DonationLink,
		Hero: Hero{
			Heading:        orDefault(cfg.HomeHeroHeading, "Learn on Your Terms"),
			SubText:        orDefault(cfg.HomePageSubText, "Video-based learning for students and lifelong learners."),
			SupportingText: orDefault(cfg.HomeHeroSupportingText, "Short video lessons designed for busy people."),
			Overlay:        RGBA(HexToRGB(overlay), opacity),
			Visuals:        visuals,
		},
		FeaturedHeading:     orDefault(cfg.HomePageText, "Featured Videos"),
		NoCategoriesMessage: orDefault(cfg.EmptyStateTitle, "No categories available yet."),
		NoVideosMessage:     orDefault(cfg.EmptyStateMessage, "No videos in this category yet."),
		Categories:          make([]CategorySection, 0, len(data.Categories)),
		Leaderboard:         TopResults(leaderboard, LeaderboardSize),
		CanEdit:             canEdit,
	}
	if logo, ok := cfg.Logo.Get(); ok {
		page.LogoURL = logo.DirectURL()
	}
	if img, ok := visuals.HeroImage.Get(); ok {
		page.Hero.ImageURL = img.DirectURL()
	}

	for _, c := range data.Categories {
		section := CategorySection{Name: c, Videos: []VideoCard{}}
		for _, v := range data.Videos {
			if v.Category == c {
				section.Videos = append(section.Videos, videoCard(v))
			}
		}
		page.Categories = append(page.Categories, section)
	}
	return page
}

// TopResults keeps the backend's ordering and returns at most n anonymized rows.
func TopResults(results []domain.QuizResult, n int) []LeaderboardRow {
	if len(results) > n {
		results = results[:n]
	}
	rows := make([]LeaderboardRow, 0, len(results))
	for i, r := range results {
		rows = append(rows, LeaderboardRow{
			Rank:   i + 1,
			User:   AnonymizeUser(r.User),
			Score:  r.Score,
			QuizID: r.QuizID,
			At:     time.Unix(0, r.Timestamp).UTC(),
		})
	}
	return rows
}

type ResultRow struct {
	QuizID string    `json:"quizId"`
	Score  int       `json:"score"`
	At     time.Time `json:"at"`
}

type AccountPage struct {
	Profile domain.Option[domain.UserProfile] `json:"profile"`
	Results []ResultRow                       `json:"results"`
}

func NewAccountPage(profile domain.Option[domain.UserProfile], results []domain.QuizResult) AccountPage {
	page := AccountPage{Profile: profile, Results: make([]ResultRow, 0, len(results))}
	for _, r := range results {
		page.Results = append(page.Results, ResultRow{QuizID: r.QuizID, Score: r.Score, At: time.Unix(0, r.Timestamp).UTC()})
	}
	return page
}

type UserRow struct {
	Principal domain.Principal   `json:"principal"`
	Label     string             `json:"label"`
	Profile   domain.UserProfile `json:"profile"`
}

// Dashboard is the admin page. Settings carries categories and videos as well.
type Dashboard struct {
	Settings  domain.SettingsData       `json:"settings"`
	Quizzes   []domain.Quiz             `json:"quizzes"`
	Users     []UserRow                 `json:"users"`
	Approvals []domain.UserApprovalInfo `json:"approvals"`
	Visuals   DashboardStyle            `json:"visuals"`
}

type DashboardStyle struct {
	domain.DashboardVisuals
	Overlay string `json:"overlay"`
}

func NewDashboard(data domain.SettingsData, quizzes []domain.Quiz, users []domain.UserEntry, approvals []domain.UserApprovalInfo) Dashboard {
	d := Dashboard{Settings: data, Quizzes: quizzes, Approvals: approvals, Users: make([]UserRow, 0, len(users))}
	for _, u := range users {
		d.Users = append(d.Users, UserRow{Principal: u.Principal, Label: AnonymizeUser(u.Principal), Profile: u.Profile})
	}
	dv := data.AdminConfig.DashboardVisuals
	opacity := dv.OverlayOpacity
	if opacity == 0 {
		opacity = 80
	}
	d.Visuals = DashboardStyle{DashboardVisuals: dv, Overlay: RGBA(HexToRGB(dv.BackgroundColorOverlay), opacity)}
	return d
}
