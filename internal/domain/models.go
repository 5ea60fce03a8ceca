package domain

// Principal is an opaque, backend-assigned identity token.
type Principal = string

// Category is a plain video category label.
type Category = string

// Video is a catalog entry. ID is caller-supplied.
type Video struct {
	ID        string       `json:"id"`
	URL       string       `json:"url"`
	Title     string       `json:"title"`
	Thumbnail ExternalBlob `json:"thumbnail"`
	Category  string       `json:"category"`
}

// QuizQuestion is a multiple-choice question; CorrectAnswerIndex points into Answers.
type QuizQuestion struct {
	Question           string   `json:"question"`
	Answers            []string `json:"answers"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

// Quiz belongs to a video and holds an ordered list of questions.
type Quiz struct {
	ID        string         `json:"id"`
	VideoID   string         `json:"videoId"`
	Questions []QuizQuestion `json:"questions"`
}

// QuizResult is appended by the backend on every submission and never changes.
type QuizResult struct {
	User      string `json:"user"`
	Score     int    `json:"score"`
	Timestamp int64  `json:"timestamp"` // nanoseconds since epoch
	QuizID    string `json:"quizId"`
}

// UserProfile status is free-form ("active", "blocked", "pending", ...).
type UserProfile struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// UserEntry pairs a principal with its profile (getAllUsers).
type UserEntry struct {
	Principal Principal   `json:"principal"`
	Profile   UserProfile `json:"profile"`
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is one of the known approval states.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

type UserApprovalInfo struct {
	Principal Principal      `json:"principal"`
	Status    ApprovalStatus `json:"status"`
}

type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

type Theme struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
}

type Settings struct {
	DonationLink string `json:"donationLink"`
	Theme        Theme  `json:"theme"`
	SiteName     string `json:"siteName"`
}

type HomepageVisuals struct {
	SubtitleColor          string               `json:"subtitleColor"`
	HeadingColor           string               `json:"headingColor"`
	SupportingTextColor    string               `json:"supportingTextColor"`
	BackgroundColorOverlay string               `json:"backgroundColorOverlay"`
	HeroBackgroundColor    string               `json:"heroBackgroundColor"`
	ButtonTextColor        string               `json:"buttonTextColor"`
	CardBackgroundColor    string               `json:"cardBackgroundColor"`
	HeroImage              Option[ExternalBlob] `json:"heroImage"`
	ButtonColor            string               `json:"buttonColor"`
	BannerBackgroundColor  string               `json:"bannerBackgroundColor"`
	OverlayOpacity         int                  `json:"overlayOpacity"`
	HeadingShadowColor     string               `json:"headingShadowColor"`
	CardTextColor          string               `json:"cardTextColor"`
}

type DashboardVisuals struct {
	HeadingColor           string `json:"headingColor"`
	GradientDefinition     string `json:"gradientDefinition"`
	BackgroundColorOverlay string `json:"backgroundColorOverlay"`
	AccentColor            string `json:"accentColor"`
	CardAccentColor        string `json:"cardAccentColor"`
	HeaderBackgroundColor  string `json:"headerBackgroundColor"`
	CardBackgroundColor    string `json:"cardBackgroundColor"`
	GraphCardBackground    string `json:"graphCardBackground"`
	OverlayOpacity         int    `json:"overlayOpacity"`
	SecondaryHeadingColor  string `json:"secondaryHeadingColor"`
	GradientTransform      string `json:"gradientTransform"`
	CardTextColor          string `json:"cardTextColor"`
}

// AdminConfig holds the site text and styling edited from the dashboard.
type AdminConfig struct {
	DonationLink           string               `json:"donationLink"`
	HomePageSubText        string               `json:"homePageSubText"`
	Theme                  Theme                `json:"theme"`
	HomePageSupportingText string               `json:"homePageSupportingText"`
	Logo                   Option[ExternalBlob] `json:"logo"`
	ErrorMessage           string               `json:"errorMessage"`
	PageNotFoundTitle      string               `json:"pageNotFoundTitle"`
	EmptyStateTitle        string               `json:"emptyStateTitle"`
	ErrorTitle             string               `json:"errorTitle"`
	HomeHeroHeading        string               `json:"homeHeroHeading"`
	DashboardVisuals       DashboardVisuals     `json:"dashboardVisuals"`
	HomepageVisuals        HomepageVisuals      `json:"homepageVisuals"`
	HomePageText           string               `json:"homePageText"`
	HomeHeroSupportingText string               `json:"homeHeroSupportingText"`
	EmptyStateMessage      string               `json:"emptyStateMessage"`
	PageNotFoundMessage    string               `json:"pageNotFoundMessage"`
}

// SiteConfig is the stored configuration document behind SettingsData.
type SiteConfig struct {
	Settings    Settings    `json:"settings"`
	AdminConfig AdminConfig `json:"adminConfig"`
}

// SettingsData is the aggregate read; it embeds categories and videos.
type SettingsData struct {
	Categories  []Category  `json:"categories"`
	AdminConfig AdminConfig `json:"adminConfig"`
	Settings    Settings    `json:"settings"`
	Videos      []Video     `json:"videos"`
}

// HomePageText is the extended home content edited as one form.
type HomePageText struct {
	HomeHeroHeading        string `json:"homeHeroHeading"`
	HomePageSubText        string `json:"homePageSubText"`
	HomeHeroSupportingText string `json:"homeHeroSupportingText"`
	FeaturedVideosHeading  string `json:"featuredVideosHeading"`
	NoCategoriesMessage    string `json:"noCategoriesMessage"`
	NoVideosMessage        string `json:"noVideosMessage"`
}

// Apply copies the form fields into cfg.
func (t HomePageText) Apply(cfg AdminConfig) AdminConfig {
	cfg.HomeHeroHeading = t.HomeHeroHeading
	cfg.HomePageSubText = t.HomePageSubText
	cfg.HomeHeroSupportingText = t.HomeHeroSupportingText
	cfg.HomePageText = t.FeaturedVideosHeading
	cfg.EmptyStateTitle = t.NoCategoriesMessage
	cfg.EmptyStateMessage = t.NoVideosMessage
	return cfg
}

// DefaultSiteConfig is used until an administrator saves settings.
func DefaultSiteConfig() SiteConfig {
	theme := Theme{PrimaryColor: "#fb8c00", SecondaryColor: "#04032e"}
	return SiteConfig{
		Settings: Settings{SiteName: "Pocketflix", Theme: theme},
		AdminConfig: AdminConfig{
			Theme:               theme,
			HomeHeroHeading:     "Learn with Pocketflix",
			HomePageText:        "Featured Videos",
			EmptyStateTitle:     "No categories yet",
			EmptyStateMessage:   "No videos in this category yet.",
			ErrorTitle:          "Something went wrong",
			ErrorMessage:        "Please try again later.",
			PageNotFoundTitle:   "Page not found",
			PageNotFoundMessage: "The page you are looking for does not exist.",
			HomepageVisuals: HomepageVisuals{
				HeroBackgroundColor:    "linear-gradient(227deg, #ff9500 0%, #0e1c45 100%)",
				BackgroundColorOverlay: "#1A2C45",
				OverlayOpacity:         80,
			},
			DashboardVisuals: DashboardVisuals{
				BackgroundColorOverlay: "#1A2C45",
				OverlayOpacity:         80,
			},
		},
	}
}
