// Package forms validates admin and profile input before any backend call is made.
package forms

import (
	"fmt"
	"net/url"
	"strings"

	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/view"
)

// ValidationError names the offending field. It matches domain.ErrInvalidInput.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == domain.ErrInvalidInput }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type Category struct {
	Name string `json:"name"`
}

func (f Category) Build() (domain.Category, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return "", invalid("name", "Please enter a category name")
	}
	return name, nil
}

// Video is the add/edit video form. Thumbnail carries freshly uploaded bytes.
type Video struct {
	ID        string `json:"id,omitempty"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	URL       string `json:"url"`
	Thumbnail []byte `json:"thumbnail,omitempty"`
}

// Build creates a new video when existing is None, otherwise edits it. A new video
// must carry a thumbnail; an edit without one keeps the stored thumbnail.
func (f Video) Build(existing domain.Option[domain.Video], newID func() string) (domain.Video, error) {
	title, link := strings.TrimSpace(f.Title), strings.TrimSpace(f.URL)
	if title == "" || f.Category == "" || link == "" {
		return domain.Video{}, invalid("video", "Please fill in all required fields")
	}
	v := domain.Video{Title: title, Category: f.Category, URL: link}
	if prev, ok := existing.Get(); ok {
		v.ID = prev.ID
		v.Thumbnail = prev.Thumbnail
	} else {
		if len(f.Thumbnail) == 0 {
			return domain.Video{}, invalid("thumbnail", "Please select a thumbnail image")
		}
		v.ID = f.ID
		if v.ID == "" {
			v.ID = "video-" + newID()
		}
	}
	if len(f.Thumbnail) > 0 {
		v.Thumbnail = domain.BlobFromBytes(f.Thumbnail)
	}
	return v, nil
}

type Quiz struct {
	ID        string                `json:"id,omitempty"`
	VideoID   string                `json:"videoId"`
	Questions []domain.QuizQuestion `json:"questions"`
}

// Build trims every question and answer. The first broken question is reported
// with its 1-based number.
func (f Quiz) Build(newID func() string) (domain.Quiz, error) {
	if f.VideoID == "" {
		return domain.Quiz{}, invalid("videoId", "Please select a video")
	}
	if len(f.Questions) == 0 {
		return domain.Quiz{}, invalid("questions", "Add at least one question")
	}
	q := domain.Quiz{ID: f.ID, VideoID: f.VideoID, Questions: make([]domain.QuizQuestion, 0, len(f.Questions))}
	for i, in := range f.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		text := strings.TrimSpace(in.Question)
		if text == "" {
			return domain.Quiz{}, invalid(field, "Question %d is empty", i+1)
		}
		if len(in.Answers) < 2 {
			return domain.Quiz{}, invalid(field, "Question %d must have at least 2 answers", i+1)
		}
		answers := make([]string, len(in.Answers))
		for j, a := range in.Answers {
			answers[j] = strings.TrimSpace(a)
			if answers[j] == "" {
				return domain.Quiz{}, invalid(field, "Question %d has empty answers", i+1)
			}
		}
		if in.CorrectAnswerIndex < 0 || in.CorrectAnswerIndex >= len(answers) {
			return domain.Quiz{}, invalid(field, "Question %d has invalid correct answer index", i+1)
		}
		q.Questions = append(q.Questions, domain.QuizQuestion{Question: text, Answers: answers, CorrectAnswerIndex: in.CorrectAnswerIndex})
	}
	if q.ID == "" {
		q.ID = "quiz-" + newID()
	}
	return q, nil
}

type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Build keeps the stored status; a first profile starts out active.
func (f Profile) Build(existing domain.Option[domain.UserProfile]) (domain.UserProfile, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return domain.UserProfile{}, invalid("name", "Please enter your name")
	}
	p := domain.UserProfile{Name: name, Email: strings.TrimSpace(f.Email), Status: "active"}
	if prev, ok := existing.Get(); ok && prev.Status != "" {
		p.Status = prev.Status
	}
	return p, nil
}

func checkColor(field, value string) error {
	if value != "" && !view.IsValidHexColor(value) {
		return invalid(field, "%s must be a #RRGGBB color", field)
	}
	return nil
}

func Theme(t domain.Theme) (domain.Theme, error) {
	if t.PrimaryColor == "" || t.SecondaryColor == "" {
		return t, invalid("theme", "Both theme colors are required")
	}
	if err := checkColor("primaryColor", t.PrimaryColor); err != nil {
		return t, err
	}
	if err := checkColor("secondaryColor", t.SecondaryColor); err != nil {
		return t, err
	}
	return t, nil
}

// OverlayOpacity clamps to a percentage. Zero means unset and becomes 80.
func OverlayOpacity(v int) int {
	if v == 0 {
		return 80
	}
	return view.Clamp(v, 0, 100)
}

func HomepageVisuals(v domain.HomepageVisuals) (domain.HomepageVisuals, error) {
	if err := checkColor("backgroundColorOverlay", v.BackgroundColorOverlay); err != nil {
		return v, err
	}
	v.OverlayOpacity = OverlayOpacity(v.OverlayOpacity)
	return v, nil
}

func DashboardVisuals(v domain.DashboardVisuals) (domain.DashboardVisuals, error) {
	if err := checkColor("backgroundColorOverlay", v.BackgroundColorOverlay); err != nil {
		return v, err
	}
	v.OverlayOpacity = OverlayOpacity(v.OverlayOpacity)
	return v, nil
}

// DonationLink accepts an empty link (hides the prompt) or an absolute http(s) URL.
func DonationLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", nil
	}
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", invalid("donationLink", "Donation link must be an http(s) URL")
	}
	return link, nil
}
