package forms

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketflix-portal/internal/domain"
)

func fixedID() string { return "0001" }

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	return ve.Field
}

func TestCategoryTrims(t *testing.T) {
	c, err := Category{Name: "  Math "}.Build()
	require.NoError(t, err)
	assert.Equal(t, "Math", c)

	_, err = Category{Name: "   "}.Build()
	assert.Equal(t, "name", fieldOf(t, err))
}

func TestVideoForm(t *testing.T) {
	_, err := Video{Title: "x", URL: "https://v"}.Build(domain.None[domain.Video](), fixedID)
	assert.Equal(t, "video", fieldOf(t, err))

	_, err = Video{Title: "x", Category: "Math", URL: "https://v"}.Build(domain.None[domain.Video](), fixedID)
	assert.Equal(t, "thumbnail", fieldOf(t, err))

	v, err := Video{Title: " Fractions ", Category: "Math", URL: "https://v", Thumbnail: []byte{1}}.
		Build(domain.None[domain.Video](), fixedID)
	require.NoError(t, err)
	assert.Equal(t, "video-0001", v.ID)
	assert.Equal(t, "Fractions", v.Title)
	assert.True(t, v.Thumbnail.Pending())

	prev := domain.Video{ID: "v9", Thumbnail: domain.BlobFromURL("/media/t/9")}
	edited, err := Video{ID: "ignored", Title: "New", Category: "Math", URL: "https://v"}.Build(domain.Some(prev), fixedID)
	require.NoError(t, err)
	assert.Equal(t, "v9", edited.ID)
	assert.Equal(t, "/media/t/9", edited.Thumbnail.DirectURL())
}

func TestQuizEditorRules(t *testing.T) {
	good := domain.QuizQuestion{Question: "2+2?", Answers: []string{"3", "4"}, CorrectAnswerIndex: 1}
	cases := []struct {
		name string
		form Quiz
		msg  string
	}{
		{"no video", Quiz{Questions: []domain.QuizQuestion{good}}, "Please select a video"},
		{"empty question", Quiz{VideoID: "v1", Questions: []domain.QuizQuestion{good, {Question: " ", Answers: []string{"a", "b"}}}}, "Question 2 is empty"},
		{"one answer", Quiz{VideoID: "v1", Questions: []domain.QuizQuestion{{Question: "q", Answers: []string{"a"}}}}, "Question 1 must have at least 2 answers"},
		{"blank answer", Quiz{VideoID: "v1", Questions: []domain.QuizQuestion{{Question: "q", Answers: []string{"a", " "}}}}, "Question 1 has empty answers"},
		{"bad index", Quiz{VideoID: "v1", Questions: []domain.QuizQuestion{{Question: "q", Answers: []string{"a", "b"}, CorrectAnswerIndex: 2}}}, "Question 1 has invalid correct answer index"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.form.Build(fixedID)
			require.Error(t, err)
			assert.Equal(t, tc.msg, err.Error())
			fieldOf(t, err)
		})
	}

	q, err := Quiz{VideoID: "v1", Questions: []domain.QuizQuestion{{Question: " q ", Answers: []string{" a", "b "}, CorrectAnswerIndex: 0}}}.Build(fixedID)
	require.NoError(t, err)
	assert.Equal(t, "quiz-0001", q.ID)
	assert.Equal(t, "q", q.Questions[0].Question)
	assert.Equal(t, []string{"a", "b"}, q.Questions[0].Answers)
}

func TestProfileKeepsStatus(t *testing.T) {
	_, err := Profile{Name: " "}.Build(domain.None[domain.UserProfile]())
	assert.Equal(t, "name", fieldOf(t, err))

	p, err := Profile{Name: "Ana"}.Build(domain.None[domain.UserProfile]())
	require.NoError(t, err)
	assert.Equal(t, "active", p.Status)

	p, err = Profile{Name: "Ana"}.Build(domain.Some(domain.UserProfile{Status: "blocked"}))
	require.NoError(t, err)
	assert.Equal(t, "blocked", p.Status)
}

func TestColorsAndOpacity(t *testing.T) {
	_, err := Theme(domain.Theme{PrimaryColor: "#fb8c00", SecondaryColor: "navy"})
	assert.Equal(t, "secondaryColor", fieldOf(t, err))

	_, err = Theme(domain.Theme{PrimaryColor: "#fb8c00", SecondaryColor: "#04032e"})
	assert.NoError(t, err)

	v, err := HomepageVisuals(domain.HomepageVisuals{BackgroundColorOverlay: "#1A2C45", OverlayOpacity: 150})
	require.NoError(t, err)
	assert.Equal(t, 100, v.OverlayOpacity)

	d, err := DashboardVisuals(domain.DashboardVisuals{OverlayOpacity: -5})
	require.NoError(t, err)
	assert.Equal(t, 0, d.OverlayOpacity)

	_, err = DashboardVisuals(domain.DashboardVisuals{BackgroundColorOverlay: "#12"})
	assert.Equal(t, "backgroundColorOverlay", fieldOf(t, err))
}

func TestDonationLink(t *testing.T) {
	link, err := DonationLink("  ")
	require.NoError(t, err)
	assert.Empty(t, link)

	link, err = DonationLink(" https://ko-fi.com/pocketflix ")
	require.NoError(t, err)
	assert.Equal(t, "https://ko-fi.com/pocketflix", link)

	_, err = DonationLink("javascript:alert(1)")
	assert.Equal(t, "donationLink", fieldOf(t, err))
}
