package cli

import (
	"context"
	"errors"
	"fmt"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/domain"
)

// sampleCatalog is loaded into an empty memory backend when backend.seed is set.
func sampleCatalog() ([]domain.Category, []domain.Video, []domain.Quiz) {
	categories := []domain.Category{"Science", "History"}
	videos := []domain.Video{
		{
			ID:        "video-sample-water-cycle",
			Title:     "The Water Cycle",
			Category:  "Science",
			URL:       "https://www.youtube.com/watch?v=al-do-HGuIk",
			Thumbnail: domain.BlobFromURL("https://img.youtube.com/vi/al-do-HGuIk/hqdefault.jpg"),
		},
		{
			ID:        "video-sample-ancient-rome",
			Title:     "Ancient Rome in Ten Minutes",
			Category:  "History",
			URL:       "https://www.youtube.com/watch?v=46ZXl-V4qwY",
			Thumbnail: domain.BlobFromURL("https://img.youtube.com/vi/46ZXl-V4qwY/hqdefault.jpg"),
		},
	}
	quizzes := []domain.Quiz{
		{
			ID:      "quiz-sample-water-cycle",
			VideoID: "video-sample-water-cycle",
			Questions: []domain.QuizQuestion{
				{Question: "What drives evaporation?", Answers: []string{"The moon", "The sun", "Wind only"}, CorrectAnswerIndex: 1},
				{Question: "Water vapour cooling into droplets is called?", Answers: []string{"Condensation", "Precipitation"}, CorrectAnswerIndex: 0},
			},
		},
		{
			ID:      "quiz-sample-ancient-rome",
			VideoID: "video-sample-ancient-rome",
			Questions: []domain.QuizQuestion{
				{Question: "Which river runs through Rome?", Answers: []string{"Seine", "Tiber", "Danube"}, CorrectAnswerIndex: 1},
			},
		},
	}
	return categories, videos, quizzes
}

// seed writes the sample catalog through b as admin.
func seed(ctx context.Context, b actor.Backend, admin domain.Principal) error {
	if admin == "" {
		return errors.New("seeding needs at least one backend.admins entry")
	}
	ctx = actor.WithCaller(ctx, admin)
	categories, videos, quizzes := sampleCatalog()
	for _, c := range categories {
		if err := b.AddCategory(ctx, c); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("seed category %s: %w", c, err)
		}
	}
	for _, v := range videos {
		if err := b.AddVideo(ctx, v); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("seed video %s: %w", v.ID, err)
		}
	}
	for _, q := range quizzes {
		if err := b.CreateQuiz(ctx, q); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
			return fmt.Errorf("seed quiz %s: %w", q.ID, err)
		}
	}
	return nil
}
