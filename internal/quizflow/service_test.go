package quizflow_test

import (
	"context"
	"errors"
	"testing"

	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/infra/memory"
	"pocketflix-portal/internal/quizflow"
)

type stubSubmitter struct {
	score int
	err   error
	calls int
	got   []int
}

func (s *stubSubmitter) TakeQuiz(_ context.Context, _ string, answers []int) (int, error) {
	s.calls++
	s.got = answers
	return s.score, s.err
}

func threeQuestionQuiz() domain.Quiz {
	q := domain.QuizQuestion{Question: "?", Answers: []string{"a", "b", "c"}, CorrectAnswerIndex: 0}
	return domain.Quiz{ID: "q1", VideoID: "v1", Questions: []domain.QuizQuestion{q, q, q}}
}

func newFlow() *quizflow.Service {
	return quizflow.NewService(memory.NewAttemptStore(0), nil)
}

func TestSubmitBlockedUntilEveryQuestionAnswered(t *testing.T) {
	ctx := context.Background()
	flow := newFlow()
	a, err := flow.Start(ctx, "p1", threeQuestionQuiz())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _ = flow.Answer(ctx, "p1", a.ID, 0, 1)
	_, _ = flow.Answer(ctx, "p1", a.ID, 1, 2)

	sub := &stubSubmitter{score: 3}
	got, err := flow.Submit(ctx, "p1", a.ID, sub)
	if !errors.Is(err, quizflow.ErrIncompleteAnswers) {
		t.Fatalf("expected ErrIncompleteAnswers, got %v", err)
	}
	if sub.calls != 0 {
		t.Fatalf("backend must not be called for an incomplete sheet")
	}
	if got.Phase != quizflow.PhaseAnswering || got.Answered() != 2 {
		t.Fatalf("unexpected attempt %+v", got)
	}
}

func TestPerfectScoreArmsDonationPromptOnce(t *testing.T) {
	ctx := context.Background()
	flow := newFlow()
	a, _ := flow.Start(ctx, "p1", threeQuestionQuiz())
	for q := 0; q < 3; q++ {
		if _, err := flow.Answer(ctx, "p1", a.ID, q, 0); err != nil {
			t.Fatalf("answer %d: %v", q, err)
		}
	}

	sub := &stubSubmitter{score: 3}
	scored, err := flow.Submit(ctx, "p1", a.ID, sub)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if scored.Phase != quizflow.PhaseScored || scored.Score != 3 || scored.Total() != 3 {
		t.Fatalf("expected 3/3, got %+v", scored)
	}
	if scored.Verdict() != "Perfect score!" {
		t.Fatalf("unexpected verdict %q", scored.Verdict())
	}
	if len(sub.got) != 3 || sub.got[0] != 0 {
		t.Fatalf("unexpected answers sent %v", sub.got)
	}

	first, _ := flow.TakeDonationPrompt(ctx, "p1", a.ID)
	second, _ := flow.TakeDonationPrompt(ctx, "p1", a.ID)
	if !first || second {
		t.Fatalf("donation prompt must show exactly once, got %v then %v", first, second)
	}

	if _, err := flow.Submit(ctx, "p1", a.ID, sub); !errors.Is(err, quizflow.ErrWrongPhase) {
		t.Fatalf("scored attempt must not resubmit, got %v", err)
	}
	if _, err := flow.Answer(ctx, "p1", a.ID, 0, 1); !errors.Is(err, quizflow.ErrWrongPhase) {
		t.Fatalf("scored attempt must not accept answers, got %v", err)
	}
}

func TestFailedSubmissionRevertsToAnswering(t *testing.T) {
	ctx := context.Background()
	flow := newFlow()
	a, _ := flow.Start(ctx, "p1", threeQuestionQuiz())
	for q := 0; q < 3; q++ {
		_, _ = flow.Answer(ctx, "p1", a.ID, q, 2)
	}

	got, err := flow.Submit(ctx, "p1", a.ID, &stubSubmitter{err: errors.New("backend down")})
	if err == nil {
		t.Fatalf("expected submission error")
	}
	if got.Phase != quizflow.PhaseAnswering || !got.Complete() {
		t.Fatalf("expected answers kept and phase reverted, got %+v", got)
	}
	if ok, _ := flow.TakeDonationPrompt(ctx, "p1", a.ID); ok {
		t.Fatalf("no donation prompt without a score")
	}

	retry, err := flow.Submit(ctx, "p1", a.ID, &stubSubmitter{score: 1})
	if err != nil || retry.Verdict() != "Keep learning!" {
		t.Fatalf("retry: %+v %v", retry, err)
	}
}

func TestAnswerRangeAndOwnership(t *testing.T) {
	ctx := context.Background()
	flow := newFlow()
	a, _ := flow.Start(ctx, "p1", threeQuestionQuiz())

	if _, err := flow.Answer(ctx, "p1", a.ID, 3, 0); !errors.Is(err, quizflow.ErrOutOfRange) {
		t.Fatalf("expected question out of range, got %v", err)
	}
	if _, err := flow.Answer(ctx, "p1", a.ID, 0, 3); !errors.Is(err, quizflow.ErrOutOfRange) {
		t.Fatalf("expected answer out of range, got %v", err)
	}
	got, _ := flow.Answer(ctx, "p1", a.ID, 0, 1)
	got, _ = flow.Answer(ctx, "p1", a.ID, 0, 2)
	if got.Answers[0] != 2 {
		t.Fatalf("re-answering must overwrite, got %v", got.Answers)
	}
	if _, err := flow.Get(ctx, "p2", a.ID); !errors.Is(err, quizflow.ErrAttemptNotFound) {
		t.Fatalf("other principals must not see the attempt, got %v", err)
	}
}

func TestVerdictThresholds(t *testing.T) {
	cases := []struct {
		score, total int
		want         string
	}{
		{10, 10, "Perfect score!"},
		{7, 10, "Great job!"},
		{6, 10, "Keep learning!"},
		{0, 3, "Keep learning!"},
	}
	for _, tc := range cases {
		if got := quizflow.Verdict(tc.score, tc.total); got != tc.want {
			t.Fatalf("Verdict(%d,%d)=%q want %q", tc.score, tc.total, got, tc.want)
		}
	}
}
