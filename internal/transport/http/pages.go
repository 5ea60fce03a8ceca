package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"pocketflix-portal/internal/access"
	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/forms"
	"pocketflix-portal/internal/identity"
	"pocketflix-portal/internal/view"
)

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	var (
		data    domain.SettingsData
		results []domain.QuizResult
		st      access.UserState
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data, err = need(s.client.SettingsData(ctx))
		return err
	})
	g.Go(func() (err error) {
		results, err = orEmpty(s.client.Leaderboard(ctx))
		return err
	})
	g.Go(func() error {
		st = access.CurrentUser(ctx, s.client)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewHomePage(data, results, st.IsAdmin))
}

func (s *Server) settings(w http.ResponseWriter, r *http.Request) {
	data, err := need(s.client.SettingsData(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	results, err := orEmpty(s.client.Leaderboard(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.TopResults(results, len(results)))
}

type publicQuestion struct {
	Question string   `json:"question"`
	Answers  []string `json:"answers"`
}

type publicQuiz struct {
	ID        string           `json:"id"`
	VideoID   string           `json:"videoId"`
	Questions []publicQuestion `json:"questions"`
}

// redact drops the correct answers so quizzes can be shown before submission.
func redact(q domain.Quiz) publicQuiz {
	out := publicQuiz{ID: q.ID, VideoID: q.VideoID, Questions: make([]publicQuestion, 0, len(q.Questions))}
	for _, question := range q.Questions {
		out.Questions = append(out.Questions, publicQuestion{Question: question.Question, Answers: question.Answers})
	}
	return out
}

func (s *Server) videoQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := need(s.client.QuizzesByVideo(r.Context(), r.PathValue("id")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]publicQuiz, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, redact(q))
	}
	writeJSON(w, http.StatusOK, out)
}

type meResponse struct {
	access.UserState
	Identity domain.Option[identity.Identity] `json:"identity"`
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, meResponse{
		UserState: s.state(r),
		Identity:  identity.FromContext(r.Context()),
	})
}

func (s *Server) accountPage(w http.ResponseWriter, r *http.Request) {
	st, _ := access.StateFrom(r.Context())
	results, err := need(s.client.MyQuizResults(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewAccountPage(st.UserProfile, results))
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	var (
		data      domain.SettingsData
		quizzes   []domain.Quiz
		users     []domain.UserEntry
		approvals []domain.UserApprovalInfo
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data, err = need(s.client.SettingsData(ctx))
		return err
	})
	g.Go(func() (err error) {
		quizzes, err = need(s.client.AllQuizzes(ctx))
		return err
	})
	g.Go(func() (err error) {
		users, err = need(s.client.AllUsers(ctx))
		return err
	})
	g.Go(func() (err error) {
		approvals, err = need(s.client.Approvals(ctx))
		return err
	})
	if err := g.Wait(); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewDashboard(data, quizzes, users, approvals))
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	var form forms.Profile
	if err := decode(r, &form); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, _ := access.StateFrom(r.Context())
	profile, err := form.Build(st.UserProfile)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.client.SaveCallerUserProfile(r.Context(), profile); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) approvalStatus(w http.ResponseWriter, r *http.Request) {
	ok, err := need(s.client.IsCallerApproved(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"approved": ok})
}

func (s *Server) requestApproval(w http.ResponseWriter, r *http.Request) {
	if err := s.client.RequestApproval(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": string(domain.ApprovalPending)})
}
