package http

import (
	"context"
	"fmt"
	"net/http"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/quizflow"
)

type attemptResponse struct {
	quizflow.Attempt
	Quiz    publicQuiz `json:"quiz"`
	Verdict string     `json:"verdict,omitempty"`
	// ShowDonation is true in exactly one response per scored attempt.
	ShowDonation bool   `json:"showDonation"`
	DonationLink string `json:"donationLink,omitempty"`
}

func (s *Server) loadQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	found, err := need(s.client.Quiz(ctx, id))
	if err != nil {
		return domain.Quiz{}, err
	}
	q, ok := found.Get()
	if !ok {
		return domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, id)
	}
	return q, nil
}

func (s *Server) attemptView(ctx context.Context, a quizflow.Attempt) (attemptResponse, error) {
	q, err := s.loadQuiz(ctx, a.QuizID)
	if err != nil {
		return attemptResponse{}, err
	}
	return attemptResponse{Attempt: a, Quiz: redact(q), Verdict: a.Verdict()}, nil
}

func (s *Server) respondAttempt(w http.ResponseWriter, r *http.Request, status int, a quizflow.Attempt) {
	resp, err := s.attemptView(r.Context(), a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, resp)
}

func (s *Server) startAttempt(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuizID string `json:"quizId"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.loadQuiz(r.Context(), body.QuizID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.flow.Start(r.Context(), actor.CallerFrom(r.Context()), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, attemptResponse{Attempt: a, Quiz: redact(q)})
}

func (s *Server) getAttempt(w http.ResponseWriter, r *http.Request) {
	a, err := s.flow.Get(r.Context(), actor.CallerFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondAttempt(w, r, http.StatusOK, a)
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question int `json:"question"`
		Answer   int `json:"answer"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.flow.Answer(r.Context(), actor.CallerFrom(r.Context()), r.PathValue("id"), body.Question, body.Answer)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondAttempt(w, r, http.StatusOK, a)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := actor.CallerFrom(ctx)
	a, err := s.flow.Submit(ctx, caller, r.PathValue("id"), s.client)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.attemptView(ctx, a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	show, err := s.flow.TakeDonationPrompt(ctx, caller, a.ID)
	if err != nil {
		s.logger.Warn("donation prompt lookup failed", "attempt", a.ID, "err", err)
	}
	resp.ShowDonation = show
	if show {
		if data, err := need(s.client.SettingsData(ctx)); err == nil {
			resp.DonationLink = data.AdminConfig.DonationLink
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) discard(w http.ResponseWriter, r *http.Request) {
	if err := s.flow.Discard(r.Context(), actor.CallerFrom(r.Context()), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
