package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/forms"
	qc "pocketflix-portal/internal/querycache"
	"pocketflix-portal/internal/quizflow"
)

// errLoading marks a read that is still being fetched.
var errLoading = errors.New("still loading")

const maxBody = 8 << 20

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var ve *forms.ValidationError
	switch {
	case errors.Is(err, errLoading):
		return http.StatusAccepted
	case errors.As(err, &ve),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuiz),
		errors.Is(err, domain.ErrInvalidAnswers),
		errors.Is(err, quizflow.ErrIncompleteAnswers),
		errors.Is(err, quizflow.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, quizflow.ErrAttemptNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, quizflow.ErrWrongPhase):
		return http.StatusConflict
	case errors.Is(err, domain.ErrActorNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// writeError converts err into the transient notification the shell shows.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusAccepted {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, status, map[string]string{"state": "loading"})
		return
	}
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)

	body := errorBody{Error: err.Error()}
	var ve *forms.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	writeJSON(w, status, body)
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return &forms.ValidationError{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// need unwraps a cached read. A disabled read reports the actor as not ready.
func need[T any](res qc.Result[T]) (T, error) {
	switch {
	case res.IsSuccess():
		return res.Data, nil
	case res.IsError():
		return res.Data, res.Err
	case res.IsFetching:
		return res.Data, errLoading
	default:
		return res.Data, domain.ErrActorNotReady
	}
}

// orEmpty unwraps a list read that degrades to an empty list while the actor is
// not ready.
func orEmpty[T any](res qc.Result[[]T]) ([]T, error) {
	if res.Status == qc.StatusPending && !res.IsFetching {
		if res.Data == nil {
			return []T{}, nil
		}
		return res.Data, nil
	}
	return need(res)
}
