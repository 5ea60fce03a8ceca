package domain

import "errors"

var (
	// ErrActorNotReady is returned when the backend handle is still being established.
	ErrActorNotReady = errors.New("actor not available")
	// ErrUnauthorized is returned when the caller lacks the role an operation requires.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a caller-supplied id is already taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidAnswers is returned when a submission does not carry one answer per question.
	ErrInvalidAnswers = errors.New("answers do not match quiz questions")
	// ErrInvalidInput is returned for malformed write payloads.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidQuiz is returned when quiz content violates the question/answer rules.
	ErrInvalidQuiz = errors.New("invalid quiz")
)
