package memory

import (
	"context"
	"sort"
	"sync"

	"pocketflix-portal/internal/backend"
	"pocketflix-portal/internal/domain"
)

var _ backend.Repository = (*Repository)(nil)

// Repository is an in-memory backend.Repository (useful for tests/demos).
// Videos, categories and quizzes keep insertion order.
type Repository struct {
	mu         sync.RWMutex
	videos     []domain.Video
	categories []domain.Category
	quizzes    []domain.Quiz
	results    []domain.QuizResult
	profiles   map[domain.Principal]domain.UserProfile
	roles      map[domain.Principal]domain.UserRole
	approvals  map[domain.Principal]domain.ApprovalStatus
	config     *domain.SiteConfig
}

func NewRepository() *Repository {
	return &Repository{
		profiles:  make(map[domain.Principal]domain.UserProfile),
		roles:     make(map[domain.Principal]domain.UserRole),
		approvals: make(map[domain.Principal]domain.ApprovalStatus),
	}
}

func (r *Repository) ListVideos(_ context.Context) ([]domain.Video, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append(make([]domain.Video, 0, len(r.videos)), r.videos...), nil
}

func (r *Repository) videoIndex(id string) int {
	for i, v := range r.videos {
		if v.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) InsertVideo(_ context.Context, v domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.videoIndex(v.ID) >= 0 {
		return domain.ErrAlreadyExists
	}
	r.videos = append(r.videos, v)
	return nil
}

func (r *Repository) UpdateVideo(_ context.Context, v domain.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.videoIndex(v.ID)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.videos[i] = v
	return nil
}

func (r *Repository) DeleteVideo(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.videoIndex(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.videos = append(r.videos[:i], r.videos[i+1:]...)
	return nil
}

func (r *Repository) ListCategories(_ context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append(make([]domain.Category, 0, len(r.categories)), r.categories...), nil
}

func (r *Repository) InsertCategory(_ context.Context, c domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.categories {
		if existing == c {
			return domain.ErrAlreadyExists
		}
	}
	r.categories = append(r.categories, c)
	return nil
}

func (r *Repository) DeleteCategory(_ context.Context, c domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.categories {
		if existing == c {
			r.categories = append(r.categories[:i], r.categories[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *Repository) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append(make([]domain.Quiz, 0, len(r.quizzes)), r.quizzes...), nil
}

func (r *Repository) quizIndex(id string) int {
	for i, q := range r.quizzes {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) GetQuiz(_ context.Context, id string) (domain.Option[domain.Quiz], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.quizIndex(id); i >= 0 {
		return domain.Some(r.quizzes[i]), nil
	}
	return domain.None[domain.Quiz](), nil
}

func (r *Repository) InsertQuiz(_ context.Context, q domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quizIndex(q.ID) >= 0 {
		return domain.ErrAlreadyExists
	}
	r.quizzes = append(r.quizzes, q)
	return nil
}

func (r *Repository) UpdateQuiz(_ context.Context, q domain.Quiz) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.quizIndex(q.ID)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.quizzes[i] = q
	return nil
}

func (r *Repository) DeleteQuiz(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.quizIndex(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	r.quizzes = append(r.quizzes[:i], r.quizzes[i+1:]...)
	return nil
}

func (r *Repository) AppendResult(_ context.Context, res domain.QuizResult) error {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	return nil
}

func (r *Repository) ListResults(_ context.Context) ([]domain.QuizResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append(make([]domain.QuizResult, 0, len(r.results)), r.results...), nil
}

func (r *Repository) GetProfile(_ context.Context, p domain.Principal) (domain.Option[domain.UserProfile], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if profile, ok := r.profiles[p]; ok {
		return domain.Some(profile), nil
	}
	return domain.None[domain.UserProfile](), nil
}

func (r *Repository) PutProfile(_ context.Context, p domain.Principal, profile domain.UserProfile) error {
	r.mu.Lock()
	r.profiles[p] = profile
	r.mu.Unlock()
	return nil
}

func (r *Repository) ListProfiles(_ context.Context) ([]domain.UserEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserEntry, 0, len(r.profiles))
	for p, profile := range r.profiles {
		out = append(out, domain.UserEntry{Principal: p, Profile: profile})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Principal < out[j].Principal })
	return out, nil
}

func (r *Repository) GetRole(_ context.Context, p domain.Principal) (domain.Option[domain.UserRole], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if role, ok := r.roles[p]; ok {
		return domain.Some(role), nil
	}
	return domain.None[domain.UserRole](), nil
}

func (r *Repository) PutRole(_ context.Context, p domain.Principal, role domain.UserRole) error {
	r.mu.Lock()
	r.roles[p] = role
	r.mu.Unlock()
	return nil
}

func (r *Repository) GetApproval(_ context.Context, p domain.Principal) (domain.Option[domain.ApprovalStatus], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if status, ok := r.approvals[p]; ok {
		return domain.Some(status), nil
	}
	return domain.None[domain.ApprovalStatus](), nil
}

func (r *Repository) PutApproval(_ context.Context, p domain.Principal, status domain.ApprovalStatus) error {
	r.mu.Lock()
	r.approvals[p] = status
	r.mu.Unlock()
	return nil
}

func (r *Repository) ListApprovals(_ context.Context) ([]domain.UserApprovalInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.UserApprovalInfo, 0, len(r.approvals))
	for p, status := range r.approvals {
		out = append(out, domain.UserApprovalInfo{Principal: p, Status: status})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Principal < out[j].Principal })
	return out, nil
}

func (r *Repository) LoadSiteConfig(_ context.Context) (domain.Option[domain.SiteConfig], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.OptionFromPtr(r.config), nil
}

func (r *Repository) SaveSiteConfig(_ context.Context, cfg domain.SiteConfig) error {
	r.mu.Lock()
	r.config = &cfg
	r.mu.Unlock()
	return nil
}
