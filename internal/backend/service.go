// Package backend is a reference implementation of the actor: authorization,
// quiz scoring and settings storage over a Repository.
package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/domain"
)

var _ actor.Backend = (*Service)(nil)

// Service implements actor.Backend.
type Service struct {
	repo Repository
	now  func() time.Time

	// serializes read-modify-write of the site config document
	configMu sync.Mutex
}

func NewService(repo Repository) *Service {
	return NewServiceWithClock(repo, time.Now)
}

// NewServiceWithClock is used by tests for deterministic result timestamps.
func NewServiceWithClock(repo Repository, now func() time.Time) *Service {
	return &Service{repo: repo, now: now}
}

// Bootstrap grants the admin role to the given principals.
func (s *Service) Bootstrap(ctx context.Context, admins []domain.Principal) error {
	for _, p := range admins {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := s.repo.PutRole(ctx, p, domain.RoleAdmin); err != nil {
			return fmt.Errorf("bootstrap admin %s: %w", p, err)
		}
	}
	return nil
}

func (s *Service) role(ctx context.Context, p domain.Principal) (domain.UserRole, error) {
	if p == "" {
		return domain.RoleGuest, nil
	}
	stored, err := s.repo.GetRole(ctx, p)
	if err != nil {
		return "", err
	}
	if r, ok := stored.Get(); ok {
		return r, nil
	}
	profile, err := s.repo.GetProfile(ctx, p)
	if err != nil {
		return "", err
	}
	if profile.IsSome() {
		return domain.RoleUser, nil
	}
	return domain.RoleGuest, nil
}

func (s *Service) requireUser(ctx context.Context) (domain.Principal, error) {
	p := actor.CallerFrom(ctx)
	if p == "" {
		return "", domain.ErrUnauthorized
	}
	return p, nil
}

func (s *Service) requireAdmin(ctx context.Context) error {
	p, err := s.requireUser(ctx)
	if err != nil {
		return err
	}
	r, err := s.role(ctx, p)
	if err != nil {
		return err
	}
	if r != domain.RoleAdmin {
		return domain.ErrUnauthorized
	}
	return nil
}

func (s *Service) GetVideos(ctx context.Context) ([]domain.Video, error) {
	return s.repo.ListVideos(ctx)
}

func (s *Service) GetCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) GetAllQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.repo.ListQuizzes(ctx)
}

func (s *Service) GetQuizzesByVideo(ctx context.Context, videoID string) ([]domain.Quiz, error) {
	all, err := s.repo.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, 0, len(all))
	for _, q := range all {
		if q.VideoID == videoID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *Service) GetQuiz(ctx context.Context, id string) (domain.Option[domain.Quiz], error) {
	return s.repo.GetQuiz(ctx, id)
}

// GetLeaderboard orders every result by score, then by who reached it first.
func (s *Service) GetLeaderboard(ctx context.Context) ([]domain.QuizResult, error) {
	results, err := s.repo.ListResults(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Timestamp < results[j].Timestamp
	})
	return results, nil
}

func (s *Service) GetMyQuizResults(ctx context.Context) ([]domain.QuizResult, error) {
	p, err := s.requireUser(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.ListResults(ctx)
	if err != nil {
		return nil, err
	}
	mine := make([]domain.QuizResult, 0)
	for _, r := range results {
		if r.User == p {
			mine = append(mine, r)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool { return mine[i].Timestamp > mine[j].Timestamp })
	return mine, nil
}

func (s *Service) GetAllUsers(ctx context.Context) ([]domain.UserEntry, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListProfiles(ctx)
}

func (s *Service) GetCallerUserProfile(ctx context.Context) (domain.Option[domain.UserProfile], error) {
	p := actor.CallerFrom(ctx)
	if p == "" {
		return domain.None[domain.UserProfile](), nil
	}
	return s.repo.GetProfile(ctx, p)
}

func (s *Service) GetCallerUserRole(ctx context.Context) (domain.UserRole, error) {
	return s.role(ctx, actor.CallerFrom(ctx))
}

func (s *Service) GetUserProfile(ctx context.Context, user domain.Principal) (domain.Option[domain.UserProfile], error) {
	if actor.CallerFrom(ctx) != user {
		if err := s.requireAdmin(ctx); err != nil {
			return domain.None[domain.UserProfile](), err
		}
	}
	return s.repo.GetProfile(ctx, user)
}

func (s *Service) IsCallerAdmin(ctx context.Context) (bool, error) {
	r, err := s.role(ctx, actor.CallerFrom(ctx))
	if err != nil {
		return false, err
	}
	return r == domain.RoleAdmin, nil
}

func (s *Service) IsCallerApproved(ctx context.Context) (bool, error) {
	p := actor.CallerFrom(ctx)
	if p == "" {
		return false, nil
	}
	r, err := s.role(ctx, p)
	if err != nil {
		return false, err
	}
	if r == domain.RoleAdmin {
		return true, nil
	}
	status, err := s.repo.GetApproval(ctx, p)
	if err != nil {
		return false, err
	}
	return status.OrElse(domain.ApprovalPending) == domain.ApprovalApproved, nil
}

func (s *Service) ListApprovals(ctx context.Context) ([]domain.UserApprovalInfo, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListApprovals(ctx)
}

func (s *Service) GetSettingsData(ctx context.Context) (domain.SettingsData, error) {
	cfg, err := s.siteConfig(ctx)
	if err != nil {
		return domain.SettingsData{}, err
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return domain.SettingsData{}, err
	}
	videos, err := s.repo.ListVideos(ctx)
	if err != nil {
		return domain.SettingsData{}, err
	}
	return domain.SettingsData{
		Categories:  categories,
		AdminConfig: cfg.AdminConfig,
		Settings:    cfg.Settings,
		Videos:      videos,
	}, nil
}

func (s *Service) siteConfig(ctx context.Context) (domain.SiteConfig, error) {
	stored, err := s.repo.LoadSiteConfig(ctx)
	if err != nil {
		return domain.SiteConfig{}, err
	}
	return stored.OrElse(domain.DefaultSiteConfig()), nil
}

func (s *Service) validateVideo(ctx context.Context, v domain.Video) error {
	if strings.TrimSpace(v.ID) == "" || strings.TrimSpace(v.Title) == "" || strings.TrimSpace(v.URL) == "" {
		return fmt.Errorf("%w: video id, title and url are required", domain.ErrInvalidInput)
	}
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		if c == v.Category {
			return nil
		}
	}
	return fmt.Errorf("category %q: %w", v.Category, domain.ErrNotFound)
}

func (s *Service) AddVideo(ctx context.Context, video domain.Video) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.validateVideo(ctx, video); err != nil {
		return err
	}
	return s.repo.InsertVideo(ctx, video)
}

func (s *Service) UpdateVideo(ctx context.Context, video domain.Video) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.validateVideo(ctx, video); err != nil {
		return err
	}
	return s.repo.UpdateVideo(ctx, video)
}

func (s *Service) DeleteVideo(ctx context.Context, id string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteVideo(ctx, id)
}

func (s *Service) AddCategory(ctx context.Context, category domain.Category) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return fmt.Errorf("%w: empty category", domain.ErrInvalidInput)
	}
	return s.repo.InsertCategory(ctx, category)
}

// DeleteCategory leaves videos that reference the category untouched.
func (s *Service) DeleteCategory(ctx context.Context, category domain.Category) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteCategory(ctx, category)
}

func (s *Service) checkQuiz(ctx context.Context, q domain.Quiz) error {
	if err := ValidateQuiz(q); err != nil {
		return err
	}
	videos, err := s.repo.ListVideos(ctx)
	if err != nil {
		return err
	}
	for _, v := range videos {
		if v.ID == q.VideoID {
			return nil
		}
	}
	return fmt.Errorf("video %q: %w", q.VideoID, domain.ErrNotFound)
}

func (s *Service) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.checkQuiz(ctx, quiz); err != nil {
		return err
	}
	return s.repo.InsertQuiz(ctx, quiz)
}

func (s *Service) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.checkQuiz(ctx, quiz); err != nil {
		return err
	}
	return s.repo.UpdateQuiz(ctx, quiz)
}

func (s *Service) DeleteQuiz(ctx context.Context, id string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	return s.repo.DeleteQuiz(ctx, id)
}

// TakeQuiz scores a submission and appends the result.
func (s *Service) TakeQuiz(ctx context.Context, quizID string, answers []int) (int, error) {
	p, err := s.requireUser(ctx)
	if err != nil {
		return 0, err
	}
	stored, err := s.repo.GetQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	quiz, ok := stored.Get()
	if !ok {
		return 0, domain.ErrQuizNotFound
	}
	score, err := Score(quiz, answers)
	if err != nil {
		return 0, err
	}
	result := domain.QuizResult{
		User:      p,
		Score:     score,
		Timestamp: s.now().UnixNano(),
		QuizID:    quizID,
	}
	if err := s.repo.AppendResult(ctx, result); err != nil {
		return 0, err
	}
	return score, nil
}

func (s *Service) SaveCallerUserProfile(ctx context.Context, profile domain.UserProfile) error {
	p, err := s.requireUser(ctx)
	if err != nil {
		return err
	}
	if profile.Status == "" {
		profile.Status = "active"
	}
	return s.repo.PutProfile(ctx, p, profile)
}

func (s *Service) AssignCallerUserRole(ctx context.Context, user domain.Principal, role domain.UserRole) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: role %q", domain.ErrInvalidInput, role)
	}
	return s.repo.PutRole(ctx, user, role)
}

func (s *Service) RequestApproval(ctx context.Context) error {
	p, err := s.requireUser(ctx)
	if err != nil {
		return err
	}
	current, err := s.repo.GetApproval(ctx, p)
	if err != nil {
		return err
	}
	if current.OrElse(domain.ApprovalPending) == domain.ApprovalApproved {
		return nil
	}
	return s.repo.PutApproval(ctx, p, domain.ApprovalPending)
}

func (s *Service) SetApproval(ctx context.Context, user domain.Principal, status domain.ApprovalStatus) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: approval status %q", domain.ErrInvalidInput, status)
	}
	return s.repo.PutApproval(ctx, user, status)
}

func (s *Service) UpdateUserStatus(ctx context.Context, user domain.Principal, status string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	stored, err := s.repo.GetProfile(ctx, user)
	if err != nil {
		return err
	}
	profile, ok := stored.Get()
	if !ok {
		return fmt.Errorf("user %s: %w", user, domain.ErrNotFound)
	}
	profile.Status = status
	return s.repo.PutProfile(ctx, user, profile)
}

// editConfig applies fn to the stored site config under the config lock.
func (s *Service) editConfig(ctx context.Context, fn func(*domain.SiteConfig)) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}
	s.configMu.Lock()
	defer s.configMu.Unlock()
	cfg, err := s.siteConfig(ctx)
	if err != nil {
		return err
	}
	fn(&cfg)
	return s.repo.SaveSiteConfig(ctx, cfg)
}

func (s *Service) UpdateDonationLink(ctx context.Context, link string) error {
	return s.editConfig(ctx, func(cfg *domain.SiteConfig) {
		cfg.Settings.DonationLink = link
		cfg.AdminConfig.DonationLink = link
	})
}

func (s *Service) UpdateHomePageText(ctx context.Context, text, subText, supportingText string) error {
	return s.editConfig(ctx, func(cfg *domain.SiteConfig) {
		cfg.AdminConfig.HomePageText = text
		cfg.AdminConfig.HomePageSubText = subText
		cfg.AdminConfig.HomePageSupportingText = supportingText
	})
}

func (s *Service) UpdateAdminConfig(ctx context.Context, admin domain.AdminConfig) error {
	return s.editConfig(ctx, func(cfg *domain.SiteConfig) {
		cfg.AdminConfig = admin
		cfg.Settings.DonationLink = admin.DonationLink
		cfg.Settings.Theme = admin.Theme
	})
}

func (s *Service) UpdateHomepageVisuals(ctx context.Context, visuals domain.HomepageVisuals) error {
	return s.editConfig(ctx, func(cfg *domain.SiteConfig) {
		cfg.AdminConfig.HomepageVisuals = visuals
	})
}

func (s *Service) UpdateDashboardVisuals(ctx context.Context, visuals domain.DashboardVisuals) error {
	return s.editConfig(ctx, func(cfg *domain.SiteConfig) {
		cfg.AdminConfig.DashboardVisuals = visuals
	})
}

func (s *Service) UpdateLogo(ctx context.Context, logo domain.Option[domain.ExternalBlob]) error {
	return s.editConfig(ctx, func(cfg *domain.SiteConfig) {
		cfg.AdminConfig.Logo = logo
	})
}

func (s *Service) UpdateTheme(ctx context.Context, theme domain.Theme) error {
	return s.editConfig(ctx, func(cfg *domain.SiteConfig) {
		cfg.Settings.Theme = theme
		cfg.AdminConfig.Theme = theme
	})
}

func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	return s.editConfig(ctx, func(cfg *domain.SiteConfig) {
		cfg.Settings = settings
		cfg.AdminConfig.DonationLink = settings.DonationLink
		cfg.AdminConfig.Theme = settings.Theme
	})
}
