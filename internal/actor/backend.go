// Package actor defines the contract of the remote backend and the accessor that
// hands out a lazily established handle to it.
package actor

import (
	"context"

	"pocketflix-portal/internal/domain"
)

// Backend is every operation the portal issues against the backend actor.
// The calling principal is read from the context (see WithCaller).
type Backend interface {
	GetVideos(ctx context.Context) ([]domain.Video, error)
	GetCategories(ctx context.Context) ([]domain.Category, error)
	GetAllQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuizzesByVideo(ctx context.Context, videoID string) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, id string) (domain.Option[domain.Quiz], error)
	GetLeaderboard(ctx context.Context) ([]domain.QuizResult, error)
	GetMyQuizResults(ctx context.Context) ([]domain.QuizResult, error)
	GetAllUsers(ctx context.Context) ([]domain.UserEntry, error)
	GetCallerUserProfile(ctx context.Context) (domain.Option[domain.UserProfile], error)
	GetCallerUserRole(ctx context.Context) (domain.UserRole, error)
	GetUserProfile(ctx context.Context, user domain.Principal) (domain.Option[domain.UserProfile], error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	IsCallerApproved(ctx context.Context) (bool, error)
	GetSettingsData(ctx context.Context) (domain.SettingsData, error)
	ListApprovals(ctx context.Context) ([]domain.UserApprovalInfo, error)

	AddVideo(ctx context.Context, video domain.Video) error
	UpdateVideo(ctx context.Context, video domain.Video) error
	DeleteVideo(ctx context.Context, id string) error
	AddCategory(ctx context.Context, category domain.Category) error
	DeleteCategory(ctx context.Context, category domain.Category) error
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
	TakeQuiz(ctx context.Context, quizID string, answers []int) (int, error)
	SaveCallerUserProfile(ctx context.Context, profile domain.UserProfile) error
	AssignCallerUserRole(ctx context.Context, user domain.Principal, role domain.UserRole) error
	RequestApproval(ctx context.Context) error
	SetApproval(ctx context.Context, user domain.Principal, status domain.ApprovalStatus) error
	UpdateUserStatus(ctx context.Context, user domain.Principal, status string) error
	UpdateDonationLink(ctx context.Context, link string) error
	UpdateHomePageText(ctx context.Context, text, subText, supportingText string) error
	UpdateAdminConfig(ctx context.Context, cfg domain.AdminConfig) error
	UpdateHomepageVisuals(ctx context.Context, visuals domain.HomepageVisuals) error
	UpdateDashboardVisuals(ctx context.Context, visuals domain.DashboardVisuals) error
	UpdateLogo(ctx context.Context, logo domain.Option[domain.ExternalBlob]) error
	UpdateTheme(ctx context.Context, theme domain.Theme) error
	UpdateSettings(ctx context.Context, settings domain.Settings) error
}
