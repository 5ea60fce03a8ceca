package backend

import (
	"context"

	"pocketflix-portal/internal/domain"
)

// Repository is the storage behind Service. Insert methods return
// domain.ErrAlreadyExists on duplicate ids; Update and Delete return
// domain.ErrNotFound when nothing matched.
type Repository interface {
	ListVideos(ctx context.Context) ([]domain.Video, error)
	InsertVideo(ctx context.Context, v domain.Video) error
	UpdateVideo(ctx context.Context, v domain.Video) error
	DeleteVideo(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]domain.Category, error)
	InsertCategory(ctx context.Context, c domain.Category) error
	DeleteCategory(ctx context.Context, c domain.Category) error

	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, id string) (domain.Option[domain.Quiz], error)
	InsertQuiz(ctx context.Context, q domain.Quiz) error
	UpdateQuiz(ctx context.Context, q domain.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error

	AppendResult(ctx context.Context, r domain.QuizResult) error
	ListResults(ctx context.Context) ([]domain.QuizResult, error)

	GetProfile(ctx context.Context, p domain.Principal) (domain.Option[domain.UserProfile], error)
	PutProfile(ctx context.Context, p domain.Principal, profile domain.UserProfile) error
	ListProfiles(ctx context.Context) ([]domain.UserEntry, error)

	GetRole(ctx context.Context, p domain.Principal) (domain.Option[domain.UserRole], error)
	PutRole(ctx context.Context, p domain.Principal, role domain.UserRole) error

	GetApproval(ctx context.Context, p domain.Principal) (domain.Option[domain.ApprovalStatus], error)
	PutApproval(ctx context.Context, p domain.Principal, status domain.ApprovalStatus) error
	ListApprovals(ctx context.Context) ([]domain.UserApprovalInfo, error)

	LoadSiteConfig(ctx context.Context) (domain.Option[domain.SiteConfig], error)
	SaveSiteConfig(ctx context.Context, cfg domain.SiteConfig) error
}
