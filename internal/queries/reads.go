package queries

import (
	"context"
	"time"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/domain"
	qc "pocketflix-portal/internal/querycache"
)

var alwaysRefetch = time.Duration(0)

func (c *Client) SettingsData(ctx context.Context) qc.Result[domain.SettingsData] {
	return read(ctx, c, readSpec{key: KeySettingsData, noRetry: true},
		func(ctx context.Context, b actor.Backend) (domain.SettingsData, error) {
			return b.GetSettingsData(ctx)
		})
}

func (c *Client) Videos(ctx context.Context) qc.Result[[]domain.Video] {
	return degrade(read(ctx, c, readSpec{key: KeyVideos},
		func(ctx context.Context, b actor.Backend) ([]domain.Video, error) {
			return b.GetVideos(ctx)
		}))
}

func (c *Client) Categories(ctx context.Context) qc.Result[[]domain.Category] {
	return degrade(read(ctx, c, readSpec{key: KeyCategories},
		func(ctx context.Context, b actor.Backend) ([]domain.Category, error) {
			return b.GetCategories(ctx)
		}))
}

func (c *Client) AllQuizzes(ctx context.Context) qc.Result[[]domain.Quiz] {
	return read(ctx, c, readSpec{key: KeyAllQuizzes},
		func(ctx context.Context, b actor.Backend) ([]domain.Quiz, error) {
			return b.GetAllQuizzes(ctx)
		})
}

// QuizzesByVideo is disabled while videoID is empty.
func (c *Client) QuizzesByVideo(ctx context.Context, videoID string) qc.Result[[]domain.Quiz] {
	return read(ctx, c, readSpec{key: QuizzesByVideoKey(videoID), params: []string{videoID}},
		func(ctx context.Context, b actor.Backend) ([]domain.Quiz, error) {
			return b.GetQuizzesByVideo(ctx, videoID)
		})
}

func (c *Client) Quiz(ctx context.Context, id string) qc.Result[domain.Option[domain.Quiz]] {
	return read(ctx, c, readSpec{key: QuizKey(id), params: []string{id}},
		func(ctx context.Context, b actor.Backend) (domain.Option[domain.Quiz], error) {
			return b.GetQuiz(ctx, id)
		})
}

func (c *Client) Leaderboard(ctx context.Context) qc.Result[[]domain.QuizResult] {
	return degrade(read(ctx, c, readSpec{key: KeyLeaderboard},
		func(ctx context.Context, b actor.Backend) ([]domain.QuizResult, error) {
			return b.GetLeaderboard(ctx)
		}))
}

func (c *Client) MyQuizResults(ctx context.Context) qc.Result[[]domain.QuizResult] {
	return read(ctx, c, readSpec{key: MyQuizResultsKey(actor.CallerFrom(ctx))},
		func(ctx context.Context, b actor.Backend) ([]domain.QuizResult, error) {
			return b.GetMyQuizResults(ctx)
		})
}

func (c *Client) AllUsers(ctx context.Context) qc.Result[[]domain.UserEntry] {
	return read(ctx, c, readSpec{key: KeyAllUsers},
		func(ctx context.Context, b actor.Backend) ([]domain.UserEntry, error) {
			return b.GetAllUsers(ctx)
		})
}

func (c *Client) CallerUserProfile(ctx context.Context) qc.Result[domain.Option[domain.UserProfile]] {
	return read(ctx, c, readSpec{key: CurrentProfileKey(actor.CallerFrom(ctx)), noRetry: true},
		func(ctx context.Context, b actor.Backend) (domain.Option[domain.UserProfile], error) {
			return b.GetCallerUserProfile(ctx)
		})
}

func (c *Client) CallerUserRole(ctx context.Context) qc.Result[domain.UserRole] {
	return read(ctx, c, readSpec{key: CallerUserRoleKey(actor.CallerFrom(ctx)), noRetry: true},
		func(ctx context.Context, b actor.Backend) (domain.UserRole, error) {
			return b.GetCallerUserRole(ctx)
		})
}

// IsCallerAdmin never retries and always refetches, so the answer reflects the
// latest role assignment. A recheck slower than the wait budget reports the
// previous answer until it lands.
func (c *Client) IsCallerAdmin(ctx context.Context, authenticated bool) qc.Result[bool] {
	rs := readSpec{
		key:       IsCallerAdminKey(actor.CallerFrom(ctx)),
		noRetry:   true,
		staleTime: &alwaysRefetch,
		disabled:  !authenticated,
	}
	return read(ctx, c, rs, func(ctx context.Context, b actor.Backend) (bool, error) {
		return b.IsCallerAdmin(ctx)
	})
}

func (c *Client) IsCallerApproved(ctx context.Context) qc.Result[bool] {
	return read(ctx, c, readSpec{key: IsCallerApprovedKey(actor.CallerFrom(ctx)), noRetry: true},
		func(ctx context.Context, b actor.Backend) (bool, error) {
			return b.IsCallerApproved(ctx)
		})
}

func (c *Client) UserProfile(ctx context.Context, user domain.Principal) qc.Result[domain.Option[domain.UserProfile]] {
	return read(ctx, c, readSpec{key: UserProfileKey(user), params: []string{user}},
		func(ctx context.Context, b actor.Backend) (domain.Option[domain.UserProfile], error) {
			return b.GetUserProfile(ctx, user)
		})
}

func (c *Client) Approvals(ctx context.Context) qc.Result[[]domain.UserApprovalInfo] {
	return read(ctx, c, readSpec{key: KeyApprovals},
		func(ctx context.Context, b actor.Backend) ([]domain.UserApprovalInfo, error) {
			return b.ListApprovals(ctx)
		})
}
