package queries

import (
	"pocketflix-portal/internal/domain"
	qc "pocketflix-portal/internal/querycache"
)

// Root keys. Parameterized reads append their parameter to the root.
var (
	KeySettingsData     = qc.K("settingsData")
	KeyVideos           = qc.K("videos")
	KeyCategories       = qc.K("categories")
	KeyAllQuizzes       = qc.K("allQuizzes")
	KeyQuizzes          = qc.K("quizzes")
	KeyQuiz             = qc.K("quiz")
	KeyLeaderboard      = qc.K("leaderboard")
	KeyMyQuizResults    = qc.K("myQuizResults")
	KeyAllUsers         = qc.K("allUsers")
	KeyCurrentProfile   = qc.K("currentUserProfile")
	KeyCallerUserRole   = qc.K("callerUserRole")
	KeyIsCallerAdmin    = qc.K("isCallerAdmin")
	KeyIsCallerApproved = qc.K("isCallerApproved")
	KeyUserProfile      = qc.K("userProfile")
	KeyApprovals        = qc.K("approvals")
)

func QuizzesByVideoKey(videoID string) qc.Key { return KeyQuizzes.With(videoID) }

func QuizKey(id string) qc.Key { return KeyQuiz.With(id) }

func MyQuizResultsKey(p domain.Principal) qc.Key { return KeyMyQuizResults.With(p) }

func CurrentProfileKey(p domain.Principal) qc.Key { return KeyCurrentProfile.With(p) }

func CallerUserRoleKey(p domain.Principal) qc.Key { return KeyCallerUserRole.With(p) }

func IsCallerAdminKey(p domain.Principal) qc.Key { return KeyIsCallerAdmin.With(p) }

func IsCallerApprovedKey(p domain.Principal) qc.Key { return KeyIsCallerApproved.With(p) }

func UserProfileKey(p domain.Principal) qc.Key { return KeyUserProfile.With(p) }
