package queries

import (
	"pocketflix-portal/internal/domain"
	qc "pocketflix-portal/internal/querycache"
)

// Op names a write operation.
type Op string

const (
	OpAddVideo                   Op = "addVideo"
	OpUpdateVideo                Op = "updateVideo"
	OpDeleteVideo                Op = "deleteVideo"
	OpAddCategory                Op = "addCategory"
	OpDeleteCategory             Op = "deleteCategory"
	OpCreateQuiz                 Op = "createQuiz"
	OpUpdateQuiz                 Op = "updateQuiz"
	OpDeleteQuiz                 Op = "deleteQuiz"
	OpTakeQuiz                   Op = "takeQuiz"
	OpSaveCallerUserProfile      Op = "saveCallerUserProfile"
	OpAssignCallerUserRole       Op = "assignCallerUserRole"
	OpRequestApproval            Op = "requestApproval"
	OpSetApproval                Op = "setApproval"
	OpUpdateUserStatus           Op = "updateUserStatus"
	OpUpdateDonationLink         Op = "updateDonationLink"
	OpUpdateHomePageText         Op = "updateHomePageText"
	OpUpdateHomePageTextExtended Op = "updateHomePageTextExtended"
	OpUpdateAdminConfig          Op = "updateAdminConfig"
	OpUpdateHomepageVisuals      Op = "updateHomepageVisuals"
	OpUpdateDashboardVisuals     Op = "updateDashboardVisuals"
	OpUpdateLogo                 Op = "updateLogo"
	OpUpdateTheme                Op = "updateTheme"
	OpUpdateSettings             Op = "updateSettings"
)

// InvalidationSet lists every read a successful write can have changed.
// Keys are prefixes: KeyQuizzes covers the per-video quiz lists.
func InvalidationSet(op Op, caller domain.Principal) []qc.Key {
	switch op {
	case OpAddVideo, OpUpdateVideo, OpDeleteVideo:
		return []qc.Key{KeyVideos, KeySettingsData}
	case OpAddCategory, OpDeleteCategory:
		return []qc.Key{KeyCategories, KeySettingsData}
	case OpCreateQuiz, OpUpdateQuiz, OpDeleteQuiz:
		return []qc.Key{KeyAllQuizzes, KeyQuizzes, KeyQuiz}
	case OpTakeQuiz:
		return []qc.Key{KeyLeaderboard, KeyMyQuizResults}
	case OpSaveCallerUserProfile:
		return []qc.Key{CurrentProfileKey(caller), KeyAllUsers, UserProfileKey(caller), CallerUserRoleKey(caller)}
	case OpAssignCallerUserRole:
		return []qc.Key{KeyCallerUserRole, KeyIsCallerAdmin, KeyIsCallerApproved}
	case OpRequestApproval:
		return []qc.Key{KeyApprovals, IsCallerApprovedKey(caller)}
	case OpSetApproval:
		return []qc.Key{KeyApprovals, KeyIsCallerApproved}
	case OpUpdateUserStatus:
		return []qc.Key{KeyAllUsers, KeyUserProfile, KeyCurrentProfile}
	case OpUpdateDonationLink, OpUpdateHomePageText, OpUpdateHomePageTextExtended,
		OpUpdateAdminConfig, OpUpdateHomepageVisuals, OpUpdateDashboardVisuals,
		OpUpdateLogo, OpUpdateTheme, OpUpdateSettings:
		return []qc.Key{KeySettingsData}
	}
	return nil
}
