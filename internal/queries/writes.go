package queries

import (
	"context"
	"fmt"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/domain"
)

func (c *Client) AddVideo(ctx context.Context, video domain.Video) error {
	return exec(ctx, c, OpAddVideo, func(ctx context.Context, b actor.Backend) error {
		thumb, err := c.upload(ctx, video.Thumbnail, "thumbnails/"+video.ID)
		if err != nil {
			return err
		}
		video.Thumbnail = thumb
		return b.AddVideo(ctx, video)
	})
}

func (c *Client) UpdateVideo(ctx context.Context, video domain.Video) error {
	return exec(ctx, c, OpUpdateVideo, func(ctx context.Context, b actor.Backend) error {
		thumb, err := c.upload(ctx, video.Thumbnail, "thumbnails/"+video.ID)
		if err != nil {
			return err
		}
		video.Thumbnail = thumb
		return b.UpdateVideo(ctx, video)
	})
}

func (c *Client) DeleteVideo(ctx context.Context, id string) error {
	return exec(ctx, c, OpDeleteVideo, func(ctx context.Context, b actor.Backend) error {
		return b.DeleteVideo(ctx, id)
	})
}

func (c *Client) AddCategory(ctx context.Context, category domain.Category) error {
	return exec(ctx, c, OpAddCategory, func(ctx context.Context, b actor.Backend) error {
		return b.AddCategory(ctx, category)
	})
}

func (c *Client) DeleteCategory(ctx context.Context, category domain.Category) error {
	return exec(ctx, c, OpDeleteCategory, func(ctx context.Context, b actor.Backend) error {
		return b.DeleteCategory(ctx, category)
	})
}

func (c *Client) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return exec(ctx, c, OpCreateQuiz, func(ctx context.Context, b actor.Backend) error {
		return b.CreateQuiz(ctx, quiz)
	})
}

func (c *Client) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	return exec(ctx, c, OpUpdateQuiz, func(ctx context.Context, b actor.Backend) error {
		return b.UpdateQuiz(ctx, quiz)
	})
}

func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	return exec(ctx, c, OpDeleteQuiz, func(ctx context.Context, b actor.Backend) error {
		return b.DeleteQuiz(ctx, id)
	})
}

// TakeQuiz submits one answer index per question and returns the backend's score.
func (c *Client) TakeQuiz(ctx context.Context, quizID string, answers []int) (int, error) {
	return mutate(ctx, c, OpTakeQuiz, func(ctx context.Context, b actor.Backend) (int, error) {
		return b.TakeQuiz(ctx, quizID, answers)
	})
}

func (c *Client) SaveCallerUserProfile(ctx context.Context, profile domain.UserProfile) error {
	return exec(ctx, c, OpSaveCallerUserProfile, func(ctx context.Context, b actor.Backend) error {
		return b.SaveCallerUserProfile(ctx, profile)
	})
}

func (c *Client) AssignCallerUserRole(ctx context.Context, user domain.Principal, role domain.UserRole) error {
	return exec(ctx, c, OpAssignCallerUserRole, func(ctx context.Context, b actor.Backend) error {
		return b.AssignCallerUserRole(ctx, user, role)
	})
}

func (c *Client) RequestApproval(ctx context.Context) error {
	return exec(ctx, c, OpRequestApproval, func(ctx context.Context, b actor.Backend) error {
		return b.RequestApproval(ctx)
	})
}

func (c *Client) SetApproval(ctx context.Context, user domain.Principal, status domain.ApprovalStatus) error {
	return exec(ctx, c, OpSetApproval, func(ctx context.Context, b actor.Backend) error {
		return b.SetApproval(ctx, user, status)
	})
}

func (c *Client) UpdateUserStatus(ctx context.Context, user domain.Principal, status string) error {
	return exec(ctx, c, OpUpdateUserStatus, func(ctx context.Context, b actor.Backend) error {
		return b.UpdateUserStatus(ctx, user, status)
	})
}

func (c *Client) UpdateDonationLink(ctx context.Context, link string) error {
	return exec(ctx, c, OpUpdateDonationLink, func(ctx context.Context, b actor.Backend) error {
		return b.UpdateDonationLink(ctx, link)
	})
}

func (c *Client) UpdateHomePageText(ctx context.Context, text, subText, supportingText string) error {
	return exec(ctx, c, OpUpdateHomePageText, func(ctx context.Context, b actor.Backend) error {
		return b.UpdateHomePageText(ctx, text, subText, supportingText)
	})
}

// UpdateHomePageTextExtended rewrites the home text fields of the current admin
// config. The read and the write are not atomic: a concurrent config edit between
// them is overwritten.
func (c *Client) UpdateHomePageTextExtended(ctx context.Context, text domain.HomePageText) error {
	return exec(ctx, c, OpUpdateHomePageTextExtended, func(ctx context.Context, b actor.Backend) error {
		current, err := b.GetSettingsData(ctx)
		if err != nil {
			return fmt.Errorf("load admin config: %w", err)
		}
		return b.UpdateAdminConfig(ctx, text.Apply(current.AdminConfig))
	})
}

func (c *Client) UpdateAdminConfig(ctx context.Context, cfg domain.AdminConfig) error {
	return exec(ctx, c, OpUpdateAdminConfig, func(ctx context.Context, b actor.Backend) error {
		return b.UpdateAdminConfig(ctx, cfg)
	})
}

func (c *Client) UpdateHomepageVisuals(ctx context.Context, visuals domain.HomepageVisuals) error {
	return exec(ctx, c, OpUpdateHomepageVisuals, func(ctx context.Context, b actor.Backend) error {
		if img, ok := visuals.HeroImage.Get(); ok {
			up, err := c.upload(ctx, img, "hero")
			if err != nil {
				return err
			}
			visuals.HeroImage = domain.Some(up)
		}
		return b.UpdateHomepageVisuals(ctx, visuals)
	})
}

func (c *Client) UpdateDashboardVisuals(ctx context.Context, visuals domain.DashboardVisuals) error {
	return exec(ctx, c, OpUpdateDashboardVisuals, func(ctx context.Context, b actor.Backend) error {
		return b.UpdateDashboardVisuals(ctx, visuals)
	})
}

// UpdateLogo sets the site logo; None removes it.
func (c *Client) UpdateLogo(ctx context.Context, logo domain.Option[domain.ExternalBlob]) error {
	return exec(ctx, c, OpUpdateLogo, func(ctx context.Context, b actor.Backend) error {
		if img, ok := logo.Get(); ok {
			up, err := c.upload(ctx, img, "logo")
			if err != nil {
				return err
			}
			logo = domain.Some(up)
		}
		return b.UpdateLogo(ctx, logo)
	})
}

func (c *Client) UpdateTheme(ctx context.Context, theme domain.Theme) error {
	return exec(ctx, c, OpUpdateTheme, func(ctx context.Context, b actor.Backend) error {
		return b.UpdateTheme(ctx, theme)
	})
}

func (c *Client) UpdateSettings(ctx context.Context, settings domain.Settings) error {
	return exec(ctx, c, OpUpdateSettings, func(ctx context.Context, b actor.Backend) error {
		return b.UpdateSettings(ctx, settings)
	})
}
