package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/forms"
)

func (s *Server) adminRoutes(mux *http.ServeMux) {
	mux.Handle("POST /api/admin/videos", s.admin(s.addVideo))
	mux.Handle("PUT /api/admin/videos/{id}", s.admin(s.updateVideo))
	mux.Handle("DELETE /api/admin/videos/{id}", s.admin(s.deleteVideo))

	mux.Handle("POST /api/admin/categories", s.admin(s.addCategory))
	mux.Handle("DELETE /api/admin/categories/{name}", s.admin(s.deleteCategory))

	mux.Handle("GET /api/admin/quizzes", s.admin(s.listQuizzes))
	mux.Handle("POST /api/admin/quizzes", s.admin(s.createQuiz))
	mux.Handle("PUT /api/admin/quizzes/{id}", s.admin(s.updateQuiz))
	mux.Handle("DELETE /api/admin/quizzes/{id}", s.admin(s.deleteQuiz))

	mux.Handle("GET /api/admin/users", s.admin(s.listUsers))
	mux.Handle("GET /api/admin/users/{principal}", s.admin(s.userProfile))
	mux.Handle("PUT /api/admin/users/{principal}/status", s.admin(s.updateUserStatus))
	mux.Handle("PUT /api/admin/users/{principal}/role", s.admin(s.assignRole))
	mux.Handle("GET /api/admin/approvals", s.admin(s.listApprovals))
	mux.Handle("PUT /api/admin/approvals/{principal}", s.admin(s.setApproval))

	mux.Handle("PUT /api/admin/settings", s.admin(s.updateSettings))
	mux.Handle("PUT /api/admin/settings/donation-link", s.admin(s.updateDonationLink))
	mux.Handle("PUT /api/admin/settings/theme", s.admin(s.updateTheme))
	mux.Handle("PUT /api/admin/settings/home-text", s.admin(s.updateHomeText))
	mux.Handle("PUT /api/admin/settings/home-content", s.admin(s.updateHomeContent))
	mux.Handle("PUT /api/admin/settings/admin-config", s.admin(s.updateAdminConfig))
	mux.Handle("PUT /api/admin/settings/homepage-visuals", s.admin(s.updateHomepageVisuals))
	mux.Handle("PUT /api/admin/settings/dashboard-visuals", s.admin(s.updateDashboardVisuals))
	mux.Handle("PUT /api/admin/settings/logo", s.admin(s.updateLogo))
	mux.Handle("DELETE /api/admin/settings/logo", s.admin(s.removeLogo))

	mux.Handle("GET /api/admin/media", s.admin(s.listMedia))
}

// done answers a successful write.
func done(w http.ResponseWriter, v any) {
	if v == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// write decodes the body into a T, runs fn and answers with fn's result.
func write[T any](s *Server, fn func(ctx context.Context, in T) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in T
		if err := decode(r, &in); err != nil {
			s.writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		done(w, out)
	}
}

func (s *Server) findVideo(ctx context.Context, id string) (domain.Video, error) {
	videos, err := need(s.client.Videos(ctx))
	if err != nil {
		return domain.Video{}, err
	}
	for _, v := range videos {
		if v.ID == id {
			return v, nil
		}
	}
	return domain.Video{}, fmt.Errorf("video %s: %w", id, domain.ErrNotFound)
}

func (s *Server) addVideo(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, f forms.Video) (any, error) {
		v, err := f.Build(domain.None[domain.Video](), s.newID)
		if err != nil {
			return nil, err
		}
		if err := s.client.AddVideo(ctx, v); err != nil {
			return nil, err
		}
		return map[string]string{"id": v.ID}, nil
	})(w, r)
}

func (s *Server) updateVideo(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, f forms.Video) (any, error) {
		prev, err := s.findVideo(ctx, r.PathValue("id"))
		if err != nil {
			return nil, err
		}
		v, err := f.Build(domain.Some(prev), s.newID)
		if err != nil {
			return nil, err
		}
		return nil, s.client.UpdateVideo(ctx, v)
	})(w, r)
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request) {
	if err := s.client.DeleteVideo(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	done(w, nil)
}

func (s *Server) addCategory(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, f forms.Category) (any, error) {
		c, err := f.Build()
		if err != nil {
			return nil, err
		}
		return nil, s.client.AddCategory(ctx, c)
	})(w, r)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.client.DeleteCategory(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	done(w, nil)
}

func (s *Server) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := need(s.client.AllQuizzes(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (s *Server) createQuiz(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, f forms.Quiz) (any, error) {
		f.ID = ""
		q, err := f.Build(s.newID)
		if err != nil {
			return nil, err
		}
		if err := s.client.CreateQuiz(ctx, q); err != nil {
			return nil, err
		}
		return map[string]string{"id": q.ID}, nil
	})(w, r)
}

func (s *Server) updateQuiz(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, f forms.Quiz) (any, error) {
		f.ID = r.PathValue("id")
		q, err := f.Build(s.newID)
		if err != nil {
			return nil, err
		}
		return nil, s.client.UpdateQuiz(ctx, q)
	})(w, r)
}

func (s *Server) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := s.client.DeleteQuiz(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	done(w, nil)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := need(s.client.AllUsers(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) userProfile(w http.ResponseWriter, r *http.Request) {
	found, err := need(s.client.UserProfile(r.Context(), r.PathValue("principal")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	profile, ok := found.Get()
	if !ok {
		s.writeError(w, r, fmt.Errorf("profile: %w", domain.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) updateUserStatus(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in struct {
		Status string `json:"status"`
	}) (any, error) {
		if in.Status == "" {
			return nil, &forms.ValidationError{Field: "status", Message: "Status is required"}
		}
		return nil, s.client.UpdateUserStatus(ctx, r.PathValue("principal"), in.Status)
	})(w, r)
}

func (s *Server) assignRole(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in struct {
		Role domain.UserRole `json:"role"`
	}) (any, error) {
		if !in.Role.Valid() {
			return nil, &forms.ValidationError{Field: "role", Message: "Role must be admin, user or guest"}
		}
		return nil, s.client.AssignCallerUserRole(ctx, r.PathValue("principal"), in.Role)
	})(w, r)
}

func (s *Server) listApprovals(w http.ResponseWriter, r *http.Request) {
	approvals, err := need(s.client.Approvals(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, approvals)
}

func (s *Server) setApproval(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in struct {
		Status domain.ApprovalStatus `json:"status"`
	}) (any, error) {
		if !in.Status.Valid() {
			return nil, &forms.ValidationError{Field: "status", Message: "Status must be pending, approved or rejected"}
		}
		return nil, s.client.SetApproval(ctx, r.PathValue("principal"), in.Status)
	})(w, r)
}

func (s *Server) updateSettings(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in domain.Settings) (any, error) {
		theme, err := forms.Theme(in.Theme)
		if err != nil {
			return nil, err
		}
		link, err := forms.DonationLink(in.DonationLink)
		if err != nil {
			return nil, err
		}
		in.Theme, in.DonationLink = theme, link
		return nil, s.client.UpdateSettings(ctx, in)
	})(w, r)
}

func (s *Server) updateDonationLink(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in struct {
		Link string `json:"link"`
	}) (any, error) {
		link, err := forms.DonationLink(in.Link)
		if err != nil {
			return nil, err
		}
		return nil, s.client.UpdateDonationLink(ctx, link)
	})(w, r)
}

func (s *Server) updateTheme(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in domain.Theme) (any, error) {
		theme, err := forms.Theme(in)
		if err != nil {
			return nil, err
		}
		return nil, s.client.UpdateTheme(ctx, theme)
	})(w, r)
}

func (s *Server) updateHomeText(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in struct {
		Text           string `json:"text"`
		SubText        string `json:"subText"`
		SupportingText string `json:"supportingText"`
	}) (any, error) {
		return nil, s.client.UpdateHomePageText(ctx, in.Text, in.SubText, in.SupportingText)
	})(w, r)
}

func (s *Server) updateHomeContent(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in domain.HomePageText) (any, error) {
		return nil, s.client.UpdateHomePageTextExtended(ctx, in)
	})(w, r)
}

func (s *Server) updateAdminConfig(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in domain.AdminConfig) (any, error) {
		var err error
		if in.Theme, err = forms.Theme(in.Theme); err != nil {
			return nil, err
		}
		if in.HomepageVisuals, err = forms.HomepageVisuals(in.HomepageVisuals); err != nil {
			return nil, err
		}
		if in.DashboardVisuals, err = forms.DashboardVisuals(in.DashboardVisuals); err != nil {
			return nil, err
		}
		if in.DonationLink, err = forms.DonationLink(in.DonationLink); err != nil {
			return nil, err
		}
		return nil, s.client.UpdateAdminConfig(ctx, in)
	})(w, r)
}

func (s *Server) updateHomepageVisuals(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in domain.HomepageVisuals) (any, error) {
		v, err := forms.HomepageVisuals(in)
		if err != nil {
			return nil, err
		}
		return nil, s.client.UpdateHomepageVisuals(ctx, v)
	})(w, r)
}

func (s *Server) updateDashboardVisuals(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in domain.DashboardVisuals) (any, error) {
		v, err := forms.DashboardVisuals(in)
		if err != nil {
			return nil, err
		}
		return nil, s.client.UpdateDashboardVisuals(ctx, v)
	})(w, r)
}

func (s *Server) updateLogo(w http.ResponseWriter, r *http.Request) {
	write(s, func(ctx context.Context, in struct {
		Logo domain.Option[domain.ExternalBlob] `json:"logo"`
	}) (any, error) {
		logo, ok := in.Logo.Get()
		if !ok || logo.IsZero() {
			return nil, &forms.ValidationError{Field: "logo", Message: "Please upload a logo first"}
		}
		return nil, s.client.UpdateLogo(ctx, in.Logo)
	})(w, r)
}

func (s *Server) removeLogo(w http.ResponseWriter, r *http.Request) {
	if err := s.client.UpdateLogo(r.Context(), domain.None[domain.ExternalBlob]()); err != nil {
		s.writeError(w, r, err)
		return
	}
	done(w, nil)
}

type mediaEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	if s.objects == nil || s.uploader == nil {
		writeJSON(w, http.StatusOK, []mediaEntry{})
		return
	}
	names, err := s.objects.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sort.Strings(names)
	out := make([]mediaEntry, 0, len(names))
	for _, n := range names {
		out = append(out, mediaEntry{Name: n, URL: s.uploader.URL(n)})
	}
	writeJSON(w, http.StatusOK, out)
}
