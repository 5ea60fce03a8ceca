// Package postgres is the backend.Repository on Postgres. Catalog rows keep their
// document as JSONB; ordering follows insertion.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pocketflix-portal/internal/backend"
	"pocketflix-portal/internal/domain"
)

var _ backend.Repository = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Connect opens a pool and checks it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

func listJSON[T any](ctx context.Context, pool *pgxpool.Pool, query string, args ...interface{}) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("unmarshal row: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// insertOnce maps "nothing inserted" to ErrAlreadyExists.
func (r *Repository) insertOnce(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// mustAffect maps "nothing matched" to ErrNotFound.
func (r *Repository) mustAffect(ctx context.Context, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repository) ListVideos(ctx context.Context) ([]domain.Video, error) {
	videos, err := listJSON[domain.Video](ctx, r.pool, `SELECT data FROM videos ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videos, nil
}

func (r *Repository) InsertVideo(ctx context.Context, v domain.Video) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.insertOnce(ctx, `INSERT INTO videos (id, data) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, v.ID, data)
}

func (r *Repository) UpdateVideo(ctx context.Context, v domain.Video) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.mustAffect(ctx, `UPDATE videos SET data = $2 WHERE id = $1`, v.ID, data)
}

func (r *Repository) DeleteVideo(ctx context.Context, id string) error {
	return r.mustAffect(ctx, `DELETE FROM videos WHERE id = $1`, id)
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	out := []domain.Category{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *Repository) InsertCategory(ctx context.Context, c domain.Category) error {
	return r.insertOnce(ctx, `INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, c)
}

func (r *Repository) DeleteCategory(ctx context.Context, c domain.Category) error {
	return r.mustAffect(ctx, `DELETE FROM categories WHERE name = $1`, c)
}

func (r *Repository) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := listJSON[domain.Quiz](ctx, r.pool, `SELECT data FROM quizzes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzes, nil
}

func (r *Repository) GetQuiz(ctx context.Context, id string) (domain.Option[domain.Quiz], error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.None[domain.Quiz](), nil
	}
	if err != nil {
		return domain.None[domain.Quiz](), fmt.Errorf("load quiz: %w", err)
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.None[domain.Quiz](), fmt.Errorf("unmarshal quiz: %w", err)
	}
	return domain.Some(quiz), nil
}

func (r *Repository) InsertQuiz(ctx context.Context, q domain.Quiz) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return r.insertOnce(ctx, `INSERT INTO quizzes (id, video_id, data) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`, q.ID, q.VideoID, data)
}

func (r *Repository) UpdateQuiz(ctx context.Context, q domain.Quiz) error {
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return r.mustAffect(ctx, `UPDATE quizzes SET video_id = $2, data = $3 WHERE id = $1`, q.ID, q.VideoID, data)
}

func (r *Repository) DeleteQuiz(ctx context.Context, id string) error {
	return r.mustAffect(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
}

func (r *Repository) AppendResult(ctx context.Context, res domain.QuizResult) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO quiz_results (principal, quiz_id, score, ts) VALUES ($1, $2, $3, $4)`,
		res.User, res.QuizID, res.Score, res.Timestamp)
	if err != nil {
		return fmt.Errorf("append result: %w", err)
	}
	return nil
}

func (r *Repository) ListResults(ctx context.Context) ([]domain.QuizResult, error) {
	rows, err := r.pool.Query(ctx, `SELECT principal, quiz_id, score, ts FROM quiz_results ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()
	out := []domain.QuizResult{}
	for rows.Next() {
		var res domain.QuizResult
		if err := rows.Scan(&res.User, &res.QuizID, &res.Score, &res.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *Repository) GetProfile(ctx context.Context, p domain.Principal) (domain.Option[domain.UserProfile], error) {
	var profile domain.UserProfile
	err := r.pool.QueryRow(ctx, `SELECT name, email, status FROM user_profiles WHERE principal = $1`, p).
		Scan(&profile.Name, &profile.Email, &profile.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.None[domain.UserProfile](), nil
	}
	if err != nil {
		return domain.None[domain.UserProfile](), fmt.Errorf("load profile: %w", err)
	}
	return domain.Some(profile), nil
}

func (r *Repository) PutProfile(ctx context.Context, p domain.Principal, profile domain.UserProfile) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_profiles (principal, name, email, status) VALUES ($1, $2, $3, $4)
		ON CONFLICT (principal) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, status = EXCLUDED.status`,
		p, profile.Name, profile.Email, profile.Status)
	return err
}

func (r *Repository) ListProfiles(ctx context.Context) ([]domain.UserEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT principal, name, email, status FROM user_profiles ORDER BY principal`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()
	out := []domain.UserEntry{}
	for rows.Next() {
		var e domain.UserEntry
		if err := rows.Scan(&e.Principal, &e.Profile.Name, &e.Profile.Email, &e.Profile.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) GetRole(ctx context.Context, p domain.Principal) (domain.Option[domain.UserRole], error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM user_roles WHERE principal = $1`, p).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.None[domain.UserRole](), nil
	}
	if err != nil {
		return domain.None[domain.UserRole](), fmt.Errorf("load role: %w", err)
	}
	return domain.Some(domain.UserRole(role)), nil
}

func (r *Repository) PutRole(ctx context.Context, p domain.Principal, role domain.UserRole) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (principal, role) VALUES ($1, $2)
		ON CONFLICT (principal) DO UPDATE SET role = EXCLUDED.role`, p, string(role))
	return err
}

func (r *Repository) GetApproval(ctx context.Context, p domain.Principal) (domain.Option[domain.ApprovalStatus], error) {
	var status string
	err := r.pool.QueryRow(ctx, `SELECT status FROM approvals WHERE principal = $1`, p).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.None[domain.ApprovalStatus](), nil
	}
	if err != nil {
		return domain.None[domain.ApprovalStatus](), fmt.Errorf("load approval: %w", err)
	}
	return domain.Some(domain.ApprovalStatus(status)), nil
}

func (r *Repository) PutApproval(ctx context.Context, p domain.Principal, status domain.ApprovalStatus) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO approvals (principal, status) VALUES ($1, $2)
		ON CONFLICT (principal) DO UPDATE SET status = EXCLUDED.status`, p, string(status))
	return err
}

func (r *Repository) ListApprovals(ctx context.Context) ([]domain.UserApprovalInfo, error) {
	rows, err := r.pool.Query(ctx, `SELECT principal, status FROM approvals ORDER BY principal`)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()
	out := []domain.UserApprovalInfo{}
	for rows.Next() {
		var (
			info   domain.UserApprovalInfo
			status string
		)
		if err := rows.Scan(&info.Principal, &status); err != nil {
			return nil, err
		}
		info.Status = domain.ApprovalStatus(status)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (r *Repository) LoadSiteConfig(ctx context.Context) (domain.Option[domain.SiteConfig], error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM site_config WHERE id = 1`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.None[domain.SiteConfig](), nil
	}
	if err != nil {
		return domain.None[domain.SiteConfig](), fmt.Errorf("load site config: %w", err)
	}
	var cfg domain.SiteConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return domain.None[domain.SiteConfig](), fmt.Errorf("unmarshal site config: %w", err)
	}
	return domain.Some(cfg), nil
}

func (r *Repository) SaveSiteConfig(ctx context.Context, cfg domain.SiteConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO site_config (id, data) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, data)
	return err
}
