package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/maheshrc27/postflow/internal/models"
)

// Outcome is the result of a publish attempt written back to a claimed post.
type Outcome struct {
	Status      models.Status
	PublishedAt *int64
	Error       *string
	Log         *string
}

type PostRepository interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	List(ctx context.Context, status models.Status) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post) (bool, error)
	Remove(ctx context.Context, id string) (bool, error)
	ListDue(ctx context.Context, now int64) ([]*models.Post, error)
	Claim(ctx context.Context, id string, now int64, dueOnly bool) (bool, error)
	Finish(ctx context.Context, id string, outcome Outcome, now int64) (bool, error)
	MarkScheduled(ctx context.Context, id string, now int64) (bool, error)
	Cancel(ctx context.Context, id string, now int64) (bool, error)
	Retry(ctx context.Context, id string, scheduledAt, now int64) (bool, error)
	ReclaimStale(ctx context.Context, cutoff, now int64) (int64, error)
}

const postColumns = `id, title, image_url, caption, hashtags, platforms, profile_key, scheduled_at, status, published_at, error, log, created_at, updated_at`

type postRepository struct {
	db     *sql.DB
	schema schemaState
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) EnsureSchema(ctx context.Context) error {
	return r.schema.ensure(ctx, func(ctx context.Context) error {
		for _, stmt := range schemaStatements {
			if _, err := r.db.ExecContext(ctx, stmt); err != nil {
				slog.Error("schema ensure failed", "error", err)
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
		return nil
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post        models.Post
		platforms   string
		publishedAt sql.NullInt64
		errMsg      sql.NullString
		log         sql.NullString
	)
	err := row.Scan(&post.ID, &post.Title, &post.ImageURL, &post.Caption, &post.Hashtags, &platforms,
		&post.ProfileKey, &post.ScheduledAt, &post.Status, &publishedAt, &errMsg, &log,
		&post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}

	post.Platforms = models.ParsePlatforms(platforms)
	if publishedAt.Valid {
		post.PublishedAt = &publishedAt.Int64
	}
	if errMsg.Valid {
		post.Error = &errMsg.String
	}
	if log.Valid {
		post.Log = &log.String
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, title, image_url, caption, hashtags, platforms, profile_key, scheduled_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query, post.ID, post.Title, post.ImageURL, post.Caption, post.Hashtags,
		post.Platforms.String(), post.ProfileKey, post.ScheduledAt, post.Status, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, status models.Status) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts`
	args := []any{}

	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY scheduled_at ASC`

	return r.query(ctx, query, args...)
}

func (r *postRepository) ListDue(ctx context.Context, now int64) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE status = $1 AND scheduled_at <= $2 ORDER BY scheduled_at ASC`
	return r.query(ctx, query, models.PostStatusScheduled, now)
}

func (r *postRepository) query(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

// Update rewrites the editable fields. It only applies while the post is
// still a draft or scheduled so an edit cannot race a claimed publish.
func (r *postRepository) Update(ctx context.Context, post *models.Post) (bool, error) {
	query := `
		UPDATE posts
		SET title = $1,
			image_url = $2,
			caption = $3,
			hashtags = $4,
			platforms = $5,
			profile_key = $6,
			scheduled_at = $7,
			status = $8,
			updated_at = $9
		WHERE id = $10 AND status IN ($11, $12)
	`
	return r.exec(ctx, query, post.Title, post.ImageURL, post.Caption, post.Hashtags, post.Platforms.String(),
		post.ProfileKey, post.ScheduledAt, post.Status, post.UpdatedAt, post.ID,
		models.PostStatusDraft, models.PostStatusScheduled)
}

func (r *postRepository) Remove(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM posts WHERE id = $1 AND status <> $2`
	return r.exec(ctx, query, id, models.PostStatusPublishing)
}

// Claim moves a scheduled post to publishing. Exactly one concurrent caller
// wins; dueOnly additionally requires scheduled_at <= now.
func (r *postRepository) Claim(ctx context.Context, id string, now int64, dueOnly bool) (bool, error) {
	if dueOnly {
		query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4 AND scheduled_at <= $2`
		return r.exec(ctx, query, models.PostStatusPublishing, now, id, models.PostStatusScheduled)
	}
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	return r.exec(ctx, query, models.PostStatusPublishing, now, id, models.PostStatusScheduled)
}

func (r *postRepository) Finish(ctx context.Context, id string, outcome Outcome, now int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			published_at = COALESCE($2, published_at),
			error = $3,
			log = $4,
			updated_at = $5
		WHERE id = $6 AND status = $7
	`
	return r.exec(ctx, query, outcome.Status, nullInt64(outcome.PublishedAt), nullString(outcome.Error),
		nullString(outcome.Log), now, id, models.PostStatusPublishing)
}

func (r *postRepository) MarkScheduled(ctx context.Context, id string, now int64) (bool, error) {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	return r.exec(ctx, query, models.PostStatusScheduled, now, id, models.PostStatusDraft)
}

func (r *postRepository) Cancel(ctx context.Context, id string, now int64) (bool, error) {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	return r.exec(ctx, query, models.PostStatusCancelled, now, id, models.PostStatusScheduled)
}

func (r *postRepository) Retry(ctx context.Context, id string, scheduledAt, now int64) (bool, error) {
	query := `
		UPDATE posts
		SET status = $1,
			scheduled_at = $2,
			error = NULL,
			log = NULL,
			updated_at = $3
		WHERE id = $4 AND status = $5
	`
	return r.exec(ctx, query, models.PostStatusScheduled, scheduledAt, now, id, models.PostStatusFailed)
}

// ReclaimStale returns claims older than cutoff to scheduled.
func (r *postRepository) ReclaimStale(ctx context.Context, cutoff, now int64) (int64, error) {
	query := `UPDATE posts SET status = $1, updated_at = $2 WHERE status = $3 AND updated_at < $4`
	res, err := r.db.ExecContext(ctx, query, models.PostStatusScheduled, now, models.PostStatusPublishing, cutoff)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return res.RowsAffected()
}

func (r *postRepository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
