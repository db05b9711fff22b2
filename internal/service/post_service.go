package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type PostService interface {
	CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error)
	List(ctx context.Context, status string) ([]*models.Post, error)
	PostInfo(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, id string, pu *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, id string) error
	Schedule(ctx context.Context, id string) (*models.Post, error)
}

type postService struct {
	pr       repository.PostRepository
	enqueuer PublishEnqueuer
	now      func() time.Time
}

// NewPostService builds the post CRUD service. enqueuer may be nil.
func NewPostService(pr repository.PostRepository, enqueuer PublishEnqueuer) PostService {
	return &postService{
		pr:       pr,
		enqueuer: enqueuer,
		now:      time.Now,
	}
}

func (s *postService) CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	if pc == nil || strings.TrimSpace(pc.ImageURL) == "" || pc.ScheduledAt <= 0 {
		return nil, fmt.Errorf("%w: imageUrl and scheduledAt are required", ErrInvalidInput)
	}

	status := pc.Status
	if status == "" {
		status = models.PostStatusScheduled
	}
	if !status.Editable() {
		return nil, fmt.Errorf("%w: status must be draft or scheduled", ErrInvalidInput)
	}

	platforms := models.NewPlatformSet(string(models.PlatformFacebook))
	if pc.Platforms != nil {
		platforms = *pc.Platforms
	}

	now := s.now().Unix()
	post := &models.Post{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(pc.Title),
		ImageURL:    strings.TrimSpace(pc.ImageURL),
		Caption:     pc.Caption,
		Hashtags:    pc.Hashtags,
		Platforms:   platforms,
		ProfileKey:  strings.TrimSpace(pc.ProfileKey),
		ScheduledAt: pc.ScheduledAt,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.pr.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.Info("post created", "post_id", post.ID, "status", post.Status, "scheduled_at", post.ScheduledAt)
	s.enqueue(ctx, post)
	return post, nil
}

func (s *postService) List(ctx context.Context, status string) ([]*models.Post, error) {
	var filter models.Status
	if status != "" {
		parsed, err := models.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter = parsed
	}

	posts, err := s.pr.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *postService) PostInfo(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// Update applies the non-nil fields while the post is still draft or scheduled.
func (s *postService) Update(ctx context.Context, id string, pu *transfer.PostUpdate) (*models.Post, error) {
	post, err := s.PostInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.Status.Editable() {
		return nil, ErrInvalidTransition
	}
	if pu == nil {
		return post, nil
	}

	previousAt, previousStatus := post.ScheduledAt, post.Status
	if pu.Title != nil {
		post.Title = strings.TrimSpace(*pu.Title)
	}
	if pu.ImageURL != nil {
		if strings.TrimSpace(*pu.ImageURL) == "" {
			return nil, fmt.Errorf("%w: imageUrl cannot be empty", ErrInvalidInput)
		}
		post.ImageURL = strings.TrimSpace(*pu.ImageURL)
	}
	if pu.Caption != nil {
		post.Caption = *pu.Caption
	}
	if pu.Hashtags != nil {
		post.Hashtags = *pu.Hashtags
	}
	if pu.Platforms != nil {
		post.Platforms = *pu.Platforms
	}
	if pu.ProfileKey != nil {
		post.ProfileKey = strings.TrimSpace(*pu.ProfileKey)
	}
	if pu.ScheduledAt != nil {
		post.ScheduledAt = *pu.ScheduledAt
	}
	if pu.Status != nil {
		if !pu.Status.Editable() {
			return nil, fmt.Errorf("%w: status must be draft or scheduled", ErrInvalidInput)
		}
		post.Status = *pu.Status
	}
	post.UpdatedAt = s.now().Unix()

	ok, err := s.pr.Update(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	if !ok {
		// Claimed or deleted since it was read.
		return nil, ErrInvalidTransition
	}

	if post.ScheduledAt != previousAt || post.Status != previousStatus {
		s.enqueue(ctx, post)
	}
	return post, nil
}

func (s *postService) Remove(ctx context.Context, id string) error {
	ok, err := s.pr.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to remove post: %w", err)
	}
	if ok {
		return nil
	}

	if _, err := s.PostInfo(ctx, id); err != nil {
		return err
	}
	return ErrInvalidTransition
}

// Schedule moves a draft into the scheduled state.
func (s *postService) Schedule(ctx context.Context, id string) (*models.Post, error) {
	ok, err := s.pr.MarkScheduled(ctx, id, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to schedule post: %w", err)
	}
	if !ok {
		if _, err := s.PostInfo(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	post, err := s.PostInfo(ctx, id)
	if err != nil {
		return nil, err
	}
	s.enqueue(ctx, post)
	return post, nil
}

func (s *postService) enqueue(ctx context.Context, post *models.Post) {
	if s.enqueuer == nil || post.Status != models.PostStatusScheduled {
		return
	}
	if err := s.enqueuer.EnqueuePublish(ctx, post.ID, post.ScheduledAt); err != nil {
		slog.Warn("failed to enqueue publish task", "post_id", post.ID, "error", err)
	}
}
