package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/transfer"
)

// RetryDelay is how far in the future a retried post is rescheduled.
const RetryDelay = 5 * time.Minute

// PublishEnqueuer schedules a precise publish trigger for a post. The cron
// run stays authoritative, so enqueue failures are only logged.
type PublishEnqueuer interface {
	EnqueuePublish(ctx context.Context, postID string, scheduledAt int64) error
}

type SchedulerService interface {
	Run(ctx context.Context)
	RunOne(ctx context.Context, id string) (*models.Post, error)
	RunDue(ctx context.Context, id string) error
	Retry(ctx context.Context, id string) (*models.Post, error)
	Cancel(ctx context.Context, id string) (*models.Post, error)
	ReclaimStale(ctx context.Context) (int64, error)
}

type schedulerService struct {
	posts        repository.PostRepository
	profiles     ProfileService
	fb           FacebookService
	ig           InstagramService
	enqueuer     PublishEnqueuer
	claimTimeout time.Duration
	now          func() time.Time
}

// NewSchedulerService wires the publish runner. enqueuer may be nil.
func NewSchedulerService(
	posts repository.PostRepository,
	profiles ProfileService,
	fb FacebookService,
	ig InstagramService,
	enqueuer PublishEnqueuer,
	claimTimeout time.Duration) SchedulerService {
	return &schedulerService{
		posts:        posts,
		profiles:     profiles,
		fb:           fb,
		ig:           ig,
		enqueuer:     enqueuer,
		claimTimeout: claimTimeout,
		now:          time.Now,
	}
}

// Run publishes every due post, oldest first, one at a time. Failures are
// recorded on the post and never stop the run.
func (s *schedulerService) Run(ctx context.Context) {
	due, err := s.posts.ListDue(ctx, s.now().Unix())
	if err != nil {
		slog.Error("scheduler: listing due posts failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	slog.Info("scheduler: publishing due posts", "count", len(due))

	var published, failed int
	for _, post := range due {
		if ctx.Err() != nil {
			slog.Warn("scheduler: run interrupted", "error", ctx.Err())
			return
		}

		status, err := s.process(ctx, post, true)
		if err != nil {
			slog.Error("scheduler: claiming post failed", "post_id", post.ID, "error", err)
			continue
		}
		switch status {
		case models.PostStatusPublished:
			published++
		case models.PostStatusFailed:
			failed++
		}
	}

	slog.Info("scheduler: run finished", "published", published, "failed", failed)
}

// RunOne publishes a scheduled post immediately, ignoring its due time.
// When the post is not scheduled, or another run claims it first, the
// current row is returned together with ErrInvalidTransition.
func (s *schedulerService) RunOne(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status != models.PostStatusScheduled {
		return post, ErrInvalidTransition
	}

	status, err := s.process(ctx, post, false)
	if err != nil {
		return nil, fmt.Errorf("publish post %s: %w", id, err)
	}

	current, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return current, ErrInvalidTransition
	}
	return current, nil
}

// RunDue publishes a single post if it is still scheduled and due.
func (s *schedulerService) RunDue(ctx context.Context, id string) error {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load post %s: %w", id, err)
	}
	if post == nil || post.Status != models.PostStatusScheduled {
		slog.Info("scheduler: queued post no longer scheduled", "post_id", id)
		return nil
	}

	_, err = s.process(ctx, post, true)
	return err
}

func (s *schedulerService) Retry(ctx context.Context, id string) (*models.Post, error) {
	now := s.now()
	scheduledAt := now.Add(RetryDelay).Unix()

	ok, err := s.posts.Retry(ctx, id, scheduledAt, now.Unix())
	if err != nil {
		return nil, fmt.Errorf("retry post %s: %w", id, err)
	}
	if !ok {
		return nil, s.transitionError(ctx, id)
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueuePublish(ctx, id, scheduledAt); err != nil {
			slog.Warn("scheduler: enqueue retry failed", "post_id", id, "error", err)
		}
	}

	return s.get(ctx, id)
}

func (s *schedulerService) Cancel(ctx context.Context, id string) (*models.Post, error) {
	ok, err := s.posts.Cancel(ctx, id, s.now().Unix())
	if err != nil {
		return nil, fmt.Errorf("cancel post %s: %w", id, err)
	}
	if !ok {
		return nil, s.transitionError(ctx, id)
	}
	return s.get(ctx, id)
}

// ReclaimStale returns posts whose publish claim outlived the claim timeout
// to scheduled so the next run picks them up again.
func (s *schedulerService) ReclaimStale(ctx context.Context) (int64, error) {
	now := s.now()
	n, err := s.posts.ReclaimStale(ctx, now.Add(-s.claimTimeout).Unix(), now.Unix())
	if err != nil {
		return 0, fmt.Errorf("reclaim stale posts: %w", err)
	}
	if n > 0 {
		slog.Warn("scheduler: reclaimed stale publish claims", "count", n)
	}
	return n, nil
}

// process claims the post and runs one publish attempt. The returned status
// is empty when another caller holds the claim.
func (s *schedulerService) process(ctx context.Context, post *models.Post, dueOnly bool) (models.Status, error) {
	now := s.now()

	claimed, err := s.posts.Claim(ctx, post.ID, now.Unix(), dueOnly)
	if err != nil {
		return "", err
	}
	if !claimed {
		slog.Info("scheduler: post claimed elsewhere", "post_id", post.ID)
		return "", nil
	}

	outcome := s.attempt(ctx, post, now)
	s.finish(ctx, post.ID, outcome, now)
	return outcome.Status, nil
}

// attempt calls each enabled publisher in order. now is captured once so
// every log line of the attempt shares one timestamp.
func (s *schedulerService) attempt(ctx context.Context, post *models.Post, now time.Time) (outcome repository.Outcome) {
	stamp := now.UTC().Format(time.RFC3339)
	var lines, failures []string

	defer func() {
		if r := recover(); r != nil {
			slog.Error("scheduler: publish panicked", "post_id", post.ID, "panic", r)
			msg := fmt.Sprintf("panic: %v", r)
			lines = append(lines, fmt.Sprintf("[%s] ERROR %s", stamp, msg))
			outcome = failedOutcome(post, lines, msg)
		}
	}()

	if len(post.Platforms) == 0 {
		slog.Warn("scheduler: post has no platforms, marking published", "post_id", post.ID)
	}

	creds := s.profiles.Resolve(post.ProfileKey)
	for _, platform := range post.Platforms {
		res, err := s.publish(ctx, platform, post, creds)
		if err != nil {
			slog.Error("scheduler: publish failed", "post_id", post.ID, "platform", platform, "error", err)
			lines = append(lines, fmt.Sprintf("[%s] %s ERROR %s", stamp, platform.Label(), err.Error()))
			return failedOutcome(post, lines, err.Error())
		}

		lines = append(lines, logLine(stamp, platform, res))
		if !res.OK {
			slog.Info("scheduler: platform rejected post", "post_id", post.ID, "platform", platform, "code", res.Error)
			failures = append(failures, fmt.Sprintf("%s: %s", platform, res.Error))
		}
	}

	if len(failures) > 0 {
		return failedOutcome(post, lines, strings.Join(failures, "; "))
	}

	publishedAt := now.Unix()
	return repository.Outcome{
		Status:      models.PostStatusPublished,
		PublishedAt: &publishedAt,
		Log:         appendLog(post.Log, lines),
	}
}

func (s *schedulerService) publish(ctx context.Context, platform models.Platform, post *models.Post, creds models.Credentials) (transfer.PublishResult, error) {
	switch platform {
	case models.PlatformFacebook:
		return s.fb.PublishFacebook(ctx, post, creds)
	case models.PlatformInstagram:
		return s.ig.PublishInstagram(ctx, post, creds)
	}
	return transfer.PublishResult{}, fmt.Errorf("unsupported platform %q", platform)
}

// finish writes the outcome while the claim is still held, falling back to a
// plain failure. If both writes fail the claim expires and is reclaimed.
func (s *schedulerService) finish(ctx context.Context, id string, outcome repository.Outcome, now time.Time) {
	// The attempt may have outlived ctx; the result must still be recorded.
	ctx = context.WithoutCancel(ctx)

	ok, err := s.posts.Finish(ctx, id, outcome, now.Unix())
	if err == nil && ok {
		slog.Info("scheduler: post finished", "post_id", id, "status", outcome.Status)
		return
	}
	if err == nil {
		slog.Warn("scheduler: post claim lost before finish", "post_id", id)
		return
	}
	slog.Error("scheduler: recording outcome failed", "post_id", id, "error", err)

	msg := fmt.Sprintf("recording outcome failed: %v", err)
	fallback := repository.Outcome{Status: models.PostStatusFailed, Error: &msg, Log: outcome.Log}
	if _, err := s.posts.Finish(ctx, id, fallback, now.Unix()); err != nil {
		slog.Error("scheduler: fallback failure write failed", "post_id", id, "error", err)
	}
}

func (s *schedulerService) get(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", id, err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// transitionError tells a missing post apart from one in the wrong state.
func (s *schedulerService) transitionError(ctx context.Context, id string) error {
	if _, err := s.get(ctx, id); err != nil {
		return err
	}
	return ErrInvalidTransition
}

func failedOutcome(post *models.Post, lines []string, msg string) repository.Outcome {
	return repository.Outcome{
		Status: models.PostStatusFailed,
		Error:  &msg,
		Log:    appendLog(post.Log, lines),
	}
}

func appendLog(existing *string, lines []string) *string {
	var parts []string
	if existing != nil && *existing != "" {
		parts = append(parts, *existing)
	}
	parts = append(parts, lines...)
	if len(parts) == 0 {
		return existing
	}
	joined := strings.Join(parts, "\n")
	return &joined
}

func logLine(stamp string, platform models.Platform, res transfer.PublishResult) string {
	if res.OK {
		return fmt.Sprintf("[%s] %s OK %s", stamp, platform.Label(), render(res.Data))
	}

	line := fmt.Sprintf("[%s] %s ERROR %s", stamp, platform.Label(), res.Error)
	detail := render(res.Detail)
	if res.Error == transfer.IGNotReady {
		detail = fmt.Sprintf("creationId=%s statusCode=%s", res.CreationID, res.StatusCode)
	}
	if detail != "" {
		line += ": " + detail
	}
	return line
}

func render(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
