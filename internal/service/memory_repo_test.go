package service

import (
	"context"
	"sort"
	"sync"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

// memPosts is an in-memory PostRepository with the same conditional-update
// rules as the Postgres one.
type memPosts struct {
	mu        sync.Mutex
	posts     map[string]*models.Post
	claims    int
	finishErr error
	finishes  []repository.Outcome
}

func newMemPosts(posts ...*models.Post) *memPosts {
	m := &memPosts{posts: map[string]*models.Post{}}
	for _, p := range posts {
		m.posts[p.ID] = p
	}
	return m
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Platforms = append(models.PlatformSet(nil), p.Platforms...)
	return &c
}

func (m *memPosts) snapshot(id string) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.posts[id]; ok {
		return clonePost(p)
	}
	return nil
}

func (m *memPosts) EnsureSchema(ctx context.Context) error { return nil }

func (m *memPosts) Create(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[post.ID] = clonePost(post)
	return nil
}

func (m *memPosts) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return m.snapshot(id), nil
}

func (m *memPosts) List(ctx context.Context, status models.Status) ([]*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Post
	for _, p := range m.posts {
		if status == "" || p.Status == status {
			out = append(out, clonePost(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt < out[j].ScheduledAt })
	return out, nil
}

func (m *memPosts) Update(ctx context.Context, post *models.Post) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[post.ID]
	if !ok || !cur.Status.Editable() {
		return false, nil
	}
	m.posts[post.ID] = clonePost(post)
	return true, nil
}

func (m *memPosts) Remove(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.posts[id]
	if !ok || cur.Status == models.PostStatusPublishing {
		return false, nil
	}
	delete(m.posts, id)
	return true, nil
}

func (m *memPosts) ListDue(ctx context.Context, now int64) ([]*models.Post, error) {
	all, _ := m.List(ctx, models.PostStatusScheduled)
	var due []*models.Post
	for _, p := range all {
		if p.ScheduledAt <= now {
			due = append(due, p)
		}
	}
	return due, nil
}

func (m *memPosts) transition(id string, from models.Status, apply func(p *models.Post) bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok || p.Status != from {
		return false
	}
	return apply(p)
}

func (m *memPosts) Claim(ctx context.Context, id string, now int64, dueOnly bool) (bool, error) {
	return m.transition(id, models.PostStatusScheduled, func(p *models.Post) bool {
		if dueOnly && p.ScheduledAt > now {
			return false
		}
		m.claims++
		p.Status = models.PostStatusPublishing
		p.UpdatedAt = now
		return true
	}), nil
}

func (m *memPosts) Finish(ctx context.Context, id string, outcome repository.Outcome, now int64) (bool, error) {
	m.mu.Lock()
	m.finishes = append(m.finishes, outcome)
	err := m.finishErr
	m.mu.Unlock()
	if err != nil {
		return false, err
	}

	return m.transition(id, models.PostStatusPublishing, func(p *models.Post) bool {
		p.Status = outcome.Status
		if outcome.PublishedAt != nil {
			p.PublishedAt = outcome.PublishedAt
		}
		p.Error = outcome.Error
		p.Log = outcome.Log
		p.UpdatedAt = now
		return true
	}), nil
}

func (m *memPosts) MarkScheduled(ctx context.Context, id string, now int64) (bool, error) {
	return m.transition(id, models.PostStatusDraft, func(p *models.Post) bool {
		p.Status = models.PostStatusScheduled
		p.UpdatedAt = now
		return true
	}), nil
}

func (m *memPosts) Cancel(ctx context.Context, id string, now int64) (bool, error) {
	return m.transition(id, models.PostStatusScheduled, func(p *models.Post) bool {
		p.Status = models.PostStatusCancelled
		p.UpdatedAt = now
		return true
	}), nil
}

func (m *memPosts) Retry(ctx context.Context, id string, scheduledAt, now int64) (bool, error) {
	return m.transition(id, models.PostStatusFailed, func(p *models.Post) bool {
		p.Status = models.PostStatusScheduled
		p.ScheduledAt = scheduledAt
		p.Error = nil
		p.Log = nil
		p.UpdatedAt = now
		return true
	}), nil
}

func (m *memPosts) ReclaimStale(ctx context.Context, cutoff, now int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.posts {
		if p.Status == models.PostStatusPublishing && p.UpdatedAt < cutoff {
			p.Status = models.PostStatusScheduled
			p.UpdatedAt = now
			n++
		}
	}
	return n, nil
}
