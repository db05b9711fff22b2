package repository

import (
	"context"
	"sync"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL,
		caption TEXT NOT NULL DEFAULT '',
		hashtags TEXT NOT NULL DEFAULT '',
		platforms TEXT NOT NULL,
		profile_key TEXT NOT NULL DEFAULT '',
		scheduled_at BIGINT NOT NULL,
		status TEXT NOT NULL,
		published_at BIGINT,
		error TEXT,
		log TEXT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_status_scheduled ON posts (status, scheduled_at)`,
}

// schemaState runs schema creation at most once at a time. Callers arriving
// while it runs wait for the same result; a failed run leaves the state
// uninitialized so the next caller tries again.
type schemaState struct {
	mu      sync.Mutex
	ready   bool
	pending *schemaRun
}

type schemaRun struct {
	done chan struct{}
	err  error
}

func (s *schemaState) ensure(ctx context.Context, create func(context.Context) error) error {
	s.mu.Lock()
	if s.ready {
		s.mu.Unlock()
		return nil
	}
	if run := s.pending; run != nil {
		s.mu.Unlock()
		select {
		case <-run.done:
			return run.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	run := &schemaRun{done: make(chan struct{})}
	s.pending = run
	s.mu.Unlock()

	run.err = create(ctx)

	s.mu.Lock()
	s.ready = run.err == nil
	s.pending = nil
	s.mu.Unlock()
	close(run.done)

	return run.err
}
