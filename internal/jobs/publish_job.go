package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
)

// PublishJob is the periodic scheduler tick.
type PublishJob struct {
	pr      repository.PostRepository
	sched   service.SchedulerService
	timeout time.Duration

	mu      sync.Mutex
	running bool
}

func NewPublishJob(pr repository.PostRepository, sched service.SchedulerService, timeout time.Duration) *PublishJob {
	return &PublishJob{
		pr:      pr,
		sched:   sched,
		timeout: timeout,
	}
}

// PublishDuePosts makes sure the schema exists, returns expired claims to
// scheduled and publishes everything that is due. Overlapping ticks are
// skipped.
func (j *PublishJob) PublishDuePosts() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		slog.Warn("publish job still running, skipping tick")
		return
	}
	j.running = true
	j.mu.Unlock()

	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.Tick(ctx)
}

func (j *PublishJob) Tick(ctx context.Context) {
	if err := j.pr.EnsureSchema(ctx); err != nil {
		slog.Info(err.Error())
		return
	}

	if _, err := j.sched.ReclaimStale(ctx); err != nil {
		slog.Info(err.Error())
	}

	j.sched.Run(ctx)
}
