package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const publishMaxRetry = 3

// Enqueuer schedules publish tasks at a post's due time.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueuePublish is idempotent per (post, scheduledAt) pair.
func (e *Enqueuer) EnqueuePublish(ctx context.Context, postID string, scheduledAt int64) error {
	task, opts, err := newPublishTask(postID, scheduledAt)
	if err != nil {
		return err
	}

	_, err = e.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	slog.Info("publish task scheduled", "post_id", postID, "scheduled_at", scheduledAt)
	return nil
}

func newPublishTask(postID string, scheduledAt int64) (*asynq.Task, []asynq.Option, error) {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return nil, nil, err
	}

	opts := []asynq.Option{
		asynq.TaskID(fmt.Sprintf("publish:%s:%d", postID, scheduledAt)),
		asynq.ProcessAt(time.Unix(scheduledAt, 0)),
		asynq.MaxRetry(publishMaxRetry),
	}
	return asynq.NewTask(TaskTypePublishPost, payload), opts, nil
}
