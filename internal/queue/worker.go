package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypePublishPost, q.HandlePublishPostTask)
}

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("decode publish payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.PostID == "" {
		return fmt.Errorf("publish payload without post id: %w", asynq.SkipRetry)
	}

	return q.runner.RunDue(ctx, payload.PostID)
}
