package queue

import "context"

const TaskTypePublishPost = "post:publish"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}

// DueRunner publishes one post if it is still scheduled and due.
type DueRunner interface {
	RunDue(ctx context.Context, id string) error
}

type Queue struct {
	runner DueRunner
}

func NewQueue(runner DueRunner) *Queue {
	return &Queue{runner: runner}
}
