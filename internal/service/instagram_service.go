package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

const (
	containerPollAttempts = 5
	containerPollInterval = 2000 * time.Millisecond
)

type InstagramService interface {
	PublishInstagram(ctx context.Context, post *models.Post, creds models.Credentials) (transfer.PublishResult, error)
}

type sleepFunc func(ctx context.Context, d time.Duration) error

type instagramService struct {
	graph *GraphClient
	sleep sleepFunc
}

func NewInstagramService(graph *GraphClient) InstagramService {
	return &instagramService{graph: graph, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PublishInstagram creates a media container, waits for Instagram to finish
// processing it and then publishes it.
func (s *instagramService) PublishInstagram(ctx context.Context, post *models.Post, creds models.Credentials) (transfer.PublishResult, error) {
	if creds.IGUserID == "" || creds.IGToken == "" {
		return transfer.Failed(transfer.IGConfigMissing, nil), nil
	}

	creationID, failed, err := s.createContainer(ctx, post, creds)
	if err != nil || failed != nil {
		return deref(failed), err
	}

	lastStatus, failed, err := s.waitForContainer(ctx, creationID, creds.IGToken)
	if err != nil || failed != nil {
		return deref(failed), err
	}
	if lastStatus != transfer.ContainerFinished {
		slog.Info("instagram container not ready", "post_id", post.ID, "creation_id", creationID, "status_code", lastStatus)
		return transfer.PublishResult{
			OK:         false,
			Error:      transfer.IGNotReady,
			CreationID: creationID,
			StatusCode: lastStatus,
		}, nil
	}

	form := url.Values{}
	form.Set("creation_id", creationID)
	form.Set("access_token", creds.IGToken)

	resp, err := s.graph.postForm(ctx, form, creds.IGUserID, "media_publish")
	if err != nil {
		return transfer.PublishResult{}, err
	}
	if !resp.ok() {
		return transfer.Failed(transfer.IGPublishError, resp.Body), nil
	}

	return transfer.PublishResult{OK: true, Data: resp.data()}, nil
}

func (s *instagramService) createContainer(ctx context.Context, post *models.Post, creds models.Credentials) (string, *transfer.PublishResult, error) {
	form := url.Values{}
	form.Set("image_url", post.ImageURL)
	if msg := post.Message(); msg != "" {
		form.Set("caption", msg)
	}
	form.Set("access_token", creds.IGToken)

	resp, err := s.graph.postForm(ctx, form, creds.IGUserID, "media")
	if err != nil {
		return "", nil, err
	}
	if !resp.ok() {
		r := transfer.Failed(transfer.IGCreateError, resp.Body)
		return "", &r, nil
	}

	body, ok := resp.parsed()
	if !ok {
		r := transfer.Failed(transfer.IGMediaErrorParse, resp.Body)
		return "", &r, nil
	}

	creationID := stringField(body, "id")
	if creationID == "" {
		r := transfer.Failed(transfer.IGNoCreationID, body)
		return "", &r, nil
	}
	return creationID, nil, nil
}

// waitForContainer polls the container status and returns the last status
// seen. The result is non-nil when polling aborted on a protocol failure.
func (s *instagramService) waitForContainer(ctx context.Context, creationID, token string) (string, *transfer.PublishResult, error) {
	query := url.Values{}
	query.Set("fields", "status_code")
	query.Set("access_token", token)

	lastStatus := transfer.ContainerUnknown
	for attempt := 1; attempt <= containerPollAttempts; attempt++ {
		resp, err := s.graph.get(ctx, query, creationID)
		if err != nil {
			return "", nil, err
		}
		if !resp.ok() {
			r := transfer.Failed(transfer.IGStatusError, resp.Body)
			return "", &r, nil
		}

		lastStatus = containerStatus(resp.Body)
		switch lastStatus {
		case transfer.ContainerFinished:
			return lastStatus, nil, nil
		case transfer.ContainerError:
			r := transfer.Failed(transfer.IGMediaError, resp.data())
			return "", &r, nil
		}

		if attempt < containerPollAttempts {
			if err := s.sleep(ctx, containerPollInterval); err != nil {
				return "", nil, fmt.Errorf("waiting for container %s: %w", creationID, err)
			}
		}
	}
	return lastStatus, nil, nil
}

func containerStatus(body string) string {
	var status transfer.InstagramContainerStatus
	if err := json.Unmarshal([]byte(body), &status); err != nil || status.StatusCode == "" {
		return transfer.ContainerUnknown
	}
	return status.StatusCode
}

func stringField(body any, key string) string {
	m, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func deref(r *transfer.PublishResult) transfer.PublishResult {
	if r == nil {
		return transfer.PublishResult{}
	}
	return *r
}
