package service

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

type FacebookService interface {
	PublishFacebook(ctx context.Context, post *models.Post, creds models.Credentials) (transfer.PublishResult, error)
}

type facebookService struct {
	graph *GraphClient
}

func NewFacebookService(graph *GraphClient) FacebookService {
	return &facebookService{graph: graph}
}

// PublishFacebook posts the image to the page's photo feed in a single request.
func (s *facebookService) PublishFacebook(ctx context.Context, post *models.Post, creds models.Credentials) (transfer.PublishResult, error) {
	if creds.FBPageID == "" || creds.FBToken == "" {
		return transfer.Failed(transfer.FBConfigMissing, nil), nil
	}

	form := url.Values{}
	form.Set("url", post.ImageURL)
	if msg := post.Message(); msg != "" {
		form.Set("caption", msg)
	}
	form.Set("access_token", creds.FBToken)

	resp, err := s.graph.postForm(ctx, form, creds.FBPageID, "photos")
	if err != nil {
		return transfer.PublishResult{}, err
	}

	if !resp.ok() {
		slog.Info("facebook publish rejected", "post_id", post.ID, "status", resp.StatusCode)
		return transfer.Failed(transfer.FBError, resp.Body), nil
	}

	return transfer.PublishResult{OK: true, Data: resp.data()}, nil
}
