package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/postflow/configs"
)

const (
	graphTimeout     = 30 * time.Second
	maxGraphBodySize = 1 << 20
)

// GraphClient issues requests against the Meta Graph API. Every URL is built
// from the configured base and version.
type GraphClient struct {
	httpClient *http.Client
	base       string
	version    string
}

// NewGraphClient uses a 30 second client when httpClient is nil.
func NewGraphClient(cfg config.Graph, httpClient *http.Client) *GraphClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: graphTimeout}
	}
	return &GraphClient{
		httpClient: httpClient,
		base:       strings.TrimSuffix(cfg.BaseURL, "/"),
		version:    cfg.Version,
	}
}

func (g *GraphClient) endpoint(path ...string) string {
	segments := make([]string, 0, len(path))
	for _, p := range path {
		segments = append(segments, url.PathEscape(p))
	}
	return g.base + "/" + g.version + "/" + strings.Join(segments, "/")
}

type graphResponse struct {
	StatusCode int
	Body       string
}

func (r *graphResponse) ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// parsed decodes the body as JSON.
func (r *graphResponse) parsed() (any, bool) {
	dec := json.NewDecoder(strings.NewReader(r.Body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}

// data is the parsed body, or the raw text wrapped as {"raw": text}.
func (r *graphResponse) data() any {
	if v, ok := r.parsed(); ok {
		return v
	}
	return map[string]any{"raw": r.Body}
}

func (g *GraphClient) postForm(ctx context.Context, form url.Values, path ...string) (*graphResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(path...), bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req)
}

func (g *GraphClient) get(ctx context.Context, query url.Values, path ...string) (*graphResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint(path...)+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return g.do(req)
}

func (g *GraphClient) do(req *http.Request) (*graphResponse, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("graph %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGraphBodySize))
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("read graph response: %w", err)
	}

	return &graphResponse{StatusCode: resp.StatusCode, Body: string(body)}, nil
}
