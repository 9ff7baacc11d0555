package mirror

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/stockroom-dev/stockroom/internal/config"
	"github.com/stockroom-dev/stockroom/internal/models"
)

// Client pushes local content to a GitHub repository through the contents
// API using optimistic concurrency: read the current blob sha, then write
// carrying that sha. Each Mirror call is a single attempt; retry policy
// belongs to the caller.
type Client struct {
	owner   string
	repo    string
	branch  string
	token   string
	baseURL string
	enabled bool

	httpClient *http.Client
}

// New creates a mirror client from the startup configuration. When mirroring
// is not configured the client is a no-op that reports MirrorDisabled.
func New(cfg config.Config) *Client {
	return &Client{
		owner:   cfg.GitHubOwner,
		repo:    cfg.GitHubRepo,
		branch:  cfg.GitHubBranch,
		token:   cfg.GitHubToken,
		baseURL: "https://api.github.com",
		enabled: cfg.MirrorEnabled(),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether the client will perform network I/O.
func (c *Client) Enabled() bool {
	return c.enabled
}

// RawURL returns the public raw-content URL for a mirrored path. Only
// meaningful after a successful Mirror of that path.
func (c *Client) RawURL(path string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", c.owner, c.repo, c.branch, path)
}

type contentResponse struct {
	SHA     string `json:"sha"`
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

// Mirror writes content to path on the configured branch. A missing remote
// file is a create; an existing one is an update at its current sha. The
// returned status is advisory: the local store stays authoritative no matter
// what happens here.
func (c *Client) Mirror(ctx context.Context, path string, content []byte, message string) models.MirrorStatus {
	if !c.enabled {
		return models.MirrorStatus{State: models.MirrorDisabled, Detail: "mirroring not configured"}
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)

	sha, err := c.fetchSHA(ctx, apiURL)
	if err != nil {
		return models.MirrorStatus{State: models.MirrorFailed, Detail: err.Error()}
	}

	payload := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  c.branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return models.MirrorStatus{State: models.MirrorFailed, Detail: fmt.Sprintf("failed to encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, apiURL, bytes.NewReader(body))
	if err != nil {
		return models.MirrorStatus{State: models.MirrorFailed, Detail: fmt.Sprintf("failed to create request: %v", err)}
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.MirrorStatus{State: models.MirrorFailed, Detail: fmt.Sprintf("failed to push content: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return models.MirrorStatus{
			State:  models.MirrorFailed,
			Detail: fmt.Sprintf("GitHub PUT returned %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var cr contentResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		// The write landed; a garbled response body is not worth failing over.
		slog.Warn("Failed to decode GitHub response", "path", path, "error", err)
	}

	slog.Info("Mirrored content", "path", path, "commit", cr.Commit.SHA)
	return models.MirrorStatus{State: models.MirrorOK, Commit: cr.Commit.SHA}
}

// fetchSHA returns the current blob sha for the path, or "" when the file
// does not exist yet. Any other non-success status is a hard failure for
// this attempt.
func (c *Client) fetchSHA(ctx context.Context, apiURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?ref="+url.QueryEscape(c.branch), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch remote metadata: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var cr contentResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return "", fmt.Errorf("failed to decode remote metadata: %w", err)
		}
		return cr.SHA, nil
	case http.StatusNotFound:
		// First write for this path: create.
		return "", nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("GitHub GET returned %d: %s", resp.StatusCode, string(respBody))
	}
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
}
