package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shortreel/internal/shorts"
)

// Error is a non-2xx reply from the daemon.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("daemon returned %d", e.StatusCode)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running daemon.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for the daemon listening on bind (host:port or a
// full URL). A nil httpClient uses a 30 second timeout.
func NewClient(bind, token string, httpClient *http.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(bind), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: base, token: strings.TrimSpace(token), http: httpClient}
}

// Submit enqueues a video and returns its id.
func (c *Client) Submit(ctx context.Context, sub shorts.Submission) (string, error) {
	var resp SubmitResponse
	if err := c.do(ctx, http.MethodPost, "/api/short-video", sub, &resp); err != nil {
		return "", err
	}
	return resp.VideoID, nil
}

// Status returns the job status.
func (c *Client) Status(ctx context.Context, id string) (string, error) {
	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, "/api/short-video/"+url.PathEscape(id)+"/status", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// List returns queued and stored videos.
func (c *Client) List(ctx context.Context) ([]VideoEntry, error) {
	var resp VideoListResponse
	if err := c.do(ctx, http.MethodGet, "/api/short-videos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Videos, nil
}

// Delete removes a stored video.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/short-video/"+url.PathEscape(id), nil, &DeleteResponse{})
}

// Download streams a stored video into w.
func (c *Client) Download(ctx context.Context, id string, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/short-video/"+url.PathEscape(id), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

// MusicTags lists the moods the daemon's catalog covers.
func (c *Client) MusicTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := c.do(ctx, http.MethodGet, "/api/music-tags", nil, &tags)
	return tags, err
}

// Voices lists the supported narration voices.
func (c *Client) Voices(ctx context.Context) ([]string, error) {
	var voices []string
	err := c.do(ctx, http.MethodGet, "/api/voices", nil, &voices)
	return voices, err
}

// DaemonStatus fetches runtime information.
func (c *Client) DaemonStatus(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var payload ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &payload) != nil || payload.Error == "" {
			payload.Error = strings.TrimSpace(string(raw))
		}
		return nil, &Error{StatusCode: resp.StatusCode, Message: payload.Error}
	}
	return resp, nil
}
