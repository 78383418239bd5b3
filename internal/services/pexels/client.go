package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"shortreel/internal/config"
	"shortreel/internal/footage"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

// HTTPDoer describes the HTTP client used by the Pexels client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the Pexels video search endpoint.
type Client struct {
	baseURL string
	apiKey  string
	perPage int
	client  HTTPDoer
}

// New constructs a client. A nil HTTPDoer uses http.DefaultClient; timeouts are
// applied per request through the context.
func New(baseURL, apiKey string, perPage int, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	if perPage <= 0 {
		perPage = 80
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		perPage: perPage,
		client:  client,
	}
}

// NewFromConfig builds a client from the [pexels] section.
func NewFromConfig(cfg *config.Config) *Client {
	return New(cfg.Pexels.BaseURL, cfg.Pexels.APIKey, cfg.Pexels.PerPage, nil)
}

type searchResponse struct {
	Videos []videoPayload `json:"videos"`
}

type videoPayload struct {
	ID         int64         `json:"id"`
	Duration   float64       `json:"duration"`
	VideoFiles []filePayload `json:"video_files"`
}

type filePayload struct {
	Quality string   `json:"quality"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	FPS     *float64 `json:"fps"`
	Link    string   `json:"link"`
}

// Search returns videos matching term in the requested orientation.
func (c *Client) Search(ctx context.Context, term string, orientation shorts.Orientation) ([]footage.Video, error) {
	query := url.Values{}
	query.Set("query", term)
	query.Set("orientation", string(orientation))
	query.Set("size", "medium")
	query.Set("per_page", strconv.Itoa(c.perPage))
	endpoint := fmt.Sprintf("%s/videos/search?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "pexels", "build request", "", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, term, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, services.Wrap(services.ErrConfiguration, "pexels", "search", "invalid Pexels API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, services.Wrap(services.ErrTransient, "pexels", "search", fmt.Sprintf("status %d for %q", resp.StatusCode, term), nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, services.Wrap(services.ErrExternalTool, "pexels", "search",
			fmt.Sprintf("status %d for %q: %s", resp.StatusCode, term, strings.TrimSpace(string(snippet))), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		if ctx.Err() != nil {
			return nil, classifyTransportError(ctx, term, err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "pexels", "decode", fmt.Sprintf("term %q", term), err)
	}
	return toVideos(payload.Videos), nil
}

func classifyTransportError(ctx context.Context, term string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return services.Wrap(services.ErrTimeout, "pexels", "search", fmt.Sprintf("term %q", term), err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return services.Wrap(services.ErrTransient, "pexels", "search", fmt.Sprintf("term %q", term), err)
}

func toVideos(payload []videoPayload) []footage.Video {
	out := make([]footage.Video, 0, len(payload))
	for _, v := range payload {
		video := footage.Video{
			ID:              strconv.FormatInt(v.ID, 10),
			DurationSeconds: v.Duration,
		}
		if len(v.VideoFiles) > 0 && v.VideoFiles[0].FPS != nil {
			video.FPS = *v.VideoFiles[0].FPS
		}
		for _, f := range v.VideoFiles {
			if f.Link == "" {
				continue
			}
			video.Encodings = append(video.Encodings, footage.Encoding{
				Quality: f.Quality,
				Width:   f.Width,
				Height:  f.Height,
				URL:     f.Link,
			})
		}
		out = append(out, video)
	}
	return out
}
