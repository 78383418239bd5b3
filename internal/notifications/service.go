package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shortreel/internal/config"
)

const userAgent = "shortreel/0.1.0"

// Event identifies a notification type.
type Event string

const (
	// EventJobReady fires when a video has been rendered and stored.
	EventJobReady Event = "job_ready"
	// EventJobFailed fires when a job ends in the failed state.
	EventJobFailed Event = "job_failed"
	// EventTest is sent by the CLI to verify delivery.
	EventTest Event = "test"
)

// Payload carries event-specific values.
type Payload map[string]any

// Service publishes notification events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventJobReady:  cfg.Notifications.JobReady,
			EventJobFailed: cfg.Notifications.JobFailed,
			EventTest:      true,
		},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, data Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, data)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, data Payload) (payload, bool) {
	switch event {
	case EventJobReady:
		message := fmt.Sprintf("✅ Video ready: %s", stringValue(data, "jobID"))
		if scenes := intValue(data, "scenes"); scenes > 0 {
			message = fmt.Sprintf("%s\n%d scenes, %s", message, scenes, durationValue(data, "duration"))
		}
		return payload{
			title:    "shortreel - Video Ready",
			message:  message,
			tags:     []string{"shortreel", "video", "ready"},
			priority: "high",
		}, true
	case EventJobFailed:
		var builder strings.Builder
		builder.WriteString("❌ Job ")
		builder.WriteString(stringValue(data, "jobID"))
		builder.WriteString(" failed")
		if kind := stringValue(data, "kind"); kind != "" {
			builder.WriteString(" (")
			builder.WriteString(kind)
			builder.WriteString(")")
		}
		builder.WriteString(": ")
		if err, ok := data["error"].(error); ok && err != nil {
			builder.WriteString(strings.TrimSpace(err.Error()))
		} else {
			builder.WriteString("unknown")
		}
		return payload{
			title:    "shortreel - Job Failed",
			message:  builder.String(),
			tags:     []string{"shortreel", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return payload{
			title:    "shortreel - Test",
			message:  "🧪 Notification system test",
			tags:     []string{"shortreel", "test"},
			priority: "low",
		}, true
	default:
		return payload{}, false
	}
}

func stringValue(data Payload, key string) string {
	if data == nil {
		return ""
	}
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return ""
	}
}

func intValue(data Payload, key string) int {
	if data == nil {
		return 0
	}
	if v, ok := data[key].(int); ok {
		return v
	}
	return 0
}

func durationValue(data Payload, key string) string {
	d, _ := data[key].(time.Duration)
	d = d.Round(time.Second)
	if d <= 0 {
		return "0s"
	}
	return d.String()
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
