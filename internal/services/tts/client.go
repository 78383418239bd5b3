package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"shortreel/internal/config"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

// Client wraps the speech endpoint.
type Client struct {
	client openai.Client
	model  string
}

// Options configures the client.
type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// New builds a client. Retries are disabled; a failed synthesis fails the scene.
func New(opts Options) *Client {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		// Local Kokoro servers ignore the key but the SDK requires one.
		apiKey = "not-needed"
	}
	baseURL := strings.TrimSpace(opts.BaseURL)
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	clientOpts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "kokoro"
	}
	return &Client{client: openai.NewClient(clientOpts...), model: model}
}

// NewFromConfig builds a client from the [tts] section.
func NewFromConfig(cfg *config.Config) *Client {
	return New(Options{
		BaseURL: cfg.TTS.BaseURL,
		APIKey:  cfg.TTS.APIKey,
		Model:   cfg.TTS.Model,
		Timeout: time.Duration(cfg.TTS.TimeoutSeconds) * time.Second,
	})
}

// Generate synthesizes text with the given voice.
func (c *Client) Generate(ctx context.Context, text, voice string) (shorts.SpeechResult, error) {
	if strings.TrimSpace(text) == "" {
		return shorts.SpeechResult{}, services.Wrap(services.ErrValidation, "tts", "generate", "empty narration", nil)
	}
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(c.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	})
	if err != nil {
		return shorts.SpeechResult{}, classify("generate", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return shorts.SpeechResult{}, services.Wrap(services.ErrTransient, "tts", "read audio", "", err)
	}
	duration, err := WAVDuration(audio)
	if err != nil {
		return shorts.SpeechResult{}, services.Wrap(services.ErrExternalTool, "tts", "parse audio", fmt.Sprintf("voice %s", voice), err)
	}
	return shorts.SpeechResult{Audio: audio, DurationSeconds: duration}, nil
}

// HealthCheck lists the endpoint's models, which also proves the key works.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return classify("health", err)
	}
	return nil
}

func classify(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return services.Wrap(services.ErrConfiguration, "tts", op, "speech endpoint rejected credentials", err)
		case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity:
			return services.Wrap(services.ErrValidation, "tts", op, "speech endpoint rejected request", err)
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return services.Wrap(services.ErrTransient, "tts", op, fmt.Sprintf("status %d", apiErr.StatusCode), err)
		}
		return services.Wrap(services.ErrExternalTool, "tts", op, fmt.Sprintf("status %d", apiErr.StatusCode), err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "tts", op, "", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return services.Wrap(services.ErrTransient, "tts", op, "", err)
}
