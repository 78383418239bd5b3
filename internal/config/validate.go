package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePexels(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateCaptions(); err != nil {
		return err
	}
	if err := c.validateChunking(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePexels() error {
	if c.Pexels.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("pexels.api_key is required. Set PEXELS_API_KEY env var or edit %s (create with 'shortreel config init')", defaultPath)
	}
	if c.Pexels.MaxRetries < 0 {
		return errors.New("pexels.max_retries must be >= 0")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if err := ensurePositiveMap(map[string]int{
		"pexels.timeout_ms":              c.Pexels.TimeoutMS,
		"tts.timeout_seconds":            c.TTS.TimeoutSeconds,
		"whisperx.timeout_seconds":       c.WhisperX.TimeoutSeconds,
		"render.max_attempts":            c.Render.MaxAttempts,
		"render.timeout_seconds":         c.Render.TimeoutSeconds,
		"notifications.request_timeout":  c.Notifications.RequestTimeout,
		"workflow.staging_max_age_hours": c.Workflow.StagingMaxAgeHours,
	}); err != nil {
		return err
	}
	if c.Render.RetryDelaySeconds < 0 {
		return errors.New("render.retry_delay_seconds must be >= 0")
	}
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return errors.New("render.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateCaptions() error {
	return ensurePositiveMap(map[string]int{
		"captions.line_max_chars": c.Captions.LineMaxChars,
		"captions.lines_per_page": c.Captions.LinesPerPage,
		"captions.max_gap_ms":     c.Captions.MaxGapMS,
	})
}

func (c *Config) validateChunking() error {
	if c.Chunking.TargetSeconds <= 0 {
		return errors.New("chunking.target_seconds must be positive")
	}
	if c.Chunking.CharsPerSecond <= 0 {
		return errors.New("chunking.chars_per_second must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		if strings.TrimSpace(c.Paths.VideosDir) == "" {
			return errors.New("paths.videos_dir must be set when storage.backend is local")
		}
	case StorageS3:
		if c.Storage.S3Bucket == "" {
			return errors.New("storage.s3_bucket must be set when storage.backend is s3 (or set SHORTREEL_S3_BUCKET)")
		}
	default:
		return fmt.Errorf("storage.backend: unsupported value %q", c.Storage.Backend)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
