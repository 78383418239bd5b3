package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	VideosDir  string `toml:"videos_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	MusicDir   string `toml:"music_dir"`
	ImagesDir  string `toml:"images_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Pexels contains configuration for the stock footage provider.
type Pexels struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url"`
	TimeoutMS  int    `toml:"timeout_ms"`
	MaxRetries int    `toml:"max_retries"`
	PerPage    int    `toml:"per_page"`
}

// TTS contains configuration for the OpenAI-compatible speech endpoint.
type TTS struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	DefaultVoice   string `toml:"default_voice"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// WhisperX contains configuration for caption transcription.
type WhisperX struct {
	Model          string `toml:"model"`
	CUDAEnabled    bool   `toml:"cuda_enabled"`
	VADMethod      string `toml:"vad_method"`
	Language       string `toml:"language"`
	HFToken        string `toml:"hf_token"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Render contains configuration for the ffmpeg rendering engine.
type Render struct {
	FFmpegBinary      string `toml:"ffmpeg_binary"`
	FFprobeBinary     string `toml:"ffprobe_binary"`
	MaxAttempts       int    `toml:"max_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	FrameRate         int    `toml:"frame_rate"`
	Preset            string `toml:"preset"`
	CRF               int    `toml:"crf"`
}

// Captions contains caption pagination and styling parameters.
type Captions struct {
	LineMaxChars int    `toml:"line_max_chars"`
	LinesPerPage int    `toml:"lines_per_page"`
	MaxGapMS     int    `toml:"max_gap_ms"`
	FontName     string `toml:"font_name"`
	FontSize     int    `toml:"font_size"`
}

// Chunking contains the narration splitting parameters.
type Chunking struct {
	TargetSeconds  float64 `toml:"target_seconds"`
	CharsPerSecond float64 `toml:"chars_per_second"`
}

// Storage selects where finished videos are kept.
type Storage struct {
	Backend     string `toml:"backend"`
	S3Bucket    string `toml:"s3_bucket"`
	S3Prefix    string `toml:"s3_prefix"`
	S3Region    string `toml:"s3_region"`
	S3Profile   string `toml:"s3_profile"`
	S3Endpoint  string `toml:"s3_endpoint"`
	S3PathStyle bool   `toml:"s3_path_style"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	JobReady       bool   `toml:"job_ready"`
	JobFailed      bool   `toml:"job_failed"`
}

// Workflow contains configuration for daemon housekeeping.
type Workflow struct {
	StagingMaxAgeHours int    `toml:"staging_max_age_hours"`
	JanitorSchedule    string `toml:"janitor_schedule"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for shortreel.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address
//   - Pexels: stock footage search
//   - TTS: speech synthesis endpoint
//   - WhisperX: caption transcription
//   - Render: ffmpeg binaries, retry policy and encoder settings
//   - Captions: pagination limits and caption styling
//   - Chunking: narration splitting thresholds
//   - Storage: local or S3 artifact storage
//   - Notifications: ntfy push notification settings
//   - Workflow: staging janitor schedule
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Pexels        Pexels        `toml:"pexels"`
	TTS           TTS           `toml:"tts"`
	WhisperX      WhisperX      `toml:"whisperx"`
	Render        Render        `toml:"render"`
	Captions      Captions      `toml:"captions"`
	Chunking      Chunking      `toml:"chunking"`
	Storage       Storage       `toml:"storage"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the working directory is
// loaded first so secrets can stay out of the TOML file.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", false, fmt.Errorf("load .env: %w", err)
	}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shortreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// The videos directory is only required for the local storage backend.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StagingDir, c.Paths.LogDir, c.Paths.ImagesDir}
	if c.Storage.Backend == StorageLocal {
		dirs = append(dirs, c.Paths.VideosDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PexelsTimeout returns the per-attempt footage search timeout.
func (c *Config) PexelsTimeout() time.Duration {
	return time.Duration(c.Pexels.TimeoutMS) * time.Millisecond
}

// RenderRetryDelay returns the fixed delay between render attempts.
func (c *Config) RenderRetryDelay() time.Duration {
	return time.Duration(c.Render.RetryDelaySeconds) * time.Second
}

// StagingMaxAge returns the age after which job staging directories are stale.
func (c *Config) StagingMaxAge() time.Duration {
	return time.Duration(c.Workflow.StagingMaxAgeHours) * time.Hour
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
