package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shortreel/internal/config"
)

func TestLoadDefaultConfigUsesEnvPexelsKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("PEXELS_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "shortreel", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.VideosDir != filepath.Join(tempHome, ".local", "share", "shortreel", "videos") {
		t.Fatalf("unexpected videos dir: %q", cfg.Paths.VideosDir)
	}
	if cfg.Paths.ImagesDir != filepath.Join(tempHome, ".local", "share", "shortreel", "images") {
		t.Fatalf("unexpected images dir: %q", cfg.Paths.ImagesDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:3123" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Pexels.APIKey != "test-key" {
		t.Fatalf("expected Pexels key from env, got %q", cfg.Pexels.APIKey)
	}
	if cfg.Pexels.TimeoutMS != 5000 || cfg.Pexels.MaxRetries != 3 {
		t.Fatalf("unexpected pexels retry defaults: %+v", cfg.Pexels)
	}
	if cfg.Chunking.TargetSeconds != 25 || cfg.Chunking.CharsPerSecond != 13 {
		t.Fatalf("unexpected chunking defaults: %+v", cfg.Chunking)
	}
	if cfg.TTS.DefaultVoice != "af_heart" {
		t.Fatalf("unexpected default voice %q", cfg.TTS.DefaultVoice)
	}
	if cfg.Storage.Backend != config.StorageLocal {
		t.Fatalf("expected local storage backend, got %q", cfg.Storage.Backend)
	}
	if cfg.WhisperX.VADMethod != "silero" {
		t.Fatalf("expected WhisperX VAD default to silero, got %q", cfg.WhisperX.VADMethod)
	}
	if cfg.WhisperX.TimeoutSeconds != 600 {
		t.Fatalf("expected WhisperX timeout default 600, got %d", cfg.WhisperX.TimeoutSeconds)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Chdir(t.TempDir())
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	payload := map[string]any{
		"paths": map[string]any{
			"videos_dir":  filepath.Join(tempDir, "out"),
			"staging_dir": filepath.Join(tempDir, "staging"),
			"log_dir":     filepath.Join(tempDir, "logs"),
		},
		"pexels": map[string]any{
			"api_key":     "file-key",
			"max_retries": 5,
		},
		"captions": map[string]any{
			"line_max_chars": 30,
			"lines_per_page": 2,
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config to be loaded from %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Pexels.APIKey != "file-key" || cfg.Pexels.MaxRetries != 5 {
		t.Fatalf("unexpected pexels section: %+v", cfg.Pexels)
	}
	if cfg.Captions.LineMaxChars != 30 || cfg.Captions.LinesPerPage != 2 {
		t.Fatalf("unexpected captions section: %+v", cfg.Captions)
	}
	if cfg.Captions.MaxGapMS != 1000 {
		t.Fatalf("expected unset max_gap_ms to keep default, got %d", cfg.Captions.MaxGapMS)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized log format, got %q", cfg.Logging.Format)
	}
	if cfg.Paths.VideosDir != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected videos dir %q", cfg.Paths.VideosDir)
	}
}

func TestConfigFileValueWinsOverEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PEXELS_API_KEY", "env-key")
	t.Setenv("TTS_API_KEY", "tts-env")
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[pexels]\napi_key = \"file-key\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Pexels.APIKey != "file-key" {
		t.Fatalf("expected file key, got %q", cfg.Pexels.APIKey)
	}
	if cfg.TTS.APIKey != "tts-env" {
		t.Fatalf("expected TTS key from env, got %q", cfg.TTS.APIKey)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PEXELS_API_KEY=dotenv-key\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	// godotenv never overrides variables that are already set.
	t.Setenv("PEXELS_API_KEY", "")
	os.Unsetenv("PEXELS_API_KEY")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Pexels.APIKey != "dotenv-key" {
		t.Fatalf("expected key from .env, got %q", cfg.Pexels.APIKey)
	}
}

func TestLoadRequiresPexelsKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PEXELS_API_KEY", "")

	_, _, _, err := config.Load("")
	if err == nil || !strings.Contains(err.Error(), "pexels.api_key") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Captions.LineMaxChars != 20 {
		t.Fatalf("expected sample captions section, got %+v", decoded.Captions)
	}
	if decoded.Storage.Backend != config.StorageLocal {
		t.Fatalf("expected sample storage backend local, got %q", decoded.Storage.Backend)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"negative retries", func(c *config.Config) { c.Pexels.MaxRetries = -1 }, "pexels.max_retries"},
		{"zero timeout", func(c *config.Config) { c.Pexels.TimeoutMS = 0 }, "pexels.timeout_ms"},
		{"zero transcription timeout", func(c *config.Config) { c.WhisperX.TimeoutSeconds = 0 }, "whisperx.timeout_seconds"},
		{"zero render attempts", func(c *config.Config) { c.Render.MaxAttempts = 0 }, "render.max_attempts"},
		{"zero line chars", func(c *config.Config) { c.Captions.LineMaxChars = 0 }, "captions.line_max_chars"},
		{"zero chunk target", func(c *config.Config) { c.Chunking.TargetSeconds = 0 }, "chunking.target_seconds"},
		{"bad backend", func(c *config.Config) { c.Storage.Backend = "ftp" }, "storage.backend"},
		{"s3 without bucket", func(c *config.Config) { c.Storage.Backend = config.StorageS3 }, "storage.s3_bucket"},
		{"crf out of range", func(c *config.Config) { c.Render.CRF = 60 }, "render.crf"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Pexels.APIKey = "k"
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}

	cfg := config.Default()
	cfg.Pexels.APIKey = "k"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}
