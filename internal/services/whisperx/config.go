package whisperx

import (
	"time"

	"shortreel/internal/config"
)

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "medium.en").
	Model string
	// CUDAEnabled enables GPU acceleration.
	CUDAEnabled bool
	// VADMethod selects the voice activity detection method ("silero" or "pyannote").
	VADMethod string
	// HFToken is the Hugging Face token for pyannote VAD.
	HFToken string
	// Language is an ISO 639-1 code; empty lets WhisperX detect it.
	Language string
	// Timeout bounds one Transcribe call. Zero means no limit.
	Timeout time.Duration
}

// ConfigFromShortreel maps the [whisperx] section.
func ConfigFromShortreel(cfg *config.Config) Config {
	return Config{
		Model:       cfg.WhisperX.Model,
		CUDAEnabled: cfg.WhisperX.CUDAEnabled,
		VADMethod:   cfg.WhisperX.VADMethod,
		HFToken:     cfg.WhisperX.HFToken,
		Language:    cfg.WhisperX.Language,
		Timeout:     time.Duration(cfg.WhisperX.TimeoutSeconds) * time.Second,
	}
}

// WhisperX configuration constants.
const (
	DefaultModel      = "medium.en"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	ChunkSize         = "15"
	VADOnset          = "0.08"
	VADOffset         = "0.07"
	BeamSize          = "5"
	Temperature       = "0.0"
	OutputFormat      = "json"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
	SampleRate        = 16000
)

// Command names for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"
)
