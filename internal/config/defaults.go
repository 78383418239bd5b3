package config

const (
	defaultConfigPath          = "~/.config/shortreel/config.toml"
	defaultVideosDir           = "~/.local/share/shortreel/videos"
	defaultStagingDir          = "~/.local/share/shortreel/staging"
	defaultLogDir              = "~/.local/share/shortreel/logs"
	defaultMusicDir            = "~/.local/share/shortreel/music"
	defaultImagesDir           = "~/.local/share/shortreel/images"
	defaultAPIBind             = "127.0.0.1:3123"
	defaultPexelsBaseURL       = "https://api.pexels.com"
	defaultPexelsTimeoutMS     = 5000
	defaultPexelsMaxRetries    = 3
	defaultPexelsPerPage       = 80
	defaultTTSBaseURL          = "http://127.0.0.1:8880/v1"
	defaultTTSModel            = "kokoro"
	defaultTTSVoice            = "af_heart"
	defaultTTSTimeoutSeconds   = 120
	defaultWhisperXModel       = "medium.en"
	defaultWhisperXVADMethod   = "silero"
	defaultWhisperXLanguage    = "en"
	defaultWhisperXTimeout     = 600
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultRenderMaxAttempts   = 3
	defaultRenderRetryDelay    = 5
	defaultRenderTimeout       = 1800
	defaultRenderFrameRate     = 25
	defaultRenderPreset        = "veryfast"
	defaultRenderCRF           = 23
	defaultLineMaxChars        = 20
	defaultLinesPerPage        = 1
	defaultMaxGapMS            = 1000
	defaultFontName            = "Barlow Condensed"
	defaultTargetSeconds       = 25
	defaultCharsPerSecond      = 13
	defaultStagingMaxAgeHours  = 24
	defaultJanitorSchedule     = "@every 1h"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultS3Prefix            = "videos/"
	defaultStorageBackendLocal = StorageLocal
)

// Storage backend identifiers.
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			VideosDir:  defaultVideosDir,
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			MusicDir:   defaultMusicDir,
			ImagesDir:  defaultImagesDir,
			APIBind:    defaultAPIBind,
		},
		Pexels: Pexels{
			BaseURL:    defaultPexelsBaseURL,
			TimeoutMS:  defaultPexelsTimeoutMS,
			MaxRetries: defaultPexelsMaxRetries,
			PerPage:    defaultPexelsPerPage,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Model:          defaultTTSModel,
			DefaultVoice:   defaultTTSVoice,
			TimeoutSeconds: defaultTTSTimeoutSeconds,
		},
		WhisperX: WhisperX{
			Model:          defaultWhisperXModel,
			VADMethod:      defaultWhisperXVADMethod,
			Language:       defaultWhisperXLanguage,
			TimeoutSeconds: defaultWhisperXTimeout,
		},
		Render: Render{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			MaxAttempts:       defaultRenderMaxAttempts,
			RetryDelaySeconds: defaultRenderRetryDelay,
			TimeoutSeconds:    defaultRenderTimeout,
			FrameRate:         defaultRenderFrameRate,
			Preset:            defaultRenderPreset,
			CRF:               defaultRenderCRF,
		},
		Captions: Captions{
			LineMaxChars: defaultLineMaxChars,
			LinesPerPage: defaultLinesPerPage,
			MaxGapMS:     defaultMaxGapMS,
			FontName:     defaultFontName,
		},
		Chunking: Chunking{
			TargetSeconds:  defaultTargetSeconds,
			CharsPerSecond: defaultCharsPerSecond,
		},
		Storage: Storage{
			Backend:  defaultStorageBackendLocal,
			S3Prefix: defaultS3Prefix,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobReady:       true,
			JobFailed:      true,
		},
		Workflow: Workflow{
			StagingMaxAgeHours: defaultStagingMaxAgeHours,
			JanitorSchedule:    defaultJanitorSchedule,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
