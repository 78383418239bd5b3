// Package synth turns prepared scenes into assembled scenes: narration audio,
// word-timed captions and a footage asset per scene, in order.
package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"shortreel/internal/footage"
	"shortreel/internal/logging"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

// SpeechSynthesizer produces narration audio.
type SpeechSynthesizer interface {
	Generate(ctx context.Context, text, voice string) (shorts.SpeechResult, error)
}

// Transcriber produces word-level caption tokens for an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]shorts.CaptionToken, error)
}

// FootageFinder picks a clip for a search scene.
type FootageFinder interface {
	Find(ctx context.Context, req footage.Request) (shorts.FootageAsset, error)
}

// Result is the synthesized job.
type Result struct {
	Scenes       []shorts.AssembledScene
	TotalSeconds float64
}

// Synthesizer drives the per-scene sequence.
type Synthesizer struct {
	speech      SpeechSynthesizer
	transcriber Transcriber
	footage     FootageFinder
	logger      *slog.Logger
	remove      func(string) error
	imageDir    string
}

// New wires a synthesizer.
func New(speech SpeechSynthesizer, transcriber Transcriber, finder FootageFinder, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		speech:      speech,
		transcriber: transcriber,
		footage:     finder,
		logger:      logging.NewComponentLogger(logger, "synth"),
		remove:      os.Remove,
	}
}

// WithImageDir sets the directory image scene references resolve against.
func (s *Synthesizer) WithImageDir(dir string) {
	s.imageDir = dir
}

// Synthesize processes scenes in order. Narration audio is written to workDir
// and referenced by the returned scenes; the copy handed to the transcriber is
// removed before the next scene starts. The first failing step aborts the job.
func (s *Synthesizer) Synthesize(ctx context.Context, workDir string, scenes []shorts.SceneRequest, cfg shorts.RenderConfig) (Result, error) {
	var result Result
	if len(scenes) == 0 {
		return result, services.Wrap(services.ErrValidation, "synth", "synthesize", "no scenes", nil)
	}
	width, height := cfg.Orientation.Dimensions()
	used := make(map[string]struct{}, len(scenes))

	for i, scene := range scenes {
		sceneCtx := services.WithScene(ctx, i+1)
		assembled, err := s.scene(sceneCtx, workDir, i, scene, cfg, used, width, height, i == len(scenes)-1)
		if err != nil {
			return Result{}, err
		}
		used[assembled.Footage.ID] = struct{}{}
		result.Scenes = append(result.Scenes, assembled)
		result.TotalSeconds += assembled.DurationSeconds
	}
	return result, nil
}

func (s *Synthesizer) scene(
	ctx context.Context,
	workDir string,
	index int,
	scene shorts.SceneRequest,
	cfg shorts.RenderConfig,
	used map[string]struct{},
	width, height int,
	last bool,
) (shorts.AssembledScene, error) {
	logger := logging.WithContext(ctx, s.logger)

	speech, err := s.speech.Generate(ctx, scene.Text, cfg.Voice)
	if err != nil {
		return shorts.AssembledScene{}, stepError("speech", index, err)
	}
	duration := speech.DurationSeconds
	if last && cfg.PaddingBackMs > 0 {
		duration += cfg.PaddingSeconds()
	}

	audioRef := filepath.Join(workDir, fmt.Sprintf("scene-%03d.wav", index+1))
	if err := os.WriteFile(audioRef, speech.Audio, 0o644); err != nil {
		return shorts.AssembledScene{}, services.Wrap(services.ErrExternalTool, "synth", "write audio", fmt.Sprintf("scene %d", index+1), err)
	}

	tokens, err := s.transcribe(ctx, workDir, speech.Audio)
	if err != nil {
		return shorts.AssembledScene{}, stepError("captions", index, err)
	}

	var asset shorts.FootageAsset
	switch scene.Kind {
	case shorts.SceneSearch:
		asset, err = s.footage.Find(ctx, footage.Request{
			Terms:       scene.SearchTerms,
			MinDuration: duration,
			Exclude:     used,
			Orientation: cfg.Orientation,
		})
		if err != nil {
			return shorts.AssembledScene{}, stepError("footage", index, err)
		}
	case shorts.SceneImage:
		imagePath, err := s.resolveImage(scene.ImageRef)
		if err != nil {
			return shorts.AssembledScene{}, err
		}
		asset = shorts.FootageAsset{
			ID:     fmt.Sprintf("image-%d", index+1),
			URL:    imagePath,
			Width:  width,
			Height: height,
			Still:  true,
		}
	default:
		return shorts.AssembledScene{}, services.Wrap(services.ErrValidation, "synth", "scene",
			fmt.Sprintf("scene %d: unknown kind %q", index+1, scene.Kind), nil)
	}
	if _, dup := used[asset.ID]; dup {
		return shorts.AssembledScene{}, services.Wrap(services.ErrExternalTool, "synth", "footage",
			fmt.Sprintf("scene %d: asset %s already used in this job", index+1, asset.ID), nil)
	}

	logger.Info("scene assembled",
		logging.String(logging.FieldEventType, "scene_assembled"),
		logging.String("footage_id", asset.ID),
		logging.Float64("duration_seconds", duration),
		logging.Int("caption_tokens", len(tokens)),
	)
	return shorts.AssembledScene{
		Captions:        tokens,
		Footage:         asset,
		AudioRef:        audioRef,
		DurationSeconds: duration,
	}, nil
}

// transcribe writes a uniquely named transient copy, transcribes it and
// removes it whatever the outcome.
func (s *Synthesizer) transcribe(ctx context.Context, workDir string, audio []byte) ([]shorts.CaptionToken, error) {
	transient := filepath.Join(workDir, "transcribe-"+uuid.NewString()+".wav")
	if err := os.WriteFile(transient, audio, 0o644); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "synth", "write transient audio", "", err)
	}
	defer s.cleanup(ctx, transient)
	return s.transcriber.Transcribe(ctx, transient)
}

func (s *Synthesizer) cleanup(ctx context.Context, path string) {
	err := s.remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return
	}
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "transient audio cleanup failed", "cleanup_failed",
		logging.String("path", path),
		logging.Error(services.Wrap(services.ErrCleanup, "synth", "remove", path, err)),
		logging.String(logging.FieldErrorKind, services.Kind(services.ErrCleanup)),
		logging.String(logging.FieldImpact, "stale file left in staging; janitor will remove it"),
	)
}

// resolveImage maps an image reference to a regular file under the images
// directory.
func (s *Synthesizer) resolveImage(ref string) (string, error) {
	if strings.TrimSpace(s.imageDir) == "" {
		return "", services.Wrap(services.ErrConfiguration, "synth", "resolve image", "images directory not configured", nil)
	}
	if err := shorts.CheckImageRef(ref); err != nil {
		return "", services.Wrap(services.ErrValidation, "synth", "resolve image", err.Error(), nil)
	}
	imagePath := filepath.Join(s.imageDir, filepath.FromSlash(strings.TrimSpace(ref)))
	info, err := os.Stat(imagePath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "synth", "resolve image", ref, err)
	}
	if !info.Mode().IsRegular() {
		return "", services.Wrap(services.ErrValidation, "synth", "resolve image", ref+" is not a regular file", nil)
	}
	return imagePath, nil
}

// stepError tags a failed scene step, keeping the cause's classification.
func stepError(step string, index int, err error) error {
	return services.Wrap(services.Marker(err, services.ErrExternalTool), "synth", step, fmt.Sprintf("scene %d", index+1), err)
}
