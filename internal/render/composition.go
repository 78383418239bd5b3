// Package render builds the composition descriptor for a job and hands it to
// the rendering engine with a bounded, fixed-delay retry policy.
package render

import (
	"math"

	"shortreel/internal/captions"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

// Style is the visual configuration of a composition.
type Style struct {
	Orientation       shorts.Orientation
	Width             int
	Height            int
	CaptionPosition   shorts.CaptionPosition
	CaptionBackground shorts.RGB
	// MusicGain is the linear gain applied to the background track; 0 mutes it.
	MusicGain     float64
	PaddingBackMs int
}

// Clip is one scene placed on the global timeline.
type Clip struct {
	Footage         shorts.FootageAsset
	AudioRef        string
	StartSeconds    float64
	DurationSeconds float64
}

// Composition is everything the engine needs to produce one video.
type Composition struct {
	Clips []Clip
	// Captions are paginated per scene and shifted onto the global timeline.
	Captions        []shorts.CaptionPage
	Music           shorts.MusicTrack
	DurationSeconds float64
	Style           Style
}

// Build lays scenes end to end and paginates their captions.
func Build(scenes []shorts.AssembledScene, music shorts.MusicTrack, totalSeconds float64, cfg shorts.RenderConfig, opts captions.Options) (Composition, error) {
	if len(scenes) == 0 {
		return Composition{}, services.Wrap(services.ErrValidation, "render", "build", "composition has no scenes", nil)
	}
	background, err := shorts.ParseColor(cfg.CaptionBackgroundColor)
	if err != nil {
		return Composition{}, services.Wrap(services.ErrValidation, "render", "build", "", err)
	}
	width, height := cfg.Orientation.Dimensions()
	comp := Composition{
		Music:           music,
		DurationSeconds: totalSeconds,
		Style: Style{
			Orientation:       cfg.Orientation,
			Width:             width,
			Height:            height,
			CaptionPosition:   cfg.CaptionPosition,
			CaptionBackground: background,
			MusicGain:         cfg.MusicVolume.Gain(),
			PaddingBackMs:     cfg.PaddingBackMs,
		},
	}

	var offset float64
	for _, scene := range scenes {
		comp.Clips = append(comp.Clips, Clip{
			Footage:         scene.Footage,
			AudioRef:        scene.AudioRef,
			StartSeconds:    offset,
			DurationSeconds: scene.DurationSeconds,
		})
		pages := captions.Paginate(scene.Captions, opts)
		comp.Captions = append(comp.Captions, captions.Offset(pages, int64(math.Round(offset*1000)))...)
		offset += scene.DurationSeconds
	}
	return comp, nil
}
