package shorts

import (
	"fmt"
	"strings"
)

// Orientation is the target frame layout.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Dimensions returns the exact frame size footage must match.
func (o Orientation) Dimensions() (width, height int) {
	if o == OrientationLandscape {
		return 1920, 1080
	}
	return 1080, 1920
}

// CaptionPosition places the caption block vertically.
type CaptionPosition string

const (
	CaptionTop    CaptionPosition = "top"
	CaptionCenter CaptionPosition = "center"
	CaptionBottom CaptionPosition = "bottom"
)

// MusicVolume is a named background music level.
type MusicVolume string

const (
	VolumeMuted  MusicVolume = "muted"
	VolumeLow    MusicVolume = "low"
	VolumeMedium MusicVolume = "medium"
	VolumeHigh   MusicVolume = "high"
)

// Gain returns the linear gain applied to the music track.
func (v MusicVolume) Gain() float64 {
	switch v {
	case VolumeMuted:
		return 0
	case VolumeLow:
		return 0.2
	case VolumeMedium:
		return 0.45
	default:
		return 0.7
	}
}

// RenderConfig carries the per-job style options.
type RenderConfig struct {
	PaddingBackMs          int             `json:"paddingBack,omitempty" yaml:"paddingBack,omitempty"`
	Music                  Mood            `json:"music,omitempty" yaml:"music,omitempty"`
	CaptionPosition        CaptionPosition `json:"captionPosition,omitempty" yaml:"captionPosition,omitempty"`
	CaptionBackgroundColor string          `json:"captionBackgroundColor,omitempty" yaml:"captionBackgroundColor,omitempty"`
	Voice                  string          `json:"voice,omitempty" yaml:"voice,omitempty"`
	Orientation            Orientation     `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	MusicVolume            MusicVolume     `json:"musicVolume,omitempty" yaml:"musicVolume,omitempty"`
}

const (
	defaultCaptionColor = "blue"
)

// WithDefaults fills unset fields. defaultVoice is used when Voice is empty.
func (c RenderConfig) WithDefaults(defaultVoice string) RenderConfig {
	c.Orientation = Orientation(strings.ToLower(strings.TrimSpace(string(c.Orientation))))
	if c.Orientation == "" {
		c.Orientation = OrientationPortrait
	}
	c.CaptionPosition = CaptionPosition(strings.ToLower(strings.TrimSpace(string(c.CaptionPosition))))
	if c.CaptionPosition == "" {
		c.CaptionPosition = CaptionBottom
	}
	c.MusicVolume = MusicVolume(strings.ToLower(strings.TrimSpace(string(c.MusicVolume))))
	if c.MusicVolume == "" {
		c.MusicVolume = VolumeHigh
	}
	c.CaptionBackgroundColor = strings.TrimSpace(c.CaptionBackgroundColor)
	if c.CaptionBackgroundColor == "" {
		c.CaptionBackgroundColor = defaultCaptionColor
	}
	c.Voice = strings.TrimSpace(c.Voice)
	if c.Voice == "" {
		c.Voice = defaultVoice
	}
	c.Music = Mood(strings.TrimSpace(string(c.Music)))
	return c
}

// PaddingSeconds converts the tail padding to seconds.
func (c RenderConfig) PaddingSeconds() float64 {
	return float64(c.PaddingBackMs) / 1000
}

func (c RenderConfig) validate() error {
	if c.PaddingBackMs < 0 {
		return fmt.Errorf("paddingBack must be >= 0, got %d", c.PaddingBackMs)
	}
	switch c.Orientation {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("unknown orientation %q", c.Orientation)
	}
	switch c.CaptionPosition {
	case CaptionTop, CaptionCenter, CaptionBottom:
	default:
		return fmt.Errorf("unknown caption position %q", c.CaptionPosition)
	}
	switch c.MusicVolume {
	case VolumeMuted, VolumeLow, VolumeMedium, VolumeHigh:
	default:
		return fmt.Errorf("unknown music volume %q", c.MusicVolume)
	}
	if c.Music != "" && !c.Music.Known() {
		return fmt.Errorf("unknown music mood %q", c.Music)
	}
	if !IsVoice(c.Voice) {
		return fmt.Errorf("unknown voice %q", c.Voice)
	}
	if _, err := ParseColor(c.CaptionBackgroundColor); err != nil {
		return err
	}
	return nil
}
