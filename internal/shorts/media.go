package shorts

import "strings"

// CaptionToken is one transcribed word with its timing in milliseconds.
type CaptionToken struct {
	Text    string `json:"text"`
	StartMs int64  `json:"startMs"`
	EndMs   int64  `json:"endMs"`
}

// CaptionLine is one visual row of tokens.
type CaptionLine struct {
	Tokens []CaptionToken `json:"tokens"`
}

// Text renders the line as displayed: trimmed token text joined by single
// spaces.
func (l CaptionLine) Text() string {
	words := make([]string, 0, len(l.Tokens))
	for _, t := range l.Tokens {
		if w := strings.TrimSpace(t.Text); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// CaptionPage is a group of lines shown together.
type CaptionPage struct {
	StartMs int64         `json:"startMs"`
	EndMs   int64         `json:"endMs"`
	Lines   []CaptionLine `json:"lines"`
}

// SpeechResult is synthesized narration for one scene.
type SpeechResult struct {
	Audio           []byte
	DurationSeconds float64
}

// FootageAsset is the clip or image backing one scene.
type FootageAsset struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// Still is set for image scenes; the renderer loops a single frame.
	Still bool `json:"still,omitempty"`
}

// AssembledScene is the unit handed to the renderer.
type AssembledScene struct {
	Captions        []CaptionToken `json:"captions"`
	Footage         FootageAsset   `json:"footage"`
	AudioRef        string         `json:"audioRef"`
	DurationSeconds float64        `json:"durationSeconds"`
}

// MusicTrack is a catalog entry; the usable excerpt spans StartSec..EndSec.
type MusicTrack struct {
	File     string  `toml:"file" json:"file"`
	StartSec float64 `toml:"start" json:"start"`
	EndSec   float64 `toml:"end" json:"end"`
	Mood     Mood    `toml:"mood" json:"mood"`
}
