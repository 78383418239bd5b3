package whisperx

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"shortreel/internal/shorts"
)

// Word represents a single word with timing from WhisperX output. Start and
// End are absent when alignment failed (digits, symbols).
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// RawToken is a recognizer token before merging. Text keeps its leading space
// when the recognizer starts a new word.
type RawToken struct {
	Text    string
	StartMs int64
	EndMs   int64
}

// MergeTokens turns raw recognizer tokens into caption tokens. Tokens starting
// with "[_" are control markers and dropped. A token without a leading space
// continues the previous word when that word does not end in a space.
func MergeTokens(raw []RawToken) []shorts.CaptionToken {
	out := make([]shorts.CaptionToken, 0, len(raw))
	for _, tok := range raw {
		text := norm.NFC.String(tok.Text)
		if text == "" || strings.HasPrefix(text, "[_") {
			continue
		}
		if n := len(out); n > 0 && !strings.HasPrefix(text, " ") && !strings.HasSuffix(out[n-1].Text, " ") {
			out[n-1].Text += text
			if tok.EndMs > out[n-1].EndMs {
				out[n-1].EndMs = tok.EndMs
			}
			continue
		}
		out = append(out, shorts.CaptionToken{Text: text, StartMs: tok.StartMs, EndMs: tok.EndMs})
	}
	return out
}

// SegmentTokens flattens WhisperX word timings into raw tokens. Words are
// emitted with a leading space; words lacking timings inherit the previous
// word's end so they stay attached to it.
func SegmentTokens(segments []Segment) []RawToken {
	var out []RawToken
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		for _, w := range seg.Words {
			word := strings.TrimSpace(w.Word)
			if word == "" {
				continue
			}
			if w.Start == nil || w.End == nil {
				if len(out) == 0 {
					out = append(out, RawToken{Text: " " + word, StartMs: toMs(seg.Start), EndMs: toMs(seg.Start)})
					continue
				}
				prev := &out[len(out)-1]
				prev.Text += " " + word
				continue
			}
			out = append(out, RawToken{Text: " " + word, StartMs: toMs(*w.Start), EndMs: toMs(*w.End)})
		}
	}
	return out
}

func toMs(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}
