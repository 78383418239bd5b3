// Package chunker splits long narration into scenes short enough to be
// spoken within a target duration.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"shortreel/internal/shorts"
)

// Options controls the duration estimate.
type Options struct {
	// TargetSeconds is the longest a chunk may be expected to take to speak.
	TargetSeconds float64
	// CharsPerSecond is the assumed speaking rate.
	CharsPerSecond float64
}

// DefaultOptions matches the speaking rate the synthesizer voices average.
func DefaultOptions() Options {
	return Options{TargetSeconds: 25, CharsPerSecond: 13}
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)

// Sentences splits text on terminal punctuation, keeping the punctuation and
// any leading whitespace with each sentence. Text without a sentence body is
// returned whole.
func Sentences(text string) []string {
	out := sentencePattern.FindAllString(text, -1)
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// EstimateSeconds returns the expected spoken duration of text.
func (o Options) EstimateSeconds(text string) float64 {
	if o.CharsPerSecond <= 0 {
		return 0
	}
	return float64(utf8.RuneCountInString(text)) / o.CharsPerSecond
}

// Split accumulates sentences into chunks. A sentence that would push a
// non-empty chunk past the target starts a new chunk; an oversized sentence is
// emitted alone rather than cut.
func Split(text string, opts Options) []string {
	var (
		chunks  []string
		current string
	)
	for _, sentence := range Sentences(text) {
		if current != "" && opts.EstimateSeconds(current+sentence) > opts.TargetSeconds {
			if trimmed := strings.TrimSpace(current); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			current = sentence
			continue
		}
		current += sentence
	}
	if trimmed := strings.TrimSpace(current); trimmed != "" {
		chunks = append(chunks, trimmed)
	}
	return chunks
}

// Prepare expands every scene whose narration is estimated to run longer than
// the target into consecutive scenes sharing its footage source. Shorter
// scenes pass through unchanged.
func Prepare(scenes []shorts.SceneRequest, opts Options) []shorts.SceneRequest {
	out := make([]shorts.SceneRequest, 0, len(scenes))
	for _, scene := range scenes {
		if opts.EstimateSeconds(scene.Text) <= opts.TargetSeconds {
			out = append(out, scene)
			continue
		}
		chunks := Split(scene.Text, opts)
		if len(chunks) == 0 {
			out = append(out, scene)
			continue
		}
		for _, chunk := range chunks {
			out = append(out, scene.WithText(chunk))
		}
	}
	return out
}
