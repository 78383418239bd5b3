// Package captions groups timed transcription tokens into caption pages and
// renders them as ASS subtitles.
package captions

import (
	"strings"
	"unicode/utf8"

	"shortreel/internal/shorts"
)

// Options bounds page layout.
type Options struct {
	MaxLineChars int
	MaxLines     int
	// MaxGapMs is the longest silence tolerated inside one page.
	MaxGapMs int64
}

type pageBuilder struct {
	page    shorts.CaptionPage
	line    shorts.CaptionLine
	started bool
}

func (b *pageBuilder) flushLine() {
	if len(b.line.Tokens) == 0 {
		return
	}
	b.page.Lines = append(b.page.Lines, b.line)
	b.line = shorts.CaptionLine{}
}

func (b *pageBuilder) flushPage(out []shorts.CaptionPage) []shorts.CaptionPage {
	if len(b.page.Lines) > 0 {
		out = append(out, b.page)
	}
	b.page = shorts.CaptionPage{}
	b.started = false
	return out
}

func (b *pageBuilder) add(token shorts.CaptionToken) {
	if !b.started {
		b.page.StartMs = token.StartMs
		b.started = true
	}
	b.line.Tokens = append(b.line.Tokens, token)
	b.page.EndMs = token.EndMs
}

// lineLength is the display length of the line once token is appended.
func lineLength(line shorts.CaptionLine, token shorts.CaptionToken) int {
	n := utf8.RuneCountInString(line.Text())
	word := utf8.RuneCountInString(strings.TrimSpace(token.Text))
	if n == 0 {
		return word
	}
	return n + 1 + word
}

// Paginate groups tokens into pages of at most MaxLines lines. A silence longer
// than MaxGapMs always starts a new page. A single token wider than
// MaxLineChars occupies a line of its own.
func Paginate(tokens []shorts.CaptionToken, opts Options) []shorts.CaptionPage {
	maxLines := max(opts.MaxLines, 1)
	var (
		out []shorts.CaptionPage
		b   pageBuilder
	)
	for i, token := range tokens {
		if i > 0 && token.StartMs-b.page.EndMs > opts.MaxGapMs {
			b.flushLine()
			out = b.flushPage(out)
		} else if len(b.line.Tokens) > 0 && lineLength(b.line, token) > opts.MaxLineChars {
			b.flushLine()
			if len(b.page.Lines) >= maxLines {
				out = b.flushPage(out)
			}
		}
		b.add(token)
	}
	b.flushLine()
	return b.flushPage(out)
}

// Offset shifts every page and token by ms.
func Offset(pages []shorts.CaptionPage, ms int64) []shorts.CaptionPage {
	out := make([]shorts.CaptionPage, len(pages))
	for i, page := range pages {
		shifted := shorts.CaptionPage{StartMs: page.StartMs + ms, EndMs: page.EndMs + ms, Lines: make([]shorts.CaptionLine, len(page.Lines))}
		for j, line := range page.Lines {
			tokens := make([]shorts.CaptionToken, len(line.Tokens))
			for k, tok := range line.Tokens {
				tokens[k] = shorts.CaptionToken{Text: tok.Text, StartMs: tok.StartMs + ms, EndMs: tok.EndMs + ms}
			}
			shifted.Lines[j] = shorts.CaptionLine{Tokens: tokens}
		}
		out[i] = shifted
	}
	return out
}
