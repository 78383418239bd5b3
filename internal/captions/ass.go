package captions

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"shortreel/internal/shorts"
)

// Style describes how pages are drawn on the frame.
type Style struct {
	Width      int
	Height     int
	Position   shorts.CaptionPosition
	Background shorts.RGB
	FontName   string
	// FontSize of 0 derives a size from the frame height.
	FontSize int
}

// highlight is the active-word color (yellow, in ASS BGR order).
const highlight = `{\c&H0000FFFF&}`

func (s Style) alignment() int {
	switch s.Position {
	case shorts.CaptionTop:
		return 8
	case shorts.CaptionCenter:
		return 5
	default:
		return 2
	}
}

func (s Style) fontSize() int {
	if s.FontSize > 0 {
		return s.FontSize
	}
	return max(s.Height/20, 24)
}

func assColor(c shorts.RGB) string {
	return fmt.Sprintf("&H00%02X%02X%02X", c.B, c.G, c.R)
}

func assTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	cs := ms / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", cs/360000, (cs/6000)%60, (cs/100)%60, cs%100)
}

func escape(text string) string {
	r := strings.NewReplacer(`\`, `\\`, "{", "(", "}", ")", "\n", " ")
	return r.Replace(strings.TrimSpace(text))
}

// WriteASS renders pages as an ASS subtitle script. Each page is emitted once
// per token so the word being spoken is highlighted.
func WriteASS(w io.Writer, pages []shorts.CaptionPage, style Style) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "[Script Info]\nScriptType: v4.00+\nPlayResX: %d\nPlayResY: %d\nWrapStyle: 2\nScaledBorderAndShadow: yes\n\n", style.Width, style.Height)
	fmt.Fprintln(bw, "[V4+ Styles]")
	fmt.Fprintln(bw, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding")
	bg := assColor(style.Background)
	fmt.Fprintf(bw, "Style: Default,%s,%d,&H00FFFFFF,&H00FFFFFF,%s,%s,-1,0,0,0,100,100,0,0,3,%d,0,%d,%d,%d,%d,1\n\n",
		style.FontName, style.fontSize(), bg, bg, max(style.fontSize()/6, 2), style.alignment(),
		style.Width/12, style.Width/12, style.Height/10)
	fmt.Fprintln(bw, "[Events]")
	fmt.Fprintln(bw, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")

	for _, page := range pages {
		var tokens []shorts.CaptionToken
		for _, line := range page.Lines {
			tokens = append(tokens, line.Tokens...)
		}
		for active := range tokens {
			start := tokens[active].StartMs
			if active == 0 {
				start = page.StartMs
			}
			end := page.EndMs
			if active+1 < len(tokens) {
				end = tokens[active+1].StartMs
			}
			if end <= start {
				continue
			}
			fmt.Fprintf(bw, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n", assTime(start), assTime(end), pageText(page, tokens[active]))
		}
	}
	return bw.Flush()
}

func pageText(page shorts.CaptionPage, active shorts.CaptionToken) string {
	lines := make([]string, 0, len(page.Lines))
	for _, line := range page.Lines {
		words := make([]string, 0, len(line.Tokens))
		for _, tok := range line.Tokens {
			word := escape(tok.Text)
			if word == "" {
				continue
			}
			if tok == active {
				word = highlight + word + `{\r}`
			}
			words = append(words, word)
		}
		lines = append(lines, strings.Join(words, " "))
	}
	return strings.Join(lines, `\N`)
}
