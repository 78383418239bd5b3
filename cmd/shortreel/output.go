package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type checkLevel int

const (
	levelInfo checkLevel = iota
	levelOK
	levelWarn
	levelError
)

const checkLabelWidth = 20

var levelStyles = map[checkLevel]struct {
	tag    string
	colors text.Colors
}{
	levelInfo:  {"INFO", text.Colors{text.FgBlue}},
	levelOK:    {"OK", text.Colors{text.FgGreen}},
	levelWarn:  {"WARN", text.Colors{text.FgYellow}},
	levelError: {"ERROR", text.Colors{text.FgRed}},
}

// printer writes human output, adding color only on terminals.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) printer {
	return printer{w: w, color: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p printer) paint(s string, colors text.Colors) string {
	if !p.color {
		return s
	}
	return colors.Sprint(s)
}

func (p printer) section(title string) {
	heading := "== " + strings.TrimSpace(title) + " =="
	fmt.Fprintln(p.w, p.paint(heading, text.Colors{text.FgBlue, text.Bold}))
	fmt.Fprintln(p.w, p.paint(strings.Repeat("-", len(heading)), text.Colors{text.FgBlue}))
}

func (p printer) check(label string, level checkLevel, detail string) {
	fmt.Fprintln(p.w, p.checkLine(label, level, detail))
}

func (p printer) checkLine(label string, level checkLevel, detail string) string {
	style := levelStyles[level]
	tag := "[" + style.tag + "]"
	if detail != "" {
		tag += " " + detail
	}
	return p.paint(fmt.Sprintf("  %-*s %s", checkLabelWidth, label+":", tag), style.colors)
}

// table renders rows under headers. Column indexes listed in right are
// right-aligned.
func (p printer) table(headers []string, rows [][]string, right ...int) {
	if len(headers) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(right))
	for _, idx := range right {
		configs = append(configs, table.ColumnConfig{Number: idx + 1, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	fmt.Fprintln(p.w, tw.Render())
}

func (p printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusColors(status string) text.Colors {
	switch status {
	case "ready":
		return text.Colors{text.FgGreen}
	case "failed":
		return text.Colors{text.FgRed}
	default:
		return text.Colors{text.FgYellow}
	}
}
