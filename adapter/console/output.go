// Package console renders the flash news pane on a terminal writer.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	rule      = 60
	clearSeq  = "\x1b[2J\x1b[H"
	colorHead = "#7D56F4"
	colorNews = "#FAFAFA"
	colorDim  = "#626262"
	colorErr  = "#FF0000"
)

type Options struct {
	// ClearScreen emits an ANSI clear sequence on Clear.
	ClearScreen bool
}

// Output writes pane content to w. It is safe for concurrent use and drops writes after Close.
type Output struct {
	mu     sync.Mutex
	w      io.Writer
	opts   Options
	closed bool

	titleStyle lipgloss.Style
	ruleStyle  lipgloss.Style
	newsStyle  lipgloss.Style
	infoStyle  lipgloss.Style
	errorStyle lipgloss.Style
}

func New(w io.Writer, opts Options) *Output {
	r := lipgloss.NewRenderer(w)
	return &Output{
		w:          w,
		opts:       opts,
		titleStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color(colorHead)),
		ruleStyle:  r.NewStyle().Foreground(lipgloss.Color(colorHead)),
		newsStyle:  r.NewStyle().Foreground(lipgloss.Color(colorNews)),
		infoStyle:  r.NewStyle().Foreground(lipgloss.Color(colorDim)),
		errorStyle: r.NewStyle().Foreground(lipgloss.Color(colorErr)),
	}
}

func (o *Output) Line(msg string) {
	if strings.TrimSpace(msg) == "" {
		return
	}
	style := o.infoStyle
	if strings.Contains(msg, "❌") {
		style = o.errorStyle
	}
	o.write(style.Render(msg))
}

func (o *Output) Header(title string) {
	bar := o.ruleStyle.Render(strings.Repeat("═", rule))
	o.write("", bar, o.titleStyle.Render("  "+title), bar, "")
}

func (o *Output) Separator() {
	o.write(o.ruleStyle.Render(strings.Repeat("═", rule)))
}

func (o *Output) News(entry string) {
	if strings.TrimSpace(entry) == "" {
		return
	}
	o.write(o.newsStyle.Render(entry), o.infoStyle.Render(strings.Repeat("─", rule)))
}

func (o *Output) Clear() {
	if !o.opts.ClearScreen {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.closed {
		_, _ = io.WriteString(o.w, clearSeq)
	}
}

// Show is a no-op: a terminal pane is visible as soon as it is written to.
func (o *Output) Show() {}

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *Output) write(lines ...string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	for _, l := range lines {
		fmt.Fprintln(o.w, l)
	}
}
