// Released under an MIT license. See LICENSE.

package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/michaelmacinnis/cellar/internal/type/event"
)

// Renderer writes what a session produces to a terminal. Colors are only
// used when w is a terminal that supports them.
type Renderer struct {
	prose  *glamour.TermRenderer
	styles styles
	w      io.Writer
}

// NewRenderer creates a Renderer writing to w, wrapping prose at width.
func NewRenderer(w io.Writer, width int) *Renderer {
	prose, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)

	return &Renderer{
		prose:  prose,
		styles: newStyles(lipgloss.NewRenderer(w)),
		w:      w,
	}
}

// Echo implements console.Renderer.
func (r *Renderer) Echo(prompt, source string) {
	r.printf("%s%s\n", r.styles.prompt.Render(prompt), source)
}

// Prose implements console.Renderer.
func (r *Renderer) Prose(markdown string) {
	if r.prose != nil {
		if s, err := r.prose.Render(markdown); err == nil {
			r.printf("%s", s)

			return
		}
	}

	r.printf("%s\n\n", strings.TrimSpace(markdown))
}

// Output implements console.Renderer.
func (r *Renderer) Output(fd int, text string) {
	style := r.styles.stdout
	if fd == 2 {
		style = r.styles.stderr
	}

	r.printf("%s", paint(style, text))
}

// Result implements console.Renderer.
func (r *Renderer) Result(typ, text string) {
	r.printf("%s%s\n", r.styles.resultType.Render(typ+": "), text)
}

// Error implements console.Renderer.
func (r *Renderer) Error(message string) {
	r.printf("%s%s\n", r.styles.err.Render("Error: "), message)
}

// Diagnostic implements console.Renderer.
func (r *Renderer) Diagnostic(d event.Diagnostic) {
	switch d.Severity {
	case event.Warning:
		r.printf("%s", r.styles.diagnosticWarning.Render("warning ("+d.ID+"): "))
	case event.Error:
		r.printf("%s", r.styles.diagnosticError.Render("error ("+d.ID+"): "))
	default:
		return
	}

	r.printf("(%d,%d): %s\n", d.Line, d.Column, d.Message)
}

// Session implements console.Renderer.
func (r *Renderer) Session(kind event.Kind) {
	r.printf("%s\n", r.styles.session.Render(string(kind)))
}

// paint styles text a line at a time. Rendered as a block, shorter lines
// would be padded to the width of the longest.
func paint(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}

	return strings.Join(lines, "\n")
}

func (r *Renderer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}
