// Released under an MIT license. See LICENSE.

package ui

import "github.com/charmbracelet/lipgloss"

// Console colors, from the 16 color ANSI palette.
var (
	ColorDiagnosticError   = lipgloss.Color("9")
	ColorDiagnosticWarning = lipgloss.Color("3")
	ColorError             = lipgloss.Color("9")
	ColorPrompt            = lipgloss.Color("3")
	ColorResultType        = lipgloss.Color("5")
	ColorSession           = lipgloss.Color("6")
	ColorStderr            = lipgloss.Color("1")
	ColorStdout            = lipgloss.Color("8")
)

type styles struct {
	diagnosticError   lipgloss.Style
	diagnosticWarning lipgloss.Style
	err               lipgloss.Style
	prompt            lipgloss.Style
	resultType        lipgloss.Style
	session           lipgloss.Style
	stderr            lipgloss.Style
	stdout            lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	fg := func(c lipgloss.Color) lipgloss.Style {
		return r.NewStyle().Foreground(c).TabWidth(lipgloss.NoTabConversion)
	}

	return styles{
		diagnosticError:   fg(ColorDiagnosticError),
		diagnosticWarning: fg(ColorDiagnosticWarning),
		err:               fg(ColorError),
		prompt:            fg(ColorPrompt),
		resultType:        fg(ColorResultType),
		session:           fg(ColorSession),
		stderr:            fg(ColorStderr),
		stdout:            fg(ColorStdout),
	}
}
