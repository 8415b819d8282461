// Package render formats resolution output for the terminal.
//
// Renderers produce true-color ANSI text; NewWriter downsamples it to what
// the destination supports, so piped output is plain.
package render

import (
	"io"
	"os"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
)

// Catppuccin Mocha palette
var (
	colorPrimary  = lipgloss.Color("#cba6f7") // Mauve
	colorText     = lipgloss.Color("#cdd6f4")
	colorSubtext  = lipgloss.Color("#a6adc8")
	colorOverlay  = lipgloss.Color("#6c7086")
	colorSuccess  = lipgloss.Color("#a6e3a1") // Green
	colorWarning  = lipgloss.Color("#f9e2af") // Yellow
	colorError    = lipgloss.Color("#f38ba8") // Red
	colorTeal     = lipgloss.Color("#94e2d5")
)

var (
	styleTitle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleLabel   = lipgloss.NewStyle().Foreground(colorSubtext)
	styleValue   = lipgloss.NewStyle().Foreground(colorText)
	styleMuted   = lipgloss.NewStyle().Foreground(colorOverlay)
	styleOK      = lipgloss.NewStyle().Foreground(colorSuccess)
	styleWarn    = lipgloss.NewStyle().Foreground(colorWarning)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleRef     = lipgloss.NewStyle().Foreground(colorTeal)
	styleHunk    = lipgloss.NewStyle().Foreground(colorPrimary)
	styleInsert  = lipgloss.NewStyle().Foreground(colorSuccess)
	styleDelete  = lipgloss.NewStyle().Foreground(colorError)
	styleBranch  = lipgloss.NewStyle().Foreground(colorOverlay).MarginRight(1)
	styleErrHint = lipgloss.NewStyle().Foreground(colorWarning).Italic(true)
)

// NewWriter wraps w so that colors are downsampled to the terminal's
// profile, detected from the process environment.
func NewWriter(w io.Writer) *colorprofile.Writer {
	return colorprofile.NewWriter(w, os.Environ())
}

// NewWriterProfile wraps w with a fixed color profile.
func NewWriterProfile(w io.Writer, p colorprofile.Profile) *colorprofile.Writer {
	return &colorprofile.Writer{Forward: w, Profile: p}
}
