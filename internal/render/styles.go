package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Terminal palette. These map onto the basic 16 ANSI colors so they survive
// any color profile.
var (
	ColorAlert = lipgloss.Color("1") // red
	ColorMuted = lipgloss.Color("8") // bright black / gray
)

// Styles holds the lipgloss styles for each kind of output line.
type Styles struct {
	Mention    lipgloss.Style
	System     lipgloss.Style
	Disconnect lipgloss.Style
	Error      lipgloss.Style
}

// DefaultStyles builds the client's styles on r.
func DefaultStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Mention:    r.NewStyle().Foreground(ColorAlert).Bold(true),
		System:     r.NewStyle().Foreground(ColorMuted),
		Disconnect: r.NewStyle().Foreground(ColorAlert),
		Error:      r.NewStyle().Foreground(ColorAlert),
	}
}

// PlainStyles renders everything without escape sequences.
func PlainStyles() Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return DefaultStyles(r)
}

// ANSIStyles forces the basic 16-color profile regardless of the sink.
func ANSIStyles() Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.ANSI)
	return DefaultStyles(r)
}
