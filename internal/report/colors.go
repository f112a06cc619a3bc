package report

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used by the text table.
type ColorScheme struct {
	Border   *color.Color
	Title    *color.Color
	Header   *color.Color
	Label    *color.Color
	Value    *color.Color
	Degraded *color.Color
}

// DefaultColorScheme returns the default color scheme.
func DefaultColorScheme() *ColorScheme {
	scheme := &ColorScheme{
		Border:   color.New(color.FgCyan),
		Title:    color.New(color.FgMagenta, color.Bold),
		Header:   color.New(color.FgBlue, color.Bold),
		Label:    color.New(color.FgGreen),
		Value:    color.New(color.FgWhite),
		Degraded: color.New(color.FgYellow),
	}
	for _, c := range scheme.all() {
		c.EnableColor()
	}
	return scheme
}

// NoColorScheme returns a color scheme with all colors disabled.
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range scheme.all() {
		c.DisableColor()
	}
	return scheme
}

func (s *ColorScheme) all() []*color.Color {
	return []*color.Color{s.Border, s.Title, s.Header, s.Label, s.Value, s.Degraded}
}

// IsTerminal reports whether w is a terminal that can render colors.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
