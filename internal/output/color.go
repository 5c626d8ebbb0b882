package output

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// DefaultScheme leaves output uncoloured.
const DefaultScheme = "white"

type shade struct {
	color string // ANSI colour number
	bold  bool
}

// Lines cycle through the shades of their scheme.
var schemes = map[string][]shade{
	DefaultScheme:  nil,
	"red":          {{"1", true}, {"1", false}},
	"green":        {{"2", true}, {"2", false}},
	"yellow":       {{"3", true}, {"3", false}},
	"blue":         {{"4", true}, {"4", false}},
	"purple":       {{"5", true}, {"5", false}},
	"cyan":         {{"6", true}, {"6", false}},
	"gray":         {{"7", false}, {"0", true}},
	"checker":      {{"7", true}, {"7", false}},
	"rainbow":      {{"1", true}, {"2", true}, {"3", true}, {"4", true}, {"5", true}, {"6", true}},
	"rainbow_dark": {{"1", false}, {"2", false}, {"3", false}, {"4", false}, {"5", false}, {"6", false}},
}

// Schemes returns the colour scheme names, sorted.
func Schemes() []string {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Printer writes lines to w, colouring each with the next style of its
// scheme.
type Printer struct {
	w      io.Writer
	styles []lipgloss.Style
	next   int

	// Short prints large prices and volumes rounded, like "1.2m".
	Short bool
}

// NewPrinter creates a printer for the named colour scheme. The empty name
// is the default scheme.
func NewPrinter(w io.Writer, scheme string) (*Printer, error) {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if scheme == "" {
		scheme = DefaultScheme
	}
	shades, ok := schemes[scheme]
	if !ok {
		return nil, fmt.Errorf("unknown color scheme %q (available: %s)", scheme, strings.Join(Schemes(), ", "))
	}

	r := lipgloss.NewRenderer(w)
	p := &Printer{w: w}
	for _, s := range shades {
		p.styles = append(p.styles, r.NewStyle().Foreground(lipgloss.Color(s.color)).Bold(s.bold))
	}
	return p, nil
}

func (p *Printer) style() (lipgloss.Style, bool) {
	if len(p.styles) == 0 {
		return lipgloss.Style{}, false
	}
	s := p.styles[p.next%len(p.styles)]
	p.next++
	return s, true
}

// line writes one line in the next style.
func (p *Printer) line(text string) {
	p.block([]string{text})
}

// block writes lines that share one style.
func (p *Printer) block(lines []string) {
	s, ok := p.style()
	for _, l := range lines {
		if ok {
			l = s.Render(l)
		}
		fmt.Fprintln(p.w, l)
	}
}

// plain writes an uncoloured line.
func (p *Printer) plain(text string) {
	fmt.Fprintln(p.w, text)
}
