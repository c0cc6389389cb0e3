// Package render turns result blocks into terminal or HTML output.
package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"github.com/verte-zerg/codecheck/internal/exerciseui"
)

// Palette holds the colors of a theme.
type Palette struct {
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Pass    lipgloss.Color
	Fail    lipgloss.Color
	Accent  lipgloss.Color
	Border  lipgloss.Color
	Heading lipgloss.Color
}

var palettes = map[string]Palette{
	"monokai": {
		Text:    lipgloss.Color("#F8F8F2"),
		Muted:   lipgloss.Color("#75715E"),
		Pass:    lipgloss.Color("#A6E22E"),
		Fail:    lipgloss.Color("#F92672"),
		Accent:  lipgloss.Color("#E6DB74"),
		Border:  lipgloss.Color("#49483E"),
		Heading: lipgloss.Color("#66D9EF"),
	},
	"plain": {
		Text:    lipgloss.Color("#F0F0F0"),
		Muted:   lipgloss.Color("#8C8C8C"),
		Pass:    lipgloss.Color("#52C41A"),
		Fail:    lipgloss.Color("#FF4D4F"),
		Accent:  lipgloss.Color("#C89A3A"),
		Border:  lipgloss.Color("#4A4A4A"),
		Heading: lipgloss.Color("#F0F0F0"),
	},
}

// DefaultTheme is used for unknown theme names.
const DefaultTheme = "monokai"

// Themes lists the available theme names.
func Themes() []string {
	return []string{"monokai", "plain"}
}

// PaletteFor returns the palette of theme, falling back to the default.
func PaletteFor(theme string) Palette {
	if p, ok := palettes[theme]; ok {
		return p
	}
	return palettes[DefaultTheme]
}

// Terminal renders blocks with lipgloss.
type Terminal struct {
	palette Palette

	passStyle    lipgloss.Style
	failStyle    lipgloss.Style
	labelStyle   lipgloss.Style
	messageStyle lipgloss.Style
	successStyle lipgloss.Style
	failureStyle lipgloss.Style
	hintStyle    lipgloss.Style
	loadingStyle lipgloss.Style
	errorStyle   lipgloss.Style
}

// NewTerminal returns a renderer for theme.
func NewTerminal(theme string) *Terminal {
	p := PaletteFor(theme)
	box := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, false, true)
	return &Terminal{
		palette:      p,
		passStyle:    box.BorderForeground(p.Pass),
		failStyle:    box.BorderForeground(p.Fail),
		labelStyle:   lipgloss.NewStyle().Foreground(p.Text).Bold(true),
		messageStyle: lipgloss.NewStyle().Foreground(p.Muted),
		successStyle: lipgloss.NewStyle().Foreground(p.Pass).Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(p.Pass),
		failureStyle: lipgloss.NewStyle().Foreground(p.Fail).Bold(true).Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(p.Fail),
		hintStyle:    lipgloss.NewStyle().Foreground(p.Accent).Italic(true).Padding(0, 1).MarginTop(1),
		loadingStyle: lipgloss.NewStyle().Foreground(p.Muted),
		errorStyle:   box.BorderForeground(p.Fail).Foreground(p.Fail),
	}
}

// Palette returns the renderer's colors.
func (t *Terminal) Palette() Palette {
	return t.palette
}

// Blocks renders blocks top to bottom. A width <= 0 disables wrapping.
func (t *Terminal) Blocks(blocks []exerciseui.Block, width int) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, t.Block(b, width))
	}
	return strings.Join(parts, "\n")
}

// Block renders a single block.
func (t *Terminal) Block(b exerciseui.Block, width int) string {
	msg := Text(b.Message)
	switch b.Kind {
	case exerciseui.BlockTest:
		style := t.failStyle
		if b.Passed {
			style = t.passStyle
		}
		body := t.labelStyle.Render(Text(b.Label)) + "\n" + t.messageStyle.Render(msg)
		return withWidth(style, width).Render(body)
	case exerciseui.BlockSummary:
		style := t.failureStyle
		if b.Passed {
			style = t.successStyle
		}
		return withWidth(style, width).Render(msg)
	case exerciseui.BlockHint:
		return withWidth(t.hintStyle, width).Render("💡 " + msg)
	case exerciseui.BlockLoading:
		return withWidth(t.loadingStyle, width).Render(msg)
	case exerciseui.BlockError:
		return withWidth(t.errorStyle, width).Render(msg)
	default:
		return msg
	}
}

// Loading renders the loading block with a spinner frame in front.
func (t *Terminal) Loading(frame string, b exerciseui.Block, width int) string {
	return withWidth(t.loadingStyle, width).Render(strings.TrimSpace(frame + " " + Text(b.Message)))
}

func withWidth(style lipgloss.Style, width int) lipgloss.Style {
	if width <= 0 {
		return style
	}
	// Width covers padding but not borders or margins.
	w := width - style.GetHorizontalBorderSize() - style.GetHorizontalMargins()
	if w < 1 {
		w = 1
	}
	return style.Width(w)
}

var (
	stripPolicy = bluemonday.StrictPolicy()
	// CSI and OSC sequences plus remaining C0 controls except tab and newline.
	controlSeq = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07\x1b]*(\x07|\x1b\\)|[\x00-\x08\x0b-\x1f\x7f]`)
)

// Text prepares backend-provided text for a terminal: markup is stripped,
// entities are decoded and control sequences are removed.
func Text(s string) string {
	if s == "" {
		return s
	}
	if strings.ContainsAny(s, "<&") {
		s = html.UnescapeString(stripPolicy.Sanitize(s))
	}
	return Plain(s)
}

// Plain prepares text that is shown as-is, such as exercise fields and code:
// only control sequences are removed.
func Plain(s string) string {
	if s == "" {
		return s
	}
	return controlSeq.ReplaceAllString(s, "")
}
