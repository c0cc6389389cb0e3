package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

var chromaStyles = map[string]string{
	"monokai": "monokai",
	"plain":   "bw",
}

// Highlight returns code with terminal syntax highlighting for the given
// language mode and theme. On failure the code is returned unchanged.
func Highlight(code, mode, theme string) string {
	if strings.TrimSpace(code) == "" {
		return code
	}
	style, ok := chromaStyles[theme]
	if !ok {
		style = chromaStyles[DefaultTheme]
	}
	var b strings.Builder
	if err := quick.Highlight(&b, code, mode, "terminal256", style); err != nil {
		return code
	}
	return strings.TrimRight(b.String(), "\n")
}
