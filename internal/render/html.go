package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"

	"github.com/verte-zerg/codecheck/internal/exerciseui"
)

var ugcPolicy = bluemonday.UGCPolicy()

// The class names match the stylesheet of the exercise page.
var resultsTemplate = template.Must(template.New("results").Parse(
	`{{range .}}{{if eq .Kind "test"}}<div class="test-result {{if .Passed}}passed{{else}}failed{{end}}">
    <div class="test-description">{{.Label}}</div>
    <div class="test-message">{{.Message}}</div>
</div>
{{else if eq .Kind "summary"}}<div class="summary {{if .Passed}}success{{else}}failure{{end}}">
    {{.Message}}
</div>
{{else if eq .Kind "hint"}}<div class="hint">
    {{.Message}}
</div>
{{else if eq .Kind "loading"}}<div class="loading">{{.Message}}</div>
{{else if eq .Kind "error"}}<div class="test-result failed">
    <div class="test-message">{{.Message}}</div>
</div>
{{end}}{{end}}`))

type htmlBlock struct {
	Kind    string
	Passed  bool
	Label   template.HTML
	Message template.HTML
}

// HTML renders blocks as the results markup of the exercise page. Backend
// text may carry markup; it is sanitized rather than escaped.
func HTML(blocks []exerciseui.Block) (string, error) {
	items := make([]htmlBlock, 0, len(blocks))
	for _, b := range blocks {
		items = append(items, htmlBlock{
			Kind:    b.Kind.String(),
			Passed:  b.Passed,
			Label:   template.HTML(ugcPolicy.Sanitize(b.Label)),
			Message: template.HTML(ugcPolicy.Sanitize(b.Message)),
		})
	}
	var buf bytes.Buffer
	if err := resultsTemplate.Execute(&buf, items); err != nil {
		return "", fmt.Errorf("failed to render results: %w", err)
	}
	return buf.String(), nil
}
