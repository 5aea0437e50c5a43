package loader

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeText strips all markup from display text. Definitions come from
// files an operator may not fully control, and the fields end up in terminal
// and HTML output alike.
func sanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(textPolicy.Sanitize(trimmed))
}

func sanitizeDocument(doc *Document) {
	doc.Title = sanitizeText(doc.Title)
	doc.Description = sanitizeText(doc.Description)
	for i := range doc.Steps {
		step := &doc.Steps[i]
		step.Title = sanitizeText(step.Title)
		step.Description = sanitizeText(step.Description)
		for j := range step.Controls {
			control := &step.Controls[j]
			control.Label = sanitizeText(control.Label)
			control.Description = sanitizeText(control.Description)
			control.Help = sanitizeText(control.Help)
		}
	}
}
