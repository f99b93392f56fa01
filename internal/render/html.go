package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	containerOpen = `<div style="font-family:system-ui,Segoe UI,Arial;font-size:14px;color:#0f172a">`
	footer        = `<p style="margin-top:12px;color:#64748b">Generated automatically.</p>`
	containerEnd  = `</div>`
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HTML converts a markdown report into an HTML body suitable for email.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(containerOpen)
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render HTML report: %w", err)
	}
	buf.WriteString(footer)
	buf.WriteString(containerEnd)
	return buf.String(), nil
}
