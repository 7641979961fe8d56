package util

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

const (
	ContentFormatHTML     = "html"
	ContentFormatMarkdown = "markdown"
)

var (
	ugcPolicy = bluemonday.UGCPolicy()
	stripAll  = bluemonday.StrictPolicy()

	markdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
)

// RenderContent turns user supplied article content into safe HTML.
// Markdown is rendered first; the result is always sanitised.
func RenderContent(content, format string) (string, error) {
	if format == ContentFormatMarkdown {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(content), &buf); err != nil {
			return "", err
		}
		content = buf.String()
	}
	return ugcPolicy.Sanitize(content), nil
}

// PlainPreview strips all markup and cuts the text to at most n runes.
func PlainPreview(htmlContent string, n int) string {
	text := strings.Join(strings.Fields(stripAll.Sanitize(htmlContent)), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
