// Package preview turns blob bytes into a short human-readable
// rendering. Callers treat rendering as a black box: bytes plus
// mime/content type in, a small string out. Components take a
// RenderFunc so the renderer can be swapped without touching them.
package preview

import (
	"fmt"
	"html"
	"strings"
)

// RenderFunc is the rendering collaborator's shape.
type RenderFunc func(data []byte, mimeType, contentType string) string

// maxLines caps how much of a text blob a preview shows.
const maxLines = 5

// Render is the default renderer.
//
// Text content becomes an HTML <pre> block, escaped, truncated to a
// handful of lines. Non-UTF-8 text is decoded best-effort rather than
// rejected. Anything non-text renders as a one-line placeholder
// naming the mime type and size.
func Render(data []byte, mimeType, contentType string) string {
	if !strings.HasPrefix(mimeType, "text/") {
		return fmt.Sprintf("&lt;%s&gt; %d bytes", mimeType, len(data))
	}

	text := strings.ToValidUTF8(string(data), "�")
	lines := strings.Split(text, "\n")
	truncated := false
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		truncated = true
	}

	var sb strings.Builder
	sb.WriteString("<pre>")
	sb.WriteString(html.EscapeString(strings.Join(lines, "\n")))
	if truncated {
		sb.WriteString("\n&#8230;")
	}
	sb.WriteString("</pre>")
	return sb.String()
}
