package ingest

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/stash/internal/frame"
	"github.com/roach88/stash/internal/preview"
)

// terseLimit is how many characters of a capture the terse excerpt
// keeps.
const terseLimit = 100

// deriveUpdate recomputes the derived view data for a growing
// capture: the preview rendering, the terse excerpt, and word/char
// counts. Non-UTF-8 bytes are decoded best-effort; the decoded text
// is NFC-normalized so counts are stable across equivalent encodings
// of the same characters.
func deriveUpdate(id string, content []byte, render preview.RenderFunc) frame.ContentUpdate {
	text := norm.NFC.String(strings.ToValidUTF8(string(content), "�"))

	return frame.ContentUpdate{
		ID:          id,
		MimeType:    "text/plain",
		ContentType: "Text",
		Terse:       terse(text),
		Words:       len(strings.Fields(text)),
		Chars:       utf8.RuneCountInString(text),
		Preview:     render(content, "text/plain", "Text"),
	}
}

// terse returns the first terseLimit characters of text.
func terse(text string) string {
	if utf8.RuneCountInString(text) <= terseLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:terseLimit])
}
