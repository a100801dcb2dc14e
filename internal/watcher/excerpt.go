package watcher

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxExcerptRunes = 280

// excerpt renders post content (HTML or plain text) as a single line of text
// capped at maxExcerptRunes.
func excerpt(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}
	doc.Find("script, style").Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")
	runes := []rune(text)
	if len(runes) <= maxExcerptRunes {
		return text, nil
	}
	return strings.TrimSpace(string(runes[:maxExcerptRunes-1])) + "…", nil
}
