package markdown

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// SummaryLimit is the maximum summary length in runes.
const SummaryLimit = 200

// Summary returns the text of the first non-empty paragraph of rendered,
// collapsed to single spaces and cut at SummaryLimit runes on a word
// boundary.
func Summary(rendered []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(rendered))
	if err != nil {
		return ""
	}
	var text string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text = collapse(s.Text())
		return text == ""
	})
	return truncate(text, SummaryLimit)
}

// PlainText strips all markup from rendered and returns the visible text,
// skipping code blocks.
func PlainText(rendered []byte) string {
	z := html.NewTokenizer(bytes.NewReader(rendered))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapse(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if isSkipped(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isSkipped(string(name)) && skip > 0 {
				skip--
			}
			b.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// ReadingMinutes estimates the reading time of rendered at 200 words per
// minute, never less than one minute.
func ReadingMinutes(rendered []byte) int {
	words := len(strings.Fields(PlainText(rendered)))
	return max(1, (words+199)/200)
}

func isSkipped(tag string) bool {
	return tag == "pre" || tag == "script" || tag == "style"
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
