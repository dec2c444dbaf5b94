// Package markdown converts post bodies to HTML and extracts the plain text
// summaries shown in listings, feeds and the search index.
package markdown

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Options configure a Converter.
type Options struct {
	// HighlightStyle names the chroma style used for the generated stylesheet.
	HighlightStyle string
}

// Converter renders Markdown to HTML. It is safe for concurrent use.
type Converter struct {
	md        goldmark.Markdown
	highlight *codeRenderer

	cssOnce sync.Once
	css     []byte
	cssErr  error
}

// New returns a Converter with GFM extensions, automatic heading IDs and
// class-based code highlighting.
func New(opts Options) *Converter {
	hl := newCodeRenderer(opts.HighlightStyle)
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(linkResolver{}, 100)),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(hl, 200)),
		),
	)
	return &Converter{md: md, highlight: hl}
}

// Convert renders body to HTML. Relative link and image destinations are
// resolved against base when it is not empty.
func (c *Converter) Convert(body []byte, base string) ([]byte, error) {
	pc := parser.NewContext()
	pc.Set(baseKey, base)

	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// StyleSheet returns the CSS for highlighted code blocks.
func (c *Converter) StyleSheet() ([]byte, error) {
	c.cssOnce.Do(func() {
		c.css, c.cssErr = c.highlight.styleSheet()
	})
	return c.css, c.cssErr
}
