package markdown

import (
	"bytes"
	"html"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeRenderer replaces goldmark's fenced code block output with chroma
// tokens styled by CSS classes.
type codeRenderer struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

func newCodeRenderer(styleName string) *codeRenderer {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &codeRenderer{
		style:     style,
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.TabWidth(4)),
	}
}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		code.Write(line.Value(source))
	}

	language := string(n.Language(source))
	lexer := lexers.Get(language)
	if lexer == nil {
		writePlain(w, language, code.String())
		return ast.WalkSkipChildren, nil
	}
	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code.String())
	if err != nil {
		writePlain(w, language, code.String())
		return ast.WalkSkipChildren, nil
	}
	if err := r.formatter.Format(w, r.style, iterator); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}

func writePlain(w util.BufWriter, language, code string) {
	_, _ = w.WriteString("<pre><code")
	if language != "" {
		_, _ = w.WriteString(` class="language-` + html.EscapeString(language) + `"`)
	}
	_, _ = w.WriteString(">")
	_, _ = w.WriteString(html.EscapeString(code))
	_, _ = w.WriteString("</code></pre>\n")
}

func (r *codeRenderer) styleSheet() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.formatter.WriteCSS(&buf, r.style); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
