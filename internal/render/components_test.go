package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeComponent(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, componentDir), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, componentDir, name), []byte(body), 0o600))
}

func TestRenderUnit_ResolvesRelativeReferences(t *testing.T) {
	r := newRenderer(t, "")

	out, err := r.RenderUnit(context.Background(), entry("dev/hello.md", 0), []byte("![chart](chart.png)\n\n[notes](../notes.pdf)\n"))
	require.NoError(t, err)

	body := string(out.Artifact.Body)
	assert.Contains(t, body, `<img src="/dev/chart.png" alt="chart">`)
	assert.Contains(t, body, `<a href="/notes.pdf">notes</a>`)
}

func TestRenderUnit_ExpandsComponents(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "figure-img.html", `<figure><img src="{{.src}}"><figcaption>{{.content}}</figcaption></figure>`)
	writeComponent(t, dir, "note.html", `<aside class="note {{.kind}}">{{.content}}</aside>`)
	r := newRenderer(t, dir)

	body := "<figure-img src=\"chart.png\">A <em>chart</em></figure-img>\n\n" +
		"<note kind=\"warn\"><note kind=\"inner\">nested</note></note>\n"
	out, err := r.RenderUnit(context.Background(), entry("dev/hello.md", 0), []byte(body))
	require.NoError(t, err)

	html := string(out.Artifact.Body)
	assert.Contains(t, html, `<figure><img src="/dev/chart.png"/><figcaption>A <em>chart</em></figcaption></figure>`)
	assert.Contains(t, html, `<aside class="note warn"><aside class="note inner">nested</aside></aside>`)
	assert.NotContains(t, html, "<figure-img")
	assert.NotContains(t, html, "<note")
}

func TestRenderUnit_NoComponentsLeavesBodyAlone(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "note.html", `<aside>{{.content}}</aside>`)
	plain := newRenderer(t, "")
	withComponents := newRenderer(t, dir)
	body := []byte("Just *text* & more.\n")

	a, err := plain.RenderUnit(context.Background(), entry("dev/a.md", 0), body)
	require.NoError(t, err)
	b, err := withComponents.RenderUnit(context.Background(), entry("dev/a.md", 0), body)
	require.NoError(t, err)
	assert.Equal(t, a.Artifact.Body, b.Artifact.Body)
}

func TestNew_InvalidComponentName(t *testing.T) {
	dir := t.TempDir()
	writeComponent(t, dir, "Bad_Name.html", `x`)

	_, err := New(Options{TemplateDir: dir})
	require.Error(t, err)
}

func TestResolveAttr_Srcset(t *testing.T) {
	assert.Equal(t, "/dev/a.png 1x, /dev/b.png 2x", resolveAttr("srcset", "a.png 1x, b.png 2x", "/dev/"))
	assert.Equal(t, "https://x.org/a.png", resolveAttr("src", "https://x.org/a.png", "/dev/"))
}
