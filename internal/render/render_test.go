package render

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/frontmatter"
	"git.home.luguber.info/inful/postforge/internal/graph"
)

var day0 = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

func newRenderer(t *testing.T, templateDir string) *HTMLRenderer {
	t.Helper()
	r, err := New(Options{
		Site:             config.SiteConfig{Title: "Field Notes", URL: "https://example.org/", Language: "en"},
		TemplateDir:      templateDir,
		PaginationWindow: 5,
		HighlightStyle:   "github",
		Categories: content.Categories{
			"dev":     {Slug: "dev", Name: "Development", Index: 1},
			"private": {Slug: "private", Name: "Private", Index: 2, Hidden: true},
		},
	})
	require.NoError(t, err)
	return r
}

func entry(id string, day int, tags ...string) content.Entry {
	e := content.NewEntry(id, frontmatter.Metadata{
		Title: "Post " + id,
		Date:  day0.AddDate(0, 0, day),
		Tags:  tags,
	})
	e.Summary = "summary of " + id
	return e
}

func TestRenderUnit(t *testing.T) {
	r := newRenderer(t, "")
	e := entry("dev/hello.md", 0, "go")

	out, err := r.RenderUnit(context.Background(), e, []byte("First paragraph here.\n\nSecond one.\n"))
	require.NoError(t, err)

	assert.Equal(t, "dev/hello/index.html", out.Artifact.Path)
	assert.Equal(t, "First paragraph here.", out.Summary)
	assert.False(t, out.Artifact.Fingerprint.IsZero())

	body := string(out.Artifact.Body)
	assert.Contains(t, body, "<title>Post dev/hello.md | Field Notes</title>")
	assert.Contains(t, body, "<p>First paragraph here.</p>")
	assert.Contains(t, body, `<a href="/dev/">Development</a>`)
	assert.Contains(t, body, `<a href="/tag/go/">#go</a>`)
	assert.Contains(t, body, "1 min read")
}

func TestRenderUnit_DescriptionWinsOverBody(t *testing.T) {
	r := newRenderer(t, "")
	e := entry("dev/hello.md", 0)
	e.Meta.Description = "Hand written"

	out, err := r.RenderUnit(context.Background(), e, []byte("Body text."))
	require.NoError(t, err)
	assert.Equal(t, "Hand written", out.Summary)
	assert.Contains(t, string(out.Artifact.Body), `<meta name="description" content="Hand written">`)
}

func TestRenderUnit_Deterministic(t *testing.T) {
	r := newRenderer(t, "")
	e := entry("dev/hello.md", 0, "go")
	body := []byte("```go\nfunc main() {}\n```\n")

	a, err := r.RenderUnit(context.Background(), e, body)
	require.NoError(t, err)
	b, err := r.RenderUnit(context.Background(), e, body)
	require.NoError(t, err)
	assert.Equal(t, a.Artifact.Body, b.Artifact.Body)
	assert.Equal(t, a.Artifact.Fingerprint, b.Artifact.Fingerprint)
}

func TestRenderUnit_CancelledContext(t *testing.T) {
	r := newRenderer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RenderUnit(ctx, entry("dev/a.md", 0), []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_TemplateOverlay(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post.html"), []byte(`CUSTOM {{.Post.Title}} {{template "byline" .}}`), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "partials"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "partials", "byline.html"), []byte(`{{define "byline"}}by {{.Site.Title}}{{end}}`), 0o600))

	r := newRenderer(t, dir)
	out, err := r.RenderUnit(context.Background(), entry("dev/a.md", 0), []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "CUSTOM Post dev/a.md by Field Notes", string(out.Artifact.Body))
}

func TestNew_InvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "post.html"), []byte(`{{.Broken`), 0o600))

	_, err := New(Options{TemplateDir: dir})
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryRender, ce.Category())
	assert.True(t, errors.IsFatal(err))
}

func TestRenderAggregate_CategoryPagination(t *testing.T) {
	r := newRenderer(t, "")
	entries := []content.Entry{entry("dev/a.md", 0), entry("dev/b.md", 1), entry("dev/c.md", 2)}
	m := graph.Build(entries, graph.Options{PerPage: 2})
	idx := NewIndex(graph.Published(entries, graph.Options{}))

	page1, err := r.RenderAggregate(context.Background(), m[graph.Key{Kind: graph.KindCategory, Name: "dev", Page: 1}], idx)
	require.NoError(t, err)
	assert.Equal(t, "dev/index.html", page1.Path)
	body := string(page1.Body)
	assert.Contains(t, body, "<h1>Development</h1>")
	assert.Contains(t, body, "<p>3 posts</p>")
	assert.Contains(t, body, `href="/dev/page/2/"`)
	assert.Contains(t, body, "Post dev/c.md")
	assert.NotContains(t, body, "Post dev/a.md")

	page2, err := r.RenderAggregate(context.Background(), m[graph.Key{Kind: graph.KindCategory, Name: "dev", Page: 2}], idx)
	require.NoError(t, err)
	assert.Equal(t, "dev/page/2/index.html", page2.Path)
	assert.Contains(t, string(page2.Body), "Post dev/a.md")
}

func TestRenderAggregate_HiddenCategoryLeftOutOfNav(t *testing.T) {
	r := newRenderer(t, "")
	entries := []content.Entry{entry("dev/a.md", 0), entry("private/b.md", 1)}
	m := graph.Build(entries, graph.Options{})
	idx := NewIndex(graph.Published(entries, graph.Options{}))

	home, err := r.RenderAggregate(context.Background(), m[graph.Key{Kind: graph.KindHome}], idx)
	require.NoError(t, err)
	assert.Contains(t, string(home.Body), `<a href="/dev/">Development</a>`)
	assert.NotContains(t, string(home.Body), `<a href="/private/">`)

	cats, err := r.RenderAggregate(context.Background(), m[graph.Key{Kind: graph.KindCategoriesIndex}], idx)
	require.NoError(t, err)
	assert.Contains(t, string(cats.Body), "Development</a> (1)")
	assert.NotContains(t, string(cats.Body), "Private")
}

func TestRenderAggregate_TagsIndex(t *testing.T) {
	r := newRenderer(t, "")
	entries := []content.Entry{entry("dev/a.md", 0, "go", "cli"), entry("dev/b.md", 1, "go")}
	m := graph.Build(entries, graph.Options{})
	idx := NewIndex(graph.Published(entries, graph.Options{}))

	art, err := r.RenderAggregate(context.Background(), m[graph.Key{Kind: graph.KindTagsIndex}], idx)
	require.NoError(t, err)
	body := string(art.Body)
	assert.Contains(t, body, `<a href="/tag/go/">go</a> (2)`)
	assert.Contains(t, body, `<a href="/tag/cli/">cli</a> (1)`)
	assert.Less(t, strings.Index(body, ">cli<"), strings.Index(body, ">go<"))
}

func TestRenderAggregate_Feed(t *testing.T) {
	r := newRenderer(t, "")
	entries := []content.Entry{entry("dev/a.md", 0, "go"), entry("dev/b.md", 4)}
	m := graph.Build(entries, graph.Options{})
	idx := NewIndex(graph.Published(entries, graph.Options{}))

	art, err := r.RenderAggregate(context.Background(), m[graph.Key{Kind: graph.KindFeed}], idx)
	require.NoError(t, err)
	assert.Equal(t, "feed.xml", art.Path)

	var doc struct {
		Version string `xml:"version,attr"`
		Channel struct {
			Title         string `xml:"title"`
			Language      string `xml:"language"`
			LastBuildDate string `xml:"lastBuildDate"`
			Items         []struct {
				Link        string `xml:"link"`
				GUID        string `xml:"guid"`
				PubDate     string `xml:"pubDate"`
				Description string `xml:"description"`
				Category    string `xml:"category"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	require.NoError(t, xml.Unmarshal(art.Body, &doc))
	assert.Equal(t, "2.0", doc.Version)
	assert.Equal(t, "Field Notes", doc.Channel.Title)
	assert.Equal(t, "en", doc.Channel.Language)
	assert.Equal(t, day0.AddDate(0, 0, 4).Format(time.RFC1123Z), doc.Channel.LastBuildDate)
	require.Len(t, doc.Channel.Items, 2)
	assert.Equal(t, "https://example.org/dev/b/", doc.Channel.Items[0].Link)
	assert.Equal(t, "https://example.org/dev/b/", doc.Channel.Items[0].GUID)
	assert.Equal(t, day0.AddDate(0, 0, 4).Format(time.RFC1123Z), doc.Channel.Items[0].PubDate)
	assert.Equal(t, "summary of dev/b.md", doc.Channel.Items[0].Description)
	assert.Equal(t, "Development", doc.Channel.Items[1].Category)

	again, err := r.RenderAggregate(context.Background(), m[graph.Key{Kind: graph.KindFeed}], idx)
	require.NoError(t, err)
	assert.Equal(t, art.Body, again.Body)
}

func TestRenderAggregate_SearchIndex(t *testing.T) {
	r := newRenderer(t, "")
	entries := []content.Entry{entry("dev/a.md", 0, "go")}
	m := graph.Build(entries, graph.Options{SearchIndex: true})
	idx := NewIndex(graph.Published(entries, graph.Options{}))

	art, err := r.RenderAggregate(context.Background(), m[graph.Key{Kind: graph.KindSearch}], idx)
	require.NoError(t, err)
	assert.Equal(t, "search-index.json", art.Path)

	var doc SearchIndex
	require.NoError(t, json.Unmarshal(art.Body, &doc))
	assert.Equal(t, SearchIndexVersion, doc.Version)
	require.Len(t, doc.Posts, 1)
	assert.Equal(t, SearchEntry{
		Title:       "Post dev/a.md",
		Description: "summary of dev/a.md",
		URL:         "/dev/a/",
		Category:    "dev",
		Tags:        []string{"go"},
		Date:        "2025-03-01",
	}, doc.Posts[0])
}

func TestRenderAggregate_UnknownMember(t *testing.T) {
	r := newRenderer(t, "")
	agg := graph.Aggregate{Key: graph.Key{Kind: graph.KindHome}, Members: []string{"dev/ghost.md"}}

	_, err := r.RenderAggregate(context.Background(), agg, NewIndex(nil))
	require.Error(t, err)
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, errors.CategoryRender, ce.Category())
	assert.Equal(t, "home", ce.Context()["aggregate"])
}

func TestStyleSheet(t *testing.T) {
	r := newRenderer(t, "")
	art, err := r.StyleSheet()
	require.NoError(t, err)
	assert.Equal(t, StyleSheetPath, art.Path)
	assert.Contains(t, string(art.Body), ".chroma")
}

func TestNewPagination(t *testing.T) {
	k := graph.Key{Kind: graph.KindCategory, Name: "dev"}
	numbers := func(p *Pagination) []int {
		var out []int
		for _, l := range p.Pages {
			out = append(out, l.Number)
		}
		return out
	}

	assert.Nil(t, NewPagination(k, 1, 1, 5))

	p := NewPagination(k, 1, 3, 5)
	assert.Equal(t, []int{1, 2, 3}, numbers(p))
	assert.Empty(t, p.PrevURL)
	assert.Equal(t, "/dev/page/2/", p.NextURL)

	p = NewPagination(k, 6, 12, 5)
	assert.Equal(t, []int{4, 5, 6, 7, 8}, numbers(p))
	assert.Equal(t, "/dev/page/3/", p.JumpPrevURL)
	assert.Equal(t, "/dev/page/9/", p.JumpNextURL)
	assert.Equal(t, "/dev/", p.FirstURL)
	assert.Equal(t, "/dev/page/12/", p.LastURL)

	p = NewPagination(k, 12, 12, 5)
	assert.Equal(t, []int{8, 9, 10, 11, 12}, numbers(p))
	assert.Empty(t, p.NextURL)
	assert.Empty(t, p.JumpNextURL)
}
