// Package render turns entries and aggregates into output artifacts using
// html/template layouts, RSS feeds and a JSON search index.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/fingerprint"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/graph"
	"git.home.luguber.info/inful/postforge/internal/markdown"
)

// Version identifies the renderer's output format. Bump it whenever
// rendered bytes change for identical inputs so stored outputs are rebuilt.
const Version = "postforge-html/2"

// StyleSheetPath is the output path of the code highlighting stylesheet.
const StyleSheetPath = "css/syntax.css"

//go:embed templates/*.html
var defaultTemplates embed.FS

// Layout names looked up in the template set.
const (
	layoutPost       = "post.html"
	layoutHome       = "index.html"
	layoutList       = "list.html"
	layoutTags       = "tags.html"
	layoutCategories = "categories.html"
)

// Artifact is one rendered output file.
type Artifact struct {
	// Path is slash separated and relative to the output root.
	Path        string
	Body        []byte
	Fingerprint fingerprint.Fingerprint
}

func newArtifact(path string, body []byte) Artifact {
	return Artifact{Path: path, Body: body, Fingerprint: fingerprint.Sum(body)}
}

// UnitOutput is the result of rendering one post.
type UnitOutput struct {
	Artifact Artifact
	// Summary is the description shown in listings and feeds.
	Summary string
}

// Options configure an HTMLRenderer.
type Options struct {
	Site             config.SiteConfig
	TemplateDir      string
	PaginationWindow int
	HighlightStyle   string
	Categories       content.Categories
}

// HTMLRenderer is the default renderer. It is safe for concurrent use once
// constructed.
type HTMLRenderer struct {
	opts       Options
	tmpl       *template.Template
	md         *markdown.Converter
	components *components
}

// New loads the built-in layouts and overlays every *.html file found in
// the template directory and its partials/ subdirectory. Templates in
// components/ expand custom elements of the same name in post bodies.
func New(opts Options) (*HTMLRenderer, error) {
	if opts.Categories == nil {
		opts.Categories = content.Categories{}
	}
	tmpl, err := template.New("postforge").Funcs(funcs()).ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "built-in layouts are invalid").Build()
	}
	if opts.TemplateDir != "" {
		for _, pattern := range []string{"*.html", filepath.Join("partials", "*.html")} {
			matches, err := filepath.Glob(filepath.Join(opts.TemplateDir, pattern))
			if err != nil {
				return nil, errors.WrapError(err, errors.CategoryConfig, "invalid template pattern").Build()
			}
			if len(matches) == 0 {
				continue
			}
			sort.Strings(matches)
			if tmpl, err = parseFiles(tmpl, matches); err != nil {
				return nil, err
			}
		}
	}
	comps, err := loadComponents(opts.TemplateDir)
	if err != nil {
		return nil, err
	}
	return &HTMLRenderer{
		opts:       opts,
		tmpl:       tmpl,
		md:         markdown.New(markdown.Options{HighlightStyle: opts.HighlightStyle}),
		components: comps,
	}, nil
}

func parseFiles(tmpl *template.Template, files []string) (*template.Template, error) {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryRender, "cannot read layout").
				WithContext("path", f).
				Fatal().
				Build()
		}
		if _, err := tmpl.New(filepath.Base(f)).Parse(string(data)); err != nil {
			return nil, errors.WrapError(err, errors.CategoryRender, "invalid layout").
				WithContext("path", f).
				Fatal().
				Build()
		}
	}
	return tmpl, nil
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"rfc3339": func(t time.Time) string { return t.Format(time.RFC3339) },
		"join":    strings.Join,
		"absURL":  func(site config.SiteConfig, p string) string { return strings.TrimRight(site.URL, "/") + p },
	}
}

// StyleSheet renders the code highlighting stylesheet.
func (r *HTMLRenderer) StyleSheet() (Artifact, error) {
	css, err := r.md.StyleSheet()
	if err != nil {
		return Artifact{}, errors.WrapError(err, errors.CategoryRender, "cannot render stylesheet").Build()
	}
	return newArtifact(StyleSheetPath, css), nil
}

// RenderUnit converts the body of one published post and applies the post
// layout.
func (r *HTMLRenderer) RenderUnit(ctx context.Context, e content.Entry, body []byte) (UnitOutput, error) {
	if err := ctx.Err(); err != nil {
		return UnitOutput{}, err
	}
	base := e.AssetBase()
	html, err := r.md.Convert(body, base)
	if err != nil {
		return UnitOutput{}, unitError(e, "markdown conversion failed", err)
	}
	if html, err = r.components.expand(html, base); err != nil {
		return UnitOutput{}, unitError(e, "component expansion failed", err)
	}

	summary := e.Meta.Description
	if summary == "" {
		summary = markdown.Summary(html)
	}
	e.Summary = summary

	// Post pages get no category nav. A unit page must depend only on its own
	// entry, otherwise adding a category would leave every stored post stale.
	data := PostPage{
		page:           r.basePage(e.Meta.Title, summary, nil),
		Post:           r.postView(e),
		Content:        template.HTML(html), //nolint:gosec // trusted author content
		ReadingMinutes: markdown.ReadingMinutes(html),
	}
	out, err := r.execute(layoutPost, data)
	if err != nil {
		return UnitOutput{}, unitError(e, "layout execution failed", err)
	}
	return UnitOutput{Artifact: newArtifact(e.OutputPath(), out), Summary: summary}, nil
}

func unitError(e content.Entry, msg string, err error) error {
	return errors.WrapError(err, errors.CategoryRender, msg).
		WithContext("unit", e.ID).
		NextPass().
		Build()
}

// RenderAggregate renders one aggregate from the published entries of the
// pass.
func (r *HTMLRenderer) RenderAggregate(ctx context.Context, agg graph.Aggregate, idx *Index) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	members, err := idx.Members(agg.Members)
	if err != nil {
		return Artifact{}, aggregateError(agg, "unknown member", err)
	}

	var body []byte
	switch agg.Key.Kind {
	case graph.KindHome:
		body, err = r.execute(layoutHome, ListPage{
			page:    r.basePage("", r.opts.Site.Description, idx.Roster()),
			Kind:    graph.KindHome,
			Heading: r.opts.Site.Title,
			Posts:   r.postViews(members),
			Total:   agg.Total,
			FeedURL: graph.Key{Kind: graph.KindFeed}.URL(),
		})
	case graph.KindCategory:
		cat := r.opts.Categories.Get(agg.Key.Name)
		body, err = r.execute(layoutList, ListPage{
			page:       r.basePage(cat.Name, cat.Description, idx.Roster()),
			Kind:       graph.KindCategory,
			Heading:    cat.Name,
			Name:       agg.Key.Name,
			Posts:      r.postViews(members),
			Total:      agg.Total,
			Pagination: NewPagination(agg.Key, agg.Key.Page, agg.Pages, r.opts.PaginationWindow),
			FeedURL:    graph.Key{Kind: graph.KindCategoryFeed, Name: agg.Key.Name}.URL(),
		})
	case graph.KindTag:
		body, err = r.execute(layoutList, ListPage{
			page:       r.basePage("#"+agg.Key.Name, "", idx.Roster()),
			Kind:       graph.KindTag,
			Heading:    "#" + agg.Key.Name,
			Name:       agg.Key.Name,
			Posts:      r.postViews(members),
			Total:      agg.Total,
			Pagination: NewPagination(agg.Key, agg.Key.Page, agg.Pages, r.opts.PaginationWindow),
		})
	case graph.KindTagsIndex:
		body, err = r.execute(layoutTags, TagsPage{
			page: r.basePage("Tags", "", idx.Roster()),
			Tags: tagCounts(members),
		})
	case graph.KindCategoriesIndex:
		body, err = r.execute(layoutCategories, CategoriesPage{
			page:       r.basePage("Categories", "", idx.Roster()),
			Categories: r.categoryCounts(members),
		})
	case graph.KindFeed:
		body, err = r.feed(r.opts.Site.Title, r.opts.Site.Description, members)
	case graph.KindCategoryFeed:
		cat := r.opts.Categories.Get(agg.Key.Name)
		body, err = r.feed(r.opts.Site.Title+" - "+cat.Name, cat.Description, members)
	case graph.KindSearch:
		body, err = r.searchIndex(members)
	default:
		err = fmt.Errorf("unsupported aggregate kind %q", agg.Key.Kind)
	}
	if err != nil {
		return Artifact{}, aggregateError(agg, "aggregate render failed", err)
	}
	return newArtifact(agg.Key.OutputPath(), body), nil
}

func aggregateError(agg graph.Aggregate, msg string, err error) error {
	return errors.WrapError(err, errors.CategoryRender, msg).
		WithContext("aggregate", agg.Key.String()).
		NextPass().
		Build()
}

func (r *HTMLRenderer) execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
