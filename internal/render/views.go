package render

import (
	"html/template"
	"sort"
	"time"

	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/graph"
	"git.home.luguber.info/inful/postforge/internal/slug"
)

// Link is a named site-relative URL.
type Link struct {
	Name string
	URL  string
}

// PostView is the layout-facing view of one entry.
type PostView struct {
	ID            string
	Title         string
	URL           string
	Category      string
	CategoryName  string
	CategoryURL   string
	Tags          []Link
	Date          time.Time
	Updated       time.Time
	Description   string
	Summary       string
	FeaturedImage string
}

// page carries the fields every layout sees.
type page struct {
	Site        config.SiteConfig
	Title       string
	Description string
	Nav         []Link
}

// PostPage is the data of post.html.
type PostPage struct {
	page
	Post           PostView
	Content        template.HTML
	ReadingMinutes int
}

// ListPage is the data of index.html and list.html.
type ListPage struct {
	page
	Kind       graph.Kind
	Heading    string
	Name       string
	Posts      []PostView
	Total      int
	Pagination *Pagination
	FeedURL    string
}

// TagCount is one row of the tags overview.
type TagCount struct {
	Name  string
	URL   string
	Count int
}

// CategoryCount is one row of the categories overview.
type CategoryCount struct {
	Slug        string
	Name        string
	Description string
	URL         string
	Count       int
}

// TagsPage is the data of tags.html.
type TagsPage struct {
	page
	Tags []TagCount
}

// CategoriesPage is the data of categories.html.
type CategoriesPage struct {
	page
	Categories []CategoryCount
}

func (r *HTMLRenderer) postView(e content.Entry) PostView {
	cat := r.opts.Categories.Get(e.Category)
	v := PostView{
		ID:            e.ID,
		Title:         e.Meta.Title,
		URL:           e.URL(),
		Category:      e.Category,
		CategoryName:  cat.Name,
		CategoryURL:   graph.Key{Kind: graph.KindCategory, Name: e.Category, Page: 1}.URL(),
		Date:          e.Meta.Date,
		Updated:       e.Meta.Updated,
		Description:   e.Meta.Description,
		Summary:       e.Summary,
		FeaturedImage: e.Meta.FeaturedImage,
	}
	for _, tag := range e.Meta.Tags {
		v.Tags = append(v.Tags, Link{Name: tag, URL: graph.Key{Kind: graph.KindTag, Name: tag, Page: 1}.URL()})
	}
	return v
}

func (r *HTMLRenderer) postViews(entries []content.Entry) []PostView {
	out := make([]PostView, len(entries))
	for i, e := range entries {
		out[i] = r.postView(e)
	}
	return out
}

// nav lists the visible categories that currently have published posts.
func (r *HTMLRenderer) nav(roster []string) []Link {
	cats := r.opts.Categories.Sorted(roster)
	out := make([]Link, 0, len(cats))
	for _, c := range cats {
		if c.Hidden {
			continue
		}
		out = append(out, Link{Name: c.Name, URL: "/" + slug.Encode(c.Slug) + "/"})
	}
	return out
}

func (r *HTMLRenderer) basePage(title, description string, roster []string) page {
	return page{Site: r.opts.Site, Title: title, Description: description, Nav: r.nav(roster)}
}

func tagCounts(entries []content.Entry) []TagCount {
	counts := map[string]int{}
	for _, e := range entries {
		for _, tag := range e.Meta.Tags {
			counts[tag]++
		}
	}
	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Name: tag, URL: graph.Key{Kind: graph.KindTag, Name: tag, Page: 1}.URL(), Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *HTMLRenderer) categoryCounts(entries []content.Entry) []CategoryCount {
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Category]++
	}
	slugs := make([]string, 0, len(counts))
	for s := range counts {
		slugs = append(slugs, s)
	}
	var out []CategoryCount
	for _, c := range r.opts.Categories.Sorted(slugs) {
		if c.Hidden {
			continue
		}
		out = append(out, CategoryCount{
			Slug:        c.Slug,
			Name:        c.Name,
			Description: c.Description,
			URL:         "/" + slug.Encode(c.Slug) + "/",
			Count:       counts[c.Slug],
		})
	}
	return out
}
