// Package graph maps published entries onto the aggregate artifacts that
// list them and decides which aggregates a change set invalidates.
package graph

import (
	"strconv"

	"git.home.luguber.info/inful/postforge/internal/slug"
)

// Kind is the type of an aggregate artifact.
type Kind string

const (
	KindHome            Kind = "home"
	KindCategory        Kind = "category"
	KindTag             Kind = "tag"
	KindTagsIndex       Kind = "tags"
	KindCategoriesIndex Kind = "categories"
	KindFeed            Kind = "feed"
	KindCategoryFeed    Kind = "category-feed"
	KindSearch          Kind = "search"
)

// Key identifies one aggregate artifact. Page is 1-based for paginated
// kinds and 0 otherwise.
type Key struct {
	Kind Kind
	Name string
	Page int
}

// Paginated reports whether the kind is split into pages.
func (k Key) Paginated() bool {
	return k.Kind == KindCategory || k.Kind == KindTag
}

// String is the stable identity persisted in the fingerprint store.
func (k Key) String() string {
	s := string(k.Kind)
	if k.Name != "" {
		s += ":" + k.Name
	}
	if k.Paginated() {
		s += ":" + strconv.Itoa(k.Page)
	}
	return s
}

// BaseURL is the site-relative URL of the first page of the aggregate.
func (k Key) BaseURL() string {
	switch k.Kind {
	case KindHome:
		return "/"
	case KindCategory:
		return "/" + slug.Encode(k.Name) + "/"
	case KindTag:
		return "/tag/" + slug.Encode(k.Name) + "/"
	case KindTagsIndex:
		return "/tags/"
	case KindCategoriesIndex:
		return "/categories/"
	case KindFeed:
		return "/feed.xml"
	case KindCategoryFeed:
		return "/" + slug.Encode(k.Name) + "/feed.xml"
	case KindSearch:
		return "/search-index.json"
	}
	return "/"
}

// PageURL is the site-relative URL of page n of a paginated aggregate.
func (k Key) PageURL(n int) string {
	if n <= 1 {
		return k.BaseURL()
	}
	return k.BaseURL() + "page/" + strconv.Itoa(n) + "/"
}

// URL is the site-relative URL of this key's page.
func (k Key) URL() string {
	if k.Paginated() {
		return k.PageURL(k.Page)
	}
	return k.BaseURL()
}

// OutputPath is the slash separated output file relative to the output root.
func (k Key) OutputPath() string {
	switch k.Kind {
	case KindFeed, KindCategoryFeed, KindSearch:
		return k.BaseURL()[1:]
	default:
		return k.URL()[1:] + "index.html"
	}
}
