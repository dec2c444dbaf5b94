package graph

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/postforge/internal/content"
)

// Options shape the aggregate set.
type Options struct {
	PerPage       int
	HomeLimit     int
	FeedLimit     int
	IncludeDrafts bool
	SearchIndex   bool
	// Hidden category slugs are left out of navigation and the categories
	// index but keep their own pages and feeds.
	Hidden map[string]bool
}

// Aggregate is one realized aggregate artifact and its ordered members.
type Aggregate struct {
	Key     Key
	Members []string
	// Shape captures rendered facts beyond the member list, such as the
	// page count shown in navigation. A shape change invalidates the
	// artifact even when its members did not change.
	Shape string
	// Total is the member count of the whole paginated series.
	Total int
	Pages int
}

// Membership is the full set of aggregates realized by one pass.
type Membership map[Key]Aggregate

// Keys returns the membership keys ordered by their string form.
func (m Membership) Keys() []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
}

// SortEntries orders entries newest first, then by ID.
func SortEntries(entries []content.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Meta.Date, entries[j].Meta.Date
		if !a.Equal(b) {
			return a.After(b)
		}
		return entries[i].ID < entries[j].ID
	})
}

// Published filters entries to those visible under opts, sorted with
// SortEntries.
func Published(entries []content.Entry, opts Options) []content.Entry {
	out := make([]content.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Published(opts.IncludeDrafts) {
			out = append(out, e)
		}
	}
	SortEntries(out)
	return out
}

// Build computes every aggregate and its members from the published entries.
// Categories and tags without members realize no aggregate.
func Build(entries []content.Entry, opts Options) Membership {
	if opts.PerPage <= 0 {
		opts.PerPage = 10
	}
	posts := Published(entries, opts)
	m := Membership{}

	byCategory := map[string][]content.Entry{}
	byTag := map[string][]content.Entry{}
	for _, e := range posts {
		byCategory[e.Category] = append(byCategory[e.Category], e)
		for _, tag := range e.Meta.Tags {
			byTag[tag] = append(byTag[tag], e)
		}
	}
	roster := visibleRoster(byCategory, opts.Hidden)

	nav := "categories=" + roster
	m.add(Key{Kind: KindHome}, head(posts, opts.HomeLimit), nav)
	if len(posts) > 0 {
		m.add(Key{Kind: KindFeed}, head(posts, opts.FeedLimit), newest(posts))
	}
	m.add(Key{Kind: KindTagsIndex}, posts, nav)
	m.add(Key{Kind: KindCategoriesIndex}, visible(posts, opts.Hidden), nav)
	if opts.SearchIndex {
		m.add(Key{Kind: KindSearch}, posts, "")
	}

	for cat, members := range byCategory {
		m.paginate(Key{Kind: KindCategory, Name: cat}, members, opts.PerPage, nav)
		m.add(Key{Kind: KindCategoryFeed, Name: cat}, head(members, opts.FeedLimit), newest(members))
	}
	for tag, members := range byTag {
		m.paginate(Key{Kind: KindTag, Name: tag}, members, opts.PerPage, nav)
	}
	return m
}

func (m Membership) add(k Key, members []content.Entry, shape string) {
	m[k] = Aggregate{Key: k, Members: ids(members), Shape: shape, Total: len(members), Pages: 1}
}

func (m Membership) paginate(base Key, members []content.Entry, perPage int, shape string) {
	pages := (len(members) + perPage - 1) / perPage
	for page := 1; page <= pages; page++ {
		start := (page - 1) * perPage
		end := min(start+perPage, len(members))
		k := Key{Kind: base.Kind, Name: base.Name, Page: page}
		m[k] = Aggregate{
			Key:     k,
			Members: ids(members[start:end]),
			Shape:   fmt.Sprintf("pages=%d;total=%d;%s", pages, len(members), shape),
			Total:   len(members),
			Pages:   pages,
		}
	}
}

func head(entries []content.Entry, n int) []content.Entry {
	if n > 0 && len(entries) > n {
		return entries[:n]
	}
	return entries
}

func ids(entries []content.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func visible(entries []content.Entry, hidden map[string]bool) []content.Entry {
	if len(hidden) == 0 {
		return entries
	}
	out := make([]content.Entry, 0, len(entries))
	for _, e := range entries {
		if !hidden[e.Category] {
			out = append(out, e)
		}
	}
	return out
}

func visibleRoster(byCategory map[string][]content.Entry, hidden map[string]bool) string {
	slugs := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		if !hidden[cat] {
			slugs = append(slugs, cat)
		}
	}
	sort.Strings(slugs)
	return strings.Join(slugs, ",")
}

func newest(entries []content.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	return "newest=" + entries[0].Meta.Date.UTC().Format(time.RFC3339Nano)
}
