package graph

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/frontmatter"
	"git.home.luguber.info/inful/postforge/internal/incremental"
	"git.home.luguber.info/inful/postforge/internal/store"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func entry(id string, day int, tags ...string) content.Entry {
	return content.NewEntry(id, frontmatter.Metadata{
		Title: id,
		Date:  day0.AddDate(0, 0, day),
		Tags:  tags,
	})
}

func records(m Membership) map[string]store.AggregateRecord {
	out := map[string]store.AggregateRecord{}
	for k, agg := range m {
		out[k.String()] = store.AggregateRecord{Members: agg.Members, Shape: agg.Shape, OutputPath: k.OutputPath()}
	}
	return out
}

func opts() Options {
	return Options{PerPage: 2, HomeLimit: 10, FeedLimit: 10, SearchIndex: true}
}

func TestKey_Paths(t *testing.T) {
	tests := []struct {
		key  Key
		str  string
		path string
		url  string
	}{
		{Key{Kind: KindHome}, "home", "index.html", "/"},
		{Key{Kind: KindCategory, Name: "dev", Page: 1}, "category:dev:1", "dev/index.html", "/dev/"},
		{Key{Kind: KindCategory, Name: "dev", Page: 3}, "category:dev:3", "dev/page/3/index.html", "/dev/page/3/"},
		{Key{Kind: KindTag, Name: "go", Page: 1}, "tag:go:1", "tag/go/index.html", "/tag/go/"},
		{Key{Kind: KindTag, Name: "c sharp", Page: 2}, "tag:c sharp:2", "tag/c%20sharp/page/2/index.html", "/tag/c%20sharp/page/2/"},
		{Key{Kind: KindTagsIndex}, "tags", "tags/index.html", "/tags/"},
		{Key{Kind: KindCategoriesIndex}, "categories", "categories/index.html", "/categories/"},
		{Key{Kind: KindFeed}, "feed", "feed.xml", "/feed.xml"},
		{Key{Kind: KindCategoryFeed, Name: "dev"}, "category-feed:dev", "dev/feed.xml", "/dev/feed.xml"},
		{Key{Kind: KindSearch}, "search", "search-index.json", "/search-index.json"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.str, tt.key.String())
			assert.Equal(t, tt.path, tt.key.OutputPath())
			assert.Equal(t, tt.url, tt.key.URL())
		})
	}
}

func TestBuild_MembershipAndOrdering(t *testing.T) {
	entries := []content.Entry{
		entry("dev/a.md", 1, "go"),
		entry("dev/b.md", 3, "go", "web"),
		entry("dev/c.md", 2),
		entry("life/d.md", 0, "go"),
	}

	m := Build(entries, opts())

	assert.Equal(t, []string{"dev/b.md", "dev/c.md"}, m[Key{Kind: KindCategory, Name: "dev", Page: 1}].Members)
	assert.Equal(t, []string{"dev/a.md"}, m[Key{Kind: KindCategory, Name: "dev", Page: 2}].Members)
	assert.Equal(t, 2, m[Key{Kind: KindCategory, Name: "dev", Page: 1}].Pages)
	assert.Equal(t, []string{"dev/b.md", "dev/a.md"}, m[Key{Kind: KindTag, Name: "go", Page: 1}].Members)
	assert.Equal(t, []string{"life/d.md"}, m[Key{Kind: KindTag, Name: "go", Page: 2}].Members)
	assert.Equal(t, []string{"dev/b.md"}, m[Key{Kind: KindTag, Name: "web", Page: 1}].Members)
	assert.Equal(t, []string{"dev/b.md", "dev/c.md", "dev/a.md", "life/d.md"}, m[Key{Kind: KindHome}].Members)
	assert.Contains(t, m, Key{Kind: KindSearch})
	assert.Contains(t, m, Key{Kind: KindCategoryFeed, Name: "life"})
	assert.NotContains(t, m, Key{Kind: KindCategory, Name: "dev", Page: 3})
}

func TestBuild_DraftsExcluded(t *testing.T) {
	draft := entry("dev/draft.md", 5, "go")
	draft.Meta.Draft = true
	entries := []content.Entry{entry("dev/a.md", 1), draft}

	m := Build(entries, opts())
	assert.NotContains(t, m, Key{Kind: KindTag, Name: "go", Page: 1})
	assert.Equal(t, []string{"dev/a.md"}, m[Key{Kind: KindHome}].Members)

	withDrafts := opts()
	withDrafts.IncludeDrafts = true
	m = Build(entries, withDrafts)
	assert.Contains(t, m, Key{Kind: KindTag, Name: "go", Page: 1})
}

func TestBuild_TiesBrokenByID(t *testing.T) {
	m := Build([]content.Entry{entry("x/b.md", 1), entry("x/a.md", 1)}, opts())
	assert.Equal(t, []string{"x/a.md", "x/b.md"}, m[Key{Kind: KindHome}].Members)
}

func TestBuild_NoFeedWithoutPosts(t *testing.T) {
	m := Build(nil, opts())
	assert.NotContains(t, m, Key{Kind: KindFeed})
	assert.Contains(t, m, Key{Kind: KindHome})
}

func TestAffected_OnlyTouchedAggregates(t *testing.T) {
	entries := []content.Entry{
		entry("dev/a.md", 1, "go"),
		entry("life/b.md", 2, "cooking"),
	}
	m := Build(entries, opts())
	prev := records(m)

	cs := incremental.ChangeSet{Unchanged: []string{"dev/a.md"}, Modified: []string{"life/b.md"}}
	got := Affected(cs, prev, m)

	assert.Contains(t, got, Key{Kind: KindCategory, Name: "life", Page: 1})
	assert.Contains(t, got, Key{Kind: KindTag, Name: "cooking", Page: 1})
	assert.Contains(t, got, Key{Kind: KindHome})
	assert.NotContains(t, got, Key{Kind: KindCategory, Name: "dev", Page: 1})
	assert.NotContains(t, got, Key{Kind: KindTag, Name: "go", Page: 1})
	assert.NotContains(t, got, Key{Kind: KindCategoryFeed, Name: "dev"})
}

func TestAffected_NothingChanged(t *testing.T) {
	m := Build([]content.Entry{entry("dev/a.md", 1, "go")}, opts())
	cs := incremental.ChangeSet{Unchanged: []string{"dev/a.md"}}
	assert.Empty(t, Affected(cs, records(m), m))
}

func TestAffected_MissingOrFailedRecords(t *testing.T) {
	m := Build([]content.Entry{entry("dev/a.md", 1, "go")}, opts())
	prev := records(m)
	delete(prev, "tag:go:1")
	rec := prev["category:dev:1"]
	rec.Failed = true
	prev["category:dev:1"] = rec

	got := Affected(incremental.ChangeSet{Unchanged: []string{"dev/a.md"}}, prev, m)
	assert.ElementsMatch(t, []Key{
		{Kind: KindTag, Name: "go", Page: 1},
		{Kind: KindCategory, Name: "dev", Page: 1},
	}, got)
}

func TestAffected_PaginationShrink(t *testing.T) {
	var entries []content.Entry
	for i := range 5 {
		entries = append(entries, entry(fmt.Sprintf("dev/%d.md", i), i))
	}
	before := Build(entries, opts())
	require.Contains(t, before, Key{Kind: KindCategory, Name: "dev", Page: 3})

	after := Build(entries[1:], opts())
	cs := incremental.ChangeSet{Unchanged: []string{"dev/1.md", "dev/2.md", "dev/3.md", "dev/4.md"}, Removed: []string{"dev/0.md"}}

	assert.Equal(t, []string{"category:dev:3"}, Vanished(records(before), after))

	got := Affected(cs, records(before), after)
	assert.Contains(t, got, Key{Kind: KindCategory, Name: "dev", Page: 1})
	assert.Contains(t, got, Key{Kind: KindCategory, Name: "dev", Page: 2})
}

func TestAffected_PageCountChangeReachesUntouchedPages(t *testing.T) {
	entries := []content.Entry{entry("dev/a.md", 3), entry("dev/b.md", 2)}
	before := Build(entries, opts())

	// The oldest post lands on a new page 2; page 1 keeps its members but
	// its navigation must now link to page 2.
	entries = append(entries, entry("dev/c.md", 1))
	after := Build(entries, opts())
	cs := incremental.ChangeSet{Unchanged: []string{"dev/a.md", "dev/b.md"}, Added: []string{"dev/c.md"}}

	got := Affected(cs, records(before), after)
	assert.Contains(t, got, Key{Kind: KindCategory, Name: "dev", Page: 1})
	assert.Contains(t, got, Key{Kind: KindCategory, Name: "dev", Page: 2})
}

func TestAffected_DraftToggleRemovesFromAggregates(t *testing.T) {
	a := entry("dev/a.md", 1, "go")
	before := Build([]content.Entry{a, entry("dev/b.md", 2)}, opts())

	a.Meta.Draft = true
	after := Build([]content.Entry{a, entry("dev/b.md", 2)}, opts())
	cs := incremental.ChangeSet{Unchanged: []string{"dev/b.md"}, Modified: []string{"dev/a.md"}}

	got := Affected(cs, records(before), after)
	assert.Contains(t, got, Key{Kind: KindCategory, Name: "dev", Page: 1})
	assert.Equal(t, []string{"tag:go:1"}, Vanished(records(before), after))
}

func TestAffected_HiddenCategoryRosterChange(t *testing.T) {
	entries := []content.Entry{entry("dev/a.md", 1), entry("life/b.md", 2)}
	before := Build(entries, opts())

	hidden := opts()
	hidden.Hidden = map[string]bool{"life": true}
	after := Build(entries, hidden)

	got := Affected(incremental.ChangeSet{Unchanged: []string{"dev/a.md", "life/b.md"}}, records(before), after)
	assert.Contains(t, got, Key{Kind: KindHome})
	assert.Contains(t, got, Key{Kind: KindCategoriesIndex})
}
