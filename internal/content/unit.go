// Package content discovers source units, content assets and category
// metadata below the content root.
package content

import (
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/postforge/internal/fingerprint"
	"git.home.luguber.info/inful/postforge/internal/frontmatter"
	"git.home.luguber.info/inful/postforge/internal/slug"
)

// Uncategorized is the category of posts that live directly in the content
// root and name none in their header.
const Uncategorized = "uncategorized"

// Unit is one discovered source document. Units are immutable within a pass.
type Unit struct {
	// ID is the slash separated path relative to the content root.
	ID          string
	Path        string
	Raw         []byte
	Fingerprint fingerprint.Fingerprint
	ModTime     time.Time
}

// Entry is everything aggregates need to know about a parsed unit. It is
// persisted with the unit's build record so unchanged units never need to
// be parsed again.
type Entry struct {
	ID       string               `cbor:"id"`
	Meta     frontmatter.Metadata `cbor:"meta"`
	Category string               `cbor:"category"`
	Slug     string               `cbor:"slug"`
	Summary  string               `cbor:"summary,omitempty"`
}

// NewEntry derives the output identity of a unit from its ID and header.
func NewEntry(id string, meta frontmatter.Metadata) Entry {
	return Entry{
		ID:       id,
		Meta:     meta,
		Category: CategoryOf(id, meta),
		Slug:     slug.Encode(stem(id)),
	}
}

// CategoryOf returns the first directory segment of id, falling back to the
// header's category and then to Uncategorized.
func CategoryOf(id string, meta frontmatter.Metadata) string {
	if i := strings.IndexByte(id, '/'); i > 0 {
		return id[:i]
	}
	if meta.Category != "" {
		return meta.Category
	}
	return Uncategorized
}

// Published reports whether the entry is visible in this build.
func (e Entry) Published(includeDrafts bool) bool {
	return includeDrafts || !e.Meta.Draft
}

// URL is the site-relative URL of the rendered post.
func (e Entry) URL() string {
	return "/" + slug.Encode(e.Category) + "/" + e.Slug + "/"
}

// OutputPath is the slash separated output file relative to the output root.
func (e Entry) OutputPath() string {
	return slug.Encode(e.Category) + "/" + e.Slug + "/index.html"
}

// AssetBase is the site path of the directory holding the source file.
// Content assets are copied to the same relative location, so relative
// references in the post resolve against it.
func (e Entry) AssetBase() string {
	dir := path.Dir(e.ID)
	if dir == "." {
		return "/"
	}
	segs := strings.Split(dir, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "/" + strings.Join(segs, "/") + "/"
}

func stem(id string) string {
	base := path.Base(id)
	return strings.TrimSuffix(base, path.Ext(base))
}
