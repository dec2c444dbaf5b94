package render

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/postforge/internal/content"
)

// Index gives aggregate renders access to the pass's published entries.
type Index struct {
	byID   map[string]content.Entry
	roster []string
}

// NewIndex indexes the published entries of a pass.
func NewIndex(published []content.Entry) *Index {
	idx := &Index{byID: make(map[string]content.Entry, len(published))}
	seen := map[string]bool{}
	for _, e := range published {
		idx.byID[e.ID] = e
		if !seen[e.Category] {
			seen[e.Category] = true
			idx.roster = append(idx.roster, e.Category)
		}
	}
	sort.Strings(idx.roster)
	return idx
}

// Members resolves member IDs in order.
func (i *Index) Members(ids []string) ([]content.Entry, error) {
	out := make([]content.Entry, 0, len(ids))
	for _, id := range ids {
		e, ok := i.byID[id]
		if !ok {
			return nil, fmt.Errorf("entry %q is not published", id)
		}
		out = append(out, e)
	}
	return out, nil
}

// Roster lists the category slugs with published posts.
func (i *Index) Roster() []string {
	return i.roster
}
