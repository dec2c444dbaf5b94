// Package incremental decides which source units need work in a build pass.
package incremental

import (
	"sort"

	"git.home.luguber.info/inful/postforge/internal/content"
	"git.home.luguber.info/inful/postforge/internal/store"
)

// ChangeSet partitions unit IDs by how they differ from the stored state.
// Every scanned unit appears in exactly one of Unchanged, Modified and
// Added. Removed holds stored IDs that the scan no longer found. All sets
// are sorted.
type ChangeSet struct {
	Unchanged []string
	Modified  []string
	Added     []string
	Removed   []string
}

// Changed returns Modified and Added merged in ID order.
func (c ChangeSet) Changed() []string {
	out := make([]string, 0, len(c.Modified)+len(c.Added))
	out = append(out, c.Modified...)
	out = append(out, c.Added...)
	sort.Strings(out)
	return out
}

// Empty reports whether nothing changed.
func (c ChangeSet) Empty() bool {
	return len(c.Modified) == 0 && len(c.Added) == 0 && len(c.Removed) == 0
}

// Touched returns the set of IDs that were modified, added or removed.
func (c ChangeSet) Touched() map[string]struct{} {
	out := make(map[string]struct{}, len(c.Modified)+len(c.Added)+len(c.Removed))
	for _, set := range [][]string{c.Modified, c.Added, c.Removed} {
		for _, id := range set {
			out[id] = struct{}{}
		}
	}
	return out
}

// Classify compares the current scan against the previous records by raw
// fingerprint. Previous records under a prefix the scanner skipped are not
// reported as removed. The function is pure.
func Classify(current []content.Unit, previous map[string]store.UnitRecord, skipped func(id string) bool) ChangeSet {
	var cs ChangeSet
	seen := make(map[string]struct{}, len(current))

	for _, u := range current {
		seen[u.ID] = struct{}{}
		rec, ok := previous[u.ID]
		switch {
		case !ok:
			cs.Added = append(cs.Added, u.ID)
		case rec.Fingerprint != u.Fingerprint:
			cs.Modified = append(cs.Modified, u.ID)
		default:
			cs.Unchanged = append(cs.Unchanged, u.ID)
		}
	}
	for id := range previous {
		if _, ok := seen[id]; ok {
			continue
		}
		if skipped != nil && skipped(id) {
			continue
		}
		cs.Removed = append(cs.Removed, id)
	}

	sort.Strings(cs.Unchanged)
	sort.Strings(cs.Modified)
	sort.Strings(cs.Added)
	sort.Strings(cs.Removed)
	return cs
}

// Promote moves the given unchanged IDs to Modified. It is used when a
// unit's output is stale for reasons other than its own bytes, such as a
// record rendered against different site inputs.
func (c ChangeSet) Promote(ids map[string]struct{}) ChangeSet {
	if len(ids) == 0 {
		return c
	}
	out := ChangeSet{Added: c.Added, Removed: c.Removed}
	out.Modified = append(out.Modified, c.Modified...)
	for _, id := range c.Unchanged {
		if _, ok := ids[id]; ok {
			out.Modified = append(out.Modified, id)
			continue
		}
		out.Unchanged = append(out.Unchanged, id)
	}
	sort.Strings(out.Modified)
	return out
}
