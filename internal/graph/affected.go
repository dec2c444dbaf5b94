package graph

import (
	"slices"

	"git.home.luguber.info/inful/postforge/internal/incremental"
	"git.home.luguber.info/inful/postforge/internal/store"
)

// Affected returns the aggregates of current that must be rendered. An
// aggregate is affected when
//   - its current or stored members intersect the modified, added or
//     removed units,
//   - its member list or shape differs from the stored record,
//   - it has no stored record or the stored render failed, or
//   - it is the home page or a feed and units were added or removed.
func Affected(cs incremental.ChangeSet, previous map[string]store.AggregateRecord, current Membership) []Key {
	touched := cs.Touched()
	churn := len(cs.Added) > 0 || len(cs.Removed) > 0

	var out []Key
	for k, agg := range current {
		rec, ok := previous[k.String()]
		switch {
		case !ok || rec.Failed:
		case rec.Shape != agg.Shape || !slices.Equal(rec.Members, agg.Members):
		case churn && (k.Kind == KindHome || k.Kind == KindFeed || k.Kind == KindCategoryFeed):
		case intersects(agg.Members, touched) || intersects(rec.Members, touched):
		default:
			continue
		}
		out = append(out, k)
	}
	sortKeys(out)
	return out
}

// All returns every key of current; used by full passes.
func All(current Membership) []Key {
	return current.Keys()
}

// Vanished returns stored aggregate keys that current no longer realizes,
// sorted. Their outputs must be deleted.
func Vanished(previous map[string]store.AggregateRecord, current Membership) []string {
	live := make(map[string]struct{}, len(current))
	for k := range current {
		live[k.String()] = struct{}{}
	}
	var out []string
	for k := range previous {
		if _, ok := live[k]; !ok {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

func intersects(ids []string, set map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}
