package render

import (
	"strings"

	"github.com/gorilla/feeds"

	"git.home.luguber.info/inful/postforge/internal/content"
)

// feed renders an RSS 2.0 document. Updated is the newest member's date so
// identical inputs always produce identical bytes.
func (r *HTMLRenderer) feed(title, description string, members []content.Entry) ([]byte, error) {
	base := strings.TrimRight(r.opts.Site.URL, "/")
	if description == "" {
		description = title
	}

	f := &feeds.Feed{
		Title:       title,
		Link:        &feeds.Link{Href: base + "/"},
		Description: description,
	}
	if len(members) > 0 {
		f.Updated = members[0].Meta.Date.UTC()
	}
	for _, e := range members {
		link := base + e.URL()
		f.Items = append(f.Items, &feeds.Item{
			Title:       e.Meta.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Created:     e.Meta.Date.UTC(),
			Description: e.Summary,
		})
	}

	rf := (&feeds.Rss{Feed: f}).RssFeed()
	rf.Language = r.opts.Site.Language
	for i, e := range members {
		rf.Items[i].Category = r.opts.Categories.Get(e.Category).Name
	}
	out, err := feeds.ToXML(rf)
	if err != nil {
		return nil, err
	}
	return []byte(out + "\n"), nil
}
