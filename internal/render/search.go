package render

import (
	"encoding/json"

	"git.home.luguber.info/inful/postforge/internal/content"
)

// SearchIndexVersion is the schema version of search-index.json.
const SearchIndexVersion = "1"

// SearchIndex is the client-side search document.
type SearchIndex struct {
	Version string        `json:"version"`
	Posts   []SearchEntry `json:"posts"`
}

// SearchEntry is one searchable post.
type SearchEntry struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Date        string   `json:"date"`
}

func (r *HTMLRenderer) searchIndex(members []content.Entry) ([]byte, error) {
	idx := SearchIndex{Version: SearchIndexVersion, Posts: make([]SearchEntry, 0, len(members))}
	for _, e := range members {
		tags := e.Meta.Tags
		if tags == nil {
			tags = []string{}
		}
		idx.Posts = append(idx.Posts, SearchEntry{
			Title:       e.Meta.Title,
			Description: e.Summary,
			URL:         e.URL(),
			Category:    e.Category,
			Tags:        tags,
			Date:        e.Meta.Date.Format("2006-01-02"),
		})
	}
	out, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
