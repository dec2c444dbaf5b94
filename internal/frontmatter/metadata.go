package frontmatter

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata is the closed set of header fields a post may carry.
type Metadata struct {
	Title         string    `yaml:"title"`
	Date          time.Time `yaml:"date"`
	Updated       time.Time `yaml:"updated,omitempty"`
	Category      string    `yaml:"category,omitempty"`
	Tags          []string  `yaml:"tags,omitempty"`
	Draft         bool      `yaml:"draft,omitempty"`
	Description   string    `yaml:"description,omitempty"`
	FeaturedImage string    `yaml:"featured_image,omitempty"`
}

// rawMetadata mirrors Metadata with loosely typed fields so dates and tags
// accept the shapes people actually write.
type rawMetadata struct {
	Title         string    `yaml:"title"`
	Date          string    `yaml:"date"`
	Updated       string    `yaml:"updated"`
	Category      string    `yaml:"category"`
	Tags          yaml.Node `yaml:"tags"`
	Draft         bool      `yaml:"draft"`
	Description   string    `yaml:"description"`
	FeaturedImage string    `yaml:"featured_image"`
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Parse splits raw and decodes its header. The body is returned as-is.
// Every post requires a header with a title and a date.
func Parse(raw []byte) (Metadata, []byte, error) {
	header, body, had, err := Split(raw)
	if err != nil {
		return Metadata{}, nil, err
	}
	if !had {
		return Metadata{}, nil, ErrMissingFrontmatter
	}

	var rm rawMetadata
	if err := yaml.Unmarshal(header, &rm); err != nil {
		return Metadata{}, nil, fmt.Errorf("decode yaml header: %w", err)
	}

	meta := Metadata{
		Title:         strings.TrimSpace(rm.Title),
		Category:      strings.TrimSpace(rm.Category),
		Draft:         rm.Draft,
		Description:   strings.TrimSpace(rm.Description),
		FeaturedImage: strings.TrimSpace(rm.FeaturedImage),
	}
	if meta.Title == "" {
		return Metadata{}, nil, fmt.Errorf("missing required field %q", "title")
	}
	if rm.Date == "" {
		return Metadata{}, nil, fmt.Errorf("missing required field %q", "date")
	}
	if meta.Date, err = ParseDate(rm.Date); err != nil {
		return Metadata{}, nil, err
	}
	if rm.Updated != "" {
		if meta.Updated, err = ParseDate(rm.Updated); err != nil {
			return Metadata{}, nil, err
		}
	}
	if meta.Tags, err = decodeTags(&rm.Tags); err != nil {
		return Metadata{}, nil, err
	}
	return meta, body, nil
}

// ParseDate accepts RFC 3339 timestamps and the common shorter forms.
// Values without a zone are taken as UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// decodeTags accepts a YAML sequence or a comma separated string and
// returns the tags trimmed and deduplicated in first-seen order.
func decodeTags(node *yaml.Node) ([]string, error) {
	var raw []string
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		raw = strings.Split(node.Value, ",")
	case yaml.SequenceNode:
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	default:
		return nil, fmt.Errorf("tags must be a list or a comma separated string")
	}

	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(tags, tag) {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}
