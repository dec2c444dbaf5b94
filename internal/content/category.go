package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/postforge/internal/fingerprint"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

// CategoryFile is the optional per-directory category description.
const CategoryFile = ".category.yaml"

const defaultCategoryIndex = 999

// Category describes one category directory.
type Category struct {
	Slug        string `yaml:"-"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Index       int    `yaml:"index"`
	Hidden      bool   `yaml:"hidden"`
}

// Categories maps category slugs to their description.
type Categories map[string]Category

// Get returns the category for slug, synthesizing a default when the
// directory carries no description.
func (c Categories) Get(slug string) Category {
	if cat, ok := c[slug]; ok {
		return cat
	}
	return defaultCategory(slug)
}

// Sorted returns the given slugs' categories ordered by index, then name.
func (c Categories) Sorted(slugs []string) []Category {
	out := make([]Category, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, c.Get(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Slug < out[j].Slug
	})
	return out
}

// LoadCategories reads every top-level category description below root.
// The returned fingerprint covers all description files so that editing
// one invalidates the pages that display it.
func LoadCategories(root string) (Categories, fingerprint.Fingerprint, error) {
	cats := Categories{}
	b := fingerprint.NewBuilder()

	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return cats, b.Sum(), nil
		}
		return nil, fingerprint.Zero, errors.WrapError(err, errors.CategoryScan, "cannot list categories").
			WithContext("path", root).
			Build()
	}
	for _, entry := range entries {
		if !entry.IsDir() || IsHidden(entry.Name()) {
			continue
		}
		p := filepath.Join(root, entry.Name(), CategoryFile)
		data, err := os.ReadFile(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fingerprint.Zero, errors.WrapError(err, errors.CategoryScan, "cannot read category description").
				WithContext("path", p).
				Build()
		}
		b.Add(entry.Name(), data)

		cat := defaultCategory(entry.Name())
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return nil, fingerprint.Zero, errors.WrapError(err, errors.CategoryParse, "invalid category description").
				WithContext("path", p).
				Build()
		}
		cat.Slug = entry.Name()
		if strings.TrimSpace(cat.Name) == "" {
			cat.Name = capitalize(entry.Name())
		}
		cats[entry.Name()] = cat
	}
	return cats, b.Sum(), nil
}

func defaultCategory(slug string) Category {
	return Category{Slug: slug, Name: capitalize(slug), Index: defaultCategoryIndex}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
