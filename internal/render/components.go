package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/markdown"
)

// componentDir holds one template per custom element, named <tag>.html.
const componentDir = "components"

var componentName = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

var urlAttributes = map[string]bool{"src": true, "href": true, "data": true, "poster": true, "srcset": true}

// components expands custom elements in rendered post bodies. The element's
// attributes and its inner HTML (as .content) are the template data.
type components struct {
	names []string
	tmpl  *template.Template
}

func loadComponents(templateDir string) (*components, error) {
	if templateDir == "" {
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(templateDir, componentDir, "*.html"))
	if err != nil || len(files) == 0 {
		return nil, nil
	}
	sort.Strings(files)

	c := &components{tmpl: template.New(componentDir).Funcs(funcs())}
	for _, f := range files {
		name := strings.ToLower(strings.TrimSuffix(filepath.Base(f), ".html"))
		if !componentName.MatchString(name) {
			return nil, errors.ConfigError("component file name is not a valid element name").
				WithContext("path", f).
				Build()
		}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryRender, "cannot read component").
				WithContext("path", f).
				Fatal().
				Build()
		}
		if _, err := c.tmpl.New(name).Parse(string(data)); err != nil {
			return nil, errors.WrapError(err, errors.CategoryRender, "invalid component").
				WithContext("path", f).
				Fatal().
				Build()
		}
		c.names = append(c.names, name)
	}
	return c, nil
}

// expand replaces every known custom element in html. URL attributes are
// resolved against base. Input without components is returned unchanged.
func (c *components) expand(html []byte, base string) ([]byte, error) {
	if c == nil {
		return html, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse rendered body: %w", err)
	}
	body := doc.Find("body")

	expanded := false
	for _, name := range c.names {
		found := body.Find(name)
		// innermost first so an outer element sees expanded content
		for i := found.Length() - 1; i >= 0; i-- {
			el := found.Eq(i)
			data := map[string]any{}
			for _, a := range el.Nodes[0].Attr {
				v := a.Val
				if urlAttributes[a.Key] {
					v = resolveAttr(a.Key, v, base)
				}
				data[a.Key] = v
			}
			inner, err := el.Html()
			if err != nil {
				return nil, fmt.Errorf("component %s: %w", name, err)
			}
			data["content"] = template.HTML(inner) //nolint:gosec // trusted author content

			var buf bytes.Buffer
			if err := c.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
				return nil, fmt.Errorf("component %s: %w", name, err)
			}
			el.ReplaceWithHtml(buf.String())
			expanded = true
		}
	}
	if !expanded {
		return html, nil
	}
	out, err := body.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize rendered body: %w", err)
	}
	return []byte(out), nil
}

func resolveAttr(key, val, base string) string {
	if key != "srcset" {
		return markdown.ResolveURL(val, base)
	}
	parts := strings.Split(val, ",")
	for i, p := range parts {
		fields := strings.Fields(p)
		if len(fields) == 0 {
			continue
		}
		fields[0] = markdown.ResolveURL(fields[0], base)
		parts[i] = strings.Join(fields, " ")
	}
	return strings.Join(parts, ", ")
}
