package markdown

import (
	"net/url"
	"path"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var baseKey = parser.NewContextKey()

// linkResolver rewrites relative link and image destinations against the
// base path stored in the parser context.
type linkResolver struct{}

func (linkResolver) Transform(doc *gmast.Document, _ text.Reader, pc parser.Context) {
	base, _ := pc.Get(baseKey).(string)
	if base == "" {
		return
	}
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *gmast.Link:
			v.Destination = []byte(ResolveURL(string(v.Destination), base))
		case *gmast.Image:
			v.Destination = []byte(ResolveURL(string(v.Destination), base))
		}
		return gmast.WalkContinue, nil
	})
}

// ResolveURL makes a relative reference absolute against base, a site path
// ending in a slash. Absolute URLs, root relative paths, fragments and
// scheme references such as mailto: or data: are returned unchanged.
func ResolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "?") {
		return ref
	}
	if u, err := url.Parse(ref); err != nil || u.Scheme != "" || u.Host != "" {
		return ref
	}

	p, suffix := ref, ""
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		p, suffix = ref[:i], ref[i:]
	}
	joined := path.Join(base, p)
	if strings.HasSuffix(p, "/") && joined != "/" {
		joined += "/"
	}
	return joined + suffix
}
