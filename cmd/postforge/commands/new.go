package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/postforge/internal/config"
	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
	"git.home.luguber.info/inful/postforge/internal/frontmatter"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Category string   `arg:"" help:"Category directory of the post"`
	Title    string   `arg:"" help:"Post title"`
	Tags     []string `short:"t" help:"Tags for the post"`
	Force    bool     `help:"Overwrite an existing file"`
}

func (n *NewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	path, err := CreatePost(cfg, n.Category, n.Title, n.Tags, time.Now(), n.Force)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", path)
	return nil
}

// CreatePost writes a draft post under the category directory of the
// content root and returns its path.
func CreatePost(cfg *config.Config, category, title string, tags []string, now time.Time, force bool) (string, error) {
	catSlug := fileSlug(category)
	name := fileSlug(title)
	if catSlug == "" || name == "" {
		return "", errors.ValidationError("category and title must contain letters or digits").
			WithContext("category", category).
			WithContext("title", title).
			Build()
	}
	path := filepath.Join(cfg.ContentRoot(), catSlug, name+".md")
	if _, err := os.Stat(path); err == nil && !force {
		return "", errors.ValidationError("post already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	header, err := frontmatter.Scaffold(title, now.Truncate(time.Second), tags)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryInternal, "failed to render post header").Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", errors.WrapError(err, errors.CategoryWrite, "failed to create category directory").
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	if err := os.WriteFile(path, header, 0o644); err != nil {
		return "", errors.WrapError(err, errors.CategoryWrite, "failed to write post").
			WithContext("path", path).
			Build()
	}
	return path, nil
}

// fileSlug lowercases s, strips accents and joins alphanumeric runs with
// hyphens: "Héllo, World!" becomes "hello-world".
func fileSlug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range norm.NFKD.String(s) {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			dash = true
		}
	}
	return b.String()
}
