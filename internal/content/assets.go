package content

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/postforge/internal/fingerprint"
)

// Asset is a file copied verbatim into the output tree.
type Asset struct {
	// Target is the slash separated path relative to the output root.
	Target      string
	Source      string
	Fingerprint fingerprint.Fingerprint
}

var contentAssetExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".svg": true, ".ico": true, ".bmp": true, ".avif": true,
	".mp4": true, ".webm": true, ".mp3": true, ".wav": true,
	".pdf": true, ".zip": true, ".tar": true, ".gz": true,
}

// ContentAssets lists media and documents stored next to posts.
func ContentAssets(root string) ([]Asset, error) {
	return collectAssets(root, func(name string) bool {
		return contentAssetExts[strings.ToLower(filepath.Ext(name))]
	})
}

// StaticAssets lists every file of the static directory.
func StaticAssets(root string) ([]Asset, error) {
	return collectAssets(root, func(string) bool { return true })
}

func collectAssets(root string, include func(string) bool) ([]Asset, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var assets []Asset
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != root && IsHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !include(d.Name()) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		assets = append(assets, Asset{
			Target:      filepath.ToSlash(rel),
			Source:      p,
			Fingerprint: fingerprint.Sum(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Target < assets[j].Target })
	return assets, nil
}
