package incremental

import (
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/postforge/internal/fingerprint"
)

// SiteInputs are the inputs every rendered artifact depends on besides its
// own members. A change to any of them invalidates every artifact.
type SiteInputs struct {
	// RenderConfig is the subset of configuration that affects output bytes.
	RenderConfig any
	// Templates fingerprints the layout directory.
	Templates fingerprint.Fingerprint
	// Categories fingerprints every category description file.
	Categories fingerprint.Fingerprint
	// Renderer identifies the renderer implementation and version.
	Renderer string
}

// SiteSignature computes a deterministic fingerprint of the site inputs.
func SiteSignature(in SiteInputs) (fingerprint.Fingerprint, error) {
	cfg, err := json.Marshal(in.RenderConfig)
	if err != nil {
		return fingerprint.Zero, fmt.Errorf("failed to marshal render config: %w", err)
	}
	return fingerprint.NewBuilder().
		Add("config", cfg).
		AddString("templates", in.Templates.String()).
		AddString("categories", in.Categories.String()).
		AddString("renderer", in.Renderer).
		Sum(), nil
}
