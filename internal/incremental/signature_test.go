package incremental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/postforge/internal/fingerprint"
)

func TestSiteSignature(t *testing.T) {
	type renderCfg struct {
		Title   string `json:"title"`
		PerPage int    `json:"per_page"`
	}
	base := SiteInputs{
		RenderConfig: renderCfg{Title: "Blog", PerPage: 10},
		Templates:    fingerprint.Sum([]byte("layout")),
		Categories:   fingerprint.Sum([]byte("cats")),
		Renderer:     "html/1",
	}
	want, err := SiteSignature(base)
	require.NoError(t, err)

	again, err := SiteSignature(base)
	require.NoError(t, err)
	assert.Equal(t, want, again)

	tests := map[string]func(*SiteInputs){
		"config":     func(in *SiteInputs) { in.RenderConfig = renderCfg{Title: "Blog", PerPage: 5} },
		"templates":  func(in *SiteInputs) { in.Templates = fingerprint.Sum([]byte("layout v2")) },
		"categories": func(in *SiteInputs) { in.Categories = fingerprint.Sum([]byte("cats v2")) },
		"renderer":   func(in *SiteInputs) { in.Renderer = "html/2" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			in := base
			mutate(&in)
			got, err := SiteSignature(in)
			require.NoError(t, err)
			assert.NotEqual(t, want, got)
		})
	}
}

func TestSiteSignature_UnmarshalableConfig(t *testing.T) {
	_, err := SiteSignature(SiteInputs{RenderConfig: make(chan int)})
	require.Error(t, err)
}
