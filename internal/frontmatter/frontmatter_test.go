package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	input := []byte("---\nkey: value\n---\n# Title\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\nkey: value\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\nkey: value\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_ClosingDelimiterAtEOF(t *testing.T) {
	fm, body, had, err := Split([]byte("---\nkey: value\n---"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("key: value\n"), fm)
	require.Empty(t, body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestParse(t *testing.T) {
	raw := []byte("---\ntitle: \" Hello \"\ndate: 2025-01-02\ntags: [go, web, go]\ndescription: Intro\n---\nBody\n")

	meta, body, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "Hello", meta.Title)
	require.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), meta.Date)
	require.Equal(t, []string{"go", "web"}, meta.Tags)
	require.Equal(t, "Intro", meta.Description)
	require.False(t, meta.Draft)
	require.Equal(t, []byte("Body\n"), body)
}

func TestParse_CommaSeparatedTagsAndTimestamp(t *testing.T) {
	raw := []byte("---\ntitle: T\ndate: 2025-11-11T10:00:00+02:00\ntags: rust, go\ndraft: true\n---\n")

	meta, _, err := Parse(raw)
	require.NoError(t, err)
	require.Equal(t, []string{"rust", "go"}, meta.Tags)
	require.True(t, meta.Draft)
	_, offset := meta.Date.Zone()
	require.Equal(t, 2*3600, offset)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no header", "# Just markdown\n"},
		{"unterminated", "---\ntitle: x\n"},
		{"bad yaml", "---\ntitle: [x\n---\n"},
		{"missing title", "---\ndate: 2025-01-01\n---\n"},
		{"missing date", "---\ntitle: x\n---\n"},
		{"bad date", "---\ntitle: x\ndate: yesterday\n---\n"},
		{"bad tags", "---\ntitle: x\ndate: 2025-01-01\ntags: {a: b}\n---\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.raw))
			require.Error(t, err)
		})
	}
}

func TestScaffold_ParsesBack(t *testing.T) {
	date := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	out, err := Scaffold("New: Post", date, []string{"a", "b"})
	require.NoError(t, err)

	meta, body, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, "New: Post", meta.Title)
	require.True(t, meta.Date.Equal(date))
	require.Equal(t, []string{"a", "b"}, meta.Tags)
	require.True(t, meta.Draft)
	require.Equal(t, "\n", string(body))
}
