package frontmatter

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"
)

// Scaffold renders a new draft post with the given title and date. Keys are
// emitted in a fixed order so generated files are stable.
func Scaffold(title string, date time.Time, tags []string) ([]byte, error) {
	fields := []struct {
		key  string
		node *yaml.Node
	}{
		{"title", scalar("!!str", title)},
		{"date", scalar("!!timestamp", date.Format(time.RFC3339))},
		{"tags", sequence(tags)},
		{"description", scalar("!!str", "")},
		{"draft", scalar("!!bool", "true")},
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		root.Content = append(root.Content, scalar("!!str", f.key), f.node)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n\n")
	return buf.Bytes(), nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func sequence(items []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, item := range items {
		seq.Content = append(seq.Content, scalar("!!str", item))
	}
	return seq
}
