// Package frontmatter splits documents into a YAML header and a Markdown body
// and decodes the header into the closed Metadata record.
package frontmatter

import (
	"bytes"
	"errors"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// ErrMissingFrontmatter indicates a post without a `---` delimited header.
var ErrMissingFrontmatter = errors.New("document has no yaml frontmatter")

// Split separates YAML frontmatter (`---` delimited) from the Markdown body.
//
// If the document does not start with a YAML frontmatter delimiter, had is false
// and body is the full input.
func Split(content []byte) (header []byte, body []byte, had bool, err error) {
	nl := detectNewline(content)
	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}

	headerStart := len(open)
	closeLine := []byte("---" + nl)
	if bytes.HasPrefix(content[headerStart:], closeLine) {
		return []byte{}, content[headerStart+len(closeLine):], true, nil
	}

	closeSeq := []byte(nl + "---")
	idx := bytes.Index(content[headerStart:], closeSeq)
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	headerEnd := headerStart + idx + len(nl)
	bodyStart := headerStart + idx + len(closeSeq)
	rest := content[bodyStart:]
	switch {
	case len(rest) == 0:
	case bytes.HasPrefix(rest, []byte(nl)):
		bodyStart += len(nl)
	default:
		// "---" followed by more text on the same line is not a delimiter.
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return content[headerStart:headerEnd], content[bodyStart:], true, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
