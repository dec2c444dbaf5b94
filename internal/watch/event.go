// Package watch turns file system changes into build passes. A Loop
// consumes a bounded channel of events, debounces bursts and runs at most
// one pass at a time.
package watch

import (
	"path/filepath"
	"strings"
	"time"
)

// Op is the kind of file system change.
type Op uint8

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

func (o Op) String() string {
	var parts []string
	for _, n := range []struct {
		op   Op
		name string
	}{{OpCreate, "create"}, {OpWrite, "write"}, {OpRemove, "remove"}, {OpRename, "rename"}, {OpChmod, "chmod"}} {
		if o&n.op != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Event is one change notification. Force requests a full pass regardless
// of the path.
type Event struct {
	Path  string
	Op    Op
	At    time.Time
	Force bool
}

// Class says which input a path belongs to.
type Class int

const (
	ClassIgnored Class = iota
	ClassContent
	ClassStatic
	ClassTemplate
	ClassConfig
)

func (c Class) String() string {
	switch c {
	case ClassContent:
		return "content"
	case ClassStatic:
		return "static"
	case ClassTemplate:
		return "template"
	case ClassConfig:
		return "config"
	}
	return "ignored"
}

// Roots are the watched inputs of a site.
type Roots struct {
	Content   string
	Templates string
	Static    string
	Config    string
}

// Classifier maps paths to their input class.
type Classifier struct {
	roots Roots
}

// NewClassifier returns a classifier for the absolute form of roots.
func NewClassifier(roots Roots) *Classifier {
	abs := func(p string) string {
		if p == "" {
			return ""
		}
		if a, err := filepath.Abs(p); err == nil {
			return a
		}
		return filepath.Clean(p)
	}
	return &Classifier{roots: Roots{
		Content:   abs(roots.Content),
		Templates: abs(roots.Templates),
		Static:    abs(roots.Static),
		Config:    abs(roots.Config),
	}}
}

// Classify returns the class of p. Paths outside every root are ignored.
func (c *Classifier) Classify(p string) Class {
	if a, err := filepath.Abs(p); err == nil {
		p = a
	}
	switch {
	case c.roots.Config != "" && p == c.roots.Config:
		return ClassConfig
	case within(p, c.roots.Templates):
		return ClassTemplate
	case within(p, c.roots.Static):
		return ClassStatic
	case within(p, c.roots.Content):
		return ClassContent
	}
	return ClassIgnored
}

func within(p, root string) bool {
	if root == "" {
		return false
	}
	return p == root || strings.HasPrefix(p, root+string(filepath.Separator))
}
