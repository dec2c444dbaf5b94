package history

import (
	"context"
	"log/slog"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/postforge/internal/build"
	"git.home.luguber.info/inful/postforge/internal/logfields"
)

// Revision returns the HEAD commit of the git repository containing dir,
// or "" when dir is not inside a repository.
func Revision(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	ref, err := repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}

// Hook records every completed pass, stamped with the content revision.
type Hook struct {
	store   *Store
	repoDir string
}

// NewHook returns a build.Hook writing to store. repoDir is the directory
// whose git HEAD is recorded with each pass.
func NewHook(store *Store, repoDir string) *Hook {
	return &Hook{store: store, repoDir: repoDir}
}

// PassCompleted implements build.Hook.
func (h *Hook) PassCompleted(ctx context.Context, res *build.Result) {
	rev := Revision(h.repoDir)
	if err := h.store.Append(context.WithoutCancel(ctx), FromResult(res, rev)); err != nil {
		slog.Warn("Failed to record build history", logfields.PassID(res.PassID), logfields.Error(err))
		return
	}
	slog.Debug("Recorded build history", logfields.PassID(res.PassID), logfields.Revision(rev))
}

var _ build.Hook = (*Hook)(nil)
