// Package source fetches project files from a git repository at a tag.
package source

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Ref addresses a repository and an optional tag: github.com/org/repo@v1.2.3.
type Ref struct {
	Repository string
	Tag        string
}

// ParseRef parses <repository>[@<tag>].
func ParseRef(s string) (Ref, error) {
	repo, tag, found := strings.Cut(strings.TrimSpace(s), "@")
	if repo == "" {
		return Ref{}, fmt.Errorf("invalid git reference %q: repository is missing", s)
	}
	if found && tag == "" {
		return Ref{}, fmt.Errorf("invalid git reference %q: tag is empty", s)
	}
	return Ref{Repository: repo, Tag: tag}, nil
}

// URL returns the clone URL. Repositories without a scheme are cloned over https.
func (r Ref) URL() string {
	if strings.Contains(r.Repository, "://") {
		return r.Repository
	}
	return "https://" + r.Repository
}

func (r Ref) String() string {
	if r.Tag == "" {
		return r.Repository
	}
	return r.Repository + "@" + r.Tag
}

// Checkout clones ref into dir and checks out its tag.
func Checkout(ctx context.Context, ref Ref, dir string) error {
	slog.With("repository", ref.Repository, "dir", dir).InfoContext(ctx, "Cloning repository")

	var out bytes.Buffer
	r, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:      ref.URL(),
		Progress: &out,
	})
	slog.DebugContext(ctx, "Git clone output", "output", out.String())
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	if ref.Tag == "" {
		return nil
	}

	w, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	err = w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewTagReferenceName(ref.Tag),
	})
	if err != nil {
		return fmt.Errorf("failed to checkout tag %s: %w", ref.Tag, err)
	}
	return nil
}

// Fetch checks ref out into a temporary directory and returns the paths of files below it.
// cleanup removes the directory.
func Fetch(ctx context.Context, ref Ref, files []string) (paths []string, cleanup func(), err error) {
	tmp, err := os.MkdirTemp("", "crd-schema-gen")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(tmp) }

	if err := Checkout(ctx, ref, tmp); err != nil {
		cleanup()
		return nil, nil, err
	}

	for _, f := range files {
		if !filepath.IsLocal(f) {
			cleanup()
			return nil, nil, fmt.Errorf("file %s is not inside the repository", f)
		}
		paths = append(paths, filepath.Join(tmp, f))
	}
	return paths, cleanup, nil
}
