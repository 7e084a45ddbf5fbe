// Package registry keeps the durable list of tracked local paths. The
// storage format is deliberately dumb: UTF-8 text, one home-relative path
// per line, no header. It is independent of any remote backend.
package registry

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/secretsync/internal/common"
)

// Registry is the tracked-path list backed by a flat text file. The file
// is re-read on every call; only one CLI invocation runs at a time by
// convention, so no locking is done.
type Registry struct {
	home string
	path string
}

// PathStatus reports whether a tracked path currently exists on disk.
type PathStatus struct {
	Path   string
	Exists bool
}

// New returns a Registry persisting to file, resolving tracked paths
// against home.
func New(home, file string) *Registry {
	return &Registry{home: home, path: file}
}

// Normalize converts p to the canonical home-relative form used both in
// the registry file and as archive entry names. Accepted inputs: a
// "~/"-prefixed path, an absolute path under home, or a path already
// relative to home. Paths outside home are rejected: they could not be
// restored on pull.
func (r *Registry) Normalize(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("empty path")
	}

	if strings.HasPrefix(p, "~/") {
		p = filepath.Join(r.home, p[2:])
	}

	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.home, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("path %s is outside home directory", p)
		}
		p = rel
	}

	p = filepath.ToSlash(filepath.Clean(p))
	if p == "." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("path %s is outside home directory", p)
	}
	return p, nil
}

// Resolve maps a home-relative tracked path back to an absolute one.
func (r *Registry) Resolve(rel string) string {
	return filepath.Join(r.home, filepath.FromSlash(rel))
}

// Add normalizes p and appends it if absent. Adding an already-tracked
// path is a no-op, not an error; the second return reports whether the
// registry changed.
func (r *Registry) Add(p string) (string, bool, error) {
	rel, err := r.Normalize(p)
	if err != nil {
		return "", false, err
	}

	if _, err := os.Stat(r.Resolve(rel)); err != nil {
		return "", false, fmt.Errorf("%w: %s", common.ErrPathNotFound, rel)
	}

	paths, err := r.List()
	if err != nil {
		return "", false, err
	}
	for _, existing := range paths {
		if existing == rel {
			return rel, false, nil
		}
	}

	return rel, true, r.write(append(paths, rel))
}

// Remove deletes the matching line. Removing an untracked path is not an
// error; the second return distinguishes the two outcomes so the CLI can
// word its message.
func (r *Registry) Remove(p string) (string, bool, error) {
	rel, err := r.Normalize(p)
	if err != nil {
		return "", false, err
	}

	paths, err := r.List()
	if err != nil {
		return "", false, err
	}

	kept := paths[:0]
	removed := false
	for _, existing := range paths {
		if existing == rel {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if !removed {
		return rel, false, nil
	}

	return rel, true, r.write(kept)
}

// List returns the tracked paths in file order. A missing registry file
// means an empty registry.
func (r *Registry) List() ([]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return paths, nil
}

// Status maps every tracked path to its on-disk existence. Missing files
// are reported, never an error.
func (r *Registry) Status() ([]PathStatus, error) {
	paths, err := r.List()
	if err != nil {
		return nil, err
	}

	statuses := make([]PathStatus, 0, len(paths))
	for _, p := range paths {
		_, err := os.Stat(r.Resolve(p))
		statuses = append(statuses, PathStatus{Path: p, Exists: err == nil})
	}
	return statuses, nil
}

// write replaces the registry file atomically: temp file in the same
// directory, then rename.
func (r *Registry) write(paths []string) error {
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tracked-*")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	defer os.Remove(tmp.Name())

	for _, p := range paths {
		if _, err := fmt.Fprintln(tmp, p); err != nil {
			tmp.Close()
			return fmt.Errorf("write registry: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close registry: %w", err)
	}

	return os.Rename(tmp.Name(), r.path)
}
