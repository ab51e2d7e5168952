package validate

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Sandbox resolves destination directories and guarantees they stay inside
// Root.
type Sandbox struct {
	root    string
	toolDir string
}

// NewSandbox builds a sandbox rooted at root. toolDir names the default
// folder under root/Downloads.
func NewSandbox(root, toolDir string) (*Sandbox, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("sandbox root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving sandbox root: %w", err)
	}
	if toolDir == "" {
		toolDir = "yt-dlp"
	}
	return &Sandbox{root: filepath.Clean(abs), toolDir: toolDir}, nil
}

func (s *Sandbox) Root() string {
	return s.root
}

// DefaultDir is returned by Resolve when no destination is given.
func (s *Sandbox) DefaultDir() string {
	return filepath.Join(s.root, "Downloads", s.toolDir)
}

// Resolve expands and normalises raw and returns it only if it is the root
// or one of its descendants. Relative paths are taken relative to the root.
func (s *Sandbox) Resolve(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return s.DefaultDir(), nil
	}
	if utf8.RuneCountInString(raw) > MaxPathLength {
		return "", reject("destination_path", "path exceeds maximum length of %d characters", MaxPathLength)
	}
	if r, found := ContainsDangerous(raw); found {
		return "", reject("destination_path", "path contains forbidden character %q", r)
	}

	p := raw
	switch {
	case p == "~":
		p = s.root
	case strings.HasPrefix(p, "~/"), strings.HasPrefix(p, `~\`):
		p = filepath.Join(s.root, p[2:])
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.root, p)
	}
	p = filepath.Clean(p)

	if !s.contains(p) {
		return "", reject("destination_path", "path %q is outside of %s", p, s.root)
	}
	return p, nil
}

func (s *Sandbox) contains(p string) bool {
	if p == s.root {
		return true
	}
	prefix := s.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
