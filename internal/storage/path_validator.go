package storage

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"unicode"

	"go-bookshelf-api/pkg/apierror"
)

// mediaRoot resolves slash-separated media paths against an absolute root
// directory.
type mediaRoot struct {
	abs string
}

func newMediaRoot(root string) (mediaRoot, error) {
	if strings.TrimSpace(root) == "" {
		return mediaRoot{}, fmt.Errorf("media root cannot be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return mediaRoot{}, fmt.Errorf("resolve media root: %w", err)
	}

	return mediaRoot{abs: abs}, nil
}

// resolve maps clientPath to an absolute path inside the root. An empty path
// or "/" is the root itself. Parent segments, hidden segments and control
// characters are rejected.
func (m mediaRoot) resolve(clientPath string) (string, error) {
	normalized := strings.Trim(strings.ReplaceAll(strings.TrimSpace(clientPath), `\`, "/"), "/")
	if normalized == "" {
		return m.abs, nil
	}

	if strings.ContainsFunc(normalized, unicode.IsControl) {
		return "", invalidPath("media path contains invalid characters", clientPath)
	}

	for _, segment := range strings.Split(normalized, "/") {
		switch {
		case segment == "..":
			return "", invalidPath("media path escapes the media root", clientPath)
		case strings.HasPrefix(segment, "."):
			return "", invalidPath("media path contains a hidden segment", clientPath)
		}
	}

	resolved := filepath.Join(m.abs, filepath.FromSlash(normalized))
	if !m.contains(resolved) {
		return "", invalidPath("media path escapes the media root", clientPath)
	}

	return resolved, nil
}

func (m mediaRoot) contains(candidate string) bool {
	if candidate == m.abs {
		return true
	}
	return strings.HasPrefix(candidate, m.abs+string(filepath.Separator))
}

func invalidPath(message string, clientPath string) error {
	return apierror.New("INVALID_PATH", message, clientPath, http.StatusBadRequest)
}
