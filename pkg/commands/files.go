package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultSearchDepth   = 4
	defaultSearchResults = 5
)

var errSearchLimit = errors.New("search limit reached")

// FindFileHandler looks for files by name under a fixed set of roots.
type FindFileHandler struct {
	roots      []string
	maxDepth   int
	maxResults int
}

func NewFindFileHandler(roots []string) *FindFileHandler {
	clean := make([]string, 0, len(roots))
	for _, r := range roots {
		if r = strings.TrimSpace(r); r != "" {
			clean = append(clean, filepath.Clean(r))
		}
	}
	return &FindFileHandler{
		roots:      clean,
		maxDepth:   defaultSearchDepth,
		maxResults: defaultSearchResults,
	}
}

func (h *FindFileHandler) Name() string { return "find_file" }

func (h *FindFileHandler) Match(lower string) bool {
	return strings.Contains(lower, "find file") || strings.Contains(lower, "search file")
}

func (h *FindFileHandler) Execute(ctx context.Context, text string) *Result {
	name := stripAll(strings.ToLower(text), "find file", "search file")
	if name == "" {
		return Reply("What file should I find?")
	}

	matches, err := h.search(ctx, name)
	if err != nil {
		return Failed(fmt.Sprintf("I couldn't finish searching for %s: %v", name, err), err)
	}
	where := h.describeRoots()
	if len(matches) == 0 {
		return Reply(fmt.Sprintf("I couldn't find any file matching %s in %s.", name, where))
	}
	return Reply(fmt.Sprintf("I found %d file(s) matching %s in %s: %s", len(matches), name, where, strings.Join(matches, ", ")))
}

// search walks every root up to maxDepth and collects paths whose base
// name contains needle, stopping after maxResults.
func (h *FindFileHandler) search(ctx context.Context, needle string) ([]string, error) {
	var matches []string
	for _, root := range h.roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		baseDepth := strings.Count(root, string(filepath.Separator))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				if strings.Count(path, string(filepath.Separator))-baseDepth >= h.maxDepth {
					return fs.SkipDir
				}
				return nil
			}
			if strings.Contains(strings.ToLower(d.Name()), needle) {
				matches = append(matches, path)
				if len(matches) >= h.maxResults {
					return errSearchLimit
				}
			}
			return nil
		})
		if errors.Is(err, errSearchLimit) {
			return matches, nil
		}
		if err != nil {
			return matches, err
		}
	}
	return matches, nil
}

func (h *FindFileHandler) describeRoots() string {
	names := make([]string, 0, len(h.roots))
	for _, r := range h.roots {
		names = append(names, filepath.Base(r))
	}
	switch len(names) {
	case 0:
		return "the configured folders"
	case 1:
		return "your " + names[0]
	default:
		return "your " + strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
