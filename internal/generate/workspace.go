package generate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ListFiles returns the workspace-relative paths of all regular files
// under the workspace, sorted by filepath.WalkDir order. Hidden
// directories (".git", ".stackwright") are skipped. A missing workspace
// yields an empty listing.
func ListFiles(workspace string) ([]string, error) {
	if _, err := os.Stat(workspace); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(workspace, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != workspace && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(workspace, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// CheckExpected verifies that every non-wildcard expected file pattern
// exists in the workspace. Missing files are returned as warning messages;
// patterns containing wildcards are not checked.
func CheckExpected(workspace string, patterns []string) []string {
	var warnings []string
	for _, pattern := range patterns {
		if strings.ContainsAny(pattern, "*?[") {
			continue
		}
		if _, err := os.Stat(filepath.Join(workspace, pattern)); err != nil {
			warnings = append(warnings, "expected file not produced: "+pattern)
		}
	}
	return warnings
}

// ProjectName derives a deployment-safe project name from the workspace
// path: the base directory name, lowercased, with anything outside
// [a-z0-9-] collapsed to hyphens.
func ProjectName(workspace string) string {
	name := strings.ToLower(filepath.Base(filepath.Clean(workspace)))
	var b strings.Builder
	lastHyphen := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen && b.Len() > 0 {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "project"
	}
	return out
}
