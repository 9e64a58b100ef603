package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// invalidCharsRegex matches characters that are unsafe in a single filename
var invalidCharsRegex = regexp.MustCompile(`[<>:"|?*\\/\x00-\x1f]`)

// SanitizeFilename turns a user or URL supplied name into a single safe path element
func SanitizeFilename(name string) string {
	name = invalidCharsRegex.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-. ")
	if name == "" {
		return "download"
	}
	return name
}

// SafeJoin joins a slash-separated relative path onto base and refuses
// results that would land outside base.
func SafeJoin(base, rel string) (string, error) {
	if rel == "" || strings.HasPrefix(rel, "/") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative", rel)
	}
	target := filepath.Join(base, filepath.FromSlash(rel))
	relToBase, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	if relToBase == ".." || strings.HasPrefix(relToBase, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %s", rel, base)
	}
	return target, nil
}

// EnsureDir ensures the parent directory of path exists, creating it if necessary
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
