package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)

// pathSanitizer keeps only characters that are safe in every target filesystem.
var pathSanitizer = regexp.MustCompile(`[^-a-zA-Z0-9_.() /]+`)

// SanitizePath strips characters that are unsafe in file or directory names.
// The allowed set matches what the remote platform uses in its own slugs.
func SanitizePath(name string) string {
	return pathSanitizer.ReplaceAllString(name, "")
}

// Slugify lowercases a title and joins its words with hyphens, producing a
// directory-name fallback for entities without a slug.
func Slugify(title string) string {
	return SanitizePath(strings.ReplaceAll(strings.ToLower(title), " ", "-"))
}

// EnsureDir creates the directory if it doesn't exist.
func EnsureDir(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// SaveText writes content to path, creating parent directories as needed.
// When overwrite is false and the file already exists the write is skipped;
// the returned bool reports whether a write actually happened.
func SaveText(path, content string, overwrite bool) (bool, error) {
	if !overwrite && FileExists(path) {
		return false, nil
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return false, fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), DefaultFilePermissions); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}

// URLBasename returns the last path segment of a URL, with any query string
// removed, sanitized for use as a local filename.
func URLBasename(url string) string {
	name := url
	if idx := strings.Index(name, "?"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return SanitizePath(name)
}
