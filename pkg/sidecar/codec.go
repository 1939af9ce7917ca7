// Package sidecar reads and writes the comma separated tag files stored next
// to every image of a dataset.
package sidecar

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	Extension = ".txt"
	Separator = ", "
)

// Parse splits content on bare commas, trims every token and drops empty
// ones. Repeated names keep their first position only.
func Parse(content string) []string {
	tokens := strings.Split(content, ",")
	names := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))

	for _, token := range tokens {
		name := strings.TrimSpace(token)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names
}

// Format joins names the way they are stored on disk.
func Format(names []string) string {
	return strings.Join(names, Separator)
}

// Validate checks that name survives a Format/Parse round trip unchanged.
func Validate(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	if strings.Contains(name, ",") {
		return fmt.Errorf("tag name '%s' must not contain a comma", name)
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("tag name '%s' must not start or end with whitespace", name)
	}
	return nil
}

// Normalize trims surrounding whitespace from name and validates the result.
func Normalize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := Validate(name); err != nil {
		return "", err
	}
	return name, nil
}

// PathFor returns the sidecar location of an image relative to root.
func PathFor(root, imagePath string) string {
	base := filepath.Base(imagePath)
	return filepath.Join(root, strings.TrimSuffix(base, filepath.Ext(base))+Extension)
}

// Read parses the sidecar at path. A missing file yields no tags and no error.
func Read(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sidecar %s: %w", path, err)
	}

	return Parse(string(data)), nil
}

// Write replaces the sidecar at path with names. The content is written to
// a temporary file in the same directory first and renamed into place.
func Write(path string, names []string) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	if err := os.WriteFile(tmp, []byte(Format(names)), 0644); err != nil {
		return fmt.Errorf("failed to write sidecar %s: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace sidecar %s: %w", path, err)
	}

	return nil
}

// Touch creates an empty sidecar at path unless one already exists.
func Touch(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("failed to create sidecar %s: %w", path, err)
	}
	return file.Close()
}
