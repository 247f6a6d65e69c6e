// Package export turns generated file maps into artifacts on disk: a single
// zip archive preserving the path hierarchy, or an expanded directory tree.
package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	buildrerrors "github.com/buildr-dev/buildr/internal/errors"
	"github.com/buildr-dev/buildr/internal/generator"
)

// Zip serializes a {path: content} file map into a single zip archive.
// Entries are written in sorted path order so the same file map always
// produces the same archive layout. Nested folders come from the
// forward-slash segments of each key. Any archiving failure is wrapped into
// one descriptive error and nothing partial is returned.
func Zip(files map[string]string, projectName string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, path := range generator.SortedPaths(files) {
		entry, err := w.Create(path)
		if err != nil {
			_ = w.Close()
			return nil, &buildrerrors.ExportError{Project: projectName, Err: err}
		}
		if _, err := entry.Write([]byte(files[path])); err != nil {
			_ = w.Close()
			return nil, &buildrerrors.ExportError{Project: projectName, Err: err}
		}
	}

	if err := w.Close(); err != nil {
		return nil, &buildrerrors.ExportError{Project: projectName, Err: err}
	}
	return buf.Bytes(), nil
}

// ZipToFile archives the file map and writes it to outDir as
// <sanitized-project-name>.zip, returning the written path.
func ZipToFile(files map[string]string, projectName, outDir string) (string, error) {
	data, err := Zip(files, projectName)
	if err != nil {
		return "", err
	}

	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", &buildrerrors.ExportError{Project: projectName, Err: err}
	}

	path := filepath.Join(outDir, generator.SanitizeName(projectName)+".zip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &buildrerrors.ExportError{Project: projectName, Err: err}
	}
	return path, nil
}

// WriteFile writes a single generated file, creating parent directories as
// needed. It is the non-archive counterpart of the zip path.
func WriteFile(content, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriteTree expands a file map under root, one file per map entry.
func WriteTree(files map[string]string, root string) error {
	for _, path := range generator.SortedPaths(files) {
		if err := WriteFile(files[path], filepath.Join(root, filepath.FromSlash(path))); err != nil {
			return err
		}
	}
	return nil
}
