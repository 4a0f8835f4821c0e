// Package manifest indexes rendered audio files as
// format -> category -> note -> file names.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mrclmr/n2a/internal/note"
)

const DefaultFile = "audio-files.json"

var (
	ErrDirectoryNotFound = errors.New("directory not found")
	ErrMalformedFilename = errors.New("malformed filename")
)

// Manifest maps format -> category -> note -> sorted file names.
type Manifest map[string]map[string]map[string][]string

type Summary struct {
	Format     string
	Categories int
	Notes      int
	Files      int
}

type Options struct {
	Root string
	// Formats maps a format directory name to its file extension.
	Formats map[string]string
	// File is the manifest path relative to Root.
	File string
	// Strict requires the note key of each file name to be a valid note.
	Strict bool
}

// DefaultFormats returns the formats produced by the tone generator.
func DefaultFormats() map[string]string {
	return map[string]string{
		"opus": "opus",
		"mp3":  "mp3",
	}
}

func (o Options) path() string {
	file := o.File
	if file == "" {
		file = DefaultFile
	}
	return filepath.Join(o.Root, file)
}

// NoteKey returns the part of filename before the first '-' or,
// without a dash, before the extension.
func NoteKey(filename string, strict bool) (string, error) {
	key, _, found := strings.Cut(filename, "-")
	if !found {
		key = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	if key == "" {
		return "", fmt.Errorf("%w: '%s' has no note", ErrMalformedFilename, filename)
	}
	if strict {
		if _, err := note.Parse(key); err != nil {
			return "", fmt.Errorf("%w: '%s': %v", ErrMalformedFilename, filename, err)
		}
	}
	return key, nil
}

// Build scans Root. Formats without a directory are left out.
func Build(opts Options) (Manifest, []Summary, error) {
	if err := checkRoot(opts.Root); err != nil {
		return nil, nil, err
	}

	m := make(Manifest)
	var summaries []Summary
	for _, format := range slices.Sorted(maps.Keys(opts.Formats)) {
		formatDir := filepath.Join(opts.Root, format)
		categories, err := listEntries(formatDir, true)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("format directory missing", "dir", formatDir)
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		ext := "." + strings.TrimPrefix(opts.Formats[format], ".")
		summary := Summary{Format: format, Categories: len(categories)}
		byCategory := make(map[string]map[string][]string, len(categories))
		for _, category := range categories {
			files, err := listEntries(filepath.Join(formatDir, category.raw), false)
			if err != nil {
				return nil, nil, err
			}
			byNote := make(map[string][]string)
			for _, file := range files {
				if !strings.EqualFold(filepath.Ext(file.name), ext) {
					continue
				}
				key, err := NoteKey(file.name, opts.Strict)
				if err != nil {
					return nil, nil, fmt.Errorf("%s: %w", filepath.Join(format, category.name), err)
				}
				byNote[key] = append(byNote[key], file.name)
				summary.Files++
			}
			summary.Notes += len(byNote)
			byCategory[category.name] = byNote
		}
		m[format] = byCategory
		summaries = append(summaries, summary)
	}
	return m, summaries, nil
}

// checkRoot fails with ErrDirectoryNotFound unless root is a readable directory.
func checkRoot(root string) error {
	if _, err := os.ReadDir(root); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirectoryNotFound, root, err)
	}
	return nil
}

// Marshal returns the manifest as two space indented JSON.
// Map keys are sorted so equal manifests give equal bytes.
func Marshal(m Manifest) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write replaces path atomically.
func Write(path string, m Manifest) error {
	data, err := Marshal(m)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Rebuild builds the manifest and writes it to Root/File.
// Nothing is written if the build fails.
func Rebuild(opts Options) (Manifest, error) {
	m, summaries, err := Build(opts)
	if err != nil {
		return nil, err
	}
	path := opts.path()
	if err := Write(path, m); err != nil {
		return nil, err
	}
	for _, s := range summaries {
		slog.Info("indexed\t", "format", s.Format,
			"categories", fmt.Sprintf("%d categories", s.Categories),
			"notes", fmt.Sprintf("%d notes", s.Notes),
			"files", fmt.Sprintf("%d files", s.Files),
		)
	}
	slog.Info("saved\t", "path", path)
	return m, nil
}

type entry struct {
	// name is NFC normalized, macOS returns decomposed names.
	name string
	raw  string
}

// listEntries returns the visible directories or regular files in dir sorted by name.
func listEntries(dir string, dirs bool) ([]entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var entries []entry
	for _, e := range dirEntries {
		// Ignore files beginning with '.'
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if dirs != e.IsDir() || (!dirs && !e.Type().IsRegular()) {
			continue
		}
		entries = append(entries, entry{name: norm.NFC.String(e.Name()), raw: e.Name()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return strings.Compare(a.name, b.name)
	})
	return entries, nil
}
