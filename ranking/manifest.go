package ranking

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lewtec/astrorank/internal/coords"
	"github.com/lewtec/astrorank/internal/domain"
)

var (
	ErrDirectoryNotFound = errors.New("image directory not found")
	ErrNoImages          = errors.New("no eligible images")
)

// Manifest is the ordered record list of one session plus its starting cursor.
type Manifest struct {
	Dir     string
	Records []*domain.ImageRecord
	Cursor  int
}

// ManifestOptions tunes the directory scan.
type ManifestOptions struct {
	Extensions []string
	Extractor  coords.Extractor
}

// BuildManifest scans dir and merges the folded rank and comment logs into
// the records. Unknown filenames in the logs are ignored.
func BuildManifest(dir string, opts ManifestOptions, rankLog, commentLog domain.RankLog) (*Manifest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("while resolving '%s': %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}

	names, err := listImages(abs, opts.Extensions)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s (extensions %s)", ErrNoImages, dir, strings.Join(opts.Extensions, ", "))
	}

	m := &Manifest{Dir: abs, Records: make([]*domain.ImageRecord, len(names))}
	index := make(map[string]*domain.ImageRecord, len(names))
	for i, name := range names {
		rec := &domain.ImageRecord{
			Filename: name,
			Path:     filepath.Join(abs, name),
			Coords:   opts.Extractor.Extract(name),
		}
		m.Records[i] = rec
		index[name] = rec
	}

	if rankLog != nil {
		entries, err := rankLog.Entries()
		if err != nil {
			return nil, fmt.Errorf("while loading rank log: %w", err)
		}
		for name, entry := range domain.Fold(entries) {
			if rec, ok := index[name]; ok {
				rec.Rank = entry.Rank
			}
		}
	}
	if commentLog != nil {
		entries, err := commentLog.Entries()
		if err != nil {
			return nil, fmt.Errorf("while loading comment log: %w", err)
		}
		for name, entry := range domain.Fold(entries) {
			if rec, ok := index[name]; ok && entry.HasComment {
				rec.Comment = entry.Comment
			}
		}
	}

	m.Cursor = firstUnranked(m.Records)
	return m, nil
}

func listImages(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("while listing '%s': %w", dir, err)
	}
	var ret []string
	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), extensions) {
			continue
		}
		if strings.ContainsAny(entry.Name(), " \t\r\n") {
			log.Printf("manifest: skipping '%s': whitespace in file names cannot be stored in the rank log", entry.Name())
			continue
		}
		ret = append(ret, entry.Name())
	}
	sort.Strings(ret)
	return ret, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := filepath.Ext(name)
	for _, candidate := range extensions {
		if strings.EqualFold(ext, candidate) {
			return true
		}
	}
	return false
}

func firstUnranked(records []*domain.ImageRecord) int {
	for i, rec := range records {
		if !rec.Ranked() {
			return i
		}
	}
	return 0
}
