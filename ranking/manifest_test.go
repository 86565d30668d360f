package ranking

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lewtec/astrorank/internal/coords"
	"github.com/lewtec/astrorank/internal/repository"
)

// imageDir creates empty files named after names in a fresh directory.
func imageDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("jpeg:"+name), 0644); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
	return dir
}

var jpgOnly = ManifestOptions{Extensions: []string{".jpg"}}

func TestBuildManifest(t *testing.T) {
	t.Run("lexicographic order, extension filter and coordinates", func(t *testing.T) {
		dir := imageDir(t, "c.jpg", "img_10.5_-3.25.JPG", "a.jpg", "notes.txt", "b.png")
		if err := os.Mkdir(filepath.Join(dir, "sub.jpg"), 0755); err != nil {
			t.Fatal(err)
		}
		m, err := BuildManifest(dir, jpgOnly, nil, nil)
		if err != nil {
			t.Fatalf("BuildManifest() error = %v", err)
		}
		want := []string{"a.jpg", "c.jpg", "img_10.5_-3.25.JPG"}
		if len(m.Records) != len(want) {
			t.Fatalf("len(Records) = %d, want %d", len(m.Records), len(want))
		}
		for i, name := range want {
			if m.Records[i].Filename != name {
				t.Errorf("Records[%d] = %v, want %v", i, m.Records[i].Filename, name)
			}
			if !filepath.IsAbs(m.Records[i].Path) {
				t.Errorf("Path %v should be absolute", m.Records[i].Path)
			}
		}
		if m.Records[0].Coords != nil {
			t.Errorf("a.jpg Coords = %v, want nil", m.Records[0].Coords)
		}
		if c := m.Records[2].Coords; c == nil || c.RA != 10.5 || c.Dec != -3.25 {
			t.Errorf("Coords = %v, want (10.5, -3.25)", c)
		}
		if m.Cursor != 0 {
			t.Errorf("Cursor = %d, want 0", m.Cursor)
		}
	})

	t.Run("an oversized log line does not stop the resume", func(t *testing.T) {
		dir := imageDir(t, "a_1_2.jpg", "b_3_4.jpg", "c.jpg")
		logPath := filepath.Join(t.TempDir(), "rankings.txt")
		content := "a_1_2.jpg 1\n" + strings.Repeat("#", 2<<20) + "\nb_3_4.jpg 2\n"
		if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		m, err := BuildManifest(dir, jpgOnly, repository.NewRankLog(logPath), nil)
		if err != nil {
			t.Fatalf("BuildManifest() error = %v", err)
		}
		if m.Records[0].Rank != "1" || m.Records[1].Rank != "2" {
			t.Errorf("ranks = %v, %v, want 1, 2", m.Records[0].Rank, m.Records[1].Rank)
		}
		if m.Cursor != 2 {
			t.Errorf("Cursor = %d, want 2", m.Cursor)
		}
	})

	t.Run("resume keeps the last entry per file", func(t *testing.T) {
		dir := imageDir(t, "a.jpg", "b.jpg", "c.jpg")
		logPath := filepath.Join(t.TempDir(), "rankings.txt")
		if err := os.WriteFile(logPath, []byte("a.jpg 1\nb.jpg 2\na.jpg 3\ngone.jpg 1\n"), 0644); err != nil {
			t.Fatal(err)
		}
		m, err := BuildManifest(dir, jpgOnly, repository.NewRankLog(logPath), nil)
		if err != nil {
			t.Fatalf("BuildManifest() error = %v", err)
		}
		if m.Records[0].Rank != "3" {
			t.Errorf("a.jpg Rank = %v, want 3", m.Records[0].Rank)
		}
		if m.Records[1].Rank != "2" {
			t.Errorf("b.jpg Rank = %v, want 2", m.Records[1].Rank)
		}
		if m.Cursor != 2 {
			t.Errorf("Cursor = %d, want 2", m.Cursor)
		}

		again, err := BuildManifest(dir, jpgOnly, repository.NewRankLog(logPath), nil)
		if err != nil {
			t.Fatalf("BuildManifest() error = %v", err)
		}
		for i := range m.Records {
			if *m.Records[i] != *again.Records[i] {
				t.Errorf("rebuild differs at %d: %+v vs %+v", i, m.Records[i], again.Records[i])
			}
		}
	})

	t.Run("clear markers and comments", func(t *testing.T) {
		dir := imageDir(t, "a.jpg", "b.jpg")
		logPath := filepath.Join(t.TempDir(), "rankings.txt")
		if err := os.WriteFile(logPath, []byte("a.jpg 1\nb.jpg 2\na.jpg\n"), 0644); err != nil {
			t.Fatal(err)
		}
		commentPath := repository.CommentLogPath(logPath)
		if err := os.WriteFile(commentPath, []byte("b.jpg 2 bright core\na.jpg 1 old\na.jpg 1\n"), 0644); err != nil {
			t.Fatal(err)
		}
		m, err := BuildManifest(dir, jpgOnly, repository.NewRankLog(logPath), repository.NewCommentLog(commentPath))
		if err != nil {
			t.Fatalf("BuildManifest() error = %v", err)
		}
		if m.Records[0].Ranked() {
			t.Errorf("a.jpg Rank = %v, want cleared", m.Records[0].Rank)
		}
		if m.Records[0].Comment != "" {
			t.Errorf("a.jpg Comment = %q, want the later empty comment", m.Records[0].Comment)
		}
		if m.Records[1].Comment != "bright core" {
			t.Errorf("b.jpg Comment = %q, want %q", m.Records[1].Comment, "bright core")
		}
		if m.Cursor != 0 {
			t.Errorf("Cursor = %d, want 0", m.Cursor)
		}
	})

	t.Run("everything ranked starts at zero", func(t *testing.T) {
		dir := imageDir(t, "a.jpg", "b.jpg")
		logPath := filepath.Join(t.TempDir(), "rankings.txt")
		if err := os.WriteFile(logPath, []byte("a.jpg\t1\nb.jpg\t0\n"), 0644); err != nil {
			t.Fatal(err)
		}
		m, err := BuildManifest(dir, jpgOnly, repository.NewRankLog(logPath), nil)
		if err != nil {
			t.Fatalf("BuildManifest() error = %v", err)
		}
		if m.Cursor != 0 {
			t.Errorf("Cursor = %d, want 0", m.Cursor)
		}
	})

	t.Run("whitespace in names is skipped", func(t *testing.T) {
		dir := imageDir(t, "a b.jpg", "c.jpg")
		m, err := BuildManifest(dir, jpgOnly, nil, nil)
		if err != nil {
			t.Fatalf("BuildManifest() error = %v", err)
		}
		if len(m.Records) != 1 || m.Records[0].Filename != "c.jpg" {
			t.Errorf("Records = %v, want only c.jpg", m.Records)
		}
	})

	t.Run("sexagesimal names when enabled", func(t *testing.T) {
		dir := imageDir(t, "J123045.60+121500.0.jpg")
		m, err := BuildManifest(dir, ManifestOptions{Extensions: []string{".jpg"}, Extractor: coords.Extractor{Sexagesimal: true}}, nil, nil)
		if err != nil {
			t.Fatalf("BuildManifest() error = %v", err)
		}
		if m.Records[0].Coords == nil {
			t.Error("Coords should be parsed")
		}
	})
}

func TestBuildManifest_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := BuildManifest(filepath.Join(t.TempDir(), "nope"), jpgOnly, nil, nil)
		if !errors.Is(err, ErrDirectoryNotFound) {
			t.Errorf("BuildManifest() error = %v, want ErrDirectoryNotFound", err)
		}
	})

	t.Run("no images", func(t *testing.T) {
		_, err := BuildManifest(imageDir(t, "readme.txt"), jpgOnly, nil, nil)
		if !errors.Is(err, ErrNoImages) {
			t.Errorf("BuildManifest() error = %v, want ErrNoImages", err)
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		dir := imageDir(t, "a.jpg")
		_, err := BuildManifest(filepath.Join(dir, "a.jpg"), jpgOnly, nil, nil)
		if !errors.Is(err, ErrDirectoryNotFound) {
			t.Errorf("BuildManifest() error = %v, want ErrDirectoryNotFound", err)
		}
	})
}
