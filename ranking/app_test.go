package ranking

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v6/memfs"

	"github.com/lewtec/astrorank/internal/domain"
	"github.com/lewtec/astrorank/internal/repository"
)

func newTestApp(t *testing.T, cfg *Config, names ...string) *App {
	t.Helper()
	dir := imageDir(t, names...)
	app, err := NewApp(cfg, dir, AppOptions{
		Output:  filepath.Join(t.TempDir(), "rankings.txt"),
		CacheFS: memfs.New(),
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	return app
}

func TestApp_ParseRank(t *testing.T) {
	app := newTestApp(t, DefaultConfig(), "a.jpg")
	tests := []struct {
		input   string
		want    domain.Rank
		wantErr bool
	}{
		{"1", "1", false},
		{"backtick", "0", false},
		{"07", "7", false},
		{"q", domain.NoRank, true},
		{"", domain.NoRank, true},
		{"two words", domain.NoRank, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := app.ParseRank(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRank(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRank) {
				t.Errorf("ParseRank(%q) error = %v, want ErrInvalidRank", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRank(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestApp_Output(t *testing.T) {
	app := newTestApp(t, DefaultConfig(), "a.jpg", "b.jpg")
	if _, err := app.Session.Submit(0, "2"); err != nil {
		t.Fatal(err)
	}
	if got := fileLines(t, app.RankLog.Path()); len(got) != 1 || got[0] != "a.jpg 2" {
		t.Errorf("rank log = %v, want [a.jpg 2]", got)
	}
	if want := repository.CommentLogPath(app.RankLog.Path()); app.CommentLog.Path() != want {
		t.Errorf("comment log = %v, want %v", app.CommentLog.Path(), want)
	}
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keys["quit"] = KeyList{"1"}
	if _, err := NewApp(cfg, imageDir(t, "a.jpg"), AppOptions{CacheFS: memfs.New()}); err == nil {
		t.Fatal("NewApp() should reject conflicting bindings")
	}
}

func TestApp_Secondary(t *testing.T) {
	payload := fitsPayload(t)
	p := newProvider(t, serve(payload))
	cfg := DefaultConfig()
	cfg.Secondary = p.config

	fs := memfs.New()
	dir := imageDir(t, "obj_10.5_-3.25.jpg", "obj_20.0_4.0.jpg", "plain.jpg")
	output := filepath.Join(t.TempDir(), "rankings.txt")
	app, err := NewApp(cfg, dir, AppOptions{Output: output, CacheFS: fs})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	res, err := app.FetchSecondary(context.Background(), 0)
	if err != nil {
		t.Fatalf("FetchSecondary() error = %v", err)
	}
	if res.Cached {
		t.Error("first fetch should hit the network")
	}
	rec, _ := app.Session.Record(0)
	if !rec.SecondaryFetched {
		t.Error("record 0 should be marked as fetched")
	}
	if _, err := app.FetchSecondary(context.Background(), 2); !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("FetchSecondary() error = %v, want ErrNoCoordinates", err)
	}

	t.Run("cached composites are marked on startup", func(t *testing.T) {
		reopened, err := NewApp(cfg, dir, AppOptions{Output: output, CacheFS: fs})
		if err != nil {
			t.Fatalf("NewApp() error = %v", err)
		}
		for i, want := range []bool{true, false, false} {
			rec, _ := reopened.Session.Record(i)
			if rec.SecondaryFetched != want {
				t.Errorf("record %d fetched = %v, want %v", i, rec.SecondaryFetched, want)
			}
		}
	})
}

func TestApp_URLs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Browser.URLTemplate = "https://viewer.example/?ra={ra}&dec={dec}"
	cfg.Secondary.ViewerURLTemplate = "https://wise.example/{ra}/{dec}"
	cfg.Secondary.Precision = 2
	app := newTestApp(t, cfg, "obj_10.5_-3.25.jpg", "plain.jpg")

	got, err := app.BrowserURL(0)
	if err != nil || got != "https://viewer.example/?ra=10.50&dec=-3.25" {
		t.Errorf("BrowserURL() = %v, %v", got, err)
	}
	got, err = app.ViewerURL(0)
	if err != nil || got != "https://wise.example/10.50/-3.25" {
		t.Errorf("ViewerURL() = %v, %v", got, err)
	}
	if _, err := app.BrowserURL(1); !errors.Is(err, ErrNoCoordinates) {
		t.Errorf("BrowserURL() error = %v, want ErrNoCoordinates", err)
	}
	if _, err := app.BrowserURL(5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("BrowserURL() error = %v, want ErrIndexOutOfRange", err)
	}

	app.Config.Browser.Enabled = false
	if _, err := app.BrowserURL(0); err == nil {
		t.Error("BrowserURL() should fail when links are disabled")
	}
}

func TestApp_Help(t *testing.T) {
	app := newTestApp(t, DefaultConfig(), "a.jpg")
	md := app.HelpMarkdown()
	for _, want := range []string{"# Keyboard bindings", "`q`", "Secondary images"} {
		if !strings.Contains(md, want) {
			t.Errorf("HelpMarkdown() does not contain %q", want)
		}
	}
	html := app.HelpHTML()
	if !strings.Contains(html, "<table>") {
		t.Errorf("HelpHTML() has no table:\n%s", html)
	}
}

func TestApp_Export(t *testing.T) {
	app := newTestApp(t, DefaultConfig(), "a.jpg", "b.jpg", "c.jpg")
	for _, step := range []struct {
		index int
		rank  domain.Rank
	}{{0, "1"}, {1, "3"}, {0, "2"}} {
		if _, err := app.Session.Submit(step.index, step.rank); err != nil {
			t.Fatal(err)
		}
	}

	db, err := GetDatabase(":memory:")
	if err != nil {
		t.Fatalf("GetDatabase() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := app.Export(ctx, db); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	// a second export replaces the first
	if err := app.Export(ctx, db); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	repo := repository.NewExportRepository(db)
	counts, err := repo.CountByRank(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := map[domain.Rank]int{}
	for _, c := range counts {
		got[c.Rank] = c.Count
	}
	want := map[domain.Rank]int{"2": 1, "3": 1}
	if len(got) != len(want) {
		t.Errorf("CountByRank() = %v, want %v", counts, want)
	}
	for rank, n := range want {
		if got[rank] != n {
			t.Errorf("count of %q = %d, want %d", rank, got[rank], n)
		}
	}
	unranked, err := repo.ListByRank(ctx, domain.NoRank)
	if err != nil {
		t.Fatal(err)
	}
	if len(unranked) != 1 || unranked[0].Filename != "c.jpg" {
		t.Errorf("ListByRank(NoRank) = %v", unranked)
	}

	img, err := repo.GetByFilename(ctx, "a.jpg")
	if err != nil || img == nil {
		t.Fatalf("GetByFilename() = %v, %v", img, err)
	}
	if img.Rank != "2" || len(img.SHA256) != 64 {
		t.Errorf("a.jpg = %+v", img)
	}
	history, err := repo.History(ctx, "a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].Rank != "1" || history[1].Rank != "2" {
		t.Errorf("History() = %v", history)
	}
}
