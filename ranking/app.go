package ranking

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/russross/blackfriday/v2"

	"github.com/lewtec/astrorank/internal/bindings"
	"github.com/lewtec/astrorank/internal/domain"
	"github.com/lewtec/astrorank/internal/repository"
)

// App wires a configuration to a ranking session over one image directory.
type App struct {
	Config    *Config
	Resolver  *bindings.Resolver
	Session   *Session
	Secondary *SecondaryService

	ImagesDir  string
	RankLog    *repository.FileRankLog
	CommentLog *repository.FileRankLog
}

// AppOptions overrides parts of the configuration.
type AppOptions struct {
	// Output replaces output.rankings when set
	Output string
	// CacheFS replaces the on-disk composite cache
	CacheFS billy.Filesystem
	// HTTPClient replaces the provider client
	HTTPClient *http.Client
}

// NewApp validates cfg, builds the manifest of imagesDir and opens the
// session. Every configuration problem is reported before anything is read.
func NewApp(cfg *Config, imagesDir string, opts AppOptions) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolver, err := cfg.Resolver()
	if err != nil {
		return nil, err
	}

	output := cfg.Output.Rankings
	if opts.Output != "" {
		output = opts.Output
	}
	rankLog := repository.NewRankLog(output)
	commentLog := repository.NewCommentLog(repository.CommentLogPath(output))

	manifest, err := BuildManifest(imagesDir, ManifestOptions{
		Extensions: cfg.Images.Extensions,
		Extractor:  cfg.Extractor(),
	}, rankLog, commentLog)
	if err != nil {
		return nil, err
	}
	log.Printf("app: %d images in %s, resuming at %d", len(manifest.Records), manifest.Dir, manifest.Cursor)

	cacheFS := opts.CacheFS
	if cacheFS == nil {
		cacheFS = osfs.New(cfg.Secondary.CacheDir)
	}
	a := &App{
		Config:     cfg,
		Resolver:   resolver,
		Session:    NewSession(manifest, resolver.Scale(), cfg.Output.Navigation, rankLog, commentLog),
		Secondary:  NewSecondaryService(cacheFS, opts.HTTPClient),
		ImagesDir:  manifest.Dir,
		RankLog:    rankLog,
		CommentLog: commentLog,
	}
	a.markCached()
	return a, nil
}

// markCached flags the records whose composite is already on disk.
func (a *App) markCached() {
	p := a.Config.Secondary
	if !p.Enabled {
		return
	}
	for i, rec := range a.Session.Records() {
		if rec.Coords == nil {
			continue
		}
		if a.Secondary.cache.Exists(a.Secondary.cache.Name(p, *rec.Coords)) {
			a.Session.MarkSecondaryFetched(i)
		}
	}
}

// ParseRank accepts a rank trigger token or a literal rank of the scale.
func (a *App) ParseRank(input string) (domain.Rank, error) {
	if outcome, ok := a.Resolver.Resolve(input); ok {
		if outcome.Kind != bindings.KindRank {
			return domain.NoRank, fmt.Errorf("%w: %q triggers %s", ErrInvalidRank, input, outcome)
		}
		return outcome.Rank, nil
	}
	rank, err := domain.ParseRank(input)
	if err != nil {
		return domain.NoRank, fmt.Errorf("%w: %s", ErrInvalidRank, err)
	}
	return rank, nil
}

// FetchSecondary fetches the composite of the record at index and marks it
// on success.
func (a *App) FetchSecondary(ctx context.Context, index int) (*Result, error) {
	rec, err := a.Session.Record(index)
	if err != nil {
		return nil, err
	}
	res, err := a.Secondary.Fetch(ctx, rec, a.Config.Secondary)
	if err != nil {
		return nil, err
	}
	if err := a.Session.MarkSecondaryFetched(index); err != nil {
		return nil, err
	}
	return res, nil
}

// BrowserURL is the survey viewer link of the record at index.
func (a *App) BrowserURL(index int) (string, error) {
	if !a.Config.Browser.Enabled {
		return "", fmt.Errorf("browser links are disabled")
	}
	return a.recordURL(index, a.Config.Browser.URLTemplate)
}

// ViewerURL is the provider viewer link of the record at index.
func (a *App) ViewerURL(index int) (string, error) {
	if a.Config.Secondary.ViewerURLTemplate == "" {
		return "", fmt.Errorf("secondary_download.viewer_url_template is not set")
	}
	return a.recordURL(index, a.Config.Secondary.ViewerURLTemplate)
}

func (a *App) recordURL(index int, template string) (string, error) {
	rec, err := a.Session.Record(index)
	if err != nil {
		return "", err
	}
	if rec.Coords == nil {
		return "", fmt.Errorf("%w: %s", ErrNoCoordinates, rec.Filename)
	}
	return RenderURL(template, *rec.Coords, a.Config.Secondary.Precision), nil
}

// HelpMarkdown lists the key bindings.
func (a *App) HelpMarkdown() string {
	var b strings.Builder
	b.WriteString(a.Resolver.Markdown())
	if a.Config.Secondary.Enabled {
		fmt.Fprintf(&b, "\n## Secondary images\n\n> %s composites are cached in `%s`\n", a.Config.Secondary.Name, a.Config.Secondary.CacheDir)
	}
	return b.String()
}

// HelpHTML renders HelpMarkdown.
func (a *App) HelpHTML() string {
	return string(blackfriday.Run([]byte(a.HelpMarkdown())))
}

// Export writes a snapshot of the session and the raw rank events to db.
func (a *App) Export(ctx context.Context, db *sql.DB) error {
	if err := repository.Migrate(db); err != nil {
		return err
	}
	records := a.Session.Records()
	images := make([]domain.ExportedImage, len(records))
	for i, rec := range records {
		log.Printf("Export: hashing %s", rec.Filename)
		hash, err := HashFile(rec.Path)
		if err != nil {
			return fmt.Errorf("while hashing item '%s': %w", rec.Path, err)
		}
		images[i] = domain.ExportedImage{ImageRecord: rec, SHA256: hash}
	}
	events, err := a.RankLog.Entries()
	if err != nil {
		return err
	}
	log.Printf("Export: writing %d images and %d rank events", len(images), len(events))
	return repository.NewExportRepository(db).Replace(ctx, images, events)
}
