package ranking

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-git/go-billy/v6"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lewtec/astrorank/internal/composite"
	"github.com/lewtec/astrorank/internal/coords"
	"github.com/lewtec/astrorank/internal/domain"
	"github.com/lewtec/astrorank/internal/fits"
)

var (
	// ErrUnavailable is the soft failure of a secondary fetch: network
	// errors, bad statuses, oversized or undecodable payloads and timeouts.
	ErrUnavailable      = errors.New("secondary image unavailable")
	ErrNoCoordinates    = errors.New("image has no coordinates")
	ErrProviderDisabled = errors.New("secondary provider is disabled")
)

// Result is a fetched composite.
type Result struct {
	Image *domain.CompositeImage
	// Path is the cached file on the service filesystem
	Path   string
	Cached bool
}

// FetchOutcome is delivered by FetchAsync.
type FetchOutcome struct {
	Result *Result
	Err    error
}

// SecondaryService retrieves provider composites and keeps them in a disk
// cache. It is safe for concurrent use.
type SecondaryService struct {
	cache  *CompositeCache
	client *http.Client
	group  singleflight.Group
}

// NewSecondaryService stores composites on fs. A nil client gets the logging
// default; per-provider timeouts are always applied on top of it.
func NewSecondaryService(fs billy.Filesystem, client *http.Client) *SecondaryService {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &SecondaryService{cache: NewCompositeCache(fs), client: client}
}

// RenderURL substitutes {ra} and {dec} with fixed precision decimals.
func RenderURL(template string, at domain.Coordinates, precision int) string {
	ra, dec := coords.Format(at, precision)
	return strings.NewReplacer("{ra}", url.QueryEscape(ra), "{dec}", url.QueryEscape(dec)).Replace(template)
}

// CachePath is the cache file of rec for provider p.
func (s *SecondaryService) CachePath(rec domain.ImageRecord, p ProviderConfig) (string, error) {
	if rec.Coords == nil {
		return "", ErrNoCoordinates
	}
	return s.cache.Path(s.cache.Name(p, *rec.Coords)), nil
}

// Fetch returns the composite of rec, from the cache when present. Concurrent
// calls for the same cache entry share one download.
func (s *SecondaryService) Fetch(ctx context.Context, rec domain.ImageRecord, p ProviderConfig) (*Result, error) {
	if !p.Enabled {
		return nil, ErrProviderDisabled
	}
	if rec.Coords == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCoordinates, rec.Filename)
	}
	channels, err := p.ChannelMap()
	if err != nil {
		return nil, err
	}
	name := s.cache.Name(p, *rec.Coords)

	// the download outlives a cancelled caller so the cache still fills
	work := context.WithoutCancel(ctx)
	ch := s.group.DoChan(name, func() (interface{}, error) {
		return s.fetch(work, name, *rec.Coords, p, channels)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := res.Val.(*Result)
		if res.Shared {
			return cloneResult(result), nil
		}
		return result, nil
	}
}

func (s *SecondaryService) fetch(ctx context.Context, name string, at domain.Coordinates, p ProviderConfig, channels composite.ChannelMap) (*Result, error) {
	img, ok, err := s.cache.Load(name)
	if err != nil {
		log.Printf("secondary: ignoring unreadable cache entry: %s", err)
	}
	if ok {
		return &Result{Image: img, Path: s.cache.Path(name), Cached: true}, nil
	}

	target := RenderURL(p.URLTemplate, at, p.Precision)
	payload, err := s.download(ctx, target, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	planes, err := fits.DecodePlanes(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: while decoding payload of %s: %s", ErrUnavailable, target, err)
	}
	img, err = composite.Compose(planes, channels, p.StretchParams())
	if err != nil {
		return nil, fmt.Errorf("%w: while compositing payload of %s: %s", ErrUnavailable, target, err)
	}
	if p.FlipVertical {
		img.FlipVertical()
	}
	if err := s.cache.Store(name, img, p.Format, p.Quality); err != nil {
		return nil, fmt.Errorf("while caching composite '%s': %w", name, err)
	}
	log.Printf("secondary: stored %s", name)
	return &Result{Image: img, Path: s.cache.Path(name)}, nil
}

func (s *SecondaryService) download(ctx context.Context, target string, p ProviderConfig) ([]byte, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d from %s", resp.StatusCode, target)
	}
	limit := p.MaxBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("payload from %s exceeds %d bytes", target, limit)
	}
	return body, nil
}

// FetchAsync runs Fetch in the background. The channel receives exactly one
// outcome and is then closed.
func (s *SecondaryService) FetchAsync(ctx context.Context, rec domain.ImageRecord, p ProviderConfig) <-chan FetchOutcome {
	ret := make(chan FetchOutcome, 1)
	go func() {
		defer close(ret)
		result, err := s.Fetch(ctx, rec, p)
		ret <- FetchOutcome{Result: result, Err: err}
	}()
	return ret
}

// PrefetchReport summarizes a Prefetch run.
type PrefetchReport struct {
	Fetched     int64
	Cached      int64
	Unavailable int64
	Skipped     int64
}

// Prefetch fills the cache for records with at most jobs downloads in
// flight. Soft failures and records without coordinates are counted; any
// other error stops the run. onFetched is called for every available
// composite, possibly from several goroutines.
func (s *SecondaryService) Prefetch(ctx context.Context, records []domain.ImageRecord, p ProviderConfig, jobs int, onFetched func(rec domain.ImageRecord, res *Result)) (*PrefetchReport, error) {
	if jobs < 1 {
		jobs = 1
	}
	var fetched, cached, unavailable, skipped atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, rec := range records {
		if !rec.HasCoords() {
			log.Printf("secondary: skipping %s: no coordinates", rec.Filename)
			skipped.Add(1)
			continue
		}
		g.Go(func() error {
			res, err := s.Fetch(ctx, rec, p)
			switch {
			case errors.Is(err, ErrUnavailable):
				log.Printf("secondary: %s: %s", rec.Filename, err)
				unavailable.Add(1)
				return nil
			case err != nil:
				return fmt.Errorf("while fetching %s: %w", rec.Filename, err)
			}
			if res.Cached {
				cached.Add(1)
			} else {
				fetched.Add(1)
			}
			if onFetched != nil {
				onFetched(rec, res)
			}
			return nil
		})
	}
	err := g.Wait()
	return &PrefetchReport{
		Fetched:     fetched.Load(),
		Cached:      cached.Load(),
		Unavailable: unavailable.Load(),
		Skipped:     skipped.Load(),
	}, err
}

func cloneResult(r *Result) *Result {
	img := *r.Image
	img.Pix = append([]uint8(nil), r.Image.Pix...)
	return &Result{Image: &img, Path: r.Path, Cached: r.Cached}
}
