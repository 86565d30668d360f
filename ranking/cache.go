package ranking

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path"

	"github.com/go-git/go-billy/v6"
	"github.com/google/uuid"

	"github.com/lewtec/astrorank/internal/coords"
	"github.com/lewtec/astrorank/internal/domain"
)

// CompositeCache stores encoded composites on a billy filesystem, keyed by
// provider name and coordinates.
type CompositeCache struct {
	fs billy.Filesystem
}

func NewCompositeCache(fs billy.Filesystem) *CompositeCache {
	return &CompositeCache{fs: fs}
}

// Name is the deterministic file name of a composite:
// <provider>_<ra>_<dec>.<ext>.
func (c *CompositeCache) Name(p ProviderConfig, at domain.Coordinates) string {
	ra, dec := coords.Format(at, p.Precision)
	return fmt.Sprintf("%s_%s_%s%s", p.Name, ra, dec, FormatExtension(p.Format))
}

// Path is where Name lives on the underlying filesystem.
func (c *CompositeCache) Path(name string) string {
	return c.fs.Join(c.fs.Root(), name)
}

// Exists reports whether name is cached.
func (c *CompositeCache) Exists(name string) bool {
	_, err := c.fs.Stat(name)
	return err == nil
}

// Load decodes a cached composite. ok is false when the file is absent.
func (c *CompositeCache) Load(name string) (img *domain.CompositeImage, ok bool, err error) {
	f, err := c.fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer f.Close()
	decoded, err := DecodeImage(f)
	if err != nil {
		return nil, false, fmt.Errorf("while decoding cached composite '%s': %w", name, err)
	}
	return domain.CompositeFromImage(decoded), true, nil
}

// Store encodes img under a temporary name and renames it into place so a
// reader never sees a partial file.
func (c *CompositeCache) Store(name string, img image.Image, format string, quality int) (err error) {
	if dir := path.Dir(name); dir != "." {
		if err := c.fs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tempFile := path.Join(path.Dir(name), fmt.Sprintf(".%s%s", uuid.New(), FormatExtension(format)))
	f, err := c.fs.Create(tempFile)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := c.fs.Remove(tempFile); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
				log.Printf("cache: while removing '%s': %s", tempFile, rerr)
			}
		}
	}()
	if err = EncodeImage(f, img, format, quality); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return c.fs.Rename(tempFile, name)
}
