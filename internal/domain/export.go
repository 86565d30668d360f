package domain

import "context"

// ExportedImage is an image record as stored in the export database.
type ExportedImage struct {
	ImageRecord
	SHA256 string
}

// RankCount is one bucket of the rank histogram.
type RankCount struct {
	Rank  Rank
	Count int
}

// ExportRepository defines the storage operations for the SQLite snapshot
// of a ranking session
type ExportRepository interface {
	// Replace swaps the stored snapshot for images and the raw rank events
	Replace(ctx context.Context, images []ExportedImage, events []RankLogEntry) error

	// ListByRank returns the images holding rank, NoRank meaning unranked
	ListByRank(ctx context.Context, rank Rank) ([]ExportedImage, error)

	// GetByFilename returns nil when the image is not in the snapshot
	GetByFilename(ctx context.Context, filename string) (*ExportedImage, error)

	// CountByRank returns the rank histogram, unranked images excluded
	CountByRank(ctx context.Context) ([]RankCount, error)

	// History returns the raw events for filename in append order
	History(ctx context.Context, filename string) ([]RankLogEntry, error)
}
