package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lewtec/astrorank/internal/domain"
)

// querier is the subset of *sql.DB and *sql.Tx the repository needs
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ExportRepository implements domain.ExportRepository on SQLite
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new ExportRepository. The schema must have
// been applied with Migrate.
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Replace swaps the snapshot inside a single transaction.
func (r *ExportRepository) Replace(ctx context.Context, images []domain.ExportedImage, events []domain.RankLogEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("while starting export transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM rank_events"); err != nil {
		return fmt.Errorf("while clearing rank events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM images"); err != nil {
		return fmt.Errorf("while clearing images: %w", err)
	}

	for _, img := range images {
		if err := insertImage(ctx, tx, img); err != nil {
			return fmt.Errorf("while exporting image '%s': %w", img.Filename, err)
		}
	}
	for i, event := range events {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO rank_events (seq, filename, rank, comment) VALUES (?, ?, ?, ?)",
			i+1, event.Filename, nullString(event.Rank.String()), nullComment(event))
		if err != nil {
			return fmt.Errorf("while exporting rank event %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}

func insertImage(ctx context.Context, q querier, img domain.ExportedImage) error {
	var ra, dec sql.NullFloat64
	if img.Coords != nil {
		ra = sql.NullFloat64{Float64: img.Coords.RA, Valid: true}
		dec = sql.NullFloat64{Float64: img.Coords.Dec, Valid: true}
	}
	_, err := q.ExecContext(ctx, `
INSERT INTO images (filename, path, sha256, ra, dec, rank, comment, secondary_fetched)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		img.Filename, img.Path, nullString(img.SHA256), ra, dec,
		nullString(img.Rank.String()), nullString(img.Comment), img.SecondaryFetched)
	return err
}

const selectImage = `SELECT filename, path, sha256, ra, dec, rank, comment, secondary_fetched FROM images `

// ListByRank retrieves the images holding rank ordered by filename.
func (r *ExportRepository) ListByRank(ctx context.Context, rank domain.Rank) ([]domain.ExportedImage, error) {
	var rows *sql.Rows
	var err error
	if rank.IsZero() {
		rows, err = r.db.QueryContext(ctx, selectImage+"WHERE rank IS NULL ORDER BY filename")
	} else {
		rows, err = r.db.QueryContext(ctx, selectImage+"WHERE rank = ? ORDER BY filename", rank.String())
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []domain.ExportedImage
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, *img)
	}
	return ret, rows.Err()
}

// GetByFilename retrieves one image, nil when absent.
func (r *ExportRepository) GetByFilename(ctx context.Context, filename string) (*domain.ExportedImage, error) {
	img, err := scanImage(r.db.QueryRowContext(ctx, selectImage+"WHERE filename = ?", filename))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return img, err
}

// CountByRank retrieves the histogram ordered by rank text.
func (r *ExportRepository) CountByRank(ctx context.Context) ([]domain.RankCount, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT rank, COUNT(*) FROM images WHERE rank IS NOT NULL GROUP BY rank ORDER BY rank")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []domain.RankCount
	for rows.Next() {
		var rank string
		var count int
		if err := rows.Scan(&rank, &count); err != nil {
			return nil, err
		}
		ret = append(ret, domain.RankCount{Rank: domain.Rank(rank), Count: count})
	}
	return ret, rows.Err()
}

// History retrieves the raw events of one image.
func (r *ExportRepository) History(ctx context.Context, filename string) ([]domain.RankLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT rank, comment FROM rank_events WHERE filename = ? ORDER BY seq", filename)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ret []domain.RankLogEntry
	for rows.Next() {
		var rank, comment sql.NullString
		if err := rows.Scan(&rank, &comment); err != nil {
			return nil, err
		}
		ret = append(ret, domain.RankLogEntry{
			Filename:   filename,
			Rank:       domain.Rank(rank.String),
			Comment:    comment.String,
			HasComment: comment.Valid,
		})
	}
	return ret, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanImage(s scanner) (*domain.ExportedImage, error) {
	var img domain.ExportedImage
	var sha, rank, comment sql.NullString
	var ra, dec sql.NullFloat64
	err := s.Scan(&img.Filename, &img.Path, &sha, &ra, &dec, &rank, &comment, &img.SecondaryFetched)
	if err != nil {
		return nil, err
	}
	img.SHA256 = sha.String
	img.Rank = domain.Rank(rank.String)
	img.Comment = comment.String
	if ra.Valid && dec.Valid {
		img.Coords = &domain.Coordinates{RA: ra.Float64, Dec: dec.Float64}
	}
	return &img, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullComment(e domain.RankLogEntry) sql.NullString {
	return sql.NullString{String: e.Comment, Valid: e.HasComment}
}

var _ domain.ExportRepository = (*ExportRepository)(nil)
