package ranking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lewtec/astrorank/internal/domain"
)

var (
	ErrInvalidRank     = errors.New("invalid rank")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Session owns the manifest at runtime. It is the only writer of rank,
// comment and fetch state and is not safe for concurrent use.
type Session struct {
	records    []*domain.ImageRecord
	scale      domain.RankScale
	navigation Navigation
	rankLog    domain.RankLog
	commentLog domain.RankLog
	cursor     int
	// commentChanged marks records whose comment was edited since their
	// last submission
	commentChanged map[int]bool
}

// NewSession wraps a manifest. commentLog may be nil when comments are not
// persisted.
func NewSession(m *Manifest, scale domain.RankScale, navigation Navigation, rankLog, commentLog domain.RankLog) *Session {
	if navigation == "" {
		navigation = AdvanceNext
	}
	return &Session{
		records:        m.Records,
		scale:          scale,
		navigation:     navigation,
		rankLog:        rankLog,
		commentLog:     commentLog,
		cursor:         m.Cursor,
		commentChanged: make(map[int]bool),
	}
}

func (s *Session) check(index int) error {
	if index < 0 || index >= len(s.records) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(s.records))
	}
	return nil
}

// Submit records rank for the image at index and returns the next cursor.
// Nothing is changed when the rank is not part of the scale. The in-memory
// record is only updated once the rank log append succeeded. When the rank
// is saved but the comment is not, the rank stands, the cursor still advances
// and the comment stays pending for the next submission of that image.
func (s *Session) Submit(index int, rank domain.Rank) (int, error) {
	if err := s.check(index); err != nil {
		return s.cursor, err
	}
	canonical, err := domain.ParseRank(rank.String())
	if err != nil || !s.scale.Contains(canonical) {
		return s.cursor, fmt.Errorf("%w: %q is not one of %v", ErrInvalidRank, rank, s.scale.Sorted())
	}

	rec := s.records[index]
	entry := domain.RankLogEntry{
		Filename:   rec.Filename,
		Rank:       canonical,
		Comment:    rec.Comment,
		HasComment: true,
	}
	if err := s.rankLog.Append(entry); err != nil {
		return s.cursor, fmt.Errorf("while saving rank of '%s': %w", rec.Filename, err)
	}
	rec.Rank = canonical

	if s.commentLog != nil && (rec.Comment != "" || s.commentChanged[index]) {
		if err := s.commentLog.Append(entry); err != nil {
			s.commentChanged[index] = true
			s.cursor = s.advance(index)
			return s.cursor, fmt.Errorf("rank of '%s' saved, but not its comment: %w", rec.Filename, err)
		}
		delete(s.commentChanged, index)
	}

	s.cursor = s.advance(index)
	return s.cursor, nil
}

func (s *Session) advance(index int) int {
	if s.navigation == AdvanceUnranked {
		if next, ok := s.NextUnranked(index + 1); ok {
			return next
		}
		return len(s.records)
	}
	return index + 1
}

// Clear removes the rank of the image at index by appending a clear marker.
func (s *Session) Clear(index int) error {
	if err := s.check(index); err != nil {
		return err
	}
	rec := s.records[index]
	if err := s.rankLog.Append(domain.RankLogEntry{Filename: rec.Filename}); err != nil {
		return fmt.Errorf("while clearing rank of '%s': %w", rec.Filename, err)
	}
	rec.Rank = domain.NoRank
	return nil
}

// SetComment stores a comment in memory. It is persisted with the next
// submission of the image.
func (s *Session) SetComment(index int, text string) error {
	if err := s.check(index); err != nil {
		return err
	}
	text = strings.Join(strings.FieldsFunc(text, func(r rune) bool {
		return r == '\n' || r == '\r'
	}), " ")
	text = strings.TrimSpace(text)
	rec := s.records[index]
	if rec.Comment != text {
		rec.Comment = text
		s.commentChanged[index] = true
	}
	return nil
}

// MarkSecondaryFetched records that a provider composite exists for index.
func (s *Session) MarkSecondaryFetched(index int) error {
	if err := s.check(index); err != nil {
		return err
	}
	s.records[index].SecondaryFetched = true
	return nil
}

// Cursor is the position chosen by the last submission, or the initial
// manifest cursor.
func (s *Session) Cursor() int {
	return s.cursor
}

// Seek moves the cursor, for navigation actions.
func (s *Session) Seek(index int) error {
	if err := s.check(index); err != nil {
		return err
	}
	s.cursor = index
	return nil
}

func (s *Session) Len() int {
	return len(s.records)
}

// Record returns a copy of the record at index.
func (s *Session) Record(index int) (domain.ImageRecord, error) {
	if err := s.check(index); err != nil {
		return domain.ImageRecord{}, err
	}
	return *s.records[index], nil
}

// Records returns copies of every record in manifest order.
func (s *Session) Records() []domain.ImageRecord {
	ret := make([]domain.ImageRecord, len(s.records))
	for i, rec := range s.records {
		ret[i] = *rec
	}
	return ret
}

// Find returns the index of filename.
func (s *Session) Find(filename string) (int, bool) {
	for i, rec := range s.records {
		if rec.Filename == filename {
			return i, true
		}
	}
	return -1, false
}

// NextUnranked returns the first unranked index at or after from.
func (s *Session) NextUnranked(from int) (int, bool) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(s.records); i++ {
		if !s.records[i].Ranked() {
			return i, true
		}
	}
	return -1, false
}

// Progress counts ranked records.
func (s *Session) Progress() (ranked, total int) {
	for _, rec := range s.records {
		if rec.Ranked() {
			ranked++
		}
	}
	return ranked, len(s.records)
}

// Histogram counts records per rank, unranked excluded.
func (s *Session) Histogram() map[domain.Rank]int {
	ret := make(map[domain.Rank]int)
	for _, rec := range s.records {
		if rec.Ranked() {
			ret[rec.Rank]++
		}
	}
	return ret
}

// Scale is the set of ranks Submit accepts.
func (s *Session) Scale() domain.RankScale {
	return s.scale
}
