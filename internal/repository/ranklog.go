package repository

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/lewtec/astrorank/internal/domain"
)

// FileRankLog implements domain.RankLog on top of a plain text file with one
// whitespace separated entry per line.
type FileRankLog struct {
	path string
	// withComment selects the three column layout of the comment log
	withComment bool
}

// NewRankLog opens the rank log at path. The file is created lazily on the
// first append.
func NewRankLog(path string) *FileRankLog {
	return &FileRankLog{path: path}
}

// NewCommentLog opens the comment companion log at path.
func NewCommentLog(path string) *FileRankLog {
	return &FileRankLog{path: path, withComment: true}
}

// CommentLogPath derives the comment log path from the rank log path:
// rankings.txt becomes rankings_comments.txt.
func CommentLogPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_comments" + ext
}

// Path returns the file backing the log.
func (l *FileRankLog) Path() string {
	return l.path
}

// Append writes one line, holding an advisory lock so concurrent writers do
// not interleave, and syncs before returning.
func (l *FileRankLog) Append(entry domain.RankLogEntry) (err error) {
	line, err := l.format(entry)
	if err != nil {
		return err
	}

	lock := flock.New(l.path, flock.SetPermissions(0644))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("while locking rank log '%s': %w", l.path, err)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil && err == nil {
			err = fmt.Errorf("while unlocking rank log '%s': %w", l.path, uerr)
		}
	}()

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("while opening rank log '%s': %w", l.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("while closing rank log '%s': %w", l.path, cerr)
		}
	}()

	// a crash during a previous append may have left a partial last line
	needsNewline, err := missingTrailingNewline(f)
	if err != nil {
		return fmt.Errorf("while inspecting rank log '%s': %w", l.path, err)
	}
	if needsNewline {
		log.Printf("ranklog: repairing missing trailing newline in %s", l.path)
		line = "\n" + line
	}

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("while appending to rank log '%s': %w", l.path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("while syncing rank log '%s': %w", l.path, err)
	}
	return nil
}

func (l *FileRankLog) format(entry domain.RankLogEntry) (string, error) {
	if entry.Filename == "" || strings.ContainsAny(entry.Filename, " \t\r\n") {
		return "", fmt.Errorf("filename %q cannot be stored in the rank log", entry.Filename)
	}
	if entry.Rank.IsZero() {
		return entry.Filename + "\n", nil
	}
	line := entry.Filename + " " + entry.Rank.String()
	if l.withComment {
		if comment := flatten(entry.Comment); comment != "" {
			line += " " + comment
		}
	}
	return line + "\n", nil
}

func missingTrailingNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}

// Entries reads the log in append order. A missing file is an empty history.
func (l *FileRankLog) Entries() ([]domain.RankLogEntry, error) {
	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("while opening rank log '%s': %w", l.path, err)
	}
	defer f.Close()
	return l.read(f)
}

// maxLineLength bounds a single log line. Longer lines are skipped.
const maxLineLength = 1 << 20

func (l *FileRankLog) read(r io.Reader) ([]domain.RankLogEntry, error) {
	var ret []domain.RankLogEntry
	br := bufio.NewReader(r)
	var line []byte
	tooLong := false
	lineno := 0
	for {
		chunk, err := br.ReadSlice('\n')
		if tooLong || len(line)+len(chunk) > maxLineLength {
			tooLong = true
			line = line[:0]
		} else {
			line = append(line, chunk...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return ret, fmt.Errorf("while reading rank log '%s': %w", l.path, err)
		}
		if len(line) > 0 || tooLong {
			lineno++
			if tooLong {
				log.Printf("ranklog: %s:%d: skipping line longer than %d bytes", l.path, lineno, maxLineLength)
			} else if entry, ok, perr := l.parse(strings.TrimSuffix(string(line), "\n")); perr != nil {
				log.Printf("ranklog: %s:%d: skipping malformed line: %s", l.path, lineno, perr)
			} else if ok {
				ret = append(ret, entry)
			}
		}
		line = line[:0]
		tooLong = false
		if err != nil {
			return ret, nil
		}
	}
}

// parse accepts both space and tab separated lines. Blank lines are ignored.
func (l *FileRankLog) parse(line string) (domain.RankLogEntry, bool, error) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return domain.RankLogEntry{}, false, nil
	}
	filename, rest := cutField(strings.TrimLeft(line, " \t"))
	if rest == "" {
		return domain.RankLogEntry{Filename: filename}, true, nil
	}
	rawRank, comment := cutField(rest)
	rank, err := domain.ParseRank(rawRank)
	if err != nil {
		return domain.RankLogEntry{}, false, err
	}
	entry := domain.RankLogEntry{Filename: filename, Rank: rank}
	if comment != "" {
		if !l.withComment {
			return domain.RankLogEntry{}, false, fmt.Errorf("unexpected trailing text %q", comment)
		}
		entry.Comment = comment
		entry.HasComment = true
	} else if l.withComment {
		entry.HasComment = true
	}
	return entry, true, nil
}

// cutField splits the first whitespace delimited field from s.
func cutField(s string) (field, rest string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

func flatten(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

var _ domain.RankLog = (*FileRankLog)(nil)
