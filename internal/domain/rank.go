package domain

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rank is the canonical text form of a rank value. Integer scales and
// label scales share the same representation; the zero value means unranked.
type Rank string

// NoRank is the absent rank.
const NoRank Rank = ""

func (r Rank) IsZero() bool { return r == NoRank }

func (r Rank) String() string { return string(r) }

// Int returns the integer view of the rank when it has one.
func (r Rank) Int() (int, bool) {
	n, err := strconv.Atoi(string(r))
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseRank canonicalizes a rank read from configuration or from the log.
// Integers lose leading zeros and explicit plus signs so "03" and "3" are the
// same rank.
func ParseRank(s string) (Rank, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoRank, errors.New("empty rank")
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return NoRank, errors.New("rank must not contain whitespace")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return Rank(strconv.Itoa(n)), nil
	}
	return Rank(s), nil
}

// UnmarshalYAML accepts integer and string scalars.
func (r *Rank) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.New("rank must be a scalar")
	}
	parsed, err := ParseRank(node.Value)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RankScale is the set of valid ranks of a session.
type RankScale map[Rank]struct{}

// NewRankScale builds a scale from its members.
func NewRankScale(ranks ...Rank) RankScale {
	scale := make(RankScale, len(ranks))
	for _, r := range ranks {
		scale[r] = struct{}{}
	}
	return scale
}

// Contains reports whether r is a member of the scale.
func (s RankScale) Contains(r Rank) bool {
	if r.IsZero() {
		return false
	}
	_, ok := s[r]
	return ok
}

// Sorted lists the scale members, numerically when every member is an
// integer and lexicographically otherwise.
func (s RankScale) Sorted() []Rank {
	ret := make([]Rank, 0, len(s))
	numeric := true
	for r := range s {
		ret = append(ret, r)
		if _, ok := r.Int(); !ok {
			numeric = false
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if numeric {
			a, _ := ret[i].Int()
			b, _ := ret[j].Int()
			return a < b
		}
		return ret[i] < ret[j]
	})
	return ret
}

// RankLogEntry is one line of the append-only rank log.
type RankLogEntry struct {
	Filename string
	// Rank is NoRank for a clear marker
	Rank       Rank
	Comment    string
	HasComment bool
}

// RankLog defines the storage operations for the persisted rank history
type RankLog interface {
	// Append durably appends one entry
	Append(entry RankLogEntry) error

	// Entries reads the whole history in append order, skipping malformed lines
	Entries() ([]RankLogEntry, error)
}

// Fold reduces an event history to the latest entry per filename.
func Fold(entries []RankLogEntry) map[string]RankLogEntry {
	ret := make(map[string]RankLogEntry, len(entries))
	for _, entry := range entries {
		ret[entry.Filename] = entry
	}
	return ret
}
