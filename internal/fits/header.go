package fits

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// Card is one 80-column header record.
type Card struct {
	Key     string
	Value   string
	Comment string
}

// Header holds the cards of one HDU in file order.
type Header struct {
	cards []Card
	index map[string]int
}

func newHeader() *Header {
	return &Header{index: make(map[string]int)}
}

func (h *Header) add(c Card) {
	if c.Key != "" && c.Key != "COMMENT" && c.Key != "HISTORY" {
		if _, ok := h.index[c.Key]; !ok {
			h.index[c.Key] = len(h.cards)
		}
	}
	h.cards = append(h.cards, c)
}

// Cards returns the header cards in file order.
func (h *Header) Cards() []Card {
	return h.cards
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	_, ok := h.index[key]
	return ok
}

// String returns the value of a string keyword, unquoted.
func (h *Header) String(key string) (string, bool) {
	i, ok := h.index[key]
	if !ok {
		return "", false
	}
	return unquote(h.cards[i].Value), true
}

// Int returns the value of an integer keyword.
func (h *Header) Int(key string) (int, error) {
	i, ok := h.index[key]
	if !ok {
		return 0, fmt.Errorf("missing keyword %s", key)
	}
	n, err := strconv.Atoi(h.cards[i].Value)
	if err != nil {
		return 0, fmt.Errorf("keyword %s: %w", key, err)
	}
	return n, nil
}

// IntOr returns an integer keyword or def when it is absent.
func (h *Header) IntOr(key string, def int) (int, error) {
	if !h.Has(key) {
		return def, nil
	}
	return h.Int(key)
}

// FloatOr returns a real keyword or def when it is absent. Fortran style
// exponents (1.0D3) are accepted.
func (h *Header) FloatOr(key string, def float64) (float64, error) {
	i, ok := h.index[key]
	if !ok {
		return def, nil
	}
	v := strings.NewReplacer("D", "E", "d", "e").Replace(h.cards[i].Value)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("keyword %s: %w", key, err)
	}
	return f, nil
}

// Bool returns a logical keyword.
func (h *Header) Bool(key string) bool {
	i, ok := h.index[key]
	return ok && h.cards[i].Value == "T"
}

// parseCard splits a card image into keyword, value and comment.
func parseCard(raw []byte) Card {
	line := string(raw)
	key := strings.TrimSpace(line[:8])
	if len(line) < 10 || line[8:10] != "= " {
		return Card{Key: key, Comment: strings.TrimSpace(line[8:])}
	}
	rest := line[10:]
	trimmed := strings.TrimLeft(rest, " ")
	if strings.HasPrefix(trimmed, "'") {
		// quoted string, '' is an escaped quote
		end := 1
		for end < len(trimmed) {
			if trimmed[end] == '\'' {
				if end+1 < len(trimmed) && trimmed[end+1] == '\'' {
					end += 2
					continue
				}
				break
			}
			end++
		}
		if end >= len(trimmed) {
			return Card{Key: key, Value: trimmed}
		}
		value := trimmed[:end+1]
		comment := ""
		if slash := strings.Index(trimmed[end+1:], "/"); slash >= 0 {
			comment = strings.TrimSpace(trimmed[end+1+slash+1:])
		}
		return Card{Key: key, Value: value, Comment: comment}
	}
	value, comment, _ := strings.Cut(rest, "/")
	return Card{Key: key, Value: strings.TrimSpace(value), Comment: strings.TrimSpace(comment)}
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
		v = strings.ReplaceAll(v[1:len(v)-1], "''", "'")
		return strings.TrimRight(v, " ")
	}
	return v
}

// formatCard renders a keyword card for the encoder.
func formatCard(key, value string) []byte {
	line := fmt.Sprintf("%-8s= %20s", key, value)
	if strings.HasPrefix(value, "'") {
		line = fmt.Sprintf("%-8s= %-20s", key, value)
	}
	if key == "END" {
		line = "END"
	}
	card := make([]byte, cardSize)
	for i := range card {
		card[i] = ' '
	}
	copy(card, line)
	return card
}
