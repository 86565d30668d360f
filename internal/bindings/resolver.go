// Package bindings turns the human-edited key and rank tables into one
// collision-checked lookup from trigger token to outcome.
package bindings

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/lewtec/astrorank/internal/domain"
)

// Kind tags an Outcome.
type Kind int

const (
	KindAction Kind = iota + 1
	KindRank
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindRank:
		return "rank"
	default:
		return "unknown"
	}
}

// Outcome is what a trigger token invokes: an action or a rank.
type Outcome struct {
	Kind   Kind
	Action Action
	Rank   domain.Rank
}

// ActionOutcome builds an action outcome.
func ActionOutcome(a Action) Outcome { return Outcome{Kind: KindAction, Action: a} }

// RankOutcome builds a rank outcome.
func RankOutcome(r domain.Rank) Outcome { return Outcome{Kind: KindRank, Rank: r} }

func (o Outcome) String() string {
	if o.Kind == KindRank {
		return fmt.Sprintf("rank %s", o.Rank)
	}
	return fmt.Sprintf("action %s", o.Action)
}

// Binding is one resolved row of the lookup table.
type Binding struct {
	Token   string
	Outcome Outcome
	// Source is the configured spelling the token was normalized from
	Source string
}

// ConflictError reports a token bound to two different outcomes.
type ConflictError struct {
	Token  string
	First  Binding
	Second Binding
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("trigger %q is bound to both %s (as %q) and %s (as %q)",
		e.Token, e.First.Outcome, e.First.Source, e.Second.Outcome, e.Second.Source)
}

// Resolver is the immutable lookup built once at startup.
type Resolver struct {
	table map[string]Outcome
	rows  []Binding
	scale domain.RankScale
}

// Build normalizes and merges the action table (action name -> tokens) and
// the rank table (token spec -> rank). Every conflict and malformed entry is
// reported in the returned error.
func Build(actions map[string][]string, ranks map[string]domain.Rank) (*Resolver, error) {
	var errs *multierror.Error
	r := &Resolver{
		table: make(map[string]Outcome),
		scale: domain.RankScale{},
	}
	seen := make(map[string]Binding)

	add := func(source string, outcome Outcome) {
		token, err := Normalize(source)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", outcome, err))
			return
		}
		row := Binding{Token: token, Outcome: outcome, Source: source}
		if prev, ok := seen[token]; ok {
			if prev.Outcome == outcome {
				log.Printf("bindings: %q listed twice for %s", token, outcome)
				return
			}
			errs = multierror.Append(errs, &ConflictError{Token: token, First: prev, Second: row})
			return
		}
		seen[token] = row
		r.table[token] = outcome
		r.rows = append(r.rows, row)
	}

	// sorted iteration keeps error reports and listings deterministic
	for _, name := range sortedKeys(actions) {
		action, err := ParseAction(name)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		for _, spec := range actions[name] {
			for _, token := range Split(spec) {
				add(token, ActionOutcome(action))
			}
		}
	}
	for _, spec := range sortedKeys(ranks) {
		rank := ranks[spec]
		if rank.IsZero() {
			errs = multierror.Append(errs, fmt.Errorf("rank binding %q has no value", spec))
			continue
		}
		r.scale[rank] = struct{}{}
		for _, token := range Split(spec) {
			add(token, RankOutcome(rank))
		}
	}
	if len(r.scale) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("no rank bindings configured"))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	sort.Slice(r.rows, func(i, j int) bool {
		if r.rows[i].Outcome.Kind != r.rows[j].Outcome.Kind {
			return r.rows[i].Outcome.Kind < r.rows[j].Outcome.Kind
		}
		return r.rows[i].Token < r.rows[j].Token
	})
	return r, nil
}

// Resolve looks up the outcome of a trigger token. The token is normalized
// first, so raw and canonical spellings resolve alike.
func (r *Resolver) Resolve(token string) (Outcome, bool) {
	if o, ok := r.table[token]; ok {
		return o, true
	}
	normalized, err := Normalize(token)
	if err != nil {
		return Outcome{}, false
	}
	o, ok := r.table[normalized]
	return o, ok
}

// Scale is the set of valid ranks: exactly the values of the rank table.
func (r *Resolver) Scale() domain.RankScale {
	ret := make(domain.RankScale, len(r.scale))
	for k := range r.scale {
		ret[k] = struct{}{}
	}
	return ret
}

// Bindings lists every row, actions first, sorted by token.
func (r *Resolver) Bindings() []Binding {
	ret := make([]Binding, len(r.rows))
	copy(ret, r.rows)
	return ret
}

// TokensFor lists the tokens bound to an outcome.
func (r *Resolver) TokensFor(o Outcome) []string {
	var ret []string
	for _, row := range r.rows {
		if row.Outcome == o {
			ret = append(ret, row.Token)
		}
	}
	return ret
}

// Markdown renders the binding table as a help page.
func (r *Resolver) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Keyboard bindings\n\n")
	fmt.Fprintf(&b, "## Actions\n\n| Keys | Action | Description |\n|---|---|---|\n")
	for _, action := range Catalogue() {
		tokens := r.TokensFor(ActionOutcome(action))
		if len(tokens) == 0 {
			continue
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", strings.Join(tokens, "`, `"), action, action.Description())
	}
	fmt.Fprintf(&b, "\n## Ranks\n\n| Keys | Rank |\n|---|---|\n")
	for _, rank := range r.scale.Sorted() {
		fmt.Fprintf(&b, "| `%s` | %s |\n", strings.Join(r.TokensFor(RankOutcome(rank)), "`, `"), rank)
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
