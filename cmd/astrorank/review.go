package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/astrorank/internal/bindings"
	"github.com/lewtec/astrorank/internal/domain"
	"github.com/lewtec/astrorank/ranking"
)

var reviewCmd = &cobra.Command{
	Use:   "review <images-dir>",
	Short: "Rank a folder interactively from the terminal",
	Long: `Read key names from standard input, one or more per line, and apply them
through the configured bindings. A rank key (or a literal rank) fills the
input, "enter" submits it and the navigation keys move between images.
A comment key takes the rest of its line as the comment text.

Example:
  astrorank review ./cutouts
  > 3 enter
  > k two nuclei
  > 1 enter`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd, args[0])
		if err != nil {
			return err
		}
		r := &reviewer{app: app, out: cmd.OutOrStdout()}
		return r.run(cmd.Context(), cmd.InOrStdin())
	},
}

// reviewer drives a session from key names.
type reviewer struct {
	app     *ranking.App
	out     io.Writer
	pending domain.Rank
}

var errQuit = errors.New("quit")

func (r *reviewer) run(ctx context.Context, in io.Reader) error {
	r.show()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := r.line(ctx, scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
		r.show()
	}
	return scanner.Err()
}

func (r *reviewer) line(ctx context.Context, line string) error {
	rest := strings.TrimSpace(line)
	for rest != "" {
		token, tail, _ := strings.Cut(rest, " ")
		rest = strings.TrimSpace(tail)

		outcome, ok := r.app.Resolver.Resolve(token)
		if !ok {
			// typed input, checked against the scale on submit
			rank, err := domain.ParseRank(token)
			if err != nil {
				fmt.Fprintf(r.out, "unknown key %q\n", token)
				continue
			}
			outcome = bindings.RankOutcome(rank)
		}
		if outcome.Kind == bindings.KindRank {
			r.pending = outcome.Rank
			continue
		}
		if outcome.Action == bindings.ActionComment {
			return r.app.Session.SetComment(r.current(), rest)
		}
		if err := r.action(ctx, outcome.Action); err != nil {
			return err
		}
	}
	return nil
}

// current clamps the cursor to an existing record.
func (r *reviewer) current() int {
	cursor := r.app.Session.Cursor()
	if cursor >= r.app.Session.Len() {
		return r.app.Session.Len() - 1
	}
	return cursor
}

// submitPending submits the input, if any. ok is false when the input was
// rejected and the cursor must not move.
func (r *reviewer) submitPending() (ok bool, err error) {
	if r.pending.IsZero() {
		return true, nil
	}
	index := r.app.Session.Cursor()
	if index >= r.app.Session.Len() {
		fmt.Fprintln(r.out, "no image selected")
		return false, nil
	}
	_, err = r.app.Session.Submit(index, r.pending)
	if errors.Is(err, ranking.ErrInvalidRank) {
		fmt.Fprintln(r.out, err)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	r.pending = domain.NoRank
	return true, nil
}

func (r *reviewer) action(ctx context.Context, action bindings.Action) error {
	session := r.app.Session
	switch action {
	case bindings.ActionQuit:
		return errQuit
	case bindings.ActionSubmit:
		if r.pending.IsZero() {
			fmt.Fprintln(r.out, "nothing to submit")
			return nil
		}
		_, err := r.submitPending()
		return err
	case bindings.ActionPrevious, bindings.ActionNext:
		index := session.Cursor()
		ok, err := r.submitPending()
		if err != nil || !ok {
			return err
		}
		target := index + 1
		if action == bindings.ActionPrevious {
			target = index - 1
		}
		if target >= 0 && target < session.Len() {
			return session.Seek(target)
		}
		return nil
	case bindings.ActionFirst:
		return session.Seek(0)
	case bindings.ActionSkipUnranked:
		if next, ok := session.NextUnranked(session.Cursor() + 1); ok {
			return session.Seek(next)
		}
		if next, ok := session.NextUnranked(0); ok {
			return session.Seek(next)
		}
		fmt.Fprintln(r.out, "every image is ranked")
	case bindings.ActionClearInput:
		r.pending = domain.NoRank
	case bindings.ActionClearRank:
		return session.Clear(r.current())
	case bindings.ActionOpenBrowser:
		url, err := r.app.BrowserURL(r.current())
		if err != nil {
			fmt.Fprintln(r.out, err)
			return nil
		}
		fmt.Fprintln(r.out, url)
	case bindings.ActionFetchSecondary:
		outcome := <-r.app.Secondary.FetchAsync(ctx, mustRecord(session, r.current()), r.app.Config.Secondary)
		switch {
		case outcome.Err == nil:
			if err := session.MarkSecondaryFetched(r.current()); err != nil {
				return err
			}
			fmt.Fprintf(r.out, "%s composite: %s\n", r.app.Config.Secondary.Name, outcome.Result.Path)
		case errors.Is(outcome.Err, context.Canceled):
			return outcome.Err
		default:
			// soft failures leave the session untouched
			fmt.Fprintln(r.out, outcome.Err)
		}
	case bindings.ActionToggleHelp:
		fmt.Fprint(r.out, r.app.HelpMarkdown())
	case bindings.ActionToggleList:
		var rows [][]string
		for i, rec := range session.Records() {
			rows = append(rows, recordRow(i, rec, r.app.Config.Secondary.Precision))
		}
		writeListing(r.out, recordColumns, rows)
	default:
		// zoom, fit and dark mode only concern a graphical viewer
	}
	return nil
}

func mustRecord(s *ranking.Session, index int) domain.ImageRecord {
	rec, _ := s.Record(index)
	return rec
}

func (r *reviewer) show() {
	session := r.app.Session
	ranked, total := session.Progress()
	cursor := session.Cursor()
	if cursor >= total {
		fmt.Fprintf(r.out, "[%d/%d ranked] end of the list\n> ", ranked, total)
		return
	}
	rec := mustRecord(session, cursor)
	rank := "-"
	if rec.Ranked() {
		rank = rec.Rank.String()
	}
	fmt.Fprintf(r.out, "[%d/%d ranked] %d: %s rank=%s", ranked, total, cursor+1, rec.Filename, rank)
	if rec.Comment != "" {
		fmt.Fprintf(r.out, " comment=%q", rec.Comment)
	}
	if !r.pending.IsZero() {
		fmt.Fprintf(r.out, " input=%s", r.pending)
	}
	fmt.Fprint(r.out, "\n> ")
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
