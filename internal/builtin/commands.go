package builtin

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/atinylittleshell/shell/internal/journal"
	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"mvdan.cc/sh/v3/interp"
)

const (
	defaultHistoryLimit = 20
	historySearchWindow = 1000
)

// Journal is the subset of the command journal used by the history built-in.
type Journal interface {
	Recent(limit int) ([]journal.Entry, error)
	Reset() error
}

// NewDefaultRegistry returns the registry installed into every session.
// jrnl may be nil, in which case history reports that no journal is available.
func NewDefaultRegistry(jrnl Journal) *Registry {
	r := NewRegistry(historyCommand(jrnl))
	r.register(whichCommand(r))
	return r
}

func historyCommand(jrnl Journal) Command {
	return Command{
		Name:        "history",
		Description: "list, search or clear the command journal",
		Run: func(ctx context.Context, args []string) error {
			hc := interp.HandlerCtx(ctx)

			fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
			fs.SetOutput(hc.Stderr)
			clearJournal := fs.Bool("c", false, "clear the journal")
			limit := fs.Int("n", defaultHistoryLimit, "number of entries to show")
			if err := fs.Parse(args[1:]); err != nil {
				return interp.ExitStatus(2)
			}

			if jrnl == nil {
				fmt.Fprintln(hc.Stderr, "history: command journal is disabled")
				return interp.ExitStatus(1)
			}

			if *clearJournal {
				if err := jrnl.Reset(); err != nil {
					fmt.Fprintf(hc.Stderr, "history: %v\n", err)
					return interp.ExitStatus(1)
				}
				return nil
			}

			query := strings.Join(fs.Args(), " ")
			window := *limit
			if query != "" {
				window = historySearchWindow
			}

			entries, err := jrnl.Recent(window)
			if err != nil {
				fmt.Fprintf(hc.Stderr, "history: %v\n", err)
				return interp.ExitStatus(1)
			}

			if query != "" {
				entries = filterEntries(entries, query, *limit)
			}

			printEntries(hc.Stdout, entries)
			return nil
		},
	}
}

// commandSource adapts journal entries to fuzzy.Source.
type commandSource []journal.Entry

func (s commandSource) String(i int) string { return s[i].Command }
func (s commandSource) Len() int            { return len(s) }

// filterEntries ranks entries by fuzzy match against query and keeps the best
// limit matches in chronological order.
func filterEntries(entries []journal.Entry, query string, limit int) []journal.Entry {
	matches := fuzzy.FindFrom(query, commandSource(entries))
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	keep := make(map[int]bool, len(matches))
	for _, m := range matches {
		keep[m.Index] = true
	}

	result := make([]journal.Entry, 0, len(matches))
	for i, entry := range entries {
		if keep[i] {
			result = append(result, entry)
		}
	}
	return result
}

func printEntries(w io.Writer, entries []journal.Entry) {
	for _, entry := range entries {
		line := fmt.Sprintf("%5d  %-16s  %s", entry.ID, humanize.Time(entry.CreatedAt), entry.Command)
		if entry.ExitCode.Valid && entry.ExitCode.Int32 != 0 {
			line += fmt.Sprintf("  (exit %d)", entry.ExitCode.Int32)
		}
		fmt.Fprintln(w, line)
	}
}

func whichCommand(r *Registry) Command {
	return Command{
		Name:        "which",
		Description: "locate a command",
		Run: func(ctx context.Context, args []string) error {
			hc := interp.HandlerCtx(ctx)

			if len(args) < 2 {
				fmt.Fprintln(hc.Stderr, "usage: which NAME...")
				return interp.ExitStatus(2)
			}

			missing := false
			for _, name := range args[1:] {
				if _, ok := r.Lookup(name); ok {
					fmt.Fprintf(hc.Stdout, "%s: shell built-in command\n", name)
					continue
				}

				path, err := interp.LookPathDir(hc.Dir, hc.Env, name)
				if err != nil {
					fmt.Fprintf(hc.Stderr, "%s not found\n", name)
					missing = true
					continue
				}
				fmt.Fprintln(hc.Stdout, path)
			}

			if missing {
				return interp.ExitStatus(1)
			}
			return nil
		},
	}
}
