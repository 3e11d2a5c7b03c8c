// Package completion suggests command names and file paths for the line
// editor's Tab key.
package completion

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/atinylittleshell/shell/internal/builtin"
	"github.com/samber/lo"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// osReadDir is swapped out in tests.
var osReadDir = os.ReadDir

// shellBuiltins are offered as command names when the interpreter
// implements them.
var shellBuiltins = lo.Filter([]string{
	"alias", "break", "cd", "continue", "echo", "eval", "exec", "exit",
	"export", "false", "pwd", "read", "return", "set", "shift", "source",
	"test", "true", "type", "unalias", "unset", "wait",
}, func(name string, _ int) bool { return interp.IsBuiltin(name) })

// State is the part of the session completion reads.
type State interface {
	Getenv(name string) (string, bool)
	Cwd() string
	Builtins() *builtin.Registry
}

type Provider struct {
	state State
}

func NewProvider(state State) *Provider {
	return &Provider{state: state}
}

// GetCompletions completes the word ending at the rune offset pos. The first
// word of a command completes to commands, anything else to paths.
func (p *Provider) GetCompletions(line string, pos int) []string {
	runes := []rune(line)
	if pos < 0 || pos > len(runes) {
		pos = len(runes)
	}
	before := string(runes[:pos])

	wordStart := strings.LastIndexFunc(before, unicode.IsSpace) + 1
	word := before[wordStart:]

	if isCommandPosition(before[:wordStart]) {
		if word == "" {
			return []string{}
		}
		if strings.Contains(word, "/") {
			return p.files(word, true)
		}
		return p.commands(word)
	}
	return p.files(word, false)
}

// isCommandPosition reports whether the next word starts a command, i.e.
// the text before it is blank or ends in a command separator.
func isCommandPosition(before string) bool {
	trimmed := strings.TrimRightFunc(before, unicode.IsSpace)
	if trimmed == "" {
		return true
	}
	return strings.HasSuffix(trimmed, "|") ||
		strings.HasSuffix(trimmed, ";") ||
		strings.HasSuffix(trimmed, "&")
}

func (p *Provider) commands(prefix string) []string {
	var names []string
	names = append(names, p.state.Builtins().Names()...)
	names = append(names, shellBuiltins...)

	if path, ok := p.state.Getenv("PATH"); ok {
		for _, dir := range filepath.SplitList(path) {
			entries, err := osReadDir(dir)
			if err != nil {
				continue
			}
			for _, entry := range entries {
				if !entry.IsDir() {
					names = append(names, entry.Name())
				}
			}
		}
	}

	matches := lo.Uniq(lo.Filter(names, func(name string, _ int) bool {
		return strings.HasPrefix(name, prefix)
	}))
	sort.Strings(matches)
	return matches
}

// files lists entries matching word, keeping the directory part as typed.
// Directories get a trailing slash; hidden entries need a leading dot in
// the prefix.
func (p *Provider) files(word string, executablesOnly bool) []string {
	dirPart, base := "", word
	if i := strings.LastIndex(word, "/"); i >= 0 {
		dirPart, base = word[:i+1], word[i+1:]
	}

	entries, err := osReadDir(p.resolve(dirPart))
	if err != nil {
		return []string{}
	}

	completions := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(base, ".") {
			continue
		}

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(p.resolve(dirPart), name)); err == nil {
				isDir = info.IsDir()
			}
		}
		if executablesOnly && !isDir {
			info, err := entry.Info()
			if err != nil || info.Mode()&0o111 == 0 {
				continue
			}
		}

		candidate := dirPart + name
		if isDir {
			candidate += "/"
		}
		completions = append(completions, quote(candidate))
	}
	sort.Strings(completions)
	return completions
}

func (p *Provider) resolve(dirPart string) string {
	switch {
	case dirPart == "":
		return p.state.Cwd()
	case strings.HasPrefix(dirPart, "~/"):
		home, _ := p.state.Getenv("HOME")
		return filepath.Join(home, dirPart[2:])
	case filepath.IsAbs(dirPart):
		return dirPart
	default:
		return filepath.Join(p.state.Cwd(), dirPart)
	}
}

// quote escapes a candidate that the shell would otherwise split, leaving
// a leading ~/ unquoted so it still expands.
func quote(candidate string) string {
	if !strings.ContainsAny(candidate, " \t'\"$&;|()<>*?[]#`\\") {
		return candidate
	}
	prefix := ""
	if strings.HasPrefix(candidate, "~/") {
		prefix, candidate = "~/", candidate[2:]
	}
	quoted, err := syntax.Quote(candidate, syntax.LangBash)
	if err != nil {
		return prefix + candidate
	}
	return prefix + quoted
}
