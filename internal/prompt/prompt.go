// Package prompt renders the PS1 template into the plain and colorized prompt
// strings shown by the line editor.
package prompt

import (
	"path/filepath"
	"strings"

	"github.com/atinylittleshell/shell/internal/session"
	"github.com/muesli/termenv"
)

const (
	placeholderCwd    = "{display_cwd}"
	placeholderBranch = "{git_branch}"

	branchRefPrefix = "ref: refs/heads/"
	shortHashLen    = 7

	cwdColor    = "4" // blue
	branchColor = "2" // green
)

// Rendered holds both variants of a prompt. Plain is used for width and echo
// accounting, Colored for terminal display.
type Rendered struct {
	Plain   string
	Colored string
}

// Renderer renders prompts for a session.
type Renderer struct {
	home    string
	profile termenv.Profile
}

// NewRenderer creates a renderer. home is the user's home directory; when
// color is false the colorized prompt equals the plain one.
func NewRenderer(home string, color bool) *Renderer {
	profile := termenv.ANSI
	if !color {
		profile = termenv.Ascii
	}
	return &Renderer{
		home:    home,
		profile: profile,
	}
}

// Render refreshes the git branch cache unless the last command was a cd, and
// substitutes the current facts into the session's PS1.
func (r *Renderer) Render(s *session.Session) Rendered {
	if !s.LastCommandCd() {
		s.UpdateGitBranch()
	}

	branch := BranchLabel(s.GitRepository(), s.GitHead())
	cwd := DisplayCwd(s.Cwd(), r.home)
	ps1, _ := s.Getenv("PS1")

	return Rendered{
		Plain:   Substitute(ps1, cwd, branch),
		Colored: Substitute(ps1, r.colorize(cwd, cwdColor), r.colorize(branch, branchColor)),
	}
}

func (r *Renderer) colorize(s, color string) string {
	return r.profile.String(s).Foreground(r.profile.Color(color)).String()
}

// BranchLabel formats a HEAD value for the prompt: "(main)" for a branch ref,
// "(0123456...)" for a detached hash, empty outside a repository.
func BranchLabel(isRepository bool, head string) string {
	if !isRepository {
		return ""
	}

	label, ok := strings.CutPrefix(head, branchRefPrefix)
	if !ok {
		label = head
		if len(label) > shortHashLen {
			label = label[:shortHashLen] + "..."
		}
	}
	return "(" + label + ")"
}

// DisplayCwd abbreviates the home directory prefix of cwd to "~" and uses "/"
// as separator in the abbreviated part. Paths outside home are returned as is.
func DisplayCwd(cwd, home string) string {
	if home == "" {
		return cwd
	}

	home = strings.TrimRight(home, `/\`)
	if cwd == home {
		return "~"
	}

	rest, ok := strings.CutPrefix(cwd, home)
	if !ok || rest == "" || (rest[0] != '/' && rest[0] != '\\' && rest[0] != filepath.Separator) {
		return cwd
	}
	return "~" + strings.ReplaceAll(rest, `\`, "/")
}

// Substitute replaces the literal placeholder tokens. Unknown placeholders are
// left untouched.
func Substitute(template, displayCwd, gitBranch string) string {
	return strings.NewReplacer(
		placeholderCwd, displayCwd,
		placeholderBranch, gitBranch,
	).Replace(template)
}
