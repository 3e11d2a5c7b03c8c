// Package session holds the single mutable execution context of a shell run
// and the bootstrap that creates it.
package session

import (
	"context"
	"sort"

	"github.com/atinylittleshell/shell/internal/builtin"
	"github.com/atinylittleshell/shell/internal/gitinfo"
	"github.com/samber/lo"
)

// Interpreter parses and executes shell source against a session.
// filename is empty for interactively typed or inline commands. User-level
// failures are reported through the exit code; a returned error means the
// interpreter itself could not run.
type Interpreter interface {
	Execute(ctx context.Context, source string, filename string, s *Session) (int, error)
}

// Session is owned by the driver. The interpreter mutates it for the duration
// of one Execute call and must not retain it.
type Session struct {
	env      map[string]string
	cwd      string
	builtins *builtin.Registry

	lastExitCode  int
	lastCommandCd bool
	exitRequested bool

	gitRepository bool
	gitHead       string

	cancellation CancellationToken
}

// New creates a session with a copy of env.
func New(env map[string]string, cwd string, builtins *builtin.Registry) *Session {
	copied := make(map[string]string, len(env))
	for k, v := range env {
		copied[k] = v
	}
	return &Session{
		env:      copied,
		cwd:      cwd,
		builtins: builtins,
	}
}

func (s *Session) Getenv(name string) (string, bool) {
	v, ok := s.env[name]
	return v, ok
}

func (s *Session) Setenv(name, value string) {
	s.env[name] = value
}

func (s *Session) Unsetenv(name string) {
	delete(s.env, name)
}

// Env returns a copy of the environment.
func (s *Session) Env() map[string]string {
	return lo.Assign(s.env)
}

// EnvList renders the environment as NAME=value pairs sorted by name.
func (s *Session) EnvList() []string {
	names := lo.Keys(s.env)
	sort.Strings(names)
	return lo.Map(names, func(name string, _ int) string {
		return name + "=" + s.env[name]
	})
}

func (s *Session) Cwd() string {
	return s.cwd
}

func (s *Session) SetCwd(cwd string) {
	s.cwd = cwd
}

func (s *Session) Builtins() *builtin.Registry {
	return s.builtins
}

func (s *Session) LastExitCode() int {
	return s.lastExitCode
}

func (s *Session) SetLastExitCode(code int) {
	s.lastExitCode = code
}

// LastCommandCd reports whether the last executed text was a directory change.
func (s *Session) LastCommandCd() bool {
	return s.lastCommandCd
}

func (s *Session) SetLastCommandCd(cd bool) {
	s.lastCommandCd = cd
}

// ExitRequested reports whether executed code asked the shell to exit.
func (s *Session) ExitRequested() bool {
	return s.exitRequested
}

func (s *Session) SetExitRequested(exit bool) {
	s.exitRequested = exit
}

// Cancellation returns the session's cancellation token.
func (s *Session) Cancellation() *CancellationToken {
	return &s.cancellation
}

// UpdateGitBranch refreshes the cached HEAD of the repository containing the
// working directory.
func (s *Session) UpdateGitBranch() {
	s.gitHead, s.gitRepository = gitinfo.Lookup(s.cwd)
}

// GitRepository reports whether the cached lookup found a repository.
func (s *Session) GitRepository() bool {
	return s.gitRepository
}

// GitHead returns the cached raw HEAD content, e.g. "ref: refs/heads/main".
func (s *Session) GitHead() string {
	return s.gitHead
}
