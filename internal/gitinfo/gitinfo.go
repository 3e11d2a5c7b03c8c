// Package gitinfo reads git repository metadata straight from the .git
// directory, without spawning git.
package gitinfo

import (
	"os"
	"path/filepath"
	"strings"
)

const gitDirPrefix = "gitdir:"

// Lookup walks up from dir to the nearest repository and returns the trimmed
// content of its HEAD file. ok is false when dir is not inside a repository or
// HEAD cannot be read.
func Lookup(dir string) (head string, ok bool) {
	gitDir, found := findGitDir(dir)
	if !found {
		return "", false
	}

	content, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(content)), true
}

// findGitDir returns the git directory for dir. A .git file (used by worktrees
// and submodules) is followed to the directory it points at.
func findGitDir(dir string) (string, bool) {
	current := filepath.Clean(dir)
	for {
		candidate := filepath.Join(current, ".git")
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return candidate, true
			}
			return resolveGitFile(candidate)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		current = parent
	}
}

func resolveGitFile(path string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	line := strings.TrimSpace(string(content))
	if !strings.HasPrefix(line, gitDirPrefix) {
		return "", false
	}

	target := strings.TrimSpace(strings.TrimPrefix(line, gitDirPrefix))
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target, true
}
