package gitinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHead(t *testing.T, gitDir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(gitDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte(content), 0644))
}

func TestLookup_RepositoryRoot(t *testing.T) {
	repo := t.TempDir()
	writeHead(t, filepath.Join(repo, ".git"), "ref: refs/heads/main\n")

	head, ok := Lookup(repo)
	require.True(t, ok)
	assert.Equal(t, "ref: refs/heads/main", head)
}

func TestLookup_NestedDirectory(t *testing.T) {
	repo := t.TempDir()
	writeHead(t, filepath.Join(repo, ".git"), "0123456789abcdef0123456789abcdef01234567\n")

	nested := filepath.Join(repo, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	head, ok := Lookup(nested)
	require.True(t, ok)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", head)
}

func TestLookup_GitFile(t *testing.T) {
	root := t.TempDir()
	writeHead(t, filepath.Join(root, "store", "worktrees", "wt"), "ref: refs/heads/feature\n")

	worktree := filepath.Join(root, "wt")
	require.NoError(t, os.MkdirAll(worktree, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(worktree, ".git"),
		[]byte("gitdir: ../store/worktrees/wt\n"),
		0644,
	))

	head, ok := Lookup(worktree)
	require.True(t, ok)
	assert.Equal(t, "ref: refs/heads/feature", head)
}

func TestLookup_NotARepository(t *testing.T) {
	_, ok := Lookup(t.TempDir())
	assert.False(t, ok)
}
