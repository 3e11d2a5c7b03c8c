// Package history keeps the ordered log of submitted lines and persists it as
// a newline-delimited file.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options controls which lines are kept.
type Options struct {
	// MaxEntries bounds the entries written by Save, keeping the newest. 0 means unlimited.
	MaxEntries int
	// IgnoreSpace skips lines that start with a space.
	IgnoreSpace bool
	// IgnoreDups skips a line equal to the previous entry.
	IgnoreDups bool
}

// Store is an in-memory history log bound to a file.
type Store struct {
	path    string
	opts    Options
	entries []string
}

// Load reads the history file at path. A missing file yields an empty store.
func Load(path string, opts Options) (*Store, error) {
	s := &Store{path: path, opts: opts}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		s.entries = append(s.entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the file the store persists to.
func (s *Store) Path() string {
	return s.path
}

// Add appends line and reports whether it was kept.
func (s *Store) Add(line string) bool {
	line = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(line)
	if strings.TrimSpace(line) == "" {
		return false
	}
	if s.opts.IgnoreSpace && strings.HasPrefix(line, " ") {
		return false
	}
	if s.opts.IgnoreDups && len(s.entries) > 0 && s.entries[len(s.entries)-1] == line {
		return false
	}

	s.entries = append(s.entries, line)
	return true
}

// Entries returns the entries oldest first.
func (s *Store) Entries() []string {
	result := make([]string, len(s.entries))
	copy(result, s.entries)
	return result
}

// Recent returns the entries newest first.
func (s *Store) Recent() []string {
	result := make([]string, len(s.entries))
	for i, entry := range s.entries {
		result[len(s.entries)-1-i] = entry
	}
	return result
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Save overwrites the history file with the current entries. The file is
// replaced atomically through a temporary file in the same directory.
func (s *Store) Save() error {
	entries := s.entries
	if s.opts.MaxEntries > 0 && len(entries) > s.opts.MaxEntries {
		entries = entries[len(entries)-s.opts.MaxEntries:]
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary history file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := bufio.NewWriter(tmp)
	for _, entry := range entries {
		w.WriteString(entry)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return err
	}

	return os.Rename(tmpName, s.path)
}
