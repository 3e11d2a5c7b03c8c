// Package journal records every interactively submitted command together with
// its working directory and exit code in a SQLite database.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Journal struct {
	db          *gorm.DB
	versionPath string
}

type Entry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Command   string
	Directory string
	ExitCode  sql.NullInt32
}

const (
	schemaVersion = 1
)

// Open opens (creating if needed) the journal database at dbFilePath.
func Open(dbFilePath string) (*Journal, error) {
	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("failed to check journal db: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal db: %w", err)
	}

	j := &Journal{
		db:          db,
		versionPath: filepath.Join(filepath.Dir(dbFilePath), "journal_schema_version"),
	}

	if j.needsMigration(dbFileExists) {
		if err := db.AutoMigrate(&Entry{}); err != nil {
			return nil, fmt.Errorf("failed to migrate journal schema: %w", err)
		}
		if err := j.writeSchemaVersion(schemaVersion); err != nil {
			return nil, fmt.Errorf("failed to write journal schema version: %w", err)
		}
	}

	return j, nil
}

func (j *Journal) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := j.schemaVersionMatches()
	if err != nil || !versionMatches {
		return true
	}

	// The version marker can outlive the table (manual deletion, corruption).
	return !j.db.Migrator().HasTable(&Entry{})
}

func (j *Journal) writeSchemaVersion(version int) error {
	return os.WriteFile(j.versionPath, []byte(strconv.Itoa(version)), 0644)
}

func (j *Journal) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(j.versionPath)
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != schemaVersion {
		return false, fmt.Errorf("journal schema version mismatch: got %d, want %d", version, schemaVersion)
	}
	return true, nil
}

// Start records a command that is about to run.
func (j *Journal) Start(command string, directory string) (*Entry, error) {
	entry := Entry{
		Command:   command,
		Directory: directory,
	}

	result := j.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

// Finish stores the exit code of a previously started command.
func (j *Journal) Finish(entry *Entry, exitCode int) (*Entry, error) {
	entry.ExitCode = sql.NullInt32{Int32: int32(exitCode), Valid: true}

	result := j.db.Save(entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return entry, nil
}

// Recent returns up to limit of the newest entries, oldest first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	result := j.db.Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries, nil
}

// Reset deletes all entries.
func (j *Journal) Reset() error {
	result := j.db.Exec("DELETE FROM entries")
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
