// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

const keyFirstStart = "first_start"

// MetadataStore is a key/value table for workbench-wide facts
type MetadataStore struct {
	db *sql.DB
}

// NewMetadataStore creates a metadata store
func NewMetadataStore(db *sql.DB) (*MetadataStore, error) {
	store := &MetadataStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize metadata schema: %w", err)
	}
	return store, nil
}

func (s *MetadataStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the value for key, or "" when unset
func (s *MetadataStore) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get metadata: %w", err)
	}
	return value, nil
}

// Set stores value under key
func (s *MetadataStore) Set(key, value string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", key, value)
	return err
}

// EnsureFirstStart records today's date the first time the workbench starts
func (s *MetadataStore) EnsureFirstStart() error {
	existing, err := s.Get(keyFirstStart)
	if err != nil {
		return err
	}
	if existing != "" {
		return nil
	}
	if err := s.Set(keyFirstStart, time.Now().UTC().Format("2006-01-02")); err != nil {
		return fmt.Errorf("failed to set %s: %w", keyFirstStart, err)
	}
	return nil
}

// DaysActive returns the whole days since the first start
func (s *MetadataStore) DaysActive() (int, error) {
	value, err := s.Get(keyFirstStart)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, fmt.Errorf("%s not set", keyFirstStart)
	}
	first, err := time.Parse("2006-01-02", value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", keyFirstStart, err)
	}
	return int(time.Since(first).Hours() / 24), nil
}
