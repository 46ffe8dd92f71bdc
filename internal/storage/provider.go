// Package storage defines the docs-root file-system abstraction.
package storage

import "time"

// FileInfo is lightweight per-file metadata returned by list operations.
type FileInfo struct {
	Path     string    `json:"path"`
	Checksum string    `json:"checksum"`
	ModTime  time.Time `json:"mod_time"`
}

// Provider is the interface for docs-root file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the
	// docs root), sorted by path, excluding ignored names and temp files.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
}
