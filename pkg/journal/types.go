// Package journal stores received events in append-only files.
//
// Each record is a fixed 22-byte header carrying the receipt metadata
// followed by the event exactly as it arrived. Files may be gzip
// compressed; the writer compresses when configured to and the reader
// detects compression from the file contents.
package journal

import (
	"time"
)

// WriterConfig holds configuration for the journal writer
type WriterConfig struct {
	FilePath      string        // Path to the journal file
	Gzip          bool          // Compress the file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
	SiteID        uint16        // Stamped on records that carry none
}

// ReaderConfig holds configuration for the journal reader
type ReaderConfig struct {
	FilePath string
}

// RecordIterator provides streaming access to records
type RecordIterator interface {
	Next() bool
	Record() *Record
	Err() error
	Close() error
}

// Errors
var (
	ErrTruncated      = &JournalError{"journal ends inside a record"}
	ErrRecordTooLarge = &JournalError{"record exceeds maximum event size"}
	ErrClosed         = &JournalError{"journal is closed"}
)

// JournalError represents a journal error
type JournalError struct {
	Message string
}

func (e *JournalError) Error() string {
	return e.Message
}
