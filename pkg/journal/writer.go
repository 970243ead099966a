package journal

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Writer appends records to a journal file
type Writer struct {
	file       *os.File
	gz         *gzip.Writer
	writer     *bufio.Writer
	fsyncTimer *time.Timer
	config     WriterConfig
	mutex      sync.Mutex
	header     [HeaderSize]byte
	offset     int64 // Uncompressed bytes written, including earlier sessions for plain files
	count      int64 // Records written by this writer
	closed     bool
}

// NewWriter opens or creates the journal file and positions at its end.
// Appending to a gzip journal adds a new gzip member, which readers see as
// one continuous stream.
func NewWriter(config WriterConfig) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0750); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, err
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	if config.BufferSize <= 0 {
		config.BufferSize = 64 * 1024
	}

	w := &Writer{
		file:   file,
		config: config,
	}

	var dst io.Writer = file
	if config.Gzip {
		w.gz = gzip.NewWriter(file)
		dst = w.gz
	} else {
		w.offset = stat.Size()
	}
	w.writer = bufio.NewWriterSize(dst, config.BufferSize)

	if config.FsyncInterval > 0 {
		w.fsyncTimer = time.AfterFunc(config.FsyncInterval, func() {
			w.mutex.Lock()
			defer w.mutex.Unlock()
			if !w.closed {
				_ = w.sync()
			}
		})
	}

	return w, nil
}

// Write appends a record and returns the uncompressed offset it starts at
func (w *Writer) Write(rec *Record) (int64, error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return 0, ErrClosed
	}
	if rec.SiteID == 0 {
		rec.SiteID = w.config.SiteID
	}
	if err := rec.EncodeHeader(w.header[:]); err != nil {
		return 0, err
	}

	if _, err := w.writer.Write(w.header[:]); err != nil {
		return 0, err
	}
	if _, err := w.writer.Write(rec.Data); err != nil {
		return 0, err
	}

	recordOffset := w.offset
	w.offset += int64(HeaderSize + len(rec.Data))
	w.count++

	if w.config.FsyncInterval == 0 {
		if err := w.sync(); err != nil {
			return 0, err
		}
	} else if w.fsyncTimer != nil {
		w.fsyncTimer.Reset(w.config.FsyncInterval)
	}

	return recordOffset, nil
}

// Sync flushes buffered records and fsyncs the file
func (w *Writer) Sync() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.sync()
}

func (w *Writer) sync() error {
	if err := w.writer.Flush(); err != nil {
		return err
	}
	if w.gz != nil {
		if err := w.gz.Flush(); err != nil {
			return err
		}
	}
	return w.file.Sync()
}

// Close flushes, finishes the gzip stream and closes the file
func (w *Writer) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.fsyncTimer != nil {
		w.fsyncTimer.Stop()
	}

	if err := w.writer.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	if w.gz != nil {
		if err := w.gz.Close(); err != nil {
			_ = w.file.Close()
			return err
		}
	}
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// Size returns the uncompressed size of the journal
func (w *Writer) Size() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.offset
}

// Count returns the number of records written since the writer was opened
func (w *Writer) Count() int64 {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.count
}

// Path returns the file path
func (w *Writer) Path() string {
	return w.config.FilePath
}
