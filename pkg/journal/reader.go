package journal

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Reader provides sequential access to the records of a journal file
type Reader struct {
	file   *os.File
	gz     *gzip.Reader
	reader *bufio.Reader
	offset int64
	config ReaderConfig
}

// NewReader opens a journal file, plain or gzip compressed
func NewReader(config ReaderConfig) (*Reader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:   file,
		reader: bufio.NewReader(file),
		config: config,
	}

	magic, err := r.reader.Peek(len(gzipMagic))
	if err == nil && bytes.Equal(magic, gzipMagic) {
		r.gz, err = gzip.NewReader(r.reader)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		r.reader = bufio.NewReader(r.gz)
	}

	return r, nil
}

// ReadNext reads the next record. It returns io.EOF at a clean end of
// file and ErrTruncated when the file ends part way through a record.
func (r *Reader) ReadNext() (*Record, error) {
	var header [HeaderSize]byte
	n, err := io.ReadFull(r.reader, header[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	r.offset += int64(n)

	rec := &Record{}
	size, err := rec.decodeHeader(header[:])
	if err != nil {
		return nil, err
	}

	rec.Data = make([]byte, size)
	n, err = io.ReadFull(r.reader, rec.Data)
	if err != nil {
		if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	r.offset += int64(n)

	return rec, nil
}

// Offset returns the uncompressed read offset
func (r *Reader) Offset() int64 {
	return r.offset
}

// Iterator returns a streaming iterator for records
func (r *Reader) Iterator() RecordIterator {
	return &recordIterator{reader: r}
}

// Close closes the journal file
func (r *Reader) Close() error {
	if r.gz != nil {
		_ = r.gz.Close()
	}
	return r.file.Close()
}

type recordIterator struct {
	reader *Reader
	record *Record
	err    error
}

func (it *recordIterator) Next() bool {
	if it.err != nil {
		return false
	}
	it.record, it.err = it.reader.ReadNext()
	return it.err == nil
}

func (it *recordIterator) Record() *Record {
	return it.record
}

// Err returns the error that stopped iteration, nil at a clean end of file
func (it *recordIterator) Err() error {
	if it.err == io.EOF {
		return nil
	}
	return it.err
}

func (it *recordIterator) Close() error {
	// the reader is owned by the caller
	return nil
}
