package journal

import (
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ssargent/lwes/pkg/codec"
	"github.com/ssargent/lwes/pkg/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(t *testing.T, seq int64) []byte {
	t.Helper()
	e := event.New("Journal::Test")
	_, err := e.Set("seq", event.Scalar(seq))
	require.NoError(t, err)
	data, err := e.MarshalBinary()
	require.NoError(t, err)
	return data
}

func tempJournal(t *testing.T, name string) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "journal_test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })
	return filepath.Join(tmpDir, name)
}

func TestRecord_Header(t *testing.T) {
	rec := &Record{
		ReceiptTime: 1700000000123,
		SenderIP:    netip.MustParseAddr("10.0.0.5"),
		SenderPort:  4242,
		SiteID:      7,
		Data:        []byte{1, 2, 3},
	}
	var header [HeaderSize]byte
	require.NoError(t, rec.EncodeHeader(header[:]))
	assert.Equal(t, []byte{0, 3}, header[:2])
	assert.Equal(t, []byte{10, 0, 0, 5}, header[10:14])
	assert.Equal(t, []byte{0, 0, 0, 0}, header[18:22])

	var decoded Record
	size, err := decoded.decodeHeader(header[:])
	require.NoError(t, err)
	assert.Equal(t, 3, size)
	assert.Equal(t, rec.ReceiptTime, decoded.ReceiptTime)
	assert.Equal(t, rec.SenderIP, decoded.SenderIP)
	assert.Equal(t, rec.SenderPort, decoded.SenderPort)
	assert.Equal(t, rec.SiteID, decoded.SiteID)
	assert.Equal(t, time.UnixMilli(1700000000123), decoded.Time())

	err = (&Record{Data: make([]byte, MaxEventSize+1)}).EncodeHeader(header[:])
	assert.ErrorIs(t, err, ErrRecordTooLarge)

	err = rec.EncodeHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, codec.ErrShortBuffer)
}

func TestRecord_Event(t *testing.T) {
	rec := &Record{
		ReceiptTime: 1234,
		SenderIP:    netip.MustParseAddr("192.168.0.1"),
		SenderPort:  9,
		Data:        testEvent(t, 42),
	}
	e, err := rec.Event(nil)
	require.NoError(t, err)
	assert.Equal(t, "Journal::Test", e.Name())
	assert.Equal(t, 4, e.Count())

	seq, err := event.Lookup[int64](e, "seq", codec.TypeI64)
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)
	ip, err := event.Lookup[netip.Addr](e, event.SenderIPAttr, codec.TypeIPAddr)
	require.NoError(t, err)
	assert.Equal(t, rec.SenderIP, ip)
}

func TestWriterReader_RoundTrip(t *testing.T) {
	for _, compressed := range []bool{false, true} {
		t.Run(fmt.Sprintf("gzip=%v", compressed), func(t *testing.T) {
			path := tempJournal(t, "events.log")

			w, err := NewWriter(WriterConfig{FilePath: path, Gzip: compressed, SiteID: 3})
			require.NoError(t, err)

			var offsets []int64
			for i := int64(0); i < 10; i++ {
				off, err := w.Write(&Record{
					ReceiptTime: 1000 + i,
					SenderIP:    netip.MustParseAddr("127.0.0.1"),
					SenderPort:  uint16(5000 + i),
					Data:        testEvent(t, i),
				})
				require.NoError(t, err)
				offsets = append(offsets, off)
			}
			assert.Equal(t, int64(0), offsets[0])
			assert.Equal(t, int64(10), w.Count())
			size := w.Size()
			require.NoError(t, w.Close())

			r, err := NewReader(ReaderConfig{FilePath: path})
			require.NoError(t, err)
			defer r.Close()

			it := r.Iterator()
			var i int64
			for it.Next() {
				rec := it.Record()
				assert.Equal(t, 1000+i, rec.ReceiptTime)
				assert.Equal(t, uint16(5000+i), rec.SenderPort)
				assert.Equal(t, uint16(3), rec.SiteID)
				assert.Equal(t, testEvent(t, i), rec.Data)
				i++
			}
			require.NoError(t, it.Err())
			assert.Equal(t, int64(10), i)
			assert.Equal(t, size, r.Offset())
		})
	}
}

func TestWriter_Append(t *testing.T) {
	for _, compressed := range []bool{false, true} {
		t.Run(fmt.Sprintf("gzip=%v", compressed), func(t *testing.T) {
			path := tempJournal(t, "append.log")

			for session := 0; session < 2; session++ {
				w, err := NewWriter(WriterConfig{FilePath: path, Gzip: compressed})
				require.NoError(t, err)
				_, err = w.Write(&Record{Data: testEvent(t, int64(session))})
				require.NoError(t, err)
				require.NoError(t, w.Close())
			}

			r, err := NewReader(ReaderConfig{FilePath: path})
			require.NoError(t, err)
			defer r.Close()

			count := 0
			for {
				_, err := r.ReadNext()
				if err == io.EOF {
					break
				}
				require.NoError(t, err)
				count++
			}
			assert.Equal(t, 2, count)
		})
	}
}

func TestReader_TruncatedTail(t *testing.T) {
	path := tempJournal(t, "truncated.log")
	w, err := NewWriter(WriterConfig{FilePath: path})
	require.NoError(t, err)
	for i := int64(0); i < 3; i++ {
		_, err := w.Write(&Record{Data: testEvent(t, i)})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(path, info.Size()-5))

	r, err := NewReader(ReaderConfig{FilePath: path})
	require.NoError(t, err)
	defer r.Close()

	it := r.Iterator()
	count := 0
	for it.Next() {
		count++
	}
	assert.Equal(t, 2, count)
	assert.ErrorIs(t, it.Err(), ErrTruncated)
	assert.False(t, it.Next())
}

func TestWriter_FsyncInterval(t *testing.T) {
	path := tempJournal(t, "interval.log")
	w, err := NewWriter(WriterConfig{FilePath: path, FsyncInterval: 10 * time.Millisecond, BufferSize: 4096})
	require.NoError(t, err)

	_, err = w.Write(&Record{Data: testEvent(t, 1)})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		info, err := os.Stat(path)
		return err == nil && info.Size() > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write(&Record{Data: testEvent(t, 2)})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.Sync(), ErrClosed)
}

func TestNewWriter_InvalidPath(t *testing.T) {
	blocker := tempJournal(t, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0600))

	w, err := NewWriter(WriterConfig{FilePath: filepath.Join(blocker, "sub", "events.log")})
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestNewReader_Missing(t *testing.T) {
	_, err := NewReader(ReaderConfig{FilePath: "/does/not/exist.log"})
	assert.Error(t, err)
}
