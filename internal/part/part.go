package part

import (
	"fmt"
	"io"
	"os"

	"github.com/aalhour/filequeue/internal/errs"
	"github.com/aalhour/filequeue/internal/fsx"
	"github.com/aalhour/filequeue/internal/testutil"
)

// DataFile wraps a part's append-only binary data file. A writer opens one
// in append mode; a consumer opens one read-only and seeks freely within
// it (forward-only in practice, but nothing here enforces that — the
// consumer state machine does).
type DataFile struct {
	path string
	f    *os.File
}

// CreateOrOpenForAppend opens a part's data file for append, creating the
// file if absent. The base directory must already exist.
func CreateOrOpenForAppend(baseDir, queueName string, id int) (*DataFile, error) {
	path := fsx.DataFilePath(baseDir, queueName, id)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.FailOpen, err)
	}
	return &DataFile{path: path, f: f}, nil
}

// OpenForRead opens a part's data file read-only. Returns errs.NotFound if
// the file does not exist.
func OpenForRead(baseDir, queueName string, id int) (*DataFile, error) {
	path := fsx.DataFilePath(baseDir, queueName, id)
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFound
		}
		return nil, fmt.Errorf("%w: %v", errs.FailOpen, err)
	}
	return &DataFile{path: path, f: f}, nil
}

// Append writes buf to the end of the data file and returns the number of
// bytes written.
func (d *DataFile) Append(buf []byte) (int, error) {
	testutil.MaybeKill(testutil.KPWriterAppend0)
	n, err := d.f.Write(buf)
	if err != nil {
		return n, fmt.Errorf("%w: %v", errs.FailWrite, err)
	}
	return n, nil
}

// Sync flushes the data file to stable storage.
func (d *DataFile) Sync() error {
	testutil.MaybeKill(testutil.KPWriterSync0)
	if err := d.f.Sync(); err != nil {
		return fmt.Errorf("%w: %v", errs.FailWrite, err)
	}
	testutil.MaybeKill(testutil.KPWriterSync1)
	return nil
}

// ReadAt reads len(buf) bytes starting at offset, matching io.ReaderAt
// semantics exactly as os.File.ReadAt does: any read that comes up short
// returns io.EOF, and the returned count tells a clean "nothing more yet"
// (n == 0) from a torn read at the tail (0 < n < len(buf)).
func (d *DataFile) ReadAt(buf []byte, offset int64) (int, error) {
	return d.f.ReadAt(buf, offset)
}

// Size returns the current on-disk length of the data file.
func (d *DataFile) Size() (int64, error) {
	fi, err := d.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.FailRead, err)
	}
	return fi.Size(), nil
}

// Path returns the data file's path on disk.
func (d *DataFile) Path() string {
	return d.path
}

// Close closes the underlying file handle.
func (d *DataFile) Close() error {
	return d.f.Close()
}

var _ io.Closer = (*DataFile)(nil)
