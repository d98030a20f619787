package file_storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/juju/fslock"

	"github.com/lidofinance/rta/storage"
)

var _ storage.Storage = (*FileStorage)(nil)

// FileStorage is an append-only journal with one JSON message per line. The
// line number of a message is its offset.
type FileStorage struct {
	lockFile *fslock.Lock

	dataFile *os.File
}

const (
	defaultLockFile = "/tmp/rta_journal_lock"

	maxLineSize = 4 * 1024 * 1024
)

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	return scanner
}

func countLines(r io.Reader) (uint64, error) {
	var count uint64
	scanner := newScanner(r)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

// NewFileStorage opens (or creates) the journal at filename. lockFilename is
// optional and defaults to a file in /tmp.
func NewFileStorage(filename string, lockFilename ...string) (*FileStorage, error) {
	var (
		fs  FileStorage
		err error
	)
	if len(lockFilename) > 0 && lockFilename[0] != "" {
		fs.lockFile = fslock.New(lockFilename[0])
	} else {
		fs.lockFile = fslock.New(defaultLockFile)
	}

	if fs.dataFile, err = os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644); err != nil {
		return nil, fmt.Errorf("failed to open a data file: %w", err)
	}
	return &fs, nil
}

func (fs *FileStorage) send(m storage.Message, offset uint64) (storage.Message, error) {
	m.ID = uuid.New().String()
	m.Offset = offset

	data, err := json.Marshal(m)
	if err != nil {
		return m, fmt.Errorf("failed to marshal a message %s: %w", m.Event, err)
	}
	if _, err = fmt.Fprintln(fs.dataFile, string(data)); err != nil {
		return m, fmt.Errorf("failed to write a message to a data file: %w", err)
	}
	return m, nil
}

// Send appends messages in order. Their ID and Offset are filled in place.
func (fs *FileStorage) Send(msgs ...storage.Message) error {
	if err := fs.lockFile.Lock(); err != nil {
		return fmt.Errorf("failed to lock a file: %w", err)
	}
	defer fs.lockFile.Unlock()

	// otherwise countLines will return zero
	if _, err := fs.dataFile.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek a offset to the start of a data file: %w", err)
	}
	offset, err := countLines(fs.dataFile)
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}

	for i, m := range msgs {
		if msgs[i], err = fs.send(m, offset); err != nil {
			return err
		}
		offset++
	}
	return nil
}

// GetMessages returns every message starting at offset.
func (fs *FileStorage) GetMessages(offset uint64) ([]storage.Message, error) {
	var msgs []storage.Message

	if _, err := fs.dataFile.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek a offset to the start of a data file: %w", err)
	}
	scanner := newScanner(fs.dataFile)
	for scanner.Scan() {
		if offset > 0 {
			offset--
			continue
		}

		var data storage.Message
		row := scanner.Bytes()
		if err := json.Unmarshal(row, &data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal a message %s: %w", string(row), err)
		}
		msgs = append(msgs, data)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read a data file: %w", err)
	}
	return msgs, nil
}

func (fs *FileStorage) Close() error {
	return fs.dataFile.Close()
}
