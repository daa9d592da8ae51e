// Package wal is an append-only JSON-lines journal. Every Append is flushed to
// disk before it returns, so a replay after a crash sees every acknowledged
// record.
package wal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

const fileMode fs.FileMode = 0600

// WAL is safe for concurrent use.
type WAL struct {
	mu   sync.Mutex
	file *os.File
}

// Open opens or creates the journal at path.
func Open(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, fileMode)
	if err != nil {
		return nil, fmt.Errorf("wal: open %s: %w", path, err)
	}
	return &WAL{file: file}, nil
}

// Append encodes v as one line and syncs it.
func (w *WAL) Append(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wal: encode: %w", err)
	}
	b = append(b, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(b); err != nil {
		return fmt.Errorf("wal: write: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("wal: sync: %w", err)
	}
	return nil
}

// Replay calls fn for every record from the start of the journal. A torn
// final line, left by a crash mid-write, is truncated away.
func (w *WAL) Replay(fn func(raw json.RawMessage) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wal: seek: %w", err)
	}
	defer w.file.Seek(0, io.SeekEnd)

	reader := bufio.NewReader(w.file)
	var offset int64
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				if err := w.file.Truncate(offset); err != nil {
					return fmt.Errorf("wal: truncate torn record: %w", err)
				}
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("wal: read: %w", err)
		}
		offset += int64(len(line))
		if len(line) <= 1 {
			continue
		}
		if err := fn(json.RawMessage(line[:len(line)-1])); err != nil {
			return err
		}
	}
}

// Close closes the underlying file.
func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
