package sensor

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/stepmeter/internal/logger"
)

// FileBackend tails a JSON-lines file of readings, one DecodeReading
// document per line. Only lines appended after Start are delivered.
// A sensor bridge (adb, a phone sync job, a test harness) appends to it.
type FileBackend struct {
	watcher  *fsnotify.Watcher
	out      chan Reading
	stopChan chan struct{}
	done     chan struct{}
	path     string
	partial  []byte
	offset   int64
	caps     Capabilities
	mu       sync.Mutex
	closed   bool
}

// NewFileBackend creates a backend for path advertising caps.
func NewFileBackend(path string, caps Capabilities) *FileBackend {
	return &FileBackend{path: path, caps: caps}
}

// Probe returns the configured capabilities.
func (b *FileBackend) Probe(context.Context) (Capabilities, error) {
	return b.caps, nil
}

// Start creates the file if needed, seeks to its end and watches for
// appends.
func (b *FileBackend) Start(_ context.Context, kind Kind) (<-chan Reading, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.watcher != nil {
		return nil, errors.New("file backend already started")
	}
	if !b.caps.Has(kind) {
		return nil, ErrUnavailable
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create feed directory: %w", err)
	}
	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_RDONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed: %w", err)
	}
	info, err := f.Stat()
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to stat feed: %w", err)
	}
	b.offset = info.Size()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory so truncation by rename is noticed too.
	if err := watcher.Add(filepath.Dir(b.path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	b.watcher = watcher
	b.out = make(chan Reading, 256)
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	go b.watchLoop()
	return b.out, nil
}

// Close stops watching and closes the reading channel.
func (b *FileBackend) Close() error {
	b.mu.Lock()
	if b.watcher == nil || b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	watcher, stop, done := b.watcher, b.stopChan, b.done
	b.mu.Unlock()

	close(stop)
	err := watcher.Close()
	<-done
	return err
}

func (b *FileBackend) watchLoop() {
	defer close(b.done)
	defer close(b.out)

	for {
		select {
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(b.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				b.readAppended()
			}

		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Feed watcher error", "path", b.path, "error", err)

		case <-b.stopChan:
			return
		}
	}
}

// readAppended delivers complete lines written since the last read.
func (b *FileBackend) readAppended() {
	f, err := os.Open(b.path)
	if err != nil {
		logger.Warn("Failed to open feed", "path", b.path, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return
	}
	if info.Size() < b.offset {
		logger.Info("Feed truncated, reading from start", "path", b.path)
		b.offset = 0
		b.partial = nil
	}
	if _, err := f.Seek(b.offset, io.SeekStart); err != nil {
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		logger.Warn("Failed to read feed", "path", b.path, "error", err)
		return
	}
	b.offset += int64(len(data))

	data = append(b.partial, data...)
	last := bytes.LastIndexByte(data, '\n')
	if last < 0 {
		b.partial = data
		return
	}
	b.partial = append([]byte(nil), data[last+1:]...)

	scanner := bufio.NewScanner(bytes.NewReader(data[:last+1]))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		r, err := DecodeReading(line)
		if err != nil {
			logger.Warn("Skipping malformed feed line", "error", err)
			continue
		}
		select {
		case b.out <- r:
		case <-b.stopChan:
			return
		}
	}
}
