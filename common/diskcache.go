package common

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const (
	diskEntryExt = ".entry"
	tempPrefix   = "tmp-"

	markerRaw        byte = 'r'
	markerCompressed byte = 'z'
)

// DiskStore is a CacheRepository that persists every entry in its own file,
// so cached API responses survive between host invocations.
type DiskStore struct {
	dir    string
	logger *log.Logger

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu sync.Mutex
}

var _ CacheRepository = (*DiskStore)(nil)

// diskEntry is the gob-encoded envelope written to disk.
type diskEntry struct {
	Key       string
	Value     []byte
	ExpiresAt time.Time
}

// NewDiskStore opens (creating if needed) a disk cache under dir. A
// compressionLevel of 0 disables zstd compression. logger may be nil.
func NewDiskStore(dir string, compressionLevel int, logger *log.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ds := &DiskStore{dir: dir, logger: logger}
	if compressionLevel > 0 {
		var err error
		ds.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}
	// always able to read compressed entries, even if written with another level
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	ds.decoder = dec
	return ds, nil
}

// Dir returns the directory holding the cache files.
func (ds *DiskStore) Dir() string {
	return ds.dir
}

func (ds *DiskStore) Get(key string) ([]byte, bool) {
	value, _, found := ds.GetWithExpiration(key)
	return value, found
}

// GetWithExpiration returns the value and its expiry time. The time is zero
// for entries stored without expiry. Expired entries are removed and reported
// as not found.
func (ds *DiskStore) GetWithExpiration(key string) ([]byte, time.Time, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	path := ds.pathFor(key)
	entry, err := ds.readEntry(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			ds.logger.Warn("Dropping unreadable cache entry", "key", key, "error", err)
			_ = os.Remove(path)
		}
		return nil, time.Time{}, false
	}
	if entry.Key != key {
		// sha256 collision or foreign file
		return nil, time.Time{}, false
	}
	if !entry.ExpiresAt.IsZero() && !time.Now().Before(entry.ExpiresAt) {
		_ = os.Remove(path)
		return nil, time.Time{}, false
	}
	return entry.Value, entry.ExpiresAt, true
}

func (ds *DiskStore) Set(key string, value []byte, expiration time.Duration) {
	entry := diskEntry{Key: key, Value: value}
	if expiration > 0 {
		entry.ExpiresAt = time.Now().Add(expiration)
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.writeEntry(ds.pathFor(key), entry); err != nil {
		ds.logger.Error("Failed to write cache entry", "key", key, "error", err)
	}
}

func (ds *DiskStore) Delete(key string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := os.Remove(ds.pathFor(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		ds.logger.Warn("Failed to delete cache entry", "key", key, "error", err)
	}
}

// Clear removes every cache entry in the directory, along with temp files
// left by interrupted writes.
func (ds *DiskStore) Clear() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	entries, err := os.ReadDir(ds.dir)
	if err != nil {
		return fmt.Errorf("failed to list cache directory: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, diskEntryExt) || strings.HasPrefix(name, tempPrefix)) {
			continue
		}
		if err := os.Remove(filepath.Join(ds.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove cache entry: %w", err)
		}
	}
	return nil
}

// Close releases the zstd encoder and decoder.
func (ds *DiskStore) Close() error {
	if ds.encoder != nil {
		_ = ds.encoder.Close()
	}
	ds.decoder.Close()
	return nil
}

func (ds *DiskStore) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(ds.dir, hex.EncodeToString(sum[:])+diskEntryExt)
}

func (ds *DiskStore) readEntry(path string) (*diskEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty cache file")
	}

	payload := data[1:]
	switch data[0] {
	case markerRaw:
	case markerCompressed:
		payload, err = ds.decoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown cache file marker %q", data[0])
	}

	var entry diskEntry
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	return &entry, nil
}

func (ds *DiskStore) writeEntry(path string, entry diskEntry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}

	data := append([]byte{markerRaw}, buf.Bytes()...)
	if ds.encoder != nil {
		data = ds.encoder.EncodeAll(buf.Bytes(), []byte{markerCompressed})
	}

	// write to a temp file and rename so a concurrent reader never sees half an entry
	tmp, err := os.CreateTemp(ds.dir, tempPrefix+"*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
