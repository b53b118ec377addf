package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// On-disk layout: one file per key holding {"value": <json>, "expiry": <unix ms|null>}.
type diskEntry struct {
	Value  json.RawMessage `json:"value"`
	Expiry *int64          `json:"expiry"`
}

const (
	// Escaped keys longer than this are stored under a hashed name; most
	// filesystems cap a name at 255 bytes.
	maxDiskName    = 200
	diskNamePrefix = 64
)

// DiskTier persists cache entries as files under Dir, one per key, with the
// key percent-encoded as the filename. Long keys, such as distance rows for a
// full batch, use a readable prefix plus the key's sha256.
type DiskTier struct {
	Dir string
	now func() time.Time
}

func NewDiskTier(dir string) *DiskTier {
	return &DiskTier{Dir: dir, now: time.Now}
}

func (d *DiskTier) Name() string { return "disk" }

func (d *DiskTier) path(key string) string {
	return filepath.Join(d.Dir, diskFileName(key))
}

func diskFileName(key string) string {
	name := url.PathEscape(key)
	if len(name) <= maxDiskName {
		return name
	}
	sum := sha256.Sum256([]byte(key))
	return name[:diskNamePrefix] + "~" + hex.EncodeToString(sum[:])
}

func (d *DiskTier) Get(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	file := d.path(key)

	raw, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("disk cache: read %s: %w", filepath.Base(file), err)
	}

	var e diskEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, 0, false, fmt.Errorf("disk cache: decode %s: %w", filepath.Base(file), err)
	}
	if e.Expiry == nil {
		return e.Value, 0, true, nil
	}

	remaining := time.Duration(*e.Expiry-d.now().UnixMilli()) * time.Millisecond
	if remaining <= 0 {
		_ = os.Remove(file)
		return nil, 0, false, nil
	}
	return e.Value, remaining, true, nil
}

func (d *DiskTier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if !json.Valid(value) {
		return errors.New("disk cache: value is not valid JSON")
	}

	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("disk cache: create dir: %w", err)
	}

	e := diskEntry{Value: value}
	if ttl > 0 {
		exp := d.now().Add(ttl).UnixMilli()
		e.Expiry = &exp
	}

	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("disk cache: encode: %w", err)
	}

	// Write then rename so concurrent readers never see a partial file.
	tmp, err := os.CreateTemp(d.Dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("disk cache: create temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("disk cache: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("disk cache: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("disk cache: rename: %w", err)
	}

	return nil
}
