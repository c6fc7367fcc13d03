// Package storage keeps the channel values of a stella engine in a CBOR encoded file.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Version of the file format
const Version = 1

var ErrNoState = errors.New("No stored channel values")

type record struct {
	Version int       `cbor:"1,keyasint"`
	SavedAt time.Time `cbor:"2,keyasint"`
	Values  []byte    `cbor:"3,keyasint"`
}

// File implements stella.Storage. Concurrent Save/Restore calls are serialized.
type File struct {
	Path string

	mu sync.Mutex
}

func NewFile(path string) *File {
	return &File{Path: path}
}

// Restore fills dest with the stored values. Stored values beyond len(dest) are ignored,
// missing values leave dest untouched. ErrNoState is returned if the file does not exist.
func (f *File) Restore(dest []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return ErrNoState
	} else if err != nil {
		return err
	}
	var rec record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("Failed to decode %v: %v", f.Path, err)
	}
	if rec.Version != Version {
		return fmt.Errorf("Unsupported version %v in %v (expected %v)", rec.Version, f.Path, Version)
	}
	copy(dest, rec.Values)
	return nil
}

func (f *File) Save(src []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return err
	}
	data, err := cbor.Marshal(record{
		Version: Version,
		SavedAt: time.Now(),
		Values:  src,
	})
	if err != nil {
		return err
	}

	// Write to a temporary file first, so a crash does not leave a truncated file behind
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.Path)
}

func (f *File) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := os.Remove(f.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
