package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/antongulenko/stella/stella"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveRestore(t *testing.T) {
	a := assert.New(t)
	f := NewFile(filepath.Join(t.TempDir(), "sub", "stella.cbor"))

	a.Equal(ErrNoState, f.Restore(make([]byte, 4)))

	a.NoError(f.Save([]byte{1, 2, 3, 4}))
	dest := make([]byte, 4)
	a.NoError(f.Restore(dest))
	a.Equal([]byte{1, 2, 3, 4}, dest)

	// Shorter and longer destinations
	short := make([]byte, 2)
	a.NoError(f.Restore(short))
	a.Equal([]byte{1, 2}, short)
	long := []byte{9, 9, 9, 9, 9, 9}
	a.NoError(f.Restore(long))
	a.Equal([]byte{1, 2, 3, 4, 9, 9}, long)

	a.NoError(f.Clear())
	a.NoError(f.Clear())
	a.Equal(ErrNoState, f.Restore(dest))
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stella.cbor")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0x00, 0x13}, 0644))
	assert.Error(t, NewFile(path).Restore(make([]byte, 3)))
}

func TestEngineRoundTrip(t *testing.T) {
	a := assert.New(t)
	path := filepath.Join(t.TempDir(), "stella.cbor")

	e, err := stella.New(stella.DefaultConfig)
	require.NoError(t, err)
	e.SetStorage(NewFile(path))
	e.Dmx([]byte{byte(stella.SetFade), 10, 20, 30})
	e.Save()

	restored, err := stella.New(stella.DefaultConfig)
	require.NoError(t, err)
	restored.SetStorage(NewFile(path))
	restored.Load()
	a.Equal([]byte{10, 20, 30, 0, 0, 0, 0, 0}, restored.Output().PwmChannels)
}
