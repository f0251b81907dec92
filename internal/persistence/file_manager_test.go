package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qrd/internal/models"
	"qrd/internal/store/memory"
	"qrd/internal/testutil"
)

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	require.NoError(t, s.Put(context.Background(), &models.CodeRecord{
		ID:          "QR_1",
		Fingerprint: "fp-1",
		AssetID:     "A1",
		Settings:    models.RenderSettings{Size: 256, Level: "M", Format: "PNG"},
		CreatedAt:   time.Now().UTC(),
	}))
	return s
}

func newTestFileManager(compressor *testutil.MockCompressor, snapshotter *memory.Store) *FileManager {
	return NewFileManager(compressor, snapshotter, &testutil.MockLogger{})
}

func TestFileManager_SaveToFile_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.dat")

	fm := newTestFileManager(&testutil.MockCompressor{}, seededStore(t))
	require.NoError(t, fm.SaveToFile(path))

	_, err := os.Stat(path)
	assert.NoError(t, err)

	// Temp file should not exist
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileManager_LoadFromFile_FileNotExist(t *testing.T) {
	fm := newTestFileManager(&testutil.MockCompressor{}, memory.NewStore())
	err := fm.LoadFromFile("/nonexistent/path/file.dat")
	assert.NoError(t, err) // not an error, just no data
}

func TestFileManager_Roundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.dat")

	src := seededStore(t)
	require.NoError(t, src.AppendScanEvent(context.Background(), &models.ScanEvent{
		EventID:   "SCAN_1",
		RecordID:  "QR_1",
		Timestamp: time.Now().UTC(),
	}))

	comp := &testutil.MockCompressor{}
	require.NoError(t, newTestFileManager(comp, src).SaveToFile(path))

	dst := memory.NewStore()
	require.NoError(t, newTestFileManager(comp, dst).LoadFromFile(path))

	rec, err := dst.Get(context.Background(), "QR_1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "fp-1", rec.Fingerprint)

	events, err := dst.ScanEvents(context.Background(), "QR_1")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestFileManager_InvalidSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invalid.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json at all"), 0644))

	fm := newTestFileManager(&testutil.MockCompressor{}, memory.NewStore())
	assert.Error(t, fm.LoadFromFile(path))
}

func TestFileManager_CompressError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "err.dat")

	comp := &testutil.MockCompressor{
		CompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("compress failed")
		},
	}

	err := newTestFileManager(comp, seededStore(t)).SaveToFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "compress failed")
}

func TestFileManager_DecompressError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dec.dat")
	require.NoError(t, os.WriteFile(path, []byte("some data"), 0644))

	comp := &testutil.MockCompressor{
		DecompressFn: func(b []byte) ([]byte, error) {
			return nil, errors.New("decompress failed")
		},
	}

	err := newTestFileManager(comp, memory.NewStore()).LoadFromFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decompress failed")
}
