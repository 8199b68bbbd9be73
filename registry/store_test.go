package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warren-tools/warren/errors"
)

func TestFileStoreLoadAbsentFile(t *testing.T) {
	store := NewFileStore(t.TempDir())

	reg, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, reg.Sessions)
	assert.Equal(t, CurrentVersion, reg.Version)
}

func TestFileStoreSaveAndLoadRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	reg := NewRegistry()
	reg.Put(newRecord("brave-penguin", 4242))
	require.NoError(t, store.Save(reg))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Sessions, 1)

	rec := loaded.Get("brave-penguin")
	require.NotNil(t, rec)
	assert.Equal(t, 4242, rec.PID)
	assert.Equal(t, "/tmp/brave-penguin", rec.WorktreePath)
}

func TestFileStoreLoadCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))

	_, err := store.Load()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorruptRegistry, errors.GetCode(err))
}

func TestFileStoreLoadOrBackupQuarantinesCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0644))

	reg, backupPath, err := store.LoadOrBackup()
	require.NoError(t, err)
	assert.Empty(t, reg.Sessions)
	require.NotEmpty(t, backupPath)
	assert.True(t, strings.HasSuffix(backupPath, ".backup"))

	// Original bytes survive under the backup name.
	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))

	// The bad document is gone from the canonical path.
	_, err = os.Stat(store.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreLoadOrBackupHealthyDocument(t *testing.T) {
	store := NewFileStore(t.TempDir())
	reg := NewRegistry()
	reg.Put(newRecord("quiet-otter", 0))
	require.NoError(t, store.Save(reg))

	loaded, backupPath, err := store.LoadOrBackup()
	require.NoError(t, err)
	assert.Empty(t, backupPath)
	assert.Len(t, loaded.Sessions, 1)
}

func TestFileStoreSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	// Hammer the store from several writers; every observed document must
	// be complete, valid JSON.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			reg := NewRegistry()
			reg.Put(newRecord("writer", n+1))
			for j := 0; j < 20; j++ {
				_ = store.Save(reg)
				if data, err := os.ReadFile(store.Path()); err == nil {
					var r Registry
					assert.NoError(t, json.Unmarshal(data, &r))
				}
			}
		}(i)
	}
	wg.Wait()

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Sessions, 1)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.Contains(e.Name(), ".tmp-"), "stale temp file: %s", e.Name())
	}
}

func TestFileStorePath(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	assert.Equal(t, filepath.Join(dir, "sessions.json"), store.Path())
}
