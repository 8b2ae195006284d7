// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authgate.
//
// go-authgate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package file

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-authgate/pkg/storage"
)

func TestNew(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		store, err := New(t.TempDir())
		require.NoError(t, err)
		require.NotNil(t, store)

		keys, err := store.List("")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("creates nested directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "subdir", "nested")

		_, err := New(dir)
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("empty directory rejected", func(t *testing.T) {
		_, err := New("")
		assert.Error(t, err)
	})
}

func TestFileStorage_PutAndGet(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("credentials/abc", []byte("record"), nil))

	data, err := store.Get("credentials/abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("record"), data)
}

func TestFileStorage_Get_NotFound(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStorage_Overwrite(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("key", []byte("first"), nil))
	require.NoError(t, store.Put("key", []byte("second"), nil))

	data, err := store.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestFileStorage_Delete(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("key", []byte("v"), nil))
	require.NoError(t, store.Delete("key"))

	_, err = store.Get("key")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Delete("key"), storage.ErrNotFound)
}

func TestFileStorage_List(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("credentials/b", []byte("2"), nil))
	require.NoError(t, store.Put("credentials/a", []byte("1"), nil))
	require.NoError(t, store.Put("other/c", []byte("3"), nil))

	keys, err := store.List("credentials/")
	require.NoError(t, err)
	assert.Equal(t, []string{"credentials/a", "credentials/b"}, keys)

	all, err := store.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileStorage_Exists(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	exists, err := store.Exists("key")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Put("key", []byte("v"), nil))

	exists, err = store.Exists("key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestFileStorage_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file permissions not enforced on windows")
	}

	dir := t.TempDir()
	store, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put("key", []byte("secret"), storage.DefaultOptions()))

	info, err := os.Stat(filepath.Join(dir, "key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStorage_RejectsEscapingKeys(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	invalid := []string{
		"",
		"../outside",
		"../../etc/passwd",
		"/absolute/path",
		"nested/../../outside",
		"key\x00null",
	}

	for _, key := range invalid {
		_, err := store.Get(key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "key %q", key)

		err = store.Put(key, []byte("v"), nil)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "key %q", key)
	}
}
