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

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend_PutAndGet(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	err := backend.Put("test-key", []byte("test-value"), nil)
	require.NoError(t, err)

	result, err := backend.Get("test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("test-value"), result)
}

func TestMemoryBackend_Get_NotFound(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	_, err := backend.Get("nonexistent-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackend_Get_ReturnsCopy(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	require.NoError(t, backend.Put("test-key", []byte("original"), nil))

	result, err := backend.Get("test-key")
	require.NoError(t, err)

	// Mutating the returned slice must not affect the stored value
	result[0] = 'X'

	again, err := backend.Get("test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}

func TestMemoryBackend_Delete(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	require.NoError(t, backend.Put("test-key", []byte("v"), nil))
	require.NoError(t, backend.Delete("test-key"))

	_, err := backend.Get("test-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackend_Delete_NotFound(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	err := backend.Delete("nonexistent-key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBackend_List(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	require.NoError(t, backend.Put("credentials/a", []byte("1"), nil))
	require.NoError(t, backend.Put("credentials/b", []byte("2"), nil))
	require.NoError(t, backend.Put("sessions/c", []byte("3"), nil))

	keys, err := backend.List("credentials/")
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, "credentials/a")
	assert.Contains(t, keys, "credentials/b")

	all, err := backend.List("")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestMemoryBackend_Exists(t *testing.T) {
	backend := NewMemory()
	defer func() { _ = backend.Close() }()

	exists, err := backend.Exists("test-key")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, backend.Put("test-key", []byte("v"), nil))

	exists, err = backend.Exists("test-key")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryBackend_Closed(t *testing.T) {
	backend := NewMemory()
	require.NoError(t, backend.Close())

	err := backend.Put("test-key", []byte("v"), nil)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = backend.Get("test-key")
	assert.ErrorIs(t, err, ErrClosed)
}
