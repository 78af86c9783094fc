package storage

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryObjectStorage()
	key := "owner/estimate/doc/photo.jpg"

	t.Run("upload stores bytes", func(t *testing.T) {
		require.NoError(t, s.Upload(ctx, key, bytes.NewReader([]byte("jpeg")), 4, "image/jpeg"))

		data, ok := s.Get(key)
		require.True(t, ok)
		assert.Equal(t, []byte("jpeg"), data)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("size mismatch is rejected", func(t *testing.T) {
		err := s.Upload(ctx, "other", bytes.NewReader([]byte("abc")), 10, "text/plain")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "size mismatch")
	})

	t.Run("download url carries the key", func(t *testing.T) {
		url, expiresAt, err := s.GenerateDownloadURL(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, s.BaseURL+"/"+key)
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("delete removes object", func(t *testing.T) {
		require.NoError(t, s.DeleteObject(ctx, key))
		_, ok := s.Get(key)
		assert.False(t, ok)
		assert.NoError(t, s.DeleteObject(ctx, key), "deleting twice is fine")
	})

	t.Run("empty key", func(t *testing.T) {
		assert.ErrorIs(t, s.Upload(ctx, "", bytes.NewReader(nil), 0, "text/plain"), errEmptyKey)
		assert.ErrorIs(t, s.DeleteObject(ctx, ""), errEmptyKey)
		_, _, err := s.GenerateDownloadURL(ctx, "", time.Minute)
		assert.ErrorIs(t, err, errEmptyKey)
	})
}
