package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreGetMissing(t *testing.T) {
	s := NewMemStore()
	data, ok, err := s.Get(context.Background(), "missing-key")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestMemStorePutGetRoundTrip(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "cluster-a/ems", []byte(`{"foo":"bar"}`)))

	data, ok, err := s.Get(ctx, "cluster-a/ems")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"foo":"bar"}`, string(data))
}

func TestMemStoreIsolatesCopies(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	original := []byte("original")
	require.NoError(t, s.Put(ctx, "k", original))
	original[0] = 'X'

	data, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
}
