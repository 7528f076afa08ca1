package persistence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/subsurf/blobstore"
	"github.com/hupe1980/subsurf/resource"
)

func TestArchive(t *testing.T) {
	stores := map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 20})
			a := NewArchive(store, WithPrefix("proj/"), WithSidecar(), WithController(rc))
			d := surface(t)

			key, err := a.Put(ctx, "topo surface", d)
			require.NoError(t, err)
			assert.Equal(t, "proj/topo%20surface.le", key)

			got, err := a.Get(ctx, "topo surface")
			require.NoError(t, err)
			assert.True(t, d.Equal(got, 0))

			h, err := a.Stat(ctx, "topo surface")
			require.NoError(t, err)
			assert.Equal(t, uint64(4), h.VertexCount)

			_, err = a.Put(ctx, "fault", d)
			require.NoError(t, err)

			names, err := a.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"fault", "topo surface"}, names)

			keys, err := store.List(ctx, "proj/")
			require.NoError(t, err)
			assert.Contains(t, keys, "proj/topo%20surface.json")

			require.NoError(t, a.Delete(ctx, "fault"))
			names, err = a.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"topo surface"}, names)

			_, err = a.Get(ctx, "fault")
			assert.ErrorIs(t, err, blobstore.ErrNotFound)
		})
	}
}

type sidecarFailStore struct {
	*blobstore.MemoryStore
}

func (s *sidecarFailStore) Put(ctx context.Context, name string, data []byte) error {
	if strings.HasSuffix(name, SidecarExt) {
		return errors.New("quota exceeded")
	}
	return s.MemoryStore.Put(ctx, name, data)
}

func TestArchive_SidecarFailureKeepsArtifact(t *testing.T) {
	ctx := context.Background()
	a := NewArchive(&sidecarFailStore{MemoryStore: blobstore.NewMemoryStore()}, WithSidecar())
	d := surface(t)

	_, err := a.Put(ctx, "horizon", d)
	var iwe *IOWriteError
	require.ErrorAs(t, err, &iwe)
	assert.Equal(t, "put sidecar", iwe.Op)

	got, err := a.Get(ctx, "horizon")
	require.NoError(t, err)
	assert.True(t, d.Equal(got, 0))
}

func TestArchive_Corrupt(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "bad.le", []byte("not an artifact at all, just some text padding it out to sixty four bytes.")))
	require.NoError(t, store.Put(ctx, "short.le", []byte("SSUD")))

	a := NewArchive(store)
	_, err := a.Get(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidMagic)

	_, err = a.Stat(ctx, "short")
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = a.Put(ctx, "..", surface(t))
	assert.ErrorIs(t, err, ErrInvalidName)
}
