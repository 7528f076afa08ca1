package persistence

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/hupe1980/subsurf/element"
	"github.com/hupe1980/subsurf/internal/fsutil"
	"github.com/hupe1980/subsurf/mesh"
)

func TestWriteNamed_Idempotent(t *testing.T) {
	dir := t.TempDir()
	d := surface(t)

	p1, err := WriteNamed("leapfrog1", d, dir)
	require.NoError(t, err)
	first, err := os.ReadFile(p1)
	require.NoError(t, err)

	p2, err := WriteNamed("leapfrog1", d, dir)
	require.NoError(t, err)
	second, err := os.ReadFile(p2)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "leapfrog1.le"), p1)
	assert.Equal(t, p1, p2)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, fsutil.IsTemp(entries[0].Name()))
}

func TestWriteNamed_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	d := surface(t)

	_, err := WriteNamed("surfaces/topo v2", d, dir)
	require.NoError(t, err)

	got, err := ReadNamed("surfaces/topo v2", dir)
	require.NoError(t, err)
	assert.True(t, d.Equal(got, 0))

	_, err = os.Stat(filepath.Join(dir, "surfaces%2Ftopo%20v2.le"))
	assert.NoError(t, err)
}

func TestWriteNamed_Scenario(t *testing.T) {
	d, err := mesh.FromArray([][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}, [][]int{{0, 1, 2}})
	require.NoError(t, err)
	_, err = element.NewTriSurf(d)
	require.NoError(t, err)

	b, err := Encode(d)
	require.NoError(t, err)
	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}}, got.CellArray())
}

func TestWriteNamed_Sidecar(t *testing.T) {
	dir := t.TempDir()
	d := surface(t)

	path, err := WriteNamed("leapfrog1", d, dir, WithSidecar())
	require.NoError(t, err)

	sc, err := ReadSidecar("leapfrog1", dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	digest := blake3.Sum256(raw)

	assert.Equal(t, "leapfrog1", sc.Name)
	assert.Equal(t, 4, sc.Vertices)
	assert.Equal(t, 2, sc.Cells)
	assert.Equal(t, 3, sc.Arity)
	assert.Equal(t, int64(len(raw)), sc.Size)
	assert.Equal(t, hex.EncodeToString(digest[:]), sc.BLAKE3)
	assert.Equal(t, []AttributeInfo{{Name: "depth", Kind: "float64"}, {Name: "id", Kind: "int64"}}, sc.VertexAttributes)
	assert.Equal(t, []AttributeInfo{{Name: "lith", Kind: "int64"}}, sc.CellAttributes)

	h, err := ReadHeader(raw)
	require.NoError(t, err)
	assert.Equal(t, h.Checksum, sc.CRC32)
}

func TestWriteNamed_Errors(t *testing.T) {
	d := surface(t)

	t.Run("invalid name", func(t *testing.T) {
		for _, name := range []string{"", ".", ".."} {
			_, err := WriteNamed(name, d, t.TempDir())
			assert.ErrorIs(t, err, ErrInvalidName)
		}
	})

	t.Run("dir is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

		_, err := WriteNamed("a", d, file)
		var we *IOWriteError
		require.ErrorAs(t, err, &we)
		assert.ErrorIs(t, err, ErrIOWrite)
	})

	t.Run("nil mesh", func(t *testing.T) {
		_, err := WriteNamed("a", nil, t.TempDir())
		assert.ErrorIs(t, err, ErrIOWrite)
	})
}

func TestReadNamed_Missing(t *testing.T) {
	_, err := ReadNamed("nothing", t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"leapfrog1", "leapfrog1"},
		{"a b/c", "a%20b%2Fc"},
		{".hidden", "%2Ehidden"},
		{"v1.2-final_x", "v1.2-final_x"},
		{"../up", "%2E.%2Fup"},
		{"Bohrung-Ö", "Bohrung-%C3%96"},
		{"50%", "50%25"},
	}
	for _, tc := range tests {
		got, err := SanitizeName(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestWriteNamed_DistinctNamesDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	a := surface(t)
	b, err := mesh.FromArray([][3]float64{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}}, [][]int{{0, 1, 2}})
	require.NoError(t, err)

	p1, err := WriteNamed("north/top", a, dir)
	require.NoError(t, err)
	p2, err := WriteNamed("north_top", b, dir)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	got, err := ReadNamed("north/top", dir)
	require.NoError(t, err)
	assert.True(t, got.Equal(a, 0))
}
