package kv_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/wms-terminal/internal/infrastructure/kv"
)

func TestFileStore_CicloBasico(t *testing.T) {
	st, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	// Clave ausente: (nil, nil), nunca error.
	v, err := st.Get(ctx, "draft:entry")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, st.Set(ctx, "draft:entry", []byte(`{"lines":[]}`)))
	v, err = st.Get(ctx, "draft:entry")
	require.NoError(t, err)
	assert.Equal(t, `{"lines":[]}`, string(v))

	// Sobrescritura.
	require.NoError(t, st.Set(ctx, "draft:entry", []byte(`{"lines":[1]}`)))
	v, err = st.Get(ctx, "draft:entry")
	require.NoError(t, err)
	assert.Equal(t, `{"lines":[1]}`, string(v))

	require.NoError(t, st.Delete(ctx, "draft:entry"))
	v, err = st.Get(ctx, "draft:entry")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestFileStore_DeleteInexistenteNoEsError(t *testing.T) {
	st, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, st.Delete(context.Background(), "no-existe"))
}

// Las claves con separadores no deben escapar del directorio de datos.
func TestFileStore_ClavesSaneadas(t *testing.T) {
	dir := t.TempDir()
	st, err := kv.NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "../fuera/draft:entry", []byte("x")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "el archivo debe quedar dentro del directorio")
	assert.NotContains(t, entries[0].Name(), string(filepath.Separator))

	v, err := st.Get(ctx, "../fuera/draft:entry")
	require.NoError(t, err)
	assert.Equal(t, "x", string(v))
}

// Claves distintas no interfieren entre sí (alcance por pantalla).
func TestFileStore_ClavesIndependientes(t *testing.T) {
	st, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "draft:entry", []byte("a")))
	require.NoError(t, st.Set(ctx, "draft:exit", []byte("b")))
	require.NoError(t, st.Delete(ctx, "draft:entry"))

	v, err := st.Get(ctx, "draft:exit")
	require.NoError(t, err)
	assert.Equal(t, "b", string(v))
}

func TestNewFileStore_DirectorioVacio(t *testing.T) {
	_, err := kv.NewFileStore("")
	assert.Error(t, err)
}
