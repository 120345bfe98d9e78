package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagedao/hub-api/pkg/contenthub"
	"github.com/pagedao/hub-api/pkg/contenthub/registrysource/fs"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestSource_GetContracts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ethereum.json", `[{"address": "0xE1", "type": "nft", "name": "Eth"}]`)
	writeFile(t, dir, "base.yaml", "- address: \"0xB1\"\n  type: book\n  featured: true\n")
	writeFile(t, dir, "notes.txt", "ignored")

	src, err := fs.New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	all, err := src.GetContracts(ctx, "all")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, contenthub.ChainBase, all[0].Chain)
	assert.True(t, all[0].Featured)
	assert.Equal(t, contenthub.ChainEthereum, all[1].Chain)

	eth, err := src.GetContracts(ctx, "ethereum")
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Equal(t, "Eth", eth[0].Name)

	none, err := src.GetContracts(ctx, "polygon")
	require.NoError(t, err)
	assert.Empty(t, none)

	reg, err := contenthub.LoadRegistry(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())
}

func TestSource_Errors(t *testing.T) {
	_, err := fs.New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "zora.json", `[{"address": "0xZ1"}]`)
	src, err := fs.New(dir)
	require.NoError(t, err)
	_, err = src.GetContracts(context.Background(), "zora")
	assert.ErrorIs(t, err, contenthub.ErrInvalidParam)
}
