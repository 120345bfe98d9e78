package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtures = "../../pkg/contenthub/tracker/memory/testdata/fixtures.yaml"

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--fixtures", fixtures))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestPlanCommand(t *testing.T) {
	out, _, err := execute(t, "plan", "0xAA", "--chain", "base", "--type", "nft")
	require.NoError(t, err)
	assert.Contains(t, out, "CHAIN")
	assert.Contains(t, out, "1  base   nft")
	assert.Contains(t, out, "hint")
	assert.Contains(t, out, "book")
}

func TestPlanCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "plan", "0xAA", "--chain", "zora", "--json")
	require.NoError(t, err)

	var plan []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &plan))
	require.NotEmpty(t, plan)
	for _, c := range plan {
		assert.Equal(t, "zora", c["chain"])
	}
}

func TestResolveCommand(t *testing.T) {
	out, _, err := execute(t, "resolve", "0xAA")
	require.NoError(t, err)
	assert.Contains(t, out, "Resolved 0xAA as book on base")
	assert.Contains(t, out, "name: Alpha")
}

func TestResolveCommand_NotFoundListsAttempts(t *testing.T) {
	_, errOut, err := execute(t, "resolve", "0xZZ", "--chain", "base")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tracker resolved 0xZZ")
	assert.Contains(t, errOut, "book@base")
}

func TestRegistryListCommand(t *testing.T) {
	dir := t.TempDir()
	doc := `[{"address": "0xAA", "type": "book", "name": "Alpha", "featured": true}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.json"), []byte(doc), 0o644))

	out, _, err := execute(t, "registry", "list", "--registry", "file://"+dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ADDRESS")
	assert.Contains(t, out, "0xAA")
	assert.Contains(t, out, "true")

	_, _, err = execute(t, "registry", "list", "--chain", "solana")
	assert.Error(t, err)
}

func TestAuthorCommand(t *testing.T) {
	out, _, err := execute(t, "author", "0xAuthor")
	require.NoError(t, err)

	var profile map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &profile))
	assert.Equal(t, "Ann", profile["name"])
}

func TestBookCommand(t *testing.T) {
	out, _, err := execute(t, "book", "0xAA", "--chain", "base")
	require.NoError(t, err)

	var book map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &book))
	assert.Equal(t, "First", book["title"])
	assert.Equal(t, "1", book["tokenId"])
}
