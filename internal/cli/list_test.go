package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/typeinfo/internal/store"
)

func TestListText(t *testing.T) {
	dbPath := compiledDB(t)

	out, err := runCommand(t, "text", "list", "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Snapshot ")
	assert.Contains(t, out, "NAME")
	for _, name := range []string{"Color", "Palette", "Header", "Unit"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "packed")
}

func TestListJSON(t *testing.T) {
	dbPath := compiledDB(t)

	out, err := runCommand(t, "json", "list", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, schemasDir, resp.Data.Snapshot.Source)

	require.Len(t, resp.Data.Types, 4)
	palette := resp.Data.Types[1]
	assert.Equal(t, "Palette", palette.Name)
	assert.Equal(t, "Compound", palette.Kind)
	assert.Equal(t, 97, palette.Size)
	assert.Equal(t, "packed", palette.Policy)
}

func TestListSnapshots(t *testing.T) {
	dbPath := compiledDB(t)
	_, err := runCommand(t, "text", "compile", filepath.Join(schemasDir, "header.yaml"), "--db", dbPath)
	require.NoError(t, err)

	out, err := runCommand(t, "json", "list", "--db", dbPath, "--snapshots")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   []store.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Less(t, resp.Data[0].Seq, resp.Data[1].Seq)
	assert.Equal(t, filepath.Join(schemasDir, "header.yaml"), resp.Data[1].Source)

	text, err := runCommand(t, "text", "list", "--db", dbPath, "--snapshots")
	require.NoError(t, err)
	assert.Contains(t, text, "SEQ")
	assert.Contains(t, text, resp.Data[0].ID)
}

func TestListEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := runCommand(t, "text", "list", "--db", dbPath, "--snapshots")
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshots recorded")

	_, err = runCommand(t, "text", "list", "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestListMissingDatabase(t *testing.T) {
	_, err := runCommand(t, "text", "list", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
