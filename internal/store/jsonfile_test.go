package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

func TestJSONFiles_MissingFile(t *testing.T) {
	j := NewJSONFiles(t.TempDir())

	_, err := j.Load("charges")
	assert.ErrorIs(t, err, ErrNoCollection)
}

func TestJSONFiles_SaveWritesIndentedArray(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	j := NewJSONFiles(dir)

	err := j.Save("charges", []ir.IRObject{
		{"id": ir.IRString("c1"), "amount": ir.IRDecimal("1.50"), "deletedAt": ir.IRNull{}},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "charges.json"))
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"amount\": 1.50,\n    \"deletedAt\": null,\n    \"id\": \"c1\"\n  }\n]\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file is renamed away")
}

func TestJSONFiles_SaveEmpty(t *testing.T) {
	dir := t.TempDir()
	j := NewJSONFiles(dir)

	require.NoError(t, j.Save("pumps", nil))

	data, err := os.ReadFile(j.Path("pumps"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestJSONFiles_RoundTrip(t *testing.T) {
	j := NewJSONFiles(t.TempDir())
	records := []ir.IRObject{
		{"id": ir.IRString("a"), "tags": ir.IRArray{ir.IRString("x")}, "n": ir.IRInt(3)},
		{"id": ir.IRString("b"), "nested": ir.IRObject{"k": ir.IRBool(true)}},
	}

	require.NoError(t, j.Save("resources", records))
	loaded, err := j.Load("resources")
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestJSONFiles_Unparsable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "charges.json"), []byte("{not json"), 0o644))

	_, err := NewJSONFiles(dir).Load("charges")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCollection)
}

func TestJSONFiles_NoHTMLEscape(t *testing.T) {
	j := NewJSONFiles(t.TempDir())
	require.NoError(t, j.Save("charges", []ir.IRObject{{"note": ir.IRString("a<b>&c")}}))

	data, err := os.ReadFile(j.Path("charges"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"a<b>&c"`)
}
