package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: minimal
description: "one query"
ids: [c1, c2]
seed:
  charges:
    - {id: c0, amount: 1.25}
steps:
  - op: consumableMaterialCharges
    fields: [id]
    expect:
      count: 1
assertions:
  - collection: charges
    id: c0
    live: true
`))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Equal(t, []string{"c1", "c2"}, s.IDs)
	require.Len(t, s.Steps, 1)
	assert.True(t, s.Steps[0].IsQuery())
	require.NotNil(t, s.Steps[0].Expect.Count)
	assert.Equal(t, 1, *s.Steps[0].Expect.Count)
	assert.Equal(t, 1.25, s.Seed["charges"][0]["amount"])
	require.NotNil(t, s.Assertions[0].Live)
	assert.True(t, *s.Assertions[0].Live)
}

func TestParseScenarioRejectsUnknownKeys(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "misspelled key"
step:
  - op: resources
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenarioValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nsteps: [{op: resources}]",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nsteps: [{op: resources}]",
			want: "description is required",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d",
			want: "steps list is required",
		},
		{
			name: "unknown op",
			yaml: "name: n\ndescription: d\nsteps: [{op: vehicles}]",
			want: `unknown op "vehicles"`,
		},
		{
			name: "query with input",
			yaml: "name: n\ndescription: d\nsteps: [{op: resources, input: {a: 1}}]",
			want: "takes filter and fields only",
		},
		{
			name: "mutation with filter",
			yaml: "name: n\ndescription: d\nsteps: [{op: deleteConsumableMaterialPump, id: p1, filter: {}}]",
			want: "takes id and input only",
		},
		{
			name: "unknown seed collection",
			yaml: "name: n\ndescription: d\nseed: {vehicles: []}\nsteps: [{op: resources}]",
			want: `seed: unknown collection "vehicles"`,
		},
		{
			name: "assertion without id",
			yaml: "name: n\ndescription: d\nsteps: [{op: resources}]\nassertions: [{collection: charges}]",
			want: "id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt", "sub/c.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}

	all, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
		filepath.Join(dir, "sub", "c.yaml"),
	}, all)

	some, err := FindScenarios(dir, "[ab]")
	require.NoError(t, err)
	assert.Len(t, some, 2)

	_, err = FindScenarios(dir, "[")
	assert.Error(t, err)
}
