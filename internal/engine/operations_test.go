package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/resolver"
)

func TestRunQuery(t *testing.T) {
	e := newTestEngine(t, querySeed)

	tests := []struct {
		name   string
		op     string
		filter string
		want   int
	}{
		{"charges no filter", QueryCharges, "", 2},
		{"charges null filter", QueryCharges, "null", 2},
		{"charges by id", QueryCharges, `{"in": {"ids": ["c1"]}}`, 1},
		{"pumps", QueryPumps, `{}`, 0},
		{"complex by resource type", QueryComplexResources, `{"in": {"resourceTypes": ["Car"]}}`, 1},
		{"resources by type", QueryResources, `{"resourceType": "PaxBus"}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.RunQuery(tt.op, []byte(tt.filter), nil)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestRunQueryWithSelection(t *testing.T) {
	e := newTestEngine(t, querySeed)

	got, err := e.RunQuery(QueryCharges, []byte(`{"in": {"ids": ["c2"]}}`), resolver.SelectionFromPaths("amount"))
	require.NoError(t, err)
	assert.Equal(t, []ir.IRObject{{"amount": ir.IRInt(2)}}, got)
}

func TestRunQueryErrors(t *testing.T) {
	e := newTestEngine(t, querySeed)

	_, err := e.RunQuery("vehicles", nil, nil)
	assert.True(t, errors.Is(err, ErrUnknownOperation))

	_, err = e.RunQuery(QueryCharges, []byte(`{"in": `), nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = e.RunQuery(QueryCharges, []byte(`{"bogus": 1}`), nil)
	assert.True(t, errors.Is(err, ErrInvalidInput), "unknown filter fields are rejected")
}

func TestRunMutation(t *testing.T) {
	e := newTestEngine(t, "", "c1", "p1")

	created, err := e.RunMutation(OpCreateCharge, "", ir.IRObject{"amount": ir.IRInt(5)})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("c1"), created.(ir.IRObject)["id"])

	updated, err := e.RunMutation(OpUpdateCharge, "c1", ir.IRObject{"amount": ir.IRInt(6)})
	require.NoError(t, err)
	assert.Equal(t, ir.IRInt(6), updated.(ir.IRObject)["amount"])

	deleted, err := e.RunMutation(OpDeleteCharge, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(true), deleted)

	deleted, err = e.RunMutation(OpDeleteCharge, "c1", nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(false), deleted)

	pump, err := e.RunMutation(OpCreatePump, "", ir.IRObject{"tankNumber": ir.IRString("T1")})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("ConsumableMaterialPump"), pump.(ir.IRObject)["__typename"])

	missing, err := e.RunMutation(OpUpdatePump, "nope", ir.IRObject{})
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("ConsumableMaterialPumpError"), missing.(ir.IRObject)["__typename"])
}

func TestRunMutationErrors(t *testing.T) {
	e := newTestEngine(t, "")

	_, err := e.RunMutation("dropTables", "x", nil)
	assert.True(t, errors.Is(err, ErrUnknownOperation))

	_, err = e.RunMutation(OpDeletePump, "", nil)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
