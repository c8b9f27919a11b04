package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

var knownCollections = map[string]bool{
	"complexResources": true,
	"resources":        true,
}

func TestValidate_ValidQuery(t *testing.T) {
	query := Select{
		From: "complexResources",
		Filter: And{Predicates: []Predicate{
			Equals{Field: "deleted", Value: ir.IRBool(false)},
			In{Field: "employeeId", Values: Strings([]string{"e1"})},
			NotIn{Field: "resourceId", Values: nil},
			Ref{
				Field:      "resourceId",
				Collection: "resources",
				Where:      In{Field: "resourceType", Values: Strings([]string{"Car"})},
			},
		}},
	}

	result := Validate(query, knownCollections)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Problems)
}

func TestValidate_PointerNodes(t *testing.T) {
	query := &Select{
		From:   "resources",
		Filter: &And{Predicates: []Predicate{&Equals{Field: "resourceType", Value: ir.IRString("Car")}}},
	}

	assert.True(t, Validate(query, knownCollections).Valid)
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{
			name:  "nil query",
			query: nil,
			want:  "nil query",
		},
		{
			name:  "empty from",
			query: Select{},
			want:  "empty collection name",
		},
		{
			name:  "unknown collection",
			query: Select{From: "nope"},
			want:  `unknown collection "nope"`,
		},
		{
			name:  "empty field",
			query: Select{From: "resources", Filter: Equals{Value: ir.IRString("x")}},
			want:  "Equals with empty field name",
		},
		{
			name:  "nil inside and",
			query: Select{From: "resources", Filter: And{Predicates: []Predicate{nil}}},
			want:  "nil predicate",
		},
		{
			name: "ref to unknown collection",
			query: Select{From: "complexResources", Filter: Ref{
				Field:      "resourceId",
				Collection: "vehicles",
			}},
			want: `unknown collection "vehicles"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.query, knownCollections)
			assert.False(t, result.Valid)
			require.Len(t, result.Problems, 1)
			assert.Equal(t, tt.want, result.Problems[0])
		})
	}
}

func TestValidate_NilCollectionsSkipsNameCheck(t *testing.T) {
	assert.True(t, Validate(Select{From: "anything"}, nil).Valid)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, []ir.IRValue{ir.IRString("a"), ir.IRString("b")}, Strings([]string{"a", "b"}))
	assert.Empty(t, Strings(nil))
}
