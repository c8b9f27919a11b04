package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

func loadSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Load()
	require.NoError(t, err)
	return s
}

func TestLoad_EmbeddedSchema(t *testing.T) {
	s := loadSchema(t)

	assert.Len(t, s.Enums["ResourceType"], 26)
	assert.Equal(t, []string{"AUTOMATIC", "MANUAL", "TASK"}, s.Enums["CreationType"])
	assert.Equal(t, "Car", s.ResourceUnion.DefaultType)
	assert.Equal(t, "Employee", s.ResourceUnion.PersonType)
	assert.Equal(t, []string{"firstName", "lastName"}, s.ResourceUnion.PersonFields)
}

func TestLoad_EmployeeRules(t *testing.T) {
	s := loadSchema(t)
	emp, err := s.Type("Employee")
	require.NoError(t, err)

	tests := []struct {
		field string
		want  ir.IRValue
		mode  Mode
	}{
		{"id", ir.IRString("unknown-employee-id"), Falsy},
		{"deletedAt", ir.IRNull{}, Falsy},
		{"currentShiftStatus", ir.IRString("NOT_ON_SHIFT"), Falsy},
		{"resourceGroupDisplayConfig", ir.IRString("EMPLOYEE_TECH"), Falsy},
		{"validityPeriod", ir.IRObject{"from": ir.IRNull{}, "to": ir.IRNull{}}, Falsy},
		{"skills", ir.IRArray{}, Falsy},
		{"isPartOfComplexResource", ir.IRBool(false), Nullish},
		{"malfunction", ir.IRBool(false), Nullish},
		{"availability", ir.IRArray{}, Constant},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			rule, ok := emp.Rule(tt.field)
			require.True(t, ok)
			assert.Equal(t, tt.want, rule.Default)
			assert.Equal(t, tt.mode, rule.Mode)
		})
	}

	assert.True(t, emp.IsDerived("uniquePositionCode"))
	assert.False(t, emp.IsDerived("firstName"))
}

func TestLoad_Relations(t *testing.T) {
	s := loadSchema(t)

	emp, _ := s.Type("Employee")
	pos, ok := emp.Relation("position")
	require.True(t, ok)
	assert.Equal(t, Relation{
		Name:        "position",
		Kind:        One,
		Collection:  "positions",
		IDField:     "positionId",
		Placeholder: "Position",
		Shape:       "Position",
	}, pos)
	assert.True(t, pos.Required())

	trip, _ := emp.Relation("subdivisionTrip")
	assert.False(t, trip.Required())

	roles, _ := emp.Relation("businessRoles")
	assert.Equal(t, Many, roles.Kind)
	assert.Equal(t, "businessRoleIds", roles.IDField)

	cr, _ := s.Type("ComplexResource")
	res, _ := cr.Relation("resource")
	assert.Equal(t, "ResourceItem", res.Wrap)
	wb, _ := cr.Relation("waybill")
	assert.True(t, wb.Expand)

	sj, _ := s.Type("ShiftJournal")
	all, _ := sj.Relation("complexResources")
	assert.Equal(t, All, all.Kind)
}

func TestLoad_Aliases(t *testing.T) {
	s := loadSchema(t)
	p, _ := s.Type("ResourceUnavailabilityPeriod")

	rule, ok := p.Rule("unavailableFrom")
	require.True(t, ok)
	assert.Equal(t, []string{"from"}, rule.Aliases)
	assert.Equal(t, ir.IRNull{}, rule.Default)
}

func TestLoad_PlaceholdersAreCopies(t *testing.T) {
	s := loadSchema(t)

	p, ok := s.Placeholder("Position")
	require.True(t, ok)
	assert.Equal(t, ir.IRString("default-position"), p["id"])
	assert.Equal(t, ir.IRNull{}, p["name"])

	p["id"] = ir.IRString("mutated")
	again, _ := s.Placeholder("Position")
	assert.Equal(t, ir.IRString("default-position"), again["id"])

	sub, ok := s.Placeholder("Subdivision")
	require.True(t, ok)
	assert.Equal(t, ir.IRString("default-subdivision"), sub["id"])
	assert.Equal(t, ir.IRString(""), sub["hrmId"])
}

func TestLoad_Mutations(t *testing.T) {
	s := loadSchema(t)

	charge := s.Mutations["charge"]
	assert.Equal(t, "charges", charge.Collection)
	assert.Equal(t, "ConsumableMaterialChargePayload", charge.Payload)
	assert.Equal(t, []string{"amount", "chargedAt", "consumableMaterialCode", "operatorId", "taskId", "vehicleId"}, charge.Fields)

	pump := s.Mutations["pump"]
	assert.Contains(t, pump.Fields, "tankNumber")
	assert.Equal(t, "ConsumableMaterialPumpError", s.Payloads[pump.Payload].Error)
}

func TestType_Unknown(t *testing.T) {
	_, err := loadSchema(t).Type("Spaceship")
	assert.Error(t, err)
}

func TestSource(t *testing.T) {
	assert.Contains(t, string(Source()), "resourceUnion")
}

const minimalSchema = `
types: {
	Thing: {
		defaults: {name: "", ratio: 1.5, count: 2}
		relations: {
			owner: {collection: "employees", idField: "ownerId", placeholder: "Owner"}
		}
	}
	Done: {}
}
placeholders: {Owner: {id: "default-owner"}}
enums: {ResourceType: ["Car"]}
resourceUnion: {defaultType: "Car", personType: "Employee", personFields: ["firstName"]}
payloads: {DonePayload: {success: "Done", error: "DoneError"}}
mutations: {done: {collection: "things", entity: "Thing", payload: "DonePayload", notFound: "%s", fields: ["name"]}}
`

func TestParse_Minimal(t *testing.T) {
	s, err := Parse([]byte(minimalSchema), "minimal.cue")
	require.NoError(t, err)

	thing, _ := s.Type("Thing")
	ratio, _ := thing.Rule("ratio")
	assert.Equal(t, ir.IRDecimal("1.5"), ratio.Default)
	count, _ := thing.Rule("count")
	assert.Equal(t, ir.IRInt(2), count.Default)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "syntax",
			src:  `types: {`,
			want: "cue",
		},
		{
			name: "incomplete",
			src:  `types: {}, x: string`,
			want: "cue",
		},
		{
			name: "missing types",
			src:  `enums: {}`,
			want: "types is required",
		},
		{
			name: "unknown placeholder",
			src: `types: {A: {relations: {b: {collection: "x", idField: "bId", placeholder: "Nope"}}}}
enums: {ResourceType: ["Car"]}
resourceUnion: {defaultType: "Car", personType: "Employee", personFields: []}`,
			want: `no placeholder named "Nope"`,
		},
		{
			name: "default not in enum",
			src: `types: {}
enums: {ResourceType: ["Bus"]}
resourceUnion: {defaultType: "Car", personType: "Employee", personFields: []}`,
			want: `"Car" is not a ResourceType`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "test.cue")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
