package resolver

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/schema"
	"github.com/CoMatu/test-gql-server/internal/store"
	"github.com/CoMatu/test-gql-server/internal/testutil"
	"github.com/CoMatu/test-gql-server/internal/variant"
)

const seedJSON = `{
	"positions": [
		{"id": "p1", "code": "DRV", "deletedAt": null},
		{"id": "p2", "code": "OLD", "deletedAt": "2024-01-01T00:00:00.000Z"}
	],
	"subdivisions": [
		{"id": "s1", "hrmId": "H1", "name": "Ramp", "deletedAt": null}
	],
	"businessRoles": [
		{"id": "r1", "name": "Driver", "deleted": false},
		{"id": "r2", "name": "Loader"},
		{"id": "r3", "name": "Retired", "deleted": true}
	],
	"employees": [
		{"id": "e1", "firstName": "Anna", "lastName": "Ivanova", "positionId": "p1", "subdivisionId": "s1", "businessRoleIds": ["r1", "missing", "r3", "r2"]},
		{"id": "e2", "firstName": "Oleg", "positionId": "p2"}
	],
	"resources": [
		{"id": "res1", "resourceType": "PaxBus", "garageNumber": "12", "deletedAt": null, "businessRoleIds": ["r2"]},
		{"id": "res2", "resourceType": "Hovercraft", "deletedAt": null}
	],
	"waybills": [
		{"id": "w1", "waybillNum": "WB-1", "mobileAssetResourceId": "res1", "personAssignedId": "e1"}
	],
	"complexResources": [
		{"id": "cr1", "employeeId": "e1", "resourceId": "res1", "waybillId": "w1", "deleted": false},
		{"id": "cr2", "employeeId": "nobody", "deleted": false},
		{"id": "cr3", "deleted": true}
	]
}`

func parse(t *testing.T, data string) ir.IRObject {
	t.Helper()
	var obj ir.IRObject
	require.NoError(t, json.Unmarshal([]byte(data), &obj))
	return obj
}

func newTestResolver(t *testing.T) (*Resolver, *store.Store) {
	t.Helper()
	return newSeededResolver(t, seedJSON)
}

func newSeededResolver(t *testing.T, seed string) (*Resolver, *store.Store) {
	t.Helper()

	var raw map[string][]ir.IRObject
	require.NoError(t, json.Unmarshal([]byte(seed), &raw))

	st := store.Open(store.NewMemory(raw), testutil.NewFixedClock(time.Time{}, time.Second), nil)
	t.Cleanup(func() { _ = st.Close() })

	s, err := schema.Load()
	require.NoError(t, err)
	d, err := variant.New(s, nil)
	require.NoError(t, err)
	r, err := New(st, s, d, nil)
	require.NoError(t, err)
	return r, st
}

func get(t *testing.T, st *store.Store, collection, id string) ir.IRObject {
	t.Helper()
	c, err := st.Collection(collection)
	require.NoError(t, err)
	rec, ok := c.Get(id)
	require.True(t, ok, "%s/%s", collection, id)
	return rec
}

func TestFieldRules(t *testing.T) {
	r, _ := newTestResolver(t)

	rec := parse(t, `{
		"id": "res9",
		"mobilityType": "",
		"malfunction": false,
		"unavailability": ["stored"],
		"garageNumber": "7"
	}`)

	tests := []struct {
		field string
		want  ir.IRValue
	}{
		{"mobilityType", ir.IRString("Mobile")},
		{"malfunction", ir.IRBool(false)},
		{"isPartOfComplexResource", ir.IRBool(false)},
		{"unavailability", ir.IRArray{}},
		{"resourceNumber", ir.IRString("")},
		{"erpResourceId", ir.IRNull{}},
		{"garageNumber", ir.IRString("7")},
		{"notAField", ir.IRNull{}},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, err := r.Field("Resource", rec, tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldRulesNullishKeepsFalsyValues(t *testing.T) {
	r, _ := newTestResolver(t)

	got, err := r.Field("EmployeeGroupView", parse(t, `{"deletable": false}`), "deletable")
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(false), got)

	got, err = r.Field("EmployeeGroupView", parse(t, `{"deletable": null}`), "deletable")
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(false), got)

	got, err = r.Field("EmployeeGroupView", parse(t, `{"deletable": true}`), "deletable")
	require.NoError(t, err)
	assert.Equal(t, ir.IRBool(true), got)
}

func TestFieldAliases(t *testing.T) {
	r, _ := newTestResolver(t)

	tests := []struct {
		name     string
		typeName string
		rec      string
		field    string
		want     ir.IRValue
	}{
		{"own value", "ResourceUnavailabilityPeriod", `{"unavailableFrom": "B", "from": "A"}`, "unavailableFrom", ir.IRString("B")},
		{"alias", "ResourceUnavailabilityPeriod", `{"from": "A"}`, "unavailableFrom", ir.IRString("A")},
		{"alias to", "ResourceUnavailabilityPeriod", `{"to": "Z"}`, "unavailableTo", ir.IRString("Z")},
		{"neither", "ResourceUnavailabilityPeriod", `{}`, "unavailableFrom", ir.IRNull{}},
		{"period alias", "ResourceGroupValidityPeriod", `{"validityPeriod": {"from": "x", "to": null}}`, "period",
			ir.IRObject{"from": ir.IRString("x"), "to": ir.IRNull{}}},
		{"period default", "ResourceGroupValidityPeriod", `{}`, "period",
			ir.IRObject{"from": ir.IRNull{}, "to": ir.IRNull{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Field(tt.typeName, parse(t, tt.rec), tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldUnknownType(t *testing.T) {
	r, _ := newTestResolver(t)
	_, err := r.Field("Nope", ir.IRObject{}, "id")
	assert.Error(t, err)
}

func TestEmployeeRelationsAndDerivedFields(t *testing.T) {
	r, st := newTestResolver(t)

	out, err := r.Shape("Employee", get(t, st, "employees", "e1"), nil)
	require.NoError(t, err)

	assert.Equal(t, ir.IRString("Anna"), out["firstName"])
	assert.Equal(t, ir.IRString("NOT_ON_SHIFT"), out["currentShiftStatus"])

	position := out["position"].(ir.IRObject)
	assert.Equal(t, ir.IRString("p1"), position["id"])
	assert.Equal(t, ir.IRString("DRV"), position["code"])
	assert.Equal(t, ir.IRString(""), position["uniqueCode"])

	subdivision := out["subdivision"].(ir.IRObject)
	assert.Equal(t, ir.IRString("s1"), subdivision["id"])
	assert.Equal(t, ir.IRArray{}, subdivision["positions"])

	assert.Equal(t, ir.IRNull{}, out["subdivisionTrip"])
	assert.Equal(t, ir.IRString("H1_DRV"), out["uniquePositionCode"])

	roles := out["businessRoles"].(ir.IRArray)
	require.Len(t, roles, 2, "dangling and soft-deleted ids are dropped")
	assert.Equal(t, ir.IRString("r1"), roles[0].(ir.IRObject)["id"])
	assert.Equal(t, ir.IRString("r2"), roles[1].(ir.IRObject)["id"])
	assert.Equal(t, ir.IRBool(false), roles[1].(ir.IRObject)["deleted"])

	assert.Equal(t, ir.IRArray{ir.IRString("Driver"), ir.IRString("Loader")}, out["businessRoleNames"])
	assert.Equal(t, ir.IRString("r1"), out["businessRole"].(ir.IRObject)["id"])
	assert.Len(t, out["availableBusinessRoles"], 2)

	assert.Equal(t, ir.IRObject{
		"skillSpecificationCodes": ir.IRArray{},
		"skillSpecificationNames": ir.IRArray{},
		"skills":                  ir.IRArray{},
	}, out["skillData"])
}

func TestEmployeePlaceholders(t *testing.T) {
	r, st := newTestResolver(t)

	out, err := r.Shape("Employee", get(t, st, "employees", "e2"), nil)
	require.NoError(t, err)

	position := out["position"].(ir.IRObject)
	assert.Equal(t, ir.IRString("default-position"), position["id"], "soft-deleted position is not resolved")
	assert.Equal(t, ir.IRString(""), position["code"])

	subdivision := out["subdivision"].(ir.IRObject)
	assert.Equal(t, ir.IRString("default-subdivision"), subdivision["id"])
	assert.Equal(t, ir.IRString(""), subdivision["hrmId"])

	assert.Equal(t, ir.IRString(""), out["uniquePositionCode"], "placeholders do not count")
	assert.Equal(t, ir.IRArray{}, out["businessRoles"])
	assert.Equal(t, ir.IRNull{}, out["businessRole"])
	assert.Equal(t, ir.IRArray{}, out["businessRoleNames"])
}

func TestBusinessRoleNamesSkipEmptyNames(t *testing.T) {
	r, st := newSeededResolver(t, `{
		"businessRoles": [
			{"id": "r1", "name": "Driver", "deleted": false},
			{"id": "r2", "deleted": false},
			{"id": "r3", "name": "", "deleted": false}
		],
		"employees": [
			{"id": "e1", "firstName": "Anna", "businessRoleIds": ["r2", "r1", "r3"]}
		],
		"resources": [
			{"id": "res1", "resourceType": "PaxBus", "deletedAt": null, "businessRoleIds": ["r3", "r2", "r1"]}
		]
	}`)

	tests := []struct {
		name       string
		typeName   string
		collection string
		id         string
	}{
		{"employee", "Employee", "employees", "e1"},
		{"resource", "Resource", "resources", "res1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Shape(tt.typeName, get(t, st, tt.collection, tt.id), nil)
			require.NoError(t, err)

			assert.Len(t, out["businessRoles"], 3, "nameless roles still resolve")
			assert.Equal(t, ir.IRArray{ir.IRString("Driver")}, out["businessRoleNames"])
		})
	}
}

func TestUniquePositionCodeMissingHrmID(t *testing.T) {
	r, st := newSeededResolver(t, `{
		"positions": [{"id": "p1", "code": "DRV", "deletedAt": null}],
		"subdivisions": [{"id": "s1", "name": "Ramp", "deletedAt": null}],
		"employees": [{"id": "e1", "firstName": "Anna", "positionId": "p1", "subdivisionId": "s1"}]
	}`)

	out, err := r.Shape("Employee", get(t, st, "employees", "e1"), nil)
	require.NoError(t, err)
	assert.Equal(t, ir.IRString("_DRV"), out["uniquePositionCode"])
}

func TestComplexResourceResolution(t *testing.T) {
	r, st := newTestResolver(t)

	out, err := r.Shape("ComplexResource", get(t, st, "complexResources", "cr1"), nil)
	require.NoError(t, err)

	item := out["resource"].(ir.IRObject)
	assert.Equal(t, ir.IRNull{}, item["erpId"])
	assert.Equal(t, ir.IRString("PaxBus"), item["resourceType"])
	resource := item["resource"].(ir.IRObject)
	assert.Equal(t, ir.IRString("PaxBus"), resource["__typename"])
	assert.Equal(t, ir.IRString("res1"), resource["id"])
	assert.Equal(t, ir.IRString("OFFLINE"), resource["onlineStatus"])
	assert.NotContains(t, resource, "businessRoleNames", "relation targets stop after one hop")

	employee := out["employee"].(ir.IRObject)
	assert.Equal(t, ir.IRString("e1"), employee["id"])
	assert.NotContains(t, employee, "position")

	waybill := out["waybill"].(ir.IRObject)
	assert.Equal(t, ir.IRString("WB-1"), waybill["waybillNum"])
	assert.Equal(t, ir.IRNull{}, waybill["dateTimeStart"])

	asset := waybill["mobileAsset"].(ir.IRObject)
	assert.Equal(t, ir.IRString("res1"), asset["resource"].(ir.IRObject)["id"])
	person := waybill["personAssigned"].(ir.IRObject)
	assert.Equal(t, ir.IRString("Anna"), person["firstName"])
	assert.NotContains(t, person, "position")
}

func TestNullableRelationsResolveToNull(t *testing.T) {
	r, st := newTestResolver(t)

	out, err := r.Shape("ComplexResource", get(t, st, "complexResources", "cr2"), nil)
	require.NoError(t, err)

	assert.Equal(t, ir.IRNull{}, out["employee"])
	assert.Equal(t, ir.IRNull{}, out["resource"])
	assert.Equal(t, ir.IRNull{}, out["waybill"])
	assert.Equal(t, ir.IRString(""), out["resourceNumber"])
}

func TestMaterialisedRelationReturnedUnchanged(t *testing.T) {
	r, _ := newTestResolver(t)

	inline := ir.IRObject{"id": ir.IRString("inline"), "firstName": ir.IRString("Inline")}
	rec := ir.IRObject{
		"id":         ir.IRString("x"),
		"employeeId": ir.IRString("e1"),
		"employee":   inline,
	}

	got, err := r.Field("ComplexResource", rec, "employee")
	require.NoError(t, err)
	assert.Equal(t, inline, got)
}

func TestShiftJournalListsLiveComplexResources(t *testing.T) {
	r, _ := newTestResolver(t)

	out, err := r.Shape("ShiftJournal", ir.IRObject{"id": ir.IRString("sj1")}, nil)
	require.NoError(t, err)

	list := out["complexResources"].(ir.IRArray)
	require.Len(t, list, 2)
	assert.Equal(t, ir.IRString("cr1"), list[0].(ir.IRObject)["id"])
	assert.Equal(t, ir.IRString("cr2"), list[1].(ir.IRObject)["id"])
	assert.Equal(t, ir.IRString("NOT_ON_SHIFT"), out["currentShiftStatus"])
}

func TestShapeWithSelection(t *testing.T) {
	r, st := newTestResolver(t)

	sel := SelectionFromPaths(
		"id",
		"employee.firstName",
		"employee.position.code",
		"resource.resource.__typename",
		"validityPeriodPlan.from",
	)

	out, err := r.Shape("ComplexResource", get(t, st, "complexResources", "cr1"), sel)
	require.NoError(t, err)

	assert.Equal(t, ir.IRObject{
		"id": ir.IRString("cr1"),
		"employee": ir.IRObject{
			"firstName": ir.IRString("Anna"),
			"position":  ir.IRObject{"code": ir.IRString("DRV")},
		},
		"resource": ir.IRObject{
			"resource": ir.IRObject{"__typename": ir.IRString("PaxBus")},
		},
		"validityPeriodPlan": ir.IRObject{"from": ir.IRNull{}},
	}, out)
}

func TestResourceItemEnvelope(t *testing.T) {
	r, st := newTestResolver(t)

	t.Run("known subtype", func(t *testing.T) {
		out, err := r.ResourceItem(get(t, st, "resources", "res1"), nil)
		require.NoError(t, err)

		resource := out["resource"].(ir.IRObject)
		assert.Equal(t, ir.IRString("PaxBus"), resource["__typename"])
		assert.Equal(t, ir.IRArray{ir.IRString("Loader")}, resource["businessRoleNames"])
		assert.Len(t, resource["businessRoles"], 1)
	})

	t.Run("unknown subtype defaults to car", func(t *testing.T) {
		out, err := r.ResourceItem(get(t, st, "resources", "res2"), nil)
		require.NoError(t, err)

		assert.Equal(t, ir.IRString("Hovercraft"), out["resourceType"])
		assert.Equal(t, ir.IRString("Car"), out["resource"].(ir.IRObject)["__typename"])
	})

	t.Run("person record", func(t *testing.T) {
		out, err := r.ResourceItem(get(t, st, "employees", "e1"), nil)
		require.NoError(t, err)

		assert.Equal(t, ir.IRNull{}, out["resourceType"])
		resource := out["resource"].(ir.IRObject)
		assert.Equal(t, ir.IRString("Employee"), resource["__typename"])
		assert.Equal(t, ir.IRString("H1_DRV"), resource["uniquePositionCode"])
	})

	t.Run("selection", func(t *testing.T) {
		out, err := r.ResourceItem(get(t, st, "resources", "res1"), SelectionFromPaths("erpId", "resource.id"))
		require.NoError(t, err)

		assert.Equal(t, ir.IRObject{
			"erpId":    ir.IRNull{},
			"resource": ir.IRObject{"id": ir.IRString("res1")},
		}, out)
	})
}

func TestShapeAllNeverNil(t *testing.T) {
	r, _ := newTestResolver(t)

	out, err := r.ShapeAll("ComplexResource", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNewRequiresDerivedImplementations(t *testing.T) {
	s, err := schema.Load()
	require.NoError(t, err)
	d, err := variant.New(s, nil)
	require.NoError(t, err)

	s.Types["Position"].Derived = append(s.Types["Position"].Derived, "mystery")

	_, err = New(nil, s, d, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mystery")
}

func TestSelectionFromPaths(t *testing.T) {
	assert.Nil(t, SelectionFromPaths())
	assert.Nil(t, SelectionFromPaths("", " "))

	assert.Equal(t, Selection{
		"id": nil,
		"employee": Selection{
			"firstName": nil,
			"position":  Selection{"code": nil},
		},
	}, SelectionFromPaths("id", "employee.firstName", "employee.position.code", "employee"))

	assert.Equal(t, Selection{"a": Selection{"b": nil}}, SelectionFromPaths("a", "a.b"))
}
