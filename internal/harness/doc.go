// Package harness runs YAML scenarios against the engine.
//
// A scenario seeds the collections, runs a list of named queries and
// mutations, checks each step's expectation and finally checks the stored
// state. Every run uses an in-memory persister, a fixed clock and a fixed
// id sequence, so two runs of one scenario produce identical snapshots.
//
// # Scenario Format
//
//	name: charge_lifecycle
//	description: "What this scenario validates"
//	ids: [c1]
//	seed:
//	  resources:
//	    - {id: r1, resourceType: PaxBus, deletedAt: null}
//	steps:
//	  - op: createConsumableMaterialCharge
//	    input: {amount: 10, vehicleId: r1}
//	    expect:
//	      typename: ConsumableMaterialCharge
//	      fields: {id: c1}
//	  - op: consumableMaterialCharges
//	    filter: {in: {ids: [c1]}}
//	    expect:
//	      ids: [c1]
//	assertions:
//	  - collection: charges
//	    id: c1
//	    live: true
//	    fields: {amount: 10}
//
// Query steps take filter and fields; mutation steps take id and input.
// Expectations are subset matches.
//
// # Golden Files
//
// RunWithGolden compares a run's snapshot, serialized with
// ir.MarshalCanonical, against testdata/golden/<name>.golden. Regenerate
// with:
//
//	go test ./internal/harness -update
package harness
