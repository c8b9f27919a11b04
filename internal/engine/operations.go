package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/CoMatu/test-gql-server/internal/filter"
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/resolver"
)

var (
	// ErrUnknownOperation is returned for an operation name the engine
	// does not serve.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidInput is returned when a filter or input cannot be decoded.
	ErrInvalidInput = errors.New("invalid input")
)

// Query operation names.
const (
	QueryCharges          = "consumableMaterialCharges"
	QueryPumps            = "consumableMaterialPumps"
	QueryComplexResources = "complexResources"
	QueryResources        = "resources"
)

// Mutation operation names.
const (
	OpCreateCharge = "createConsumableMaterialCharge"
	OpUpdateCharge = "updateConsumableMaterialCharge"
	OpDeleteCharge = "deleteConsumableMaterialCharge"
	OpCreatePump   = "createConsumableMaterialPump"
	OpUpdatePump   = "updateConsumableMaterialPump"
	OpDeletePump   = "deleteConsumableMaterialPump"
)

// QueryNames lists every query operation.
func QueryNames() []string {
	return []string{QueryCharges, QueryPumps, QueryComplexResources, QueryResources}
}

// MutationNames lists every mutation operation.
func MutationNames() []string {
	return []string{OpCreateCharge, OpUpdateCharge, OpDeleteCharge, OpCreatePump, OpUpdatePump, OpDeletePump}
}

// RunQuery runs a query operation by name. rawFilter is the JSON filter
// object; empty or null means no filter. The result is never nil.
func (e *Engine) RunQuery(name string, rawFilter []byte, sel resolver.Selection) ([]ir.IRObject, error) {
	switch name {
	case QueryCharges:
		f, err := decodeFilter[filter.ChargeFilter](rawFilter)
		if err != nil {
			return nil, err
		}
		return e.Charges(f, sel)
	case QueryPumps:
		f, err := decodeFilter[filter.PumpFilter](rawFilter)
		if err != nil {
			return nil, err
		}
		return e.Pumps(f, sel)
	case QueryComplexResources:
		f, err := decodeFilter[filter.ComplexResourceFilter](rawFilter)
		if err != nil {
			return nil, err
		}
		return e.ComplexResources(f, sel)
	case QueryResources:
		f, err := decodeFilter[filter.ResourceFilter](rawFilter)
		if err != nil {
			return nil, err
		}
		return e.Resources(f, sel)
	default:
		return nil, fmt.Errorf("%w: query %q (want one of %v)", ErrUnknownOperation, name, QueryNames())
	}
}

// RunMutation runs a mutation operation by name. Create and update return
// the tagged payload object; delete returns an IRBool. Update and delete
// need id; create ignores it.
func (e *Engine) RunMutation(name, id string, input ir.IRObject) (ir.IRValue, error) {
	if !slices.Contains(MutationNames(), name) {
		return nil, fmt.Errorf("%w: mutation %q (want one of %v)", ErrUnknownOperation, name, MutationNames())
	}
	if id == "" && name != OpCreateCharge && name != OpCreatePump {
		return nil, fmt.Errorf("%w: %s requires an id", ErrInvalidInput, name)
	}

	switch name {
	case OpCreateCharge:
		return orNull(e.CreateCharge(input))
	case OpUpdateCharge:
		return orNull(e.UpdateCharge(id, input))
	case OpDeleteCharge:
		ok, err := e.DeleteCharge(id)
		return ir.IRBool(ok), err
	case OpCreatePump:
		return orNull(e.CreatePump(input))
	case OpUpdatePump:
		return orNull(e.UpdatePump(id, input))
	default:
		ok, err := e.DeletePump(id)
		return ir.IRBool(ok), err
	}
}

func orNull(obj ir.IRObject, err error) (ir.IRValue, error) {
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeFilter[T any](raw []byte) (*T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var f T
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: filter: %w", ErrInvalidInput, err)
	}
	return &f, nil
}
