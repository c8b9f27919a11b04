package resolver

import (
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/schema"
)

const businessRoleType = "BusinessRole"

// roles returns the business roles a record points at, dangling ids
// dropped.
func (r *Resolver) roles(t *schema.Type, rec ir.IRObject) ([]ir.IRObject, error) {
	rel, ok := t.Relation("businessRoles")
	if !ok {
		return nil, nil
	}
	return r.lookupMany(rel, rec)
}

func (r *Resolver) flatRoles(t *schema.Type, rec ir.IRObject) (ir.IRArray, error) {
	roles, err := r.roles(t, rec)
	if err != nil {
		return nil, err
	}
	rt, err := r.schema.Type(businessRoleType)
	if err != nil {
		return nil, err
	}
	out := make(ir.IRArray, 0, len(roles))
	for _, role := range roles {
		shaped, err := r.shape(rt, role, nil, 0, true)
		if err != nil {
			return nil, err
		}
		out = append(out, shaped)
	}
	return out, nil
}

func (r *Resolver) availableBusinessRoles(t *schema.Type, rec ir.IRObject) (ir.IRValue, error) {
	roles, err := r.flatRoles(t, rec)
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// businessRole is the first resolved role, or null.
func (r *Resolver) businessRole(t *schema.Type, rec ir.IRObject) (ir.IRValue, error) {
	roles, err := r.flatRoles(t, rec)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return ir.IRNull{}, nil
	}
	return roles[0], nil
}

func (r *Resolver) businessRoleNames(t *schema.Type, rec ir.IRObject) (ir.IRValue, error) {
	roles, err := r.roles(t, rec)
	if err != nil {
		return nil, err
	}
	names := make(ir.IRArray, 0, len(roles))
	for _, role := range roles {
		name, err := r.Field(businessRoleType, role, "name")
		if err != nil {
			return nil, err
		}
		if !ir.Truthy(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (r *Resolver) skillData(t *schema.Type, rec ir.IRObject) (ir.IRValue, error) {
	out := ir.IRObject{}
	for _, name := range []string{"skillSpecificationCodes", "skillSpecificationNames", "skills"} {
		v, err := r.field(t, rec, name, nil, 0, true)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// uniquePositionCode is "<subdivision.hrmId>_<position.code>" when both
// references resolve. Placeholders do not count.
func (r *Resolver) uniquePositionCode(t *schema.Type, rec ir.IRObject) (ir.IRValue, error) {
	posRel, okP := t.Relation("position")
	subRel, okS := t.Relation("subdivision")
	if !okP || !okS {
		return ir.IRString(""), nil
	}

	pos, found, err := r.lookupOne(posRel, rec)
	if err != nil || !found {
		return ir.IRString(""), err
	}
	sub, found, err := r.lookupOne(subRel, rec)
	if err != nil || !found {
		return ir.IRString(""), err
	}

	hrmID, err := r.Field(subRel.Shape, sub, "hrmId")
	if err != nil {
		return nil, err
	}
	code, err := r.Field(posRel.Shape, pos, "code")
	if err != nil {
		return nil, err
	}
	return ir.IRString(text(hrmID) + "_" + text(code)), nil
}

// text renders a scalar the way string interpolation would.
func text(v ir.IRValue) string {
	switch val := v.(type) {
	case ir.IRString:
		return string(val)
	case nil, ir.IRNull:
		return "null"
	default:
		b, err := ir.MarshalIRValue(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
