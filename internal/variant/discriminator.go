package variant

import (
	"fmt"
	"log/slog"

	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/schema"
)

// TypenameField is the explicit type tag. When present it always wins.
const TypenameField = "__typename"

// Discriminator tags polymorphic values.
//
// Thread-safety: Discriminator is immutable after New and safe for
// concurrent use.
type Discriminator struct {
	personType   string
	personFields []string
	payloads     map[string]schema.Payload
	logger       *slog.Logger

	// OnUnknown, when set, is called with every unrecognized resourceType
	// in place of the default debug log.
	OnUnknown func(value string)
}

// New builds a Discriminator from the schema. It fails when the schema's
// ResourceType enumeration and the Go subtype set differ, or when the
// schema's default subtype is not DefaultResourceKind.
func New(s *schema.Schema, logger *slog.Logger) (*Discriminator, error) {
	if err := CheckEnum(s.Enums["ResourceType"]); err != nil {
		return nil, err
	}
	if s.ResourceUnion.DefaultType != string(DefaultResourceKind) {
		return nil, fmt.Errorf("schema default resource type %q, expected %q",
			s.ResourceUnion.DefaultType, DefaultResourceKind)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discriminator{
		personType:   s.ResourceUnion.PersonType,
		personFields: s.ResourceUnion.PersonFields,
		payloads:     s.Payloads,
		logger:       logger,
	}, nil
}

func explicitTag(rec ir.IRObject) (string, bool) {
	tag, ok := rec.String(TypenameField)
	return tag, ok && tag != ""
}

// Payload returns the variant of a mutation result for the named payload
// union: the explicit tag, else the error variant when message is truthy,
// else the success variant.
func (d *Discriminator) Payload(payload string, rec ir.IRObject) (string, error) {
	p, ok := d.payloads[payload]
	if !ok {
		return "", fmt.Errorf("unknown payload %q", payload)
	}
	if tag, ok := explicitTag(rec); ok {
		return tag, nil
	}
	if ir.Truthy(rec["message"]) {
		return p.Error, nil
	}
	return p.Success, nil
}

// Resource returns the subtype of a raw resource record: the explicit tag,
// else the mapped resourceType, else DefaultResourceKind. Unrecognized
// resourceType values are logged and resolve to DefaultResourceKind.
func (d *Discriminator) Resource(rec ir.IRObject) string {
	if tag, ok := explicitTag(rec); ok {
		return tag
	}
	rt := rec["resourceType"]
	if !ir.Truthy(rt) {
		return string(DefaultResourceKind)
	}
	return string(d.kind(rt))
}

// ResourceOrPerson discriminates the Resource union, which admits person
// records as well as resource subtypes: explicit tag, then resourceType,
// then the presence of a person field, then DefaultResourceKind.
func (d *Discriminator) ResourceOrPerson(rec ir.IRObject) string {
	if tag, ok := explicitTag(rec); ok {
		return tag
	}
	if d.IsPerson(rec) {
		return d.personType
	}
	return d.Resource(rec)
}

// IsPerson reports whether rec discriminates as a person under the
// Resource union. A truthy resourceType always means a resource.
func (d *Discriminator) IsPerson(rec ir.IRObject) bool {
	if tag, ok := explicitTag(rec); ok {
		return tag == d.personType
	}
	if ir.Truthy(rec["resourceType"]) {
		return false
	}
	for _, f := range d.personFields {
		if ir.Truthy(rec[f]) {
			return true
		}
	}
	return false
}

func (d *Discriminator) kind(rt ir.IRValue) ResourceKind {
	s, _ := rt.(ir.IRString)
	if k, ok := ParseResourceKind(string(s)); ok {
		return k
	}

	value := string(s)
	if value == "" {
		value = fmt.Sprintf("%v", rt)
	}
	if d.OnUnknown != nil {
		d.OnUnknown(value)
	} else {
		d.logger.Debug("unknown resource type, using default", "resourceType", value, "default", DefaultResourceKind)
	}
	return DefaultResourceKind
}
