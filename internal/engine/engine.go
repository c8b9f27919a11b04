package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CoMatu/test-gql-server/internal/filter"
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/queryir"
	"github.com/CoMatu/test-gql-server/internal/resolver"
	"github.com/CoMatu/test-gql-server/internal/schema"
	"github.com/CoMatu/test-gql-server/internal/store"
	"github.com/CoMatu/test-gql-server/internal/variant"
)

// Mutation names as declared in the schema.
const (
	MutationCharge = "charge"
	MutationPump   = "pump"
)

// Output type names of query results.
const (
	chargeType          = "ConsumableMaterialCharge"
	pumpType            = "ConsumableMaterialPump"
	complexResourceType = "ComplexResource"
)

// Engine answers queries and applies mutations.
//
// Thread-safety: all methods are safe for concurrent use.
type Engine struct {
	store    *store.Store
	schema   *schema.Schema
	variants *variant.Discriminator
	resolver *resolver.Resolver
	ids      IDGenerator
	clock    store.Clock
	logger   *slog.Logger
	metrics  *Metrics
	entities map[string]*Entity
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator sets the record id source. Default: UUIDv4Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) { e.ids = g }
}

// WithClock sets the clock used for createdAt. Pass the clock the store
// was opened with so every timestamp comes from one source.
// Default: WallClock.
func WithClock(c store.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an Engine over st using schema s.
//
// New fails when the schema's ResourceType enumeration differs from the
// discriminator's subtype set, when a derived field has no
// implementation, or when a mutation targets an unknown collection.
func New(st *store.Store, s *schema.Schema, opts ...Option) (*Engine, error) {
	e := &Engine{
		store:    st,
		schema:   s,
		ids:      UUIDv4Generator{},
		clock:    WallClock{},
		logger:   slog.Default(),
		entities: make(map[string]*Entity, len(s.Mutations)),
	}
	for _, opt := range opts {
		opt(e)
	}

	variants, err := variant.New(s, e.logger)
	if err != nil {
		return nil, err
	}
	variants.OnUnknown = e.unknownResourceType
	e.variants = variants

	if e.resolver, err = resolver.New(st, s, variants, e.logger); err != nil {
		return nil, err
	}

	for name, m := range s.Mutations {
		coll, err := st.Collection(m.Collection)
		if err != nil {
			return nil, fmt.Errorf("mutation %s: %w", name, err)
		}
		e.entities[name] = &Entity{mutation: m, coll: coll, clock: e.clock}
	}
	for _, name := range []string{MutationCharge, MutationPump} {
		if _, ok := e.entities[name]; !ok {
			return nil, fmt.Errorf("schema declares no %q mutation", name)
		}
	}
	return e, nil
}

// Schema returns the schema the engine was built with.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Resolver returns the engine's resolver.
func (e *Engine) Resolver() *resolver.Resolver { return e.resolver }

// Entity returns the model layer of a mutation ("charge", "pump").
func (e *Engine) Entity(mutation string) (*Entity, error) {
	ent, ok := e.entities[mutation]
	if !ok {
		return nil, fmt.Errorf("unknown mutation %q", mutation)
	}
	return ent, nil
}

// --- queries ---

// Charges lists live charges matching f.
func (e *Engine) Charges(f *filter.ChargeFilter, sel resolver.Selection) ([]ir.IRObject, error) {
	return e.query("consumableMaterialCharges", f.Query(), chargeType, sel)
}

// Pumps lists live pumps matching f.
func (e *Engine) Pumps(f *filter.PumpFilter, sel resolver.Selection) ([]ir.IRObject, error) {
	return e.query("consumableMaterialPumps", f.Query(), pumpType, sel)
}

// ComplexResources lists live complex resources matching f.
func (e *Engine) ComplexResources(f *filter.ComplexResourceFilter, sel resolver.Selection) ([]ir.IRObject, error) {
	return e.query("complexResources", f.Query(), complexResourceType, sel)
}

// Resources lists live resources matching f, each wrapped in a
// ResourceItem envelope.
func (e *Engine) Resources(f *filter.ResourceFilter, sel resolver.Selection) ([]ir.IRObject, error) {
	const op = "resources"
	defer e.observe(op, time.Now())

	records, err := e.find(f.Query())
	if err != nil {
		e.count(op, outcomeFailed)
		return nil, err
	}
	out := make([]ir.IRObject, 0, len(records))
	for _, rec := range records {
		item, err := e.resolver.ResourceItem(rec, sel)
		if err != nil {
			e.count(op, outcomeFailed)
			return nil, err
		}
		out = append(out, item)
	}
	e.count(op, outcomeOK)
	e.observeResults(op, len(out))
	return out, nil
}

// ChargeByID returns the live charge with id.
func (e *Engine) ChargeByID(id string) (ir.IRObject, error) {
	return e.byID(MutationCharge, chargeType, id)
}

// PumpByID returns the live pump with id.
func (e *Engine) PumpByID(id string) (ir.IRObject, error) {
	return e.byID(MutationPump, pumpType, id)
}

func (e *Engine) byID(mutation, typeName, id string) (ir.IRObject, error) {
	ent, err := e.Entity(mutation)
	if err != nil {
		return nil, err
	}
	rec, ok := ent.FindByID(id)
	if !ok {
		return nil, NewNotFoundError(ent.Name(), id)
	}
	return e.resolver.Shape(typeName, rec, nil)
}

func (e *Engine) query(op string, q queryir.Select, typeName string, sel resolver.Selection) ([]ir.IRObject, error) {
	defer e.observe(op, time.Now())

	records, err := e.find(q)
	if err != nil {
		e.count(op, outcomeFailed)
		return nil, err
	}
	out, err := e.resolver.ShapeAll(typeName, records, sel)
	if err != nil {
		e.count(op, outcomeFailed)
		return nil, err
	}
	e.count(op, outcomeOK)
	e.observeResults(op, len(out))
	return out, nil
}

func (e *Engine) find(q queryir.Select) ([]ir.IRObject, error) {
	if res := queryir.Validate(q, store.CollectionNames()); !res.Valid {
		return nil, fmt.Errorf("invalid query: %s", strings.Join(res.Problems, "; "))
	}
	coll, err := e.store.Collection(q.From)
	if err != nil {
		return nil, err
	}
	return coll.Find(q.Filter)
}

// --- mutations ---

// CreateCharge stores a new charge and returns its payload.
func (e *Engine) CreateCharge(input ir.IRObject) (ir.IRObject, error) {
	return e.Create(MutationCharge, input)
}

// UpdateCharge merges input into the charge with id.
func (e *Engine) UpdateCharge(id string, input ir.IRObject) (ir.IRObject, error) {
	return e.Update(MutationCharge, id, input)
}

// DeleteCharge soft-deletes the charge with id.
func (e *Engine) DeleteCharge(id string) (bool, error) {
	return e.Delete(MutationCharge, id)
}

// CreatePump stores a new pump and returns its payload.
func (e *Engine) CreatePump(input ir.IRObject) (ir.IRObject, error) {
	return e.Create(MutationPump, input)
}

// UpdatePump merges input into the pump with id.
func (e *Engine) UpdatePump(id string, input ir.IRObject) (ir.IRObject, error) {
	return e.Update(MutationPump, id, input)
}

// DeletePump soft-deletes the pump with id.
func (e *Engine) DeletePump(id string) (bool, error) {
	return e.Delete(MutationPump, id)
}

// Create stores a new record for the named mutation under a freshly
// generated id. Any id in input is ignored.
func (e *Engine) Create(mutation string, input ir.IRObject) (ir.IRObject, error) {
	ent, err := e.Entity(mutation)
	if err != nil {
		return nil, err
	}
	op := "create" + ent.Name()
	defer e.observe(op, time.Now())

	id := e.ids.Generate()
	rec, err := ent.Create(input.Merge(ir.IRObject{"id": ir.IRString(id)}))
	if err != nil {
		return nil, e.fail(op, ent, id, err)
	}
	e.logger.Info("record created", "collection", ent.mutation.Collection, "id", id)
	return e.payload(op, ent, rec)
}

// Update merges the whitelisted fields present in input into the live
// record with id. A missing record yields the error variant of the
// payload, not a Go error.
func (e *Engine) Update(mutation, id string, input ir.IRObject) (ir.IRObject, error) {
	ent, err := e.Entity(mutation)
	if err != nil {
		return nil, err
	}
	op := "update" + ent.Name()
	defer e.observe(op, time.Now())

	rec, found, err := ent.Update(id, input)
	if err != nil {
		return nil, e.fail(op, ent, id, err)
	}
	if !found {
		e.logger.Debug("update target not found", "collection", ent.mutation.Collection, "id", id)
		return e.payload(op, ent, ir.IRObject{
			"message": ir.IRString(fmt.Sprintf(ent.mutation.NotFound, id)),
		})
	}
	e.logger.Info("record updated", "collection", ent.mutation.Collection, "id", id)
	return e.payload(op, ent, rec)
}

// Delete soft-deletes the live record with id. It returns false when
// there is none.
func (e *Engine) Delete(mutation, id string) (bool, error) {
	ent, err := e.Entity(mutation)
	if err != nil {
		return false, err
	}
	op := "delete" + ent.Name()
	defer e.observe(op, time.Now())

	deleted, err := ent.Delete(id)
	if err != nil {
		return false, e.fail(op, ent, id, err)
	}
	if deleted {
		e.logger.Info("record deleted", "collection", ent.mutation.Collection, "id", id)
	}
	e.count(op, outcomeOK)
	return deleted, nil
}

// payload tags obj with its variant of the mutation's payload union.
func (e *Engine) payload(op string, ent *Entity, obj ir.IRObject) (ir.IRObject, error) {
	typename, err := e.variants.Payload(ent.mutation.Payload, obj)
	if err != nil {
		e.count(op, outcomeFailed)
		return nil, err
	}
	out := obj.Clone()
	out[variant.TypenameField] = ir.IRString(typename)

	outcome := outcomeOK
	if typename != e.schema.Payloads[ent.mutation.Payload].Success {
		outcome = outcomeErrorPayload
	}
	e.count(op, outcome)
	return out, nil
}

func (e *Engine) fail(op string, ent *Entity, id string, err error) error {
	e.count(op, outcomeFailed)
	if errors.Is(err, store.ErrPersistence) {
		return NewPersistenceError(ent.Name(), id, err)
	}
	return err
}

// CheckStoredData reports live records that have no string id. Such
// records are still served but can never be addressed by a lookup.
func (e *Engine) CheckStoredData() error {
	var errs []error
	for _, spec := range store.Collections {
		coll, err := e.store.Collection(spec.Name)
		if err != nil {
			return err
		}
		for i, rec := range coll.All() {
			if id, ok := rec.String("id"); !ok || id == "" {
				errs = append(errs, NewMalformedDataError(spec.Name, i, "missing string id"))
			}
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) unknownResourceType(value string) {
	e.logger.Debug("resolved to default variant", "error", NewUnknownEnumError("ResourceType", value))
	if e.metrics != nil {
		e.metrics.unknownEnum.WithLabelValues("ResourceType").Inc()
	}
}

func (e *Engine) count(op, outcome string) {
	if e.metrics != nil {
		e.metrics.operations.WithLabelValues(op, outcome).Inc()
	}
}

func (e *Engine) observe(op string, start time.Time) {
	if e.metrics != nil {
		e.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func (e *Engine) observeResults(op string, n int) {
	if e.metrics != nil {
		e.metrics.results.WithLabelValues(op).Observe(float64(n))
	}
}
