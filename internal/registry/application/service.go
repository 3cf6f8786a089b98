// Package application implements the registry service: administrator-gated
// mutations of (module, adapter name) bindings and their lookups.
package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/intreg/internal/cachemanager"
	"github.com/zjrosen/intreg/internal/log"
	"github.com/zjrosen/intreg/internal/pubsub"
	"github.com/zjrosen/intreg/internal/registry/domain"
	"github.com/zjrosen/intreg/internal/tracing"
)

// DefaultCacheTTL is how long a lookup result stays cached when a cache is configured.
const DefaultCacheTTL = 5 * time.Minute

// Service is the integration registry.
//
// All operations run in a single global order: mutations hold the write lock
// for the whole storage transaction, cache invalidation and event publication,
// so a reader never observes a partially applied batch.
type Service struct {
	mu sync.RWMutex

	repo       domain.BindingRepository
	controller domain.Controller
	auth       domain.Authorizer

	broker   *pubsub.Broker[domain.Event]
	lookups  *cachemanager.ReadThroughCache[string, domain.Address, domain.BindingKey]
	cacheTTL time.Duration
	tracer   trace.Tracer
}

var _ pubsub.Subscriber[domain.Event] = (*Service)(nil)

// Option configures a Service.
type Option func(*Service)

// WithCache serves lookups through cache. Entries for every key a mutation
// touches are dropped before the mutation returns.
func WithCache(cache cachemanager.CacheManager[string, domain.Address], ttl time.Duration) Option {
	return func(s *Service) {
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		s.lookups = cachemanager.NewReadThroughCache(cache, s.repo.Get, false)
		s.cacheTTL = ttl
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithBroker publishes committed events on broker instead of a private one.
func WithBroker(broker *pubsub.Broker[domain.Event]) Option {
	return func(s *Service) {
		s.broker = broker
	}
}

// NewService creates a registry backed by repo, consulting controller for
// module validity and auth for every mutation.
func NewService(
	repo domain.BindingRepository,
	controller domain.Controller,
	auth domain.Authorizer,
	opts ...Option,
) *Service {
	s := &Service{
		repo:       repo,
		controller: controller,
		auth:       auth,
		broker:     pubsub.NewBroker[domain.Event](),
		tracer:     noop.NewTracerProvider().Tracer("noop"),
	}
	s.lookups = cachemanager.NewReadThroughCache[string, domain.Address](nil, repo.Get, true)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe returns a channel of committed registry events, one per applied
// element, in commit order.
func (s *Service) Subscribe(ctx context.Context) <-chan pubsub.Event[domain.Event] {
	return s.broker.Subscribe(ctx)
}

// Close stops event delivery. The repository is owned by the caller.
func (s *Service) Close() {
	s.broker.Close()
}

// ===========================================================================
// Mutations
// ===========================================================================

// binding is one requested element of a mutation.
type binding struct {
	module  domain.Address
	name    string
	adapter domain.Address
}

// applyFunc validates and applies one element inside a transaction and
// returns the event describing it.
type applyFunc func(ctx context.Context, tx domain.BindingTx, caller domain.Address, b binding) (*domain.Event, error)

// AddIntegration binds name under module to adapter.
func (s *Service) AddIntegration(ctx context.Context, caller, module domain.Address, name string, adapter domain.Address) (err error) {
	ctx, span := s.startMutation(ctx, tracing.SpanAddIntegration, caller,
		attribute.String(tracing.AttrModule, module.Hex()),
		attribute.String(tracing.AttrAdapterName, name),
		attribute.String(tracing.AttrAdapter, adapter.Hex()),
	)
	defer func() { endSpan(span, err) }()

	b := binding{module: module, name: name, adapter: adapter}
	if err := s.auth.Authorize(ctx, caller); err != nil {
		return opError("AddIntegration", b, err)
	}
	return s.commit(ctx, span, caller, []binding{b}, s.applyAdd, false)
}

// EditIntegration rebinds an existing name under module to adapter.
func (s *Service) EditIntegration(ctx context.Context, caller, module domain.Address, name string, adapter domain.Address) (err error) {
	ctx, span := s.startMutation(ctx, tracing.SpanEditIntegration, caller,
		attribute.String(tracing.AttrModule, module.Hex()),
		attribute.String(tracing.AttrAdapterName, name),
		attribute.String(tracing.AttrAdapter, adapter.Hex()),
	)
	defer func() { endSpan(span, err) }()

	b := binding{module: module, name: name, adapter: adapter}
	if err := s.auth.Authorize(ctx, caller); err != nil {
		return opError("EditIntegration", b, err)
	}
	return s.commit(ctx, span, caller, []binding{b}, s.applyEdit, false)
}

// RemoveIntegration unbinds name under module.
func (s *Service) RemoveIntegration(ctx context.Context, caller, module domain.Address, name string) (err error) {
	ctx, span := s.startMutation(ctx, tracing.SpanRemoveIntegration, caller,
		attribute.String(tracing.AttrModule, module.Hex()),
		attribute.String(tracing.AttrAdapterName, name),
	)
	defer func() { endSpan(span, err) }()

	b := binding{module: module, name: name}
	if err := s.auth.Authorize(ctx, caller); err != nil {
		return opError("RemoveIntegration", b, err)
	}
	return s.commit(ctx, span, caller, []binding{b}, s.applyRemove, false)
}

// BatchAddIntegration adds modules[i]/names[i] -> adapters[i] for every i.
// Either every element is stored or none is; a failing element is reported
// as a *domain.BatchError.
func (s *Service) BatchAddIntegration(ctx context.Context, caller domain.Address, modules []domain.Address, names []string, adapters []domain.Address) (err error) {
	ctx, span := s.startMutation(ctx, tracing.SpanBatchAddIntegration, caller,
		attribute.Int(tracing.AttrBatchSize, len(modules)),
	)
	defer func() { endSpan(span, err) }()

	batch, err := s.prepareBatch(ctx, "BatchAddIntegration", caller, modules, names, adapters)
	if err != nil {
		return err
	}
	return s.commit(ctx, span, caller, batch, s.applyAdd, true)
}

// BatchEditIntegration edits modules[i]/names[i] -> adapters[i] for every i
// with the same all-or-nothing discipline as BatchAddIntegration.
func (s *Service) BatchEditIntegration(ctx context.Context, caller domain.Address, modules []domain.Address, names []string, adapters []domain.Address) (err error) {
	ctx, span := s.startMutation(ctx, tracing.SpanBatchEditIntegration, caller,
		attribute.Int(tracing.AttrBatchSize, len(modules)),
	)
	defer func() { endSpan(span, err) }()

	batch, err := s.prepareBatch(ctx, "BatchEditIntegration", caller, modules, names, adapters)
	if err != nil {
		return err
	}
	return s.commit(ctx, span, caller, batch, s.applyEdit, true)
}

// prepareBatch runs the whole-batch checks in order: authorization, emptiness,
// then the two length comparisons.
func (s *Service) prepareBatch(ctx context.Context, op string, caller domain.Address, modules []domain.Address, names []string, adapters []domain.Address) ([]binding, error) {
	if err := s.auth.Authorize(ctx, caller); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrEmptyModulesList)
	}
	if len(modules) != len(names) {
		return nil, fmt.Errorf("%s: %w", op, &domain.LengthMismatchError{Field: "adapterNames", Modules: len(modules), Got: len(names)})
	}
	if len(modules) != len(adapters) {
		return nil, fmt.Errorf("%s: %w", op, &domain.LengthMismatchError{Field: "adapters", Modules: len(modules), Got: len(adapters)})
	}

	batch := make([]binding, len(modules))
	for i := range modules {
		batch[i] = binding{module: modules[i], name: names[i], adapter: adapters[i]}
	}
	return batch, nil
}

// commit applies every element in index order inside one storage transaction.
// On success it drops the cached lookups of every touched key and publishes
// the journaled events in order. On failure nothing is stored or published.
func (s *Service) commit(ctx context.Context, span trace.Span, caller domain.Address, batch []binding, apply applyFunc, isBatch bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []*domain.Event
	err := s.repo.WithTx(ctx, func(tx domain.BindingTx) error {
		events = events[:0]
		for i, b := range batch {
			event, err := apply(ctx, tx, caller, b)
			if err != nil {
				if isBatch {
					span.SetAttributes(attribute.Int(tracing.AttrBatchIndex, i))
					return &domain.BatchError{Index: i, Err: err}
				}
				return err
			}
			events = append(events, event)
		}
		return tx.AppendEvents(ctx, events)
	})
	if err != nil {
		log.Debug(log.CatRegistry, "mutation rejected", "caller", caller, "error", err)
		return err
	}
	span.AddEvent(tracing.EventCommitted)

	keys := make([]string, len(batch))
	for i, b := range batch {
		keys[i] = domain.KeyFor(b.module, b.name).CacheKey()
	}
	if err := s.lookups.Invalidate(ctx, keys...); err != nil {
		log.ErrorErr(log.CatCache, "invalidate lookups", err, "keys", len(keys))
	}
	span.AddEvent(tracing.EventCacheInvalidated)

	for _, e := range events {
		log.Info(log.CatRegistry, string(e.Kind),
			"module", e.Module, "name", e.Name, "adapter", e.Adapter, "id", e.ID)
		s.broker.PublishAt(eventType(e.Kind), *e, e.CreatedAt)
	}
	return nil
}

func (s *Service) applyAdd(ctx context.Context, tx domain.BindingTx, caller domain.Address, b binding) (*domain.Event, error) {
	const op = "AddIntegration"
	if b.adapter.IsZero() {
		return nil, opError(op, b, domain.ErrZeroAdapter)
	}
	if err := s.checkModule(ctx, b.module); err != nil {
		return nil, opError(op, b, err)
	}

	key := domain.KeyFor(b.module, b.name)
	current, err := tx.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read binding: %w", err)
	}
	if !current.IsZero() {
		return nil, opError(op, b, domain.ErrAdapterAlreadyExists)
	}
	if err := tx.Put(ctx, domain.Binding{Module: b.module, Name: b.name, Adapter: b.adapter}); err != nil {
		return nil, fmt.Errorf("store binding: %w", err)
	}
	return newEvent(domain.EventAddIntegration, caller, key, b.name, b.adapter), nil
}

func (s *Service) applyEdit(ctx context.Context, tx domain.BindingTx, caller domain.Address, b binding) (*domain.Event, error) {
	const op = "EditIntegration"
	if b.adapter.IsZero() {
		return nil, opError(op, b, domain.ErrZeroAdapter)
	}
	if err := s.checkModule(ctx, b.module); err != nil {
		return nil, opError(op, b, err)
	}

	key := domain.KeyFor(b.module, b.name)
	current, err := tx.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read binding: %w", err)
	}
	if current.IsZero() {
		return nil, opError(op, b, domain.ErrAdapterDoesNotExist)
	}
	if err := tx.Put(ctx, domain.Binding{Module: b.module, Name: b.name, Adapter: b.adapter}); err != nil {
		return nil, fmt.Errorf("store binding: %w", err)
	}
	return newEvent(domain.EventEditIntegration, caller, key, b.name, b.adapter), nil
}

// applyRemove does not consult the controller, so bindings of a module the
// controller no longer recognizes can still be removed.
func (s *Service) applyRemove(ctx context.Context, tx domain.BindingTx, caller domain.Address, b binding) (*domain.Event, error) {
	key := domain.KeyFor(b.module, b.name)
	old, err := tx.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read binding: %w", err)
	}
	if old.IsZero() {
		return nil, opError("RemoveIntegration", b, domain.ErrIntegrationNotExist)
	}
	if err := tx.Delete(ctx, key); err != nil {
		return nil, fmt.Errorf("delete binding: %w", err)
	}
	return newEvent(domain.EventRemoveIntegration, caller, key, b.name, old), nil
}

// checkModule asks the controller at call time. Answers are never cached.
func (s *Service) checkModule(ctx context.Context, module domain.Address) error {
	ok, err := s.controller.IsModule(ctx, module)
	trace.SpanFromContext(ctx).AddEvent(tracing.EventControllerChecked,
		trace.WithAttributes(attribute.String(tracing.AttrModule, module.Hex()), attribute.Bool(tracing.AttrFound, ok)))
	if err != nil {
		log.ErrorErr(log.CatController, "controller query failed", err, "module", module)
		return fmt.Errorf("query controller: %w", err)
	}
	if !ok {
		return domain.ErrModuleNotInitialized
	}
	return nil
}

// ===========================================================================
// Lookups
// ===========================================================================

// GetIntegrationAdapter returns the adapter bound to name under module, or
// the zero address. The only error is a store failure.
func (s *Service) GetIntegrationAdapter(ctx context.Context, module domain.Address, name string) (domain.Address, error) {
	return s.lookup(ctx, tracing.SpanGetIntegrationAdapter, domain.KeyFor(module, name),
		attribute.String(tracing.AttrAdapterName, name))
}

// GetIntegrationAdapterWithHash is GetIntegrationAdapter keyed by a precomputed name hash.
func (s *Service) GetIntegrationAdapterWithHash(ctx context.Context, module domain.Address, hash domain.NameHash) (domain.Address, error) {
	return s.lookup(ctx, tracing.SpanGetIntegrationAdapterWithHash, domain.BindingKey{Module: module, NameHash: hash})
}

// IsValidIntegration reports whether name under module is bound.
func (s *Service) IsValidIntegration(ctx context.Context, module domain.Address, name string) (bool, error) {
	adapter, err := s.lookup(ctx, tracing.SpanIsValidIntegration, domain.KeyFor(module, name),
		attribute.String(tracing.AttrAdapterName, name))
	if err != nil {
		return false, err
	}
	return !adapter.IsZero(), nil
}

func (s *Service) lookup(ctx context.Context, spanName string, key domain.BindingKey, attrs ...attribute.KeyValue) (adapter domain.Address, err error) {
	attrs = append(attrs,
		attribute.String(tracing.AttrModule, key.Module.Hex()),
		attribute.String(tracing.AttrNameHash, key.NameHash.Hex()),
	)
	ctx, span := s.tracer.Start(ctx, spanName, trace.WithAttributes(attrs...))
	defer func() {
		span.SetAttributes(attribute.Bool(tracing.AttrFound, !adapter.IsZero()))
		endSpan(span, err)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	adapter, err = s.lookups.Get(ctx, key.CacheKey(), key, s.cacheTTL)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "lookup failed", err, "module", key.Module, "hash", key.NameHash)
		return domain.ZeroAddress, fmt.Errorf("read binding: %w", err)
	}
	return adapter, nil
}

// ===========================================================================
// Helpers
// ===========================================================================

func (s *Service) startMutation(ctx context.Context, name string, caller domain.Address, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(tracing.AttrCaller, caller.Hex()))
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code := domain.CodeOf(err); code != "" {
			span.SetAttributes(
				attribute.String(tracing.AttrErrorCode, code),
				attribute.String(tracing.AttrErrorKind, string(domain.KindOf(err))),
			)
		}
	}
	span.End()
}

func opError(op string, b binding, err error) error {
	return &domain.OpError{Op: op, Module: b.module, Name: b.name, Err: err}
}

func newEvent(kind domain.EventKind, caller domain.Address, key domain.BindingKey, name string, adapter domain.Address) *domain.Event {
	return &domain.Event{
		Kind:     kind,
		Module:   key.Module,
		Adapter:  adapter,
		Name:     name,
		NameHash: key.NameHash,
		Caller:   caller,
	}
}

func eventType(kind domain.EventKind) pubsub.EventType {
	switch kind {
	case domain.EventAddIntegration:
		return pubsub.CreatedEvent
	case domain.EventRemoveIntegration:
		return pubsub.DeletedEvent
	default:
		return pubsub.UpdatedEvent
	}
}
