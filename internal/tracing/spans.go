package tracing

// Span attribute keys for registry tracing.
const (
	AttrModule      = "registry.module"
	AttrAdapter     = "registry.adapter"
	AttrAdapterName = "registry.adapter_name"
	AttrNameHash    = "registry.name_hash"
	AttrCaller      = "registry.caller"
	AttrBatchSize   = "registry.batch.size"
	AttrBatchIndex  = "registry.batch.index"
	AttrFound       = "registry.found"

	AttrErrorCode = "error.code"
	AttrErrorKind = "error.kind"
)

// Span names, one per registry operation.
const (
	SpanAddIntegration                = "registry.AddIntegration"
	SpanBatchAddIntegration           = "registry.BatchAddIntegration"
	SpanEditIntegration               = "registry.EditIntegration"
	SpanBatchEditIntegration          = "registry.BatchEditIntegration"
	SpanRemoveIntegration             = "registry.RemoveIntegration"
	SpanGetIntegrationAdapter         = "registry.GetIntegrationAdapter"
	SpanGetIntegrationAdapterWithHash = "registry.GetIntegrationAdapterWithHash"
	SpanIsValidIntegration            = "registry.IsValidIntegration"
)

// Event names for span events.
const (
	EventControllerChecked = "controller.checked"
	EventCommitted         = "store.committed"
	EventCacheInvalidated  = "cache.invalidated"
)
