// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about graph edits, validation runs, serialization, cache
// operations, and HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the workflow model free of logging and metrics dependencies
//   - Allows different backends (a charmbracelet logger, Prometheus, ...)
//
// The editor, validation and serializer hooks are called from synchronous,
// non-blocking code and therefore take no context.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetEditorHooks(&myEditorHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Editor().OnEdit("AddEdge", snap.Version())
//	observability.Validation().OnValidate(nodeCount, len(violations), time.Since(start))
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Editor Hooks
// =============================================================================

// EditorHooks receives events from graph store mutations.
type EditorHooks interface {
	// OnEdit records a successful mutation and the resulting graph version.
	OnEdit(op string, version uint64)

	// OnEditRejected records a mutation that failed and left the graph unchanged.
	OnEditRejected(op string, err error)
}

// =============================================================================
// Validation Hooks
// =============================================================================

// ValidationHooks receives events from activation checks.
type ValidationHooks interface {
	// OnValidate records a validator run.
	OnValidate(nodeCount, violations int, duration time.Duration)

	// OnTransition records a status transition check. err is nil when allowed.
	OnTransition(from, to string, err error)
}

// =============================================================================
// Serializer Hooks
// =============================================================================

// SerializerHooks receives events from payload encoding and decoding.
type SerializerHooks interface {
	// OnDecode records a parsed payload. issues is 0 on success.
	OnDecode(format string, nodeCount, issues int, duration time.Duration)

	// OnEncode records an encoded snapshot.
	OnEncode(format string, nodeCount int)

	// OnMigrate records a payload upgraded between format versions.
	OnMigrate(from, to int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP surface.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopEditorHooks is a no-op implementation of EditorHooks.
type NoopEditorHooks struct{}

func (NoopEditorHooks) OnEdit(string, uint64)        {}
func (NoopEditorHooks) OnEditRejected(string, error) {}

// NoopValidationHooks is a no-op implementation of ValidationHooks.
type NoopValidationHooks struct{}

func (NoopValidationHooks) OnValidate(int, int, time.Duration)   {}
func (NoopValidationHooks) OnTransition(string, string, error) {}

// NoopSerializerHooks is a no-op implementation of SerializerHooks.
type NoopSerializerHooks struct{}

func (NoopSerializerHooks) OnDecode(string, int, int, time.Duration) {}
func (NoopSerializerHooks) OnEncode(string, int)                     {}
func (NoopSerializerHooks) OnMigrate(int, int)                       {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	editorHooks     EditorHooks     = NoopEditorHooks{}
	validationHooks ValidationHooks = NoopValidationHooks{}
	serializerHooks SerializerHooks = NoopSerializerHooks{}
	cacheHooks      CacheHooks      = NoopCacheHooks{}
	httpHooks       HTTPHooks       = NoopHTTPHooks{}
	hooksMu         sync.RWMutex
)

// SetEditorHooks registers custom editor hooks.
// This should be called once at application startup before any graph is edited.
func SetEditorHooks(h EditorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		editorHooks = h
	}
}

// SetValidationHooks registers custom validation hooks.
func SetValidationHooks(h ValidationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		validationHooks = h
	}
}

// SetSerializerHooks registers custom serializer hooks.
func SetSerializerHooks(h SerializerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serializerHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before the server starts.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Editor returns the registered editor hooks.
func Editor() EditorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return editorHooks
}

// Validation returns the registered validation hooks.
func Validation() ValidationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return validationHooks
}

// Serializer returns the registered serializer hooks.
func Serializer() SerializerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serializerHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	editorHooks = NoopEditorHooks{}
	validationHooks = NoopValidationHooks{}
	serializerHooks = NoopSerializerHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
