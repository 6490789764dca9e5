// Package durablestore is the seam between a component's in-memory state
// and whatever durable-storage primitive the host isolation runtime
// provides. Every mutation is a full serialize-and-write; there is no
// object-identity problem across a restart because nothing survives but
// bytes (spec §9, "Persistence without object identity").
package durablestore

import "context"

// Store persists small JSON-serializable records under a
// (namespace, key) pair. A namespace corresponds to one component's
// sub-store (spec §5, "each component has its own sub-store; no
// cross-component keys"); key is that component's own identifier for the
// record (e.g. a delegation id, or a fixed name like "config" for a
// singleton record).
type Store interface {
	// Save serializes value and writes it, replacing any prior value for
	// the same (namespace, key).
	Save(ctx context.Context, namespace, key string, value any) error

	// Load deserializes the stored value into out. The bool result is
	// false (and out left untouched) if nothing is stored for the key.
	Load(ctx context.Context, namespace, key string, out any) (bool, error)

	// Delete removes the record, if any. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, namespace, key string) error

	// List returns every key currently stored in namespace, each
	// unmarshaled into a fresh value produced by newOut. The returned
	// map is keyed by the record key.
	List(ctx context.Context, namespace string, newOut func() any) (map[string]any, error)
}
