package authoritystore

import (
	"context"

	"github.com/ai-wallet-labs/delegation-wallet/internal/delegation"
	"github.com/ai-wallet-labs/delegation-wallet/internal/walleterr"
)

// persistLocked writes one delegation's row (spec §4.2, "the entire map is
// serialized on each mutation" — realized here as one durable row per
// delegation, so a mutation only ever rewrites the row it touched). Caller
// must hold s.mu.
func (s *Store) persistLocked(ctx context.Context, d delegation.Delegation) error {
	rec := record{Delegation: d, Sequence: s.sequenceOf(d.ID)}
	if err := s.store.Save(ctx, namespace, idKey(d.ID), rec); err != nil {
		return walleterr.Wrap(walleterr.NetworkFatal, err, "persist delegation %s", idKey(d.ID))
	}
	return nil
}

// sequenceOf returns the insertion sequence recorded for id, 0 if unknown
// (a fresh insertLocked call always runs before this is read).
func (s *Store) sequenceOf(id [32]byte) uint64 {
	for i, cur := range s.order {
		if cur == id {
			return uint64(i)
		}
	}
	return 0
}

// Restore rehydrates the store from durable records, reconstructing
// deterministic insertion order from each record's persisted sequence
// number. A no-op on an empty store.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.store.List(ctx, namespace, func() any { return &record{} })
	if err != nil {
		return walleterr.Wrap(walleterr.NetworkFatal, err, "list persisted delegations")
	}

	ordered := make([]record, 0, len(rows))
	for _, v := range rows {
		ordered = append(ordered, *v.(*record))
	}
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].Sequence < ordered[i].Sequence {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	s.byID = make(map[[32]byte]delegation.Delegation, len(ordered))
	s.order = s.order[:0]
	for _, rec := range ordered {
		s.byID[rec.Delegation.ID] = rec.Delegation
		s.order = append(s.order, rec.Delegation.ID)
	}
	s.sequence = uint64(len(ordered))

	s.log.WithField("count", len(ordered)).Info("authority store restored")
	return nil
}
