// Package etag computes Kith's deterministic, collision-resistant
// content hash of a subject's active fact set (spec §4.3). Nothing stores
// it: like every other projection it is recomputed from the active facts
// whenever a handler needs it.
package etag

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"kith/models"
)

// Compute hashes facts sorted by fact_id ascending, feeding each
// (16-byte fact_id, 8-byte little-endian microsecond recorded_at) pair
// into SHA-256. The sort makes the result order-independent (P3): two
// equivalent write sequences that insert the same active facts in a
// different order yield the same final ETag.
func Compute(facts []models.ResolvedFact) string {
	sorted := make([]models.ResolvedFact, len(facts))
	copy(sorted, facts)
	sort.Slice(sorted, func(i, j int) bool {
		return lessUUID(sorted[i].FactID, sorted[j].FactID)
	})

	h := sha256.New()
	var buf [8]byte
	for _, rf := range sorted {
		h.Write(rf.FactID[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(rf.RecordedAt.UnixMicro()))
		h.Write(buf[:])
	}

	return fmt.Sprintf("%q", hex.EncodeToString(h.Sum(nil)))
}

// ComputeView is a convenience wrapper over a materialized ContactView.
func ComputeView(view *models.ContactView) string {
	if view == nil {
		return Compute(nil)
	}
	return Compute(view.ActiveFacts)
}

func lessUUID(a, b [16]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
