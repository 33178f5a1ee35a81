package models

import (
	"time"

	"github.com/google/uuid"
)

// Confidence is the caller's claimed certainty about a fact.
type Confidence string

const (
	Certain  Confidence = "certain"
	Probable Confidence = "probable"
	Rumored  Confidence = "rumored"
)

// RecordingContextKind tags how a fact entered the store.
type RecordingContextKind string

const (
	ContextManual   RecordingContextKind = "manual"
	ContextImported RecordingContextKind = "imported"
)

// RecordingContext is Manual, or Imported{source_name, original_uid?}.
type RecordingContext struct {
	Kind        RecordingContextKind
	SourceName  string // set only when Kind == ContextImported
	OriginalUID *string
}

func ManualContext() RecordingContext {
	return RecordingContext{Kind: ContextManual}
}

func ImportedContext(sourceName string, originalUID *string) RecordingContext {
	return RecordingContext{Kind: ContextImported, SourceName: sourceName, OriginalUID: originalUID}
}

// NewFact is the input to Store.RecordFact and the replacement half of
// Store.Supersede. The store assigns FactID and RecordedAt; everything
// else is supplied by the caller.
type NewFact struct {
	SubjectID       uuid.UUID
	Value           FactValue
	EffectiveAt     *TemporalClaim
	EffectiveUntil  *TemporalClaim
	Source          string
	Confidence      Confidence
	Context         RecordingContext
	Tags            []string
}

// Fact is an immutable, timestamped claim about one subject. No row is
// ever updated or deleted once committed (invariant I1).
type Fact struct {
	FactID         uuid.UUID
	SubjectID      uuid.UUID
	Value          FactValue
	RecordedAt     time.Time
	EffectiveAt    *TemporalClaim
	EffectiveUntil *TemporalClaim
	Source         string
	Confidence     Confidence
	Context        RecordingContext
	Tags           []string
}

// StatusKind is a fact's computed lifecycle state.
type StatusKind string

const (
	StatusActive     StatusKind = "active"
	StatusSuperseded StatusKind = "superseded"
	StatusRetracted  StatusKind = "retracted"
)

// Status is computed, never stored: Active unless the fact appears in
// the retractions or supersessions tables.
type Status struct {
	Kind StatusKind

	// Set when Kind == StatusSuperseded.
	SupersededBy uuid.UUID
	SupersededAt time.Time

	// Set when Kind == StatusRetracted.
	RetractedReason *string
	RetractedAt     time.Time
}

// ResolvedFact pairs a Fact with its computed Status.
type ResolvedFact struct {
	Fact
	Status Status
}

// Supersession is an append-only event replacing OldFactID with
// NewFactID. Unique on OldFactID (I4: a fact is superseded at most once).
type Supersession struct {
	ID         uuid.UUID
	OldFactID  uuid.UUID
	NewFactID  uuid.UUID
	RecordedAt time.Time
}

// Retraction is an append-only event withdrawing FactID with no
// replacement. Unique on FactID.
type Retraction struct {
	ID         uuid.UUID
	FactID     uuid.UUID
	Reason     *string
	RecordedAt time.Time
}

// ContactView is the materialized set of a subject's Active facts as of
// a given instant. Computed on read, never stored; its ETag is likewise
// recomputed on demand (package etag).
type ContactView struct {
	Subject     Subject
	AsOf        time.Time
	ActiveFacts []ResolvedFact
}
