// Package models defines Kith's domain types: subjects, immutable facts,
// lifecycle events and the views computed over them. Nothing in this
// package talks to storage or the network — it is the closed vocabulary
// every other package builds on.
package models

import (
	"time"

	"github.com/google/uuid"
)

// SubjectKind distinguishes the kind of entity a Subject envelopes.
type SubjectKind string

const (
	SubjectPerson       SubjectKind = "person"
	SubjectOrganization SubjectKind = "organization"
	SubjectGroup        SubjectKind = "group"
)

// Subject is an identity envelope. Subjects are created on demand and
// never destroyed; deleting a contact retracts its facts but the
// envelope and its history remain.
type Subject struct {
	ID        uuid.UUID
	Kind      SubjectKind
	CreatedAt time.Time
}
