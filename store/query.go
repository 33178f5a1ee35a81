package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"kith/kerr"
	"kith/models"
)

func resolveAsOf(asOf *time.Time) time.Time {
	if asOf == nil {
		return time.Now().UTC()
	}
	return asOf.UTC()
}

// GetFacts returns subject_id's facts recorded at or before asOf (now, if
// nil), ordered by recorded_at then fact_id ascending. When
// includeInactive is false, only Active facts are returned.
func (s *Store) GetFacts(ctx context.Context, subjectID uuid.UUID, asOf *time.Time, includeInactive bool) ([]models.ResolvedFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	when := resolveAsOf(asOf)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+factColumns+` FROM facts WHERE subject_id = ? AND recorded_at <= ?
		 ORDER BY recorded_at ASC, fact_id ASC`,
		subjectID.String(), timeToMicros(when))
	if err != nil {
		return nil, kerr.Wrap(kerr.Internal, "query facts", err)
	}
	defer rows.Close()

	var facts []models.Fact
	for rows.Next() {
		fact, err := scanFact(rows)
		if err != nil {
			return nil, kerr.Wrap(kerr.Internal, "scan fact", err)
		}
		facts = append(facts, fact)
	}
	if err := rows.Err(); err != nil {
		return nil, kerr.Wrap(kerr.Internal, "iterate facts", err)
	}

	out := make([]models.ResolvedFact, 0, len(facts))
	for _, fact := range facts {
		status, err := statusOfLocked(ctx, s.db, fact.FactID, when)
		if err != nil {
			return nil, kerr.Wrap(kerr.Internal, "compute fact status", err)
		}
		if !includeInactive && status.Kind != models.StatusActive {
			continue
		}
		out = append(out, models.ResolvedFact{Fact: fact, Status: status})
	}
	return out, nil
}

// Materialize returns the ContactView of subjectID's Active facts as of
// asOf (now, if nil), or nil if the subject does not exist.
func (s *Store) Materialize(ctx context.Context, subjectID uuid.UUID, asOf *time.Time) (*models.ContactView, error) {
	subject, err := s.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, nil
	}

	when := resolveAsOf(asOf)
	facts, err := s.GetFacts(ctx, subjectID, &when, false)
	if err != nil {
		return nil, err
	}

	return &models.ContactView{
		Subject:     *subject,
		AsOf:        when,
		ActiveFacts: facts,
	}, nil
}
