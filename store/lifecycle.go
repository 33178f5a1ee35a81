package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"kith/kerr"
	"kith/models"
)

// statusOfLocked computes a fact's lifecycle status as of asOf, filtering
// the lifecycle tables by recorded_at <= asOf so that materializing at an
// earlier instant still shows facts that were Active then even if they
// were later superseded or retracted (spec §4.1's point-in-time note, P9).
func statusOfLocked(ctx context.Context, q execQueryer, factID uuid.UUID, asOf time.Time) (models.Status, error) {
	var reason sql.NullString
	var retractedAtMicro int64
	row := q.QueryRowContext(ctx,
		`SELECT reason, recorded_at FROM retractions WHERE fact_id = ? AND recorded_at <= ?`,
		factID.String(), timeToMicros(asOf))
	switch err := row.Scan(&reason, &retractedAtMicro); err {
	case nil:
		st := models.Status{Kind: models.StatusRetracted, RetractedAt: microsToTime(retractedAtMicro)}
		if reason.Valid {
			st.RetractedReason = &reason.String
		}
		return st, nil
	case sql.ErrNoRows:
		// fall through to supersession check
	default:
		return models.Status{}, err
	}

	var newFactID string
	var supersededAtMicro int64
	row = q.QueryRowContext(ctx,
		`SELECT new_fact_id, recorded_at FROM supersessions WHERE old_fact_id = ? AND recorded_at <= ?`,
		factID.String(), timeToMicros(asOf))
	switch err := row.Scan(&newFactID, &supersededAtMicro); err {
	case nil:
		by, err := uuid.Parse(newFactID)
		if err != nil {
			return models.Status{}, err
		}
		return models.Status{Kind: models.StatusSuperseded, SupersededBy: by, SupersededAt: microsToTime(supersededAtMicro)}, nil
	case sql.ErrNoRows:
		return models.Status{Kind: models.StatusActive}, nil
	default:
		return models.Status{}, err
	}
}

// ensureActiveLocked fails unless factID exists and is currently Active.
func ensureActiveLocked(ctx context.Context, q execQueryer, factID uuid.UUID) error {
	if _, err := getFactLocked(ctx, q, factID); err != nil {
		return err
	}
	status, err := statusOfLocked(ctx, q, factID, time.Now().UTC())
	if err != nil {
		return kerr.Wrap(kerr.Internal, "compute fact status", err)
	}
	if status.Kind != models.StatusActive {
		return kerr.New(kerr.Invariant, "fact already inactive")
	}
	return nil
}

// Supersede atomically checks old_id is Active, inserts the replacement
// fact, and links them with a supersession row. Both inserts and the
// status check occur in one transaction (spec §4.1).
func (s *Store) Supersede(ctx context.Context, oldID uuid.UUID, nf models.NewFact) (models.Supersession, models.Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Supersession{}, models.Fact{}, kerr.Wrap(kerr.Internal, "begin tx", err)
	}
	defer tx.Rollback()

	if err := ensureActiveLocked(ctx, tx, oldID); err != nil {
		return models.Supersession{}, models.Fact{}, err
	}
	if _, err := s.getSubjectLocked(ctx, tx, nf.SubjectID); err != nil {
		return models.Supersession{}, models.Fact{}, err
	}

	newFact := models.Fact{
		FactID:         uuid.New(),
		SubjectID:      nf.SubjectID,
		Value:          nf.Value,
		RecordedAt:     s.nextRecordedAt(),
		EffectiveAt:    nf.EffectiveAt,
		EffectiveUntil: nf.EffectiveUntil,
		Source:         nf.Source,
		Confidence:     nf.Confidence,
		Context:        nf.Context,
		Tags:           nf.Tags,
	}
	if err := insertFact(ctx, tx, newFact); err != nil {
		return models.Supersession{}, models.Fact{}, err
	}

	sup := models.Supersession{
		ID:         uuid.New(),
		OldFactID:  oldID,
		NewFactID:  newFact.FactID,
		RecordedAt: s.nextRecordedAt(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO supersessions (id, old_fact_id, new_fact_id, recorded_at) VALUES (?, ?, ?, ?)`,
		sup.ID.String(), sup.OldFactID.String(), sup.NewFactID.String(), timeToMicros(sup.RecordedAt),
	); err != nil {
		return models.Supersession{}, models.Fact{}, kerr.Wrap(kerr.Internal, "insert supersession", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Supersession{}, models.Fact{}, kerr.Wrap(kerr.Internal, "commit supersede", err)
	}
	return sup, newFact, nil
}

// Retract atomically checks fact_id is Active, then appends a retraction.
func (s *Store) Retract(ctx context.Context, factID uuid.UUID, reason *string) (models.Retraction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Retraction{}, kerr.Wrap(kerr.Internal, "begin tx", err)
	}
	defer tx.Rollback()

	if err := ensureActiveLocked(ctx, tx, factID); err != nil {
		return models.Retraction{}, err
	}

	ret := models.Retraction{
		ID:         uuid.New(),
		FactID:     factID,
		Reason:     reason,
		RecordedAt: s.nextRecordedAt(),
	}
	var reasonArg interface{}
	if reason != nil {
		reasonArg = *reason
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO retractions (id, fact_id, reason, recorded_at) VALUES (?, ?, ?, ?)`,
		ret.ID.String(), ret.FactID.String(), reasonArg, timeToMicros(ret.RecordedAt),
	); err != nil {
		return models.Retraction{}, kerr.Wrap(kerr.Internal, "insert retraction", err)
	}

	if err := tx.Commit(); err != nil {
		return models.Retraction{}, kerr.Wrap(kerr.Internal, "commit retract", err)
	}
	return ret, nil
}
