package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"kith/kerr"
	"kith/models"
)

// execQueryer is satisfied by both *sql.DB and *sql.Tx, so the scan/insert
// helpers below work whether or not a caller has opened a transaction.
type execQueryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const factColumns = `fact_id, subject_id, kind, payload, recorded_at, effective_at, effective_until,
	source, confidence, context_kind, context_source_name, context_original_uid, tags`

// RecordFact allocates a fact id and recorded_at, then appends the fact.
// subject_id must name an existing subject.
func (s *Store) RecordFact(ctx context.Context, nf models.NewFact) (models.Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getSubjectLocked(ctx, s.db, nf.SubjectID); err != nil {
		return models.Fact{}, err
	}

	fact := models.Fact{
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

	if err := insertFact(ctx, s.db, fact); err != nil {
		return models.Fact{}, err
	}
	return fact, nil
}

func insertFact(ctx context.Context, q execQueryer, fact models.Fact) error {
	kind, payload, err := encodeValue(fact.Value)
	if err != nil {
		return kerr.Wrap(kerr.Internal, "encode fact value", err)
	}
	effectiveAt, err := encodeClaim(fact.EffectiveAt)
	if err != nil {
		return kerr.Wrap(kerr.Internal, "encode effective_at", err)
	}
	effectiveUntil, err := encodeClaim(fact.EffectiveUntil)
	if err != nil {
		return kerr.Wrap(kerr.Internal, "encode effective_until", err)
	}
	tags, err := encodeTags(fact.Tags)
	if err != nil {
		return kerr.Wrap(kerr.Internal, "encode tags", err)
	}

	var originalUID interface{}
	if fact.Context.OriginalUID != nil {
		originalUID = *fact.Context.OriginalUID
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO facts (`+factColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fact.FactID.String(), fact.SubjectID.String(), string(kind), payload,
		timeToMicros(fact.RecordedAt), effectiveAt, effectiveUntil,
		fact.Source, string(fact.Confidence), string(fact.Context.Kind),
		fact.Context.SourceName, originalUID, tags,
	)
	if err != nil {
		return kerr.Wrap(kerr.Internal, "insert fact", err)
	}
	return nil
}

func (s *Store) getSubjectLocked(ctx context.Context, q execQueryer, id uuid.UUID) (models.Subject, error) {
	row := q.QueryRowContext(ctx, `SELECT id, kind, created_at FROM subjects WHERE id = ?`, id.String())
	subj, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Subject{}, kerr.New(kerr.NotFound, "subject not found")
	}
	if err != nil {
		return models.Subject{}, kerr.Wrap(kerr.Internal, "get subject", err)
	}
	return subj, nil
}

func scanFact(row rowScanner) (models.Fact, error) {
	var factID, subjectID, kind, confidence, contextKind, contextSourceName, source string
	var payload, effectiveAtBlob, effectiveUntilBlob, tagsBlob []byte
	var recordedAtMicro int64
	var originalUID sql.NullString

	if err := row.Scan(
		&factID, &subjectID, &kind, &payload, &recordedAtMicro,
		&effectiveAtBlob, &effectiveUntilBlob, &source, &confidence,
		&contextKind, &contextSourceName, &originalUID, &tagsBlob,
	); err != nil {
		return models.Fact{}, err
	}

	value, err := decodeValue(models.FactKind(kind), payload)
	if err != nil {
		return models.Fact{}, err
	}
	effectiveAt, err := decodeClaim(effectiveAtBlob)
	if err != nil {
		return models.Fact{}, err
	}
	effectiveUntil, err := decodeClaim(effectiveUntilBlob)
	if err != nil {
		return models.Fact{}, err
	}
	tags, err := decodeTags(tagsBlob)
	if err != nil {
		return models.Fact{}, err
	}

	fID, err := uuid.Parse(factID)
	if err != nil {
		return models.Fact{}, err
	}
	sID, err := uuid.Parse(subjectID)
	if err != nil {
		return models.Fact{}, err
	}

	rc := models.RecordingContext{
		Kind:       models.RecordingContextKind(contextKind),
		SourceName: contextSourceName,
	}
	if originalUID.Valid {
		u := originalUID.String
		rc.OriginalUID = &u
	}

	return models.Fact{
		FactID:         fID,
		SubjectID:      sID,
		Value:          value,
		RecordedAt:     microsToTime(recordedAtMicro),
		EffectiveAt:    effectiveAt,
		EffectiveUntil: effectiveUntil,
		Source:         source,
		Confidence:     models.Confidence(confidence),
		Context:        rc,
		Tags:           tags,
	}, nil
}

func getFactLocked(ctx context.Context, q execQueryer, id uuid.UUID) (models.Fact, error) {
	row := q.QueryRowContext(ctx, `SELECT `+factColumns+` FROM facts WHERE fact_id = ?`, id.String())
	fact, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Fact{}, kerr.New(kerr.NotFound, "fact not found")
	}
	if err != nil {
		return models.Fact{}, kerr.Wrap(kerr.Internal, "get fact", err)
	}
	return fact, nil
}
