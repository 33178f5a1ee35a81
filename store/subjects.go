package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"kith/kerr"
	"kith/models"
)

// AddSubject allocates a fresh subject id and creation timestamp. Subjects
// are created on demand and never destroyed.
func (s *Store) AddSubject(ctx context.Context, kind models.SubjectKind) (models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subj := models.Subject{
		ID:        uuid.New(),
		Kind:      kind,
		CreatedAt: s.nextRecordedAt(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subjects (id, kind, created_at) VALUES (?, ?, ?)`,
		subj.ID.String(), string(subj.Kind), timeToMicros(subj.CreatedAt))
	if err != nil {
		return models.Subject{}, kerr.Wrap(kerr.Internal, "insert subject", err)
	}
	return subj, nil
}

// AddSubjectWithID inserts a subject envelope under a caller-chosen id.
// CardDAV's PUT-create path needs this because the resource's UUID comes
// from the URL, not from the store's own id allocator (spec §4.6).
func (s *Store) AddSubjectWithID(ctx context.Context, id uuid.UUID, kind models.SubjectKind) (models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subj := models.Subject{
		ID:        id,
		Kind:      kind,
		CreatedAt: s.nextRecordedAt(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subjects (id, kind, created_at) VALUES (?, ?, ?)`,
		subj.ID.String(), string(subj.Kind), timeToMicros(subj.CreatedAt))
	if err != nil {
		return models.Subject{}, kerr.Wrap(kerr.Internal, "insert subject", err)
	}
	return subj, nil
}

// GetSubject looks up a subject by id, returning (nil, nil) if absent.
func (s *Store) GetSubject(ctx context.Context, id uuid.UUID) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, created_at FROM subjects WHERE id = ?`, id.String())
	subj, err := scanSubject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, kerr.Wrap(kerr.Internal, "get subject", err)
	}
	return &subj, nil
}

// ListSubjects returns subjects, optionally filtered by kind. Order is
// stable per-call but otherwise unspecified, per spec §4.1.
func (s *Store) ListSubjects(ctx context.Context, kind *models.SubjectKind) ([]models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, kind, created_at FROM subjects`
	args := []interface{}{}
	if kind != nil {
		query += ` WHERE kind = ?`
		args = append(args, string(*kind))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, kerr.Wrap(kerr.Internal, "list subjects", err)
	}
	defer rows.Close()

	var out []models.Subject
	for rows.Next() {
		subj, err := scanSubject(rows)
		if err != nil {
			return nil, kerr.Wrap(kerr.Internal, "scan subject", err)
		}
		out = append(out, subj)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubject(row rowScanner) (models.Subject, error) {
	var id, kind string
	var createdAtMicro int64
	if err := row.Scan(&id, &kind, &createdAtMicro); err != nil {
		return models.Subject{}, err
	}
	subjID, err := uuid.Parse(id)
	if err != nil {
		return models.Subject{}, fmt.Errorf("parse subject id: %w", err)
	}
	return models.Subject{
		ID:        subjID,
		Kind:      models.SubjectKind(kind),
		CreatedAt: microsToTime(createdAtMicro),
	}, nil
}

