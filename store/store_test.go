package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"kith/kerr"
	"kith/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func uuidNew() uuid.UUID {
	return uuid.New()
}

func TestStore_AddSubjectAndGetSubject(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	subj, err := s.AddSubject(ctx, models.SubjectPerson)
	require.NoError(t, err)
	require.NotEqual(t, subj.ID.String(), "")

	got, err := s.GetSubject(ctx, subj.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, subj.ID, got.ID)
}

func TestStore_GetSubject_AbsentReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	got, err := s.GetSubject(ctx, uuidNew())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStore_RecordFact_AppearsAsActive(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	subj, err := s.AddSubject(ctx, models.SubjectPerson)
	require.NoError(t, err)

	fact, err := s.RecordFact(ctx, models.NewFact{
		SubjectID: subj.ID,
		Value:     models.NameValue{Full: "Alice"},
	})
	require.NoError(t, err)

	facts, err := s.GetFacts(ctx, subj.ID, nil, false)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	require.Equal(t, fact.FactID, facts[0].FactID)
	require.Equal(t, models.StatusActive, facts[0].Status.Kind)
}

func TestStore_RecordFact_UnknownSubjectFails(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.RecordFact(ctx, models.NewFact{
		SubjectID: uuidNew(),
		Value:     models.NameValue{Full: "Ghost"},
	})
	require.Error(t, err)
	var kerrErr *kerr.Error
	require.ErrorAs(t, err, &kerrErr)
	require.Equal(t, kerr.NotFound, kerrErr.Kind)
}

func TestStore_Supersede_MarksOldSupersededAndNewActive(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	subj, err := s.AddSubject(ctx, models.SubjectPerson)
	require.NoError(t, err)

	old, err := s.RecordFact(ctx, models.NewFact{SubjectID: subj.ID, Value: models.EmailValue{Address: "a@example.com"}})
	require.NoError(t, err)

	_, newFact, err := s.Supersede(ctx, old.FactID, models.NewFact{SubjectID: subj.ID, Value: models.EmailValue{Address: "b@example.com"}})
	require.NoError(t, err)

	all, err := s.GetFacts(ctx, subj.ID, nil, true)
	require.NoError(t, err)
	require.Len(t, all, 2)

	var oldStatus, newStatus models.Status
	for _, rf := range all {
		if rf.FactID == old.FactID {
			oldStatus = rf.Status
		}
		if rf.FactID == newFact.FactID {
			newStatus = rf.Status
		}
	}
	require.Equal(t, models.StatusSuperseded, oldStatus.Kind)
	require.Equal(t, newFact.FactID, oldStatus.SupersededBy)
	require.Equal(t, models.StatusActive, newStatus.Kind)
}

func TestStore_Supersede_AlreadyInactiveFails(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	subj, err := s.AddSubject(ctx, models.SubjectPerson)
	require.NoError(t, err)

	old, err := s.RecordFact(ctx, models.NewFact{SubjectID: subj.ID, Value: models.EmailValue{Address: "a@example.com"}})
	require.NoError(t, err)

	_, _, err = s.Supersede(ctx, old.FactID, models.NewFact{SubjectID: subj.ID, Value: models.EmailValue{Address: "b@example.com"}})
	require.NoError(t, err)

	// Superseding the now-inactive fact again must fail (a fact is
	// superseded at most once).
	_, _, err = s.Supersede(ctx, old.FactID, models.NewFact{SubjectID: subj.ID, Value: models.EmailValue{Address: "c@example.com"}})
	require.Error(t, err)
}

func TestStore_Retract_MarksRetracted(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	subj, err := s.AddSubject(ctx, models.SubjectPerson)
	require.NoError(t, err)

	fact, err := s.RecordFact(ctx, models.NewFact{SubjectID: subj.ID, Value: models.NoteValue{Text: "hi"}})
	require.NoError(t, err)

	reason := "no longer relevant"
	_, err = s.Retract(ctx, fact.FactID, &reason)
	require.NoError(t, err)

	facts, err := s.GetFacts(ctx, subj.ID, nil, false)
	require.NoError(t, err)
	require.Empty(t, facts)

	all, err := s.GetFacts(ctx, subj.ID, nil, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, models.StatusRetracted, all[0].Status.Kind)
	require.Equal(t, &reason, all[0].Status.RetractedReason)
}

func TestStore_Retract_CannotRetractTwice(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	subj, err := s.AddSubject(ctx, models.SubjectPerson)
	require.NoError(t, err)
	fact, err := s.RecordFact(ctx, models.NewFact{SubjectID: subj.ID, Value: models.NoteValue{Text: "hi"}})
	require.NoError(t, err)

	_, err = s.Retract(ctx, fact.FactID, nil)
	require.NoError(t, err)

	_, err = s.Retract(ctx, fact.FactID, nil)
	require.Error(t, err)
}

func TestStore_Materialize_PointInTime(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	subj, err := s.AddSubject(ctx, models.SubjectPerson)
	require.NoError(t, err)

	fact, err := s.RecordFact(ctx, models.NewFact{SubjectID: subj.ID, Value: models.NoteValue{Text: "v1"}})
	require.NoError(t, err)

	beforeRetraction := fact.RecordedAt.Add(1)

	_, err = s.Retract(ctx, fact.FactID, nil)
	require.NoError(t, err)

	// As-of before the retraction, the fact must still read Active.
	view, err := s.Materialize(ctx, subj.ID, &beforeRetraction)
	require.NoError(t, err)
	require.NotNil(t, view)
	require.Len(t, view.ActiveFacts, 1)

	// As-of now, it must be gone.
	view, err = s.Materialize(ctx, subj.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, view)
	require.Empty(t, view.ActiveFacts)
}

func TestStore_Materialize_AbsentSubjectReturnsNil(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	view, err := s.Materialize(ctx, uuidNew(), nil)
	require.NoError(t, err)
	require.Nil(t, view)
}

func TestStore_AddSubjectWithID_UsesCallerID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id := uuidNew()
	subj, err := s.AddSubjectWithID(ctx, id, models.SubjectPerson)
	require.NoError(t, err)
	require.Equal(t, id, subj.ID)

	got, err := s.GetSubject(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, id, got.ID)
}

func TestStore_ListSubjects_FiltersByKind(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, err := s.AddSubject(ctx, models.SubjectPerson)
	require.NoError(t, err)
	_, err = s.AddSubject(ctx, models.SubjectOrganization)
	require.NoError(t, err)

	person := models.SubjectPerson
	subjects, err := s.ListSubjects(ctx, &person)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	require.Equal(t, models.SubjectPerson, subjects[0].Kind)
}
