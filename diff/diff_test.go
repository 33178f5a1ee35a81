package diff

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"kith/models"
)

func resolvedEmail(addr string) models.ResolvedFact {
	return models.ResolvedFact{
		Fact: models.Fact{
			FactID: uuid.New(),
			Value:  models.EmailValue{Address: addr},
		},
		Status: models.Status{Kind: models.StatusActive},
	}
}

func TestDiff_NewSubjectProducesOnlyNewFacts(t *testing.T) {
	incoming := []models.NewFact{
		{Value: models.NameValue{Full: "Alice"}},
		{Value: models.EmailValue{Address: "alice@example.com"}},
	}

	result := Diff(incoming, nil)
	require.Len(t, result.NewFacts, 2)
	require.Empty(t, result.Supersessions)
	require.Empty(t, result.Retractions)
}

func TestDiff_IdenticalEmailIsNoOp(t *testing.T) {
	current := &models.ContactView{
		ActiveFacts: []models.ResolvedFact{resolvedEmail("alice@example.com")},
	}
	incoming := []models.NewFact{{Value: models.EmailValue{Address: "alice@example.com"}}}

	result := Diff(incoming, current)
	require.True(t, result.IsEmpty())
}

func TestDiff_ChangedEmailProducesSupersession(t *testing.T) {
	existing := resolvedEmail("alice@example.com")
	current := &models.ContactView{ActiveFacts: []models.ResolvedFact{existing}}
	incoming := []models.NewFact{{Value: models.EmailValue{Address: "alice@new.com"}}}

	result := Diff(incoming, current)
	require.Len(t, result.Supersessions, 1)
	require.Equal(t, existing.FactID, result.Supersessions[0].OldFactID)
	require.Empty(t, result.NewFacts)
	require.Empty(t, result.Retractions)
}

func TestDiff_MissingFromIncomingIsRetracted(t *testing.T) {
	existing := resolvedEmail("alice@example.com")
	current := &models.ContactView{ActiveFacts: []models.ResolvedFact{existing}}

	result := Diff(nil, current)
	require.Equal(t, []uuid.UUID{existing.FactID}, result.Retractions)
}

func TestDiff_EmailMatchIsCaseInsensitive(t *testing.T) {
	existing := resolvedEmail("Alice@Example.com")
	current := &models.ContactView{ActiveFacts: []models.ResolvedFact{existing}}
	incoming := []models.NewFact{{Value: models.EmailValue{Address: "alice@example.com"}}}

	result := Diff(incoming, current)
	require.True(t, result.IsEmpty())
}

func TestDiff_PhoneMatchStripsPunctuation(t *testing.T) {
	existing := models.ResolvedFact{
		Fact:   models.Fact{FactID: uuid.New(), Value: models.PhoneValue{Number: "555-123-4567"}},
		Status: models.Status{Kind: models.StatusActive},
	}
	current := &models.ContactView{ActiveFacts: []models.ResolvedFact{existing}}
	incoming := []models.NewFact{{Value: models.PhoneValue{Number: "5551234567"}}}

	result := Diff(incoming, current)
	require.True(t, result.IsEmpty())
}

func TestDiff_SingletonNameAlwaysMatchesExisting(t *testing.T) {
	existing := models.ResolvedFact{
		Fact:   models.Fact{FactID: uuid.New(), Value: models.NameValue{Full: "Old Name"}},
		Status: models.Status{Kind: models.StatusActive},
	}
	current := &models.ContactView{ActiveFacts: []models.ResolvedFact{existing}}
	incoming := []models.NewFact{{Value: models.NameValue{Full: "New Name"}}}

	result := Diff(incoming, current)
	require.Len(t, result.Supersessions, 1)
	require.Equal(t, existing.FactID, result.Supersessions[0].OldFactID)
}
