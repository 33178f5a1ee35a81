package vcard

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"kith/models"
)

func testView() *models.ContactView {
	subjID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	fullName := "Alice Smith"
	return &models.ContactView{
		Subject: models.Subject{ID: subjID, Kind: models.SubjectPerson, CreatedAt: time.Unix(0, 0).UTC()},
		AsOf:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ActiveFacts: []models.ResolvedFact{
			{
				Fact: models.Fact{
					FactID: uuid.New(),
					Value:  models.NameValue{Full: fullName},
				},
				Status: models.Status{Kind: models.StatusActive},
			},
			{
				Fact: models.Fact{
					FactID: uuid.New(),
					Value:  models.EmailValue{Address: "alice@example.com", Label: models.Label{Kind: models.LabelWork}},
				},
				Status: models.Status{Kind: models.StatusActive},
			},
		},
	}
}

func TestSerialize_EnvelopeAndFacts(t *testing.T) {
	out, err := Serialize(testView(), "4.0")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "BEGIN:VCARD\r\n"))
	require.Contains(t, out, "VERSION:4.0\r\n")
	require.Contains(t, out, "UID:11111111-1111-1111-1111-111111111111\r\n")
	require.Contains(t, out, "FN:Alice Smith\r\n")
	require.Contains(t, out, "EMAIL;TYPE=WORK:alice@example.com\r\n")
	require.True(t, strings.HasSuffix(out, "END:VCARD\r\n"))
}

func TestSerialize_FoldsLongLines(t *testing.T) {
	view := testView()
	view.ActiveFacts = append(view.ActiveFacts, models.ResolvedFact{
		Fact: models.Fact{
			FactID: uuid.New(),
			Value:  models.NoteValue{Text: strings.Repeat("a", 200)},
		},
		Status: models.Status{Kind: models.StatusActive},
	})

	out, err := Serialize(view, "4.0")
	require.NoError(t, err)
	for _, line := range strings.Split(out, "\r\n") {
		require.LessOrEqual(t, len(line), 75)
	}
}

func TestSerialize_ThreeDotOhOmitsGenderAndKind(t *testing.T) {
	view := testView()
	view.ActiveFacts = append(view.ActiveFacts, models.ResolvedFact{
		Fact:   models.Fact{FactID: uuid.New(), Value: models.GenderValue{Value: "F"}},
		Status: models.Status{Kind: models.StatusActive},
	})

	out, err := Serialize(view, "3.0")
	require.NoError(t, err)
	require.NotContains(t, out, "GENDER:")
	require.NotContains(t, out, "KIND:")
}

func TestRoundTrip_UnchangedFactSet(t *testing.T) {
	view := testView()
	out, err := Serialize(view, "4.0")
	require.NoError(t, err)

	parsed, err := Parse([]byte(out), "roundtrip")
	require.NoError(t, err)

	var gotEmail, gotName bool
	for _, f := range parsed.Facts {
		switch v := f.Value.(type) {
		case models.EmailValue:
			require.Equal(t, "alice@example.com", v.Address)
			gotEmail = true
		case models.NameValue:
			require.Equal(t, "Alice Smith", v.Full)
			gotName = true
		}
	}
	require.True(t, gotEmail)
	require.True(t, gotName)
}
