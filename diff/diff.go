// Package diff computes the minimal append-only operation sequence that
// reconverges a subject's stored projection with an incoming vCard
// (spec.md §4.4).
package diff

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"kith/models"
)

// SupersessionOp replaces OldFactID with Replacement.
type SupersessionOp struct {
	OldFactID   uuid.UUID
	Replacement models.NewFact
}

// Result is the minimal set of append operations that makes the store's
// projection for a subject equal to an incoming vCard's facts.
type Result struct {
	NewFacts      []models.NewFact
	Supersessions []SupersessionOp
	Retractions   []uuid.UUID
}

// IsEmpty reports whether applying r would change anything (P5's
// round-trip check).
func (r Result) IsEmpty() bool {
	return len(r.NewFacts) == 0 && len(r.Supersessions) == 0 && len(r.Retractions) == 0
}

// singletonKinds always match an existing Active fact of the same kind
// regardless of content, because the subject can have at most one.
var singletonKinds = map[models.FactKind]bool{
	models.KindName:        true,
	models.KindBirthday:    true,
	models.KindAnniversary: true,
	models.KindGender:      true,
}

// Diff matches incoming, newly parsed facts against current's Active
// facts (nil if the subject is new or currently empty) and returns the
// operations needed to reconcile them (spec.md §4.4).
func Diff(incoming []models.NewFact, current *models.ContactView) Result {
	byKind := make(map[models.FactKind][]models.ResolvedFact)
	if current != nil {
		for _, rf := range current.ActiveFacts {
			byKind[rf.Value.Kind()] = append(byKind[rf.Value.Kind()], rf)
		}
	}
	used := make(map[models.FactKind][]bool)
	for k, v := range byKind {
		used[k] = make([]bool, len(v))
	}

	var result Result

	for _, nf := range incoming {
		kind := nf.Value.Kind()
		bucket := byKind[kind]
		usedFlags := used[kind]

		matchIdx := -1
		if singletonKinds[kind] {
			for i := range bucket {
				if !usedFlags[i] {
					matchIdx = i
					break
				}
			}
		} else {
			key := matchKey(nf.Value, nf.EffectiveAt)
			for i, rf := range bucket {
				if usedFlags[i] {
					continue
				}
				if matchKey(rf.Value, rf.EffectiveAt) == key {
					matchIdx = i
					break
				}
			}
		}

		if matchIdx < 0 {
			result.NewFacts = append(result.NewFacts, nf)
			continue
		}
		usedFlags[matchIdx] = true

		if contentEqual(bucket[matchIdx].Value, nf.Value) {
			continue // no-op: identical content already active
		}
		result.Supersessions = append(result.Supersessions, SupersessionOp{
			OldFactID:   bucket[matchIdx].FactID,
			Replacement: nf,
		})
	}

	for kind, bucket := range byKind {
		usedFlags := used[kind]
		for i, rf := range bucket {
			if !usedFlags[i] {
				result.Retractions = append(result.Retractions, rf.FactID)
			}
		}
	}

	return result
}

// contentEqual reports whether two values matched by matchKey also carry
// identical content, so a match on the normalized key never gets promoted
// to a spurious Supersession just because the match fields themselves
// differ in case or punctuation (spec.md §4.4's no-op rule is defined
// relative to the same normalization matchKey uses). Fields outside the
// match key still compare verbatim.
func contentEqual(a, b models.FactValue) bool {
	return reflect.DeepEqual(normalizeForCompare(a), normalizeForCompare(b))
}

// normalizeForCompare canonicalizes exactly the fields matchKey
// normalizes, leaving every other field untouched.
func normalizeForCompare(fv models.FactValue) models.FactValue {
	switch v := fv.(type) {
	case models.EmailValue:
		v.Address = strings.ToLower(v.Address)
		return v
	case models.PhoneValue:
		v.Number = stripPhonePunctuation(v.Number)
		return v
	case models.AddressValue:
		v.Street = lowerStringPtr(v.Street)
		v.Locality = lowerStringPtr(v.Locality)
		v.PostalCode = lowerStringPtr(v.PostalCode)
		return v
	case models.OrgMembershipValue:
		v.OrgName = strings.ToLower(v.OrgName)
		return v
	default:
		return fv
	}
}

func lowerStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	l := strings.ToLower(*s)
	return &l
}

// matchKey computes the per-variant match key of spec.md §4.4's table.
// Singleton kinds never reach here; Diff short-circuits them above.
func matchKey(fv models.FactValue, effectiveAt *models.TemporalClaim) string {
	switch v := fv.(type) {
	case models.EmailValue:
		return strings.ToLower(v.Address)
	case models.PhoneValue:
		return stripPhonePunctuation(v.Number)
	case models.AddressValue:
		return strings.ToLower(derefOr(v.Street, "")) + "\x1f" +
			strings.ToLower(derefOr(v.Locality, "")) + "\x1f" +
			strings.ToLower(derefOr(v.PostalCode, ""))
	case models.OrgMembershipValue:
		return strings.ToLower(v.OrgName)
	case models.AliasValue:
		return v.Name
	case models.URLValue:
		return v.URL
	case models.IMValue:
		return v.Service + "\x1f" + v.Handle
	case models.SocialValue:
		return v.Platform + "\x1f" + v.Handle
	case models.NoteValue:
		return v.Text
	case models.IntroductionValue:
		return v.Text
	case models.GroupMembershipValue:
		if v.GroupID != nil {
			return v.GroupID.String()
		}
		return v.GroupName
	case models.RelationshipValue:
		other := ""
		if v.OtherID != nil {
			other = v.OtherID.String()
		}
		return v.Relation + "\x1f" + other
	case models.MeetingValue:
		return v.Summary + "\x1f" + claimKey(effectiveAt)
	case models.CustomValue:
		return v.Key
	default:
		return fmt.Sprintf("%v", v)
	}
}

func stripPhonePunctuation(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func claimKey(tc *models.TemporalClaim) string {
	if tc == nil {
		return ""
	}
	switch tc.Kind {
	case models.TemporalInstant:
		return tc.Instant.UTC().Format("20060102T150405Z")
	case models.TemporalDate:
		return tc.Date.String()
	default:
		return "unknown"
	}
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
