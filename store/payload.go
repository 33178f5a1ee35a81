package store

import (
	"encoding/json"
	"fmt"

	"kith/models"
)

// encodeValue serializes a FactValue into its discriminant plus an opaque
// JSON payload. The store never interprets the payload beyond this file;
// everything else addresses facts by kind (spec §4.1).
func encodeValue(v models.FactValue) (models.FactKind, []byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", nil, fmt.Errorf("encode fact payload: %w", err)
	}
	return v.Kind(), payload, nil
}

// decodeValue is the exhaustive inverse of encodeValue. Adding a fact
// kind means adding a case here (spec §9).
func decodeValue(kind models.FactKind, payload []byte) (models.FactValue, error) {
	unmarshal := func(v interface{}) error { return json.Unmarshal(payload, v) }

	switch kind {
	case models.KindName:
		var v models.NameValue
		return v, unmarshal(&v)
	case models.KindAlias:
		var v models.AliasValue
		return v, unmarshal(&v)
	case models.KindPhoto:
		var v models.PhotoValue
		return v, unmarshal(&v)
	case models.KindBirthday:
		var v models.BirthdayValue
		return v, unmarshal(&v)
	case models.KindAnniversary:
		var v models.AnniversaryValue
		return v, unmarshal(&v)
	case models.KindGender:
		var v models.GenderValue
		return v, unmarshal(&v)
	case models.KindEmail:
		var v models.EmailValue
		return v, unmarshal(&v)
	case models.KindPhone:
		var v models.PhoneValue
		return v, unmarshal(&v)
	case models.KindAddress:
		var v models.AddressValue
		return v, unmarshal(&v)
	case models.KindURL:
		var v models.URLValue
		return v, unmarshal(&v)
	case models.KindIM:
		var v models.IMValue
		return v, unmarshal(&v)
	case models.KindSocial:
		var v models.SocialValue
		return v, unmarshal(&v)
	case models.KindRelationship:
		var v models.RelationshipValue
		return v, unmarshal(&v)
	case models.KindOrgMembership:
		var v models.OrgMembershipValue
		return v, unmarshal(&v)
	case models.KindGroupMembership:
		var v models.GroupMembershipValue
		return v, unmarshal(&v)
	case models.KindNote:
		var v models.NoteValue
		return v, unmarshal(&v)
	case models.KindMeeting:
		var v models.MeetingValue
		return v, unmarshal(&v)
	case models.KindIntroduction:
		var v models.IntroductionValue
		return v, unmarshal(&v)
	case models.KindCustom:
		var v models.CustomValue
		return v, unmarshal(&v)
	default:
		return nil, fmt.Errorf("unknown fact kind %q", kind)
	}
}

// encodeClaim/decodeClaim round-trip a *models.TemporalClaim through JSON;
// nil claims are stored as SQL NULL.
func encodeClaim(c *models.TemporalClaim) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	return json.Marshal(c)
}

func decodeClaim(b []byte) (*models.TemporalClaim, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var c models.TemporalClaim
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func encodeTags(tags []string) ([]byte, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	return json.Marshal(tags)
}

func decodeTags(b []byte) ([]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal(b, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
