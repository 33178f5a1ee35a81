package vcard

import (
	"strings"

	"github.com/google/uuid"

	"kith/models"
)

// ParsedVCard is the parser's output: the UID property if present, and the
// facts extracted from every other recognized property. Every fact's
// SubjectID is the zero UUID; the caller rewrites it before recording
// (spec.md §4.2).
type ParsedVCard struct {
	UID   *string
	Facts []models.NewFact
}

type nameAcc struct {
	seen       bool
	full       string
	hasFull    bool
	family     *string
	given      *string
	additional *string
	prefix     *string
	suffix     *string
	hasN       bool
}

type orgAcc struct {
	orgName string
	title   *string
	role    *string
}

// Parse runs the full unfold/envelope/content-line/mapping pipeline over
// raw vCard text. It never panics: every failure is a structured *Error
// (spec.md §4.2's totality requirement, P7).
func Parse(data []byte, sourceName string) (*ParsedVCard, error) {
	lines := unfold(data)

	beginAt, endAt := -1, -1
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.EqualFold(trimmed, "BEGIN:VCARD") && beginAt < 0 {
			beginAt = i
		}
		if strings.EqualFold(trimmed, "END:VCARD") {
			endAt = i
		}
	}
	if beginAt < 0 || endAt < 0 || endAt < beginAt {
		return nil, newErr(MissingEnvelope, 0, "no matching BEGIN:VCARD/END:VCARD pair")
	}

	body := lines[beginAt+1 : endAt]

	version := ""
	var uid *string
	var names nameAcc
	var orgs []*orgAcc
	var facts []models.FactValue

	for i, raw := range body {
		lineNo := beginAt + 2 + i
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		cl, err := parseContentLine(trimmed, lineNo)
		if err != nil {
			return nil, err
		}

		if cl.Name == "VERSION" {
			version = strings.TrimSpace(cl.Value)
			if version != "3.0" && version != "4.0" {
				return nil, newErr(UnsupportedVersion, lineNo, "version "+version)
			}
			continue
		}

		if cl.Name == "NICKNAME" {
			facts = append(facts, mapNickname(cl)...)
			continue
		}

		fv, isUID, uidVal, err := mapProperty(cl, version, &names, &orgs, lineNo)
		if err != nil {
			return nil, err
		}
		if isUID {
			uid = optionalString(uidVal)
			continue
		}
		if fv != nil {
			facts = append(facts, fv)
		}
	}

	if version == "" {
		return nil, newErr(UnsupportedVersion, 0, "no VERSION property")
	}

	if names.hasFull || names.hasN {
		nv := NameValue(names)
		facts = append(facts, nv)
	}
	for _, acc := range orgs {
		facts = append(facts, models.OrgMembershipValue{
			OrgName: acc.orgName,
			Title:   acc.title,
			Role:    acc.role,
		})
	}

	ctx := models.ImportedContext(sourceName, uid)
	out := &ParsedVCard{UID: uid}
	for _, fv := range facts {
		out.Facts = append(out.Facts, models.NewFact{
			SubjectID:  uuid.UUID{},
			Value:      fv,
			Source:     sourceName,
			Confidence: models.Certain,
			Context:    ctx,
		})
	}
	return out, nil
}

// NameValue builds the models.NameValue from the flushed FN/N accumulator.
func NameValue(n nameAcc) models.NameValue {
	return models.NameValue{
		Given:      n.given,
		Family:     n.family,
		Additional: n.additional,
		Prefix:     n.prefix,
		Suffix:     n.suffix,
		Full:       n.full,
	}
}

// mapProperty implements the authoritative property table of spec.md
// §4.2. It returns at most one FactValue; UID is signalled out-of-band
// since it isn't itself a fact.
func mapProperty(cl contentLine, version string, names *nameAcc, orgs *[]*orgAcc, lineNo int) (models.FactValue, bool, string, error) {
	value := cl.Value
	tokens := typeTokens(cl.Params)

	switch cl.Name {
	case "UID":
		return nil, true, unescapeText(value), nil

	case "FN":
		names.hasFull = true
		names.full = unescapeText(value)
		return nil, false, "", nil

	case "N":
		parts, err := splitComponents(value, 5)
		if err != nil {
			return nil, false, "", newErr(MalformedN, lineNo, err.Error())
		}
		names.hasN = true
		names.family = optionalString(parts[0])
		names.given = optionalString(parts[1])
		names.additional = optionalString(parts[2])
		names.prefix = optionalString(parts[3])
		names.suffix = optionalString(parts[4])
		return nil, false, "", nil

	case "TEL":
		return models.PhoneValue{
			Number:     unescapeText(value),
			Label:      parseLabel(tokens),
			PhoneKind:  parsePhoneKind(tokens),
			Preference: parsePreference(cl.Params, tokens),
		}, false, "", nil

	case "EMAIL":
		return models.EmailValue{
			Address:    unescapeText(value),
			Label:      parseLabel(tokens),
			Preference: parsePreference(cl.Params, tokens),
		}, false, "", nil

	case "ADR":
		parts, err := splitComponents(value, 7)
		if err != nil {
			return nil, false, "", newErr(MalformedAdr, lineNo, err.Error())
		}
		return models.AddressValue{
			Label:      parseLabel(tokens),
			Street:     optionalString(parts[2]),
			Locality:   optionalString(parts[3]),
			Region:     optionalString(parts[4]),
			PostalCode: optionalString(parts[5]),
			Country:    optionalString(parts[6]),
		}, false, "", nil

	case "URL":
		return models.URLValue{URL: unescapeText(value), Context: urlContext(cl.Params, value)}, false, "", nil

	case "BDAY":
		d, skip, err := parseDate(strings.TrimSpace(value))
		if err != nil {
			return nil, false, "", err
		}
		if skip {
			return nil, false, "", nil
		}
		return models.BirthdayValue{Date: d}, false, "", nil

	case "ANNIVERSARY":
		d, skip, err := parseDate(strings.TrimSpace(value))
		if err != nil {
			return nil, false, "", err
		}
		if skip {
			return nil, false, "", nil
		}
		return models.AnniversaryValue{Date: d}, false, "", nil

	case "X-ANNIVERSARY":
		d, skip, err := parseDate(strings.TrimSpace(value))
		if err != nil {
			return nil, false, "", err
		}
		if skip {
			return nil, false, "", nil
		}
		return models.AnniversaryValue{Date: d}, false, "", nil

	case "GENDER":
		if version != "4.0" {
			return nil, false, "", nil
		}
		first := strings.SplitN(value, ";", 2)[0]
		return models.GenderValue{Value: unescapeText(first)}, false, "", nil

	case "ORG":
		*orgs = append(*orgs, &orgAcc{orgName: unescapeText(strings.SplitN(value, ";", 2)[0])})
		return nil, false, "", nil

	case "TITLE":
		if len(*orgs) > 0 {
			(*orgs)[len(*orgs)-1].title = optionalString(unescapeText(value))
		}
		return nil, false, "", nil

	case "ROLE":
		if len(*orgs) > 0 {
			(*orgs)[len(*orgs)-1].role = optionalString(unescapeText(value))
		}
		return nil, false, "", nil

	case "NOTE":
		return models.NoteValue{Text: unescapeText(value)}, false, "", nil

	case "PHOTO":
		if _, embedded := firstParam(cl.Params, "ENCODING"); embedded {
			return nil, false, "", nil // embedded base64 photos dropped
		}
		if _, embedded := firstParam(cl.Params, "BASE64"); embedded {
			return nil, false, "", nil
		}
		return models.CustomValue{Key: "photo_uri", Value: value}, false, "", nil

	case "IMPP":
		idx := strings.IndexByte(value, ':')
		if idx < 0 {
			return nil, false, "", newErr(InvalidImppURI, lineNo, "missing scheme in "+value)
		}
		return models.IMValue{Service: value[:idx], Handle: unescapeText(value[idx+1:])}, false, "", nil

	case "X-AIM", "X-JABBER", "X-SKYPE", "X-MSN", "X-ICQ", "X-YAHOO":
		return models.IMValue{Service: imLegacyService[cl.Name], Handle: unescapeText(value)}, false, "", nil

	case "X-KITH-SOCIAL":
		platform, _ := firstParam(cl.Params, "PLATFORM")
		return models.SocialValue{Platform: platform, Handle: unescapeText(value)}, false, "", nil

	case "X-KITH-GROUP":
		gv := models.GroupMembershipValue{GroupName: unescapeText(value)}
		if raw, ok := firstParam(cl.Params, "GROUP-ID"); ok {
			if id, err := uuid.Parse(raw); err == nil {
				gv.GroupID = &id
			}
		}
		return gv, false, "", nil

	case "X-KITH-RELATION":
		rv := models.RelationshipValue{OtherName: optionalString(unescapeText(value))}
		if rel, ok := firstParam(cl.Params, "RELATION"); ok {
			rv.Relation = rel
		}
		if raw, ok := firstParam(cl.Params, "OTHER-ID"); ok {
			if id, err := uuid.Parse(raw); err == nil {
				rv.OtherID = &id
			}
		}
		return rv, false, "", nil

	case "X-KITH-MEETING":
		mv := models.MeetingValue{Summary: unescapeText(value)}
		if loc, ok := firstParam(cl.Params, "LOCATION"); ok {
			mv.Location = &loc
		}
		return mv, false, "", nil

	case "X-KITH-INTRODUCTION":
		return models.IntroductionValue{Text: unescapeText(value)}, false, "", nil

	case "PRODID", "REV", "KIND", "BEGIN", "END":
		return nil, false, "", nil

	default:
		if strings.HasPrefix(cl.Name, "X-") {
			return models.CustomValue{Key: strings.ToLower(cl.Name), Value: unescapeText(value)}, false, "", nil
		}
		return nil, false, "", nil // unknown IANA property: silently skipped
	}
}

func urlContext(params map[string][]string, value string) string {
	if t, ok := firstParam(params, "TYPE"); ok {
		return strings.ToLower(t)
	}
	lower := strings.ToLower(value)
	switch {
	case strings.Contains(lower, "linkedin.com"):
		return "linkedin"
	case strings.Contains(lower, "github.com"):
		return "github"
	case strings.Contains(lower, "twitter.com"), strings.Contains(lower, "x.com"):
		return "twitter"
	default:
		return "website"
	}
}

// mapNickname expands the NICKNAME property's comma-separated token list
// into one AliasValue per token, called separately from mapProperty
// because it's the only property that expands to several facts at once.
func mapNickname(cl contentLine) []models.FactValue {
	var out []models.FactValue
	for _, tok := range splitUnquoted(cl.Value, ',') {
		tok = unescapeText(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		out = append(out, models.AliasValue{Name: tok})
	}
	return out
}
