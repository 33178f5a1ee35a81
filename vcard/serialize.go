package vcard

import (
	"fmt"
	"sort"
	"strings"

	"kith/models"
)

// param is one NAME=VALUE content-line parameter in emission order.
type param struct {
	key, value string
}

// Serialize renders a materialized ContactView as vCard text, version
// "3.0" or "4.0" (spec.md §4.2's serializer rules). Output uses CRLF line
// endings and folds any line over 75 octets.
func Serialize(view *models.ContactView, version string) (string, error) {
	if version != "3.0" && version != "4.0" {
		return "", newErr(UnsupportedVersion, 0, "version "+version)
	}

	var lines []string
	lines = append(lines, "BEGIN:VCARD")
	lines = append(lines, "VERSION:"+version)
	lines = append(lines, "UID:"+view.Subject.ID.String())
	lines = append(lines, "PRODID:-//Kith//Kith vCard//EN")
	lines = append(lines, "REV:"+view.AsOf.UTC().Format("20060102T150405Z"))

	if version == "4.0" {
		lines = append(lines, "KIND:"+kindToken(view.Subject.Kind))
	}

	var name *models.NameValue
	var orgs []models.OrgMembershipValue
	var rest []models.FactValue
	for _, rf := range view.ActiveFacts {
		switch v := rf.Value.(type) {
		case models.NameValue:
			nv := v
			name = &nv
		case models.OrgMembershipValue:
			orgs = append(orgs, v)
		default:
			rest = append(rest, rf.Value)
		}
	}

	lines = append(lines, serializeName(name)...)
	lines = append(lines, serializeOrgs(orgs)...)

	sort.SliceStable(rest, func(i, j int) bool { return rest[i].Kind() < rest[j].Kind() })
	for _, fv := range rest {
		ls, err := serializeFact(fv, version)
		if err != nil {
			return "", err
		}
		lines = append(lines, ls...)
	}

	lines = append(lines, "END:VCARD")

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(foldLine(l))
		b.WriteString("\r\n")
	}
	return b.String(), nil
}

func kindToken(k models.SubjectKind) string {
	switch k {
	case models.SubjectOrganization:
		return "org"
	case models.SubjectGroup:
		return "group"
	default:
		return "individual"
	}
}

func serializeName(n *models.NameValue) []string {
	full, family, given, additional, prefix, suffix := "", "", "", "", "", ""
	if n != nil {
		full = n.Full
		family = derefOr(n.Family, "")
		given = derefOr(n.Given, "")
		additional = derefOr(n.Additional, "")
		prefix = derefOr(n.Prefix, "")
		suffix = derefOr(n.Suffix, "")
	}
	return []string{
		"FN:" + escapeText(full),
		fmt.Sprintf("N:%s;%s;%s;%s;%s",
			escapeComponent(family), escapeComponent(given), escapeComponent(additional),
			escapeComponent(prefix), escapeComponent(suffix)),
	}
}

// serializeOrgs emits a single ungrouped ORG/TITLE/ROLE when there is one
// membership, or RFC 6350 group-prefixed ORGn.* lines when there are
// several (spec.md §4.2's multi-org grouping rule).
func serializeOrgs(orgs []models.OrgMembershipValue) []string {
	var lines []string
	grouped := len(orgs) > 1
	for i, o := range orgs {
		prefix := ""
		if grouped {
			prefix = fmt.Sprintf("ORG%d.", i+1)
		}
		lines = append(lines, prefix+"ORG:"+escapeText(o.OrgName))
		if o.Title != nil {
			lines = append(lines, prefix+"TITLE:"+escapeText(*o.Title))
		}
		if o.Role != nil {
			lines = append(lines, prefix+"ROLE:"+escapeText(*o.Role))
		}
	}
	return lines
}

func serializeFact(fv models.FactValue, version string) ([]string, error) {
	switch v := fv.(type) {
	case models.AliasValue:
		return []string{"NICKNAME:" + escapeText(v.Name)}, nil

	case models.PhotoValue:
		return nil, nil // Photo facts are not emitted; only photo_uri Custom facts become PHOTO lines

	case models.BirthdayValue:
		return []string{"BDAY:" + formatDate(v.Date)}, nil

	case models.AnniversaryValue:
		if version == "3.0" {
			return []string{"X-ANNIVERSARY:" + formatDate(v.Date)}, nil
		}
		return []string{"ANNIVERSARY:" + formatDate(v.Date)}, nil

	case models.GenderValue:
		if version == "3.0" {
			return nil, nil
		}
		return []string{"GENDER:" + escapeText(v.Value)}, nil

	case models.EmailValue:
		return []string{buildLine("EMAIL", emailPhoneParams(v.Label, v.Preference, "", version), escapeText(v.Address))}, nil

	case models.PhoneValue:
		return []string{buildLine("TEL", emailPhoneParams(v.Label, v.Preference, v.PhoneKind, version), escapeText(v.Number))}, nil

	case models.AddressValue:
		value := fmt.Sprintf(";;%s;%s;%s;%s;%s",
			escapeComponent(derefOr(v.Street, "")), escapeComponent(derefOr(v.Locality, "")),
			escapeComponent(derefOr(v.Region, "")), escapeComponent(derefOr(v.PostalCode, "")),
			escapeComponent(derefOr(v.Country, "")))
		return []string{buildLine("ADR", labelParams(v.Label), value)}, nil

	case models.URLValue:
		return []string{buildLine("URL", []param{{"TYPE", v.Context}}, escapeText(v.URL))}, nil

	case models.NoteValue:
		return []string{"NOTE:" + escapeText(v.Text)}, nil

	case models.IMValue:
		if version == "3.0" {
			if legacy, ok := reverseIM[v.Service]; ok {
				return []string{legacy + ":" + escapeText(v.Handle)}, nil
			}
			return []string{"X-" + strings.ToUpper(v.Service) + ":" + escapeText(v.Handle)}, nil
		}
		return []string{"IMPP:" + v.Service + ":" + escapeText(v.Handle)}, nil

	case models.SocialValue:
		return []string{buildLine("X-KITH-SOCIAL", []param{{"PLATFORM", v.Platform}}, escapeText(v.Handle))}, nil

	case models.RelationshipValue:
		params := []param{{"RELATION", v.Relation}}
		if v.OtherID != nil {
			params = append(params, param{"OTHER-ID", v.OtherID.String()})
		}
		return []string{buildLine("X-KITH-RELATION", params, escapeText(derefOr(v.OtherName, "")))}, nil

	case models.OrgMembershipValue:
		return nil, nil // flushed by serializeOrgs

	case models.GroupMembershipValue:
		var params []param
		if v.GroupID != nil {
			params = append(params, param{"GROUP-ID", v.GroupID.String()})
		}
		return []string{buildLine("X-KITH-GROUP", params, escapeText(v.GroupName))}, nil

	case models.MeetingValue:
		var params []param
		if v.Location != nil {
			params = append(params, param{"LOCATION", *v.Location})
		}
		return []string{buildLine("X-KITH-MEETING", params, escapeText(v.Summary))}, nil

	case models.IntroductionValue:
		return []string{"X-KITH-INTRODUCTION:" + escapeText(v.Text)}, nil

	case models.CustomValue:
		if v.Key == "photo_uri" {
			return []string{"PHOTO:" + v.Value}, nil
		}
		key := strings.ToUpper(v.Key)
		if !strings.HasPrefix(key, "X-") {
			key = "X-" + key
		}
		return []string{key + ":" + escapeText(v.Value)}, nil

	case models.NameValue:
		return nil, nil // flushed separately

	default:
		return nil, newErr(MalformedContentLine, 0, fmt.Sprintf("unhandled fact kind %q", fv.Kind()))
	}
}

var reverseIM = map[string]string{
	"aim":    "X-AIM",
	"jabber": "X-JABBER",
	"skype":  "X-SKYPE",
	"msn":    "X-MSN",
	"icq":    "X-ICQ",
	"yahoo":  "X-YAHOO",
}

func labelParams(l models.Label) []param {
	if l.Kind == models.LabelOther {
		return nil
	}
	return []param{{"TYPE", l.String()}}
}

// emailPhoneParams builds the TYPE list for EMAIL/TEL, folding PREF=1
// into a literal "PREF" TYPE token under 3.0 per spec.md §4.2.
func emailPhoneParams(l models.Label, preference int, phoneKind string, version string) []param {
	var types []string
	switch l.Kind {
	case models.LabelWork:
		types = append(types, "WORK")
	case models.LabelHome:
		types = append(types, "HOME")
	case models.LabelCustom:
		types = append(types, strings.ToUpper(l.Custom))
	}
	if phoneKind != "" && phoneKind != "voice" {
		types = append(types, strings.ToUpper(phoneKind))
	}

	var params []param
	if version == "3.0" {
		if preference == 1 {
			types = append(types, "PREF")
		}
		if len(types) > 0 {
			params = append(params, param{"TYPE", strings.Join(types, ",")})
		}
		return params
	}

	if len(types) > 0 {
		params = append(params, param{"TYPE", strings.Join(types, ",")})
	}
	if preference > 0 && preference < 255 {
		params = append(params, param{"PREF", fmt.Sprintf("%d", preference)})
	}
	return params
}

func buildLine(name string, params []param, value string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, p := range params {
		if p.value == "" {
			continue
		}
		b.WriteByte(';')
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(p.value)
	}
	b.WriteByte(':')
	b.WriteString(value)
	return b.String()
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}

// foldLine inserts CRLF + SP continuations so that no emitted line exceeds
// 75 octets, breaking only at UTF-8 character boundaries (spec.md §4.2,
// P8).
func foldLine(s string) string {
	const max = 75
	if len(s) <= max {
		return s
	}

	var b strings.Builder
	lineLen := 0
	for _, r := range s {
		rb := len(string(r))
		if lineLen+rb > max {
			b.WriteString("\r\n ")
			lineLen = 1 // the continuation's leading SP counts toward the next line's 75 octets
		}
		b.WriteRune(r)
		lineLen += rb
	}
	return b.String()
}
