package vcard

import (
	"strconv"
	"strings"

	"kith/models"
)

var phoneKindTokens = map[string]string{
	"CELL":   "cell",
	"MOBILE": "cell",
	"FAX":    "fax",
	"PAGER":  "pager",
	"VOICE":  "voice",
	"TEXT":   "text",
	"VIDEO":  "video",
}

// typeTokens gathers every TYPE parameter value, upper-cased, from both
// vCard 3.0's comma-listed form and repeated-parameter form.
func typeTokens(params map[string][]string) []string {
	var out []string
	for _, v := range params["TYPE"] {
		out = append(out, strings.ToUpper(v))
	}
	return out
}

// parseLabel folds TYPE tokens into Kith's fixed label vocabulary, falling
// back to Custom for anything that isn't a recognized kind/label word.
func parseLabel(tokens []string) models.Label {
	for _, t := range tokens {
		switch t {
		case "WORK":
			return models.Label{Kind: models.LabelWork}
		case "HOME":
			return models.Label{Kind: models.LabelHome}
		}
	}
	for _, t := range tokens {
		if _, known := phoneKindTokens[t]; known || t == "PREF" || t == "OTHER" {
			continue
		}
		return models.Label{Kind: models.LabelCustom, Custom: strings.ToLower(t)}
	}
	return models.Label{Kind: models.LabelOther}
}

// parsePhoneKind derives TEL's kind sub-tag from TYPE tokens, defaulting to
// "voice" when nothing more specific is present.
func parsePhoneKind(tokens []string) string {
	for _, t := range tokens {
		if kind, ok := phoneKindTokens[t]; ok {
			return kind
		}
	}
	return "voice"
}

// parsePreference reads PREF as a parameter (4.0) or infers PREF=1 from a
// legacy TYPE=PREF token (3.0). Unspecified is 255, the least-preferred.
func parsePreference(params map[string][]string, tokens []string) int {
	if v, ok := firstParam(params, "PREF"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	for _, t := range tokens {
		if t == "PREF" {
			return 1
		}
	}
	return 255
}

var imLegacyService = map[string]string{
	"X-AIM":    "aim",
	"X-JABBER": "jabber",
	"X-SKYPE":  "skype",
	"X-MSN":    "msn",
	"X-ICQ":    "icq",
	"X-YAHOO":  "yahoo",
}
