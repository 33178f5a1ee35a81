package webdav

import (
	"fmt"
	"strings"
	"time"
)

// PropResult is one successfully computed property, pre-rendered as the
// inner XML element the multistatus body will embed verbatim.
type PropResult struct {
	Name PropName
	XML  string
}

// ResourceResponse is one <D:response> entry: an href plus the properties
// found (200 propstat) and requested-but-unknown (404 propstat).
type ResourceResponse struct {
	Href     string
	Found    []PropResult
	NotFound []PropName
}

// BuildMultiStatus renders a complete 207 Multi-Status body with explicit
// D:/card: namespace prefixes (spec.md §4.5).
func BuildMultiStatus(responses []ResourceResponse) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	b.WriteString("\n<D:multistatus xmlns:D=\"DAV:\" xmlns:card=\"urn:ietf:params:xml:ns:carddav\">\n")

	for _, r := range responses {
		b.WriteString("  <D:response>\n")
		b.WriteString("    <D:href>" + escapeXML(r.Href) + "</D:href>\n")

		if len(r.Found) > 0 {
			b.WriteString("    <D:propstat>\n      <D:prop>\n")
			for _, p := range r.Found {
				b.WriteString("        " + p.XML + "\n")
			}
			b.WriteString("      </D:prop>\n      <D:status>HTTP/1.1 200 OK</D:status>\n    </D:propstat>\n")
		}

		if len(r.NotFound) > 0 {
			b.WriteString("    <D:propstat>\n      <D:prop>\n")
			for _, n := range r.NotFound {
				b.WriteString("        " + emptyElement(n) + "\n")
			}
			b.WriteString("      </D:prop>\n      <D:status>HTTP/1.1 404 Not Found</D:status>\n    </D:propstat>\n")
		}

		b.WriteString("  </D:response>\n")
	}

	b.WriteString("</D:multistatus>\n")
	return b.String()
}

// emptyElement renders a bare, self-closing property name element for the
// 404 propstat, using the known D:/card: prefixes or, for Unknown names,
// an inline namespace declaration on the element itself.
func emptyElement(n PropName) string {
	switch n.Kind {
	case PropUnknown:
		return fmt.Sprintf(`<kith-unknown xmlns="%s" local-name=%q/>`, unknownNamespace(n.QualifiedName), unknownLocal(n.QualifiedName))
	case PropAddressbookHomeSet, PropAddressbookDescription, PropSupportedAddressData, PropAddressData:
		return "<card:" + string(n.Kind) + "/>"
	default:
		return "<D:" + string(n.Kind) + "/>"
	}
}

func unknownNamespace(qualified string) string {
	if !strings.HasPrefix(qualified, "{") {
		return ""
	}
	end := strings.IndexByte(qualified, '}')
	if end < 0 {
		return ""
	}
	return qualified[1:end]
}

func unknownLocal(qualified string) string {
	end := strings.IndexByte(qualified, '}')
	if end < 0 {
		return qualified
	}
	return qualified[end+1:]
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// Property constructors used by the CardDAV handlers to build Found
// entries without reaching into this package's XML rendering details.

func ResourceTypeProp(collection, addressbook bool) PropResult {
	inner := ""
	if collection {
		inner += "<D:collection/>"
	}
	if addressbook {
		inner += "<card:addressbook/>"
	}
	return PropResult{Name: PropName{Kind: PropResourceType}, XML: "<D:resourcetype>" + inner + "</D:resourcetype>"}
}

func DisplayNameProp(name string) PropResult {
	return PropResult{Name: PropName{Kind: PropDisplayName}, XML: "<D:displayname>" + escapeXML(name) + "</D:displayname>"}
}

func GetContentTypeProp(contentType string) PropResult {
	return PropResult{Name: PropName{Kind: PropGetContentType}, XML: "<D:getcontenttype>" + escapeXML(contentType) + "</D:getcontenttype>"}
}

func GetETagProp(etag string) PropResult {
	return PropResult{Name: PropName{Kind: PropGetETag}, XML: "<D:getetag>" + escapeXML(etag) + "</D:getetag>"}
}

func GetContentLengthProp(n int) PropResult {
	return PropResult{Name: PropName{Kind: PropGetContentLength}, XML: fmt.Sprintf("<D:getcontentlength>%d</D:getcontentlength>", n)}
}

func GetLastModifiedProp(t time.Time) PropResult {
	return PropResult{Name: PropName{Kind: PropGetLastModified}, XML: "<D:getlastmodified>" + t.UTC().Format(time.RFC1123) + "</D:getlastmodified>"}
}

func CurrentUserPrincipalProp(href string) PropResult {
	return PropResult{Name: PropName{Kind: PropCurrentUserPrincipal}, XML: "<D:current-user-principal><D:href>" + escapeXML(href) + "</D:href></D:current-user-principal>"}
}

func AddressbookHomeSetProp(href string) PropResult {
	return PropResult{Name: PropName{Kind: PropAddressbookHomeSet}, XML: "<card:addressbook-home-set><D:href>" + escapeXML(href) + "</D:href></card:addressbook-home-set>"}
}

func AddressbookDescriptionProp(text string) PropResult {
	return PropResult{Name: PropName{Kind: PropAddressbookDescription}, XML: "<card:addressbook-description>" + escapeXML(text) + "</card:addressbook-description>"}
}

func SupportedAddressDataProp() PropResult {
	inner := `<card:address-data-type content-type="text/vcard" version="3.0"/>` +
		`<card:address-data-type content-type="text/vcard" version="4.0"/>`
	return PropResult{Name: PropName{Kind: PropSupportedAddressData}, XML: "<card:supported-address-data>" + inner + "</card:supported-address-data>"}
}

func AddressDataProp(vcard string) PropResult {
	return PropResult{Name: PropName{Kind: PropAddressData}, XML: "<card:address-data>" + escapeXML(vcard) + "</card:address-data>"}
}
