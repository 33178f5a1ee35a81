// Package webdav implements the generic WebDAV XML plumbing CardDAV rides
// on: PROPFIND request parsing and multistatus response building, scoped
// to the property set CardDAV actually uses (spec.md §4.5). It knows
// nothing about subjects, facts or the store.
package webdav

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// PropNameKind is the recognized subset of WebDAV/CardDAV property names.
type PropNameKind string

const (
	PropResourceType           PropNameKind = "resourcetype"
	PropDisplayName            PropNameKind = "displayname"
	PropGetContentType         PropNameKind = "getcontenttype"
	PropGetETag                PropNameKind = "getetag"
	PropGetContentLength       PropNameKind = "getcontentlength"
	PropGetLastModified        PropNameKind = "getlastmodified"
	PropCurrentUserPrincipal   PropNameKind = "current-user-principal"
	PropAddressbookHomeSet     PropNameKind = "addressbook-home-set"
	PropAddressbookDescription PropNameKind = "addressbook-description"
	PropSupportedAddressData   PropNameKind = "supported-address-data"
	PropAddressData            PropNameKind = "address-data"
	PropUnknown                PropNameKind = "unknown"
)

const (
	nsDAV     = "DAV:"
	nsCardDAV = "urn:ietf:params:xml:ns:carddav"
)

var knownProps = map[xml.Name]PropNameKind{
	{Space: nsDAV, Local: "resourcetype"}:             PropResourceType,
	{Space: nsDAV, Local: "displayname"}:               PropDisplayName,
	{Space: nsDAV, Local: "getcontenttype"}:             PropGetContentType,
	{Space: nsDAV, Local: "getetag"}:                    PropGetETag,
	{Space: nsDAV, Local: "getcontentlength"}:           PropGetContentLength,
	{Space: nsDAV, Local: "getlastmodified"}:            PropGetLastModified,
	{Space: nsDAV, Local: "current-user-principal"}:     PropCurrentUserPrincipal,
	{Space: nsCardDAV, Local: "addressbook-home-set"}:   PropAddressbookHomeSet,
	{Space: nsCardDAV, Local: "addressbook-description"}: PropAddressbookDescription,
	{Space: nsCardDAV, Local: "supported-address-data"}: PropSupportedAddressData,
	{Space: nsCardDAV, Local: "address-data"}:            PropAddressData,
}

// PropName is a single requested or reported property: one of the known
// kinds, or Unknown with its qualified name preserved for the 404
// propstat block.
type PropName struct {
	Kind          PropNameKind
	QualifiedName string // set only when Kind == PropUnknown
}

func (p PropName) String() string {
	if p.Kind == PropUnknown {
		return p.QualifiedName
	}
	return string(p.Kind)
}

// RequestKind distinguishes the three legal PROPFIND request bodies.
type RequestKind string

const (
	AllProp   RequestKind = "allprop"
	PropNames RequestKind = "propname"
	PropList  RequestKind = "prop"
)

// PropfindRequest is the parsed body of a PROPFIND request.
type PropfindRequest struct {
	Kind  RequestKind
	Props []PropName // populated only when Kind == PropList
}

type rawPropfind struct {
	XMLName  xml.Name  `xml:"DAV: propfind"`
	AllProp  *struct{} `xml:"DAV: allprop"`
	PropName *struct{} `xml:"DAV: propname"`
	Prop     *rawProp  `xml:"DAV: prop"`
}

type rawProp struct {
	Any []rawElement `xml:",any"`
}

type rawElement struct {
	XMLName xml.Name
}

// ParsePropfind parses a PROPFIND request body. An empty body is AllProp
// per spec.md §4.5.
func ParsePropfind(body []byte) (PropfindRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return PropfindRequest{Kind: AllProp}, nil
	}

	var raw rawPropfind
	if err := xml.Unmarshal(body, &raw); err != nil {
		return PropfindRequest{}, fmt.Errorf("webdav: malformed propfind body: %w", err)
	}

	switch {
	case raw.AllProp != nil:
		return PropfindRequest{Kind: AllProp}, nil
	case raw.PropName != nil:
		return PropfindRequest{Kind: PropNames}, nil
	case raw.Prop != nil:
		req := PropfindRequest{Kind: PropList}
		for _, el := range raw.Prop.Any {
			if kind, ok := knownProps[el.XMLName]; ok {
				req.Props = append(req.Props, PropName{Kind: kind})
			} else {
				req.Props = append(req.Props, PropName{
					Kind:          PropUnknown,
					QualifiedName: fmt.Sprintf("{%s}%s", el.XMLName.Space, el.XMLName.Local),
				})
			}
		}
		return req, nil
	default:
		return PropfindRequest{Kind: AllProp}, nil
	}
}
