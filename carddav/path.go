// Package carddav implements the CardDAV URL space and HTTP method
// semantics of spec.md §4.6: a single addressbook, backed by the store,
// vcard codec, diff pipeline and etag packages. It depends on none of
// cmd/kithd's routing-framework or auth-header-decoding machinery —
// those are external collaborators per spec.md §1.
package carddav

import (
	"strings"

	"github.com/google/uuid"
)

type pathKind int

const (
	pathUnknown pathKind = iota
	pathPrincipal
	pathHomeSet
	pathCollection
	pathResource
)

// resourcePath is the parsed form of one of the four URL shapes:
//
//	/dav/                                   principal
//	/dav/addressbooks/                      home set
//	/dav/addressbooks/{ab}/                 collection
//	/dav/addressbooks/{ab}/{uuid}.vcf       resource
type resourcePath struct {
	Kind        pathKind
	Addressbook string
	SubjectID   uuid.UUID
}

func parsePath(urlPath string) resourcePath {
	trimmed := strings.Trim(urlPath, "/")
	segments := []string{}
	if trimmed != "" {
		segments = strings.Split(trimmed, "/")
	}

	if len(segments) == 0 || segments[0] != "dav" {
		return resourcePath{Kind: pathUnknown}
	}
	rest := segments[1:]

	switch len(rest) {
	case 0:
		return resourcePath{Kind: pathPrincipal}
	case 1:
		if rest[0] != "addressbooks" {
			return resourcePath{Kind: pathUnknown}
		}
		return resourcePath{Kind: pathHomeSet}
	case 2:
		if rest[0] != "addressbooks" {
			return resourcePath{Kind: pathUnknown}
		}
		return resourcePath{Kind: pathCollection, Addressbook: rest[1]}
	case 3:
		if rest[0] != "addressbooks" {
			return resourcePath{Kind: pathUnknown}
		}
		name := rest[2]
		if !strings.HasSuffix(name, ".vcf") {
			return resourcePath{Kind: pathUnknown}
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, ".vcf"))
		if err != nil {
			return resourcePath{Kind: pathUnknown}
		}
		return resourcePath{Kind: pathResource, Addressbook: rest[1], SubjectID: id}
	default:
		return resourcePath{Kind: pathUnknown}
	}
}
