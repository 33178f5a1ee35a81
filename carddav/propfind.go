package carddav

import (
	"io"
	"net/http"

	"kith/etag"
	"kith/kerr"
	"kith/models"
	"kith/vcard"
	"kith/webdav"
)

func (h *Handlers) handlePropfind(w http.ResponseWriter, r *http.Request) {
	depth := r.Header.Get("Depth")
	if depth == "infinity" {
		http.Error(w, "Depth: infinity is not supported", http.StatusForbidden)
		return
	}
	if depth == "" {
		depth = "0"
	}

	body, err := readLimitedBody(r)
	if err != nil {
		h.writeError(w, r, kerr.Wrap(kerr.ClientInput, "read propfind body", err))
		return
	}
	req, err := webdav.ParsePropfind(body)
	if err != nil {
		h.writeError(w, r, kerr.Wrap(kerr.ClientInput, "parse propfind body", err))
		return
	}

	path := parsePath(r.URL.Path)
	var responses []webdav.ResourceResponse

	switch path.Kind {
	case pathPrincipal:
		responses = []webdav.ResourceResponse{h.principalResponse(req)}

	case pathHomeSet:
		responses = []webdav.ResourceResponse{h.homeSetResponse(req)}

	case pathCollection:
		responses = append(responses, h.collectionResponse(req, path.Addressbook))
		if depth == "1" {
			ctx := r.Context()
			personKind := models.SubjectPerson
			subjects, err := h.Store.ListSubjects(ctx, &personKind)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			for _, subj := range subjects {
				view, err := h.Store.Materialize(ctx, subj.ID, nil)
				if err != nil {
					h.writeError(w, r, err)
					return
				}
				if view == nil || len(view.ActiveFacts) == 0 {
					continue
				}
				responses = append(responses, h.resourceResponse(req, path.Addressbook, view))
			}
		}

	case pathResource:
		ctx := r.Context()
		view, err := h.Store.Materialize(ctx, path.SubjectID, nil)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if view == nil || len(view.ActiveFacts) == 0 {
			http.NotFound(w, r)
			return
		}
		responses = []webdav.ResourceResponse{h.resourceResponse(req, path.Addressbook, view)}

	default:
		http.NotFound(w, r)
		return
	}

	body2 := webdav.BuildMultiStatus(responses)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusMultiStatus)
	_, _ = w.Write([]byte(body2))
}

func (h *Handlers) principalResponse(req webdav.PropfindRequest) webdav.ResourceResponse {
	all := []webdav.PropResult{
		webdav.DisplayNameProp("kith"),
		webdav.CurrentUserPrincipalProp(h.principalHref()),
		webdav.AddressbookHomeSetProp(h.homeSetHref()),
	}
	return selectProps(h.principalHref(), req, all)
}

func (h *Handlers) homeSetResponse(req webdav.PropfindRequest) webdav.ResourceResponse {
	all := []webdav.PropResult{
		webdav.DisplayNameProp("addressbooks"),
		webdav.ResourceTypeProp(true, false),
	}
	return selectProps(h.homeSetHref(), req, all)
}

func (h *Handlers) collectionResponse(req webdav.PropfindRequest, ab string) webdav.ResourceResponse {
	all := []webdav.PropResult{
		webdav.ResourceTypeProp(true, true),
		webdav.DisplayNameProp(ab),
		webdav.SupportedAddressDataProp(),
		webdav.AddressbookDescriptionProp("Kith personal contacts"),
	}
	return selectProps(h.collectionHref(ab), req, all)
}

func (h *Handlers) resourceResponse(req webdav.PropfindRequest, ab string, view *models.ContactView) webdav.ResourceResponse {
	vc, err := vcard.Serialize(view, "4.0")
	if err != nil {
		vc = ""
	}
	et := etag.ComputeView(view)

	all := []webdav.PropResult{
		webdav.GetContentTypeProp("text/vcard; charset=utf-8"),
		webdav.GetETagProp(et),
		webdav.GetContentLengthProp(len(vc)),
		webdav.GetLastModifiedProp(view.AsOf),
	}
	return selectProps(h.resourceHref(ab, view.Subject.ID.String()), req, all)
}

// selectProps splits the fully computed property set into the Found/
// NotFound buckets a PropList request actually asked for. AllProp and
// PropNames both return everything computed, values included: a PROPNAME
// response is not reduced to bare property names.
func selectProps(href string, req webdav.PropfindRequest, all []webdav.PropResult) webdav.ResourceResponse {
	if req.Kind != webdav.PropList {
		return webdav.ResourceResponse{Href: href, Found: all}
	}

	computed := make(map[string]webdav.PropResult, len(all))
	for _, p := range all {
		computed[string(p.Name.Kind)] = p
	}

	resp := webdav.ResourceResponse{Href: href}
	for _, want := range req.Props {
		if want.Kind == webdav.PropUnknown {
			resp.NotFound = append(resp.NotFound, want)
			continue
		}
		if p, ok := computed[string(want.Kind)]; ok {
			resp.Found = append(resp.Found, p)
		} else {
			resp.NotFound = append(resp.NotFound, want)
		}
	}
	return resp
}

func readLimitedBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, 1<<20))
}
