package carddav

import (
	"net/http"

	"go.uber.org/zap"

	"kith/kerr"
	"kith/store"
)

// Handlers serves the CardDAV URL space over a single store and a single
// configured addressbook name (spec.md §4.6: "single addressbook
// 'personal'" in the reference deployment, kept configurable here).
type Handlers struct {
	Store       *store.Store
	Logger      *zap.Logger
	BaseURL     string
	Addressbook string
}

func New(st *store.Store, logger *zap.Logger, baseURL, addressbook string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{Store: st, Logger: logger, BaseURL: baseURL, Addressbook: addressbook}
}

// ServeHTTP dispatches by HTTP method; path interpretation is delegated
// to each handler since PROPFIND's behavior depends on which of the four
// URL shapes it targets.
func (h *Handlers) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		h.handleOptions(w, r)
	case "PROPFIND":
		h.handlePropfind(w, r)
	case http.MethodGet:
		h.handleGet(w, r, false)
	case http.MethodHead:
		h.handleGet(w, r, true)
	case http.MethodPut:
		h.handlePut(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "OPTIONS, GET, HEAD, PUT, DELETE, PROPFIND, REPORT")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleOptions never requires auth: it's the client discovery probe
// (spec.md §4.6).
func (h *Handlers) handleOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "OPTIONS, GET, HEAD, PUT, DELETE, PROPFIND, REPORT")
	w.Header().Set("DAV", "1, 3, addressbook")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) principalHref() string       { return h.BaseURL + "/dav/" }
func (h *Handlers) homeSetHref() string         { return h.BaseURL + "/dav/addressbooks/" }
func (h *Handlers) collectionHref(ab string) string {
	return h.BaseURL + "/dav/addressbooks/" + ab + "/"
}
func (h *Handlers) resourceHref(ab, id string) string {
	return h.collectionHref(ab) + id + ".vcf"
}

// writeError maps a kerr.Kind to the HTTP status spec.md §7 assigns it,
// logging the cause before the response is serialized.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch kerr.KindOf(err) {
	case kerr.ClientInput:
		status = http.StatusBadRequest
	case kerr.Precondition:
		status = http.StatusPreconditionFailed
	case kerr.Auth:
		status = http.StatusUnauthorized
	case kerr.NotFound:
		status = http.StatusNotFound
	case kerr.Invariant:
		status = http.StatusConflict
	case kerr.Internal:
		status = http.StatusInternalServerError
	}

	h.Logger.Error("carddav request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err))

	http.Error(w, http.StatusText(status), status)
}
