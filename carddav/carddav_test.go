package carddav

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"kith/store"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, nil, "http://localhost:8083", "personal")
}

func doRequest(h *Handlers, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const aliceVCard = "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Alice Smith\r\nEMAIL:alice@example.com\r\nEND:VCARD\r\n"

// Scenario 1: OPTIONS discovery probe requires no auth and advertises the
// addressbook capability.
func TestScenario_OptionsDiscovery(t *testing.T) {
	h := newTestHandlers(t)
	rec := doRequest(h, http.MethodOptions, "/dav/", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Contains(t, rec.Header().Get("DAV"), "addressbook")
}

// Scenario 2: PUT-create with no If-Match creates the resource.
func TestScenario_PutCreate(t *testing.T) {
	h := newTestHandlers(t)
	id := "11111111-1111-1111-1111-111111111111"
	rec := doRequest(h, http.MethodPut, "/dav/addressbooks/personal/"+id+".vcf", aliceVCard, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, rec.Header().Get("ETag"))

	getRec := doRequest(h, http.MethodGet, "/dav/addressbooks/personal/"+id+".vcf", "", nil)
	require.Equal(t, http.StatusOK, getRec.Code)
	require.Contains(t, getRec.Body.String(), "Alice Smith")
}

// Scenario 3: update via PUT with a correct If-Match succeeds.
func TestScenario_PutUpdateWithMatchingIfMatch(t *testing.T) {
	h := newTestHandlers(t)
	id := "22222222-2222-2222-2222-222222222222"
	path := "/dav/addressbooks/personal/" + id + ".vcf"

	createRec := doRequest(h, http.MethodPut, path, aliceVCard, nil)
	require.Equal(t, http.StatusCreated, createRec.Code)
	etag := createRec.Header().Get("ETag")

	updated := "BEGIN:VCARD\r\nVERSION:4.0\r\nFN:Alice Jones\r\nEMAIL:alice@example.com\r\nEND:VCARD\r\n"
	updateRec := doRequest(h, http.MethodPut, path, updated, map[string]string{"If-Match": etag})
	require.Equal(t, http.StatusNoContent, updateRec.Code)

	getRec := doRequest(h, http.MethodGet, path, "", nil)
	require.Contains(t, getRec.Body.String(), "Alice Jones")
}

// Scenario 4: stale If-Match is rejected with 412.
func TestScenario_PutStaleIfMatchIsPreconditionFailed(t *testing.T) {
	h := newTestHandlers(t)
	id := "33333333-3333-3333-3333-333333333333"
	path := "/dav/addressbooks/personal/" + id + ".vcf"

	createRec := doRequest(h, http.MethodPut, path, aliceVCard, nil)
	require.Equal(t, http.StatusCreated, createRec.Code)

	updateRec := doRequest(h, http.MethodPut, path, aliceVCard, map[string]string{"If-Match": `"stale-etag"`})
	require.Equal(t, http.StatusPreconditionFailed, updateRec.Code)
}

// Scenario 5: DELETE retracts all active facts; GET and a second DELETE
// both then 404, since an all-retracted subject is indistinguishable from
// Absent.
func TestScenario_DeleteThenNotFound(t *testing.T) {
	h := newTestHandlers(t)
	id := "44444444-4444-4444-4444-444444444444"
	path := "/dav/addressbooks/personal/" + id + ".vcf"

	require.Equal(t, http.StatusCreated, doRequest(h, http.MethodPut, path, aliceVCard, nil).Code)

	delRec := doRequest(h, http.MethodDelete, path, "", nil)
	require.Equal(t, http.StatusNoContent, delRec.Code)

	getRec := doRequest(h, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusNotFound, getRec.Code)

	secondDelRec := doRequest(h, http.MethodDelete, path, "", nil)
	require.Equal(t, http.StatusNotFound, secondDelRec.Code)
}

// Scenario 6: PROPFIND Depth:1 on the collection lists zero resource
// responses when empty, then exactly one after a single successful PUT
// (plus the collection's own response).
func TestScenario_PropfindCollectionDepthOneListsResources(t *testing.T) {
	h := newTestHandlers(t)

	emptyRec := doRequest(h, "PROPFIND", "/dav/addressbooks/personal/", "", map[string]string{"Depth": "1"})
	require.Equal(t, http.StatusMultiStatus, emptyRec.Code)
	require.Equal(t, 1, strings.Count(emptyRec.Body.String(), "<D:response>"))

	id := "55555555-5555-5555-5555-555555555555"
	require.Equal(t, http.StatusCreated, doRequest(h, http.MethodPut, "/dav/addressbooks/personal/"+id+".vcf", aliceVCard, nil).Code)

	afterRec := doRequest(h, "PROPFIND", "/dav/addressbooks/personal/", "", map[string]string{"Depth": "1"})
	require.Equal(t, http.StatusMultiStatus, afterRec.Code)
	require.Equal(t, 2, strings.Count(afterRec.Body.String(), "<D:response>"))
}

// A malformed PUT body is rejected with a client error, never a panic or
// 500.
func TestScenario_PutMalformedVCardIsClientError(t *testing.T) {
	h := newTestHandlers(t)
	id := "66666666-6666-6666-6666-666666666666"
	rec := doRequest(h, http.MethodPut, "/dav/addressbooks/personal/"+id+".vcf", "not a vcard", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScenario_PutThenDeleteThenPutRecreates(t *testing.T) {
	h := newTestHandlers(t)
	id := "77777777-7777-7777-7777-777777777777"
	path := "/dav/addressbooks/personal/" + id + ".vcf"

	require.Equal(t, http.StatusCreated, doRequest(h, http.MethodPut, path, aliceVCard, nil).Code)
	require.Equal(t, http.StatusNoContent, doRequest(h, http.MethodDelete, path, "", nil).Code)
	require.Equal(t, http.StatusCreated, doRequest(h, http.MethodPut, path, aliceVCard, nil).Code)
}
