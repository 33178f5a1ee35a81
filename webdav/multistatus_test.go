package webdav

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMultiStatus_WellFormedXML(t *testing.T) {
	responses := []ResourceResponse{
		{
			Href:  "/dav/addressbooks/personal/",
			Found: []PropResult{ResourceTypeProp(true, true), GetETagProp(`"abc123"`)},
		},
	}
	out := BuildMultiStatus(responses)

	var doc struct {
		XMLName xml.Name `xml:"multistatus"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &doc))
	require.Contains(t, out, "/dav/addressbooks/personal/")
	require.Contains(t, out, "200 OK")
}

func TestBuildMultiStatus_NotFoundPropstat(t *testing.T) {
	responses := []ResourceResponse{
		{
			Href:     "/dav/addressbooks/personal/x.vcf",
			Found:    []PropResult{GetETagProp(`"etag"`)},
			NotFound: []PropName{{Kind: PropUnknown, QualifiedName: "{urn:example:custom}foo-bar"}},
		},
	}
	out := BuildMultiStatus(responses)
	require.Contains(t, out, "404 Not Found")
	require.Contains(t, out, "foo-bar")
}

func TestBuildMultiStatus_EscapesHref(t *testing.T) {
	responses := []ResourceResponse{{Href: "/dav/a&b", Found: []PropResult{GetETagProp("x")}}}
	out := BuildMultiStatus(responses)
	require.Contains(t, out, "/dav/a&amp;b")
	require.NotContains(t, out, "/dav/a&b<")
}

func TestBuildMultiStatus_MultipleResponses(t *testing.T) {
	responses := []ResourceResponse{
		{Href: "/dav/addressbooks/personal/", Found: []PropResult{GetETagProp("x")}},
		{Href: "/dav/addressbooks/personal/1.vcf", Found: []PropResult{GetETagProp("y")}},
	}
	out := BuildMultiStatus(responses)
	require.Equal(t, 2, countSubstr(out, "<D:response>"))
}

func countSubstr(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
