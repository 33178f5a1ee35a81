package webdav

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePropfind_EmptyBodyIsAllProp(t *testing.T) {
	req, err := ParsePropfind(nil)
	require.NoError(t, err)
	require.Equal(t, AllProp, req.Kind)
}

func TestParsePropfind_AllPropElement(t *testing.T) {
	body := []byte(`<propfind xmlns="DAV:"><allprop/></propfind>`)
	req, err := ParsePropfind(body)
	require.NoError(t, err)
	require.Equal(t, AllProp, req.Kind)
}

func TestParsePropfind_PropName(t *testing.T) {
	body := []byte(`<propfind xmlns="DAV:"><propname/></propfind>`)
	req, err := ParsePropfind(body)
	require.NoError(t, err)
	require.Equal(t, PropNames, req.Kind)
}

func TestParsePropfind_KnownAndUnknownProps(t *testing.T) {
	body := []byte(`<propfind xmlns="DAV:">
		<prop>
			<getetag/>
			<displayname/>
			<resourcetype/>
			<foo-bar xmlns="urn:example:custom"/>
		</prop>
	</propfind>`)

	req, err := ParsePropfind(body)
	require.NoError(t, err)
	require.Equal(t, PropList, req.Kind)
	require.Len(t, req.Props, 4)

	var kinds []PropNameKind
	var sawUnknown bool
	for _, p := range req.Props {
		kinds = append(kinds, p.Kind)
		if p.Kind == PropUnknown {
			sawUnknown = true
			require.Equal(t, "{urn:example:custom}foo-bar", p.QualifiedName)
		}
	}
	require.Contains(t, kinds, PropGetETag)
	require.Contains(t, kinds, PropDisplayName)
	require.Contains(t, kinds, PropResourceType)
	require.True(t, sawUnknown)
}

func TestParsePropfind_CardDAVNamespacedProp(t *testing.T) {
	body := []byte(`<propfind xmlns="DAV:" xmlns:card="urn:ietf:params:xml:ns:carddav">
		<prop><card:address-data/></prop>
	</propfind>`)

	req, err := ParsePropfind(body)
	require.NoError(t, err)
	require.Len(t, req.Props, 1)
	require.Equal(t, PropAddressData, req.Props[0].Kind)
}

func TestParsePropfind_MalformedBodyErrors(t *testing.T) {
	_, err := ParsePropfind([]byte("<not-xml"))
	require.Error(t, err)
}
