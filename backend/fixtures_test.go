package backend

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/njyeung/lcpunlock/auth"
)

const testPassphrase = "correct horse"

// sampleLicense returns a license document whose key check opens with
// testPassphrase
func sampleLicense(t *testing.T) []byte {
	t.Helper()
	keyCheck, err := SealKeyCheck("ef15e740-697f-11e3-949a-0800200c9a66", UserKey(testPassphrase))
	require.NoError(t, err)

	doc := map[string]any{
		"id":       "ef15e740-697f-11e3-949a-0800200c9a66",
		"issued":   "2026-01-02T10:00:00Z",
		"provider": "https://provider.example/lcp",
		"encryption": map[string]any{
			"profile": BasicProfile,
			"user_key": map[string]any{
				"text_hint": "my pet's name",
				"algorithm": "http://www.w3.org/2001/04/xmlenc#sha256",
				"key_check": keyCheck,
			},
		},
		"links": []map[string]any{
			{"rel": "hint", "href": "https://provider.example/hint"},
			{"rel": "publication", "href": "https://provider.example/book.epub", "type": "application/epub+zip"},
			{"rel": []string{"support", "alternate"}, "href": "https://provider.example/support"},
			{"rel": "support", "href": "tel:+15550100"},
			{"rel": "support", "href": "mailto:help@provider.example", "title": "Write to us"},
		},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func parsedSample(t *testing.T) *auth.License {
	t.Helper()
	lic, err := ParseLicense(sampleLicense(t))
	require.NoError(t, err)
	return lic
}
