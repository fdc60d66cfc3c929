package tui

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/backend"
)

const testPassphrase = "correct horse"

type fakeOpener struct {
	opened []string
	err    error
}

func (o *fakeOpener) CanOpen(u *url.URL) bool { return u.Scheme != "" }

func (o *fakeOpener) Open(u *url.URL) error {
	o.opened = append(o.opened, u.String())
	return o.err
}

type fakeBrowser struct {
	shown []string
}

func (b *fakeBrowser) OpenInBrowser(u *url.URL) error {
	b.shown = append(b.shown, u.String())
	return nil
}

func testLicense(t *testing.T) *auth.License {
	t.Helper()
	const id = "ef15e740-697f-11e3-949a-0800200c9a66"
	keyCheck, err := backend.SealKeyCheck(id, backend.UserKey(testPassphrase))
	require.NoError(t, err)
	return &auth.License{
		ID:       id,
		Provider: "https://provider.example/lcp",
		Hint:     "my pet's name",
		HintLink: &auth.Link{Href: "https://provider.example/hint"},
		SupportLinks: []auth.Link{
			{Href: "https://provider.example/support"},
			{Href: "tel:+15550100"},
		},
		KeyCheck: keyCheck,
		Profile:  backend.BasicProfile,
	}
}
