package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLicense(t *testing.T) {
	lic := parsedSample(t)

	assert.Equal(t, "ef15e740-697f-11e3-949a-0800200c9a66", lic.ID)
	assert.Equal(t, "https://provider.example/lcp", lic.Provider)
	assert.Equal(t, "my pet's name", lic.Hint)
	assert.Equal(t, BasicProfile, lic.Profile)
	assert.NotEmpty(t, lic.KeyCheck)

	require.NotNil(t, lic.HintLink)
	assert.Equal(t, "https://provider.example/hint", lic.HintLink.Href)

	require.Len(t, lic.SupportLinks, 3)
	assert.Equal(t, "https://provider.example/support", lic.SupportLinks[0].Href)
	assert.Equal(t, "tel:+15550100", lic.SupportLinks[1].Href)
	assert.Equal(t, "Write to us", lic.SupportLinks[2].Title)
}

func TestParseLicenseWithoutLinks(t *testing.T) {
	lic, err := ParseLicense([]byte(`{"id":"abc","provider":"urn:x"}`))
	require.NoError(t, err)
	assert.Nil(t, lic.HintLink)
	assert.Empty(t, lic.SupportLinks)
}

func TestParseLicenseErrors(t *testing.T) {
	_, err := ParseLicense([]byte(`{"provider":"https://p.example"}`))
	assert.ErrorIs(t, err, ErrNoLicenseID)

	_, err = ParseLicense([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseLicense([]byte(`{"id":"a","links":[{"rel":7,"href":"x"}]}`))
	assert.Error(t, err)
}

func TestLoadLicense(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.lcpl")
	require.NoError(t, os.WriteFile(path, sampleLicense(t), 0600))

	lic, err := LoadLicense(path)
	require.NoError(t, err)
	assert.Equal(t, "ef15e740-697f-11e3-949a-0800200c9a66", lic.ID)

	_, err = LoadLicense(filepath.Join(t.TempDir(), "missing.lcpl"))
	assert.Error(t, err)
}
