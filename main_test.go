package main

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njyeung/lcpunlock/auth"
	"github.com/njyeung/lcpunlock/backend"
)

type recordingOpener struct {
	opened []string
	err    error
}

func (o *recordingOpener) CanOpen(u *url.URL) bool { return u.Scheme != "ftp" }

func (o *recordingOpener) Open(u *url.URL) error {
	o.opened = append(o.opened, u.String())
	return o.err
}

func supportLicense(links ...auth.Link) *auth.License {
	return &auth.License{
		ID:           "lic-1",
		Provider:     "https://provider.example/lcp",
		Hint:         "my pet's name",
		HintLink:     &auth.Link{Href: "https://provider.example/hint"},
		SupportLinks: links,
	}
}

func TestPrintInfo(t *testing.T) {
	var out bytes.Buffer
	lic := supportLicense(
		auth.Link{Href: "https://provider.example/support"},
		auth.Link{Href: "ftp://provider.example/files"},
		auth.Link{Href: "mailto:help@provider.example", Title: "Help desk"},
	)

	printInfo(&out, lic, &recordingOpener{})

	s := out.String()
	assert.Contains(t, s, "Provider: provider.example")
	assert.Contains(t, s, "Hint:     my pet's name")
	assert.Contains(t, s, "Website")
	assert.Contains(t, s, "Help desk")
	assert.NotContains(t, s, "ftp://")
}

func TestPrintInfoNoSupport(t *testing.T) {
	var out bytes.Buffer
	printInfo(&out, supportLicense(), &recordingOpener{})
	assert.Contains(t, out.String(), "Support:  none")
}

func TestRunSupportSingleLink(t *testing.T) {
	o := &recordingOpener{}
	var out bytes.Buffer
	lic := supportLicense(auth.Link{Href: "tel:+15550100"})

	require.NoError(t, runSupport(context.Background(), lic, o, strings.NewReader(""), &out))
	assert.Equal(t, []string{"tel:+15550100"}, o.opened)
	assert.Contains(t, out.String(), "Opened Phone")
}

func TestRunSupportOpenFailure(t *testing.T) {
	o := &recordingOpener{err: errors.New("no launcher")}
	var out bytes.Buffer

	err := runSupport(context.Background(), supportLicense(auth.Link{Href: "tel:+15550100"}), o, strings.NewReader(""), &out)
	assert.ErrorIs(t, err, o.err)
	assert.NotContains(t, out.String(), "Opened")

	lic := supportLicense(
		auth.Link{Href: "https://provider.example/support"},
		auth.Link{Href: "mailto:help@provider.example"},
	)
	err = runSupport(context.Background(), lic, o, strings.NewReader("1\n"), &out)
	assert.ErrorIs(t, err, o.err)
	assert.NotContains(t, out.String(), "Opened")
}

func TestRunSupportMenu(t *testing.T) {
	o := &recordingOpener{}
	var out bytes.Buffer
	lic := supportLicense(
		auth.Link{Href: "https://provider.example/support"},
		auth.Link{Href: "mailto:help@provider.example"},
	)

	require.NoError(t, runSupport(context.Background(), lic, o, strings.NewReader("2\n"), &out))
	assert.Equal(t, []string{"mailto:help@provider.example"}, o.opened)
	assert.Contains(t, out.String(), "3) Cancel")
}

func TestRunSupportMenuCancel(t *testing.T) {
	o := &recordingOpener{}
	lic := supportLicense(
		auth.Link{Href: "https://provider.example/support"},
		auth.Link{Href: "mailto:help@provider.example"},
	)

	require.NoError(t, runSupport(context.Background(), lic, o, strings.NewReader("3\n"), &bytes.Buffer{}))
	assert.Empty(t, o.opened)
}

func TestRunSupportNothingToOpen(t *testing.T) {
	var out bytes.Buffer
	lic := supportLicense(auth.Link{Href: "ftp://provider.example"})

	require.NoError(t, runSupport(context.Background(), lic, &recordingOpener{}, strings.NewReader(""), &out))
	assert.Contains(t, out.String(), "no support link")
}

func TestLoadConfigDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("data_dir", "/tmp/lcp")

	cfg := loadConfig(v)
	assert.Equal(t, filepath.Join("/tmp/lcp", "passphrases.db"), cfg.DatabaseDSN)
	assert.Equal(t, filepath.Join("/tmp/lcp", "lcpunlock.log"), cfg.LogFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Plain)
}

func TestReadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lcpunlock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: "+dir+"\nui:\n  plain: true\nlog:\n  level: debug\n"), 0600))
	t.Setenv("LCPUNLOCK_BROWSER_HEADLESS", "true")

	v := viper.New()
	setDefaults(v)
	require.NoError(t, readConfig(v, path))

	cfg := loadConfig(v)
	assert.Equal(t, dir, cfg.DataDir)
	assert.True(t, cfg.Plain)
	assert.True(t, cfg.BrowserHeadless)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestReadConfigMissingExplicitFile(t *testing.T) {
	v := viper.New()
	assert.Error(t, readConfig(v, filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	lic := filepath.Join(dir, "book.lcpl")
	require.NoError(t, os.WriteFile(lic, []byte(`{"id":"abc","provider":"https://p.example/x","encryption":{"user_key":{"text_hint":"blue"}}}`), 0600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--data-dir", dir, "info", lic})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Provider: p.example")
	assert.Contains(t, out.String(), "blue")
}

func TestForgetCommand(t *testing.T) {
	dir := t.TempDir()
	lic := filepath.Join(dir, "book.lcpl")
	require.NoError(t, os.WriteFile(lic, []byte(`{"id":"abc"}`), 0600))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--data-dir", dir, "forget", lic})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Forgot 0 passphrase(s) for abc")
}

func writeLockedLicense(t *testing.T, dir, id, passphrase string) string {
	t.Helper()
	keyCheck, err := backend.SealKeyCheck(id, backend.UserKey(passphrase))
	require.NoError(t, err)

	path := filepath.Join(dir, "book.lcpl")
	doc := `{"id":"` + id + `","provider":"https://p.example/x","encryption":{"profile":"` + backend.BasicProfile +
		`","user_key":{"text_hint":"blue","key_check":"` + keyCheck + `"}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))
	return path
}

func executeRoot(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUnlockCommand(t *testing.T) {
	dir := t.TempDir()
	lic := writeLockedLicense(t, dir, "abc", "sky")

	out, err := executeRoot(t, "p\nwrong\n\nsky\n", "--data-dir", dir, "unlock", lic)
	require.NoError(t, err)
	assert.Contains(t, out, "Passphrase Required")
	assert.Contains(t, out, "Incorrect Passphrase")
	assert.Contains(t, out, "Unlocked abc")

	// the passphrase is remembered, nothing is read from stdin
	out, err = executeRoot(t, "", "--data-dir", dir, "unlock", lic)
	require.NoError(t, err)
	assert.NotContains(t, out, "Passphrase Required")
	assert.Contains(t, out, "Unlocked abc")

	out, err = executeRoot(t, "", "--data-dir", dir, "forget", lic)
	require.NoError(t, err)
	assert.Contains(t, out, "Forgot 1 passphrase(s) for abc")

	out, err = executeRoot(t, "c\n", "--data-dir", dir, "unlock", lic)
	assert.ErrorIs(t, err, errCancelled)
	assert.Contains(t, out, "Authentication cancelled.")
	assert.NotContains(t, out, "Unlocked abc")
}

func TestUnlockCommandRejectsMalformedLicense(t *testing.T) {
	dir := t.TempDir()
	lic := filepath.Join(dir, "book.lcpl")
	require.NoError(t, os.WriteFile(lic, []byte(`{"id":"abc","encryption":{"user_key":{"key_check":"AAAA"}}}`), 0600))

	out, err := executeRoot(t, "", "--data-dir", dir, "unlock", lic)
	assert.ErrorIs(t, err, backend.ErrMalformedKeyCheck)
	assert.NotContains(t, out, "Passphrase Required")
}
