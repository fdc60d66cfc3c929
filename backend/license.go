package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/njyeung/lcpunlock/auth"
)

type licenseDocument struct {
	ID         string         `json:"id"`
	Provider   string         `json:"provider"`
	Encryption encryptionInfo `json:"encryption"`
	Links      []licenseLink  `json:"links"`
}

type encryptionInfo struct {
	Profile string      `json:"profile"`
	UserKey userKeyInfo `json:"user_key"`
}

type userKeyInfo struct {
	TextHint  string `json:"text_hint"`
	Algorithm string `json:"algorithm"`
	KeyCheck  string `json:"key_check"`
}

type licenseLink struct {
	Rel   relList `json:"rel"`
	Href  string  `json:"href"`
	Title string  `json:"title"`
	Type  string  `json:"type"`
}

// relList accepts both "rel": "hint" and "rel": ["hint", "alternate"]
type relList []string

func (r *relList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*r = relList{single}
	return nil
}

func (r relList) has(rel string) bool {
	for _, v := range r {
		if v == rel {
			return true
		}
	}
	return false
}

// LoadLicense reads and parses a license document from disk
func LoadLicense(path string) (*auth.License, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read license: %w", err)
	}
	return ParseLicense(data)
}

// ParseLicense parses an LCP license document. The first hint link wins;
// support links keep document order.
func ParseLicense(data []byte) (*auth.License, error) {
	var doc licenseDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse license: %w", err)
	}
	if doc.ID == "" {
		return nil, ErrNoLicenseID
	}

	license := &auth.License{
		ID:       doc.ID,
		Provider: doc.Provider,
		Hint:     doc.Encryption.UserKey.TextHint,
		KeyCheck: doc.Encryption.UserKey.KeyCheck,
		Profile:  doc.Encryption.Profile,
	}

	for _, l := range doc.Links {
		link := auth.Link{Href: l.Href, Title: l.Title, Type: l.Type}
		if l.Rel.has(RelHint) && license.HintLink == nil {
			hint := link
			license.HintLink = &hint
		}
		if l.Rel.has(RelSupport) {
			license.SupportLinks = append(license.SupportLinks, link)
		}
	}

	return license, nil
}
