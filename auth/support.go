package auth

import (
	"net/url"
	"strings"
)

const (
	titleWebsite = "Website"
	titlePhone   = "Phone"
	titleMail    = "Mail"
	titleSupport = "Support"

	// CancelLabel is the label of the inert choice closing a support menu
	CancelLabel = "Cancel"
)

// SupportLink is a declared support link whose URI the opener accepted
type SupportLink struct {
	Link  Link
	URL   *url.URL
	Title string
}

// Choice is one entry of the support menu. Action is nil for Cancel and
// otherwise returns the opener's error.
type Choice struct {
	Label  string
	Action func() error
}

// IsCancel reports whether selecting this choice does nothing
func (c Choice) IsCancel() bool {
	return c.Action == nil
}

// ResolveSupportLinks drops links that do not parse or that the opener
// declines, preserving declaration order.
func ResolveSupportLinks(links []Link, opener Opener) []SupportLink {
	resolved := make([]SupportLink, 0, len(links))
	if opener == nil {
		return resolved
	}
	for _, link := range links {
		u, ok := parseLink(link.Href)
		if !ok || !opener.CanOpen(u) {
			continue
		}
		resolved = append(resolved, SupportLink{
			Link:  link,
			URL:   u,
			Title: linkTitle(link, u),
		})
	}
	return resolved
}

func parseLink(href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, false
	}
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	return u, true
}

// linkTitle treats a blank title like a missing one so no menu entry is
// left without a label
func linkTitle(link Link, u *url.URL) string {
	if title := strings.TrimSpace(link.Title); title != "" {
		return title
	}
	if u != nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return titleWebsite
		case "tel":
			return titlePhone
		case "mailto":
			return titleMail
		}
	}
	return titleSupport
}
