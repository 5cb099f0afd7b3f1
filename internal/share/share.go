// Package share turns a bin identifier into a shareable URL and back.
//
// Links only resolve against the store the reader is using: there is no
// transfer of bin contents, the URL carries the identifier alone.
package share

import (
	"fmt"
	"net/url"
	"strings"
)

// Param is the query parameter carrying the bin identifier.
const Param = "bin"

// Link builds base's origin and path with ?bin=<id>. Any query or fragment on
// base is dropped.
func Link(base, binID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("share: parsing base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("share: base url %q must be absolute", base)
	}
	u.RawQuery = url.Values{Param: {binID}}.Encode()
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// Token extracts the bin identifier from a link or a raw query string. The
// second result is false when no identifier is present.
func Token(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	query := raw
	if u, err := url.Parse(raw); err == nil && (u.Scheme != "" || strings.Contains(raw, "?")) {
		query = u.RawQuery
	}
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return "", false
	}
	return FromQuery(values)
}

// FromQuery reads the bin identifier from parsed query values.
func FromQuery(values url.Values) (string, bool) {
	id := strings.TrimSpace(values.Get(Param))
	return id, id != ""
}
