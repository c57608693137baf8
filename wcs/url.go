package wcs

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// DefaultVersion is the WCS protocol version spoken by this client.
const DefaultVersion = "2.0.1"

// CleanURL strips the OGC operation parameters from a user supplied WCS
// endpoint so that fresh requests can be built on top of it without
// conflicting values. The `service`, `version` and `request` query
// parameters are extracted and removed; everything else is kept. The
// returned version defaults to DefaultVersion when the URL carries none.
//
// CleanURL never performs network access and is idempotent: cleaning an
// already cleaned URL yields the same canonical URL.
func CleanURL(raw string) (cleaned, service, version, request string, err error) {
	raw = unescape(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", "", "", errors.Wrap(err, "parsing endpoint URL")
	}

	params := parseQuery(u.RawQuery)
	version = params.pop("version")
	if version == "" {
		version = DefaultVersion
	}
	service = params.pop("service")
	request = params.pop("request")

	u.RawQuery = params.encode()
	return u.String(), service, version, request, nil
}

// queryParams is an order preserving key/value set. Duplicate keys keep the
// position of their first occurrence while the last value wins, consistent
// with standard query string decoding.
type queryParams struct {
	keys   []string
	values map[string]string
}

func parseQuery(query string) *queryParams {
	p := &queryParams{values: make(map[string]string)}
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value := pair, ""
		if i := strings.Index(pair, "="); i >= 0 {
			key, value = pair[:i], pair[i+1:]
		}
		// Percent escapes were already decoded; '+' still encodes a space.
		key = strings.ReplaceAll(key, "+", " ")
		value = strings.ReplaceAll(value, "+", " ")
		if _, seen := p.values[key]; !seen {
			p.keys = append(p.keys, key)
		}
		p.values[key] = value
	}
	return p
}

// pop removes and returns the value stored under key, or "".
func (p *queryParams) pop(key string) string {
	value, ok := p.values[key]
	if !ok {
		return ""
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
	return value
}

func (p *queryParams) encode() string {
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.values[k]))
	}
	return b.String()
}

// unescape decodes percent escapes, leaving invalid sequences untouched so
// malformed user input never aborts URL normalization.
func unescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 3
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
