// Package mcpproxy implements the reverse-proxy tool-call variant
// (web_search_prime, web_reader, zread) of §4.7.
package mcpproxy

import (
	"net/url"
	"strings"

	"github.com/antigravity/gateway/internal/config"
)

var trackingExact = map[string]bool{
	"gclid": true, "fbclid": true, "gbraid": true, "wbraid": true, "msclkid": true,
}

func isTrackingParam(key string) bool {
	lower := strings.ToLower(key)
	if trackingExact[lower] {
		return true
	}
	return strings.HasPrefix(lower, "utm_") || strings.HasPrefix(lower, "hsa_")
}

// NormalizeURL applies the web_reader_url_normalization policy (§4.7):
// off is identity, strip_tracking_query removes known tracking parameters
// only, strip_query removes the entire query string.
func NormalizeURL(raw string, mode config.URLNormalization) (string, error) {
	switch mode {
	case config.URLNormalizeStripQuery:
		u, err := url.Parse(raw)
		if err != nil {
			return "", err
		}
		u.RawQuery = ""
		return u.String(), nil

	case config.URLNormalizeStripTrackingQry:
		u, err := url.Parse(raw)
		if err != nil {
			return "", err
		}
		q := u.Query()
		for k := range q {
			if isTrackingParam(k) {
				q.Del(k)
			}
		}
		u.RawQuery = q.Encode()
		return u.String(), nil

	default: // config.URLNormalizeOff and unset
		return raw, nil
	}
}
