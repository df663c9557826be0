package retrieval

import (
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL normalizes a URL into the store's dedup key: lowercased
// scheme and host, default ports and fragments dropped, trailing slash
// trimmed. Query strings are preserved; official sources use them to
// address documents.
func CanonicalURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL has no host: %q", rawURL)
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""

	if parsed.Scheme == "http" {
		parsed.Host = strings.TrimSuffix(parsed.Host, ":80")
	} else {
		parsed.Host = strings.TrimSuffix(parsed.Host, ":443")
	}

	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	return parsed.String(), nil
}
