// Utilities for parsing cURL commands copied from a browser session.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	headerFlag = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']*)'|"([^"]*)")`)
	cookieFlag = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']*)'|"([^"]*)")`)
	requestURL = regexp.MustCompile(`['"]?(https?://[^\s'"]+)`)
)

// CurlHeaders holds the request headers and cookie captured from a browser cURL command.
type CurlHeaders struct {
	URL     string
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(path string) (*CurlHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand extracts headers, cookie and request URL from a cURL command.
//
// Both short (-H, -b) and long (--header, --cookie) flags are accepted, quoted with
// either quote style. A Cookie header is used only when no -b flag is present. Line
// continuations are joined first. Host and Content-Length are dropped because the
// catalog client sets them per request.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	cmd := strings.ReplaceAll(string(data), "\\\r\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")

	result := &CurlHeaders{Headers: make(map[string]string)}
	if m := requestURL.FindStringSubmatch(cmd); m != nil {
		result.URL = m[1]
	}

	var headerCookie string
	for _, m := range headerFlag.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(quoted(m), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		switch http.CanonicalHeaderKey(key) {
		case "Cookie":
			if headerCookie == "" {
				headerCookie = value
			}
		case "Host", "Content-Length":
		default:
			if key != "" {
				result.Headers[key] = value
			}
		}
	}

	if m := cookieFlag.FindStringSubmatch(cmd); m != nil {
		result.Cookie = quoted(m)
	} else {
		result.Cookie = headerCookie
	}

	if len(result.Headers) == 0 && result.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return result, nil
}

// quoted returns whichever quoted group of a flag match is set.
func quoted(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// Header converts the parsed headers and cookie into an [http.Header] forwarded on
// every catalog proxy request.
func (c *CurlHeaders) Header() http.Header {
	h := make(http.Header, len(c.Headers)+1)
	for key, value := range c.Headers {
		h.Set(key, value)
	}
	if c.Cookie != "" {
		h.Set("Cookie", c.Cookie)
	}
	return h
}
