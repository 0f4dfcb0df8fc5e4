package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const browserCurl = `curl 'https://music.youtube.com/youtubei/v1/search?prettyPrint=false' \
  -H 'accept: */*' \
  -H 'authorization: SAPISIDHASH 1700000000_abc' \
  -H 'content-length: 1234' \
  -H 'host: music.youtube.com' \
  -H 'x-goog-authuser: 0' \
  -b 'SID=sid; HSID=hsid' \
  --data-raw '{"query":"song"}'`

func TestParseCurlCommand(t *testing.T) {
	t.Run("browser copy", func(t *testing.T) {
		got, err := ParseCurlCommand([]byte(browserCurl))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got.URL != "https://music.youtube.com/youtubei/v1/search?prettyPrint=false" {
			t.Errorf("URL = %q", got.URL)
		}
		want := map[string]string{
			"accept":          "*/*",
			"authorization":   "SAPISIDHASH 1700000000_abc",
			"x-goog-authuser": "0",
		}
		if len(got.Headers) != len(want) {
			t.Errorf("got %d headers, want %d: %v", len(got.Headers), len(want), got.Headers)
		}
		for k, v := range want {
			if got.Headers[k] != v {
				t.Errorf("header %s = %q, want %q", k, got.Headers[k], v)
			}
		}
		if got.Cookie != "SID=sid; HSID=hsid" {
			t.Errorf("Cookie = %q", got.Cookie)
		}
	})

	tt := []struct {
		name        string
		cmd         string
		wantHeaders map[string]string
		wantCookie  string
	}{
		{
			name:        "double quotes",
			cmd:         `curl -H "Authorization: Bearer token" https://proxy.local`,
			wantHeaders: map[string]string{"Authorization": "Bearer token"},
		},
		{
			name:        "long flags",
			cmd:         `curl --header 'X-Client: web' --cookie "a=1" https://proxy.local`,
			wantHeaders: map[string]string{"X-Client": "web"},
			wantCookie:  "a=1",
		},
		{
			name:        "cookie header when no -b flag",
			cmd:         `curl -H 'Cookie: a=1; b=2' -H 'X-Client: web' https://proxy.local`,
			wantHeaders: map[string]string{"X-Client": "web"},
			wantCookie:  "a=1; b=2",
		},
		{
			name:        "-b wins over cookie header",
			cmd:         `curl -H 'cookie: from-header' -b 'from-flag' https://proxy.local`,
			wantHeaders: map[string]string{},
			wantCookie:  "from-flag",
		},
		{
			name:        "value containing colons",
			cmd:         `curl -H 'Origin: https://music.youtube.com' https://proxy.local`,
			wantHeaders: map[string]string{"Origin": "https://music.youtube.com"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCurlCommand([]byte(tc.cmd))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Headers) != len(tc.wantHeaders) {
				t.Errorf("got %d headers, want %d: %v", len(got.Headers), len(tc.wantHeaders), got.Headers)
			}
			for k, v := range tc.wantHeaders {
				if got.Headers[k] != v {
					t.Errorf("header %s = %q, want %q", k, got.Headers[k], v)
				}
			}
			if got.Cookie != tc.wantCookie {
				t.Errorf("Cookie = %q, want %q", got.Cookie, tc.wantCookie)
			}
		})
	}

	for _, cmd := range []string{"", "curl https://proxy.local", `curl -H 'no-colon' https://proxy.local`} {
		t.Run("rejects "+cmd, func(t *testing.T) {
			if _, err := ParseCurlCommand([]byte(cmd)); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("reads saved command", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "headers.sh")
		if err := os.WriteFile(path, []byte(browserCurl), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		got, err := ParseCurlFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Headers["x-goog-authuser"] != "0" {
			t.Errorf("unexpected headers: %v", got.Headers)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseCurlFile(filepath.Join(t.TempDir(), "missing.sh")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestCurlHeaders_Header(t *testing.T) {
	h := (&CurlHeaders{
		Headers: map[string]string{"x-goog-authuser": "0", "Authorization": "SAPISIDHASH x"},
		Cookie:  "SID=sid",
	}).Header()

	if h.Get("X-Goog-Authuser") != "0" {
		t.Errorf("X-Goog-Authuser = %q", h.Get("X-Goog-Authuser"))
	}
	if h.Get("Authorization") != "SAPISIDHASH x" {
		t.Errorf("Authorization = %q", h.Get("Authorization"))
	}
	if h.Get("Cookie") != "SID=sid" {
		t.Errorf("Cookie = %q", h.Get("Cookie"))
	}
	if len(h) != 3 {
		t.Errorf("got %d keys, want 3", len(h))
	}

	if got := (&CurlHeaders{Headers: map[string]string{}}).Header(); len(got) != 0 {
		t.Errorf("expected empty header, got %v", got)
	}
}
