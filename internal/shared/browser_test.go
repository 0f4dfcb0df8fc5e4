package shared

import (
	"errors"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	url := "https://www.youtube.com/watch?v=abc123"

	tc := map[string]string{
		"darwin":  "open",
		"linux":   "xdg-open",
		"windows": "cmd",
	}
	for goos, want := range tc {
		t.Run(goos, func(t *testing.T) {
			cmd, err := browserCommand(goos, url)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Args[0] != want {
				t.Errorf("expected %s, got %s", want, cmd.Args[0])
			}
			if cmd.Args[len(cmd.Args)-1] != url {
				t.Errorf("expected url as last argument, got %v", cmd.Args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		_, err := browserCommand("plan9", url)
		if !errors.Is(err, ErrNotImplemented) {
			t.Errorf("expected ErrNotImplemented, got %v", err)
		}
	})

	t.Run("OpenBrowser unsupported runtime", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser(url); err == nil {
			t.Error("expected error on unsupported runtime")
		}
	})
}
