package shared

import (
	"strings"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	t.Run("unsupported platform errors", func(t *testing.T) {
		orig := goos
		goos = func() string { return "plan9" }
		defer func() { goos = orig }()

		err := OpenBrowser("https://example.com")
		if err == nil || !strings.Contains(err.Error(), "plan9") {
			t.Fatalf("expected an unsupported platform error, got %v", err)
		}
	})
}
