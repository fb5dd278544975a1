package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geo-martino/musify/internal/shared"
	tu "github.com/geo-martino/musify/internal/testing"
)

func TestSetup(t *testing.T) {
	t.Run("creates config and cache database", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, t.TempDir())
		defer tu.MustChdir(t, wd)

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(nil),
			Output: output,
		})

		if err := setupCommand(runner).Run(context.Background(), []string{"setup"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, "config.toml")
		if content := tu.MustReadFile(t, "config.toml"); !strings.Contains(content, "[gateway]") {
			t.Error("expected the template config to carry a gateway section")
		}
		tu.AssertDirExists(t, ".musify")
		tu.AssertFileExists(t, filepath.Join(".musify", "cache.db"))
		if !strings.Contains(output.String(), "Setup complete") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("skips the database when the cache is disabled", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		content := `
[cache]
enabled = false

[[matcher.tier]]
name = "strict"
length_tolerance_seconds = 15
name_overlap_threshold = 0.8
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Logger: shared.NewLogger(nil),
			Output: output,
		})

		err := setupCommand(runner).Run(context.Background(), []string{"setup", "--config", configPath})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "in-memory cache") {
			t.Errorf("unexpected output %q", output.String())
		}
	})
}
