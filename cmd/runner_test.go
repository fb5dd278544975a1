package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/geo-martino/musify/internal/cache"
	"github.com/geo-martino/musify/internal/shared"
	tu "github.com/geo-martino/musify/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			store := cache.NewMemory()

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Store:      store,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.store != store {
				t.Error("expected store to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("without credentials skips gateway", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = ""
			config.Credentials.Spotify.ClientSecret = ""

			runner := NewRunner(RunnerOpts{Config: config})

			if runner.client != nil {
				t.Error("expected no client without credentials")
			}
			if err := runner.ensureEngine(); err == nil {
				t.Error("expected ensureEngine to fail without a client")
			}
		})

		t.Run("with credentials builds gateway", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "test_id"
			config.Credentials.Spotify.ClientSecret = "test_secret"
			config.Cache.Enabled = false

			runner := NewRunner(RunnerOpts{Config: config})

			if runner.client == nil {
				t.Fatal("expected client to be built")
			}
			if runner.auth == nil {
				t.Error("expected authorizer to be set")
			}
			if err := runner.ensureEngine(); err != nil {
				t.Fatalf("expected engine to build, got %v", err)
			}
			if runner.engine == nil || runner.matcher == nil {
				t.Error("expected matcher and engine to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) == 0 {
			t.Error("expected at least one command to be registered")
		}

		for i, cmd := range commands {
			if cmd == nil {
				t.Errorf("command at index %d is nil", i)
			}
		}
	})

	t.Run("cacheShapes", func(t *testing.T) {
		t.Run("applies default TTL to zero-TTL shapes", func(t *testing.T) {
			cfg := shared.CacheConfig{
				DefaultTTLHours: 24,
				Shapes: []shared.ShapeConfig{
					{Method: "GET", Prefix: "/search", TTLHours: 168},
					{Method: "GET", Prefix: "/albums"},
				},
			}

			shapes := cacheShapes(cfg)
			if len(shapes) != 2 {
				t.Fatalf("expected 2 shapes, got %d", len(shapes))
			}
			if shapes[0].TTL != 168*time.Hour {
				t.Errorf("expected explicit TTL to be kept, got %v", shapes[0].TTL)
			}
			if shapes[1].TTL != 24*time.Hour {
				t.Errorf("expected default TTL, got %v", shapes[1].TTL)
			}
		})
	})

	t.Run("loadLibrary", func(t *testing.T) {
		t.Run("loads collection list", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "library.json")
			content := `[{"name": "OK Computer", "tracks": [{"title": "Airbag", "artist": "Radiohead"}]}]`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}

			collections, err := loadLibrary(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(collections) != 1 || collections[0].Name != "OK Computer" {
				t.Errorf("unexpected collections: %+v", collections)
			}
			if len(collections[0].Tracks) != 1 || collections[0].Tracks[0].Title != "Airbag" {
				t.Errorf("unexpected tracks: %+v", collections[0].Tracks)
			}
		})

		t.Run("loads flat track list as one collection", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tracks.json")
			content := `[{"title": "Airbag", "artist": "Radiohead"}, {"title": "Let Down", "artist": "Radiohead"}]`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}

			collections, err := loadLibrary(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(collections) != 1 {
				t.Fatalf("expected 1 collection, got %d", len(collections))
			}
			if len(collections[0].Tracks) != 2 {
				t.Errorf("expected 2 tracks, got %d", len(collections[0].Tracks))
			}
		})

		t.Run("rejects missing file", func(t *testing.T) {
			if _, err := loadLibrary(filepath.Join(t.TempDir(), "missing.json")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("rejects malformed content", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.json")
			if err := os.WriteFile(path, []byte(`{"not": "a list"}`), 0644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}

			if _, err := loadLibrary(path); err == nil {
				t.Error("expected error for malformed content")
			}
		})
	})
}
