package match

import (
	"errors"
	"testing"

	"github.com/geo-martino/musify/internal/shared"
)

func TestConfigFrom(t *testing.T) {
	base := shared.MatcherConfig{
		Tiers: []shared.TierConfig{
			{Name: "strict", LengthToleranceSeconds: 15, NameOverlapThreshold: 0.8},
			{Name: "normal", LengthToleranceSeconds: 30, NameOverlapThreshold: 0.66},
		},
	}

	t.Run("converts tiers and applies defaults", func(t *testing.T) {
		cfg, err := ConfigFrom(base)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(cfg.Ladder) != 2 {
			t.Fatalf("expected 2 tiers, got %d", len(cfg.Ladder))
		}
		if cfg.Ladder[0].Name != "strict" || cfg.Ladder[0].LengthToleranceSecs != 15 {
			t.Errorf("unexpected first tier: %+v", cfg.Ladder[0])
		}
		if cfg.AlbumTitleThreshold != 0.8 {
			t.Errorf("expected default album threshold, got %v", cfg.AlbumTitleThreshold)
		}
		if cfg.ResultLimit != 10 {
			t.Errorf("expected default result limit, got %v", cfg.ResultLimit)
		}
		if len(cfg.QueryShapes) != 3 {
			t.Errorf("expected default query shapes, got %v", cfg.QueryShapes)
		}
		if cfg.LastResort != ReturnNone {
			t.Errorf("expected ReturnNone by default, got %v", cfg.LastResort)
		}
	})

	t.Run("requires at least one tier", func(t *testing.T) {
		_, err := ConfigFrom(shared.MatcherConfig{})
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("rejects unknown last resort", func(t *testing.T) {
		mc := base
		mc.LastResort = "give-up"
		if _, err := ConfigFrom(mc); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("accepts return-best", func(t *testing.T) {
		mc := base
		mc.LastResort = "return-best"
		cfg, err := ConfigFrom(mc)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.LastResort != ReturnBest {
			t.Errorf("expected ReturnBest, got %v", cfg.LastResort)
		}
	})

	t.Run("rejects fallback naming unknown tier", func(t *testing.T) {
		mc := base
		mc.Fallback = []string{"strict", "relaxed"}
		if _, err := ConfigFrom(mc); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("rejects unknown query shape field", func(t *testing.T) {
		mc := base
		mc.QueryShapes = [][]string{{"title", "genre"}}
		if _, err := ConfigFrom(mc); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Sequence", func(t *testing.T) {
		t.Run("defaults to ladder order", func(t *testing.T) {
			cfg, err := ConfigFrom(base)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			sequence, err := cfg.Sequence()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(sequence) != 2 || sequence[0].Name != "strict" || sequence[1].Name != "normal" {
				t.Errorf("unexpected sequence: %+v", sequence)
			}
		})

		t.Run("follows fallback order", func(t *testing.T) {
			mc := base
			mc.Fallback = []string{"normal", "strict"}
			cfg, err := ConfigFrom(mc)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			sequence, err := cfg.Sequence()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if sequence[0].Name != "normal" || sequence[1].Name != "strict" {
				t.Errorf("expected fallback order, got %+v", sequence)
			}
		})
	})
}
