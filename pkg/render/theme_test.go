package render_test

import (
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-wizard/pkg/render"
)

type stubThemeSelector struct {
	selection *theme.Selection
	calls     []string
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, name+"/"+variant)
	return s.selection, nil
}

func TestResolveThemeMergesVariantOverBase(t *testing.T) {
	t.Parallel()

	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":   "#123456",
			"surface": "#ffffff",
		},
		Templates: map[string]string{
			"wizard.step": "themes/acme/step.tmpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files: map[string]string{
				"stylesheet": "theme.css",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"brand": "#654321",
				},
				Assets: theme.Assets{
					Files: map[string]string{
						"stylesheet": "theme.dark.css",
					},
				},
			},
		},
	}
	selector := &stubThemeSelector{selection: &theme.Selection{
		Theme:    "acme",
		Variant:  "dark",
		Manifest: manifest,
	}}

	cfg, err := render.ResolveTheme(selector, "acme", "dark")
	if err != nil {
		t.Fatalf("ResolveTheme: %v", err)
	}
	if len(selector.calls) != 1 || selector.calls[0] != "acme/dark" {
		t.Fatalf("selector calls = %v", selector.calls)
	}
	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("identity mismatch: %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.Tokens["brand"] != "#654321" {
		t.Fatalf("variant token should win, got %q", cfg.Tokens["brand"])
	}
	if cfg.Tokens["surface"] != "#ffffff" {
		t.Fatalf("base token should survive, got %q", cfg.Tokens["surface"])
	}
	if cfg.CSSVars["--brand"] != "#654321" {
		t.Fatalf("css vars not derived from tokens: %v", cfg.CSSVars)
	}
	if cfg.Partials["wizard.step"] != "themes/acme/step.tmpl" {
		t.Fatalf("partials not propagated: %v", cfg.Partials)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.dark.css" {
		t.Fatalf("AssetURL = %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("unknown asset should resolve empty, got %q", got)
	}
}

func TestResolveThemeNilSelector(t *testing.T) {
	t.Parallel()

	cfg, err := render.ResolveTheme(nil, "acme", "")
	if err != nil || cfg != nil {
		t.Fatalf("nil selector should be a no-op, got %v, %v", cfg, err)
	}
}
