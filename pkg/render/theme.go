package render

import (
	"fmt"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ResolveTheme asks a go-theme selector for the named theme/variant and folds
// the selection's manifest into the RendererConfig renderers consume: tokens
// merged variant-over-base, CSS custom properties derived from tokens, and an
// asset resolver rooted at the manifest's asset prefix.
func ResolveTheme(selector theme.ThemeSelector, name, variant string) (*theme.RendererConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, fmt.Errorf("render: theme selection: %w", err)
	}
	if selection == nil {
		return nil, nil
	}

	cfg := &theme.RendererConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
	}

	manifest := selection.Manifest
	if manifest == nil {
		return cfg, nil
	}

	tokens := make(map[string]string, len(manifest.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	partials := make(map[string]string, len(manifest.Templates))
	for key, value := range manifest.Templates {
		partials[key] = value
	}
	assets := make(map[string]string, len(manifest.Assets.Files))
	for key, value := range manifest.Assets.Files {
		assets[key] = value
	}
	prefix := manifest.Assets.Prefix

	if variantDef, ok := manifest.Variants[selection.Variant]; ok {
		for key, value := range variantDef.Tokens {
			tokens[key] = value
		}
		for key, value := range variantDef.Templates {
			partials[key] = value
		}
		for key, value := range variantDef.Assets.Files {
			assets[key] = value
		}
		if variantDef.Assets.Prefix != "" {
			prefix = variantDef.Assets.Prefix
		}
	}

	cfg.Tokens = tokens
	cfg.Partials = partials
	cfg.CSSVars = cssVars(tokens)
	cfg.AssetURL = assetResolver(prefix, assets)
	return cfg, nil
}

func cssVars(tokens map[string]string) map[string]string {
	if len(tokens) == 0 {
		return nil
	}
	out := make(map[string]string, len(tokens))
	for key, value := range tokens {
		out["--"+key] = value
	}
	return out
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	return func(key string) string {
		file, ok := files[key]
		if !ok {
			return ""
		}
		if prefix == "" {
			return file
		}
		return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(file, "/")
	}
}
