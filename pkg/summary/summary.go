// Package summary renders finish snapshots through pongo2 templates so hosts
// can print a confirmation receipt before acting on collected values.
package summary

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-wizard/pkg/session"
)

// DefaultTemplate is the receipt used when the host supplies none. One line
// per snapshot entry, values formatted by the display filter.
const DefaultTemplate = `{{ title }}
{% for entry in entries %}  {{ entry.step }}.{{ entry.control }} = {{ entry.value|display }}
{% endfor %}`

// Option configures the engine before construction.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	globals   map[string]any
}

// WithBaseDir loads named templates from a directory on disk.
func WithBaseDir(dir string) Option {
	return func(cfg *config) { cfg.baseDir = strings.TrimSpace(dir) }
}

// WithFS loads named templates from an fs.FS, typically an embed.FS.
func WithFS(files fs.FS) Option {
	return func(cfg *config) { cfg.templates = files }
}

// WithGlobals seeds context values available to every template.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if len(data) == 0 {
			return
		}
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			cfg.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Engine renders snapshot receipts from inline or file templates. Safe for
// concurrent use.
type Engine struct {
	mu    sync.RWMutex
	set   *pongo2.TemplateSet
	cache map[string]*pongo2.Template
}

// New constructs an engine. Without a base dir or fs.FS only inline
// templates are available; named lookups fail.
func New(options ...Option) (*Engine, error) {
	cfg := &config{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(cfg)
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("summary: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	// pongo2 refuses a set with zero loaders even when only inline templates
	// are rendered, so fall back to a local loader the way its DefaultSet does.
	if len(loaders) == 0 {
		loaders = append(loaders, pongo2.MustNewLocalFileSystemLoader(""))
	}

	engine := &Engine{
		set:   pongo2.NewSet("wizard", loaders...),
		cache: make(map[string]*pongo2.Template),
	}
	registerDisplayFilter()

	if len(cfg.globals) > 0 {
		if engine.set.Globals == nil {
			engine.set.Globals = make(pongo2.Context)
		}
		for key, value := range cfg.globals {
			engine.set.Globals[key] = value
		}
	}
	return engine, nil
}

// Receipt renders the snapshot with the default template and writes the
// result to w.
func (e *Engine) Receipt(w io.Writer, title string, snap session.Snapshot) error {
	_, err := e.RenderString(DefaultTemplate, Context(title, snap), w)
	return err
}

// Render renders either an inline template (anything containing pongo2
// markup) or a named template resolved through the configured loaders.
func (e *Engine) Render(name string, data map[string]any, out ...io.Writer) (string, error) {
	if strings.Contains(name, "{{") || strings.Contains(name, "{%") {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate renders a named template from the configured loaders.
func (e *Engine) RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("summary: engine is nil")
	}
	tmpl, err := e.getTemplate(name)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, name, data, out...)
}

// RenderString parses and renders inline template content.
func (e *Engine) RenderString(content string, data map[string]any, out ...io.Writer) (string, error) {
	if e == nil || e.set == nil {
		return "", errors.New("summary: engine is nil")
	}
	tmpl, err := e.set.FromString(content)
	if err != nil {
		return "", fmt.Errorf("summary: parse template: %w", err)
	}
	return e.execute(tmpl, "inline", data, out...)
}

// Context builds the template context for a snapshot: title, the ordered
// entries, and the step keyed value map.
func Context(title string, snap session.Snapshot) map[string]any {
	entries := make([]map[string]any, 0, len(snap.Entries))
	for _, entry := range snap.Entries {
		entries = append(entries, map[string]any{
			"step":    entry.Step,
			"control": entry.Control,
			"value":   entry.Value,
		})
	}
	return map[string]any{
		"title":   title,
		"entries": entries,
		"values":  snap.Map(),
	}
}

func (e *Engine) execute(tmpl *pongo2.Template, name string, data map[string]any, out ...io.Writer) (string, error) {
	ctx := make(pongo2.Context, len(data))
	for key, value := range data {
		ctx[key] = value
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err := tmpl.ExecuteWriter(ctx, &buf)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("summary: execute %q: %w", name, err)
	}

	rendered := buf.String()
	for _, w := range out {
		if _, err := w.Write([]byte(rendered)); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (e *Engine) getTemplate(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	if tmpl, ok := e.cache[name]; ok {
		e.mu.RUnlock()
		return tmpl, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("summary: load template %q: %w", name, err)
	}
	e.cache[name] = tmpl
	return tmpl, nil
}

var displayFilterOnce sync.Once

func registerDisplayFilter() {
	displayFilterOnce.Do(func() {
		if !pongo2.FilterExists("display") {
			_ = pongo2.RegisterFilter("display", filterDisplay)
		}
	})
}

// filterDisplay formats snapshot values for terminal receipts. Booleans read
// yes/no, slices join on commas, nil reads (unset).
func filterDisplay(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	switch v := in.Interface().(type) {
	case nil:
		return pongo2.AsValue("(unset)"), nil
	case bool:
		if v {
			return pongo2.AsValue("yes"), nil
		}
		return pongo2.AsValue("no"), nil
	case []string:
		return pongo2.AsValue(strings.Join(v, ", ")), nil
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return pongo2.AsValue(strings.Join(parts, ", ")), nil
	default:
		return pongo2.AsValue(fmt.Sprintf("%v", v)), nil
	}
}
