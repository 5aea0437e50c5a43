// Package timezones provides deterministic IANA timezone data, search
// helpers, and a ready-made select control for wizards that ask the user to
// pick a zone. The backing data is embedded under data/iana_timezones.txt.
package timezones

import (
	"bufio"
	"embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-wizard/pkg/model"
)

//go:embed data/iana_timezones.txt
var dataFS embed.FS

const defaultListPath = "data/iana_timezones.txt"

var (
	defaultOnce  sync.Once
	defaultZones []string
	defaultErr   error
)

// DefaultZones returns the embedded zone list, sorted and deduplicated. The
// returned slice is a copy the caller may mutate.
func DefaultZones() ([]string, error) {
	defaultOnce.Do(func() {
		f, err := dataFS.Open(defaultListPath)
		if err != nil {
			defaultErr = err
			return
		}
		defer func() { _ = f.Close() }()

		zones, err := LoadZones(f)
		if err != nil {
			defaultErr = err
			return
		}
		defaultZones = zones
	})

	if defaultErr != nil {
		return nil, defaultErr
	}
	return append([]string{}, defaultZones...), nil
}

// LoadZones reads a zone-per-line list, skipping blanks and # comments.
func LoadZones(r io.Reader) ([]string, error) {
	if r == nil {
		return nil, fmt.Errorf("timezones: missing reader")
	}

	scanner := bufio.NewScanner(r)
	zones := make([]string, 0, 512)
	seen := map[string]struct{}{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		zones = append(zones, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sort.Strings(zones)
	return zones, nil
}

// Search filters zones by a case-insensitive substring match. Prefix matches
// rank ahead of interior matches; a non-positive limit means no limit. An
// empty query returns the first limit zones.
func Search(zones []string, query string, limit int) []string {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		if limit <= 0 || len(zones) <= limit {
			return append([]string{}, zones...)
		}
		return append([]string{}, zones[:limit]...)
	}

	type match struct {
		name     string
		isPrefix bool
	}
	matches := make([]match, 0, 32)
	for _, zone := range zones {
		lower := strings.ToLower(zone)
		if !strings.Contains(lower, query) {
			continue
		}
		matches = append(matches, match{name: zone, isPrefix: strings.HasPrefix(lower, query)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].name < matches[j].name
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.name)
	}
	return out
}

// Control builds a select control listing every embedded zone. Callers layer
// their own options on top, e.g. model.Required() or model.When gating.
func Control(name string, options ...model.ControlOption) (model.Control, error) {
	zones, err := DefaultZones()
	if err != nil {
		return model.Control{}, err
	}
	base := []model.ControlOption{
		model.WithLabel("Timezone"),
		model.WithOptions(zones...),
	}
	return model.NewControl(name, model.ControlTypeSelect, append(base, options...)...)
}

// MustControl panics on construction failure. Useful in static definitions.
func MustControl(name string, options ...model.ControlOption) model.Control {
	control, err := Control(name, options...)
	if err != nil {
		panic(err)
	}
	return control
}
