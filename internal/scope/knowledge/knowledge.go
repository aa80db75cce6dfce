// Package knowledge holds the static category templates and cost ranges the
// fallback generator and the heuristic estimator are built on.
package knowledge

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var embedded []byte

// Template is the ordered list of typical positions of a category.
type Template struct {
	Key       string
	Label     string
	Positions []string
}

// CostRange is a per-unit three-point cost in minor currency units.
type CostRange struct {
	Min int64 `yaml:"min"`
	Mid int64 `yaml:"mid"`
	Max int64 `yaml:"max"`
}

type document struct {
	Version         int                      `yaml:"version"`
	DefaultTemplate string                   `yaml:"default_template"`
	Templates       map[string]templateEntry `yaml:"templates"`
	CostRanges      map[string]CostRange     `yaml:"cost_ranges"`
	DefaultRange    CostRange                `yaml:"default_cost_range"`
}

type templateEntry struct {
	Label     string   `yaml:"label"`
	Positions []string `yaml:"positions"`
}

// Base is an immutable, concurrency-safe view of the knowledge tables.
type Base struct {
	version         int
	templates       map[string]Template
	ranges          map[string]CostRange
	defaultTemplate string
	defaultRange    CostRange
}

var (
	defaultOnce sync.Once
	defaultBase *Base
	defaultErr  error
)

// Default returns the tables shipped with the binary.
func Default() (*Base, error) {
	defaultOnce.Do(func() {
		defaultBase, defaultErr = Parse(embedded)
	})
	return defaultBase, defaultErr
}

// MustDefault is Default for process start-up and tests.
func MustDefault() *Base {
	b, err := Default()
	if err != nil {
		panic(fmt.Sprintf("knowledge: embedded tables are invalid: %v", err))
	}
	return b
}

// Parse decodes and validates a knowledge document.
func Parse(data []byte) (*Base, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode knowledge tables: %w", err)
	}

	b := &Base{
		version:         doc.Version,
		templates:       make(map[string]Template, len(doc.Templates)),
		ranges:          make(map[string]CostRange, len(doc.CostRanges)),
		defaultTemplate: normalize(doc.DefaultTemplate),
		defaultRange:    doc.DefaultRange,
	}

	for key, entry := range doc.Templates {
		k := normalize(key)
		if strings.TrimSpace(entry.Label) == "" {
			return nil, fmt.Errorf("template %q has no label", key)
		}
		if len(entry.Positions) == 0 {
			return nil, fmt.Errorf("template %q has no positions", key)
		}
		positions := make([]string, len(entry.Positions))
		copy(positions, entry.Positions)
		b.templates[k] = Template{Key: k, Label: entry.Label, Positions: positions}
	}
	if _, ok := b.templates[b.defaultTemplate]; !ok {
		return nil, fmt.Errorf("default template %q is not defined", doc.DefaultTemplate)
	}

	for key, r := range doc.CostRanges {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("cost range %q: %w", key, err)
		}
		b.ranges[normalize(key)] = r
	}
	if err := b.defaultRange.validate(); err != nil {
		return nil, fmt.Errorf("default cost range: %w", err)
	}

	return b, nil
}

func (r CostRange) validate() error {
	if r.Min <= 0 || r.Max <= 0 {
		return fmt.Errorf("bounds must be positive")
	}
	if !(r.Min <= r.Mid && r.Mid <= r.Max) {
		return fmt.Errorf("min <= mid <= max violated: %d/%d/%d", r.Min, r.Mid, r.Max)
	}
	return nil
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Template returns the template of category. Unknown categories get the
// documented default template and found=false.
func (b *Base) Template(category string) (tpl Template, found bool) {
	tpl, found = b.templates[normalize(category)]
	if !found {
		tpl = b.templates[b.defaultTemplate]
	}
	return tpl.clone(), found
}

// CostRange returns the per-unit range of category. Unknown categories get
// the default range and found=false.
func (b *Base) CostRange(category string) (CostRange, bool) {
	r, found := b.ranges[normalize(category)]
	if !found {
		return b.defaultRange, false
	}
	return r, true
}

// Label returns the scope label of category, falling back to the default template's.
func (b *Base) Label(category string) string {
	tpl, _ := b.Template(category)
	return tpl.Label
}

// Categories lists the known template keys in sorted order.
func (b *Base) Categories() []string {
	keys := make([]string, 0, len(b.templates))
	for k := range b.templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultTemplateKey is the key used for unknown categories.
func (b *Base) DefaultTemplateKey() string {
	return b.defaultTemplate
}

// Version is the document version of the loaded tables.
func (b *Base) Version() int {
	return b.version
}

func (t Template) clone() Template {
	positions := make([]string, len(t.Positions))
	copy(positions, t.Positions)
	t.Positions = positions
	return t
}
