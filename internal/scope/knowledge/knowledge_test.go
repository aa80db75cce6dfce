package knowledge

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EmbeddedTables(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)

	tests := []struct {
		category  string
		label     string
		positions int
		first     string
	}{
		{"sanitaer", "Sanitärsanierung (Bad/WC)", 13, "Demontage Sanitärobjekte"},
		{"elektro", "Elektroinstallation", 7, "Demontage Altinstallation"},
		{"maler", "Maler- und Tapezierarbeiten", 9, "Untergrund vorbereiten"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			tpl, found := b.Template(tt.category)
			assert.True(t, found)
			assert.Equal(t, tt.label, tpl.Label)
			assert.Len(t, tpl.Positions, tt.positions)
			assert.Equal(t, tt.first, tpl.Positions[0])
		})
	}

	assert.Equal(t, []string{"elektro", "maler", "sanitaer"}, b.Categories())
	assert.Equal(t, "sanitaer", b.DefaultTemplateKey())
	assert.Equal(t, 1, b.Version())
}

func TestTemplate_UnknownCategoryUsesSanitaryDefault(t *testing.T) {
	b := MustDefault()

	for _, category := range []string{"", "sonstige", "dach", "Garten"} {
		tpl, found := b.Template(category)
		assert.False(t, found, category)
		assert.Equal(t, "sanitaer", tpl.Key)
		assert.Len(t, tpl.Positions, 13)
	}

	tpl, found := b.Template("  Elektro ")
	assert.True(t, found)
	assert.Equal(t, "elektro", tpl.Key)
}

func TestCostRange(t *testing.T) {
	b := MustDefault()

	r, found := b.CostRange("elektro")
	assert.True(t, found)
	assert.Equal(t, CostRange{Min: 4000, Mid: 6000, Max: 10000}, r)

	r, found = b.CostRange("sanitaer")
	assert.True(t, found)
	assert.Equal(t, CostRange{Min: 80000, Mid: 120000, Max: 200000}, r)

	r, found = b.CostRange("sonstige")
	assert.False(t, found)
	assert.Equal(t, CostRange{Min: 5000, Mid: 8000, Max: 15000}, r)
}

func TestTemplate_ReturnsCopies(t *testing.T) {
	b := MustDefault()
	tpl, _ := b.Template("maler")
	tpl.Positions[0] = "mutated"

	fresh, _ := b.Template("maler")
	assert.Equal(t, "Untergrund vorbereiten", fresh.Positions[0])
}

func TestTemplate_ConcurrentReads(t *testing.T) {
	b := MustDefault()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tpl, _ := b.Template("sanitaer")
			_, _ = b.CostRange(tpl.Key)
		}()
	}
	wg.Wait()
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{"bad yaml", "templates: [", "decode knowledge tables"},
		{
			"missing default template",
			"default_template: bad\ntemplates:\n  maler:\n    label: M\n    positions: [a]\ndefault_cost_range: {min: 1, mid: 2, max: 3}\n",
			"default template",
		},
		{
			"template without positions",
			"default_template: maler\ntemplates:\n  maler:\n    label: M\n    positions: []\ndefault_cost_range: {min: 1, mid: 2, max: 3}\n",
			"no positions",
		},
		{
			"unordered range",
			"default_template: maler\ntemplates:\n  maler:\n    label: M\n    positions: [a]\ncost_ranges:\n  maler: {min: 3, mid: 2, max: 1}\ndefault_cost_range: {min: 1, mid: 2, max: 3}\n",
			"violated",
		},
		{
			"missing default range",
			"default_template: maler\ntemplates:\n  maler:\n    label: M\n    positions: [a]\n",
			"default cost range",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
