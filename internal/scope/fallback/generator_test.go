package fallback

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/knowledge"
)

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	n := 0
	return New(knowledge.MustDefault(), func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func TestLineItems_Sanitaer(t *testing.T) {
	items := newGenerator(t).LineItems("sanitaer")
	require.Len(t, items, 13)

	assert.Equal(t, "1.1", items[0].Position)
	assert.Equal(t, "1.5", items[4].Position)
	assert.Equal(t, "2.1", items[5].Position)
	assert.Equal(t, "3.3", items[12].Position)
	assert.Equal(t, "Demontage Sanitärobjekte", items[0].Description)

	ids := map[string]bool{}
	for i, item := range items {
		assert.Equal(t, models.PositionFor(i+1), item.Position)
		assert.Equal(t, 1.0, item.Quantity)
		assert.Equal(t, models.LumpSumUnit, item.Unit)
		assert.True(t, item.IsGenerated)
		assert.Nil(t, item.EstimatedTotal)
		ids[item.ID] = true
	}
	assert.Len(t, ids, 13)
}

func TestLineItems_PositionRuleForAllCategories(t *testing.T) {
	re := regexp.MustCompile(`^\d+\.[1-5]$`)
	kb := knowledge.MustDefault()
	g := New(kb, nil)
	for _, category := range append(kb.Categories(), "unbekannt", "") {
		items := g.LineItems(category)
		require.NotEmpty(t, items, category)
		for i, item := range items {
			want := fmt.Sprintf("%d.%d", (i+5)/5, i%5+1)
			assert.Equal(t, want, item.Position)
			assert.Regexp(t, re, item.Position)
			assert.NotEmpty(t, item.ID)
		}
	}
}

func TestLineItems_UnknownCategoryUsesSanitaer(t *testing.T) {
	g := newGenerator(t)
	unknown := g.LineItems("fassade")
	sanitaer := g.LineItems("sanitaer")
	require.Len(t, unknown, len(sanitaer))
	for i := range unknown {
		assert.Equal(t, sanitaer[i].Description, unknown[i].Description)
	}
}

func TestRoomAnalysis(t *testing.T) {
	ra := newGenerator(t).RoomAnalysis()
	require.Len(t, ra.Rooms, 1)
	assert.Equal(t, 20.0, ra.Rooms[0].AreaSqm)
	assert.Equal(t, 1, ra.Rooms[0].DoorCount)
	assert.Equal(t, 1, ra.Rooms[0].WindowCount)
	assert.Equal(t, 20.0, ra.TotalAreaSqm)
	assert.Equal(t, 1, ra.TotalDoors)
	assert.Equal(t, 1, ra.TotalWindows)
	assert.Equal(t, []string{"Detaillierte Analyse vor Ort empfohlen"}, ra.Recommendations)
	assert.NotNil(t, ra.ConditionNotes)
}

func TestNarratives(t *testing.T) {
	g := newGenerator(t)
	withPlace := models.CaseContext{Category: "sanitaer", PropertyAddress: "Hauptstraße 5", UnitDescriptor: "WE 3"}
	bare := models.CaseContext{Category: "elektro"}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "analysis with place",
			got:  g.AnalysisNarrative(withPlace),
			want: "Sanitärsanierung (Bad/WC) in Hauptstraße 5, WE 3. Detaillierte Abstimmung vor Ort erforderlich.",
		},
		{
			name: "analysis without place",
			got:  g.AnalysisNarrative(bare),
			want: "Elektroinstallation in dem Objekt. Detaillierte Abstimmung vor Ort erforderlich.",
		},
		{
			name: "from description keeps free text",
			got:  g.FromDescriptionNarrative(withPlace, "Wanne raus,\nDusche rein"),
			want: "Sanitärsanierung (Bad/WC) in Hauptstraße 5, WE 3. Basierend auf: Wanne raus,\nDusche rein",
		},
		{
			name: "description lists positions",
			got: g.DescriptionNarrative(bare, []models.LineItem{
				{Description: "Steckdosen setzen"},
				{Description: "Prüfung nach DIN VDE"},
			}),
			want: "Elektroinstallation für das Objekt:\n\n- Steckdosen setzen\n- Prüfung nach DIN VDE",
		},
		{
			name: "unknown category uses default label",
			got:  g.AnalysisNarrative(models.CaseContext{Category: "sonstige", PropertyAddress: "Weg 1"}),
			want: "Sanitärsanierung (Bad/WC) in Weg 1. Detaillierte Abstimmung vor Ort erforderlich.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestDescriptionNarrative_IsIdempotent(t *testing.T) {
	g := New(knowledge.MustDefault(), nil)
	c := models.CaseContext{Category: "maler", PropertyAddress: "Ring 2"}
	items := g.LineItems("maler")
	assert.Equal(t, g.DescriptionNarrative(c, items), g.DescriptionNarrative(c, items))
}
