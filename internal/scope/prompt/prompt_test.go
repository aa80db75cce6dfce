package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/shape"
)

func testContext() models.CaseContext {
	return models.CaseContext{
		CaseID:          "case-1",
		Category:        "sanitaer",
		PropertyAddress: "Hauptstraße 5, 10115 Berlin",
		UnitDescriptor:  "WE 3, 2. OG",
		Location:        "Berlin",
		Documents: []models.Document{
			{ID: "d1", Name: "Grundriss.pdf", DocType: "floor_plan"},
			{ID: "d2", Name: "Foto.jpg"},
		},
	}
}

func TestCompile(t *testing.T) {
	area := 42.5
	items := []models.LineItem{
		{Position: "1.1", Description: "Demontage Sanitärobjekte", Quantity: 1, Unit: "psch"},
		{Description: "Wandfliesen", Quantity: 18.5, Unit: "m²"},
	}

	tests := []struct {
		name     string
		input    Input
		kind     shape.Kind
		contains []string
	}{
		{
			name:  "analysis embeds case and documents",
			input: Input{Action: models.ActionAnalyzeAndGenerate, Context: testContext()},
			kind:  shape.KindAnalysis,
			contains: []string{
				"Kategorie: sanitaer",
				"Objekt: Hauptstraße 5, 10115 Berlin",
				"Einheit: WE 3, 2. OG",
				"Ort: Berlin",
				"Grundriss.pdf (floor_plan), Foto.jpg (unbekannt)",
			},
		},
		{
			name:  "cost estimate embeds positions and region",
			input: Input{Action: models.ActionEstimateCosts, Context: testContext(), LineItems: items, AreaSqm: &area},
			kind:  shape.KindCostEstimate,
			contains: []string{
				"Sanierungsarbeiten in Berlin",
				"1.1: Demontage Sanitärobjekte (1 psch)",
				"1.2: Wandfliesen (18.5 m²)",
				"Fläche: ca. 42.5 m²",
			},
		},
		{
			name:     "narrative embeds positions",
			input:    Input{Action: models.ActionGenerateDescription, Context: testContext(), LineItems: items},
			kind:     shape.KindNarrative,
			contains: []string{"Positionen:", "1.2: Wandfliesen (18.5 m²)"},
		},
		{
			name: "from description quotes free text verbatim",
			input: Input{
				Action:   models.ActionGenerateFromDescription,
				Context:  testContext(),
				FreeText: "Bad komplett neu, Wanne raus",
				AreaSqm:  &area,
			},
			kind:     shape.KindFromDescription,
			contains: []string{`Beschreibung: "Bad komplett neu, Wanne raus"`, "Fläche: ca. 42.5 m²"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instr, err := Compile(tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.kind, instr.Kind)
			assert.Contains(t, instr.System, InteriorOnly)
			assert.Contains(t, instr.User, shape.SchemaJSON(tt.kind))
			assert.Contains(t, instr.User, shape.Example(tt.kind))
			for _, want := range tt.contains {
				assert.Contains(t, instr.User, want)
			}
			assert.Equal(t, len(instr.System)+len(instr.User), instr.Len())
		})
	}
}

func TestCompile_IsDeterministic(t *testing.T) {
	in := Input{Action: models.ActionAnalyzeAndGenerate, Context: testContext()}
	first, err := Compile(in)
	require.NoError(t, err)
	second, err := Compile(in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompile_Defaults(t *testing.T) {
	instr, err := Compile(Input{
		Action:  models.ActionEstimateCosts,
		Context: models.CaseContext{Category: "elektro"},
	})
	require.NoError(t, err)
	assert.Contains(t, instr.User, "Sanierungsarbeiten in Deutschland")

	instr, err = Compile(Input{
		Action:  models.ActionAnalyzeAndGenerate,
		Context: models.CaseContext{Category: "elektro"},
	})
	require.NoError(t, err)
	assert.Contains(t, instr.User, "Objekt: unbekannt")
	assert.Contains(t, instr.User, "Einheit: Gesamtes Objekt")
	assert.Contains(t, instr.User, "Verfügbare Dokumente: keine Dokumente")
	assert.NotContains(t, instr.User, "Ort:")
	assert.NotContains(t, instr.User, "Fläche:")
}

func TestCompile_UnknownAction(t *testing.T) {
	_, err := Compile(Input{Action: "bogus"})
	assert.Error(t, err)
}
