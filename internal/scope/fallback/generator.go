// Package fallback builds deterministic scope results from the category
// templates when generation is unusable.
package fallback

import (
	"strings"

	"github.com/google/uuid"

	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/knowledge"
)

const (
	syntheticRoomName  = "Raum"
	syntheticRoomArea  = 20
	inspectionAdvice   = "Detaillierte Analyse vor Ort empfohlen"
	coordinationRemark = "Detaillierte Abstimmung vor Ort erforderlich."
	unnamedObjectIn    = "dem Objekt"
	unnamedObjectFor   = "das Objekt"
	freeTextIntroducer = "Basierend auf: "
)

// Generator produces template-based results. It is safe for concurrent use.
type Generator struct {
	kb    *knowledge.Base
	newID func() string
}

// New creates a generator. A nil newID uses random UUIDs.
func New(kb *knowledge.Base, newID func() string) *Generator {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Generator{kb: kb, newID: newID}
}

// LineItems emits one lump-sum item per template position of category.
func (g *Generator) LineItems(category string) []models.LineItem {
	tpl, _ := g.kb.Template(category)
	items := make([]models.LineItem, len(tpl.Positions))
	for i, desc := range tpl.Positions {
		items[i] = models.LineItem{
			ID:          g.newID(),
			Position:    models.PositionFor(i + 1),
			Description: desc,
			Quantity:    1,
			Unit:        models.LumpSumUnit,
			IsGenerated: true,
		}
	}
	return items
}

// RoomAnalysis is a single synthetic room with an inspection recommendation.
func (g *Generator) RoomAnalysis() models.RoomAnalysis {
	ra := models.RoomAnalysis{
		Rooms: []models.Room{{
			Name:        syntheticRoomName,
			AreaSqm:     syntheticRoomArea,
			DoorCount:   1,
			WindowCount: 1,
			Fixtures:    []string{},
		}},
		ConditionNotes:  []string{},
		Recommendations: []string{inspectionAdvice},
	}
	ra.Recompute()
	return ra
}

// AnalysisNarrative is the analyze_and_generate narrative.
func (g *Generator) AnalysisNarrative(c models.CaseContext) string {
	return g.kb.Label(c.Category) + " in " + placeOr(c, unnamedObjectIn) + ". " + coordinationRemark
}

// FromDescriptionNarrative keeps the caller's free text verbatim.
func (g *Generator) FromDescriptionNarrative(c models.CaseContext, freeText string) string {
	return g.kb.Label(c.Category) + " in " + placeOr(c, unnamedObjectIn) + ". " + freeTextIntroducer + freeText
}

// DescriptionNarrative lists the given positions under the scope label.
// Identical input always yields identical text.
func (g *Generator) DescriptionNarrative(c models.CaseContext, items []models.LineItem) string {
	var b strings.Builder
	b.WriteString(g.kb.Label(c.Category))
	b.WriteString(" für ")
	b.WriteString(placeOr(c, unnamedObjectFor))
	b.WriteString(":\n")
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(item.Description)
	}
	return b.String()
}

func placeOr(c models.CaseContext, def string) string {
	if p := c.Place(); p != "" {
		return p
	}
	return def
}
