// Package prompt compiles pipeline inputs into generation instructions.
// Compile is pure: it performs no I/O and returns the same instruction for
// the same input.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/shape"
)

// InteriorOnly is included in every system instruction.
const InteriorOnly = "WICHTIG: Du erstellst NUR Innensanierungen (Wohnung/Haus), KEINE kompletten Gebäudesanierungen (Fassade, Dachstuhl, Gebäudehülle)."

const (
	unknownObject = "unbekannt"
	wholeObject   = "Gesamtes Objekt"
	noDocuments   = "keine Dokumente"
	defaultRegion = "Deutschland"
)

// Input is everything a prompt may depend on.
type Input struct {
	Action    models.Action
	Context   models.CaseContext
	LineItems []models.LineItem
	FreeText  string
	AreaSqm   *float64
}

// Instruction is a compiled prompt and the shape the reply must take.
type Instruction struct {
	Kind   shape.Kind
	System string
	User   string
}

// Len is the combined prompt length, logged instead of the prompt body.
func (i Instruction) Len() int {
	return len(i.System) + len(i.User)
}

// Compile builds the instruction for in.Action.
func Compile(in Input) (Instruction, error) {
	switch in.Action {
	case models.ActionAnalyzeAndGenerate:
		return analysis(in), nil
	case models.ActionEstimateCosts:
		return costEstimate(in), nil
	case models.ActionGenerateDescription:
		return narrative(in), nil
	case models.ActionGenerateFromDescription:
		return fromDescription(in), nil
	default:
		return Instruction{}, fmt.Errorf("no prompt for action %q", in.Action)
	}
}

func analysis(in Input) Instruction {
	c := in.Context
	var b strings.Builder
	b.WriteString("Erstelle ein Leistungsverzeichnis für folgende Sanierung:\n\n")
	writeCaseLines(&b, c)
	fmt.Fprintf(&b, "Verfügbare Dokumente: %s\n", Documents(c.Documents))
	fmt.Fprintf(&b, "\nBasierend auf der Kategorie \"%s\" und typischen Sanierungsarbeiten, erstelle:\n", c.Category)
	b.WriteString("1. Eine Raumanalyse (geschätzt basierend auf typischer Wohnung falls keine Grundrisse verfügbar)\n")
	b.WriteString("2. Ein strukturiertes Leistungsverzeichnis mit Positionen\n")
	b.WriteString("3. Eine Freitext-Beschreibung für die Ausschreibung\n")
	writeShape(&b, shape.KindAnalysis)

	return Instruction{
		Kind: shape.KindAnalysis,
		System: system(
			"Du bist ein Experte für Sanierungsausschreibungen in Deutschland.",
			"Du analysierst Wohnungs- und Haussanierungen (Innensanierung) und erstellst strukturierte Leistungsverzeichnisse.",
		),
		User: b.String(),
	}
}

func costEstimate(in Input) Instruction {
	region := in.Context.Location
	if region == "" {
		region = defaultRegion
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Schätze die Kosten für folgende Sanierungsarbeiten in %s:\n\n", region)
	fmt.Fprintf(&b, "Kategorie: %s\n", in.Context.Category)
	writeArea(&b, in.AreaSqm)
	b.WriteString("\nPositionen:\n")
	b.WriteString(Positions(in.LineItems))
	b.WriteString("\nDie Werte sind Gesamtkosten in Cent. min = günstige Ausführung, mid = Standard, max = Premium. Es muss gelten: min <= mid <= max.\n")
	writeShape(&b, shape.KindCostEstimate)

	return Instruction{
		Kind: shape.KindCostEstimate,
		System: system(
			"Du bist ein Kostenexperte für Sanierungen in Deutschland. Schätze realistische Kosten basierend auf aktuellen Marktpreisen.",
		),
		User: b.String(),
	}
}

func narrative(in Input) Instruction {
	var b strings.Builder
	b.WriteString("Erstelle eine professionelle Leistungsbeschreibung für eine Ausschreibung:\n\n")
	writeCaseLines(&b, in.Context)
	b.WriteString("\nPositionen:\n")
	b.WriteString(Positions(in.LineItems))
	b.WriteString("\nSchreibe eine klare, professionelle Beschreibung für die Ausschreibungs-E-Mail (max. 300 Wörter).\n")
	writeShape(&b, shape.KindNarrative)

	return Instruction{
		Kind: shape.KindNarrative,
		System: system(
			"Du erstellst professionelle Leistungsbeschreibungen für Handwerkerausschreibungen.",
		),
		User: b.String(),
	}
}

func fromDescription(in Input) Instruction {
	var b strings.Builder
	b.WriteString("Erstelle aus folgender Freitextbeschreibung ein strukturiertes Leistungsverzeichnis für eine Innensanierung:\n\n")
	fmt.Fprintf(&b, "Beschreibung: \"%s\"\n", in.FreeText)
	writeCaseLines(&b, in.Context)
	writeArea(&b, in.AreaSqm)
	b.WriteString("\nErstelle:\n")
	b.WriteString("1. Eine Raumanalyse (geschätzt aus der Beschreibung)\n")
	b.WriteString("2. Ein detailliertes Leistungsverzeichnis mit nummerierten Positionen, Mengen und Einheiten\n")
	b.WriteString("3. Eine professionelle Ausschreibungsbeschreibung (max. 200 Wörter)\n")
	b.WriteString("4. Eine Kostenschätzung der Gesamtkosten in Cent (min <= mid <= max)\n")
	writeShape(&b, shape.KindFromDescription)

	return Instruction{
		Kind: shape.KindFromDescription,
		System: system(
			"Du bist ein Experte für Sanierungsausschreibungen in Deutschland (Innensanierung).",
			"Du erstellst aus Freitextbeschreibungen strukturierte Leistungsverzeichnisse mit realistischen Kostenschätzungen.",
		),
		User: b.String(),
	}
}

func system(lines ...string) string {
	lines = append(lines, "", InteriorOnly, "", "Antworte immer ausschließlich mit einem JSON-Objekt.")
	return strings.Join(lines, "\n")
}

func writeCaseLines(b *strings.Builder, c models.CaseContext) {
	fmt.Fprintf(b, "Kategorie: %s\n", c.Category)
	fmt.Fprintf(b, "Objekt: %s\n", orDefault(c.PropertyAddress, unknownObject))
	fmt.Fprintf(b, "Einheit: %s\n", orDefault(c.UnitDescriptor, wholeObject))
	if c.Location != "" && c.Location != c.PropertyAddress {
		fmt.Fprintf(b, "Ort: %s\n", c.Location)
	}
}

func writeArea(b *strings.Builder, area *float64) {
	if area != nil && *area > 0 {
		fmt.Fprintf(b, "Fläche: ca. %s m²\n", strconv.FormatFloat(*area, 'f', -1, 64))
	}
}

func writeShape(b *strings.Builder, kind shape.Kind) {
	b.WriteString("\nDie Antwort muss exakt diesem JSON-Schema entsprechen:\n")
	b.WriteString(shape.SchemaJSON(kind))
	b.WriteString("\n\nBeispiel:\n")
	b.WriteString(shape.Example(kind))
	b.WriteString("\n")
}

// Positions renders line items one per line as "pos: description (qty unit)".
func Positions(items []models.LineItem) string {
	var b strings.Builder
	for i, item := range items {
		pos := item.Position
		if pos == "" {
			pos = models.PositionFor(i + 1)
		}
		fmt.Fprintf(&b, "%s: %s (%s %s)\n",
			pos, item.Description, strconv.FormatFloat(item.Quantity, 'f', -1, 64), item.Unit)
	}
	return b.String()
}

// Documents renders document metadata as "name (doc_type)", comma separated.
func Documents(docs []models.Document) string {
	if len(docs) == 0 {
		return noDocuments
	}
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = fmt.Sprintf("%s (%s)", d.Name, orDefault(d.DocType, unknownObject))
	}
	return strings.Join(parts, ", ")
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
