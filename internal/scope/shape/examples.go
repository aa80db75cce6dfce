package shape

const roomAnalysisExample = `{
    "rooms": [
      {"name": "Bad", "area_sqm": 6.5, "door_count": 1, "window_count": 1, "fixtures": ["Dusche", "WC", "Waschtisch"]}
    ],
    "total_area_sqm": 6.5,
    "total_doors": 1,
    "total_windows": 1,
    "condition_notes": ["Bad: Fliesen veraltet, Silikonfugen schadhaft"],
    "recommendations": ["Komplettsanierung des Bades empfohlen"]
  }`

const lineItemsExample = `[
    {"position": "1.1", "description": "Demontage Sanitärobjekte", "quantity": 1, "unit": "psch"},
    {"position": "1.2", "description": "Wandfliesen liefern & verlegen", "quantity": 18.5, "unit": "m²", "estimated_unit_price": 9500, "estimated_total": 175750}
  ]`

var examples = map[Kind]string{
	KindAnalysis: `{
  "room_analysis": ` + roomAnalysisExample + `,
  "line_items": ` + lineItemsExample + `,
  "scope_description": "Komplettsanierung des Bades im 2. OG: Rückbau der Sanitärobjekte und Altfliesen, neue Abdichtung nach DIN 18534, Fliesenarbeiten sowie Montage neuer Sanitärobjekte."
}`,
	KindCostEstimate: `{"min": 500000, "mid": 750000, "max": 1200000}`,
	KindNarrative: `{
  "scope_description": "Ausgeschrieben wird die Sanierung des Bades: Demontage der Sanitärobjekte, Abdichtung, Fliesenarbeiten und Montage neuer Objekte. Besichtigung nach Absprache."
}`,
	KindFromDescription: `{
  "room_analysis": ` + roomAnalysisExample + `,
  "line_items": ` + lineItemsExample + `,
  "scope_description": "Professionelle Ausschreibungsbeschreibung der Badsanierung.",
  "cost_estimate_min": 500000,
  "cost_estimate_mid": 800000,
  "cost_estimate_max": 1200000
}`,
}

// Example returns a worked example that satisfies Schema(kind).
func Example(kind Kind) string {
	ex, ok := examples[kind]
	if !ok {
		panic("shape: no example for kind " + string(kind))
	}
	return ex
}
