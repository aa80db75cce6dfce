// Package parser validates and normalizes structured generation output.
// Anything that does not match the declared shape is reported as
// ErrUnusable so the caller can fall back.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/money"
	"renovation-scope/internal/scope/shape"
)

var ErrUnusable = errors.New("unusable generation output")

var positionRe = regexp.MustCompile(shape.PositionPattern)

type compiledSchemas struct {
	rooms           *gojsonschema.Schema
	lineItems       *gojsonschema.Schema
	narrative       *gojsonschema.Schema
	costEstimate    *gojsonschema.Schema
	fromDescription *gojsonschema.Schema
}

var (
	schemasOnce sync.Once
	schemas     compiledSchemas
)

func mustCompile(doc map[string]interface{}) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("parser: invalid schema: %v", err))
	}
	return s
}

func compiled() *compiledSchemas {
	schemasOnce.Do(func() {
		schemas = compiledSchemas{
			rooms:           mustCompile(shape.RoomAnalysisSchema()),
			lineItems:       mustCompile(shape.LineItemsSchema()),
			narrative:       mustCompile(shape.NarrativeSchema()),
			costEstimate:    mustCompile(shape.Schema(shape.KindCostEstimate)),
			fromDescription: mustCompile(shape.Schema(shape.KindFromDescription)),
		}
	})
	return &schemas
}

// Parser turns raw payloads into pipeline types. IDs of parsed line items
// are always generated here.
type Parser struct {
	newID func() string
}

// New creates a parser. A nil newID uses random UUIDs.
func New(newID func() string) *Parser {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Parser{newID: newID}
}

// Analysis is the analyze_and_generate reply. Each section carries its own
// error so usable sections survive when another one is broken.
type Analysis struct {
	RoomAnalysis    *models.RoomAnalysis
	RoomAnalysisErr error
	LineItems       []models.LineItem
	LineItemsErr    error
	Narrative       string
	NarrativeErr    error
}

// FromDescription is the atomic generate_from_description reply.
type FromDescription struct {
	RoomAnalysis models.RoomAnalysis
	LineItems    []models.LineItem
	Narrative    string
	Costs        money.Triple
}

// ParseAnalysis parses each section independently. An error is returned
// only when the payload is not a JSON object at all.
func (p *Parser) ParseAnalysis(raw string) (Analysis, error) {
	top, err := decodeObject(raw)
	if err != nil {
		return Analysis{}, err
	}
	s := compiled()

	var out Analysis
	if err := validate(s.rooms, top[shape.FieldRoomAnalysis], shape.FieldRoomAnalysis); err != nil {
		out.RoomAnalysisErr = err
	} else if ra, err := decodeRoomAnalysis(top[shape.FieldRoomAnalysis]); err != nil {
		out.RoomAnalysisErr = err
	} else {
		out.RoomAnalysis = &ra
	}

	if err := validate(s.lineItems, top[shape.FieldLineItems], shape.FieldLineItems); err != nil {
		out.LineItemsErr = err
	} else if items, err := p.decodeLineItems(top[shape.FieldLineItems]); err != nil {
		out.LineItemsErr = err
	} else {
		out.LineItems = items
	}

	if err := validate(s.narrative, top[shape.FieldScopeDescription], shape.FieldScopeDescription); err != nil {
		out.NarrativeErr = err
	} else if text, err := decodeNarrative(top[shape.FieldScopeDescription]); err != nil {
		out.NarrativeErr = err
	} else {
		out.Narrative = text
	}

	return out, nil
}

// ParseEstimate accepts only bounds that are already ordered.
func (p *Parser) ParseEstimate(raw string) (money.Triple, error) {
	top, err := decodeObject(raw)
	if err != nil {
		return money.Triple{}, err
	}
	body, _ := json.Marshal(top)
	if err := validate(compiled().costEstimate, body, "cost estimate"); err != nil {
		return money.Triple{}, err
	}
	return decodeTriple(top[shape.FieldMin], top[shape.FieldMid], top[shape.FieldMax])
}

// ParseNarrative reads the scope_description of a narrative reply.
func (p *Parser) ParseNarrative(raw string) (string, error) {
	top, err := decodeObject(raw)
	if err != nil {
		return "", err
	}
	if err := validate(compiled().narrative, top[shape.FieldScopeDescription], shape.FieldScopeDescription); err != nil {
		return "", err
	}
	return decodeNarrative(top[shape.FieldScopeDescription])
}

// ParseFromDescription is all or nothing: any invalid section rejects the
// whole reply.
func (p *Parser) ParseFromDescription(raw string) (FromDescription, error) {
	top, err := decodeObject(raw)
	if err != nil {
		return FromDescription{}, err
	}
	body, _ := json.Marshal(top)
	if err := validate(compiled().fromDescription, body, "from description"); err != nil {
		return FromDescription{}, err
	}

	ra, err := decodeRoomAnalysis(top[shape.FieldRoomAnalysis])
	if err != nil {
		return FromDescription{}, err
	}
	items, err := p.decodeLineItems(top[shape.FieldLineItems])
	if err != nil {
		return FromDescription{}, err
	}
	text, err := decodeNarrative(top[shape.FieldScopeDescription])
	if err != nil {
		return FromDescription{}, err
	}
	costs, err := decodeTriple(top[shape.FieldCostMin], top[shape.FieldCostMid], top[shape.FieldCostMax])
	if err != nil {
		return FromDescription{}, err
	}

	return FromDescription{RoomAnalysis: ra, LineItems: items, Narrative: text, Costs: costs}, nil
}

func unusable(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnusable, fmt.Sprintf(format, args...))
}

// decodeObject tolerates a markdown code fence around the payload.
func decodeObject(raw string) (map[string]json.RawMessage, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return nil, unusable("payload is not a JSON object: %v", err)
	}
	if top == nil {
		return nil, unusable("payload is null")
	}
	return top, nil
}

func validate(schema *gojsonschema.Schema, section json.RawMessage, name string) error {
	if len(section) == 0 {
		return unusable("%s is missing", name)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(section))
	if err != nil {
		return unusable("%s: %v", name, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return unusable("%s: %s", name, strings.Join(msgs, "; "))
	}
	return nil
}

type wireRoom struct {
	Name        string   `json:"name"`
	AreaSqm     float64  `json:"area_sqm"`
	DoorCount   float64  `json:"door_count"`
	WindowCount float64  `json:"window_count"`
	Fixtures    []string `json:"fixtures"`
}

type wireRoomAnalysis struct {
	Rooms           []wireRoom `json:"rooms"`
	TotalAreaSqm    *float64   `json:"total_area_sqm"`
	TotalDoors      *float64   `json:"total_doors"`
	TotalWindows    *float64   `json:"total_windows"`
	ConditionNotes  []string   `json:"condition_notes"`
	Recommendations []string   `json:"recommendations"`
}

func decodeRoomAnalysis(raw json.RawMessage) (models.RoomAnalysis, error) {
	var w wireRoomAnalysis
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.RoomAnalysis{}, unusable("room_analysis: %v", err)
	}

	ra := models.RoomAnalysis{
		Rooms:           make([]models.Room, 0, len(w.Rooms)),
		ConditionNotes:  nonNil(w.ConditionNotes),
		Recommendations: nonNil(w.Recommendations),
	}
	for _, r := range w.Rooms {
		ra.Rooms = append(ra.Rooms, models.Room{
			Name:        strings.TrimSpace(r.Name),
			AreaSqm:     r.AreaSqm,
			DoorCount:   int(r.DoorCount),
			WindowCount: int(r.WindowCount),
			Fixtures:    nonNil(r.Fixtures),
		})
	}

	// Totals the backend supplied are kept; missing ones are summed.
	sums := ra
	sums.Recompute()
	ra.TotalAreaSqm = valueOr(w.TotalAreaSqm, sums.TotalAreaSqm)
	ra.TotalDoors = int(valueOr(w.TotalDoors, float64(sums.TotalDoors)))
	ra.TotalWindows = int(valueOr(w.TotalWindows, float64(sums.TotalWindows)))
	return ra, nil
}

type wireLineItem struct {
	Position           string       `json:"position"`
	Description        string       `json:"description"`
	Quantity           json.Number  `json:"quantity"`
	Unit               string       `json:"unit"`
	EstimatedUnitPrice *json.Number `json:"estimated_unit_price"`
	EstimatedTotal     *json.Number `json:"estimated_total"`
}

func (p *Parser) decodeLineItems(raw json.RawMessage) ([]models.LineItem, error) {
	var wire []wireLineItem
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, unusable("line_items: %v", err)
	}

	items := make([]models.LineItem, 0, len(wire))
	for i, w := range wire {
		qty, err := money.FromNumber(w.Quantity)
		if err != nil {
			return nil, unusable("line_items[%d].quantity: %v", i, err)
		}
		qtyFloat, _ := qty.Float64()

		position := strings.TrimSpace(w.Position)
		if !positionRe.MatchString(position) {
			position = models.PositionFor(i + 1)
		}

		item := models.LineItem{
			ID:          p.newID(),
			Position:    position,
			Description: strings.TrimSpace(w.Description),
			Quantity:    qtyFloat,
			Unit:        strings.TrimSpace(w.Unit),
			IsGenerated: true,
		}

		var unitPrice *big.Rat
		if w.EstimatedUnitPrice != nil {
			if unitPrice, err = money.FromNumber(*w.EstimatedUnitPrice); err != nil {
				return nil, unusable("line_items[%d].estimated_unit_price: %v", i, err)
			}
			v, err := money.ToMinor(unitPrice)
			if err != nil {
				return nil, unusable("line_items[%d].estimated_unit_price: %v", i, err)
			}
			item.EstimatedUnitPrice = &v
		}
		switch {
		case w.EstimatedTotal != nil:
			total, err := money.FromNumber(*w.EstimatedTotal)
			if err != nil {
				return nil, unusable("line_items[%d].estimated_total: %v", i, err)
			}
			v, err := money.ToMinor(total)
			if err != nil {
				return nil, unusable("line_items[%d].estimated_total: %v", i, err)
			}
			item.EstimatedTotal = &v
		case unitPrice != nil:
			v, err := money.ToMinor(new(big.Rat).Mul(unitPrice, qty))
			if err != nil || v > money.MaxAmount {
				return nil, unusable("line_items[%d]: derived total out of range", i)
			}
			item.EstimatedTotal = &v
		}

		items = append(items, item)
	}
	return items, nil
}

func decodeNarrative(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", unusable("scope_description: %v", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", unusable("scope_description is blank")
	}
	return text, nil
}

func decodeTriple(lo, mid, hi json.RawMessage) (money.Triple, error) {
	var t money.Triple
	for _, f := range []struct {
		raw    json.RawMessage
		target **big.Rat
		name   string
	}{
		{lo, &t.Min, "min"},
		{mid, &t.Mid, "mid"},
		{hi, &t.Max, "max"},
	} {
		var n json.Number
		if err := json.Unmarshal(f.raw, &n); err != nil {
			return money.Triple{}, unusable("%s: %v", f.name, err)
		}
		r, err := money.FromNumber(n)
		if err != nil {
			return money.Triple{}, unusable("%s: %v", f.name, err)
		}
		*f.target = r
	}

	if !t.Ordered() {
		return money.Triple{}, unusable("bounds not ordered: %s/%s/%s",
			t.Min.FloatString(0), t.Mid.FloatString(0), t.Max.FloatString(0))
	}
	if t.Max.Sign() <= 0 {
		return money.Triple{}, unusable("estimate is zero")
	}
	return t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
