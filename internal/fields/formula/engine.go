// Package formula implements the computed field engine: declarative
// formulas keyed by entity and field code, each carrying an explicit
// dependency list and a pure calculation over a raw row. The registry is
// built once at startup and never mutated, so lookups need no locking.
package formula

import (
	"github.com/dailies-app/dailies/internal/record"
)

// Kind classifies a formula for documentation and telemetry. It has no
// effect on evaluation.
type Kind int

const (
	Arithmetic Kind = iota
	DateDifference
	FrameArithmetic
	Conditional
	Concatenation
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Arithmetic:
		return "arithmetic"
	case DateDifference:
		return "date_difference"
	case FrameArithmetic:
		return "frame_arithmetic"
	case Conditional:
		return "conditional"
	case Concatenation:
		return "concatenation"
	default:
		return "unknown"
	}
}

// Formula is one computed field definition. DependsOn must be a safe
// over-approximation of every row key Calc reads; the engine does not
// detect dependency cycles, so authors keep the graph acyclic per entity.
type Formula struct {
	Entity    string
	Code      string
	Kind      Kind
	DependsOn []string
	// Calc computes the field's value from a raw row. It must be pure and
	// total over partially-populated rows: missing inputs yield nil (false
	// for boolean-typed results), never a panic.
	Calc func(row record.Row) interface{}
}

// dependsOn reports whether the formula's dependency list contains code.
func (f Formula) dependsOn(code string) bool {
	for _, dep := range f.DependsOn {
		if dep == code {
			return true
		}
	}
	return false
}

// Engine evaluates registered formulas. Immutable after construction.
type Engine struct {
	byEntity map[string][]Formula
}

// NewEngine builds an engine from a formula list. Registration order is
// preserved per entity and determines evaluation order.
func NewEngine(formulas []Formula) *Engine {
	byEntity := make(map[string][]Formula)
	for _, f := range formulas {
		byEntity[f.Entity] = append(byEntity[f.Entity], f)
	}
	return &Engine{byEntity: byEntity}
}

// ForEntity returns the formulas registered for an entity, in evaluation
// order. Unknown entities yield nil.
func (e *Engine) ForEntity(entity string) []Formula {
	return e.byEntity[entity]
}

// Formula returns the formula for one field code, if registered.
func (e *Engine) Formula(entity, code string) (Formula, bool) {
	for _, f := range e.byEntity[entity] {
		if f.Code == code {
			return f, true
		}
	}
	return Formula{}, false
}

// CalculateAll applies every formula for the entity against the row and
// returns the resulting patch. Used on initial enrichment.
func (e *Engine) CalculateAll(entity string, row record.Row) record.Row {
	patch := make(record.Row)
	for _, f := range e.byEntity[entity] {
		patch[f.Code] = f.Calc(row)
	}
	return patch
}

// Recalculate applies only the formulas whose dependency list contains the
// changed field code and returns their patch.
func (e *Engine) Recalculate(entity, changedCode string, row record.Row) record.Row {
	patch := make(record.Row)
	for _, f := range e.byEntity[entity] {
		if f.dependsOn(changedCode) {
			patch[f.Code] = f.Calc(row)
		}
	}
	return patch
}
