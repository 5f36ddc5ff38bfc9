// Package resolve merges the static schema catalogue, the computed field
// engine, and the field-to-target map into ordered field descriptor lists,
// one per entity. Descriptors are built on demand and never mutated after
// construction.
package resolve

import (
	"sort"
	"strings"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/formula"
	"github.com/dailies-app/dailies/internal/fields/types"
)

// OptionSourceKind names where a field's selectable values come from.
type OptionSourceKind string

const (
	OptionSourceStatus OptionSourceKind = "status"
	OptionSourceTags   OptionSourceKind = "tags"
	OptionSourceEntity OptionSourceKind = "entity"
)

// OptionSource describes the catalogue a field's allowed values are drawn
// from.
type OptionSource struct {
	Kind OptionSourceKind `json:"kind"`
	// Target is the link target key for entity-sourced options.
	Target string `json:"target,omitempty"`
}

// Descriptor is the resolved, per-entity configuration record for one
// field. Immutable after construction.
type Descriptor struct {
	Code          string          `json:"code"`
	Label         string          `json:"label"`
	Type          types.FieldType `json:"type"`
	StorageColumn string          `json:"storage_column,omitempty"` // empty means purely virtual
	Editable      bool            `json:"editable"`
	ReadOnly      bool            `json:"read_only"`
	// Target is the link target for reference fields;
	// catalog.TargetPolymorphic for sibling-typed fields; empty otherwise.
	Target       string           `json:"target,omitempty"`
	OptionSource *OptionSource    `json:"option_source,omitempty"`
	Formula      *formula.Formula `json:"-"`
	DisplayOrder int              `json:"display_order"`
	Width        int              `json:"width,omitempty"`
	Hidden       bool             `json:"hidden,omitempty"`
}

// IsReference reports whether the descriptor is a foreign reference field.
func (d Descriptor) IsReference() bool {
	return d.Target != ""
}

// IsPolymorphic reports whether the descriptor's target is resolved from
// the sibling type column.
func (d Descriptor) IsPolymorphic() bool {
	return d.Target == catalog.TargetPolymorphic
}

// systemColumns are owned by the system and never user-editable.
var systemColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"created_by": true,
	"updated_by": true,
}

// Resolver builds field descriptor lists.
type Resolver struct {
	catalogue catalog.Catalogue
	engine    *formula.Engine
}

// NewResolver wires a resolver over the catalogue and formula engine.
func NewResolver(catalogue catalog.Catalogue, engine *formula.Engine) *Resolver {
	return &Resolver{catalogue: catalogue, engine: engine}
}

// Definitions returns the ordered descriptor list for an entity. An entity
// with no registered schema yields an empty list, never an error.
func (r *Resolver) Definitions(entity string) []Descriptor {
	schema := r.catalogue.EntitySchema(entity)
	if len(schema) == 0 {
		return []Descriptor{}
	}
	targets := r.catalogue.Targets(entity)

	descriptors := make([]Descriptor, 0, len(schema))
	byCode := make(map[string]int, len(schema))
	maxOrder := 0
	for _, field := range schema {
		d := r.buildDescriptor(entity, field, targets)
		byCode[d.Code] = len(descriptors)
		descriptors = append(descriptors, d)
		if d.DisplayOrder > maxOrder {
			maxOrder = d.DisplayOrder
		}
	}

	// Merge registered formulas: attach to matching descriptors, or
	// synthesize virtual read-only descriptors ordered after the schema
	// fields.
	for _, f := range r.engine.ForEntity(entity) {
		f := f
		if idx, ok := byCode[f.Code]; ok {
			descriptors[idx].Formula = &f
			// Stored computed fields stay editable if their column
			// allows it; only virtual ones are forced read-only.
			if descriptors[idx].StorageColumn == "" {
				descriptors[idx].ReadOnly = true
				descriptors[idx].Editable = false
			}
			continue
		}
		maxOrder += 10
		descriptors = append(descriptors, Descriptor{
			Code:         f.Code,
			Label:        labelFromCode(f.Code),
			Type:         virtualType(f),
			Editable:     false,
			ReadOnly:     true,
			Formula:      &f,
			DisplayOrder: maxOrder,
			Width:        defaultWidth(types.Calculated),
		})
	}

	// Display order, ties broken by original schema position.
	sort.SliceStable(descriptors, func(i, j int) bool {
		return descriptors[i].DisplayOrder < descriptors[j].DisplayOrder
	})
	return descriptors
}

// buildDescriptor resolves one schema field into a descriptor.
func (r *Resolver) buildDescriptor(entity string, field catalog.SchemaField, targets map[string]string) Descriptor {
	target := targets[field.Code]
	fieldType := resolveType(field, target)
	behavior := types.ForType(fieldType)

	editable := behavior.Editable &&
		!systemColumns[field.Code] &&
		field.FieldKind != "system" &&
		!field.Virtual

	d := Descriptor{
		Code:          field.Code,
		Label:         field.Name,
		Type:          fieldType,
		StorageColumn: field.StorageColumn,
		Editable:      editable,
		ReadOnly:      !editable,
		Target:        target,
		DisplayOrder:  field.DisplayOrder,
		Width:         defaultWidth(fieldType),
		Hidden:        field.FieldKind == "system",
	}
	if d.Label == "" {
		d.Label = labelFromCode(field.Code)
	}
	d.OptionSource = optionSourceFor(d)
	return d
}

// resolveType maps a schema field's raw declared type to a field type.
// An explicit target from the field-to-target map always wins over
// column-name heuristics; heuristics only apply when the declared type is
// generic.
func resolveType(field catalog.SchemaField, target string) types.FieldType {
	declared := types.ParseFieldType(field.DeclaredType)

	if target != "" {
		if declared == types.MultiEntity || strings.HasSuffix(field.Code, "_ids") {
			return types.MultiEntity
		}
		return types.Entity
	}

	// Name heuristics for generic declared types only.
	if declared == types.Text && !isExplicitType(field.DeclaredType) {
		switch {
		case strings.HasSuffix(field.Code, "_at"):
			return types.DateTime
		case field.Code == "status" || strings.HasSuffix(field.Code, "_status"):
			return types.StatusList
		case strings.HasSuffix(field.Code, "_url"):
			return types.URL
		case field.Code == "tags":
			return types.TagList
		case field.Code == "color":
			return types.Color
		}
	}
	return declared
}

// isExplicitType reports whether the raw name explicitly means text, as
// opposed to an unknown name that degraded to Text.
func isExplicitType(raw string) bool {
	switch raw {
	case "text", "string", "varchar":
		return true
	}
	return false
}

// optionSourceFor attaches the option source a field type needs, if any.
// Polymorphic references carry no source: their target is only known per
// row.
func optionSourceFor(d Descriptor) *OptionSource {
	switch {
	case d.Type == types.StatusList:
		return &OptionSource{Kind: OptionSourceStatus}
	case d.Type == types.TagList:
		return &OptionSource{Kind: OptionSourceTags}
	case d.IsReference() && !d.IsPolymorphic():
		return &OptionSource{Kind: OptionSourceEntity, Target: d.Target}
	default:
		return nil
	}
}

// virtualType picks the field type for a synthesized formula-only
// descriptor from the formula's result shape.
func virtualType(f formula.Formula) types.FieldType {
	switch f.Kind {
	case formula.Conditional:
		return types.Boolean
	case formula.Concatenation:
		return types.Text
	default:
		return types.Calculated
	}
}

// defaultWidth is the default column width hint per type.
func defaultWidth(t types.FieldType) int {
	switch t {
	case types.LongText:
		return 280
	case types.Boolean:
		return 80
	case types.Integer, types.Float, types.Duration, types.Percent:
		return 100
	case types.Date:
		return 110
	case types.DateTime:
		return 160
	case types.Image:
		return 90
	case types.StatusList:
		return 120
	case types.MultiEntity, types.TagList:
		return 200
	default:
		return 140
	}
}

// labelFromCode humanizes a field code: "days_overdue" -> "Days Overdue".
func labelFromCode(code string) string {
	parts := strings.Split(code, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p == "id" || p == "ids" || p == "url" || p == "fps" {
			parts[i] = strings.ToUpper(p)
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
