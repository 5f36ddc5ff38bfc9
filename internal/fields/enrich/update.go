package enrich

import (
	"strings"

	"github.com/dailies-app/dailies/internal/fields/formula"
	"github.com/dailies-app/dailies/internal/fields/links"
	"github.com/dailies-app/dailies/internal/fields/resolve"
	"github.com/dailies-app/dailies/internal/fields/types"
	"github.com/dailies-app/dailies/internal/record"
)

// Update is the pair of outputs for one normalized field edit: what to
// write to storage and what to apply to the UI optimistically.
type Update struct {
	// StoragePayload holds storage column -> serialized value: the edited
	// field plus every dependent computed field that has a real storage
	// column.
	StoragePayload record.Row
	// UIPatch holds field code -> canonical value: the edited field, every
	// dependent computed value (virtual or not), and a refreshed label for
	// reference fields.
	UIPatch record.Row
}

// UpdateHandler normalizes a single incoming edit through the field type
// registry and recomputes its dependent fields.
type UpdateHandler struct {
	engine *formula.Engine
}

// NewUpdateHandler wires a field update handler.
func NewUpdateHandler(engine *formula.Engine) *UpdateHandler {
	return &UpdateHandler{engine: engine}
}

// PrepareUpdate normalizes rawValue through the field's type behavior and
// returns the storage payload and UI patch for the edit. An unknown field
// code is a no-op normalize: the value passes through unchanged; callers
// are expected to have validated the field exists.
func (h *UpdateHandler) PrepareUpdate(
	entity string,
	row record.Row,
	fieldCode string,
	rawValue interface{},
	descriptors []resolve.Descriptor,
	resolution *links.Resolution,
) Update {
	byCode := make(map[string]resolve.Descriptor, len(descriptors))
	for _, d := range descriptors {
		byCode[d.Code] = d
	}

	canonical := rawValue
	serialized := rawValue
	descriptor, known := byCode[fieldCode]
	if known {
		behavior := types.ForType(descriptor.Type)
		canonical = behavior.Parse(rawValue)
		serialized = behavior.Serialize(canonical)
	}

	hypothetical := row.Clone()
	hypothetical[fieldCode] = canonical
	dependents := h.engine.Recalculate(entity, fieldCode, hypothetical)

	storage := record.Row{}
	if !known || descriptor.StorageColumn != "" {
		column := fieldCode
		if known {
			column = descriptor.StorageColumn
		}
		storage[column] = serialized
	}

	ui := record.Row{fieldCode: canonical}
	for code, value := range dependents {
		ui[code] = value
		dep, ok := byCode[code]
		if !ok || dep.StorageColumn == "" {
			// Virtual-only computed fields are excluded from writes.
			continue
		}
		storage[dep.StorageColumn] = types.ForType(dep.Type).Serialize(value)
	}

	if known && descriptor.IsReference() {
		ui[fieldCode+LabelSuffix] = h.refreshLabel(descriptor, hypothetical, canonical, resolution)
	}

	return Update{StoragePayload: storage, UIPatch: ui}
}

// refreshLabel resolves the edited reference's new label, falling back to
// the raw id form.
func (h *UpdateHandler) refreshLabel(d resolve.Descriptor, row record.Row, canonical interface{}, resolution *links.Resolution) string {
	if values, ok := canonical.([]string); ok {
		labels := make([]string, len(values))
		for i, id := range values {
			if label, ok := resolution.Label(d.Code, id); ok {
				labels[i] = label
			} else {
				labels[i] = id
			}
		}
		return strings.Join(labels, ", ")
	}

	id, ok := record.CoerceString(canonical)
	if !ok {
		return ""
	}
	if d.IsPolymorphic() {
		entityType, _ := row.String("entity_type")
		if label, ok := resolution.PolyLabel(entityType, id); ok {
			return label
		}
		return id
	}
	if label, ok := resolution.Label(d.Code, id); ok {
		return label
	}
	return id
}
