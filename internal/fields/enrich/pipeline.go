// Package enrich turns raw storage rows into display-ready rows: resolved
// reference labels, denormalized polymorphic link fields, and computed
// values merged in. It also prepares the storage-payload/UI-patch pair for
// a single field edit.
package enrich

import (
	"strings"

	"github.com/dailies-app/dailies/internal/fields/formula"
	"github.com/dailies-app/dailies/internal/fields/links"
	"github.com/dailies-app/dailies/internal/fields/resolve"
	"github.com/dailies-app/dailies/internal/record"
)

// LabelSuffix is appended to a reference field's code to form its resolved
// label key on enriched rows.
const LabelSuffix = "_label"

// Denormalized keys synthesized for the polymorphic link slot.
const (
	KeyEntityName         = "entity_name"
	KeyEntityCode         = "entity_code"
	KeyEntityStatus       = "entity_status"
	KeyEntityDescription  = "entity_description"
	KeyEntityThumbnailURL = "entity_thumbnail_url"
	KeyEntityLinkLabel    = "entity_link_label"
)

// Pipeline applies resolution labels and computed values onto raw rows.
type Pipeline struct {
	resolver *resolve.Resolver
	engine   *formula.Engine
}

// NewPipeline wires an enrichment pipeline.
func NewPipeline(resolver *resolve.Resolver, engine *formula.Engine) *Pipeline {
	return &Pipeline{resolver: resolver, engine: engine}
}

// Enrich produces the display-ready form of one row: {code}_label keys for
// every resolved reference field (falling back to the raw id when
// unresolved), denormalized entity_* keys for the polymorphic slot, and
// computed values merged in without overwriting non-nil stored values.
func (p *Pipeline) Enrich(entity string, row record.Row, resolution *links.Resolution) record.Row {
	enriched := row.Clone()
	descriptors := p.resolver.Definitions(entity)

	for _, d := range descriptors {
		if !d.IsReference() {
			continue
		}
		if d.IsPolymorphic() {
			p.applyPolymorphic(enriched, d, resolution)
			continue
		}
		p.applyReference(enriched, d, resolution)
	}

	mergeComputed(enriched, p.engine.CalculateAll(entity, enriched))
	return enriched
}

// EnrichAll enriches a batch of rows sharing one resolution map.
func (p *Pipeline) EnrichAll(entity string, rows []record.Row, resolution *links.Resolution) []record.Row {
	out := make([]record.Row, len(rows))
	for i, row := range rows {
		out[i] = p.Enrich(entity, row, resolution)
	}
	return out
}

// BuildUpdatePatch constructs the patch a caller applies optimistically
// after editing one field: the hypothetical post-edit row is recomputed in
// full (not just dependents) so the patch is self-consistent, and the
// edited field's label is refreshed when it is a reference.
func (p *Pipeline) BuildUpdatePatch(entity string, row record.Row, fieldCode string, newValue interface{}, resolution *links.Resolution) record.Row {
	hypothetical := row.Clone()
	hypothetical[fieldCode] = newValue

	patch := record.Row{fieldCode: newValue}
	for code, value := range p.engine.CalculateAll(entity, hypothetical) {
		if code == fieldCode {
			continue
		}
		// Values already present from storage win over computed ones.
		if row.Has(code) {
			continue
		}
		patch[code] = value
	}

	for _, d := range p.resolver.Definitions(entity) {
		if d.Code != fieldCode || !d.IsReference() {
			continue
		}
		if d.IsPolymorphic() {
			p.applyPolymorphic(hypothetical, d, resolution)
			patch[d.Code+LabelSuffix] = hypothetical[d.Code+LabelSuffix]
		} else {
			p.applyReference(hypothetical, d, resolution)
			patch[d.Code+LabelSuffix] = hypothetical[d.Code+LabelSuffix]
		}
		break
	}

	return patch
}

// applyReference sets {code}_label for a non-polymorphic reference field,
// falling back to the raw id when the target lookup produced no entry.
func (p *Pipeline) applyReference(row record.Row, d resolve.Descriptor, resolution *links.Resolution) {
	values := referenceValues(row, d.Code)
	if len(values) == 0 {
		return
	}

	labels := make([]string, len(values))
	for i, id := range values {
		if label, ok := resolution.Label(d.Code, id); ok {
			labels[i] = label
		} else {
			labels[i] = id
		}
	}
	row[d.Code+LabelSuffix] = strings.Join(labels, ", ")
}

// applyPolymorphic sets {code}_label plus the denormalized entity_* keys
// for the sibling-typed reference slot.
func (p *Pipeline) applyPolymorphic(row record.Row, d resolve.Descriptor, resolution *links.Resolution) {
	id, ok := row.String(d.Code)
	if !ok {
		return
	}
	entityType, _ := row.String("entity_type")

	label, resolved := resolution.PolyLabel(entityType, id)
	if !resolved {
		label = id
	}
	row[d.Code+LabelSuffix] = label

	rec, ok := resolution.PolyRecord(entityType, id)
	if !ok {
		return
	}

	setIfAbsent := func(key string, value interface{}, present bool) {
		if present && !row.Has(key) {
			row[key] = value
		}
	}
	name, okName := rec.String("name")
	if !okName {
		name, okName = rec.String("code")
	}
	setIfAbsent(KeyEntityName, name, okName)
	code, okCode := rec.String("code")
	setIfAbsent(KeyEntityCode, code, okCode)
	status, okStatus := rec.String("status")
	setIfAbsent(KeyEntityStatus, status, okStatus)
	description, okDesc := rec.String("description")
	setIfAbsent(KeyEntityDescription, description, okDesc)
	thumbnail, okThumb := rec.String("thumbnail_url")
	setIfAbsent(KeyEntityThumbnailURL, thumbnail, okThumb)

	if !row.Has(KeyEntityLinkLabel) {
		if entityType != "" {
			row[KeyEntityLinkLabel] = titleCase(entityType) + " " + label
		} else {
			row[KeyEntityLinkLabel] = label
		}
	}
}

// mergeComputed merges a computed patch into a row without overwriting
// non-nil values already present from storage.
func mergeComputed(row record.Row, patch record.Row) {
	for code, value := range patch {
		if row.Has(code) {
			continue
		}
		row[code] = value
	}
}

// referenceValues reads a field's reference value(s) in string form.
func referenceValues(row record.Row, code string) []string {
	v, ok := row.Get(code)
	if !ok {
		return nil
	}
	switch v.(type) {
	case []string, []interface{}:
		values, _ := record.CoerceStrings(v)
		return values
	default:
		if s, ok := record.CoerceString(v); ok {
			return []string{s}
		}
		return nil
	}
}

// titleCase uppercases the first letter of an ASCII word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}
