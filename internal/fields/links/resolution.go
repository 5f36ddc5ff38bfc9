// Package links resolves foreign-reference fields for batches of rows:
// grouping reference values by target, issuing one batched lookup per
// target, and folding the results into a resolution map of display labels.
// It also loads the selectable option sets choice-typed fields need. Both
// jobs fan their lookups out concurrently and tolerate per-target failure:
// a target that cannot be resolved simply contributes no entries.
package links

import (
	"sync"

	"github.com/dailies-app/dailies/internal/record"
)

// Resolution is the batch lookup result for one set of rows: field code to
// reference id to label, plus the polymorphic slot keyed by the sibling
// type column. Built fresh per batch and read-only afterwards.
type Resolution struct {
	mu sync.Mutex

	// fields maps field code -> reference id -> label.
	fields map[string]map[string]string

	// poly maps the composite "type:id" key to labels and full resolved
	// records. The composite key is authoritative when the row's type is
	// known.
	polyLabels  map[string]string
	polyRecords map[string]record.Row

	// bareIDs is the best-effort fallback for callers without type
	// context. Different entity types can share a numeric id; the first
	// resolved writer wins and later writers are dropped. This is a
	// deliberate compatibility shim, not an oversight.
	bareIDs map[string]string
}

// NewResolution returns an empty resolution map.
func NewResolution() *Resolution {
	return &Resolution{
		fields:      make(map[string]map[string]string),
		polyLabels:  make(map[string]string),
		polyRecords: make(map[string]record.Row),
		bareIDs:     make(map[string]string),
	}
}

// PolyKey builds the composite key for a polymorphic entry.
func PolyKey(entityType, id string) string {
	return entityType + ":" + id
}

// Label returns the resolved label for a field's reference id.
func (r *Resolution) Label(fieldCode, id string) (string, bool) {
	byID, ok := r.fields[fieldCode]
	if !ok {
		return "", false
	}
	label, ok := byID[id]
	return label, ok
}

// FieldEntries returns the id-to-label map for one field code.
func (r *Resolution) FieldEntries(fieldCode string) map[string]string {
	return r.fields[fieldCode]
}

// PolyLabel returns the label for a typed polymorphic key, falling back to
// the bare-id map when the type is unknown.
func (r *Resolution) PolyLabel(entityType, id string) (string, bool) {
	if entityType != "" {
		label, ok := r.polyLabels[PolyKey(entityType, id)]
		if ok {
			return label, true
		}
		return "", false
	}
	label, ok := r.bareIDs[id]
	return label, ok
}

// PolyRecord returns the full resolved record for a typed polymorphic key.
func (r *Resolution) PolyRecord(entityType, id string) (record.Row, bool) {
	row, ok := r.polyRecords[PolyKey(entityType, id)]
	return row, ok
}

// setFieldLabels merges an id-to-label map into one or more field slots.
// The same target map is shared across every field pointing at the target.
func (r *Resolution) setFieldLabels(fieldCodes []string, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, code := range fieldCodes {
		existing, ok := r.fields[code]
		if !ok {
			existing = make(map[string]string, len(labels))
			r.fields[code] = existing
		}
		for id, label := range labels {
			existing[id] = label
		}
	}
}

// setPoly merges one resolved polymorphic group.
func (r *Resolution) setPoly(entityType string, rows map[string]record.Row, labels map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, label := range labels {
		key := PolyKey(entityType, id)
		r.polyLabels[key] = label
		if row, ok := rows[id]; ok {
			r.polyRecords[key] = row
		}
		// First writer wins on bare-id collisions across types.
		if _, taken := r.bareIDs[id]; !taken {
			r.bareIDs[id] = label
		}
	}
}
