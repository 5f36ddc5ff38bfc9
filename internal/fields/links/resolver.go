package links

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/record"
	"github.com/dailies-app/dailies/internal/store"
)

// Scope optionally restricts lookups, e.g. to one project.
type Scope struct {
	ProjectID interface{}
}

// Resolver resolves foreign-reference fields for batches of rows.
type Resolver struct {
	store     store.Querier
	catalogue catalog.Catalogue
	log       *zap.Logger
}

// NewResolver wires an entity link resolver.
func NewResolver(st store.Querier, catalogue catalog.Catalogue, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{store: st, catalogue: catalogue, log: log}
}

// Resolve builds the resolution map for a batch of rows. Every
// non-polymorphic reference field is grouped by its target; each target is
// fetched with a single batched lookup shared across all fields pointing
// at it. Polymorphic fields are grouped by the rows' runtime type value.
// All lookups run concurrently; a failed target contributes no entries and
// does not fail the rest.
func (r *Resolver) Resolve(ctx context.Context, entity string, rows []record.Row, scope Scope) *Resolution {
	resolution := NewResolution()
	if len(rows) == 0 {
		return resolution
	}

	targets := r.catalogue.Targets(entity)
	if len(targets) == 0 {
		return resolution
	}

	// Group field codes by target, splitting out the polymorphic slot.
	fieldsByTarget := make(map[string][]string)
	var polyFields []string
	for code, target := range targets {
		if target == catalog.TargetPolymorphic {
			polyFields = append(polyFields, code)
			continue
		}
		fieldsByTarget[target] = append(fieldsByTarget[target], code)
	}

	var wg sync.WaitGroup

	for target, codes := range fieldsByTarget {
		ids := collectIDs(rows, codes)
		if len(ids) == 0 {
			// Nothing referenced; skip the lookup entirely.
			continue
		}
		wg.Add(1)
		go func(target string, codes []string, ids []string) {
			defer wg.Done()
			labels, _, err := r.fetchTarget(ctx, target, ids, scope)
			if err != nil {
				r.log.Warn("link target resolution failed",
					zap.String("entity", entity),
					zap.String("target", target),
					zap.Error(err))
				return
			}
			resolution.setFieldLabels(codes, labels)
		}(target, codes, ids)
	}

	if len(polyFields) > 0 {
		for entityType, ids := range collectPolymorphicIDs(rows, polyFields) {
			wg.Add(1)
			go func(entityType string, ids []string) {
				defer wg.Done()
				labels, records, err := r.fetchTarget(ctx, entityType, ids, scope)
				if err != nil {
					r.log.Warn("polymorphic link resolution failed",
						zap.String("entity", entity),
						zap.String("entity_type", entityType),
						zap.Error(err))
					return
				}
				resolution.setPoly(entityType, records, labels)
			}(entityType, ids)
		}
	}

	wg.Wait()
	return resolution
}

// fetchTarget issues the single batched lookup for one target and returns
// id-to-label and id-to-record maps.
func (r *Resolver) fetchTarget(ctx context.Context, target string, ids []string, scope Scope) (map[string]string, map[string]record.Row, error) {
	cfg, ok := catalog.LinkFor(target)
	if !ok {
		// Unknown target: treated the same as a failed lookup.
		return nil, nil, errUnknownTarget(target)
	}

	filter := store.NewFilter().In(cfg.KeyColumn, idArgs(ids))
	if scope.ProjectID != nil && cfg.ProjectScoped {
		filter.Eq("project_id", scope.ProjectID)
	}

	rows, err := r.store.Select(ctx, cfg.Table, cfg.LabelColumns, filter)
	if err != nil {
		return nil, nil, err
	}

	labels := make(map[string]string, len(rows))
	records := make(map[string]record.Row, len(rows))
	for _, row := range rows {
		id, ok := row.String(cfg.KeyColumn)
		if !ok {
			continue
		}
		labels[id] = cfg.Label(row)
		records[id] = row
	}
	return labels, records, nil
}

// collectIDs gathers the distinct reference values across all rows and all
// listed fields, in stable order.
func collectIDs(rows []record.Row, codes []string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, row := range rows {
		for _, code := range codes {
			for _, id := range referenceValues(row, code) {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// collectPolymorphicIDs groups reference values by the rows' runtime type
// column.
func collectPolymorphicIDs(rows []record.Row, codes []string) map[string][]string {
	seen := make(map[string]bool)
	grouped := make(map[string][]string)
	for _, row := range rows {
		entityType, ok := row.String(catalog.PolymorphicTypeColumn)
		if !ok {
			continue
		}
		for _, code := range codes {
			for _, id := range referenceValues(row, code) {
				key := PolyKey(entityType, id)
				if !seen[key] {
					seen[key] = true
					grouped[entityType] = append(grouped[entityType], id)
				}
			}
		}
	}
	for _, ids := range grouped {
		sort.Strings(ids)
	}
	return grouped
}

// referenceValues reads a field's reference value(s) from a row in string
// form: a single id for entity fields, every element for multi-entity
// fields.
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

// idArgs converts collected string ids back to database-typed arguments,
// restoring int64 for numeric keys.
func idArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			args[i] = n
		} else {
			args[i] = id
		}
	}
	return args
}

type errUnknownTarget string

func (e errUnknownTarget) Error() string {
	return "unknown link target: " + string(e)
}
