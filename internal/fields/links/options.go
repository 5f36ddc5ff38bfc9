package links

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/resolve"
	"github.com/dailies-app/dailies/internal/store"
)

// Option is one selectable value for a choice-typed field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// OptionLoader loads the selectable value sets for an entity's fields.
// Fields sharing a target reuse one fetched list; a missing backing table
// degrades that source to an empty list instead of aborting the load.
type OptionLoader struct {
	store    store.Querier
	resolver *resolve.Resolver
	log      *zap.Logger
}

// NewOptionLoader wires an option loader.
func NewOptionLoader(st store.Querier, resolver *resolve.Resolver, log *zap.Logger) *OptionLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &OptionLoader{store: st, resolver: resolver, log: log}
}

// LoadAll returns the option list for every field of the entity that needs
// one, keyed by field code. It never fails: each source degrades
// independently.
func (l *OptionLoader) LoadAll(ctx context.Context, entity string, scope Scope) map[string][]Option {
	descriptors := l.resolver.Definitions(entity)

	needsStatus := false
	needsTags := false
	entityTargets := make(map[string][]string) // target -> field codes
	var statusFields, tagFields []string

	for _, d := range descriptors {
		if d.OptionSource == nil {
			continue
		}
		switch d.OptionSource.Kind {
		case resolve.OptionSourceStatus:
			needsStatus = true
			statusFields = append(statusFields, d.Code)
		case resolve.OptionSourceTags:
			needsTags = true
			tagFields = append(tagFields, d.Code)
		case resolve.OptionSourceEntity:
			entityTargets[d.OptionSource.Target] = append(entityTargets[d.OptionSource.Target], d.Code)
		}
	}

	var (
		mu      sync.Mutex
		results = make(map[string][]Option)
		wg      sync.WaitGroup
	)
	assign := func(codes []string, options []Option) {
		mu.Lock()
		defer mu.Unlock()
		for _, code := range codes {
			results[code] = options
		}
	}

	if needsStatus {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assign(statusFields, l.loadStatusOptions(ctx, entity))
		}()
	}
	if needsTags {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assign(tagFields, l.loadTagOptions(ctx))
		}()
	}
	for target, codes := range entityTargets {
		wg.Add(1)
		go func(target string, codes []string) {
			defer wg.Done()
			assign(codes, l.loadEntityOptions(ctx, target, scope))
		}(target, codes)
	}

	wg.Wait()
	return results
}

// loadStatusOptions returns the status catalogue scoped to the entity
// type. If the mapping table is absent the whole catalogue is returned
// unfiltered; if the status table itself is absent the result is empty.
func (l *OptionLoader) loadStatusOptions(ctx context.Context, entity string) []Option {
	statuses, err := l.store.Select(ctx, catalog.TableStatuses, nil, nil)
	if err != nil {
		l.logDegraded(catalog.TableStatuses, err)
		return []Option{}
	}

	allowed, haveMapping := l.loadStatusScope(ctx, entity)

	options := make([]Option, 0, len(statuses))
	for _, row := range statuses {
		code, ok := row.String("code")
		if !ok {
			continue
		}
		if haveMapping && !allowed[code] {
			continue
		}
		label, _ := row.String("name")
		if label == "" {
			label = code
		}
		color, _ := row.String("color")
		options = append(options, Option{Value: code, Label: label, Color: color})
	}

	// Explicit sort key when present, alphabetical otherwise.
	sortKeys := make(map[string]int64, len(statuses))
	haveSort := false
	for _, row := range statuses {
		if code, ok := row.String("code"); ok {
			if order, ok := row.Int64("sort_order"); ok {
				sortKeys[code] = order
				haveSort = true
			}
		}
	}
	sort.SliceStable(options, func(i, j int) bool {
		if haveSort {
			oi, iOK := sortKeys[options[i].Value]
			oj, jOK := sortKeys[options[j].Value]
			if iOK && jOK && oi != oj {
				return oi < oj
			}
			if iOK != jOK {
				return iOK
			}
		}
		return strings.ToLower(options[i].Label) < strings.ToLower(options[j].Label)
	})
	return options
}

// loadStatusScope loads the status-to-entity-type mapping. The second
// result is false when the mapping table is not provisioned, which callers
// treat as "no scoping".
func (l *OptionLoader) loadStatusScope(ctx context.Context, entity string) (map[string]bool, bool) {
	mappings, err := l.store.Select(ctx, catalog.TableStatusEntityTypes, nil, nil)
	if err != nil {
		if !store.IsMissingTable(err) {
			l.logDegraded(catalog.TableStatusEntityTypes, err)
		}
		return nil, false
	}

	allowed := make(map[string]bool)
	for _, row := range mappings {
		code, ok := row.String("status_code")
		if !ok {
			continue
		}
		if universal, _ := row.Bool("universal"); universal {
			allowed[code] = true
			continue
		}
		if entityType, ok := row.String("entity_type"); ok && entityType == entity {
			allowed[code] = true
		}
	}
	return allowed, true
}

// loadTagOptions returns every distinct, non-empty tag name,
// case-insensitively de-duplicated and sorted alphabetically.
func (l *OptionLoader) loadTagOptions(ctx context.Context) []Option {
	rows, err := l.store.Select(ctx, catalog.TableTags, []string{"name"}, nil)
	if err != nil {
		l.logDegraded(catalog.TableTags, err)
		return []Option{}
	}

	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		name, ok := row.String("name")
		if !ok {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	options := make([]Option, len(names))
	for i, name := range names {
		options[i] = Option{Value: name, Label: name}
	}
	return options
}

// loadEntityOptions returns the picker options for one link target.
func (l *OptionLoader) loadEntityOptions(ctx context.Context, target string, scope Scope) []Option {
	cfg, ok := catalog.LinkFor(target)
	if !ok {
		return []Option{}
	}

	var filter *store.Filter
	if scope.ProjectID != nil && cfg.ProjectScoped {
		filter = store.NewFilter().Eq("project_id", scope.ProjectID)
	}

	rows, err := l.store.Select(ctx, cfg.Table, cfg.LabelColumns, filter)
	if err != nil {
		l.logDegraded(cfg.Table, err)
		return []Option{}
	}

	options := make([]Option, 0, len(rows))
	for _, row := range rows {
		id, ok := row.String(cfg.KeyColumn)
		if !ok {
			continue
		}
		options = append(options, Option{Value: id, Label: cfg.Label(row)})
	}
	sort.Slice(options, func(i, j int) bool {
		return strings.ToLower(options[i].Label) < strings.ToLower(options[j].Label)
	})
	return options
}

func (l *OptionLoader) logDegraded(table string, err error) {
	if store.IsMissingTable(err) {
		l.log.Info("option source not provisioned", zap.String("table", table))
		return
	}
	l.log.Warn("option source load failed", zap.String("table", table), zap.Error(err))
}
