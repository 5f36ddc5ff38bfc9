// Package actions maps entities to the storage writes the web layer may
// perform on them. Each entity registers an Actions value naming its
// table and key; updates flow through the field update handler's storage
// payload, deletes are scoped to the caller's project when the entity is
// project owned.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/record"
	"github.com/dailies-app/dailies/internal/store"
)

// ErrUnknownEntity is returned when no actions are registered for an
// entity.
var ErrUnknownEntity = errors.New("unknown entity")

// Writer is the write side of the store the registry dispatches to.
type Writer interface {
	Update(ctx context.Context, table, keyColumn string, id interface{}, payload record.Row) error
	Delete(ctx context.Context, table, keyColumn string, id interface{}, extra *store.Filter) error
}

// Actions describes the storage writes available for one entity.
type Actions struct {
	Table     string
	KeyColumn string
	// ProjectScoped deletes require the row's project_id to match the
	// caller's project.
	ProjectScoped bool
}

// Registry dispatches entity writes to the store.
type Registry struct {
	mu      sync.RWMutex
	writer  Writer
	log     *zap.Logger
	entries map[string]Actions
}

// NewRegistry builds an empty registry over a writer.
func NewRegistry(writer Writer, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		writer:  writer,
		log:     log,
		entries: make(map[string]Actions),
	}
}

// Register adds or replaces the actions for an entity.
func (r *Registry) Register(entity string, a Actions) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entity] = a
}

// Lookup returns the registered actions for an entity.
func (r *Registry) Lookup(entity string) (Actions, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.entries[entity]
	return a, ok
}

// Entities returns the registered entity names, sorted.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for entity := range r.entries {
		out = append(out, entity)
	}
	sort.Strings(out)
	return out
}

// Update writes a storage payload to one row of an entity.
func (r *Registry) Update(ctx context.Context, entity, id string, payload record.Row) error {
	a, ok := r.Lookup(entity)
	if !ok {
		return fmt.Errorf("update %s: %w", entity, ErrUnknownEntity)
	}
	if len(payload) == 0 {
		return nil
	}

	r.log.Debug("entity update",
		zap.String("entity", entity),
		zap.String("id", id),
		zap.Int("columns", len(payload)),
	)
	return r.writer.Update(ctx, a.Table, a.KeyColumn, id, payload)
}

// Delete removes one row of an entity. For project-scoped entities the
// delete only matches rows belonging to projectID; a mismatch surfaces as
// not found.
func (r *Registry) Delete(ctx context.Context, entity, id, projectID string) error {
	a, ok := r.Lookup(entity)
	if !ok {
		return fmt.Errorf("delete %s: %w", entity, ErrUnknownEntity)
	}

	var scope *store.Filter
	if a.ProjectScoped && projectID != "" {
		scope = store.NewFilter().Eq("project_id", projectID)
	}

	r.log.Info("entity delete",
		zap.String("entity", entity),
		zap.String("id", id),
	)
	return r.writer.Delete(ctx, a.Table, a.KeyColumn, id, scope)
}

// DefaultRegistry registers actions for every entity in the link
// registry, reusing its table and key metadata.
func DefaultRegistry(writer Writer, log *zap.Logger) *Registry {
	r := NewRegistry(writer, log)
	for _, entity := range catalog.LinkTargets() {
		cfg, _ := catalog.LinkFor(entity)
		r.Register(entity, Actions{
			Table:         cfg.Table,
			KeyColumn:     cfg.KeyColumn,
			ProjectScoped: cfg.ProjectScoped,
		})
	}
	return r
}
