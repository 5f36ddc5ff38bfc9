// Package web exposes the field system over HTTP: descriptor listings,
// enriched record reads, option lists, filter facets, and the normalized
// field edit flow.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/actions"
	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/display"
	"github.com/dailies-app/dailies/internal/fields/enrich"
	"github.com/dailies-app/dailies/internal/fields/filters"
	"github.com/dailies-app/dailies/internal/fields/formula"
	"github.com/dailies-app/dailies/internal/fields/links"
	"github.com/dailies-app/dailies/internal/fields/resolve"
	"github.com/dailies-app/dailies/internal/fields/types"
	"github.com/dailies-app/dailies/internal/record"
	"github.com/dailies-app/dailies/internal/store"
	"github.com/dailies-app/dailies/internal/web/cache"
	"github.com/dailies-app/dailies/internal/web/response"
)

// API bundles the field system components behind the HTTP handlers.
type API struct {
	log       *zap.Logger
	store     *store.Store
	catalogue catalog.Catalogue
	resolver  *resolve.Resolver
	links     *links.Resolver
	options   *links.OptionLoader
	pipeline  *enrich.Pipeline
	updates   *enrich.UpdateHandler
	facets    *filters.Builder
	registry  *actions.Registry
	cache     cache.Cache
	cacheTTL  time.Duration
}

// NewAPI wires the full handler stack over a store and catalogue. A nil
// optionCache disables caching.
func NewAPI(st *store.Store, catalogue catalog.Catalogue, engine *formula.Engine, optionCache cache.Cache, cacheTTL time.Duration, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	resolver := resolve.NewResolver(catalogue, engine)
	linkResolver := links.NewResolver(st, catalogue, log)
	return &API{
		log:       log,
		store:     st,
		catalogue: catalogue,
		resolver:  resolver,
		links:     linkResolver,
		options:   links.NewOptionLoader(st, resolver, log),
		pipeline:  enrich.NewPipeline(resolver, engine),
		updates:   enrich.NewUpdateHandler(engine),
		facets:    filters.NewBuilder(nil),
		registry:  actions.DefaultRegistry(st, log),
		cache:     optionCache,
		cacheTTL:  cacheTTL,
	}
}

// entityFromRequest validates the {entity} path parameter against the
// schema catalogue.
func (a *API) entityFromRequest(r *http.Request) (string, error) {
	entity := chi.URLParam(r, "entity")
	if len(a.catalogue.EntitySchema(entity)) == 0 {
		return "", fmt.Errorf("unknown entity %q", entity)
	}
	return entity, nil
}

// projectIDFromRequest reads the optional project scope query parameter.
func projectIDFromRequest(r *http.Request) string {
	return r.URL.Query().Get("project_id")
}

func scopeFromRequest(r *http.Request) links.Scope {
	if projectID := projectIDFromRequest(r); projectID != "" {
		return links.Scope{ProjectID: projectID}
	}
	return links.Scope{}
}

// handleFields serves the resolved field descriptors and their table
// column projections for one entity.
func (a *API) handleFields(w http.ResponseWriter, r *http.Request) {
	entity, err := a.entityFromRequest(r)
	if err != nil {
		response.RenderNotFound(w, err.Error())
		return
	}

	descriptors := a.resolver.Definitions(entity)
	response.OK(w, map[string]interface{}{
		"entity":  entity,
		"fields":  descriptors,
		"columns": display.TableColumns(entity, descriptors),
	})
}

// handleRecords serves enriched rows for one entity, optionally scoped to
// a project.
func (a *API) handleRecords(w http.ResponseWriter, r *http.Request) {
	entity, err := a.entityFromRequest(r)
	if err != nil {
		response.RenderNotFound(w, err.Error())
		return
	}

	rows, err := a.fetchRows(r.Context(), entity, projectIDFromRequest(r))
	if err != nil {
		response.RenderError(w, err)
		return
	}

	resolution := a.links.Resolve(r.Context(), entity, rows, scopeFromRequest(r))
	enriched := a.pipeline.EnrichAll(entity, rows, resolution)
	response.OK(w, map[string]interface{}{
		"entity":  entity,
		"records": enriched,
	})
}

// handleOptions serves the option lists for every option-backed field of
// an entity, cached per entity and project scope.
func (a *API) handleOptions(w http.ResponseWriter, r *http.Request) {
	entity, err := a.entityFromRequest(r)
	if err != nil {
		response.RenderNotFound(w, err.Error())
		return
	}
	scope := scopeFromRequest(r)

	key := cache.OptionsKey(entity, projectIDFromRequest(r))
	if cached, ok := a.cachedPayload(r.Context(), key); ok {
		writeJSONBytes(w, cached)
		return
	}

	options := a.options.LoadAll(r.Context(), entity, scope)
	body, err := json.Marshal(map[string]interface{}{
		"entity":  entity,
		"options": options,
	})
	if err != nil {
		response.RenderError(w, err)
		return
	}

	a.storePayload(r.Context(), key, body)
	writeJSONBytes(w, body)
}

// handleFacets serves the facet counts for one field over the entity's
// current rows.
func (a *API) handleFacets(w http.ResponseWriter, r *http.Request) {
	entity, err := a.entityFromRequest(r)
	if err != nil {
		response.RenderNotFound(w, err.Error())
		return
	}
	fieldCode := r.URL.Query().Get("field")
	if fieldCode == "" {
		response.RenderBadRequest(w, "field query parameter is required")
		return
	}

	descriptor, ok := a.descriptorFor(entity, fieldCode)
	if !ok {
		response.RenderNotFound(w, fmt.Sprintf("unknown field %q on %s", fieldCode, entity))
		return
	}

	key := cache.FacetsKey(entity, fieldCode, projectIDFromRequest(r))
	if cached, ok := a.cachedPayload(r.Context(), key); ok {
		writeJSONBytes(w, cached)
		return
	}

	scope := scopeFromRequest(r)
	rows, err := a.fetchRows(r.Context(), entity, projectIDFromRequest(r))
	if err != nil {
		response.RenderError(w, err)
		return
	}

	var resolution *links.Resolution
	if descriptor.IsReference() {
		resolution = a.links.Resolve(r.Context(), entity, rows, scope)
	}

	body, err := json.Marshal(map[string]interface{}{
		"entity": entity,
		"field":  fieldCode,
		"facets": a.facets.Build(descriptor, rows, resolution),
	})
	if err != nil {
		response.RenderError(w, err)
		return
	}

	a.storePayload(r.Context(), key, body)
	writeJSONBytes(w, body)
}

// updateRequest is the body of a PATCH: one field edit.
type updateRequest struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

// handleUpdate normalizes one field edit, persists the storage payload,
// and answers with the optimistic UI patch.
func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	entity, err := a.entityFromRequest(r)
	if err != nil {
		response.RenderNotFound(w, err.Error())
		return
	}
	id := chi.URLParam(r, "id")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RenderBadRequest(w, "invalid JSON body")
		return
	}
	if req.Field == "" {
		response.RenderBadRequest(w, "field is required")
		return
	}

	descriptor, ok := a.descriptorFor(entity, req.Field)
	if !ok {
		response.RenderNotFound(w, fmt.Sprintf("unknown field %q on %s", req.Field, entity))
		return
	}
	if !descriptor.Editable || descriptor.ReadOnly {
		response.RenderValidationError(w, req.Field, "field is not editable")
		return
	}

	act, ok := a.registry.Lookup(entity)
	if !ok {
		response.RenderNotFound(w, fmt.Sprintf("unknown entity %q", entity))
		return
	}
	row, err := a.store.SelectOne(r.Context(), act.Table, act.KeyColumn, id)
	if err != nil {
		response.RenderError(w, err)
		return
	}

	behavior := types.ForType(descriptor.Type)
	canonical := behavior.Parse(req.Value)
	if result := behavior.Validate(canonical, types.Constraints{}); !result.Valid {
		response.RenderValidationError(w, req.Field, result.Message)
		return
	}

	scope := scopeFromRequest(r)
	resolution := a.links.Resolve(r.Context(), entity, []record.Row{row}, scope)
	descriptors := a.resolver.Definitions(entity)
	update := a.updates.PrepareUpdate(entity, row, req.Field, req.Value, descriptors, resolution)

	if err := a.registry.Update(r.Context(), entity, id, update.StoragePayload); err != nil {
		response.RenderError(w, err)
		return
	}
	a.invalidateEntity(r.Context(), entity)

	response.OK(w, map[string]interface{}{
		"entity": entity,
		"id":     id,
		"patch":  update.UIPatch,
	})
}

// handleDelete removes one row, scoped to the caller's project for
// project-owned entities.
func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	entity, err := a.entityFromRequest(r)
	if err != nil {
		response.RenderNotFound(w, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	projectID := projectIDFromRequest(r)

	if err := a.registry.Delete(r.Context(), entity, id, projectID); err != nil {
		response.RenderError(w, err)
		return
	}
	a.invalidateEntity(r.Context(), entity)
	response.NoContent(w)
}

// handleHealthz answers once the database is reachable.
func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.store.DB().PingContext(ctx); err != nil {
		response.RenderErrorWithStatus(w, http.StatusServiceUnavailable, "database_unreachable", err.Error())
		return
	}
	response.OK(w, map[string]string{"status": "ok"})
}

// fetchRows loads an entity's rows, project scoped when the entity is
// project owned and a scope is given.
func (a *API) fetchRows(ctx context.Context, entity, projectID string) ([]record.Row, error) {
	act, ok := a.registry.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", entity, actions.ErrUnknownEntity)
	}

	filter := store.NewFilter()
	if cfg, ok := catalog.LinkFor(entity); ok && cfg.ProjectScoped && projectID != "" {
		filter.Eq("project_id", projectID)
	}
	return a.store.Select(ctx, act.Table, nil, filter)
}

func (a *API) descriptorFor(entity, fieldCode string) (resolve.Descriptor, bool) {
	for _, d := range a.resolver.Definitions(entity) {
		if d.Code == fieldCode {
			return d, true
		}
	}
	return resolve.Descriptor{}, false
}

// cachedPayload reads an already-marshaled payload, reporting a hit.
func (a *API) cachedPayload(ctx context.Context, key string) ([]byte, bool) {
	if a.cache == nil {
		return nil, false
	}
	body, err := a.cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return body, true
}

// storePayload caches a marshaled payload, logging failures rather than
// surfacing them: the response was already built.
func (a *API) storePayload(ctx context.Context, key string, body []byte) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, body, a.cacheTTL); err != nil {
		a.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// invalidateEntity drops every cached payload derived from an entity's
// rows: option lists and facets, across all project scopes.
func (a *API) invalidateEntity(ctx context.Context, entity string) {
	if a.cache == nil {
		return
	}
	for _, prefix := range []string{cache.OptionsPrefix(entity), cache.FacetsPrefix(entity)} {
		if err := a.cache.DeletePrefix(ctx, prefix); err != nil {
			a.log.Warn("cache invalidation failed",
				zap.String("entity", entity),
				zap.String("prefix", prefix),
				zap.Error(err),
			)
		}
	}
}

// writeJSONBytes writes an already-marshaled JSON payload.
func writeJSONBytes(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
