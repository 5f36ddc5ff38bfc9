package cache

import "strings"

// OptionsKey builds the cache key for an entity's option lists. Project
// scope is part of the key because status and entity options differ per
// project.
func OptionsKey(entity, projectID string) string {
	return buildKey("options", entity, projectID)
}

// OptionsPrefix is the invalidation prefix covering every project scope
// of an entity's option lists.
func OptionsPrefix(entity string) string {
	return buildKey("options", entity)
}

// FacetsKey builds the cache key for one field's facet counts.
func FacetsKey(entity, field, projectID string) string {
	return buildKey("facets", entity, field, projectID)
}

// FacetsPrefix is the invalidation prefix covering every cached facet of
// an entity, across fields and project scopes.
func FacetsPrefix(entity string) string {
	return buildKey("facets", entity)
}

func buildKey(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}
