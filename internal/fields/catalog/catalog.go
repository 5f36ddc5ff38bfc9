// Package catalog holds the static, process-wide registries the field
// system is driven by: the per-entity schema catalogue, the entity link
// registry (how to look up and label each linkable target), and the
// field-to-target map for foreign-reference fields. All tables here are
// built once at package init and never mutated afterwards, so no
// synchronization is needed.
package catalog

import (
	"strings"

	"github.com/dailies-app/dailies/internal/record"
)

// Entity keys used throughout the field system.
const (
	EntityProject    = "project"
	EntitySequence   = "sequence"
	EntityShot       = "shot"
	EntityAsset      = "asset"
	EntityTask       = "task"
	EntityVersion    = "version"
	EntityPlaylist   = "playlist"
	EntityNote       = "note"
	EntityProfile    = "profile"
	EntityDepartment = "department"
)

// Catalogue tables backing option sources.
const (
	TableStatuses          = "statuses"
	TableStatusEntityTypes = "status_entity_types"
	TableTags              = "tags"
)

// TargetPolymorphic is the sentinel target for fields whose actual target
// table is determined at read time by the sibling entity_type column.
const TargetPolymorphic = "__polymorphic__"

// PolymorphicTypeColumn is the sibling column carrying the runtime target
// type for polymorphic reference fields.
const PolymorphicTypeColumn = "entity_type"

// SchemaField is one entry of an entity's static field list, as the schema
// catalogue describes it before resolution.
type SchemaField struct {
	Name          string // human label
	Code          string // stable identifier, unique per entity
	DeclaredType  string // raw data-type name from the schema dump
	StorageColumn string // empty means purely virtual
	Virtual       bool
	FieldKind     string // "column", "system", or "virtual"
	DisplayOrder  int
}

// Catalogue provides per-entity schema metadata. The static catalogue
// below satisfies it; tests substitute their own.
type Catalogue interface {
	// EntitySchema returns the static field list for an entity. Unknown
	// entities yield nil.
	EntitySchema(entity string) []SchemaField
	// Targets returns the field-to-target map for an entity: field code
	// to link target key, with TargetPolymorphic for sibling-typed fields.
	Targets(entity string) map[string]string
}

// LinkConfig describes one resolvable link target: where its rows live,
// which column keys the lookup, and how to build a display label.
type LinkConfig struct {
	Table        string
	KeyColumn    string
	LabelColumns []string
	Label        func(record.Row) string
	Searchable   bool
	// ProjectScoped marks targets whose rows belong to a project, letting
	// callers restrict lookups and pickers to one project.
	ProjectScoped bool
}

// labelFrom returns the first non-empty column value from a row.
func labelFrom(row record.Row, columns ...string) string {
	for _, col := range columns {
		if s, ok := row.String(col); ok {
			return s
		}
	}
	return ""
}

// singleColumnLabel builds a label function reading one preferred column
// with fallbacks.
func singleColumnLabel(columns ...string) func(record.Row) string {
	return func(row record.Row) string {
		return labelFrom(row, columns...)
	}
}

// linkRegistry is the entity link registry: every linkable target and how
// to resolve it.
var linkRegistry = map[string]LinkConfig{
	EntityProject: {
		Table:        "projects",
		KeyColumn:    "id",
		LabelColumns: []string{"id", "name", "code"},
		Label:        singleColumnLabel("name", "code"),
		Searchable:   true,
	},
	EntitySequence: {
		ProjectScoped: true,
		Table:         "sequences",
		KeyColumn:     "id",
		LabelColumns:  []string{"id", "code", "name", "status", "description"},
		Label:         singleColumnLabel("code", "name"),
		Searchable:    true,
	},
	EntityShot: {
		ProjectScoped: true,
		Table:         "shots",
		KeyColumn:     "id",
		LabelColumns:  []string{"id", "code", "name", "status", "description", "thumbnail_url"},
		Label:         singleColumnLabel("code", "name"),
		Searchable:    true,
	},
	EntityAsset: {
		ProjectScoped: true,
		Table:         "assets",
		KeyColumn:     "id",
		LabelColumns:  []string{"id", "code", "name", "status", "description", "thumbnail_url"},
		Label:         singleColumnLabel("code", "name"),
		Searchable:    true,
	},
	EntityTask: {
		ProjectScoped: true,
		Table:         "tasks",
		KeyColumn:     "id",
		LabelColumns:  []string{"id", "name", "status"},
		Label:         singleColumnLabel("name"),
		Searchable:    true,
	},
	EntityVersion: {
		ProjectScoped: true,
		Table:         "versions",
		KeyColumn:     "id",
		LabelColumns:  []string{"id", "code", "status", "description", "thumbnail_url"},
		Label:         singleColumnLabel("code"),
		Searchable:    true,
	},
	EntityPlaylist: {
		ProjectScoped: true,
		Table:         "playlists",
		KeyColumn:     "id",
		LabelColumns:  []string{"id", "name"},
		Label:         singleColumnLabel("name"),
		Searchable:    true,
	},
	EntityNote: {
		ProjectScoped: true,
		Table:         "notes",
		KeyColumn:     "id",
		LabelColumns:  []string{"id", "subject"},
		Label:         singleColumnLabel("subject"),
		Searchable:    false,
	},
	EntityProfile: {
		Table:        "profiles",
		KeyColumn:    "id",
		LabelColumns: []string{"id", "first_name", "last_name", "email"},
		Label: func(row record.Row) string {
			first, _ := row.String("first_name")
			last, _ := row.String("last_name")
			full := strings.TrimSpace(first + " " + last)
			if full != "" {
				return full
			}
			return labelFrom(row, "email")
		},
		Searchable: true,
	},
	EntityDepartment: {
		Table:        "departments",
		KeyColumn:    "id",
		LabelColumns: []string{"id", "name"},
		Label:        singleColumnLabel("name"),
		Searchable:   false,
	},
}

// LinkFor returns the link config for a target key.
func LinkFor(target string) (LinkConfig, bool) {
	cfg, ok := linkRegistry[target]
	return cfg, ok
}

// LinkTargets returns every registered link target key.
func LinkTargets() []string {
	out := make([]string, 0, len(linkRegistry))
	for k := range linkRegistry {
		out = append(out, k)
	}
	return out
}

// primaryNameFields maps each entity to the field adapters promote to a
// link column pointing at the entity's own detail view.
var primaryNameFields = map[string]string{
	EntityProject:    "name",
	EntitySequence:   "code",
	EntityShot:       "code",
	EntityAsset:      "code",
	EntityTask:       "name",
	EntityVersion:    "code",
	EntityPlaylist:   "name",
	EntityNote:       "subject",
	EntityProfile:    "last_name",
	EntityDepartment: "name",
}

// PrimaryNameField returns the entity's primary name field code, or "".
func PrimaryNameField(entity string) string {
	return primaryNameFields[entity]
}
