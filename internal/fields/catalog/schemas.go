package catalog

// StaticCatalogue is the built-in schema catalogue. Field lists mirror the
// production schema; display order follows the default table layout for
// each entity.
type StaticCatalogue struct {
	schemas map[string][]SchemaField
	targets map[string]map[string]string
}

// NewStaticCatalogue returns the process-wide catalogue.
func NewStaticCatalogue() *StaticCatalogue {
	return &StaticCatalogue{schemas: entitySchemas, targets: entityTargets}
}

// EntitySchema returns the static field list for an entity. A copy is
// returned so callers cannot mutate the shared tables.
func (c *StaticCatalogue) EntitySchema(entity string) []SchemaField {
	fields, ok := c.schemas[entity]
	if !ok {
		return nil
	}
	out := make([]SchemaField, len(fields))
	copy(out, fields)
	return out
}

// Targets returns the field-to-target map for an entity.
func (c *StaticCatalogue) Targets(entity string) map[string]string {
	targets, ok := c.targets[entity]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(targets))
	for k, v := range targets {
		out[k] = v
	}
	return out
}

// Entities returns every entity with a registered schema.
func (c *StaticCatalogue) Entities() []string {
	out := make([]string, 0, len(c.schemas))
	for entity := range c.schemas {
		out = append(out, entity)
	}
	return out
}

// sys marks a system-owned column (identifier, audit fields).
func sys(name, code, declared string, order int) SchemaField {
	return SchemaField{Name: name, Code: code, DeclaredType: declared, StorageColumn: code, FieldKind: "system", DisplayOrder: order}
}

// col is a plain stored column.
func col(name, code, declared string, order int) SchemaField {
	return SchemaField{Name: name, Code: code, DeclaredType: declared, StorageColumn: code, FieldKind: "column", DisplayOrder: order}
}

// audit appends the shared audit columns every entity carries.
func audit(fields []SchemaField) []SchemaField {
	base := len(fields) * 10
	return append(fields,
		sys("Created At", "created_at", "timestamp", base+910),
		sys("Updated At", "updated_at", "timestamp", base+920),
		sys("Created By", "created_by", "entity", base+930),
	)
}

var entitySchemas = map[string][]SchemaField{
	EntityProject: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Name", "name", "text", 10),
		col("Code", "code", "text", 20),
		col("Status", "status", "status", 30),
		col("Description", "description", "long_text", 40),
		col("Start Date", "start_date", "date", 50),
		col("End Date", "end_date", "date", 60),
		col("Frame Rate", "fps", "float", 70),
		col("Thumbnail", "thumbnail_url", "image", 80),
		col("Color", "color", "color", 90),
		col("Settings", "settings", "jsonb", 100),
	}),
	EntitySequence: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Code", "code", "text", 10),
		col("Name", "name", "text", 20),
		col("Project", "project_id", "entity", 30),
		col("Status", "status", "status", 40),
		col("Description", "description", "long_text", 50),
		col("Sort Order", "sort_order", "integer", 60),
	}),
	EntityShot: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Code", "code", "text", 10),
		col("Name", "name", "text", 20),
		col("Project", "project_id", "entity", 30),
		col("Sequence", "sequence_id", "entity", 40),
		col("Status", "status", "status", 50),
		col("Description", "description", "long_text", 60),
		col("Head In", "head_in", "integer", 70),
		col("Cut In", "cut_in", "integer", 80),
		col("Cut Out", "cut_out", "integer", 90),
		col("Tail Out", "tail_out", "integer", 100),
		col("Cut Duration", "cut_duration", "integer", 110),
		col("Tags", "tags", "tag_list", 120),
		col("Thumbnail", "thumbnail_url", "image", 130),
	}),
	EntityAsset: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Code", "code", "text", 10),
		col("Name", "name", "text", 20),
		col("Project", "project_id", "entity", 30),
		col("Asset Type", "asset_type", "list", 40),
		col("Status", "status", "status", 50),
		col("Description", "description", "long_text", 60),
		col("Tags", "tags", "tag_list", 70),
		col("Thumbnail", "thumbnail_url", "image", 80),
	}),
	EntityTask: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Name", "name", "text", 10),
		col("Project", "project_id", "entity", 20),
		col("Link", "entity_id", "entity", 30),
		col("Link Type", "entity_type", "list", 40),
		col("Status", "status", "status", 50),
		col("Assignee", "assignee_id", "entity", 60),
		col("Reviewers", "reviewer_ids", "multi_entity", 70),
		col("Department", "department_id", "entity", 80),
		col("Start Date", "start_date", "date", 90),
		col("Due Date", "due_date", "date", 100),
		col("Estimate", "estimate", "duration", 110),
		col("Time Logged", "time_logged", "duration", 120),
		col("Completion", "completion", "percent", 130),
		col("Tags", "tags", "tag_list", 140),
	}),
	EntityVersion: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Code", "code", "text", 10),
		col("Project", "project_id", "entity", 20),
		col("Link", "entity_id", "entity", 30),
		col("Link Type", "entity_type", "list", 40),
		col("Task", "task_id", "entity", 50),
		col("Artist", "artist_id", "entity", 60),
		col("Status", "status", "status", 70),
		col("Description", "description", "long_text", 80),
		col("First Frame", "first_frame", "integer", 90),
		col("Last Frame", "last_frame", "integer", 100),
		col("FPS", "fps", "float", 110),
		col("Source Timecode", "source_tc", "timecode", 120),
		col("Media", "media_url", "url", 130),
		col("Thumbnail", "thumbnail_url", "image", 140),
		col("Tags", "tags", "tag_list", 150),
	}),
	EntityPlaylist: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Name", "name", "text", 10),
		col("Project", "project_id", "entity", 20),
		col("Status", "status", "status", 30),
		col("Description", "description", "long_text", 40),
		col("Review Date", "review_date", "date", 50),
		col("Versions", "version_ids", "multi_entity", 60),
	}),
	EntityNote: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Subject", "subject", "text", 10),
		col("Body", "body", "long_text", 20),
		col("Project", "project_id", "entity", 30),
		col("Link", "entity_id", "entity", 40),
		col("Link Type", "entity_type", "list", 50),
		col("Author", "author_id", "entity", 60),
		col("Addressed To", "addressed_ids", "multi_entity", 70),
		col("Status", "status", "status", 80),
		col("Attachment", "attachment_url", "url", 90),
	}),
	EntityProfile: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("First Name", "first_name", "text", 10),
		col("Last Name", "last_name", "text", 20),
		col("Email", "email", "text", 30),
		col("Department", "department_id", "entity", 40),
		col("Role", "role", "list", 50),
		col("Status", "status", "status", 60),
		col("Avatar", "avatar_url", "image", 70),
		col("Rate", "day_rate", "currency", 80),
	}),
	EntityDepartment: audit([]SchemaField{
		sys("Id", "id", "integer", 0),
		col("Name", "name", "text", 10),
		col("Color", "color", "color", 20),
		col("Sort Order", "sort_order", "integer", 30),
	}),
}

// entityTargets is the field-to-target map: which field codes on each
// entity are foreign references, and to which link target. entity_id is
// polymorphic everywhere it appears; its target table comes from the
// sibling entity_type column at read time.
var entityTargets = map[string]map[string]string{
	EntitySequence: {
		"project_id": EntityProject,
		"created_by": EntityProfile,
	},
	EntityShot: {
		"project_id":  EntityProject,
		"sequence_id": EntitySequence,
		"created_by":  EntityProfile,
	},
	EntityAsset: {
		"project_id": EntityProject,
		"created_by": EntityProfile,
	},
	EntityTask: {
		"project_id":    EntityProject,
		"entity_id":     TargetPolymorphic,
		"assignee_id":   EntityProfile,
		"reviewer_ids":  EntityProfile,
		"department_id": EntityDepartment,
		"created_by":    EntityProfile,
	},
	EntityVersion: {
		"project_id": EntityProject,
		"entity_id":  TargetPolymorphic,
		"task_id":    EntityTask,
		"artist_id":  EntityProfile,
		"created_by": EntityProfile,
	},
	EntityPlaylist: {
		"project_id":  EntityProject,
		"version_ids": EntityVersion,
		"created_by":  EntityProfile,
	},
	EntityNote: {
		"project_id":    EntityProject,
		"entity_id":     TargetPolymorphic,
		"author_id":     EntityProfile,
		"addressed_ids": EntityProfile,
		"created_by":    EntityProfile,
	},
	EntityProfile: {
		"department_id": EntityDepartment,
		"created_by":    EntityProfile,
	},
	EntityProject: {
		"created_by": EntityProfile,
	},
	EntityDepartment: {
		"created_by": EntityProfile,
	},
}
