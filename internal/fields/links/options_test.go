package links_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/formula"
	"github.com/dailies-app/dailies/internal/fields/links"
	"github.com/dailies-app/dailies/internal/fields/resolve"
	"github.com/dailies-app/dailies/internal/record"
	"github.com/dailies-app/dailies/internal/store"
)

// widgetCatalogue registers an entity with one field per option source
// kind. The entity name stays out of the formula registry on purpose.
func widgetCatalogue() *fakeCatalogue {
	return &fakeCatalogue{
		schema: map[string][]catalog.SchemaField{
			"widget": {
				{Name: "Status", Code: "status", FieldKind: "column", DisplayOrder: 10},
				{Name: "Tags", Code: "tags", FieldKind: "column", DisplayOrder: 20},
				{Name: "Assignee", Code: "assignee_id", DeclaredType: "entity", StorageColumn: "assignee_id", FieldKind: "column", DisplayOrder: 30},
			},
		},
		targets: map[string]map[string]string{
			"widget": {"assignee_id": "profile"},
		},
	}
}

func newOptionLoader(st *fakeStore) *links.OptionLoader {
	resolver := resolve.NewResolver(widgetCatalogue(), formula.DefaultEngine())
	return links.NewOptionLoader(st, resolver, zap.NewNop())
}

func TestLoadAll_AllSources(t *testing.T) {
	st := newFakeStore()
	st.rows[catalog.TableStatuses] = []record.Row{
		{"code": "ip", "name": "In Progress", "color": "#3b82f6", "sort_order": int64(2)},
		{"code": "fin", "name": "Final", "color": "#22c55e", "sort_order": int64(1)},
		{"code": "hld", "name": "On Hold", "sort_order": int64(3)},
	}
	st.rows[catalog.TableStatusEntityTypes] = []record.Row{
		{"status_code": "ip", "entity_type": "widget"},
		{"status_code": "fin", "universal": true},
		{"status_code": "hld", "entity_type": "playlist"},
	}
	st.rows[catalog.TableTags] = []record.Row{
		{"name": "Hero"},
		{"name": "hero"},
		{"name": "bg"},
	}
	st.rows["profiles"] = []record.Row{
		{"id": int64(9), "email": "grace@studio.test"},
		{"id": int64(3), "first_name": "Ada", "last_name": "Lovelace"},
	}

	results := newOptionLoader(st).LoadAll(context.Background(), "widget", links.Scope{})

	// Statuses scoped to the entity, ordered by the explicit sort key.
	require.Contains(t, results, "status")
	statuses := results["status"]
	require.Len(t, statuses, 2)
	assert.Equal(t, "fin", statuses[0].Value)
	assert.Equal(t, "Final", statuses[0].Label)
	assert.Equal(t, "#22c55e", statuses[0].Color)
	assert.Equal(t, "ip", statuses[1].Value)

	// Tags de-duplicated case-insensitively, first spelling kept.
	require.Contains(t, results, "tags")
	tags := results["tags"]
	require.Len(t, tags, 2)
	assert.Equal(t, "bg", tags[0].Value)
	assert.Equal(t, "Hero", tags[1].Value)

	// Entity options labelled and sorted alphabetically.
	require.Contains(t, results, "assignee_id")
	people := results["assignee_id"]
	require.Len(t, people, 2)
	assert.Equal(t, links.Option{Value: "3", Label: "Ada Lovelace"}, people[0])
	assert.Equal(t, links.Option{Value: "9", Label: "grace@studio.test"}, people[1])
}

func TestLoadAll_MissingMappingTableDisablesScoping(t *testing.T) {
	st := newFakeStore()
	st.rows[catalog.TableStatuses] = []record.Row{
		{"code": "ip", "name": "In Progress"},
		{"code": "fin", "name": "Final"},
	}
	st.errs[catalog.TableStatusEntityTypes] = store.ErrMissingTable

	results := newOptionLoader(st).LoadAll(context.Background(), "widget", links.Scope{})

	// Without the mapping table the whole catalogue is offered.
	statuses := results["status"]
	require.Len(t, statuses, 2)
	assert.Equal(t, "Final", statuses[0].Label)
	assert.Equal(t, "In Progress", statuses[1].Label)
}

func TestLoadAll_MissingSourcesDegradeToEmpty(t *testing.T) {
	st := newFakeStore()
	st.errs[catalog.TableStatuses] = store.ErrMissingTable
	st.errs[catalog.TableTags] = store.ErrMissingTable
	st.errs["profiles"] = store.ErrMissingTable

	results := newOptionLoader(st).LoadAll(context.Background(), "widget", links.Scope{})

	assert.Empty(t, results["status"])
	assert.Empty(t, results["tags"])
	assert.Empty(t, results["assignee_id"])
}
