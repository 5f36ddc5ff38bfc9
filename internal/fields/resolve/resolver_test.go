package resolve

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/formula"
	"github.com/dailies-app/dailies/internal/fields/types"
)

func testResolver() *Resolver {
	engine := formula.NewEngine(formula.Builtins(func() time.Time {
		return time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	}))
	return NewResolver(catalog.NewStaticCatalogue(), engine)
}

func descriptorMap(descriptors []Descriptor) map[string]Descriptor {
	out := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		out[d.Code] = d
	}
	return out
}

func TestDefinitions_UnknownEntityIsEmpty(t *testing.T) {
	defs := testResolver().Definitions("widget")
	assert.NotNil(t, defs)
	assert.Empty(t, defs)
}

func TestDefinitions_SortedByDisplayOrder(t *testing.T) {
	defs := testResolver().Definitions(catalog.EntityShot)
	require.NotEmpty(t, defs)

	orders := make([]int, len(defs))
	for i, d := range defs {
		orders[i] = d.DisplayOrder
	}
	assert.True(t, sort.IntsAreSorted(orders), "descriptors should be ordered: %v", orders)
}

func TestDefinitions_SystemColumns(t *testing.T) {
	byCode := descriptorMap(testResolver().Definitions(catalog.EntityShot))

	id, ok := byCode["id"]
	require.True(t, ok)
	assert.False(t, id.Editable)
	assert.True(t, id.ReadOnly)
	assert.True(t, id.Hidden)

	createdAt, ok := byCode["created_at"]
	require.True(t, ok)
	assert.False(t, createdAt.Editable)
	assert.Equal(t, types.DateTime, createdAt.Type)
}

func TestDefinitions_ReferenceResolution(t *testing.T) {
	byCode := descriptorMap(testResolver().Definitions(catalog.EntityTask))

	assignee := byCode["assignee_id"]
	assert.Equal(t, types.Entity, assignee.Type)
	assert.Equal(t, catalog.EntityProfile, assignee.Target)
	require.NotNil(t, assignee.OptionSource)
	assert.Equal(t, OptionSourceEntity, assignee.OptionSource.Kind)
	assert.Equal(t, catalog.EntityProfile, assignee.OptionSource.Target)

	reviewers := byCode["reviewer_ids"]
	assert.Equal(t, types.MultiEntity, reviewers.Type)
	assert.Equal(t, catalog.EntityProfile, reviewers.Target)
}

func TestDefinitions_PolymorphicReference(t *testing.T) {
	byCode := descriptorMap(testResolver().Definitions(catalog.EntityTask))

	link := byCode["entity_id"]
	assert.True(t, link.IsReference())
	assert.True(t, link.IsPolymorphic())
	assert.Nil(t, link.OptionSource, "polymorphic references carry no option source")
}

func TestDefinitions_TypeHeuristicsOnlyForGenericText(t *testing.T) {
	byCode := descriptorMap(testResolver().Definitions(catalog.EntityShot))

	assert.Equal(t, types.StatusList, byCode["status"].Type)
	assert.Equal(t, types.TagList, byCode["tags"].Type)

	// "code" is explicitly text; no heuristic applies.
	assert.Equal(t, types.Text, byCode["code"].Type)
}

func TestDefinitions_StoredComputedFieldKeepsColumn(t *testing.T) {
	byCode := descriptorMap(testResolver().Definitions(catalog.EntityShot))

	cut := byCode["cut_duration"]
	require.NotNil(t, cut.Formula, "cut_duration is formula backed")
	assert.Equal(t, "cut_duration", cut.StorageColumn)
}

func TestDefinitions_VirtualFormulaDescriptors(t *testing.T) {
	defs := testResolver().Definitions(catalog.EntityTask)
	byCode := descriptorMap(defs)

	overdue, ok := byCode["is_overdue"]
	require.True(t, ok, "virtual formula fields are synthesized")
	assert.True(t, overdue.ReadOnly)
	assert.False(t, overdue.Editable)
	assert.Empty(t, overdue.StorageColumn)
	assert.Equal(t, types.Boolean, overdue.Type, "conditional formulas present as booleans")

	label, ok := byCode["entity_link_label"]
	require.True(t, ok)
	assert.Equal(t, types.Text, label.Type, "concatenation formulas present as text")

	remaining, ok := byCode["days_remaining"]
	require.True(t, ok)
	assert.Equal(t, types.Calculated, remaining.Type)

	// Synthesized descriptors order after every schema field.
	maxSchemaOrder := 0
	for _, d := range defs {
		if d.Formula == nil && d.DisplayOrder > maxSchemaOrder {
			maxSchemaOrder = d.DisplayOrder
		}
	}
	assert.Greater(t, overdue.DisplayOrder, maxSchemaOrder)
}

func TestDefinitions_StatusOptionSource(t *testing.T) {
	byCode := descriptorMap(testResolver().Definitions(catalog.EntityVersion))

	status := byCode["status"]
	require.NotNil(t, status.OptionSource)
	assert.Equal(t, OptionSourceStatus, status.OptionSource.Kind)

	tags := byCode["tags"]
	require.NotNil(t, tags.OptionSource)
	assert.Equal(t, OptionSourceTags, tags.OptionSource.Kind)
}

func TestLabelFromCode(t *testing.T) {
	assert.Equal(t, "Days Overdue", labelFromCode("days_overdue"))
	assert.Equal(t, "Entity ID", labelFromCode("entity_id"))
	assert.Equal(t, "Media URL", labelFromCode("media_url"))
	assert.Equal(t, "FPS", labelFromCode("fps"))
}
