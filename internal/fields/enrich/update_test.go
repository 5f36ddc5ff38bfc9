package enrich_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailies-app/dailies/internal/fields/links"
	"github.com/dailies-app/dailies/internal/record"
)

func TestPrepareUpdate_NormalizesAndRecomputes(t *testing.T) {
	f := newFixture(nil)
	descriptors := f.resolver.Definitions("task")

	row := record.Row{"id": int64(1), "status": "ip", "due_date": "2026-03-08"}
	update := f.handler.PrepareUpdate("task", row, "due_date", "2026-03-20", descriptors, links.NewResolution())

	// Storage gets the serialized form only; the schedule fields are
	// virtual and never written.
	require.Len(t, update.StoragePayload, 1)
	assert.Equal(t, "2026-03-20", update.StoragePayload["due_date"])

	// The UI patch carries the canonical value plus recomputed dependents.
	due, ok := update.UIPatch["due_date"].(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC), due)

	remaining, _ := update.UIPatch.Int64("days_remaining")
	assert.Equal(t, int64(9), remaining)
	overdue, _ := update.UIPatch.Int64("days_overdue")
	assert.Equal(t, int64(0), overdue)
	isOverdue, _ := update.UIPatch.Bool("is_overdue")
	assert.False(t, isOverdue)
}

func TestPrepareUpdate_StoredComputedDependentWritten(t *testing.T) {
	f := newFixture(nil)
	descriptors := f.resolver.Definitions("shot")

	row := record.Row{"id": int64(7), "cut_in": int64(20), "cut_out": int64(119)}
	update := f.handler.PrepareUpdate("shot", row, "cut_in", "30", descriptors, links.NewResolution())

	// cut_duration has a real column, so its recomputed value is written
	// alongside the edit.
	assert.Equal(t, int64(30), update.StoragePayload["cut_in"])
	assert.Equal(t, int64(90), update.StoragePayload["cut_duration"])

	span, _ := update.UIPatch.Int64("cut_duration")
	assert.Equal(t, int64(90), span)
}

func TestPrepareUpdate_ReferenceLabelRefreshed(t *testing.T) {
	f := newFixture(map[string][]record.Row{
		"profiles": {
			{"id": int64(3), "first_name": "Ada", "last_name": "Lovelace"},
			{"id": int64(9), "email": "grace@studio.test"},
		},
	})
	descriptors := f.resolver.Definitions("task")

	rows := []record.Row{{"id": int64(1), "assignee_id": int64(3), "reviewer_ids": []string{"9"}}}
	resolution := f.links.Resolve(context.Background(), "task", rows, links.Scope{})

	update := f.handler.PrepareUpdate("task", rows[0], "assignee_id", "9", descriptors, resolution)

	assert.Equal(t, int64(9), update.StoragePayload["assignee_id"])
	label, _ := update.UIPatch.String("assignee_id_label")
	assert.Equal(t, "grace@studio.test", label)
}

func TestPrepareUpdate_MultiReferenceLabelJoined(t *testing.T) {
	f := newFixture(map[string][]record.Row{
		"profiles": {
			{"id": int64(3), "first_name": "Ada", "last_name": "Lovelace"},
			{"id": int64(9), "email": "grace@studio.test"},
		},
	})
	descriptors := f.resolver.Definitions("task")

	rows := []record.Row{{"id": int64(1), "reviewer_ids": []string{"3", "9"}}}
	resolution := f.links.Resolve(context.Background(), "task", rows, links.Scope{})

	update := f.handler.PrepareUpdate("task", rows[0], "reviewer_ids", []interface{}{"3", "9"}, descriptors, resolution)

	label, _ := update.UIPatch.String("reviewer_ids_label")
	assert.Equal(t, "Ada Lovelace, grace@studio.test", label)
}

func TestPrepareUpdate_UnknownFieldPassesThrough(t *testing.T) {
	f := newFixture(nil)
	descriptors := f.resolver.Definitions("task")

	row := record.Row{"id": int64(1)}
	update := f.handler.PrepareUpdate("task", row, "custom_note", "hello", descriptors, links.NewResolution())

	assert.Equal(t, "hello", update.StoragePayload["custom_note"])
	assert.Equal(t, "hello", update.UIPatch["custom_note"])
}
