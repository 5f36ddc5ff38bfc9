// Package filters builds filter facets over enriched rows: categorical
// value counts for choice and reference fields, and calendar-relative
// bucket counts for date fields.
package filters

import (
	"sort"
	"time"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/links"
	"github.com/dailies-app/dailies/internal/fields/resolve"
	"github.com/dailies-app/dailies/internal/fields/types"
	"github.com/dailies-app/dailies/internal/record"
)

// Facet is one filterable value with its occurrence count.
type Facet struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// DateBucket names a calendar-relative range a date value falls into.
type DateBucket string

const (
	BucketEarlier   DateBucket = "earlier"
	BucketLastWeek  DateBucket = "last_week"
	BucketYesterday DateBucket = "yesterday"
	BucketToday     DateBucket = "today"
	BucketTomorrow  DateBucket = "tomorrow"
	BucketThisWeek  DateBucket = "this_week"
	BucketNextWeek  DateBucket = "next_week"
	BucketThisMonth DateBucket = "this_month"
	BucketLater     DateBucket = "later"
	BucketNone      DateBucket = "none"
)

// bucketOrder fixes facet ordering for date fields, past to future.
var bucketOrder = []DateBucket{
	BucketEarlier,
	BucketLastWeek,
	BucketYesterday,
	BucketToday,
	BucketTomorrow,
	BucketThisWeek,
	BucketNextWeek,
	BucketThisMonth,
	BucketLater,
	BucketNone,
}

var bucketLabels = map[DateBucket]string{
	BucketEarlier:   "Earlier",
	BucketLastWeek:  "Last Week",
	BucketYesterday: "Yesterday",
	BucketToday:     "Today",
	BucketTomorrow:  "Tomorrow",
	BucketThisWeek:  "This Week",
	BucketNextWeek:  "Next Week",
	BucketThisMonth: "This Month",
	BucketLater:     "Later",
	BucketNone:      "No Date",
}

// weekStart returns midnight of the Monday on or before t.
func weekStart(t time.Time) time.Time {
	day := record.CalendarDay(t)
	// time.Weekday has Sunday == 0; shift so Monday starts the week.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Classify places a date into its calendar bucket relative to now.
// Day-level buckets win over week-level ones: yesterday is never
// "last_week" even though it falls inside that week.
func Classify(value time.Time, now time.Time) DateBucket {
	day := record.CalendarDay(value)
	today := record.CalendarDay(now)

	switch {
	case day.Equal(today):
		return BucketToday
	case day.Equal(today.AddDate(0, 0, -1)):
		return BucketYesterday
	case day.Equal(today.AddDate(0, 0, 1)):
		return BucketTomorrow
	}

	thisWeek := weekStart(now)
	switch {
	case !day.Before(thisWeek) && day.Before(thisWeek.AddDate(0, 0, 7)):
		return BucketThisWeek
	case !day.Before(thisWeek.AddDate(0, 0, -7)) && day.Before(thisWeek):
		return BucketLastWeek
	case !day.Before(thisWeek.AddDate(0, 0, 7)) && day.Before(thisWeek.AddDate(0, 0, 14)):
		return BucketNextWeek
	}

	if day.Year() == today.Year() && day.Month() == today.Month() {
		return BucketThisMonth
	}
	if day.Before(today) {
		return BucketEarlier
	}
	return BucketLater
}

// Builder computes facets over an enriched row set. now is injected so
// bucket boundaries are stable under test.
type Builder struct {
	now func() time.Time
}

func NewBuilder(now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{now: now}
}

// Build computes the facet list for one field over the given rows. Choice
// and reference fields get per-value counts; date fields get bucket
// counts. Other field types yield no facets.
func (b *Builder) Build(d resolve.Descriptor, rows []record.Row, resolution *links.Resolution) []Facet {
	switch {
	case d.Type == types.Date || d.Type == types.DateTime:
		return b.dateFacets(d, rows)
	case d.IsReference():
		return b.referenceFacets(d, rows, resolution)
	case types.ForType(d.Type).NeedsOptions || d.Type == types.TagList || d.Type == types.Boolean:
		return b.categoricalFacets(d, rows)
	default:
		return nil
	}
}

func (b *Builder) dateFacets(d resolve.Descriptor, rows []record.Row) []Facet {
	counts := map[DateBucket]int{}
	now := b.now()
	for _, row := range rows {
		t, ok := row.Time(d.Code)
		if !ok {
			counts[BucketNone]++
			continue
		}
		counts[Classify(t, now)]++
	}

	facets := make([]Facet, 0, len(counts))
	for _, bucket := range bucketOrder {
		if n := counts[bucket]; n > 0 {
			facets = append(facets, Facet{
				Value: string(bucket),
				Label: bucketLabels[bucket],
				Count: n,
			})
		}
	}
	return facets
}

func (b *Builder) referenceFacets(d resolve.Descriptor, rows []record.Row, resolution *links.Resolution) []Facet {
	counts := map[string]int{}
	labels := map[string]string{}
	for _, row := range rows {
		for _, id := range fieldIDs(d, row) {
			counts[id]++
			if _, seen := labels[id]; seen {
				continue
			}
			labels[id] = referenceLabel(d, row, id, resolution)
		}
	}
	return sortedFacets(counts, labels)
}

func (b *Builder) categoricalFacets(d resolve.Descriptor, rows []record.Row) []Facet {
	counts := map[string]int{}
	for _, row := range rows {
		value, ok := row.Get(d.Code)
		if !ok {
			continue
		}
		if many, ok := record.CoerceStrings(value); ok && d.Type == types.TagList {
			for _, v := range many {
				counts[v]++
			}
			continue
		}
		behavior := types.ForType(d.Type)
		counts[behavior.Format(behavior.Parse(value), types.DefaultFormatOptions())]++
	}

	labels := make(map[string]string, len(counts))
	for value := range counts {
		labels[value] = value
	}
	return sortedFacets(counts, labels)
}

// fieldIDs extracts the reference ids a row holds for d, single or multi.
func fieldIDs(d resolve.Descriptor, row record.Row) []string {
	value, ok := row.Get(d.Code)
	if !ok {
		return nil
	}
	if d.Type == types.MultiEntity {
		ids, _ := record.CoerceStrings(value)
		return ids
	}
	id, ok := record.CoerceString(value)
	if !ok {
		return nil
	}
	return []string{id}
}

func referenceLabel(d resolve.Descriptor, row record.Row, id string, resolution *links.Resolution) string {
	if resolution != nil {
		if d.IsPolymorphic() {
			entityType, _ := row.String(catalog.PolymorphicTypeColumn)
			if label, ok := resolution.PolyLabel(entityType, id); ok {
				return label
			}
		} else if label, ok := resolution.Label(d.Code, id); ok {
			return label
		}
	}
	return id
}

// sortedFacets orders facets by descending count, then label for ties.
func sortedFacets(counts map[string]int, labels map[string]string) []Facet {
	facets := make([]Facet, 0, len(counts))
	for value, n := range counts {
		facets = append(facets, Facet{Value: value, Label: labels[value], Count: n})
	}
	sort.Slice(facets, func(i, j int) bool {
		if facets[i].Count != facets[j].Count {
			return facets[i].Count > facets[j].Count
		}
		return facets[i].Label < facets[j].Label
	})
	return facets
}
