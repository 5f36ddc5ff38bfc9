package formula

import (
	"strings"
	"time"

	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/record"
)

// terminalStatuses are task statuses that stop a task from counting as
// overdue.
var terminalStatuses = map[string]bool{
	"done": true,
	"fin":  true,
	"clsd": true,
	"na":   true,
	"omt":  true,
}

// Builtins returns the standard formula set. now is injected so tests can
// pin the clock; production passes time.Now.
func Builtins(now func() time.Time) []Formula {
	today := func() time.Time {
		return record.CalendarDay(now())
	}

	// frameSpan implements the shared frame-range rule: last - first + 1,
	// nil when either bound is absent. Inverted bounds surface the
	// negative result as-is so downstream surfaces can flag bad data
	// instead of hiding it.
	frameSpan := func(row record.Row, firstKey, lastKey string) interface{} {
		first, okFirst := row.Int64(firstKey)
		last, okLast := row.Int64(lastKey)
		if !okFirst || !okLast {
			return nil
		}
		return last - first + 1
	}

	frameDelta := func(row record.Row, fromKey, toKey string) interface{} {
		from, okFrom := row.Int64(fromKey)
		to, okTo := row.Int64(toKey)
		if !okFrom || !okTo {
			return nil
		}
		return to - from
	}

	// dayDelta differences two calendar dates in whole days. Both operands
	// are rebuilt at midnight UTC first so a stored date and a local-zone
	// clock reading span an exact day multiple.
	dayDelta := func(from, to time.Time) int64 {
		return int64(record.CalendarDay(to).Sub(record.CalendarDay(from)).Hours() / 24)
	}

	return []Formula{
		// Shot frame durations.
		{
			Entity: catalog.EntityShot, Code: "cut_duration",
			Kind: FrameArithmetic, DependsOn: []string{"cut_in", "cut_out"},
			Calc: func(row record.Row) interface{} {
				return frameSpan(row, "cut_in", "cut_out")
			},
		},
		{
			Entity: catalog.EntityShot, Code: "head_duration",
			Kind: FrameArithmetic, DependsOn: []string{"head_in", "cut_in"},
			Calc: func(row record.Row) interface{} {
				return frameDelta(row, "head_in", "cut_in")
			},
		},
		{
			Entity: catalog.EntityShot, Code: "tail_duration",
			Kind: FrameArithmetic, DependsOn: []string{"cut_out", "tail_out"},
			Calc: func(row record.Row) interface{} {
				return frameDelta(row, "cut_out", "tail_out")
			},
		},
		{
			Entity: catalog.EntityShot, Code: "working_duration",
			Kind: FrameArithmetic, DependsOn: []string{"head_in", "tail_out"},
			Calc: func(row record.Row) interface{} {
				return frameSpan(row, "head_in", "tail_out")
			},
		},

		// Task schedule fields.
		{
			Entity: catalog.EntityTask, Code: "days_remaining",
			Kind: DateDifference, DependsOn: []string{"due_date"},
			Calc: func(row record.Row) interface{} {
				due, ok := row.Time("due_date")
				if !ok {
					return nil
				}
				return dayDelta(today(), due)
			},
		},
		{
			Entity: catalog.EntityTask, Code: "days_overdue",
			Kind: DateDifference, DependsOn: []string{"due_date"},
			Calc: func(row record.Row) interface{} {
				due, ok := row.Time("due_date")
				if !ok {
					return nil
				}
				overdue := dayDelta(due, today())
				if overdue < 0 {
					return int64(0)
				}
				return overdue
			},
		},
		{
			Entity: catalog.EntityTask, Code: "is_overdue",
			Kind: Conditional, DependsOn: []string{"due_date", "status"},
			Calc: func(row record.Row) interface{} {
				due, ok := row.Time("due_date")
				if !ok {
					return false
				}
				if status, ok := row.String("status"); ok && terminalStatuses[strings.ToLower(status)] {
					return false
				}
				return record.CalendarDay(due).Before(today())
			},
		},
		{
			Entity: catalog.EntityTask, Code: "entity_link_label",
			Kind: Concatenation, DependsOn: []string{"entity_type", "entity_name"},
			Calc: func(row record.Row) interface{} {
				return entityLinkLabel(row)
			},
		},

		// Version frame fields.
		{
			Entity: catalog.EntityVersion, Code: "frame_count",
			Kind: FrameArithmetic, DependsOn: []string{"first_frame", "last_frame"},
			Calc: func(row record.Row) interface{} {
				return frameSpan(row, "first_frame", "last_frame")
			},
		},
		{
			Entity: catalog.EntityVersion, Code: "duration_seconds",
			Kind: Arithmetic, DependsOn: []string{"first_frame", "last_frame", "fps"},
			Calc: func(row record.Row) interface{} {
				span := frameSpan(row, "first_frame", "last_frame")
				if span == nil {
					return nil
				}
				fps, ok := row.Float64("fps")
				if !ok || fps <= 0 {
					fps = 24
				}
				return float64(span.(int64)) / fps
			},
		},
		{
			Entity: catalog.EntityVersion, Code: "entity_link_label",
			Kind: Concatenation, DependsOn: []string{"entity_type", "entity_name"},
			Calc: func(row record.Row) interface{} {
				return entityLinkLabel(row)
			},
		},
		{
			Entity: catalog.EntityNote, Code: "entity_link_label",
			Kind: Concatenation, DependsOn: []string{"entity_type", "entity_name"},
			Calc: func(row record.Row) interface{} {
				return entityLinkLabel(row)
			},
		},
	}
}

// entityLinkLabel combines the denormalized polymorphic link fields into a
// single display label, e.g. "Shot SH010".
func entityLinkLabel(row record.Row) interface{} {
	name, okName := row.String("entity_name")
	if !okName {
		return nil
	}
	typ, okType := row.String("entity_type")
	if !okType {
		return name
	}
	return titleCase(typ) + " " + name
}

// titleCase uppercases the first letter of an ASCII word.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-'a'+'A') + s[1:]
	}
	return s
}

// DefaultEngine builds the engine with the built-in formula set on the
// real clock.
func DefaultEngine() *Engine {
	return NewEngine(Builtins(time.Now))
}
