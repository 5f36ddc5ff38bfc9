// Package types implements the field type registry: one immutable behavior
// record (parse/format/serialize/validate/compare) per field data type. The
// set of types is closed; lookups are total and an unrecognized raw type
// name degrades deterministically to Text.
package types

// FieldType identifies one of the closed set of field data types.
type FieldType int

const (
	// Text types
	Text FieldType = iota
	LongText

	// Numeric types
	Integer
	Float
	Duration
	Percent
	Currency

	// Boolean
	Boolean

	// Time types
	Date
	DateTime
	Timecode

	// Choice types
	List
	StatusList
	TagList

	// Reference types
	Entity
	MultiEntity

	// Presentation types
	Image
	URL
	Color

	// Opaque structured data
	JSON

	// Read-only derived types
	Calculated
	Query
	Summary
)

// String returns the canonical name of the field type.
func (t FieldType) String() string {
	switch t {
	case Text:
		return "text"
	case LongText:
		return "long_text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Duration:
		return "duration"
	case Percent:
		return "percent"
	case Currency:
		return "currency"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case DateTime:
		return "date_time"
	case Timecode:
		return "timecode"
	case List:
		return "list"
	case StatusList:
		return "status_list"
	case TagList:
		return "tag_list"
	case Entity:
		return "entity"
	case MultiEntity:
		return "multi_entity"
	case Image:
		return "image"
	case URL:
		return "url"
	case Color:
		return "color"
	case JSON:
		return "json"
	case Calculated:
		return "calculated"
	case Query:
		return "query"
	case Summary:
		return "summary"
	default:
		return "text"
	}
}

// MarshalText renders the type by its canonical name so API payloads
// carry "date" rather than an enum ordinal.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsReference reports whether the type holds a foreign reference.
func (t FieldType) IsReference() bool {
	return t == Entity || t == MultiEntity
}

// IsDerived reports whether the type is read-only derived data.
func (t FieldType) IsDerived() bool {
	return t == Calculated || t == Query || t == Summary
}

// allTypes lists every member of the closed enumeration, used to build the
// registry and by tests that sweep the whole type set.
var allTypes = []FieldType{
	Text, LongText,
	Integer, Float, Duration, Percent, Currency,
	Boolean,
	Date, DateTime, Timecode,
	List, StatusList, TagList,
	Entity, MultiEntity,
	Image, URL, Color,
	JSON,
	Calculated, Query, Summary,
}

// All returns every field type in registry order.
func All() []FieldType {
	out := make([]FieldType, len(allTypes))
	copy(out, allTypes)
	return out
}

// ParseFieldType maps a raw schema type name to a FieldType. Both the
// canonical names and the legacy names used by older schema dumps are
// accepted. Anything unrecognized degrades to Text; there is no failing
// path.
func ParseFieldType(raw string) FieldType {
	switch raw {
	case "text", "string", "varchar":
		return Text
	case "long_text", "longtext", "memo":
		return LongText
	case "integer", "int", "number", "bigint":
		return Integer
	case "float", "double", "decimal", "numeric", "real":
		return Float
	case "duration":
		return Duration
	case "percent":
		return Percent
	case "currency", "money":
		return Currency
	case "boolean", "bool", "checkbox":
		return Boolean
	case "date":
		return Date
	case "date_time", "datetime", "timestamp", "timestamptz":
		return DateTime
	case "timecode":
		return Timecode
	case "list", "enum":
		return List
	case "status_list", "status":
		return StatusList
	case "tag_list", "tags":
		return TagList
	case "entity", "reference":
		return Entity
	case "multi_entity", "multi_reference":
		return MultiEntity
	case "image", "thumbnail":
		return Image
	case "url", "link":
		return URL
	case "color":
		return Color
	case "json", "jsonb", "serializable":
		return JSON
	case "calculated":
		return Calculated
	case "query":
		return Query
	case "summary":
		return Summary
	default:
		return Text
	}
}
