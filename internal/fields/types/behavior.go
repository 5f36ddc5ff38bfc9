package types

// FormatOptions carries display formatting knobs supplied by the caller.
// They are not baked into the type behaviors: the same Currency behavior
// formats with whatever symbol the calling surface configures.
type FormatOptions struct {
	// DecimalPlaces controls fractional digits for numeric types.
	// Negative means "as many as needed".
	DecimalPlaces int
	// CurrencySymbol prefixes Currency values. Defaults to "$".
	CurrencySymbol string
	// DurationUnit labels Duration values (e.g. "min", "hrs", "days").
	// Defaults to "min".
	DurationUnit string
	// FPS is the frame rate used to render Timecode values. Defaults to 24.
	FPS float64
	// DateFormat overrides the layout for Date values. Defaults to
	// "Jan 2, 2006".
	DateFormat string
}

// DefaultFormatOptions returns the options used when the caller supplies
// none.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		DecimalPlaces:  -1,
		CurrencySymbol: "$",
		DurationUnit:   "min",
		FPS:            24,
	}
}

// Constraints holds per-field validation limits supplied by the caller.
type Constraints struct {
	Required  bool
	Min       *float64
	Max       *float64
	MaxLength int
	Pattern   string
}

// Result is the tagged outcome of a validation. Validate never returns a
// Go error and never panics; an invalid value carries a human message.
type Result struct {
	Valid   bool
	Message string
}

// OK is the valid result.
var OK = Result{Valid: true}

// Invalid builds an invalid result with the given message.
func Invalid(message string) Result {
	return Result{Valid: false, Message: message}
}

// Behavior is the immutable per-type contract. Every member of the
// FieldType enumeration has exactly one Behavior; ForType is total.
type Behavior struct {
	// Type is the field type this behavior belongs to.
	Type FieldType

	// Parse converts a raw value into the type's canonical form. Empty
	// input (nil, "", whitespace) maps to nil uniformly, and parsing an
	// already-canonical value is a no-op.
	Parse func(raw interface{}) interface{}

	// Format renders a canonical value as a human string. nil formats as
	// the empty string.
	Format func(value interface{}, opts FormatOptions) string

	// Serialize converts a canonical value into its storage-ready form.
	Serialize func(value interface{}) interface{}

	// Validate checks a canonical value against caller constraints.
	Validate func(value interface{}, c Constraints) Result

	// Compare orders two canonical values. nil sorts before any non-nil
	// value for every type; array-valued types compare by their joined
	// string form.
	Compare func(a, b interface{}) int

	// Default is the value a new field of this type starts with.
	Default interface{}

	// Editable reports whether the type is directly user-editable.
	Editable bool

	// NeedsOptions reports whether fields of this type require an
	// auxiliary option set (choice list, entity picker).
	NeedsOptions bool
}

// registry holds the behavior for every field type, keyed by the type's
// enum value. Built once at package init; read-only afterwards.
var registry map[FieldType]Behavior

func init() {
	registry = make(map[FieldType]Behavior, len(allTypes))
	for _, t := range allTypes {
		registry[t] = buildBehavior(t)
	}
}

// ForType returns the behavior for a field type. The lookup is total: an
// out-of-range value falls back to the Text behavior rather than failing.
func ForType(t FieldType) Behavior {
	if b, ok := registry[t]; ok {
		return b
	}
	return registry[Text]
}
