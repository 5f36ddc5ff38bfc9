package types

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dailies-app/dailies/internal/record"
)

// buildBehavior constructs the behavior record for one field type. The
// switch is exhaustive over the enumeration; adding a new FieldType without
// a case here leaves the type on the Text behavior, which the registry
// tests catch.
func buildBehavior(t FieldType) Behavior {
	switch t {
	case Text, LongText:
		return stringBehavior(t, true)
	case Integer:
		return integerBehavior()
	case Float:
		return floatBehavior(Float)
	case Duration:
		return floatBehavior(Duration)
	case Percent:
		return floatBehavior(Percent)
	case Currency:
		return floatBehavior(Currency)
	case Boolean:
		return booleanBehavior()
	case Date:
		return dateBehavior()
	case DateTime:
		return dateTimeBehavior()
	case Timecode:
		return timecodeBehavior()
	case List:
		return choiceBehavior(List)
	case StatusList:
		return choiceBehavior(StatusList)
	case TagList:
		return stringSliceBehavior(TagList)
	case Entity:
		return entityBehavior()
	case MultiEntity:
		return stringSliceBehavior(MultiEntity)
	case Image:
		return readOnlyStringBehavior(Image)
	case URL:
		return urlBehavior()
	case Color:
		return colorBehavior()
	case JSON:
		return jsonBehavior()
	case Calculated, Query, Summary:
		return derivedBehavior(t)
	default:
		return stringBehavior(Text, true)
	}
}

// isEmpty reports whether a raw value counts as absent: nil, empty or
// whitespace-only strings, and typed nil pointers from scanning.
func isEmpty(raw interface{}) bool {
	if raw == nil {
		return true
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return strings.TrimSpace(string(v)) == ""
	case *time.Time:
		return v == nil
	}
	return false
}

// compareNil implements the shared null ordering: nil sorts before any
// non-nil value. The bool result reports whether the comparison was decided
// by nil handling alone.
func compareNil(a, b interface{}) (int, bool) {
	switch {
	case a == nil && b == nil:
		return 0, true
	case a == nil:
		return -1, true
	case b == nil:
		return 1, true
	}
	return 0, false
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cleanNumeric strips display decoration (currency symbols, thousands
// separators, percent signs, unit suffixes) from a numeric string.
var trailingUnit = regexp.MustCompile(`[a-zA-Z%]+\s*$`)

func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimPrefix(s, "£")
	s = strings.ReplaceAll(s, ",", "")
	s = trailingUnit.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func parseFloatValue(raw interface{}) (float64, bool) {
	if s, ok := raw.(string); ok {
		f, err := strconv.ParseFloat(cleanNumeric(s), 64)
		return f, err == nil
	}
	if b, ok := raw.([]byte); ok {
		f, err := strconv.ParseFloat(cleanNumeric(string(b)), 64)
		return f, err == nil
	}
	return record.CoerceFloat64(raw)
}

func parseIntValue(raw interface{}) (int64, bool) {
	if s, ok := raw.(string); ok {
		f, err := strconv.ParseFloat(cleanNumeric(s), 64)
		if err != nil {
			return 0, false
		}
		return int64(f), true
	}
	if b, ok := raw.([]byte); ok {
		return parseIntValue(string(b))
	}
	return record.CoerceInt64(raw)
}

// formatFloat renders a float with the configured decimal places.
func formatFloat(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// validateNumeric applies required/min/max to a numeric canonical value.
func validateNumeric(value interface{}, c Constraints) Result {
	if value == nil {
		if c.Required {
			return Invalid("is required")
		}
		return OK
	}
	f, ok := record.CoerceFloat64(value)
	if !ok {
		return Invalid("must be a number")
	}
	if c.Min != nil && f < *c.Min {
		return Invalid(fmt.Sprintf("must be at least %g", *c.Min))
	}
	if c.Max != nil && f > *c.Max {
		return Invalid(fmt.Sprintf("must be at most %g", *c.Max))
	}
	return OK
}

// validateString applies required/length/pattern to a string canonical
// value.
func validateString(value interface{}, c Constraints) Result {
	if value == nil {
		if c.Required {
			return Invalid("is required")
		}
		return OK
	}
	s, ok := value.(string)
	if !ok {
		if coerced, isStr := record.CoerceString(value); isStr {
			s = coerced
		} else {
			return Invalid("must be text")
		}
	}
	if c.MaxLength > 0 && len(s) > c.MaxLength {
		return Invalid(fmt.Sprintf("must be at most %d characters", c.MaxLength))
	}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return Invalid("has an invalid pattern constraint")
		}
		if !re.MatchString(s) {
			return Invalid("does not match the required format")
		}
	}
	return OK
}

func parseStringValue(raw interface{}) interface{} {
	if isEmpty(raw) {
		return nil
	}
	if s, ok := record.CoerceString(raw); ok {
		return strings.TrimSpace(s)
	}
	return nil
}

func stringBehavior(t FieldType, editable bool) Behavior {
	return Behavior{
		Type:  t,
		Parse: parseStringValue,
		Format: func(value interface{}, _ FormatOptions) string {
			if value == nil {
				return ""
			}
			s, _ := record.CoerceString(value)
			return s
		},
		Serialize: passthrough,
		Validate:  validateString,
		Compare:   stringCompare,
		Default:   nil,
		Editable:  editable,
	}
}

func stringCompare(a, b interface{}) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	as, _ := record.CoerceString(a)
	bs, _ := record.CoerceString(b)
	return compareStrings(strings.ToLower(as), strings.ToLower(bs))
}

func passthrough(value interface{}) interface{} { return value }

func integerBehavior() Behavior {
	return Behavior{
		Type: Integer,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			if i, ok := parseIntValue(raw); ok {
				return i
			}
			return nil
		},
		Format: func(value interface{}, _ FormatOptions) string {
			if value == nil {
				return ""
			}
			i, _ := record.CoerceInt64(value)
			return strconv.FormatInt(i, 10)
		},
		Serialize: passthrough,
		Validate:  validateNumeric,
		Compare:   numericCompare,
		Default:   nil,
		Editable:  true,
	}
}

func numericCompare(a, b interface{}) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	af, _ := record.CoerceFloat64(a)
	bf, _ := record.CoerceFloat64(b)
	return compareFloats(af, bf)
}

// floatBehavior backs Float, Duration, Percent, and Currency: the canonical
// value is a float64 and only formatting differs between them.
func floatBehavior(t FieldType) Behavior {
	return Behavior{
		Type: t,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			if f, ok := parseFloatValue(raw); ok {
				return f
			}
			return nil
		},
		Format: func(value interface{}, opts FormatOptions) string {
			if value == nil {
				return ""
			}
			f, _ := record.CoerceFloat64(value)
			switch t {
			case Percent:
				return formatFloat(f, resolveDecimals(opts, 0)) + "%"
			case Currency:
				symbol := opts.CurrencySymbol
				if symbol == "" {
					symbol = "$"
				}
				return symbol + formatFloat(f, resolveDecimals(opts, 2))
			case Duration:
				unit := opts.DurationUnit
				if unit == "" {
					unit = "min"
				}
				return formatFloat(f, resolveDecimals(opts, 0)) + " " + unit
			default:
				return strconv.FormatFloat(f, 'f', opts.DecimalPlaces, 64)
			}
		},
		Serialize: passthrough,
		Validate:  validateNumeric,
		Compare:   numericCompare,
		Default:   nil,
		Editable:  true,
	}
}

// resolveDecimals picks the caller's decimal places, falling back to the
// type's conventional default when unset (zero value) or explicitly "auto".
func resolveDecimals(opts FormatOptions, fallback int) int {
	if opts.DecimalPlaces > 0 {
		return opts.DecimalPlaces
	}
	return fallback
}

func booleanBehavior() Behavior {
	return Behavior{
		Type: Boolean,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			if b, ok := record.CoerceBool(raw); ok {
				return b
			}
			return nil
		},
		Format: func(value interface{}, _ FormatOptions) string {
			if value == nil {
				return ""
			}
			if b, ok := record.CoerceBool(value); ok && b {
				return "Yes"
			}
			return "No"
		},
		Serialize: passthrough,
		Validate: func(value interface{}, c Constraints) Result {
			if value == nil && c.Required {
				return Invalid("is required")
			}
			return OK
		},
		// false sorts before true, after nil.
		Compare: func(a, b interface{}) int {
			if c, done := compareNil(a, b); done {
				return c
			}
			ab, _ := record.CoerceBool(a)
			bb, _ := record.CoerceBool(b)
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			default:
				return 1
			}
		},
		Default:  false,
		Editable: true,
	}
}

// displayDateLayouts extend the storage layouts with the human formats this
// package emits, so parse(format(parse(x))) round-trips.
var displayDateLayouts = []string{
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
}

func parseTimeValue(raw interface{}) (time.Time, bool) {
	if t, ok := record.CoerceTime(raw); ok {
		return t, true
	}
	s, ok := record.CoerceString(raw)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range displayDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateBehavior() Behavior {
	return Behavior{
		Type: Date,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			if t, ok := parseTimeValue(raw); ok {
				return record.Midnight(t)
			}
			return nil
		},
		Format: func(value interface{}, opts FormatOptions) string {
			if value == nil {
				return ""
			}
			t, ok := record.CoerceTime(value)
			if !ok {
				return ""
			}
			layout := opts.DateFormat
			if layout == "" {
				layout = "Jan 2, 2006"
			}
			return t.Format(layout)
		},
		Serialize: func(value interface{}) interface{} {
			if value == nil {
				return nil
			}
			if t, ok := record.CoerceTime(value); ok {
				return t.Format("2006-01-02")
			}
			return value
		},
		Validate: validateDate,
		Compare:  timeCompare,
		Default:  nil,
		Editable: true,
	}
}

func dateTimeBehavior() Behavior {
	b := dateBehavior()
	b.Type = DateTime
	b.Parse = func(raw interface{}) interface{} {
		if isEmpty(raw) {
			return nil
		}
		if t, ok := parseTimeValue(raw); ok {
			return t
		}
		return nil
	}
	b.Format = func(value interface{}, opts FormatOptions) string {
		if value == nil {
			return ""
		}
		t, ok := record.CoerceTime(value)
		if !ok {
			return ""
		}
		layout := opts.DateFormat
		if layout == "" {
			layout = "Jan 2, 2006 3:04 PM"
		}
		return t.Format(layout)
	}
	b.Serialize = func(value interface{}) interface{} {
		if value == nil {
			return nil
		}
		if t, ok := record.CoerceTime(value); ok {
			return t.UTC().Format(time.RFC3339)
		}
		return value
	}
	return b
}

func validateDate(value interface{}, c Constraints) Result {
	if value == nil {
		if c.Required {
			return Invalid("is required")
		}
		return OK
	}
	if _, ok := record.CoerceTime(value); !ok {
		return Invalid("must be a date")
	}
	return OK
}

func timeCompare(a, b interface{}) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	at, _ := record.CoerceTime(a)
	bt, _ := record.CoerceTime(b)
	switch {
	case at.Before(bt):
		return -1
	case at.After(bt):
		return 1
	default:
		return 0
	}
}

// defaultFPS is assumed when parsing a timecode string without caller
// context. Format honors FormatOptions.FPS.
const defaultFPS = 24.0

func timecodeBehavior() Behavior {
	return Behavior{
		Type: Timecode,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			if s, ok := raw.(string); ok && strings.Contains(s, ":") {
				if frames, ok := parseTimecode(s, defaultFPS); ok {
					return frames
				}
				return nil
			}
			if i, ok := parseIntValue(raw); ok {
				return i
			}
			return nil
		},
		Format: func(value interface{}, opts FormatOptions) string {
			if value == nil {
				return ""
			}
			frames, ok := record.CoerceInt64(value)
			if !ok {
				return ""
			}
			fps := opts.FPS
			if fps <= 0 {
				fps = defaultFPS
			}
			return formatTimecode(frames, fps)
		},
		Serialize: passthrough,
		Validate:  validateNumeric,
		Compare:   numericCompare,
		Default:   nil,
		Editable:  true,
	}
}

// parseTimecode converts "HH:MM:SS:FF" to a frame count.
func parseTimecode(s string, fps float64) (int64, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 4 {
		return 0, false
	}
	nums := make([]int64, 4)
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		nums[i] = n
	}
	perSecond := int64(fps)
	seconds := nums[0]*3600 + nums[1]*60 + nums[2]
	return seconds*perSecond + nums[3], true
}

// formatTimecode renders a frame count as "HH:MM:SS:FF".
func formatTimecode(frames int64, fps float64) string {
	perSecond := int64(fps)
	if perSecond <= 0 {
		perSecond = int64(defaultFPS)
	}
	negative := frames < 0
	if negative {
		frames = -frames
	}
	totalSeconds := frames / perSecond
	ff := frames % perSecond
	hh := totalSeconds / 3600
	mm := (totalSeconds % 3600) / 60
	ss := totalSeconds % 60
	tc := fmt.Sprintf("%02d:%02d:%02d:%02d", hh, mm, ss, ff)
	if negative {
		return "-" + tc
	}
	return tc
}

// choiceBehavior backs List and StatusList: canonical form is the option's
// stored value (a string); the option set itself comes from the option
// loader.
func choiceBehavior(t FieldType) Behavior {
	b := stringBehavior(t, true)
	b.Type = t
	b.NeedsOptions = true
	return b
}

// stringSliceBehavior backs TagList and MultiEntity: canonical form is a
// []string, compared by its joined form.
func stringSliceBehavior(t FieldType) Behavior {
	return Behavior{
		Type: t,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			if values, ok := record.CoerceStrings(raw); ok {
				if len(values) == 0 {
					return nil
				}
				return values
			}
			return nil
		},
		Format: func(value interface{}, _ FormatOptions) string {
			if value == nil {
				return ""
			}
			values, _ := record.CoerceStrings(value)
			return strings.Join(values, ", ")
		},
		Serialize: func(value interface{}) interface{} {
			if value == nil {
				return nil
			}
			values, ok := record.CoerceStrings(value)
			if !ok {
				return value
			}
			return values
		},
		Validate: func(value interface{}, c Constraints) Result {
			if value == nil {
				if c.Required {
					return Invalid("is required")
				}
				return OK
			}
			values, ok := record.CoerceStrings(value)
			if !ok {
				return Invalid("must be a list of values")
			}
			if c.MaxLength > 0 && len(values) > c.MaxLength {
				return Invalid(fmt.Sprintf("must have at most %d entries", c.MaxLength))
			}
			return OK
		},
		Compare:      joinedCompare,
		Default:      []string{},
		Editable:     true,
		NeedsOptions: true,
	}
}

func joinedCompare(a, b interface{}) int {
	if c, done := compareNil(a, b); done {
		return c
	}
	as, _ := record.CoerceStrings(a)
	bs, _ := record.CoerceStrings(b)
	return compareStrings(
		strings.ToLower(strings.Join(as, ",")),
		strings.ToLower(strings.Join(bs, ",")),
	)
}

// entityBehavior backs single entity references. The canonical form is the
// reference id as a string; Serialize restores numeric ids so integer
// foreign-key columns keep their storage type.
func entityBehavior() Behavior {
	return Behavior{
		Type: Entity,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			if s, ok := record.CoerceString(raw); ok {
				return strings.TrimSpace(s)
			}
			return nil
		},
		Format: func(value interface{}, _ FormatOptions) string {
			if value == nil {
				return ""
			}
			s, _ := record.CoerceString(value)
			return s
		},
		Serialize: func(value interface{}) interface{} {
			if value == nil {
				return nil
			}
			s, ok := value.(string)
			if !ok {
				return value
			}
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i
			}
			return s
		},
		Validate: func(value interface{}, c Constraints) Result {
			if value == nil && c.Required {
				return Invalid("is required")
			}
			return OK
		},
		Compare:      stringCompare,
		Default:      nil,
		Editable:     true,
		NeedsOptions: true,
	}
}

func readOnlyStringBehavior(t FieldType) Behavior {
	b := stringBehavior(t, false)
	b.Type = t
	return b
}

func urlBehavior() Behavior {
	b := stringBehavior(URL, true)
	b.Validate = func(value interface{}, c Constraints) Result {
		if r := validateString(value, c); !r.Valid {
			return r
		}
		if value == nil {
			return OK
		}
		s, _ := record.CoerceString(value)
		parsed, err := url.Parse(s)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return Invalid("must be a valid URL")
		}
		return OK
	}
	return b
}

var hexColor = regexp.MustCompile(`^#[0-9a-f]{6}$`)

func colorBehavior() Behavior {
	b := stringBehavior(Color, true)
	b.Parse = func(raw interface{}) interface{} {
		v := parseStringValue(raw)
		if v == nil {
			return nil
		}
		return strings.ToLower(v.(string))
	}
	b.Validate = func(value interface{}, c Constraints) Result {
		if r := validateString(value, c); !r.Valid {
			return r
		}
		if value == nil {
			return OK
		}
		s, _ := record.CoerceString(value)
		if !hexColor.MatchString(strings.ToLower(s)) {
			return Invalid("must be a hex color like #3f8ae0")
		}
		return OK
	}
	return b
}

// jsonBehavior backs the opaque structured type. Parse decodes JSON text
// into its value form; text that is not valid JSON is kept as-is rather
// than rejected.
func jsonBehavior() Behavior {
	return Behavior{
		Type: JSON,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			switch v := raw.(type) {
			case string:
				var decoded interface{}
				if err := json.Unmarshal([]byte(v), &decoded); err == nil {
					return decoded
				}
				return v
			case []byte:
				var decoded interface{}
				if err := json.Unmarshal(v, &decoded); err == nil {
					return decoded
				}
				return string(v)
			default:
				return raw
			}
		},
		Format: func(value interface{}, _ FormatOptions) string {
			if value == nil {
				return ""
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				return ""
			}
			return string(encoded)
		},
		Serialize: func(value interface{}) interface{} {
			if value == nil {
				return nil
			}
			encoded, err := json.Marshal(value)
			if err != nil {
				return value
			}
			return string(encoded)
		},
		Validate: func(value interface{}, c Constraints) Result {
			if value == nil && c.Required {
				return Invalid("is required")
			}
			return OK
		},
		Compare: func(a, b interface{}) int {
			if c, done := compareNil(a, b); done {
				return c
			}
			ab, _ := json.Marshal(a)
			bb, _ := json.Marshal(b)
			return compareStrings(string(ab), string(bb))
		},
		Default:  nil,
		Editable: false,
	}
}

// derivedBehavior backs the read-only derived types. Values flow through
// unchanged apart from empty normalization; edits are rejected upstream by
// the editable flag.
func derivedBehavior(t FieldType) Behavior {
	return Behavior{
		Type: t,
		Parse: func(raw interface{}) interface{} {
			if isEmpty(raw) {
				return nil
			}
			return raw
		},
		Format: func(value interface{}, _ FormatOptions) string {
			if value == nil {
				return ""
			}
			s, _ := record.CoerceString(value)
			return s
		},
		Serialize: passthrough,
		Validate: func(value interface{}, c Constraints) Result {
			return OK
		},
		Compare: func(a, b interface{}) int {
			if c, done := compareNil(a, b); done {
				return c
			}
			if af, ok := record.CoerceFloat64(a); ok {
				if bf, ok := record.CoerceFloat64(b); ok {
					return compareFloats(af, bf)
				}
			}
			return stringCompare(a, b)
		},
		Default:  nil,
		Editable: false,
	}
}
