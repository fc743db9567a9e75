package analysis

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Field names one of the three numeric columns that are analyzed.
type Field string

const (
	FieldPrice    Field = "price"
	FieldQuantity Field = "quantity"
	FieldRating   Field = "rating"
)

// Fields lists the analyzed fields in report order.
var Fields = []Field{FieldPrice, FieldQuantity, FieldRating}

// Value is a numeric cell: either a parsed number or the raw text that failed to parse.
type Value struct {
	Num float64
	Raw string
	OK  bool
}

// Valid wraps a parsed number.
func Valid(x float64) Value { return Value{Num: x, OK: true} }

// Invalid records text that could not be read as a number.
func Invalid(raw string) Value { return Value{Raw: raw} }

// Float returns the number and whether the value was valid.
func (v Value) Float() (float64, bool) { return v.Num, v.OK }

// Row is one normalized data record.
type Row struct {
	ID       Value
	Name     string
	Price    Value
	Quantity Value
	Rating   Value
}

// Value returns the cell for a numeric field. Unknown fields yield an invalid value.
func (r Row) Value(f Field) Value {
	switch f {
	case FieldPrice:
		return r.Price
	case FieldQuantity:
		return r.Quantity
	case FieldRating:
		return r.Rating
	default:
		return Invalid("")
	}
}

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// parseNumber reads the longest numeric prefix of s, so "12.5 EUR" is 12.5.
// Anything without a numeric prefix, or that overflows, is invalid.
func parseNumber(s string) Value {
	raw := strings.TrimSpace(s)
	m := leadingFloat.FindString(raw)
	if m == "" {
		return Invalid(raw)
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return Invalid(raw)
	}
	return Valid(f)
}

// parseID reads the integer prefix of s.
func parseID(s string) Value {
	raw := strings.TrimSpace(s)
	m := leadingInt.FindString(raw)
	if m == "" {
		return Invalid(raw)
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return Invalid(raw)
	}
	return Valid(float64(n))
}
