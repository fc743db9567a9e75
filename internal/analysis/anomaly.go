package analysis

// Reason explains why a value was flagged.
type Reason string

const (
	ReasonNegativePrice    Reason = "negative price"
	ReasonPriceBelow10     Reason = "price below 10"
	ReasonPriceAbove500    Reason = "price above 500"
	ReasonNegativeQuantity Reason = "negative quantity"
	ReasonZeroQuantity     Reason = "zero quantity"
	ReasonHighQuantity     Reason = "excessively high quantity"
	ReasonRatingBelow1     Reason = "rating below 1"
	ReasonRatingAbove5     Reason = "rating above 5"
	ReasonUnparseable      Reason = "unparseable value"
)

// Anomaly is a single flagged cell. Line is the spreadsheet row number (header = 1).
type Anomaly struct {
	Line   int     `json:"line"`
	Value  float64 `json:"value"`
	Reason Reason  `json:"reason"`
	Raw    string  `json:"raw,omitempty"`
}

// Anomalies groups flagged cells by field, in row order.
type Anomalies struct {
	Price    []Anomaly `json:"price"`
	Quantity []Anomaly `json:"quantity"`
	Rating   []Anomaly `json:"rating"`
}

// List returns the anomalies for f; unknown fields have none.
func (a Anomalies) List(f Field) []Anomaly {
	switch f {
	case FieldPrice:
		return a.Price
	case FieldQuantity:
		return a.Quantity
	case FieldRating:
		return a.Rating
	default:
		return nil
	}
}

// Total is the number of anomalies across all fields.
func (a Anomalies) Total() int {
	return len(a.Price) + len(a.Quantity) + len(a.Rating)
}

type rule struct {
	reason Reason
	match  func(x float64) bool
}

// Each chain is evaluated in order and stops at the first match.
var (
	priceRules = []rule{
		{ReasonNegativePrice, func(x float64) bool { return x < 0 }},
		{ReasonPriceBelow10, func(x float64) bool { return x < 10 }},
		{ReasonPriceAbove500, func(x float64) bool { return x > 500 }},
	}
	quantityRules = []rule{
		{ReasonNegativeQuantity, func(x float64) bool { return x < 0 }},
		{ReasonZeroQuantity, func(x float64) bool { return x == 0 }},
		{ReasonHighQuantity, func(x float64) bool { return x >= 1000 }},
	}
	ratingRules = []rule{
		{ReasonRatingBelow1, func(x float64) bool { return x < 1 }},
		{ReasonRatingAbove5, func(x float64) bool { return x > 5 }},
	}
)

func check(v Value, line int, rules []rule, flagInvalid bool) (Anomaly, bool) {
	x, ok := v.Float()
	if !ok {
		if flagInvalid {
			return Anomaly{Line: line, Reason: ReasonUnparseable, Raw: v.Raw}, true
		}
		return Anomaly{}, false
	}
	for _, r := range rules {
		if r.match(x) {
			return Anomaly{Line: line, Value: x, Reason: r.reason}, true
		}
	}
	return Anomaly{}, false
}

// DetectAnomalies applies the range rules to every row. It never fails and always
// returns non-nil lists.
func DetectAnomalies(rows []Row, opt Options) Anomalies {
	out := Anomalies{Price: []Anomaly{}, Quantity: []Anomaly{}, Rating: []Anomaly{}}
	for i, row := range rows {
		line := i + 2
		if a, ok := check(row.Price, line, priceRules, opt.FlagUnparseable); ok {
			out.Price = append(out.Price, a)
		}
		if a, ok := check(row.Quantity, line, quantityRules, opt.FlagUnparseable); ok {
			out.Quantity = append(out.Quantity, a)
		}
		if a, ok := check(row.Rating, line, ratingRules, opt.FlagUnparseable); ok {
			out.Rating = append(out.Rating, a)
		}
	}
	return out
}
