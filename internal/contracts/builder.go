package contracts

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CompetitorBuilder maps loosely shaped input into a CompetitorRecord.
// ⭐ SSOT: the only place where key aliases, casing and string parsing happen.
// The scoring engine accepts the normalized record exclusively.
type CompetitorBuilder struct {
	rec    CompetitorRecord
	issues []string
}

// NewCompetitorBuilder starts a record for asin
func NewCompetitorBuilder(asin string) *CompetitorBuilder {
	return &CompetitorBuilder{rec: CompetitorRecord{ASIN: strings.TrimSpace(asin)}}
}

func (b *CompetitorBuilder) Price(v float64) *CompetitorBuilder {
	b.rec.Price = Ptr(v)
	return b
}

func (b *CompetitorBuilder) BSR(v int) *CompetitorBuilder {
	b.rec.BSR = Ptr(v)
	return b
}

func (b *CompetitorBuilder) MonthlySales(v float64) *CompetitorBuilder {
	b.rec.MonthlySales = Ptr(v)
	return b
}

func (b *CompetitorBuilder) MonthlyRevenue(v float64) *CompetitorBuilder {
	b.rec.MonthlyRevenue = Ptr(v)
	return b
}

func (b *CompetitorBuilder) Rating(v float64) *CompetitorBuilder {
	b.rec.Rating = Ptr(v)
	return b
}

func (b *CompetitorBuilder) Reviews(v int) *CompetitorBuilder {
	b.rec.Reviews = Ptr(v)
	return b
}

func (b *CompetitorBuilder) MarketSharePct(v float64) *CompetitorBuilder {
	b.rec.MarketSharePct = Ptr(v)
	return b
}

func (b *CompetitorBuilder) ReviewSharePct(v float64) *CompetitorBuilder {
	b.rec.ReviewSharePct = Ptr(v)
	return b
}

func (b *CompetitorBuilder) Fulfillment(m FulfillmentMethod) *CompetitorBuilder {
	b.rec.FulfillmentMethod = m
	return b
}

func (b *CompetitorBuilder) FirstAvailable(t time.Time) *CompetitorBuilder {
	b.rec.DateFirstAvailable = Ptr(t)
	return b
}

// Build returns the normalized record
func (b *CompetitorBuilder) Build() CompetitorRecord {
	return b.rec
}

// Issues returns fields that were present but could not be parsed
func (b *CompetitorBuilder) Issues() []string {
	return b.issues
}

// fieldAliases maps canonical field names to accepted raw keys
// (lowercased, with spaces/underscores/dashes removed)
var fieldAliases = map[string][]string{
	"asin":               {"asin", "id", "productid"},
	"price":              {"price", "listprice", "currentprice"},
	"bsr":                {"bsr", "bestsellersrank", "bestsellerrank", "salesrank", "rank"},
	"monthlysales":       {"monthlysales", "sales", "unitssold", "monthlyunits", "approximate30dayunitssold"},
	"monthlyrevenue":     {"monthlyrevenue", "revenue", "approximate30dayrevenue"},
	"rating":             {"rating", "stars", "averagerating"},
	"reviews":            {"reviews", "reviewcount", "ratingscount", "numreviews"},
	"marketsharepct":     {"marketsharepct", "marketshare"},
	"reviewsharepct":     {"reviewsharepct", "reviewshare"},
	"fulfillment":        {"fulfillmentmethod", "fulfillment", "fulfilment", "fulfilmentmethod"},
	"datefirstavailable": {"datefirstavailable", "firstavailable", "launchdate", "listingdate"},
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// NormalizeRaw builds a CompetitorRecord from a loosely keyed row
// (CSV row, JSON object, third-party export). Unparseable values are
// dropped and reported as issues, never guessed.
func NormalizeRaw(raw map[string]any) (CompetitorRecord, []string) {
	byKey := make(map[string]any, len(raw))
	for k, v := range raw {
		byKey[canonicalKey(k)] = v
	}

	lookup := func(field string) (any, bool) {
		for _, alias := range fieldAliases[field] {
			if v, ok := byKey[alias]; ok && !isBlank(v) {
				return v, true
			}
		}
		return nil, false
	}

	asin := ""
	if v, ok := lookup("asin"); ok {
		asin = fmt.Sprint(v)
	}
	b := NewCompetitorBuilder(asin)

	floatField := func(field string, set func(float64) *CompetitorBuilder) {
		v, ok := lookup(field)
		if !ok {
			return
		}
		f, err := parseNumber(v)
		if err != nil {
			b.issues = append(b.issues, fmt.Sprintf("%s: %v", field, err))
			return
		}
		set(f)
	}

	intField := func(field string, set func(int) *CompetitorBuilder) {
		floatField(field, func(f float64) *CompetitorBuilder {
			return set(int(math.Round(f)))
		})
	}

	floatField("price", b.Price)
	intField("bsr", b.BSR)
	floatField("monthlysales", b.MonthlySales)
	floatField("monthlyrevenue", b.MonthlyRevenue)
	floatField("rating", b.Rating)
	intField("reviews", b.Reviews)
	floatField("marketsharepct", b.MarketSharePct)
	floatField("reviewsharepct", b.ReviewSharePct)

	if v, ok := lookup("fulfillment"); ok {
		b.Fulfillment(ParseFulfillmentMethod(fmt.Sprint(v)))
	}

	if v, ok := lookup("datefirstavailable"); ok {
		t, err := parseDate(v)
		if err != nil {
			b.issues = append(b.issues, fmt.Sprintf("datefirstavailable: %v", err))
		} else {
			b.FirstAvailable(t)
		}
	}

	return b.Build(), b.Issues()
}

// ParseFulfillmentMethod normalizes casing. Unrecognized values map to unknown.
func ParseFulfillmentMethod(s string) FulfillmentMethod {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fba":
		return FulfillmentFBA
	case "fbm":
		return FulfillmentFBM
	case "amazon", "amz":
		return FulfillmentAmazon
	default:
		return FulfillmentUnknown
	}
}

func canonicalKey(k string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(k) {
		if r == ' ' || r == '_' || r == '-' || r == '.' {
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func parseNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return checkFinite(n, nil)
	case float32:
		return checkFinite(float64(n), nil)
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return checkFinite(n.Float64())
	case string:
		cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(n)
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return checkFinite(f, nil)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

// checkFinite rejects NaN and ±Inf, which ParseFloat accepts
func checkFinite(f float64, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", f)
	}
	return f, nil
}

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", d)
	default:
		return time.Time{}, fmt.Errorf("unsupported type %T", v)
	}
}
