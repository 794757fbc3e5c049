package report

import (
	"math"
	"strconv"
	"strings"
)

// UnitRule rescales a parameter reported in From into To
type UnitRule struct {
	// Label is matched case-insensitively anywhere in the parameter label
	Label  string
	From   string
	To     string
	Factor float64
}

// DefaultRules are the conversions applied to every report
var DefaultRules = []UnitRule{
	{Label: "bilirubina", From: "mg/dl", To: "µmol/l", Factor: 17.1},
	{Label: "cholesterol całkowity", From: "mmol/l", To: "mg/dl", Factor: 38.67},
}

// Conversion is the outcome of applying the rules to one value
type Conversion struct {
	Value         string
	Unit          string
	OriginalValue string
	OriginalUnit  string
	// Factor is zero when nothing was converted
	Factor float64
}

// Converted reports whether a rule rewrote the value
func (c Conversion) Converted() bool {
	return c.Factor != 0
}

// ConvertUnits applies the first rule whose label and source unit match.
// Values that do not parse as decimals pass through unchanged.
func ConvertUnits(rules []UnitRule, value, unit, label string) Conversion {
	c := Conversion{Value: value, Unit: unit, OriginalValue: value, OriginalUnit: unit}

	lower := strings.ToLower(label)
	for _, rule := range rules {
		if !strings.Contains(lower, strings.ToLower(rule.Label)) {
			continue
		}
		if unit == "" || !strings.EqualFold(unit, rule.From) {
			continue
		}
		n, ok := parseDecimal(value)
		if !ok {
			return c
		}
		c.Value = formatDecimal(n * rule.Factor)
		c.Unit = rule.To
		c.Factor = rule.Factor
		return c
	}
	return c
}

// ScaleBound rescales a reference range bound; empty or unparseable bounds
// are returned as they are
func ScaleBound(bound string, factor float64) string {
	if bound == "" || factor == 0 {
		return bound
	}
	n, ok := parseDecimal(bound)
	if !ok {
		return bound
	}
	return formatDecimal(n * factor)
}

// parseDecimal accepts both decimal comma and decimal point
func parseDecimal(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(s, ",", ".")), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// formatDecimal prints two fractional digits with a decimal comma
func formatDecimal(n float64) string {
	return strings.Replace(strconv.FormatFloat(n, 'f', 2, 64), ".", ",", 1)
}
