package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertUnits(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		unit      string
		label     string
		wantValue string
		wantUnit  string
		converted bool
	}{
		{"bilirubin in mg/dl", "1,20", "mg/dl", "Bilirubina całkowita", "20,52", "µmol/l", true},
		{"bilirubin with decimal point", "1.0", "mg/dl", "bilirubina", "17,10", "µmol/l", true},
		{"case insensitive label and unit", "1,0", "MG/DL", "BILIRUBINA", "17,10", "µmol/l", true},
		{"cholesterol in mmol/l", "5,0", "mmol/l", "Cholesterol całkowity", "193,35", "mg/dl", true},
		{"bilirubin already in target unit", "12", "µmol/l", "Bilirubina", "12", "µmol/l", false},
		{"cholesterol already in mg/dl", "190", "mg/dl", "Cholesterol całkowity", "190", "mg/dl", false},
		{"unrelated parameter", "95", "mg/dl", "Glukoza", "95", "mg/dl", false},
		{"unparseable value", "<0,2", "mg/dl", "Bilirubina", "<0,2", "mg/dl", false},
		{"missing unit", "1,0", "", "Bilirubina", "1,0", "", false},
		{"HDL is not total cholesterol", "1,5", "mmol/l", "Cholesterol HDL", "1,5", "mmol/l", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ConvertUnits(DefaultRules, tt.value, tt.unit, tt.label)
			assert.Equal(t, tt.wantValue, c.Value)
			assert.Equal(t, tt.wantUnit, c.Unit)
			assert.Equal(t, tt.value, c.OriginalValue)
			assert.Equal(t, tt.unit, c.OriginalUnit)
			assert.Equal(t, tt.converted, c.Converted())
		})
	}
}

func TestScaleBound(t *testing.T) {
	assert.Equal(t, "5,13", ScaleBound("0,3", 17.1))
	assert.Equal(t, "201,08", ScaleBound("5,2", 38.67))
	assert.Equal(t, "", ScaleBound("", 17.1))
	assert.Equal(t, "n/a", ScaleBound("n/a", 17.1))
	assert.Equal(t, "0,3", ScaleBound("0,3", 0))
}

func TestParseDecimalRejectsNonFinite(t *testing.T) {
	for _, s := range []string{"NaN", "inf", "-Inf", "", "abc"} {
		_, ok := parseDecimal(s)
		assert.False(t, ok, s)
	}
	n, ok := parseDecimal(" 2,5 ")
	assert.True(t, ok)
	assert.Equal(t, 2.5, n)
}
