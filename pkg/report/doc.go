// Package report collates downloaded XML result documents into a single CSV
// file with one row per measured parameter.
//
// Two unit rules are applied while parsing: total bilirubin reported in
// mg/dl is rescaled to µmol/l and total cholesterol reported in mmol/l is
// rescaled to mg/dl. Converted values and bounds use a decimal comma with two
// fractional digits; the source value and unit are kept in their own columns.
package report
