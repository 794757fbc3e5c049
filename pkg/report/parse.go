package report

import (
	"strings"

	"github.com/beevik/etree"
	errs "wyniki/pkg/errors"
)

// Columns is the header row of the report
var Columns = []string{
	"barcode",
	"group",
	"date_time",
	"external_item_id",
	"parameter_label",
	"parameter_value",
	"parameter_unit",
	"parameter_low",
	"parameter_high",
	"remark_all",
	"original_value",
	"original_unit",
}

// Row is one parameter of one test
type Row struct {
	Barcode        string
	Group          string
	DateTime       string
	ExternalItemID string
	Label          string
	Value          string
	Unit           string
	Low            string
	High           string
	Remark         string
	OriginalValue  string
	OriginalUnit   string
}

// Record returns the row in Columns order
func (r Row) Record() []string {
	return []string{
		r.Barcode, r.Group, r.DateTime, r.ExternalItemID,
		r.Label, r.Value, r.Unit, r.Low, r.High, r.Remark,
		r.OriginalValue, r.OriginalUnit,
	}
}

// Parser turns result documents into rows
type Parser struct {
	Rules []UnitRule
}

// NewParser returns a parser using DefaultRules
func NewParser() *Parser {
	return &Parser{Rules: DefaultRules}
}

// ParseFile reads one XML result document
func (p *Parser) ParseFile(path string) ([]Row, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, "parse", path, err)
	}
	return p.ParseDocument(doc), nil
}

// ParseBytes parses a document held in memory
func (p *Parser) ParseBytes(data []byte) ([]Row, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, "parse", "", err)
	}
	return p.ParseDocument(doc), nil
}

// ParseDocument extracts one row per parameter. A document without an
// order header yields no rows.
func (p *Parser) ParseDocument(doc *etree.Document) []Row {
	root := doc.Root()
	if root == nil {
		return nil
	}
	header := root.SelectElement("header")
	if header == nil {
		return nil
	}
	order := header.SelectElement("order")
	if order == nil {
		return nil
	}
	barcode := childText(order, "barcode")
	created := childText(order, "created")

	var rows []Row
	for _, group := range root.SelectElements("group") {
		groupName := childText(group, "name")

		for _, test := range group.SelectElements("test") {
			var itemID string
			if ext := test.SelectElement("external_item_id"); ext != nil {
				itemID = childText(ext, "id")
			}

			for _, param := range test.SelectElements("parameter") {
				rows = append(rows, p.parameterRow(param, Row{
					Barcode:        barcode,
					Group:          groupName,
					DateTime:       created,
					ExternalItemID: itemID,
				}))
			}
		}
	}
	return rows
}

func (p *Parser) parameterRow(param *etree.Element, row Row) Row {
	row.Label = childText(param, "label")
	low := childText(param, "low")
	high := childText(param, "high")

	c := ConvertUnits(p.Rules, childText(param, "value"), childText(param, "unit"), row.Label)
	if c.Converted() {
		low = ScaleBound(low, c.Factor)
		high = ScaleBound(high, c.Factor)
	}

	row.Value = c.Value
	row.Unit = c.Unit
	row.Low = low
	row.High = high
	row.Remark = strings.TrimSpace(childText(param, "remark_all"))
	row.OriginalValue = c.OriginalValue
	row.OriginalUnit = c.OriginalUnit
	return row
}

func childText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return child.Text()
}
