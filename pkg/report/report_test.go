package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "wyniki/pkg/errors"
	"wyniki/pkg/logger"
	"wyniki/pkg/ui"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <header>
    <order>
      <barcode>402337694L</barcode>
      <created>2024-03-09 08:15</created>
    </order>
  </header>
  <group>
    <name>Biochemia</name>
    <test>
      <external_item_id><id>I81</id></external_item_id>
      <parameter>
        <label>Bilirubina całkowita</label>
        <value>1,20</value>
        <unit>mg/dl</unit>
        <low>0,3</low>
        <high>1,2</high>
        <remark_all>  w normie  </remark_all>
      </parameter>
      <parameter>
        <label>Glukoza</label>
        <value>95</value>
        <unit>mg/dl</unit>
        <low>70</low>
        <high>99</high>
      </parameter>
    </test>
  </group>
  <group>
    <name>Lipidogram</name>
    <test>
      <parameter>
        <label>Cholesterol całkowity</label>
        <value>5,0</value>
        <unit>mmol/l</unit>
        <high>5,2</high>
      </parameter>
    </test>
  </group>
</root>`

const secondXML = `<root>
  <header><order><barcode>500000001L</barcode><created>2024-04-01 07:00</created></order></header>
  <group><name>Morfologia</name><test><parameter><label>Hemoglobina</label><value>14,1</value><unit>g/dl</unit></parameter></test></group>
</root>`

func TestParseDocument(t *testing.T) {
	rows, err := NewParser().ParseBytes([]byte(sampleXML))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, Row{
		Barcode:        "402337694L",
		Group:          "Biochemia",
		DateTime:       "2024-03-09 08:15",
		ExternalItemID: "I81",
		Label:          "Bilirubina całkowita",
		Value:          "20,52",
		Unit:           "µmol/l",
		Low:            "5,13",
		High:           "20,52",
		Remark:         "w normie",
		OriginalValue:  "1,20",
		OriginalUnit:   "mg/dl",
	}, rows[0])

	glucose := rows[1]
	assert.Equal(t, "95", glucose.Value)
	assert.Equal(t, glucose.OriginalValue, glucose.Value)
	assert.Equal(t, glucose.OriginalUnit, glucose.Unit)
	assert.Equal(t, "70", glucose.Low)
	assert.Equal(t, "99", glucose.High)

	chol := rows[2]
	assert.Equal(t, "Lipidogram", chol.Group)
	assert.Empty(t, chol.ExternalItemID)
	assert.Equal(t, "193,35", chol.Value)
	assert.Equal(t, "mg/dl", chol.Unit)
	assert.Empty(t, chol.Low)
	assert.Equal(t, "201,08", chol.High)
}

func TestParseDocumentWithoutHeader(t *testing.T) {
	for _, doc := range []string{
		`<root><group><name>x</name></group></root>`,
		`<root><header><patient/></header><group><name>x</name></group></root>`,
	} {
		rows, err := NewParser().ParseBytes([]byte(doc))
		require.NoError(t, err)
		assert.Empty(t, rows)
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := NewParser().ParseBytes([]byte(`<root><a></b></root>`))
	require.Error(t, err)
	assert.Equal(t, errs.ErrorTypeParsing, errs.TypeOf(err))
}

func TestRecordMatchesColumns(t *testing.T) {
	assert.Len(t, Row{}.Record(), len(Columns))
}

func writeInput(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestConvert(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, map[string]string{
		"b.xml":     secondXML,
		"a.xml":     sampleXML,
		"c.xml":     `<root><a></b></root>`,
		"notes.txt": "ignored",
	})
	out := filepath.Join(t.TempDir(), "reports", "lab_results.csv")

	result, err := NewConverter(3, logger.NewNopLogger()).Convert(context.Background(), in, out)
	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, 1, result.Failed())
	require.Len(t, result.Files, 3)
	assert.Equal(t, "a.xml", result.Files[0].File)
	assert.Equal(t, "b.xml", result.Files[1].File)
	assert.Error(t, result.Files[2].Err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\r\n")

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, "402337694L", records[1][0])
	assert.Equal(t, "20,52", records[1][5])
	assert.Equal(t, "500000001L", records[4][0])
	assert.Equal(t, "Hemoglobina", records[4][4])
}

func TestConvertNoRows(t *testing.T) {
	in := t.TempDir()
	writeInput(t, in, map[string]string{"a.xml": `<root/>`})
	out := filepath.Join(t.TempDir(), "lab_results.csv")

	result, err := NewConverter(1, logger.NewNopLogger()).Convert(context.Background(), in, out)
	require.NoError(t, err)
	assert.False(t, result.Written)
	assert.Zero(t, result.Rows)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestConvertInputErrors(t *testing.T) {
	c := NewConverter(1, logger.NewNopLogger())
	out := filepath.Join(t.TempDir(), "out.csv")

	_, err := c.Convert(context.Background(), t.TempDir(), out)
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = c.Convert(context.Background(), filepath.Join(t.TempDir(), "missing"), out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRenderResult(t *testing.T) {
	ui.SetNoColor(true)
	defer ui.SetNoColor(false)

	rows, err := NewParser().ParseBytes([]byte(sampleXML))
	require.NoError(t, err)
	result := &Result{
		InputDir: "downloads/xml_results",
		Files:    []FileResult{{File: "a.xml", Rows: 3}},
		Rows:     3,
	}

	var buf bytes.Buffer
	RenderResult(&buf, result)
	assert.Contains(t, buf.String(), "a.xml")

	buf.Reset()
	RenderRows(&buf, rows, 2)
	assert.Contains(t, buf.String(), "Bilirubina całkowita")
	// Footers are upper-cased by the rounded style
	assert.Contains(t, strings.ToLower(buf.String()), "1 more")
}
