package ingest

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customer-segmentation/pkg/errors"
)

const sampleCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,12/1/2010 8:26,2.55,17850,United Kingdom
536366,71053,METAL LANTERN,-2,12/2/2010 9:01,2.55,17850,United Kingdom
536367,84406B,,8,12/2/2010 10:00,2.75,13047,France
`

func TestParse(t *testing.T) {
	records, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "536365", records[0].InvoiceNo)
	assert.Equal(t, "85123A", records[0].StockCode)
	assert.Equal(t, 6.0, records[0].Quantity)
	assert.Equal(t, 2.55, records[0].UnitPrice)
	assert.Equal(t, "17850", records[0].CustomerID)
	assert.Equal(t, time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), records[0].InvoiceDate)

	assert.Equal(t, -2.0, records[1].Quantity)
	assert.Empty(t, records[2].Description)
}

func TestParseHeaderColumnsInAnyOrder(t *testing.T) {
	csv := "Country,CustomerID,UnitPrice,InvoiceDate,Quantity,Description,StockCode,InvoiceNo\n" +
		"France,13047,2.75,12/2/2010 10:00,8,CUP,84406B,536367\n"
	records, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "536367", records[0].InvoiceNo)
	assert.Equal(t, "France", records[0].Country)
}

func TestParseLatin1Description(t *testing.T) {
	// 0xE9 is é in ISO 8859-1; raw bytes must decode without error.
	csv := "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n" +
		"536368,22960,CAF\xc9 SET,1,12/2/2010 11:00,4.25,12583,France\n"
	records, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, "CAFÉ SET", records[0].Description)
}

func TestParseEmptyNumericCellBecomesNaN(t *testing.T) {
	csv := "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n" +
		"536369,21756,BATH BLOCK,3,12/2/2010 12:00,,14688,United Kingdom\n"
	records, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(records[0].UnitPrice))
	assert.Equal(t, 3.0, records[0].Quantity)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{
			name: "missing required column",
			csv:  "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,Country\n",
		},
		{
			name: "non-numeric quantity",
			csv: "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n" +
				"536370,21756,BATH BLOCK,lots,12/2/2010 12:00,1.65,14688,United Kingdom\n",
		},
		{
			name: "unparseable timestamp",
			csv: "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n" +
				"536371,21756,BATH BLOCK,3,not-a-date,1.65,14688,United Kingdom\n",
		},
		{
			name: "ragged row",
			csv: "InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country\n" +
				"536372,21756\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.csv))
			require.Error(t, err)
			pe, ok := err.(*errors.PipelineError)
			require.True(t, ok)
			assert.Contains(t, []string{errors.ErrCodeDataLoadFailed, errors.ErrCodeMissingColumn}, pe.Code)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.csv")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataLoadFailed))
}
