package assemble

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customer-segmentation/internal/features"
	"customer-segmentation/internal/rfm"
)

func TestJoinColumnOrder(t *testing.T) {
	table := Join(nil, nil)
	assert.Equal(t, FeatureColumns, table.Columns())
	assert.Equal(t, "Recency", table.Columns()[0])
	assert.Equal(t, "NumCountries", table.Columns()[len(FeatureColumns)-1])
}

func TestJoinMatchedCustomer(t *testing.T) {
	rfmRows := []rfm.Row{
		{CustomerID: "17850", Recency: 1, Frequency: 2, Monetary: decimal.RequireFromString("10.20")},
	}
	extRows := []features.Row{
		{CustomerID: "17850", UniqueProducts: 2, ReturnRate: 0.5, NumCountries: 1},
	}

	table := Join(rfmRows, extRows)
	require.Len(t, table.Rows, 1)

	v, ok := table.Value(0, "Recency")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, ok = table.Value(0, "Monetary")
	require.True(t, ok)
	assert.InDelta(t, 10.20, v, 1e-9)
	v, ok = table.Value(0, "ReturnRate")
	require.True(t, ok)
	assert.Equal(t, 0.5, v)

	_, ok = table.Value(0, "NoSuchColumn")
	assert.False(t, ok)
}

func TestJoinMissingExtendedRowFillsNaN(t *testing.T) {
	rfmRows := []rfm.Row{
		{CustomerID: "13047", Recency: 3, Frequency: 1, Monetary: decimal.NewFromInt(50)},
	}

	table := Join(rfmRows, nil)
	require.Len(t, table.Rows, 1)
	require.Len(t, table.Rows[0].Values, len(FeatureColumns))

	v, ok := table.Value(0, "UniqueProducts")
	require.True(t, ok)
	assert.True(t, math.IsNaN(v))
	v, ok = table.Value(0, "Frequency")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestJoinRFMIsCanonicalUniverse(t *testing.T) {
	rfmRows := []rfm.Row{
		{CustomerID: "12583", Monetary: decimal.NewFromInt(1)},
	}
	extRows := []features.Row{
		{CustomerID: "12583"},
		{CustomerID: "99999"}, // not in the RFM universe, must not appear
	}

	table := Join(rfmRows, extRows)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "12583", table.Rows[0].CustomerID)
}

func TestFilter(t *testing.T) {
	rfmRows := []rfm.Row{
		{CustomerID: "17850", Monetary: decimal.NewFromInt(10)},
		{CustomerID: "13047", Monetary: decimal.NewFromInt(-5)},
		{CustomerID: "12583", Monetary: decimal.NewFromInt(20)},
	}
	table := Join(rfmRows, nil)

	filtered := table.Filter(map[string]struct{}{"13047": {}})
	require.Len(t, filtered.Rows, 2)
	assert.Equal(t, "17850", filtered.Rows[0].CustomerID)
	assert.Equal(t, "12583", filtered.Rows[1].CustomerID)
	// original untouched
	assert.Len(t, table.Rows, 3)
}

func TestWriteCSV(t *testing.T) {
	rfmRows := []rfm.Row{
		{CustomerID: "17850", Recency: 1, Frequency: 2, Monetary: decimal.RequireFromString("10.20")},
	}
	table := Join(rfmRows, nil)

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "CustomerID,"+strings.Join(FeatureColumns, ","), lines[0])

	cells := strings.Split(lines[1], ",")
	require.Len(t, cells, len(FeatureColumns)+1)
	assert.Equal(t, "17850", cells[0])
	assert.Equal(t, "1", cells[1])
	assert.Equal(t, "10.2", cells[3])
	// NaN extended cells serialize as empty strings
	assert.Equal(t, "", cells[4])
	assert.Equal(t, "", cells[len(cells)-1])
}
