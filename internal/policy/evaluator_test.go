package policy

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customer-segmentation/internal/assemble"
	"customer-segmentation/internal/features"
	"customer-segmentation/internal/rfm"
	"customer-segmentation/pkg/errors"
)

const positiveMonetaryPolicy = `package segment

exclude[id] {
	c := input.customers[_]
	is_number(c.Monetary)
	c.Monetary <= 0
	id := c.customer_id
}
`

func writePolicy(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testTable() *assemble.Table {
	rfmRows := []rfm.Row{
		{CustomerID: "17850", Recency: 1, Frequency: 2, Monetary: decimal.RequireFromString("10.20")},
		{CustomerID: "13047", Recency: 5, Frequency: 1, Monetary: decimal.RequireFromString("-4.50")},
		{CustomerID: "12583", Recency: 2, Frequency: 3, Monetary: decimal.Zero},
	}
	extRows := []features.Row{
		{CustomerID: "17850", UniqueProducts: 2, PriceStd: math.NaN()},
	}
	return assemble.Join(rfmRows, extRows)
}

func TestFilterExcludesNonPositiveMonetary(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "positive_monetary.rego", positiveMonetaryPolicy)

	filtered, result, err := NewEvaluator(dir).Filter(context.Background(), testTable())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"13047", "12583"}, result.Excluded)
	assert.Equal(t, 1, result.Kept)
	require.Len(t, filtered.Rows, 1)
	assert.Equal(t, "17850", filtered.Rows[0].CustomerID)
}

func TestFilterNoPoliciesDirPassesThrough(t *testing.T) {
	table := testTable()

	filtered, result, err := NewEvaluator("").Filter(context.Background(), table)
	require.NoError(t, err)
	assert.Same(t, table, filtered)
	assert.Empty(t, result.Excluded)
	assert.Equal(t, 3, result.Kept)
}

func TestFilterEmptyPoliciesDirPassesThrough(t *testing.T) {
	dir := t.TempDir()
	table := testTable()

	filtered, result, err := NewEvaluator(dir).Filter(context.Background(), table)
	require.NoError(t, err)
	assert.Same(t, table, filtered)
	assert.Equal(t, 3, result.Kept)
}

func TestFilterNaNCellsAreNotZero(t *testing.T) {
	// A policy over a NaN-bearing column must not see 0: non-finite cells
	// reach the policy as null and fail is_number.
	dir := t.TempDir()
	writePolicy(t, dir, "price_std.rego", `package segment

exclude[id] {
	c := input.customers[_]
	is_number(c.PriceStd)
	c.PriceStd <= 0
	id := c.customer_id
}
`)

	rfmRows := []rfm.Row{{CustomerID: "12583", Monetary: decimal.NewFromInt(5)}}
	table := assemble.Join(rfmRows, nil) // all extended cells NaN

	filtered, result, err := NewEvaluator(dir).Filter(context.Background(), table)
	require.NoError(t, err)
	assert.Empty(t, result.Excluded)
	assert.Len(t, filtered.Rows, 1)
}

func TestFilterCombinesPolicies(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "a.rego", positiveMonetaryPolicy)
	writePolicy(t, dir, "b.rego", `package segment

exclude[id] {
	c := input.customers[_]
	c.Frequency >= 3
	id := c.customer_id
}
`)

	_, result, err := NewEvaluator(dir).Filter(context.Background(), testTable())
	require.NoError(t, err)
	// 12583 matches both policies but is reported once.
	assert.ElementsMatch(t, []string{"13047", "12583"}, result.Excluded)
}

func TestFilterInvalidPolicyFails(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "broken.rego", "package segment\n\nexclude[id] {")

	_, _, err := NewEvaluator(dir).Filter(context.Background(), testTable())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePolicyViolation))
}

func TestFilterBadPoliciesDirPattern(t *testing.T) {
	// "[" makes the glob pattern malformed; listing failures must surface
	// instead of silently passing the table through.
	_, _, err := NewEvaluator("[").Filter(context.Background(), testTable())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePolicyViolation))
}

func TestValidatePolicies(t *testing.T) {
	dir := t.TempDir()
	writePolicy(t, dir, "positive_monetary.rego", positiveMonetaryPolicy)
	require.NoError(t, NewEvaluator(dir).ValidatePolicies())

	writePolicy(t, dir, "broken.rego", "package segment\n\nexclude[id] {")
	err := NewEvaluator(dir).ValidatePolicies()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodePolicyViolation))
}
