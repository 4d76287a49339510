// Package policy provides OPA-based row filters for the assembled feature
// table. Filtering policies (for example "positive Monetary only") are
// deliberate post-hoc choices, kept out of the aggregators themselves.
package policy

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/open-policy-agent/opa/rego"

	"customer-segmentation/internal/assemble"
	"customer-segmentation/pkg/errors"
)

// Result holds the outcome of a policy pass over the feature table.
type Result struct {
	Excluded []string `json:"excluded"` // customer identifiers dropped
	Kept     int      `json:"kept"`
}

// Evaluator runs every *.rego module in a directory against the table.
// Policies contribute customer identifiers to data.segment.exclude.
type Evaluator struct {
	policiesDir string
}

func NewEvaluator(policiesDir string) *Evaluator {
	return &Evaluator{policiesDir: policiesDir}
}

// Filter applies the policies and returns the filtered table. With no
// policies directory or no policy files the table passes through untouched.
// Evaluation errors are fatal to the run.
func (e *Evaluator) Filter(ctx context.Context, table *assemble.Table) (*assemble.Table, *Result, error) {
	result := &Result{Excluded: []string{}, Kept: len(table.Rows)}
	if e.policiesDir == "" {
		return table, result, nil
	}

	files, err := filepath.Glob(filepath.Join(e.policiesDir, "*.rego"))
	if err != nil {
		return nil, nil, errors.NewPolicyError(fmt.Sprintf("failed to list policies in %s", e.policiesDir), err)
	}
	if len(files) == 0 {
		return table, result, nil
	}

	input := tableInput(table)
	excluded := make(map[string]struct{})
	for _, file := range files {
		policy, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, errors.NewPolicyError(fmt.Sprintf("failed to read policy %s", file), err)
		}
		ids, err := e.evalQuery(ctx, string(policy), "data.segment.exclude", input)
		if err != nil {
			return nil, nil, errors.NewPolicyError(fmt.Sprintf("failed to evaluate policy %s", file), err)
		}
		for _, id := range ids {
			if _, seen := excluded[id]; !seen {
				excluded[id] = struct{}{}
				result.Excluded = append(result.Excluded, id)
			}
		}
	}

	filtered := table.Filter(excluded)
	result.Kept = len(filtered.Rows)
	return filtered, result, nil
}

func (e *Evaluator) evalQuery(ctx context.Context, policy, query string, input map[string]any) ([]string, error) {
	r := rego.New(
		rego.Query(query),
		rego.Module("policy.rego", policy),
		rego.Input(input),
	)

	rs, err := r.Eval(ctx)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			if set, ok := expr.Value.([]interface{}); ok {
				for _, v := range set {
					if id, ok := v.(string); ok {
						ids = append(ids, id)
					}
				}
			}
		}
	}
	return ids, nil
}

// ValidatePolicies compiles every policy file without evaluating it.
func (e *Evaluator) ValidatePolicies() error {
	files, err := filepath.Glob(filepath.Join(e.policiesDir, "*.rego"))
	if err != nil {
		return errors.NewPolicyError(fmt.Sprintf("failed to list policies in %s", e.policiesDir), err)
	}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return errors.NewPolicyError(fmt.Sprintf("failed to read policy %s", file), err)
		}
		_, err = rego.New(
			rego.Query("data.segment.exclude"),
			rego.Module(file, string(content)),
		).PrepareForEval(context.Background())
		if err != nil {
			return errors.NewPolicyError(fmt.Sprintf("invalid policy %s", file), err)
		}
	}
	return nil
}

// tableInput converts the table into policy input. Non-finite cells become
// null: rego has no NaN, and a policy must see them as missing rather than
// as zero.
func tableInput(table *assemble.Table) map[string]any {
	columns := table.Columns()
	customers := make([]map[string]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		entry := map[string]any{"customer_id": row.CustomerID}
		for i, col := range columns {
			v := row.Values[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				entry[col] = nil
				continue
			}
			entry[col] = v
		}
		customers = append(customers, entry)
	}
	return map[string]any{"customers": customers}
}
