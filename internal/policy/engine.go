package policy

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Engine runs an ordered, short-circuiting chain of rules. It knows nothing
// about any rule's internals; it only orders, filters and aggregates.
type Engine struct {
	policies []Policy
	now      func() time.Time
}

// NewEngine builds an engine over the given rules. Rules are sorted by order
// once here; evaluation order is deterministic from then on.
func NewEngine(policies []Policy) *Engine {
	sorted := make([]Policy, len(policies))
	copy(sorted, policies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order() < sorted[j].Order()
	})
	return &Engine{policies: sorted, now: time.Now}
}

// WithClock overrides the trace timestamp source. Rule logic itself only ever
// sees Context.TimeNow; this clock stamps the audit records.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate runs applicable rules in priority order. The first non-ALLOW
// result stops the iteration and becomes the final decision; if every
// applicable rule allows, the decision is a synthetic ALLOW. The trace lists
// every rule actually run, in run order, regardless of outcome.
func (e *Engine) Evaluate(ctx context.Context, cmd Command, pctx *Context) (Decision, error) {
	var records []EvaluationRecord
	var final *Result

	for _, p := range e.policies {
		if !p.ShouldApply(cmd, pctx) {
			continue
		}

		result, err := p.Evaluate(ctx, pctx)
		if err != nil {
			return Decision{}, fmt.Errorf("evaluate policy %s failed: %w", p.ID(), err)
		}

		records = append(records, EvaluationRecord{
			PolicyID:    p.ID(),
			Order:       p.Order(),
			Result:      result,
			EvaluatedAt: e.now(),
		})

		if result.Status != StatusAllow {
			final = &result
			break
		}
	}

	if final == nil {
		final = &Result{
			Status:     StatusAllow,
			PolicyID:   "PolicyEngine",
			ReasonCode: "policy.engine.all_rules_passed",
			Message:    "All applicable policies passed.",
		}
	}

	return Decision{
		Decision: *final,
		Trace: Trace{
			Command:       cmd,
			OverallStatus: final.Status,
			Records:       records,
			Timestamp:     e.now(),
		},
	}, nil
}
