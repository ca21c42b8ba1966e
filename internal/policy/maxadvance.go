package policy

import (
	"context"
	"fmt"
	"time"
)

// MaxAdvancePolicy denies requests booked further into the future than the
// configured maximum. Exactly the maximum is allowed. Past-dated starts are
// someone else's problem; this rule only guards the upper bound.
type MaxAdvancePolicy struct {
	maxAdvanceMinutes int
}

func NewMaxAdvancePolicy(maxAdvanceMinutes int) (*MaxAdvancePolicy, error) {
	if maxAdvanceMinutes < 0 {
		return nil, fmt.Errorf("max-advance policy: maximum minutes cannot be negative (got %d)", maxAdvanceMinutes)
	}
	return &MaxAdvancePolicy{maxAdvanceMinutes: maxAdvanceMinutes}, nil
}

func (p *MaxAdvancePolicy) ID() string { return "MaxAdvancePolicy@v1" }

func (p *MaxAdvancePolicy) Order() int { return 210 }

func (p *MaxAdvancePolicy) ShouldApply(cmd Command, pctx *Context) bool {
	return (cmd == CommandCreateHold || cmd == CommandReschedule) && pctx.Request != nil
}

func (p *MaxAdvancePolicy) Evaluate(_ context.Context, pctx *Context) (Result, error) {
	actualAdvance := int(pctx.Request.Period.Start.Sub(pctx.TimeNow) / time.Minute)

	if actualAdvance > p.maxAdvanceMinutes {
		return Result{
			Status:     StatusDeny,
			PolicyID:   p.ID(),
			ReasonCode: "booking.max_advance.exceeded",
			Message:    fmt.Sprintf("Cannot book more than %d minutes in advance.", p.maxAdvanceMinutes),
			ActionDetails: map[string]any{
				"max_advance_minutes":    p.maxAdvanceMinutes,
				"actual_advance_minutes": actualAdvance,
			},
		}, nil
	}

	return Result{Status: StatusAllow, PolicyID: p.ID()}, nil
}
