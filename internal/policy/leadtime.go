package policy

import (
	"context"
	"fmt"
	"time"
)

// LeadTimePolicy denies requests whose start is closer to "now" than the
// configured minimum. Exactly the minimum is allowed. This keeps immediate
// surprise bookings out without touching anything but injected time.
type LeadTimePolicy struct {
	minLeadMinutes int
}

func NewLeadTimePolicy(minLeadMinutes int) (*LeadTimePolicy, error) {
	if minLeadMinutes < 0 {
		return nil, fmt.Errorf("lead-time policy: minimum minutes cannot be negative (got %d)", minLeadMinutes)
	}
	return &LeadTimePolicy{minLeadMinutes: minLeadMinutes}, nil
}

func (p *LeadTimePolicy) ID() string { return "LeadTimePolicy@v1" }

func (p *LeadTimePolicy) Order() int { return 200 }

func (p *LeadTimePolicy) ShouldApply(cmd Command, pctx *Context) bool {
	return (cmd == CommandCreateHold || cmd == CommandReschedule) && pctx.Request != nil
}

func (p *LeadTimePolicy) Evaluate(_ context.Context, pctx *Context) (Result, error) {
	actualLead := int(pctx.Request.Period.Start.Sub(pctx.TimeNow) / time.Minute)

	if actualLead < p.minLeadMinutes {
		return Result{
			Status:     StatusDeny,
			PolicyID:   p.ID(),
			ReasonCode: "booking.lead_time.too_soon",
			Message:    fmt.Sprintf("Booking must be made at least %d minutes in advance.", p.minLeadMinutes),
			ActionDetails: map[string]any{
				"min_lead_minutes":    p.minLeadMinutes,
				"actual_lead_minutes": actualLead,
			},
		}, nil
	}

	return Result{Status: StatusAllow, PolicyID: p.ID()}, nil
}
