package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvillarreal-dev/booking-core/internal/booking"
	"github.com/jvillarreal-dev/booking-core/internal/timerange"
)

func requestStartingIn(t *testing.T, now time.Time, lead time.Duration) *Context {
	t.Helper()
	period, err := timerange.New(now.Add(lead), now.Add(lead+time.Hour))
	require.NoError(t, err)
	req, err := booking.NewTimeSlotRequest("res-1", period, booking.RequestCustomerBooking)
	require.NoError(t, err)
	return &Context{
		Command: CommandCreateHold,
		Actor:   booking.Actor{Type: booking.ActorCustomer, ID: "cust-1"},
		TimeNow: now,
		Request: req,
	}
}

func TestLeadTimePolicy(t *testing.T) {
	now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
	p, err := NewLeadTimePolicy(60)
	require.NoError(t, err)

	assert.Equal(t, "LeadTimePolicy@v1", p.ID())
	assert.Equal(t, 200, p.Order())

	t.Run("applies only to requests with a payload", func(t *testing.T) {
		pctx := requestStartingIn(t, now, 2*time.Hour)
		assert.True(t, p.ShouldApply(CommandCreateHold, pctx))
		assert.True(t, p.ShouldApply(CommandReschedule, pctx))
		assert.False(t, p.ShouldApply(CommandCancel, pctx))
		assert.False(t, p.ShouldApply(CommandCreateHold, &Context{}))
	})

	t.Run("too soon is denied with details", func(t *testing.T) {
		result, err := p.Evaluate(context.Background(), requestStartingIn(t, now, 30*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, StatusDeny, result.Status)
		assert.Equal(t, "booking.lead_time.too_soon", result.ReasonCode)
		assert.Equal(t, 60, result.ActionDetails["min_lead_minutes"])
		assert.Equal(t, 30, result.ActionDetails["actual_lead_minutes"])
	})

	t.Run("exactly the minimum is allowed", func(t *testing.T) {
		result, err := p.Evaluate(context.Background(), requestStartingIn(t, now, 60*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, StatusAllow, result.Status)
	})

	t.Run("one minute short is denied", func(t *testing.T) {
		result, err := p.Evaluate(context.Background(), requestStartingIn(t, now, 59*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, StatusDeny, result.Status)
	})

	t.Run("negative threshold is rejected", func(t *testing.T) {
		_, err := NewLeadTimePolicy(-1)
		assert.Error(t, err)
	})
}

func TestMaxAdvancePolicy(t *testing.T) {
	now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
	p, err := NewMaxAdvancePolicy(7 * 24 * 60)
	require.NoError(t, err)

	assert.Equal(t, "MaxAdvancePolicy@v1", p.ID())
	assert.Equal(t, 210, p.Order())

	t.Run("beyond the horizon is denied", func(t *testing.T) {
		result, err := p.Evaluate(context.Background(), requestStartingIn(t, now, 8*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, StatusDeny, result.Status)
		assert.Equal(t, "booking.max_advance.exceeded", result.ReasonCode)
		assert.Equal(t, 7*24*60, result.ActionDetails["max_advance_minutes"])
		assert.Equal(t, 8*24*60, result.ActionDetails["actual_advance_minutes"])
	})

	t.Run("exactly the horizon is allowed", func(t *testing.T) {
		result, err := p.Evaluate(context.Background(), requestStartingIn(t, now, 7*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, StatusAllow, result.Status)
	})

	t.Run("negative threshold is rejected", func(t *testing.T) {
		_, err := NewMaxAdvancePolicy(-5)
		assert.Error(t, err)
	})
}

func TestTimeRulesTogether(t *testing.T) {
	now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)

	lead, err := NewLeadTimePolicy(60)
	require.NoError(t, err)
	advance, err := NewMaxAdvancePolicy(7 * 24 * 60)
	require.NoError(t, err)
	engine := NewEngine([]Policy{advance, lead})

	t.Run("lead time runs before max advance", func(t *testing.T) {
		decision, err := engine.Evaluate(context.Background(), CommandCreateHold, requestStartingIn(t, now, 10*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, StatusDeny, decision.Decision.Status)
		assert.Equal(t, "LeadTimePolicy@v1", decision.Decision.PolicyID)
		require.Len(t, decision.Trace.Records, 1)
	})

	t.Run("in-window request passes both", func(t *testing.T) {
		decision, err := engine.Evaluate(context.Background(), CommandCreateHold, requestStartingIn(t, now, 24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, StatusAllow, decision.Decision.Status)
		require.Len(t, decision.Trace.Records, 2)
		assert.Equal(t, "LeadTimePolicy@v1", decision.Trace.Records[0].PolicyID)
		assert.Equal(t, "MaxAdvancePolicy@v1", decision.Trace.Records[1].PolicyID)
	})
}

func TestBuildPolicies(t *testing.T) {
	t.Run("permissive defaults", func(t *testing.T) {
		policies, err := BuildPolicies(RegistryConfig{LeadTimeEnabled: true, MaxAdvanceEnabled: true})
		require.NoError(t, err)
		require.Len(t, policies, 2)
		assert.Equal(t, "LeadTimePolicy@v1", policies[0].ID())
		assert.Equal(t, "MaxAdvancePolicy@v1", policies[1].ID())
	})

	t.Run("disabled rules are omitted", func(t *testing.T) {
		policies, err := BuildPolicies(RegistryConfig{LeadTimeEnabled: true})
		require.NoError(t, err)
		require.Len(t, policies, 1)
		assert.Equal(t, "LeadTimePolicy@v1", policies[0].ID())
	})

	t.Run("strict mode requires parameters", func(t *testing.T) {
		_, err := BuildPolicies(RegistryConfig{Strict: true, LeadTimeEnabled: true})
		assert.Error(t, err)

		_, err = BuildPolicies(RegistryConfig{Strict: true, MaxAdvanceEnabled: true})
		assert.Error(t, err)
	})

	t.Run("strict mode with parameters", func(t *testing.T) {
		policies, err := BuildPolicies(RegistryConfig{
			Strict:            true,
			LeadTimeEnabled:   true,
			MaxAdvanceEnabled: true,
			LeadTime:          &LeadTimeParams{MinMinutes: 30},
			MaxAdvance:        &MaxAdvanceParams{MaxMinutes: 14 * 24 * 60},
		})
		require.NoError(t, err)
		assert.Len(t, policies, 2)
	})

	t.Run("configured values flow into the rules", func(t *testing.T) {
		now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
		policies, err := BuildPolicies(RegistryConfig{
			LeadTimeEnabled: true,
			LeadTime:        &LeadTimeParams{MinMinutes: 15},
		})
		require.NoError(t, err)
		engine := NewEngine(policies)

		decision, err := engine.Evaluate(context.Background(), CommandCreateHold, requestStartingIn(t, now, 20*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, StatusAllow, decision.Decision.Status)

		decision, err = engine.Evaluate(context.Background(), CommandCreateHold, requestStartingIn(t, now, 10*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, StatusDeny, decision.Decision.Status)
	})
}
