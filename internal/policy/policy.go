package policy

import (
	"context"
	"time"

	"github.com/jvillarreal-dev/booking-core/internal/booking"
)

// Status is the outcome of a single rule evaluation.
type Status string

const (
	StatusAllow         Status = "ALLOW"
	StatusDeny          Status = "DENY"
	StatusRequireAction Status = "REQUIRE_ACTION"
)

// Command identifies the booking operation being gated.
type Command string

const (
	CommandCreateHold Command = "CREATE_HOLD"
	CommandConfirm    Command = "CONFIRM"
	CommandCancel     Command = "CANCEL"
	CommandReschedule Command = "RESCHEDULE"
	CommandAdminBlock Command = "ADMIN_BLOCK"
)

// Result is the standardized outcome of one rule. It is audit-ready: it names
// the rule (PolicyID), what happened (Status) and why (ReasonCode).
type Result struct {
	Status        Status         `json:"status"`
	PolicyID      string         `json:"policy_id"`
	ReasonCode    string         `json:"reason_code,omitempty"`
	Message       string         `json:"message,omitempty"`
	ActionDetails map[string]any `json:"action_details,omitempty"`
}

// Context carries everything a rule needs to decide, with no access to
// storage or the wall clock. TimeNow is injected by the caller; rules must
// never read the clock themselves.
type Context struct {
	Command Command
	Actor   booking.Actor
	TimeNow time.Time

	// Payload: a new request (CREATE_HOLD/RESCHEDULE) or an existing
	// booking snapshot (CONFIRM/CANCEL).
	Request         *booking.TimeSlotRequest
	BookingSnapshot *booking.Booking

	Metadata map[string]any
}

// Policy is a single stateless business rule. Evaluate must be pure and
// side-effect free.
type Policy interface {
	// ID is a stable identifier used for traceability and configuration.
	ID() string

	// Order is the execution priority (lower runs first).
	// 0-99 security/blockers, 100-499 core business rules, 500+ soft constraints.
	Order() int

	// ShouldApply is a cheap relevance filter run before Evaluate.
	ShouldApply(cmd Command, pctx *Context) bool

	Evaluate(ctx context.Context, pctx *Context) (Result, error)
}

// EvaluationRecord is one entry of the audit trace: a rule that actually ran.
type EvaluationRecord struct {
	PolicyID    string    `json:"policy_id"`
	Order       int       `json:"order"`
	Result      Result    `json:"result"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Trace is the ordered record of every rule evaluated for one command.
type Trace struct {
	Command       Command            `json:"command"`
	OverallStatus Status             `json:"overall_status"`
	Records       []EvaluationRecord `json:"records"`
	Timestamp     time.Time          `json:"timestamp"`
}

// Decision is the aggregate output of an engine run.
type Decision struct {
	Decision Result `json:"decision"`
	Trace    Trace  `json:"trace"`
}
