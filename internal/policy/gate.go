package policy

import (
	"context"

	"go.uber.org/zap"

	"github.com/jvillarreal-dev/booking-core/internal/booking"
)

// Gate adapts the engine to the booking service's CommandGate. Every run's
// trace is written to the audit log, allowed or not.
type Gate struct {
	engine *Engine
	log    *zap.Logger
}

func NewGate(engine *Engine, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{engine: engine, log: log}
}

func (g *Gate) Authorize(ctx context.Context, in booking.GateInput) error {
	cmd := Command(in.Command)

	decision, err := g.engine.Evaluate(ctx, cmd, &Context{
		Command:         cmd,
		Actor:           in.Actor,
		TimeNow:         in.Now,
		Request:         in.Request,
		BookingSnapshot: in.Snapshot,
	})
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("command", string(cmd)),
		zap.String("actor_id", in.Actor.ID),
		zap.String("overall_status", string(decision.Trace.OverallStatus)),
		zap.Int("rules_evaluated", len(decision.Trace.Records)),
		zap.Any("trace", decision.Trace.Records),
	}

	if decision.Decision.Status == StatusAllow {
		g.log.Debug("policy evaluation passed", fields...)
		return nil
	}

	g.log.Info("policy evaluation blocked command", fields...)
	return &booking.PolicyDeniedError{
		Status:        string(decision.Decision.Status),
		PolicyID:      decision.Decision.PolicyID,
		ReasonCode:    decision.Decision.ReasonCode,
		Message:       decision.Decision.Message,
		ActionDetails: decision.Decision.ActionDetails,
	}
}
