package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jvillarreal-dev/booking-core/internal/pkg/apperror"
	"github.com/jvillarreal-dev/booking-core/internal/resource"
)

// Command names understood by the policy layer.
const (
	CmdCreateHold = "CREATE_HOLD"
	CmdConfirm    = "CONFIRM"
	CmdCancel     = "CANCEL"
)

// GateInput is everything the policy layer needs to authorize one command.
// Now is the injected evaluation clock; rules never read the wall clock.
type GateInput struct {
	Command  string
	Actor    Actor
	Now      time.Time
	Request  *TimeSlotRequest
	Snapshot *Booking
}

// CommandGate authorizes a booking command before the store executes it.
// A nil error means ALLOW; a denial surfaces as *PolicyDeniedError.
type CommandGate interface {
	Authorize(ctx context.Context, in GateInput) error
}

// PolicyDeniedError is the structured negative outcome of a policy run.
// It is a normal business result, not an internal failure, and always carries
// a stable machine-readable reason code for client-facing messaging.
type PolicyDeniedError struct {
	Status        string
	PolicyID      string
	ReasonCode    string
	Message       string
	ActionDetails map[string]any
}

func (e *PolicyDeniedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("policy %s: %s", e.PolicyID, e.Message)
	}
	return fmt.Sprintf("policy %s denied the command (%s)", e.PolicyID, e.ReasonCode)
}

func (e *PolicyDeniedError) Unwrap() error {
	return apperror.New(http.StatusUnprocessableEntity, e.Error())
}

// allowAllGate is the fallback when no policy engine is wired.
type allowAllGate struct{}

func (allowAllGate) Authorize(context.Context, GateInput) error { return nil }

type Service interface {
	CreateHold(ctx context.Context, req *TimeSlotRequest, actor Actor) (*Booking, error)
	Confirm(ctx context.Context, id string, actor Actor) (*Booking, error)
	Cancel(ctx context.Context, id string, reason string, actor Actor) (*Booking, error)
	Complete(ctx context.Context, id string) (*Booking, error)
	MarkNoShow(ctx context.Context, id string) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
}

type service struct {
	repo       Repository
	resService resource.Service
	gate       CommandGate
	holdTTL    time.Duration
	clock      func() time.Time
	log        *zap.Logger
}

// NewService wires the booking orchestration. gate may be nil (no policies),
// clock may be nil (wall clock).
func NewService(repo Repository, resService resource.Service, gate CommandGate, holdTTL time.Duration, clock func() time.Time, log *zap.Logger) Service {
	if gate == nil {
		gate = allowAllGate{}
	}
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &service{
		repo:       repo,
		resService: resService,
		gate:       gate,
		holdTTL:    holdTTL,
		clock:      clock,
		log:        log,
	}
}

// CreateHold gates the request through the policy chain and then delegates
// conflict detection entirely to the store's atomic insert. There is no
// pre-check of conflicts here: that window is racy by definition, and the
// store's exclusion constraint is the only authority.
func (s *service) CreateHold(ctx context.Context, req *TimeSlotRequest, actor Actor) (*Booking, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.resService.GetByID(ctx, req.ResourceID); err != nil {
		if errors.Is(err, resource.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}

	now := s.clock()
	if err := s.gate.Authorize(ctx, GateInput{
		Command: CmdCreateHold,
		Actor:   actor,
		Now:     now,
		Request: req,
	}); err != nil {
		return nil, err
	}

	b, err := s.repo.CreateHold(ctx, req, actor, now.Add(s.holdTTL))
	if err != nil {
		return nil, err
	}

	s.log.Info("hold created",
		zap.String("booking_id", b.ID),
		zap.String("resource_id", b.ResourceID),
		zap.Time("start", b.Period.Start),
		zap.Time("end", b.Period.End),
		zap.Time("hold_expires_at", *b.HoldExpiresAt),
	)
	return b, nil
}

func (s *service) Confirm(ctx context.Context, id string, actor Actor) (*Booking, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Authorize(ctx, GateInput{
		Command:  CmdConfirm,
		Actor:    actor,
		Now:      s.clock(),
		Snapshot: snapshot,
	}); err != nil {
		return nil, err
	}

	b, err := s.repo.Confirm(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking confirmed", zap.String("booking_id", b.ID), zap.String("resource_id", b.ResourceID))
	return b, nil
}

func (s *service) Cancel(ctx context.Context, id string, reason string, actor Actor) (*Booking, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	snapshot, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Authorize(ctx, GateInput{
		Command:  CmdCancel,
		Actor:    actor,
		Now:      s.clock(),
		Snapshot: snapshot,
	}); err != nil {
		return nil, err
	}

	b, err := s.repo.Cancel(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	s.log.Info("booking cancelled", zap.String("booking_id", b.ID), zap.String("reason", reason))
	return b, nil
}

func (s *service) Complete(ctx context.Context, id string) (*Booking, error) {
	return s.repo.Complete(ctx, id)
}

func (s *service) MarkNoShow(ctx context.Context, id string) (*Booking, error) {
	return s.repo.MarkNoShow(ctx, id)
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}
