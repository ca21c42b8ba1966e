package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvillarreal-dev/booking-core/internal/resource"
)

type stubResourceService struct {
	resources map[string]*resource.Resource
}

func (s *stubResourceService) Create(context.Context, resource.CreateRequest) (*resource.Resource, error) {
	panic("not used")
}

func (s *stubResourceService) GetByID(_ context.Context, id string) (*resource.Resource, error) {
	if r, ok := s.resources[id]; ok {
		return r, nil
	}
	return nil, resource.ErrNotFound
}

func (s *stubResourceService) List(context.Context, resource.Filter) ([]*resource.Resource, int, error) {
	panic("not used")
}

func (s *stubResourceService) Update(context.Context, string, resource.UpdateRequest) (*resource.Resource, error) {
	panic("not used")
}

// recordingGate captures every authorization request and answers with a
// preset error.
type recordingGate struct {
	inputs []GateInput
	err    error
}

func (g *recordingGate) Authorize(_ context.Context, in GateInput) error {
	g.inputs = append(g.inputs, in)
	return g.err
}

func newServiceFixture(t *testing.T, gate CommandGate) (Service, Repository) {
	t.Helper()
	now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(fixedClock(now))
	resources := &stubResourceService{resources: map[string]*resource.Resource{
		"res-1": {ID: "res-1", Name: "Room A", Timezone: "UTC", Active: true},
	}}
	svc := NewService(repo, resources, gate, 10*time.Minute, fixedClock(now), nil)
	return svc, repo
}

func TestServiceCreateHold(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
	actor := Actor{Type: ActorCustomer, ID: "cust-1"}

	t.Run("happy path sets expiry from ttl", func(t *testing.T) {
		gate := &recordingGate{}
		svc, _ := newServiceFixture(t, gate)
		req := mustRequest(t, "res-1", now.Add(time.Hour), now.Add(2*time.Hour))

		b, err := svc.CreateHold(ctx, req, actor)
		require.NoError(t, err)
		assert.Equal(t, StatusHeld, b.Status)
		require.NotNil(t, b.HoldExpiresAt)
		assert.Equal(t, now.Add(10*time.Minute), *b.HoldExpiresAt)

		require.Len(t, gate.inputs, 1)
		assert.Equal(t, CmdCreateHold, gate.inputs[0].Command)
		assert.Equal(t, req, gate.inputs[0].Request)
	})

	t.Run("unknown resource", func(t *testing.T) {
		svc, _ := newServiceFixture(t, &recordingGate{})
		req := mustRequest(t, "res-missing", now.Add(time.Hour), now.Add(2*time.Hour))

		_, err := svc.CreateHold(ctx, req, actor)
		assert.ErrorIs(t, err, ErrResourceNotFound)
	})

	t.Run("invalid actor short-circuits before the gate", func(t *testing.T) {
		gate := &recordingGate{}
		svc, _ := newServiceFixture(t, gate)
		req := mustRequest(t, "res-1", now.Add(time.Hour), now.Add(2*time.Hour))

		_, err := svc.CreateHold(ctx, req, Actor{Type: ActorCustomer})
		assert.ErrorIs(t, err, ErrInvalidActor)
		assert.Empty(t, gate.inputs)
	})

	t.Run("policy denial is returned verbatim", func(t *testing.T) {
		denial := &PolicyDeniedError{
			Status:     "DENY",
			PolicyID:   "LeadTimePolicy@v1",
			ReasonCode: "booking.lead_time.too_soon",
		}
		gate := &recordingGate{err: denial}
		svc, repo := newServiceFixture(t, gate)
		req := mustRequest(t, "res-1", now.Add(time.Hour), now.Add(2*time.Hour))

		_, err := svc.CreateHold(ctx, req, actor)
		var denied *PolicyDeniedError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, "booking.lead_time.too_soon", denied.ReasonCode)

		// Nothing reached the store.
		_, total, listErr := repo.List(ctx, Filter{})
		require.NoError(t, listErr)
		assert.Zero(t, total)
	})

	t.Run("conflict bubbles up from the store", func(t *testing.T) {
		svc, _ := newServiceFixture(t, &recordingGate{})
		req := mustRequest(t, "res-1", now.Add(time.Hour), now.Add(2*time.Hour))

		_, err := svc.CreateHold(ctx, req, actor)
		require.NoError(t, err)

		_, err = svc.CreateHold(ctx, req, actor)
		assert.ErrorIs(t, err, ErrTimeConflict)
	})
}

func TestServiceConfirmAndCancel(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
	actor := Actor{Type: ActorCustomer, ID: "cust-1"}

	gate := &recordingGate{}
	svc, _ := newServiceFixture(t, gate)
	req := mustRequest(t, "res-1", now.Add(time.Hour), now.Add(2*time.Hour))

	held, err := svc.CreateHold(ctx, req, actor)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, held.ID, actor)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	// The gate saw the snapshot of the booking being confirmed.
	require.Len(t, gate.inputs, 2)
	assert.Equal(t, CmdConfirm, gate.inputs[1].Command)
	require.NotNil(t, gate.inputs[1].Snapshot)
	assert.Equal(t, held.ID, gate.inputs[1].Snapshot.ID)

	cancelled, err := svc.Cancel(ctx, held.ID, "changed plans", actor)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "changed plans", cancelled.Metadata["cancellation_reason"])

	_, err = svc.Confirm(ctx, "00000000-0000-0000-0000-000000000000", actor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceNilGateAllowsEverything(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 17, 12, 0, 0, 0, time.UTC)
	repo := NewMemoryRepository(fixedClock(now))
	resources := &stubResourceService{resources: map[string]*resource.Resource{
		"res-1": {ID: "res-1", Name: "Room A", Timezone: "UTC", Active: true},
	}}
	svc := NewService(repo, resources, nil, 10*time.Minute, fixedClock(now), nil)

	req := mustRequest(t, "res-1", now.Add(time.Hour), now.Add(2*time.Hour))
	b, err := svc.CreateHold(ctx, req, Actor{Type: ActorCustomer, ID: "cust-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusHeld, b.Status)
}
