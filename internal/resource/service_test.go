package resource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	rows map[string]*Resource
}

func newStubRepository() *stubRepository {
	return &stubRepository{rows: make(map[string]*Resource)}
}

func (r *stubRepository) Create(_ context.Context, res *Resource) error {
	res.ID = "res-" + res.Name
	r.rows[res.ID] = res
	return nil
}

func (r *stubRepository) GetByID(_ context.Context, id string) (*Resource, error) {
	res, ok := r.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	dup := *res
	return &dup, nil
}

func (r *stubRepository) List(_ context.Context, filter Filter) ([]*Resource, int, error) {
	var out []*Resource
	for _, res := range r.rows {
		if filter.Active != nil && res.Active != *filter.Active {
			continue
		}
		dup := *res
		out = append(out, &dup)
	}
	return out, len(out), nil
}

func (r *stubRepository) Update(_ context.Context, res *Resource) error {
	if _, ok := r.rows[res.ID]; !ok {
		return ErrNotFound
	}
	dup := *res
	r.rows[res.ID] = &dup
	return nil
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid resource defaults to active", func(t *testing.T) {
		svc := NewService(newStubRepository())
		res, err := svc.Create(ctx, CreateRequest{Name: "Room A", Timezone: "America/Panama"})
		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.True(t, res.Active)
		assert.Equal(t, "America/Panama", res.Timezone)
	})

	t.Run("empty timezone defaults to UTC", func(t *testing.T) {
		svc := NewService(newStubRepository())
		res, err := svc.Create(ctx, CreateRequest{Name: "Room B"})
		require.NoError(t, err)
		assert.Equal(t, "UTC", res.Timezone)
	})

	t.Run("blank name", func(t *testing.T) {
		svc := NewService(newStubRepository())
		_, err := svc.Create(ctx, CreateRequest{Name: "   "})
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("bad timezone", func(t *testing.T) {
		svc := NewService(newStubRepository())
		_, err := svc.Create(ctx, CreateRequest{Name: "Room C", Timezone: "Mars/Olympus"})
		assert.ErrorIs(t, err, ErrInvalidTimezone)
	})
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStubRepository())

	created, err := svc.Create(ctx, CreateRequest{Name: "Room A"})
	require.NoError(t, err)

	name := "Room A2"
	inactive := false
	updated, err := svc.Update(ctx, created.ID, UpdateRequest{Name: &name, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Room A2", updated.Name)
	assert.False(t, updated.Active)

	blank := " "
	_, err = svc.Update(ctx, created.ID, UpdateRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = svc.Update(ctx, "missing", UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}
