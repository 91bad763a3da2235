package order

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNext(t *testing.T) {
	tests := []struct {
		from    Status
		want    Status
		wantErr error
	}{
		{from: StatusPending, want: StatusShipped},
		{from: StatusShipped, want: StatusDelivered},
		{from: StatusDelivered, wantErr: ErrFinalStatus},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, err := tt.from.Next()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Status("bogus").Next()
	require.Error(t, err)
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusShipped.Valid())
	assert.True(t, StatusDelivered.Valid())
	assert.False(t, Status("cancelled").Valid())
}

// memOrders is an in-memory Repository for the Advance tests.
type memOrders struct {
	Repository
	orders map[string]*Order
}

func (m *memOrders) GetByID(_ context.Context, id string) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, from, to Status) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrStatusConflict
	}
	o.Status = to
	return nil
}

func TestAdvance(t *testing.T) {
	ctx := context.Background()
	repo := &memOrders{orders: map[string]*Order{
		"o1": {ID: "o1", Status: StatusPending},
	}}

	next, err := Advance(ctx, repo, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, next)

	next, err = Advance(ctx, repo, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, next)

	_, err = Advance(ctx, repo, "o1")
	require.ErrorIs(t, err, ErrFinalStatus)
	assert.Equal(t, StatusDelivered, repo.orders["o1"].Status, "final status unchanged")
}

func TestAdvanceNotFound(t *testing.T) {
	repo := &memOrders{orders: map[string]*Order{}}
	_, err := Advance(context.Background(), repo, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceConflict(t *testing.T) {
	repo := &memOrders{orders: map[string]*Order{
		"o1": {ID: "o1", Status: StatusPending},
	}}

	// Simulate a concurrent advance between read and CAS.
	orig := repo.orders["o1"]
	snapshot := *orig
	orig.Status = StatusShipped
	err := repo.UpdateStatus(context.Background(), "o1", snapshot.Status, StatusShipped)
	require.ErrorIs(t, err, ErrStatusConflict)
}
