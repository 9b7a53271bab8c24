package shop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeOrders struct {
	orders map[int64]*Order
	status map[int64]string
	setErr error
}

func (f *fakeOrders) ByID(_ context.Context, id int64) (*Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) SetStatus(_ context.Context, id int64, status string) error {
	if f.setErr != nil {
		return f.setErr
	}
	if f.status == nil {
		f.status = map[int64]string{}
	}
	f.status[id] = status
	return nil
}

type fakeInventory struct {
	decremented map[int64]int
	failOn      int64
}

func (f *fakeInventory) DecrementQuantity(_ context.Context, id int64, by int) error {
	if f.failOn != 0 && id == f.failOn {
		return errors.New("boom")
	}
	if f.decremented == nil {
		f.decremented = map[int64]int{}
	}
	f.decremented[id] += by
	return nil
}

func TestConfirmDecrementsAndConfirms(t *testing.T) {
	orders := &fakeOrders{orders: map[int64]*Order{
		7: {ID: 7, Status: OrderStatusNew, Items: OrderItems{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1, IsPreorder: true},
			{ProductID: 3, Quantity: 3},
		}},
	}}
	inv := &fakeInventory{}

	done, err := NewConfirmer(orders, inv).Confirm(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, OrderStatusConfirmed, orders.status[7])
	require.Equal(t, map[int64]int{1: 2, 2: 1, 3: 3}, inv.decremented)
}

func TestConfirmDecrementsPreorderItems(t *testing.T) {
	orders := &fakeOrders{orders: map[int64]*Order{
		7: {ID: 7, Status: OrderStatusNew, Items: OrderItems{
			{ProductID: 9, Quantity: 2, IsPreorder: true},
		}},
	}}
	inv := &fakeInventory{}

	done, err := NewConfirmer(orders, inv).Confirm(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, done)
	require.Equal(t, map[int64]int{9: 2}, inv.decremented)
}

func TestConfirmAlreadyConfirmedIsNoop(t *testing.T) {
	orders := &fakeOrders{orders: map[int64]*Order{
		7: {ID: 7, Status: OrderStatusConfirmed, Items: OrderItems{
			{ProductID: 1, Quantity: 2},
		}},
	}}
	inv := &fakeInventory{}

	done, err := NewConfirmer(orders, inv).Confirm(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, done)
	require.Empty(t, inv.decremented)
	require.Empty(t, orders.status)
}

func TestConfirmUnknownOrder(t *testing.T) {
	c := NewConfirmer(&fakeOrders{orders: map[int64]*Order{}}, &fakeInventory{})

	done, err := c.Confirm(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, done)
}

func TestConfirmStopsOnDecrementError(t *testing.T) {
	orders := &fakeOrders{orders: map[int64]*Order{
		7: {ID: 7, Status: OrderStatusNew, Items: OrderItems{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 1},
			{ProductID: 3, Quantity: 1},
		}},
	}}
	inv := &fakeInventory{failOn: 2}

	done, err := NewConfirmer(orders, inv).Confirm(context.Background(), 7)
	require.Error(t, err)
	require.False(t, done)
	// Items before the failing one keep their decrement; status stays new.
	require.Equal(t, map[int64]int{1: 1}, inv.decremented)
	require.Empty(t, orders.status)
}
