package orderitem

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	dishrepo "github.com/cafeworks/espresso/internal/repository/dish"
	orderrepo "github.com/cafeworks/espresso/internal/repository/order"
	repo "github.com/cafeworks/espresso/internal/repository/orderitem"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

type fakeStore struct {
	items  map[int64]*entity.OrderItem
	nextID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[int64]*entity.OrderItem), nextID: 1}
}

func (f *fakeStore) GetAll(context.Context) ([]*entity.OrderItem, error) {
	out := make([]*entity.OrderItem, 0, len(f.items))
	for _, i := range f.items {
		out = append(out, i)
	}
	return out, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*entity.OrderItem, error) {
	i, ok := f.items[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return i, nil
}

func (f *fakeStore) ListByOrder(_ context.Context, orderID int64) ([]*entity.OrderItem, error) {
	out := make([]*entity.OrderItem, 0)
	for _, i := range f.items {
		if i.OrderID == orderID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, i *entity.OrderItem) error {
	i.ID = f.nextID
	f.nextID++
	f.items[i.ID] = i
	return nil
}

func (f *fakeStore) Update(_ context.Context, i *entity.OrderItem) error {
	if _, ok := f.items[i.ID]; !ok {
		return repo.ErrNotFound
	}
	f.items[i.ID] = i
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.items[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeOrderStore struct {
	orders map[int64]*entity.Order
}

func (f *fakeOrderStore) GetByID(_ context.Context, id int64) (*entity.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, orderrepo.ErrNotFound
	}
	return o, nil
}

type fakeDishStore struct {
	dishes map[int64]*entity.Dish
}

func (f *fakeDishStore) GetByID(_ context.Context, id int64) (*entity.Dish, error) {
	d, ok := f.dishes[id]
	if !ok {
		return nil, dishrepo.ErrNotFound
	}
	return d, nil
}

type harness struct {
	svc    *Service
	store  *fakeStore
	orders *fakeOrderStore
	dishes *fakeDishStore
}

func newHarness() *harness {
	store := newFakeStore()
	orders := &fakeOrderStore{orders: map[int64]*entity.Order{
		1: {ID: 1, TableID: 1},
	}}
	dishes := &fakeDishStore{dishes: map[int64]*entity.Dish{
		10: {ID: 10, Name: "Espresso", Price: decimal.RequireFromString("2.50")},
	}}

	svc := NewService(Params{
		Store:  store,
		Orders: orders,
		Dishes: dishes,
		Logger: zap.NewNop(),
	})
	return &harness{svc: svc, store: store, orders: orders, dishes: dishes}
}

func TestCreateSnapshotsCurrentPrice(t *testing.T) {
	h := newHarness()

	item, err := h.svc.Create(context.Background(), dto.OrderItemCreate{OrderID: 1, DishID: 10, Quantity: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !item.PriceAtOrder.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("expected snapshot 2.50, got %s", item.PriceAtOrder)
	}
}

func TestCreateMergesSameDishLine(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first, err := h.svc.Create(ctx, dto.OrderItemCreate{OrderID: 1, DishID: 10, Quantity: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// The dish price changes between the two additions; the merged line
	// must keep its original snapshot.
	h.dishes.dishes[10].Price = decimal.RequireFromString("4.00")

	merged, err := h.svc.Create(ctx, dto.OrderItemCreate{OrderID: 1, DishID: 10, Quantity: 3})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.ID != first.ID {
		t.Fatalf("expected merge into line %d, got new line %d", first.ID, merged.ID)
	}
	if merged.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", merged.Quantity)
	}
	if !merged.PriceAtOrder.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("snapshot must survive the merge, got %s", merged.PriceAtOrder)
	}
	if len(h.store.items) != 1 {
		t.Fatalf("expected a single line, got %d", len(h.store.items))
	}
}

func TestCreateGuards(t *testing.T) {
	h := newHarness()
	h.orders.orders[2] = &entity.Order{ID: 2, IsCompleted: true}
	ctx := context.Background()

	tests := []struct {
		name  string
		input dto.OrderItemCreate
		kind  errorbank.Kind
	}{
		{"zero quantity", dto.OrderItemCreate{OrderID: 1, DishID: 10, Quantity: 0}, errorbank.KindBadRequest},
		{"unknown order", dto.OrderItemCreate{OrderID: 9, DishID: 10, Quantity: 1}, errorbank.KindNotFound},
		{"unknown dish", dto.OrderItemCreate{OrderID: 1, DishID: 99, Quantity: 1}, errorbank.KindNotFound},
		{"completed order", dto.OrderItemCreate{OrderID: 2, DishID: 10, Quantity: 1}, errorbank.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.Create(ctx, tt.input)
			if !errorbank.IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestUpdateQuantityOnly(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderItemCreate{OrderID: 1, DishID: 10, Quantity: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	qty := 4
	updated, err := h.svc.Update(ctx, created.ID, dto.OrderItemUpdate{Quantity: &qty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", updated.Quantity)
	}
	if !updated.PriceAtOrder.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("snapshot changed: %s", updated.PriceAtOrder)
	}

	zero := 0
	_, err = h.svc.Update(ctx, created.ID, dto.OrderItemUpdate{Quantity: &zero})
	if !errorbank.IsKind(err, errorbank.KindBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestMutationsBlockedOnCompletedOrder(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	created, err := h.svc.Create(ctx, dto.OrderItemCreate{OrderID: 1, DishID: 10, Quantity: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	h.orders.orders[1].IsCompleted = true

	qty := 2
	_, err = h.svc.Update(ctx, created.ID, dto.OrderItemUpdate{Quantity: &qty})
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("expected conflict on update, got %v", err)
	}

	err = h.svc.Delete(ctx, created.ID)
	if !errorbank.IsKind(err, errorbank.KindConflict) {
		t.Fatalf("expected conflict on delete, got %v", err)
	}
}

func TestListByOrder(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.svc.ListByOrder(ctx, 1)
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		t.Fatalf("expected not found for empty order, got %v", err)
	}

	if _, err := h.svc.Create(ctx, dto.OrderItemCreate{OrderID: 1, DishID: 10, Quantity: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	items, err := h.svc.ListByOrder(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
}
